package reconciliation

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"showbook/internal/shared/utils/response"
)

type Controller interface {
	RepairAll(c *gin.Context)
	RepairEvent(c *gin.Context)
}

type controller struct {
	service *Service
}

func NewController(service *Service) Controller {
	return &controller{service: service}
}

// RepairAll godoc
// @Summary Re-derive capacity and waitlist state of every event
// @Tags admin
// @Produce json
// @Success 200 {object} response.StandardApiResponse
// @Router /admin/reconcile [post]
func (ctrl *controller) RepairAll(c *gin.Context) {
	report, err := ctrl.service.RepairAll(c.Request.Context())
	if err != nil {
		response.RespondError(c, "Repair failed", err)
		return
	}

	message := "Repair finished"
	if report.HasFailures() {
		message = "Repair finished with failures"
	}
	response.RespondJSON(c, "success", http.StatusOK, message, report, nil)
}

// RepairEvent godoc
// @Summary Re-derive capacity and waitlist state of one event
// @Tags admin
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.StandardApiResponse
// @Failure 409 {object} response.StandardApiResponse
// @Router /admin/events/{id}/reconcile [post]
func (ctrl *controller) RepairEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid event ID", nil, err.Error())
		return
	}

	result, err := ctrl.service.Reconcile(c.Request.Context(), eventID)
	if err != nil {
		response.RespondError(c, "Reconciliation failed", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Event reconciled", reportFrom(result), nil)
}
