package reservations

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"showbook/internal/shared/utils/response"
)

type Controller interface {
	Submit(c *gin.Context)
	GetReservation(c *gin.Context)
	ListByEvent(c *gin.Context)
	ChangeStatus(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

// Submit godoc
// @Summary Submit a reservation request
// @Tags reservations
// @Accept json
// @Produce json
// @Param reservation body SubmitReservationRequest true "Reservation"
// @Success 201 {object} response.StandardApiResponse
// @Router /reservations [post]
func (ctrl *controller) Submit(c *gin.Context) {
	var req SubmitReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	result, err := ctrl.service.Submit(c.Request.Context(), req)
	if err != nil {
		response.RespondError(c, "Failed to submit reservation", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Reservation submitted successfully", result, nil)
}

// GetReservation godoc
// @Summary Get a reservation
// @Tags reservations
// @Produce json
// @Param id path string true "Reservation ID"
// @Success 200 {object} response.StandardApiResponse
// @Router /reservations/{id} [get]
func (ctrl *controller) GetReservation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid reservation ID", nil, err.Error())
		return
	}

	reservation, err := ctrl.service.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, "Failed to get reservation", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Reservation retrieved successfully", reservation, nil)
}

// ListByEvent godoc
// @Summary List the reservations of an event
// @Tags reservations
// @Produce json
// @Param id path string true "Event ID"
// @Param status query string false "Status filter"
// @Success 200 {object} response.StandardApiResponse
// @Router /events/{id}/reservations [get]
func (ctrl *controller) ListByEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid event ID", nil, err.Error())
		return
	}

	var query ListReservationsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	reservations, err := ctrl.service.ListByEvent(c.Request.Context(), eventID, query.Status)
	if err != nil {
		response.RespondError(c, "Failed to list reservations", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Reservations retrieved successfully", reservations, nil)
}

// ChangeStatus godoc
// @Summary Move a reservation to another status
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Reservation ID"
// @Param status body ChangeStatusRequest true "Target status"
// @Success 200 {object} response.StandardApiResponse
// @Failure 409 {object} response.StandardApiResponse
// @Failure 422 {object} response.StandardApiResponse
// @Router /admin/reservations/{id}/status [patch]
func (ctrl *controller) ChangeStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid reservation ID", nil, err.Error())
		return
	}

	var req ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	result, err := ctrl.service.ChangeStatus(c.Request.Context(), id, Status(req.Status))
	if err != nil {
		response.RespondError(c, "Failed to change reservation status", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Reservation status updated", result, nil)
}
