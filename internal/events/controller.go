package events

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"showbook/internal/shared/utils/response"
)

type Controller interface {
	CreateEvent(c *gin.Context)
	GetEvent(c *gin.Context)
	GetAllEvents(c *gin.Context)
	UpdateCapacity(c *gin.Context)
	ActivateWaitlist(c *gin.Context)
	DeleteEvent(c *gin.Context)
	MigrateTypes(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

// CreateEvent godoc
// @Summary Create an event
// @Tags events
// @Accept json
// @Produce json
// @Param event body CreateEventRequest true "Event"
// @Success 201 {object} response.StandardApiResponse
// @Router /events [post]
func (ctrl *controller) CreateEvent(c *gin.Context) {
	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	event, err := ctrl.service.CreateEvent(c.Request.Context(), req)
	if err != nil {
		response.RespondError(c, "Failed to create event", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Event created successfully", event, nil)
}

// GetEvent godoc
// @Summary Get an event with its capacity snapshot
// @Tags events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.StandardApiResponse
// @Router /events/{id} [get]
func (ctrl *controller) GetEvent(c *gin.Context) {
	eventID, ok := parseEventID(c)
	if !ok {
		return
	}

	event, err := ctrl.service.GetEvent(c.Request.Context(), eventID)
	if err != nil {
		response.RespondError(c, "Failed to get event", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Event retrieved successfully", event, nil)
}

// GetAllEvents godoc
// @Summary List events
// @Tags events
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param type query string false "Event type"
// @Success 200 {object} response.StandardApiResponse
// @Router /events [get]
func (ctrl *controller) GetAllEvents(c *gin.Context) {
	var query EventListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	events, err := ctrl.service.GetAllEvents(c.Request.Context(), query)
	if err != nil {
		response.RespondError(c, "Failed to list events", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Events retrieved successfully", events, nil)
}

// UpdateCapacity godoc
// @Summary Change the capacity or capacity override of an event
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param capacity body UpdateCapacityRequest true "Capacity"
// @Success 200 {object} response.StandardApiResponse
// @Failure 409 {object} response.StandardApiResponse "lost to concurrent reservation updates after retries"
// @Router /admin/events/{id}/capacity [patch]
func (ctrl *controller) UpdateCapacity(c *gin.Context) {
	eventID, ok := parseEventID(c)
	if !ok {
		return
	}

	var req UpdateCapacityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	event, err := ctrl.service.UpdateCapacity(c.Request.Context(), eventID, req)
	if err != nil {
		response.RespondError(c, "Failed to update capacity", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Capacity updated successfully", event, nil)
}

// ActivateWaitlist godoc
// @Summary Activate the waitlist of a sold-out event
// @Tags admin
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.StandardApiResponse
// @Failure 409 {object} response.StandardApiResponse "lost to concurrent reservation updates after retries"
// @Failure 422 {object} response.StandardApiResponse
// @Router /admin/events/{id}/waitlist [post]
func (ctrl *controller) ActivateWaitlist(c *gin.Context) {
	eventID, ok := parseEventID(c)
	if !ok {
		return
	}

	event, err := ctrl.service.ActivateWaitlist(c.Request.Context(), eventID)
	if err != nil {
		response.RespondError(c, "Failed to activate waitlist", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Waitlist activated", event, nil)
}

// DeleteEvent godoc
// @Summary Delete an event without reservations
// @Tags admin
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.StandardApiResponse
// @Failure 409 {object} response.StandardApiResponse
// @Router /admin/events/{id} [delete]
func (ctrl *controller) DeleteEvent(c *gin.Context) {
	eventID, ok := parseEventID(c)
	if !ok {
		return
	}

	if err := ctrl.service.DeleteEvent(c.Request.Context(), eventID); err != nil {
		response.RespondError(c, "Failed to delete event", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Event deleted successfully", nil, nil)
}

// MigrateTypes godoc
// @Summary Rewrite legacy event types
// @Tags admin
// @Produce json
// @Param dry_run query bool false "Report only"
// @Success 200 {object} response.StandardApiResponse
// @Router /admin/events/migrate-types [post]
func (ctrl *controller) MigrateTypes(c *gin.Context) {
	dryRun, err := strconv.ParseBool(c.DefaultQuery("dry_run", "false"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid dry_run value", nil, err.Error())
		return
	}

	report, err := ctrl.service.MigrateTypes(c.Request.Context(), dryRun)
	if err != nil {
		response.RespondError(c, "Event type migration failed", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Event type migration finished", report, nil)
}

func parseEventID(c *gin.Context) (uuid.UUID, bool) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid event ID", nil, err.Error())
		return uuid.Nil, false
	}
	return eventID, true
}
