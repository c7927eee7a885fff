package reservations

import (
	"github.com/gin-gonic/gin"
)

func SetupReservationRoutes(router *gin.RouterGroup, controller Controller) {
	// Public routes - customers submit and look up reservations
	reservations := router.Group("/reservations")
	{
		reservations.POST("", controller.Submit)
		reservations.GET("/:id", controller.GetReservation) // GET /api/v1/reservations/:id
	}

	router.GET("/events/:id/reservations", controller.ListByEvent) // GET /api/v1/events/:id/reservations?status=confirmed

	// Admin routes - status transitions drive capacity reconciliation
	adminReservations := router.Group("/admin/reservations")
	{
		adminReservations.PATCH("/:id/status", controller.ChangeStatus) // PATCH /api/v1/admin/reservations/:id/status
	}
}
