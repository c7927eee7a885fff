package events

import (
	"github.com/gin-gonic/gin"
)

func SetupEventRoutes(router *gin.RouterGroup, controller Controller) {
	// Public routes - browsing and creating shows
	publicEvents := router.Group("/events")
	{
		publicEvents.POST("", controller.CreateEvent) // POST /api/v1/events - Create event
		publicEvents.GET("", controller.GetAllEvents) // GET /api/v1/events - Browse all events
		publicEvents.GET("/:id", controller.GetEvent) // GET /api/v1/events/:id - Event with capacity snapshot
	}

	// Admin routes - capacity management and maintenance
	adminEvents := router.Group("/admin/events")
	{
		adminEvents.POST("/migrate-types", controller.MigrateTypes)    // POST /api/v1/admin/events/migrate-types?dry_run=true
		adminEvents.PATCH("/:id/capacity", controller.UpdateCapacity)  // PATCH /api/v1/admin/events/:id/capacity
		adminEvents.POST("/:id/waitlist", controller.ActivateWaitlist) // POST /api/v1/admin/events/:id/waitlist
		adminEvents.DELETE("/:id", controller.DeleteEvent)             // DELETE /api/v1/admin/events/:id
	}
}
