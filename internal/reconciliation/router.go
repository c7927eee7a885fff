package reconciliation

import (
	"github.com/gin-gonic/gin"
)

func SetupReconciliationRoutes(router *gin.RouterGroup, controller Controller) {
	admin := router.Group("/admin")
	{
		admin.POST("/reconcile", controller.RepairAll)              // POST /api/v1/admin/reconcile
		admin.POST("/events/:id/reconcile", controller.RepairEvent) // POST /api/v1/admin/events/:id/reconcile
	}
}
