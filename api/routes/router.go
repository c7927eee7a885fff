// api/routes/router.go
package routes

import (
	"context"
	"net/http"
	"time"

	_ "showbook/docs"
	"showbook/internal/events"
	"showbook/internal/notifications"
	"showbook/internal/reconciliation"
	"showbook/internal/reservations"
	"showbook/internal/shared/config"
	"showbook/internal/shared/database"
	"showbook/pkg/cache"
	"showbook/pkg/logger"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Router holds all route dependencies
type Router struct {
	config   *config.Config
	db       *database.DB
	notifier notifications.Notifier
	log      *logger.Logger

	eventService       events.Service
	reservationService reservations.Service
	reconciler         *reconciliation.Service
	jobs               *reconciliation.JobProcessor
}

// NewRouter wires repositories and services. A nil notifier disables notifications.
func NewRouter(cfg *config.Config, db *database.DB, notifier notifications.Notifier, log *logger.Logger) *Router {
	r := &Router{
		config:   cfg,
		db:       db,
		notifier: notifier,
		log:      log,
	}

	eventRepo := events.NewRepository(db.SQL)
	reservationRepo := reservations.NewRepository(db.SQL)

	// Reconciler sits below both services; it only sees the stores
	r.reconciler = reconciliation.NewService(eventRepo, reservationRepo, cfg.Reconcile, log)
	r.jobs = reconciliation.NewJobProcessor(r.reconciler, cfg.Reconcile.ScheduleInterval, log)

	r.eventService = events.NewService(eventRepo, reservationRepo, r.reconciler, log)
	if db.Redis != nil {
		r.eventService.SetCacheService(cache.NewService(db.Redis), cfg.Redis.SnapshotTTL)
	}

	r.reservationService = reservations.NewService(reservationRepo, r.eventService, r.reconciler, log)

	if notifier != nil {
		r.eventService.SetNotifier(notifier)
		r.reservationService.SetNotifier(notifier)
	}

	return r
}

// Jobs returns the background repair job so the caller can start and stop it
func (r *Router) Jobs() *reconciliation.JobProcessor {
	return r.jobs
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Health check and basic info endpoints
	r.setupHealthRoutes(engine)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API routes
	api := engine.Group(r.config.GetAPIBasePath())
	{
		r.setupEventRoutes(api)
		r.setupReservationRoutes(api)
		r.setupReconciliationRoutes(api)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "showbook-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "showbook-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":        "operational",
			"api_version":   r.config.APIVersion,
			"timestamp":     time.Now(),
			"redis_cache":   r.db.Redis != nil,
			"notifications": r.notificationStatus(c.Request.Context()),
			"repair_job":    r.jobs.GetJobStatus(),
		})
	})
}

func (r *Router) notificationStatus(ctx context.Context) string {
	if r.notifier == nil {
		return "disabled"
	}
	checker, ok := r.notifier.(interface{ HealthCheck(context.Context) error })
	if !ok {
		return "enabled"
	}
	if err := checker.HealthCheck(ctx); err != nil {
		return "unhealthy: " + err.Error()
	}
	return "healthy"
}

// setupEventRoutes configures event management routes
func (r *Router) setupEventRoutes(rg *gin.RouterGroup) {
	events.SetupEventRoutes(rg, events.NewController(r.eventService))
}

// setupReservationRoutes configures reservation routes
func (r *Router) setupReservationRoutes(rg *gin.RouterGroup) {
	reservations.SetupReservationRoutes(rg, reservations.NewController(r.reservationService))
}

// setupReconciliationRoutes configures the admin repair endpoints
func (r *Router) setupReconciliationRoutes(rg *gin.RouterGroup) {
	reconciliation.SetupReconciliationRoutes(rg, reconciliation.NewController(r.reconciler))
}
