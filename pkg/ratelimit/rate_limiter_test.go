package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestGetRateLimitType(t *testing.T) {
	tests := []struct {
		path string
		want RateLimitType
	}{
		{"/health", RateLimitTypeHealth},
		{"/ping", RateLimitTypeHealth},
		{"/api/v1/admin/events/:id/capacity", RateLimitTypeAdmin},
		{"/api/v1/admin/reservations/:id/status", RateLimitTypeAdmin},
		{"/api/v1/reservations", RateLimitTypeReservation},
		{"/api/v1/events/:id/reservations", RateLimitTypeReservation},
		{"/api/v1/events/:id", RateLimitTypePublic},
		{"/status", RateLimitTypeDefault},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := getRateLimitType(tt.path); got != tt.want {
				t.Errorf("getRateLimitType(%q) = %s, want %s", tt.path, got, tt.want)
			}
		})
	}
}

func TestIsAllowedWithoutRedis(t *testing.T) {
	limiter := NewRateLimiter(nil, &Config{
		Enabled:             true,
		WindowDuration:      time.Minute,
		DefaultRequests:     100,
		ReservationRequests: 10,
	})

	result, err := limiter.IsAllowed(context.Background(), "10.0.0.1", RateLimitTypeReservation)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Allowed || result.Limit != 10 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestMiddlewareSetsHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	limiter := NewRateLimiter(nil, &Config{Enabled: false, WindowDuration: time.Minute, PublicRequests: 200})
	engine := gin.New()
	engine.Use(Middleware(limiter))
	engine.GET("/api/v1/events", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := w.Header().Get("X-RateLimit-Limit"); got != "200" {
		t.Errorf("X-RateLimit-Limit = %q, want 200", got)
	}
}
