package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger wraps slog.Logger with additional functionality
type Logger struct {
	*slog.Logger
}

// New creates a new logger writing to stdout
func New() *Logger {
	return NewWithWriter(os.Stdout)
}

// NewWithWriter creates a logger writing to w. Text output in gin debug
// mode, JSON otherwise.
func NewWithWriter(w io.Writer) *Logger {
	level := getLogLevel(os.Getenv("LOG_LEVEL"))

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	if gin.Mode() == gin.DebugMode {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// getLogLevel converts string to slog.Level
func getLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithComponent tags every record with the emitting component
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With(slog.String("component", name)),
	}
}

// HTTP logging methods

// LogHTTPRequest logs an HTTP request
func (l *Logger) LogHTTPRequest(c *gin.Context, duration time.Duration) {
	l.Logger.InfoContext(c.Request.Context(),
		"HTTP Request",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.String("query", c.Request.URL.RawQuery),
		slog.Int("status", c.Writer.Status()),
		slog.Duration("duration", duration),
		slog.String("ip", c.ClientIP()),
		slog.String("request_id", c.GetString("request_id")),
		slog.Int("size", c.Writer.Size()),
	)
}

// LogHTTPError logs an HTTP error
func (l *Logger) LogHTTPError(c *gin.Context, err error, statusCode int) {
	l.Logger.ErrorContext(c.Request.Context(),
		"HTTP Error",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.Int("status", statusCode),
		slog.String("error", err.Error()),
		slog.String("request_id", c.GetString("request_id")),
	)
}

// LogRateLimitExceeded logs rate limit exceeded
func (l *Logger) LogRateLimitExceeded(ctx context.Context, ip, endpoint string) {
	l.Logger.WarnContext(ctx,
		"Rate Limit Exceeded",
		slog.String("ip", ip),
		slog.String("endpoint", endpoint),
	)
}

// Business logic logging methods

// LogReservationSubmitted logs a new reservation
func (l *Logger) LogReservationSubmitted(ctx context.Context, reservationID, eventID string, persons int, overCapacity bool) {
	l.Logger.InfoContext(ctx,
		"Reservation Submitted",
		slog.String("reservation_id", reservationID),
		slog.String("event_id", eventID),
		slog.Int("persons", persons),
		slog.Bool("over_capacity", overCapacity),
	)
}

// LogStatusTransition logs a persisted reservation status change
func (l *Logger) LogStatusTransition(ctx context.Context, reservationID, from, to string, freed int) {
	l.Logger.InfoContext(ctx,
		"Reservation Status Changed",
		slog.String("reservation_id", reservationID),
		slog.String("from", from),
		slog.String("to", to),
		slog.Int("capacity_freed", freed),
	)
}

// LogReconciliation logs the outcome of re-deriving one event
func (l *Logger) LogReconciliation(ctx context.Context, eventID string, changed []string, attempts int, duration time.Duration) {
	level := slog.LevelDebug
	if len(changed) > 0 {
		level = slog.LevelInfo
	}
	l.Logger.Log(ctx, level,
		"Event Reconciled",
		slog.String("event_id", eventID),
		slog.Any("changed", changed),
		slog.Int("attempts", attempts),
		slog.Duration("duration", duration),
	)
}

// LogRepairSummary logs the totals of a repair batch
func (l *Logger) LogRepairSummary(ctx context.Context, fixed, correct, failed int, duration time.Duration) {
	level := slog.LevelInfo
	if failed > 0 {
		level = slog.LevelWarn
	}
	l.Logger.Log(ctx, level,
		"Repair Finished",
		slog.Int("fixed", fixed),
		slog.Int("already_correct", correct),
		slog.Int("failed", failed),
		slog.Duration("duration", duration),
	)
}

// Global logger instance (can be replaced with dependency injection)
var defaultLogger = New()

// GetDefault returns the default logger instance
func GetDefault() *Logger {
	return defaultLogger
}

