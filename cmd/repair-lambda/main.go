// Command repair-lambda runs the capacity repair as an AWS Lambda function,
// typically on a schedule. An empty payload repairs every event.
package main

import (
	"context"
	"fmt"
	"os"

	"showbook/internal/events"
	"showbook/internal/reconciliation"
	"showbook/internal/reservations"
	"showbook/internal/shared/config"
	"showbook/internal/shared/database"
	"showbook/pkg/logger"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/google/uuid"
)

// RepairRequest is the invocation payload
type RepairRequest struct {
	EventID string `json:"event_id,omitempty"`
}

type handler struct {
	reconciler *reconciliation.Service
}

// Handle repairs one event or all of them. Failed events are reported in the
// result rather than failing the invocation, so a retry does not redo the batch.
func (h *handler) Handle(ctx context.Context, req RepairRequest) (*reconciliation.BatchReport, error) {
	if req.EventID == "" {
		return h.reconciler.RepairAll(ctx)
	}
	id, err := uuid.Parse(req.EventID)
	if err != nil {
		return nil, fmt.Errorf("invalid event_id %q: %w", req.EventID, err)
	}
	return h.reconciler.RepairOne(ctx, id), nil
}

func main() {
	cfg := config.Load()
	appLogger := logger.New().WithComponent("repair-lambda")

	// The connection is reused across warm invocations
	db, err := database.OpenSQL(cfg)
	if err != nil {
		appLogger.Error("Failed to open database", "error", err)
		os.Exit(1)
	}

	reconciler := reconciliation.NewService(
		events.NewRepository(db),
		reservations.NewRepository(db),
		cfg.Reconcile,
		appLogger,
	)

	lambda.Start((&handler{reconciler: reconciler}).Handle)
}
