package reconciliation

import (
	"context"

	"showbook/internal/events"

	"github.com/google/uuid"
)

// EventStore is the event persistence the reconciler needs. Update must be a
// conditional write on expectedVersion returning ErrConcurrencyConflict when
// the version moved and ErrNotFound when the event is gone.
type EventStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*events.Event, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}, expectedVersion int64) error
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
}
