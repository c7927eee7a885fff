package main

import (
	"context"
	"testing"

	"showbook/internal/reconciliation"
	"showbook/internal/shared/config"
	"showbook/pkg/logger"
)

func TestHandleRejectsBadEventID(t *testing.T) {
	h := &handler{reconciler: reconciliation.NewService(nil, nil, config.ReconcileConfig{}, logger.Discard())}

	if _, err := h.Handle(context.Background(), RepairRequest{EventID: "not-a-uuid"}); err == nil {
		t.Error("expected error for malformed event id")
	}
}
