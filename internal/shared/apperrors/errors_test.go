package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil", nil, http.StatusOK},
		{"not found", NotFound("event", "42"), http.StatusNotFound},
		{"conflict", Conflict("event", "42"), http.StatusConflict},
		{"reconciliation conflict", fmt.Errorf("gave up: %w", ErrReconciliationConflict), http.StatusConflict},
		{"terminal", &TransitionError{From: "cancelled", To: "confirmed", Kind: ErrTerminalStateViolation}, http.StatusUnprocessableEntity},
		{"invalid capacity", ErrInvalidCapacity, http.StatusUnprocessableEntity},
		{"validation", fmt.Errorf("%w: email", ErrValidation), http.StatusBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.expected {
				t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.expected)
			}
		})
	}
}

func TestTransitionErrorUnwraps(t *testing.T) {
	err := fmt.Errorf("change status: %w", &TransitionError{From: "pending", To: "pending", Kind: ErrInvalidTransition})

	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	var te *TransitionError
	if !errors.As(err, &te) || te.From != "pending" || te.To != "pending" {
		t.Fatalf("expected TransitionError pending -> pending, got %v", err)
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(Conflict("event", "1")) {
		t.Error("conflict should be retryable")
	}
	if IsRetryable(NotFound("event", "1")) {
		t.Error("not found should not be retryable")
	}
}
