package reconciliation

import (
	"time"

	"showbook/internal/events"
)

type Outcome string

const (
	OutcomeFixed          Outcome = "fixed"
	OutcomeAlreadyCorrect Outcome = "already-correct"
	OutcomeFailed         Outcome = "failed"
)

// EventReport is the repair outcome of one event
type EventReport struct {
	EventID  string          `json:"event_id"`
	Before   *events.Derived `json:"before,omitempty"`
	After    *events.Derived `json:"after,omitempty"`
	Changed  []string        `json:"changed,omitempty"`
	Outcome  Outcome         `json:"outcome"`
	Reason   string          `json:"reason,omitempty"`
	Attempts int             `json:"attempts,omitempty"`
}

// BatchReport summarises a repair run
type BatchReport struct {
	StartedAt      time.Time     `json:"started_at"`
	Duration       time.Duration `json:"duration"`
	Events         []EventReport `json:"events"`
	Fixed          int           `json:"fixed"`
	AlreadyCorrect int           `json:"already_correct"`
	Failed         int           `json:"failed"`
}

func (b *BatchReport) HasFailures() bool {
	return b.Failed > 0
}

func (b *BatchReport) Failures() []EventReport {
	var failed []EventReport
	for _, r := range b.Events {
		if r.Outcome == OutcomeFailed {
			failed = append(failed, r)
		}
	}
	return failed
}

func (b *BatchReport) tally() {
	b.Fixed, b.AlreadyCorrect, b.Failed = 0, 0, 0
	for _, r := range b.Events {
		switch r.Outcome {
		case OutcomeFixed:
			b.Fixed++
		case OutcomeAlreadyCorrect:
			b.AlreadyCorrect++
		case OutcomeFailed:
			b.Failed++
		}
	}
}

func reportFrom(rec *events.Reconciliation) EventReport {
	before, after := rec.Before, rec.After
	report := EventReport{
		EventID:  rec.EventID,
		Before:   &before,
		After:    &after,
		Changed:  rec.Changed,
		Outcome:  OutcomeAlreadyCorrect,
		Attempts: rec.Attempts,
	}
	if len(rec.Changed) > 0 {
		report.Outcome = OutcomeFixed
	}
	return report
}
