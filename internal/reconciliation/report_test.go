package reconciliation

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"showbook/internal/events"
)

func sampleReport() *BatchReport {
	report := &BatchReport{
		StartedAt: time.Date(2026, 10, 19, 3, 0, 0, 0, time.UTC),
		Duration:  120 * time.Millisecond,
		Events: []EventReport{
			{
				EventID:  "evt-1",
				Before:   &events.Derived{RemainingCapacity: 0, WaitlistActive: true},
				After:    &events.Derived{RemainingCapacity: 10, WaitlistActive: false},
				Changed:  []string{FieldRemainingCapacity, FieldWaitlistActive},
				Outcome:  OutcomeFixed,
				Attempts: 2,
			},
			{
				EventID: "evt-2",
				Before:  &events.Derived{RemainingCapacity: 5},
				After:   &events.Derived{RemainingCapacity: 5},
				Outcome: OutcomeAlreadyCorrect,
			},
			{EventID: "evt-3", Outcome: OutcomeFailed, Reason: "concurrency conflict"},
		},
	}
	report.tally()
	return report
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, sampleReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()

	want := []string{
		"evt-1 fixed: remaining 0 → 10, waitlist true → false",
		"evt-2 already-correct: remaining 5 → 5, waitlist false → false",
		"evt-3 failed: concurrency conflict",
		"fixed=1 already-correct=1 failed=1",
		"  evt-3: concurrency conflict",
	}
	for _, line := range want {
		if !strings.Contains(out, line+"\n") {
			t.Errorf("output missing %q:\n%s", line, out)
		}
	}
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePDF(&buf, sampleReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Errorf("output is not a PDF document")
	}
}
