package reconciliation

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// WriteText prints one line per event followed by a summary line and the failures
func WriteText(w io.Writer, report *BatchReport) error {
	for _, r := range report.Events {
		if _, err := fmt.Fprintln(w, describe(r)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "fixed=%d already-correct=%d failed=%d\n",
		report.Fixed, report.AlreadyCorrect, report.Failed); err != nil {
		return err
	}
	for _, f := range report.Failures() {
		if _, err := fmt.Fprintf(w, "  %s: %s\n", f.EventID, f.Reason); err != nil {
			return err
		}
	}
	return nil
}

func describe(r EventReport) string {
	if r.Outcome == OutcomeFailed {
		return fmt.Sprintf("%s %s: %s", r.EventID, r.Outcome, r.Reason)
	}
	return fmt.Sprintf("%s %s: remaining %d → %d, waitlist %t → %t",
		r.EventID, r.Outcome,
		r.Before.RemainingCapacity, r.After.RemainingCapacity,
		r.Before.WaitlistActive, r.After.WaitlistActive)
}

// WritePDF renders the report as a one-table A4 document
func WritePDF(w io.Writer, report *BatchReport) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Capacity repair report", false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "Capacity repair report", "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Started %s, took %s",
		report.StartedAt.Format(time.RFC1123), report.Duration.Round(time.Millisecond)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Fixed: %d   Already correct: %d   Failed: %d",
		report.Fixed, report.AlreadyCorrect, report.Failed), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	widths := []float64{70, 28, 22, 22, 48}
	headers := []string{"Event", "Outcome", "Remaining", "Waitlist", "Note"}

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, r := range report.Events {
		remaining, waitlist, note := "-", "-", r.Reason
		if r.Outcome != OutcomeFailed {
			remaining = fmt.Sprintf("%d > %d", r.Before.RemainingCapacity, r.After.RemainingCapacity)
			waitlist = fmt.Sprintf("%s > %s", onOff(r.Before.WaitlistActive), onOff(r.After.WaitlistActive))
			if r.Attempts > 1 {
				note = fmt.Sprintf("%d attempts", r.Attempts)
			}
		}
		if len(note) > 40 {
			note = note[:37] + "..."
		}

		row := []string{r.EventID, string(r.Outcome), remaining, waitlist, note}
		for i, cell := range row {
			pdf.CellFormat(widths[i], 6, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return pdf.Output(w)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
