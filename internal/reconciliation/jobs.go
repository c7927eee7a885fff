package reconciliation

import (
	"context"
	"sync"
	"time"

	"showbook/pkg/logger"
)

// Repairer runs a full repair batch
type Repairer interface {
	RepairAll(ctx context.Context) (*BatchReport, error)
}

// JobProcessor periodically repairs every event in the background
type JobProcessor struct {
	repairer Repairer
	interval time.Duration
	log      *logger.Logger
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewJobProcessor(repairer Repairer, interval time.Duration, log *logger.Logger) *JobProcessor {
	return &JobProcessor{
		repairer: repairer,
		interval: interval,
		log:      log.WithComponent("reconciliation-job"),
		done:     make(chan struct{}),
	}
}

// Start launches the repair loop. A zero interval disables it.
func (jp *JobProcessor) Start(ctx context.Context) {
	if jp.interval <= 0 {
		jp.log.Info("Scheduled repair disabled")
		return
	}

	jp.wg.Add(1)
	go jp.run(ctx)
	jp.log.Info("Scheduled repair started", "interval", jp.interval.String())
}

// Stop stops the loop and waits for a running batch to finish
func (jp *JobProcessor) Stop() {
	jp.stopOnce.Do(func() {
		close(jp.done)
	})
	jp.wg.Wait()
	jp.log.Info("Scheduled repair stopped")
}

func (jp *JobProcessor) run(ctx context.Context) {
	defer jp.wg.Done()

	ticker := time.NewTicker(jp.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			jp.repair(ctx)
		case <-jp.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (jp *JobProcessor) repair(ctx context.Context) {
	report, err := jp.repairer.RepairAll(ctx)
	if err != nil {
		jp.log.ErrorContext(ctx, "Scheduled repair failed", "error", err)
		return
	}

	for _, failure := range report.Failures() {
		jp.log.WarnContext(ctx, "Event could not be repaired", "event_id", failure.EventID, "reason", failure.Reason)
	}
}

// GetJobStatus returns the status of the background job
func (jp *JobProcessor) GetJobStatus() map[string]interface{} {
	status := "running"
	if jp.interval <= 0 {
		status = "disabled"
	}
	return map[string]interface{}{
		"repair_interval": jp.interval.String(),
		"status":          status,
	}
}
