// Command repair re-derives remaining capacity and waitlist state of stored
// events from their reservations, and optionally rewrites legacy event types.
//
//	repair [-types] [-dry-run] [-pdf report.pdf] [-timeout 5m] [event-id]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"showbook/internal/events"
	"showbook/internal/reconciliation"
	"showbook/internal/reservations"
	"showbook/internal/shared/config"
	"showbook/internal/shared/database"
	"showbook/pkg/logger"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	os.Exit(run())
}

func run() int {
	migrateTypes := flag.Bool("types", false, "rewrite legacy event types before repairing")
	dryRun := flag.Bool("dry-run", false, "with -types, report type changes without writing them")
	pdfPath := flag.String("pdf", "", "also write the repair report as PDF to this path")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall time budget")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	appLogger := logger.New().WithComponent("repair")

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	sqlDB, err := database.OpenSQL(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open database: %v\n", err)
		return 2
	}
	db := &database.DB{SQL: sqlDB}
	defer db.Close()

	eventRepo := events.NewRepository(db.SQL)
	reservationRepo := reservations.NewRepository(db.SQL)
	reconciler := reconciliation.NewService(eventRepo, reservationRepo, cfg.Reconcile, appLogger)

	if *migrateTypes {
		eventService := events.NewService(eventRepo, reservationRepo, reconciler, appLogger)
		migration, err := eventService.MigrateTypes(ctx, *dryRun)
		if err != nil {
			fmt.Fprintf(os.Stderr, "type migration failed: %v\n", err)
			return 2
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(migration)
		if *dryRun {
			return 0
		}
	}

	var report *reconciliation.BatchReport
	switch flag.NArg() {
	case 0:
		report, err = reconciler.RepairAll(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "repair failed: %v\n", err)
			return 2
		}
	case 1:
		id, err := uuid.Parse(flag.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid event id %q\n", flag.Arg(0))
			return 2
		}
		report = reconciler.RepairOne(ctx, id)
	default:
		flag.Usage()
		return 2
	}

	if err := reconciliation.WriteText(os.Stdout, report); err != nil {
		fmt.Fprintf(os.Stderr, "failed to print report: %v\n", err)
		return 2
	}

	if *pdfPath != "" {
		if err := writePDF(*pdfPath, report); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 2
		}
	}

	if report.HasFailures() {
		return 1
	}
	return 0
}

func writePDF(path string, report *reconciliation.BatchReport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := reconciliation.WritePDF(f, report); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
