package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abelzeko/panchayat-water/internal/app"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func main() {
	a, err := app.New("panchayat-water-evaluator")
	if err != nil {
		log.Fatalf("Failed to start evaluator: %v", err)
	}

	if err := run(a); err != nil {
		a.Logger.Error("Evaluator stopped", zap.Error(err))
		a.Close()
		os.Exit(1)
	}
	a.Close()
}

func run(a *app.App) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Run immediately on startup
	runBatch(ctx, a)

	c := cron.New()
	if _, err := c.AddFunc(a.Config.RescoreSchedule, func() { runBatch(ctx, a) }); err != nil {
		return fmt.Errorf("failed to set up cron job %q: %w", a.Config.RescoreSchedule, err)
	}

	a.Logger.Info("Evaluator has been scheduled", zap.String("schedule", a.Config.RescoreSchedule))
	c.Start()

	<-ctx.Done()
	a.Logger.Info("Stopping evaluator")
	<-c.Stop().Done()
	return nil
}

func runBatch(ctx context.Context, a *app.App) {
	since := time.Now().UTC().Add(-a.Config.RescoreWindow)
	if _, err := a.UseCase.RescoreHistory(ctx, since); err != nil {
		a.Logger.Error("Scheduled rescoring failed", zap.Error(err))
	}

	if a.Config.LabReportURL == "" {
		return
	}
	report, err := a.UseCase.ImportLabReport(ctx, a.Config.LabReportURL)
	if err != nil {
		a.Logger.Error("Scheduled lab report import failed", zap.Error(err))
		return
	}
	a.Logger.Info("Imported lab report",
		zap.Int("assessed", len(report.Evaluations)),
		zap.Int("unchanged", report.Unchanged),
		zap.Int("rejected", report.Rejected),
	)
}
