package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/abelzeko/panchayat-water/internal/config"
	"github.com/abelzeko/panchayat-water/internal/entities"
	"github.com/abelzeko/panchayat-water/internal/logging"
	"github.com/abelzeko/panchayat-water/internal/report"
	"github.com/abelzeko/panchayat-water/internal/repository"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type exportOptions struct {
	dbPath  string
	out     string
	kind    string
	subject string
	since   time.Duration
	limit   int
}

func newExportCmd() *cobra.Command {
	opts := exportOptions{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write stored evaluations to an xlsx workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "evaluation database (default DB_PATH)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "evaluations.xlsx", "output file")
	cmd.Flags().StringVar(&opts.kind, "kind", "", "only this evaluation kind")
	cmd.Flags().StringVar(&opts.subject, "subject", "", "only this subject")
	cmd.Flags().DurationVar(&opts.since, "since", 0, "only evaluations newer than this, e.g. 168h")
	cmd.Flags().IntVar(&opts.limit, "limit", 1000, "maximum number of rows")
	return cmd
}

func runExport(ctx context.Context, opts exportOptions) error {
	filter := repository.EvaluationFilter{
		Kind:    entities.Kind(opts.kind),
		Subject: opts.subject,
		Limit:   opts.limit,
	}
	if filter.Kind != "" && !filter.Kind.Valid() {
		return fmt.Errorf("unknown kind %q", opts.kind)
	}
	if opts.since > 0 {
		filter.Since = time.Now().UTC().Add(-opts.since)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if opts.dbPath == "" {
		opts.dbPath = cfg.DBPath
	}
	logger, err := logging.New(cfg.Log.Level, "console", "diagnose")
	if err != nil {
		return err
	}
	defer logger.Sync()

	repo, err := repository.NewSQLiteEvaluationRepository(opts.dbPath, logger)
	if err != nil {
		return err
	}
	defer repo.Close()

	evals, err := repo.ListEvaluations(ctx, filter)
	if err != nil {
		return err
	}

	f, err := os.Create(opts.out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", opts.out, err)
	}
	if err := report.WriteEvaluations(f, evals); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	logger.Info("Exported evaluations", zap.Int("rows", len(evals)), zap.String("file", opts.out))
	return nil
}
