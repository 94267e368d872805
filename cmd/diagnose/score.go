package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/abelzeko/panchayat-water/internal/diagnostics"
	"github.com/spf13/cobra"
)

// scorer decodes a reading, validates it and returns the scored result
type scorer func(data []byte) (any, error)

var (
	scoreLeak        = scoreAs(diagnostics.ScoreLeak)
	scoreDaily       = scoreAs(diagnostics.ScoreDailyCheck)
	scoreMaintenance = scoreAs(diagnostics.ScoreMaintenance)
	scoreQuality     = scoreAs(diagnostics.EvaluateWaterQuality)
	scoreHealth      = scoreAs(diagnostics.AggregateHealthScore)
)

func scoreAs[R, S any](score func(R) S) scorer {
	return func(data []byte) (any, error) {
		var reading R
		if err := json.Unmarshal(data, &reading); err != nil {
			return nil, fmt.Errorf("failed to decode reading: %w", err)
		}
		if err := diagnostics.Validate(reading); err != nil {
			return nil, err
		}
		return score(reading), nil
	}
}

func newScoreCmd(use, short string, run scorer) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, file)
			if err != nil {
				return err
			}
			result, err := run(data)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON reading to score (default stdin)")
	return cmd
}

func readInput(cmd *cobra.Command, file string) ([]byte, error) {
	if file == "" || file == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}
	return data, nil
}
