package usecases

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/abelzeko/panchayat-water/internal/diagnostics"
	"github.com/abelzeko/panchayat-water/internal/entities"
	"github.com/abelzeko/panchayat-water/internal/repository"
	"go.uber.org/zap"
)

// RescoreReport summarizes a RescoreHistory run
type RescoreReport struct {
	Checked int
	Updated int
	Failed  int
}

// RescoreHistory re-runs the scorers over evaluations stored since the
// cutoff and rewrites any whose tier, score or result no longer matches.
// Reasoning is left untouched.
func (uc *DiagnosticsUseCase) RescoreHistory(ctx context.Context, since time.Time) (RescoreReport, error) {
	uc.logger.Info("Starting rescoring of stored evaluations", zap.Time("since", since))

	evals, err := uc.repo.ListEvaluations(ctx, repository.EvaluationFilter{Since: since})
	if err != nil {
		return RescoreReport{}, fmt.Errorf("failed to load evaluations: %w", err)
	}

	var report RescoreReport
	for _, e := range evals {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		tier, score, result, err := Rescore(e.Kind, e.Input)
		if err != nil {
			uc.logger.Warn("Could not rescore evaluation", zap.String("id", e.ID), zap.Error(err))
			report.Failed++
			continue
		}
		report.Checked++

		if tier == e.Tier && score == e.Score && bytes.Equal(result, e.Result) {
			continue
		}
		if err := uc.repo.UpdateResult(ctx, e.ID, tier, score, result); err != nil {
			uc.logger.Error("Failed to update rescored evaluation", zap.String("id", e.ID), zap.Error(err))
			report.Failed++
			continue
		}
		uc.logger.Info("Rescored evaluation drifted",
			zap.String("id", e.ID),
			zap.String("old_tier", e.Tier),
			zap.String("new_tier", tier),
		)
		report.Updated++
	}

	uc.logger.Info("Finished rescoring",
		zap.Int("checked", report.Checked),
		zap.Int("updated", report.Updated),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

// Rescore decodes a stored input and runs the matching scorer on it
func Rescore(kind entities.Kind, input json.RawMessage) (string, float64, json.RawMessage, error) {
	switch kind {
	case entities.KindLeak:
		return rescoreAs(input, diagnostics.ScoreLeak, leakSummary)
	case entities.KindDailyCheck:
		return rescoreAs(input, diagnostics.ScoreDailyCheck, dailySummary)
	case entities.KindMaintenance:
		return rescoreAs(input, diagnostics.ScoreMaintenance, maintenanceSummary)
	case entities.KindWaterQuality:
		return rescoreAs(input, diagnostics.EvaluateWaterQuality, qualitySummary)
	case entities.KindHealthScore:
		return rescoreAs(input, diagnostics.AggregateHealthScore, healthSummary)
	}
	return "", 0, nil, fmt.Errorf("unknown evaluation kind %q", kind)
}

func rescoreAs[R, S any](input json.RawMessage, score func(R) S, summarize func(S) (string, float64)) (string, float64, json.RawMessage, error) {
	var reading R
	if err := json.Unmarshal(input, &reading); err != nil {
		return "", 0, nil, fmt.Errorf("failed to decode stored input: %w", err)
	}
	if err := diagnostics.Validate(reading); err != nil {
		return "", 0, nil, err
	}
	result := score(reading)
	encoded, err := json.Marshal(result)
	if err != nil {
		return "", 0, nil, fmt.Errorf("failed to encode result: %w", err)
	}
	tier, value := summarize(result)
	return tier, value, encoded, nil
}

// ImportReport summarizes an ImportLabReport run
type ImportReport struct {
	Evaluations []entities.Evaluation
	Rejected    int
	Unchanged   int // samples identical to the latest stored one for their sample point
}

// ImportLabReport fetches a lab report and assesses every sample in it.
// Samples that fail validation are counted and skipped, as are samples whose
// reading matches the latest evaluation already stored for that sample point,
// so re-importing the same report records nothing new.
func (uc *DiagnosticsUseCase) ImportLabReport(ctx context.Context, url string) (ImportReport, error) {
	if uc.labs == nil {
		return ImportReport{}, errors.New("lab report import is not configured")
	}

	samples, err := uc.labs.FetchLabReport(url)
	if err != nil {
		return ImportReport{}, fmt.Errorf("failed to fetch lab report: %w", err)
	}
	uc.logger.Info("Fetched lab report", zap.String("url", url), zap.Int("samples", len(samples)))

	var report ImportReport
	for _, s := range samples {
		seen, err := uc.latestInputMatches(ctx, entities.KindWaterQuality, s.SamplePoint, s.Reading)
		if err != nil {
			return report, err
		}
		if seen {
			uc.logger.Debug("Lab sample already recorded", zap.String("sample_point", s.SamplePoint))
			report.Unchanged++
			continue
		}

		_, e, err := uc.AssessWaterQuality(ctx, s.SamplePoint, s.Reading)
		if errors.Is(err, diagnostics.ErrInvalidInput) {
			uc.logger.Warn("Rejected lab sample", zap.String("sample_point", s.SamplePoint), zap.Error(err))
			report.Rejected++
			continue
		}
		if err != nil {
			return report, err
		}
		report.Evaluations = append(report.Evaluations, *e)
	}
	return report, nil
}

// latestInputMatches reports whether the newest stored evaluation of kind for
// subject was made from exactly this input
func (uc *DiagnosticsUseCase) latestInputMatches(ctx context.Context, kind entities.Kind, subject string, input any) (bool, error) {
	encoded, err := json.Marshal(input)
	if err != nil {
		return false, fmt.Errorf("failed to encode %s input: %w", kind, err)
	}
	latest, err := uc.repo.ListEvaluations(ctx, repository.EvaluationFilter{Kind: kind, Subject: subject, Limit: 1})
	if err != nil {
		return false, fmt.Errorf("failed to load latest %s evaluation for %s: %w", kind, subject, err)
	}
	return len(latest) > 0 && bytes.Equal(latest[0].Input, encoded), nil
}
