// Package usecases contains the application's business logic
package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/abelzeko/panchayat-water/internal/diagnostics"
	"github.com/abelzeko/panchayat-water/internal/entities"
	"github.com/abelzeko/panchayat-water/internal/integration/openai"
	"github.com/abelzeko/panchayat-water/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultListLimit = 20

// LabReportFetcher loads samples from a published lab report
type LabReportFetcher interface {
	FetchLabReport(url string) ([]entities.LabSample, error)
}

// DiagnosticsUseCase runs the scorers, asks for an explanation and stores
// the outcome
type DiagnosticsUseCase struct {
	repo     repository.EvaluationRepository
	reasoner openai.ReasoningService
	labs     LabReportFetcher
	logger   *zap.Logger

	now   func() time.Time
	newID func() string
}

// NewDiagnosticsUseCase creates a new diagnostics use case. reasoner and
// labs may be nil: evaluations are then stored without reasoning and lab
// imports are unavailable.
func NewDiagnosticsUseCase(repo repository.EvaluationRepository, reasoner openai.ReasoningService, labs LabReportFetcher, logger *zap.Logger) *DiagnosticsUseCase {
	return &DiagnosticsUseCase{
		repo:     repo,
		reasoner: reasoner,
		labs:     labs,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// AssessLeak scores a leak reading for a zone
func (uc *DiagnosticsUseCase) AssessLeak(ctx context.Context, subject string, reading entities.LeakReading) (entities.LeakResult, *entities.Evaluation, error) {
	if err := diagnostics.Validate(reading); err != nil {
		return entities.LeakResult{}, nil, err
	}
	result := diagnostics.ScoreLeak(reading)
	tier, score := leakSummary(result)
	e, err := uc.record(ctx, entities.KindLeak, subject, reading, result, tier, score)
	return result, e, err
}

// AssessDailyCheck scores an operator's daily check
func (uc *DiagnosticsUseCase) AssessDailyCheck(ctx context.Context, subject string, reading entities.DailyCheckReading) (entities.DailyCheckResult, *entities.Evaluation, error) {
	if err := diagnostics.Validate(reading); err != nil {
		return entities.DailyCheckResult{}, nil, err
	}
	result := diagnostics.ScoreDailyCheck(reading)
	tier, score := dailySummary(result)
	e, err := uc.record(ctx, entities.KindDailyCheck, subject, reading, result, tier, score)
	return result, e, err
}

// AssessMaintenance scores a pump's maintenance risk
func (uc *DiagnosticsUseCase) AssessMaintenance(ctx context.Context, subject string, reading entities.MaintenanceReading) (entities.MaintenanceResult, *entities.Evaluation, error) {
	if err := diagnostics.Validate(reading); err != nil {
		return entities.MaintenanceResult{}, nil, err
	}
	result := diagnostics.ScoreMaintenance(reading)
	tier, score := maintenanceSummary(result)
	e, err := uc.record(ctx, entities.KindMaintenance, subject, reading, result, tier, score)
	return result, e, err
}

// AssessWaterQuality evaluates a lab reading for a sample point
func (uc *DiagnosticsUseCase) AssessWaterQuality(ctx context.Context, subject string, reading entities.WaterQualityReading) (entities.WaterQualityResult, *entities.Evaluation, error) {
	if err := diagnostics.Validate(reading); err != nil {
		return entities.WaterQualityResult{}, nil, err
	}
	result := diagnostics.EvaluateWaterQuality(reading)
	tier, score := qualitySummary(result)
	e, err := uc.record(ctx, entities.KindWaterQuality, subject, reading, result, tier, score)
	return result, e, err
}

// AggregateHealth computes a panchayat's composite health score
func (uc *DiagnosticsUseCase) AggregateHealth(ctx context.Context, subject string, inputs entities.HealthScoreInputs) (entities.HealthScoreResult, *entities.Evaluation, error) {
	if err := diagnostics.Validate(inputs); err != nil {
		return entities.HealthScoreResult{}, nil, err
	}
	result := diagnostics.AggregateHealthScore(inputs)
	tier, score := healthSummary(result)
	e, err := uc.record(ctx, entities.KindHealthScore, subject, inputs, result, tier, score)
	return result, e, err
}

// GetEvaluation retrieves a stored evaluation
func (uc *DiagnosticsUseCase) GetEvaluation(ctx context.Context, id string) (*entities.Evaluation, error) {
	return uc.repo.GetEvaluation(ctx, id)
}

// RecentEvaluations lists stored evaluations, newest first
func (uc *DiagnosticsUseCase) RecentEvaluations(ctx context.Context, filter repository.EvaluationFilter) ([]entities.Evaluation, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	uc.logger.Debug("Retrieving evaluations",
		zap.String("kind", string(filter.Kind)),
		zap.String("subject", filter.Subject),
		zap.Int("limit", filter.Limit),
	)
	return uc.repo.ListEvaluations(ctx, filter)
}

// record asks for reasoning and stores the evaluation. A reasoning failure
// is logged and the evaluation is stored without it.
func (uc *DiagnosticsUseCase) record(ctx context.Context, kind entities.Kind, subject string, input, result any, tier string, score float64) (*entities.Evaluation, error) {
	inputJSON, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s input: %w", kind, err)
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s result: %w", kind, err)
	}

	e := &entities.Evaluation{
		ID:        uc.newID(),
		Kind:      kind,
		Subject:   subject,
		Tier:      tier,
		Score:     score,
		Input:     inputJSON,
		Result:    resultJSON,
		CreatedAt: uc.now().UTC(),
	}

	if uc.reasoner != nil {
		reasoning, err := uc.reasoner.Explain(ctx, openai.ReasoningRequest{
			Kind:    kind,
			Subject: subject,
			Input:   input,
			Result:  result,
		})
		if err != nil {
			uc.logger.Warn("Reasoning unavailable, storing evaluation without it",
				zap.String("kind", string(kind)),
				zap.String("subject", subject),
				zap.Error(err),
			)
		} else {
			e.Reasoning = reasoning.Summary
			e.RecommendedActions = reasoning.RecommendedActions
		}
	}

	if err := uc.repo.SaveEvaluation(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to save %s evaluation: %w", kind, err)
	}

	uc.logger.Info("Stored evaluation",
		zap.String("id", e.ID),
		zap.String("kind", string(kind)),
		zap.String("subject", subject),
		zap.String("tier", tier),
		zap.Float64("score", score),
	)
	return e, nil
}

func leakSummary(r entities.LeakResult) (string, float64) {
	return string(r.LeakageStatus), r.LeakScore
}

func dailySummary(r entities.DailyCheckResult) (string, float64) {
	return string(r.Severity), float64(r.LeakScore)
}

func maintenanceSummary(r entities.MaintenanceResult) (string, float64) {
	return string(r.Severity), float64(r.RiskScore)
}

func qualitySummary(r entities.WaterQualityResult) (string, float64) {
	return string(r.Status), 0
}

// healthSummary has no tier of its own; the total doubles as one
func healthSummary(r entities.HealthScoreResult) (string, float64) {
	return fmt.Sprintf("%d/100", r.Total), float64(r.Total)
}
