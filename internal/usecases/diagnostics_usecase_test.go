package usecases

import (
	"context"
	"testing"

	"github.com/abelzeko/panchayat-water/internal/diagnostics"
	"github.com/abelzeko/panchayat-water/internal/entities"
	"github.com/abelzeko/panchayat-water/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func burstLeak() entities.LeakReading {
	return entities.LeakReading{
		PressureValue:     8,
		PressureBaseline:  12,
		FlowRate:          150,
		FlowBaseline:      100,
		ReservoirDropRate: 20,
		ExpectedDropRate:  10,
		ComplaintsCount:   4,
		PastLeakHistory:   true,
		TailEndPressure:   0.4,
	}
}

func TestAssessLeak_StoresEvaluationWithReasoning(t *testing.T) {
	reasoner := &stubReasoner{}
	uc, repo := newTestUseCase(t, reasoner, nil)

	result, e, err := uc.AssessLeak(context.Background(), "ward-3", burstLeak())

	require.NoError(t, err)
	assert.Equal(t, entities.LeakageHigh, result.LeakageStatus)
	assert.Equal(t, "eval-1", e.ID)
	assert.Equal(t, entities.KindLeak, e.Kind)
	assert.Equal(t, "HIGH", e.Tier)
	assert.Equal(t, 1.0, e.Score)
	assert.Equal(t, fixedNow, e.CreatedAt)
	assert.Equal(t, "Explanation for ward-3", e.Reasoning)
	assert.Equal(t, []string{"Check the valve"}, e.RecommendedActions)
	assert.JSONEq(t, `{"leak_score":1,"leakage_status":"HIGH","triggered_rules":["pressure_flow","reservoir_drop","complaint_clustering","past_history"]}`, string(e.Result))

	require.Len(t, reasoner.requests, 1)
	assert.Equal(t, result, reasoner.requests[0].Result)
	assert.Contains(t, repo.evals, "eval-1")
}

func TestAssessLeak_InvalidInputIsNotStored(t *testing.T) {
	reasoner := &stubReasoner{}
	uc, repo := newTestUseCase(t, reasoner, nil)
	reading := burstLeak()
	reading.ComplaintsCount = -2

	_, e, err := uc.AssessLeak(context.Background(), "ward-3", reading)

	assert.ErrorIs(t, err, diagnostics.ErrInvalidInput)
	assert.Nil(t, e)
	assert.Empty(t, repo.evals)
	assert.Empty(t, reasoner.requests)
}

func TestAssessDailyCheck_ReasoningFailureStillStores(t *testing.T) {
	uc, repo := newTestUseCase(t, &stubReasoner{err: errBoom}, nil)

	result, e, err := uc.AssessDailyCheck(context.Background(), "pump-1", entities.DailyCheckReading{
		PumpHoursToday:    10,
		PumpHoursPrevious: 6,
		TankLevelChange:   entities.TankNoChange,
		PressureLevel:     entities.PressureLow,
		FlowRateLevel:     entities.FlowLow,
		ComplaintsCount:   5,
	})

	require.NoError(t, err)
	assert.Equal(t, 10, result.LeakScore)
	assert.Equal(t, "Red", e.Tier)
	assert.Equal(t, 10.0, e.Score)
	assert.Empty(t, e.Reasoning)
	assert.Len(t, repo.evals, 1)
}

func TestAssessMaintenance_WithoutReasoner(t *testing.T) {
	uc, _ := newTestUseCase(t, nil, nil)

	result, e, err := uc.AssessMaintenance(context.Background(), "pump-2", entities.MaintenanceReading{
		PumpAgeYears:         6,
		AvgRunningHours:      7,
		BreakdownCount90Days: 3,
		RepeatIssue:          true,
		FlowTrend:            entities.FlowSuddenDrop,
	})

	require.NoError(t, err)
	assert.Equal(t, diagnostics.ActionReplaceOrService, result.RecommendedAction)
	assert.Equal(t, "Red", e.Tier)
	assert.Equal(t, 16.0, e.Score)
}

func TestAssessWaterQuality(t *testing.T) {
	uc, _ := newTestUseCase(t, nil, nil)

	result, e, err := uc.AssessWaterQuality(context.Background(), "handpump-7", entities.WaterQualityReading{
		PH: 7.4, Turbidity: 0.8, TDS: 250, Chloride: 100, Chlorine: 0.6,
		Nitrate: 10, Fluoride: 0.8, Iron: 0.1,
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"Chlorine (0.6 mg/L)"}, result.FlaggedParameters)
	assert.Equal(t, "Unsafe", e.Tier)
	assert.Equal(t, 0.0, e.Score)
}

func TestAggregateHealth_Defaults(t *testing.T) {
	uc, _ := newTestUseCase(t, nil, nil)

	result, e, err := uc.AggregateHealth(context.Background(), "anandpur", entities.HealthScoreInputs{})

	require.NoError(t, err)
	assert.Equal(t, 85, result.Total)
	assert.Equal(t, "85/100", e.Tier)
	assert.Equal(t, 85.0, e.Score)
}

func TestAssess_SaveFailure(t *testing.T) {
	uc, repo := newTestUseCase(t, nil, nil)
	repo.saveErr = errBoom

	_, e, err := uc.AssessLeak(context.Background(), "ward-3", burstLeak())

	assert.ErrorIs(t, err, errBoom)
	assert.Nil(t, e)
}

func TestRecentEvaluations_DefaultLimit(t *testing.T) {
	uc, _ := newTestUseCase(t, nil, nil)
	for i := 0; i < 3; i++ {
		_, _, err := uc.AssessLeak(context.Background(), "ward-3", burstLeak())
		require.NoError(t, err)
	}
	_, _, err := uc.AggregateHealth(context.Background(), "anandpur", entities.HealthScoreInputs{})
	require.NoError(t, err)

	evals, err := uc.RecentEvaluations(context.Background(), repository.EvaluationFilter{Kind: entities.KindLeak})
	require.NoError(t, err)
	assert.Len(t, evals, 3)

	e, err := uc.GetEvaluation(context.Background(), "eval-4")
	require.NoError(t, err)
	assert.Equal(t, entities.KindHealthScore, e.Kind)

	_, err = uc.GetEvaluation(context.Background(), "nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
