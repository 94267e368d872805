package usecases

import (
	"context"
	"testing"

	"github.com/abelzeko/panchayat-water/internal/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatEvaluation_Leak(t *testing.T) {
	uc, _ := newTestUseCase(t, &stubReasoner{}, nil)
	_, e, err := uc.AssessLeak(context.Background(), "ward-3", burstLeak())
	require.NoError(t, err)

	text := uc.FormatEvaluation(e)

	assert.Contains(t, text, "🔴 Leak check for ward-3: HIGH")
	assert.Contains(t, text, "📈 Score: 1\n")
	assert.Contains(t, text, "Rules fired: pressure_flow, reservoir_drop, complaint_clustering, past_history")
	assert.Contains(t, text, "Explanation for ward-3")
	assert.Contains(t, text, "• Check the valve")
	assert.Contains(t, text, "🕒 2026-06-01 09:30:00 UTC")
}

func TestFormatEvaluation_WaterQualityHasNoScore(t *testing.T) {
	uc, _ := newTestUseCase(t, nil, nil)
	_, e, err := uc.AssessWaterQuality(context.Background(), "", entities.WaterQualityReading{
		PH: 8.8, Turbidity: 0.5, TDS: 300, Chloride: 100, Chlorine: 0.3,
		Nitrate: 20, Fluoride: 1.0, Iron: 0.1,
	})
	require.NoError(t, err)

	text := uc.FormatEvaluation(e)

	assert.Contains(t, text, "🟡 Water quality for unspecified: AttentionNeeded")
	assert.Contains(t, text, "Flagged: pH (8.8)")
	assert.NotContains(t, text, "Score")
	assert.NotContains(t, text, "Recommended actions")
}

func TestFormatEvaluation_Health(t *testing.T) {
	uc, _ := newTestUseCase(t, nil, nil)
	_, e, err := uc.AggregateHealth(context.Background(), "anandpur", entities.HealthScoreInputs{})
	require.NoError(t, err)

	text := uc.FormatEvaluation(e)

	assert.Contains(t, text, "📊 Health score for anandpur: 85/100")
	assert.Contains(t, text, "Reliability 25 · Quality 25 · Tasks 15 · Complaints 20")
}

func TestFormatEvaluation_Nil(t *testing.T) {
	uc, _ := newTestUseCase(t, nil, nil)
	assert.Equal(t, "No evaluation available.", uc.FormatEvaluation(nil))
}
