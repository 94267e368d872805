package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/abelzeko/panchayat-water/internal/diagnostics"
	"github.com/abelzeko/panchayat-water/internal/entities"
	"github.com/abelzeko/panchayat-water/internal/report"
	"github.com/abelzeko/panchayat-water/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// fakeDiagnostics scores for real and keeps evaluations in memory
type fakeDiagnostics struct {
	evals      []entities.Evaluation
	lastFilter repository.EvaluationFilter
	listErr    error
}

func (f *fakeDiagnostics) store(kind entities.Kind, subject, tier string, score float64, result any) (*entities.Evaluation, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	e := entities.Evaluation{
		ID:        "eval-" + string(kind),
		Kind:      kind,
		Subject:   subject,
		Tier:      tier,
		Score:     score,
		Result:    raw,
		CreatedAt: time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC),
	}
	f.evals = append(f.evals, e)
	return &e, nil
}

func (f *fakeDiagnostics) AssessLeak(ctx context.Context, subject string, r entities.LeakReading) (entities.LeakResult, *entities.Evaluation, error) {
	if err := diagnostics.Validate(r); err != nil {
		return entities.LeakResult{}, nil, err
	}
	res := diagnostics.ScoreLeak(r)
	e, err := f.store(entities.KindLeak, subject, string(res.LeakageStatus), res.LeakScore, res)
	return res, e, err
}

func (f *fakeDiagnostics) AssessDailyCheck(ctx context.Context, subject string, r entities.DailyCheckReading) (entities.DailyCheckResult, *entities.Evaluation, error) {
	if err := diagnostics.Validate(r); err != nil {
		return entities.DailyCheckResult{}, nil, err
	}
	res := diagnostics.ScoreDailyCheck(r)
	e, err := f.store(entities.KindDailyCheck, subject, string(res.Severity), float64(res.LeakScore), res)
	return res, e, err
}

func (f *fakeDiagnostics) AssessMaintenance(ctx context.Context, subject string, r entities.MaintenanceReading) (entities.MaintenanceResult, *entities.Evaluation, error) {
	if err := diagnostics.Validate(r); err != nil {
		return entities.MaintenanceResult{}, nil, err
	}
	res := diagnostics.ScoreMaintenance(r)
	e, err := f.store(entities.KindMaintenance, subject, string(res.Severity), float64(res.RiskScore), res)
	return res, e, err
}

func (f *fakeDiagnostics) AssessWaterQuality(ctx context.Context, subject string, r entities.WaterQualityReading) (entities.WaterQualityResult, *entities.Evaluation, error) {
	if err := diagnostics.Validate(r); err != nil {
		return entities.WaterQualityResult{}, nil, err
	}
	res := diagnostics.EvaluateWaterQuality(r)
	e, err := f.store(entities.KindWaterQuality, subject, string(res.Status), 0, res)
	return res, e, err
}

func (f *fakeDiagnostics) AggregateHealth(ctx context.Context, subject string, in entities.HealthScoreInputs) (entities.HealthScoreResult, *entities.Evaluation, error) {
	if err := diagnostics.Validate(in); err != nil {
		return entities.HealthScoreResult{}, nil, err
	}
	res := diagnostics.AggregateHealthScore(in)
	e, err := f.store(entities.KindHealthScore, subject, "", float64(res.Total), res)
	return res, e, err
}

func (f *fakeDiagnostics) GetEvaluation(ctx context.Context, id string) (*entities.Evaluation, error) {
	for _, e := range f.evals {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeDiagnostics) RecentEvaluations(ctx context.Context, filter repository.EvaluationFilter) ([]entities.Evaluation, error) {
	f.lastFilter = filter
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []entities.Evaluation
	for _, e := range f.evals {
		if filter.Kind != "" && e.Kind != filter.Kind {
			continue
		}
		if filter.Subject != "" && e.Subject != filter.Subject {
			continue
		}
		out = append(out, e)
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func newTestServer(t *testing.T) (*fakeDiagnostics, http.Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	fake := &fakeDiagnostics{}
	return fake, NewHTTPServer(fake, zap.NewNop()).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	_, h := newTestServer(t)
	w := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestPostLeak(t *testing.T) {
	_, h := newTestServer(t)
	body := `{"subject":"ward-3","reading":{"pressure_value":12,"pressure_baseline":12,"flow_rate":100,"flow_baseline":100,"reservoir_drop_rate":10,"expected_drop_rate":10,"complaints_count":4,"past_leak_history":false,"tail_end_pressure":0.3,"is_critical_zone":true}}`

	w := do(t, h, http.MethodPost, "/v1/leak", body)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		Result     entities.LeakResult `json:"result"`
		Evaluation entities.Evaluation `json:"evaluation"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, entities.LeakageHigh, resp.Result.LeakageStatus)
	assert.Equal(t, 0.8, resp.Result.LeakScore)
	assert.Equal(t, []entities.LeakRule{
		entities.RuleComplaintClustering, entities.RuleTailEndPressure, entities.RuleCriticalZone,
	}, resp.Result.TriggeredRules)
	assert.Equal(t, "ward-3", resp.Evaluation.Subject)
}

func TestPostEndpoints(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		body     string
		wantCode int
		wantBody string
	}{
		{
			name:     "daily check",
			path:     "/v1/daily-check",
			body:     `{"subject":"pump-1","reading":{"pump_hours_today":8,"pump_hours_previous":0,"tank_level_change":"Decrease","pressure_level":"Normal","flow_rate_level":"Normal","complaints_count":0}}`,
			wantCode: http.StatusCreated,
			wantBody: `"severity":"Yellow"`,
		},
		{
			name:     "maintenance",
			path:     "/v1/maintenance",
			body:     `{"subject":"pump-2","reading":{"pump_age_years":2,"avg_running_hours":5,"breakdown_count_90_days":0,"repeat_issue":false,"flow_trend":"SuddenDrop"}}`,
			wantCode: http.StatusCreated,
			wantBody: `"recommended_action":"Clean filters or flush pipeline"`,
		},
		{
			name:     "water quality",
			path:     "/v1/water-quality",
			body:     `{"subject":"tap-1","reading":{"pH":7,"turbidity":0.5,"tds":300,"chloride":100,"chlorine":0.3,"coliform_present":true,"nitrate":10,"fluoride":1,"iron":0.1}}`,
			wantCode: http.StatusCreated,
			wantBody: `"flagged_parameters":["Coliform (Present)"]`,
		},
		{
			name:     "health score",
			path:     "/v1/health-score",
			body:     `{"subject":"anandpur","reading":{}}`,
			wantCode: http.StatusCreated,
			wantBody: `"total":85`,
		},
		{
			name:     "unknown enum",
			path:     "/v1/daily-check",
			body:     `{"subject":"pump-1","reading":{"tank_level_change":"Sideways","pressure_level":"Low","flow_rate_level":"Low"}}`,
			wantCode: http.StatusBadRequest,
			wantBody: "invalid input",
		},
		{
			name:     "missing reading",
			path:     "/v1/leak",
			body:     `{"subject":"ward-3"}`,
			wantCode: http.StatusBadRequest,
			wantBody: "reading is required",
		},
		{
			name:     "malformed json",
			path:     "/v1/maintenance",
			body:     `{"subject":`,
			wantCode: http.StatusBadRequest,
			wantBody: "invalid request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, h := newTestServer(t)
			w := do(t, h, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestGetEvaluation(t *testing.T) {
	_, h := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/v1/health-score", `{"subject":"anandpur","reading":{}}`).Code)

	w := do(t, h, http.MethodGet, "/v1/evaluations/eval-health_score", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"subject":"anandpur"`)

	w = do(t, h, http.MethodGet, "/v1/evaluations/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListEvaluations(t *testing.T) {
	fake, h := newTestServer(t)

	w := do(t, h, http.MethodGet, "/v1/evaluations", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[]}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/v1/evaluations?kind=leak&subject=ward-3&limit=9999&since=2026-05-01T00:00:00Z", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, repository.EvaluationFilter{
		Kind:    entities.KindLeak,
		Subject: "ward-3",
		Since:   time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		Limit:   maxListLimit,
	}, fake.lastFilter)

	for _, query := range []string{"kind=rainfall", "limit=0", "limit=abc", "since=yesterday"} {
		w = do(t, h, http.MethodGet, "/v1/evaluations?"+query, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, query)
	}

	fake.listErr = errors.New("db locked")
	w = do(t, h, http.MethodGet, "/v1/evaluations", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "db locked")
}

func TestExportEvaluations(t *testing.T) {
	fake, h := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/v1/health-score", `{"subject":"anandpur","reading":{}}`).Code)

	w := do(t, h, http.MethodGet, "/v1/evaluations/export", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Equal(t, defaultExportLimit, fake.lastFilter.Limit)

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(report.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "anandpur", rows[1][2])
}

func TestUnknownRoute(t *testing.T) {
	_, h := newTestServer(t)
	w := do(t, h, http.MethodGet, "/v2/leak", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
