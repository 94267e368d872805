package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/abelzeko/panchayat-water/internal/entities"
	"github.com/abelzeko/panchayat-water/internal/integration/openai"
	"github.com/abelzeko/panchayat-water/internal/repository"
	"go.uber.org/zap"
)

type memoryRepo struct {
	evals     map[string]entities.Evaluation
	saveErr   error
	updateErr error
	updated   []string
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{evals: make(map[string]entities.Evaluation)}
}

func (m *memoryRepo) SaveEvaluation(ctx context.Context, e *entities.Evaluation) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.evals[e.ID] = *e
	return nil
}

func (m *memoryRepo) GetEvaluation(ctx context.Context, id string) (*entities.Evaluation, error) {
	e, ok := m.evals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (m *memoryRepo) ListEvaluations(ctx context.Context, f repository.EvaluationFilter) ([]entities.Evaluation, error) {
	var out []entities.Evaluation
	for _, e := range m.evals {
		if f.Kind != "" && e.Kind != f.Kind {
			continue
		}
		if f.Subject != "" && e.Subject != f.Subject {
			continue
		}
		if !f.Since.IsZero() && e.CreatedAt.Before(f.Since) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memoryRepo) UpdateResult(ctx context.Context, id, tier string, score float64, result json.RawMessage) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	e, ok := m.evals[id]
	if !ok {
		return repository.ErrNotFound
	}
	e.Tier, e.Score, e.Result = tier, score, result
	m.evals[id] = e
	m.updated = append(m.updated, id)
	return nil
}

func (m *memoryRepo) Close() error { return nil }

type stubReasoner struct {
	err      error
	requests []openai.ReasoningRequest
}

func (s *stubReasoner) Explain(ctx context.Context, req openai.ReasoningRequest) (*openai.Reasoning, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	return &openai.Reasoning{
		Summary:            "Explanation for " + req.Subject,
		RecommendedActions: []string{"Check the valve"},
	}, nil
}

type stubLabs struct {
	samples []entities.LabSample
	err     error
}

func (s *stubLabs) FetchLabReport(url string) ([]entities.LabSample, error) {
	return s.samples, s.err
}

var errBoom = errors.New("boom")

var fixedNow = time.Date(2026, 6, 1, 9, 30, 0, 0, time.UTC)

func newTestUseCase(t *testing.T, reasoner openai.ReasoningService, labs LabReportFetcher) (*DiagnosticsUseCase, *memoryRepo) {
	t.Helper()
	repo := newMemoryRepo()
	uc := NewDiagnosticsUseCase(repo, reasoner, labs, zap.NewNop())
	uc.now = func() time.Time { return fixedNow }
	n := 0
	uc.newID = func() string {
		n++
		return fmt.Sprintf("eval-%d", n)
	}
	return uc, repo
}
