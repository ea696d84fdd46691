package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"symptomcheck/db"
	"symptomcheck/ml"
)

type stubModel struct {
	inputs int
	scores []float64
}

func (m *stubModel) Predict(features []float64) ([]float64, error) {
	return append([]float64(nil), m.scores...), nil
}

func (m *stubModel) InputDim() int  { return m.inputs }
func (m *stubModel) OutputDim() int { return len(m.scores) }

// newTestPredictor builds the f1/f2 -> flu/cold pipeline with an identity scaler.
func newTestPredictor(t *testing.T, scores ...float64) *ml.Predictor {
	t.Helper()
	schema, err := ml.NewSchema([]string{"f1", "f2"})
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	encoder, err := ml.NewLabelEncoder([]string{"flu", "cold"})
	if err != nil {
		t.Fatalf("encoder: %v", err)
	}
	artifacts, err := ml.NewArtifacts(schema, ml.IdentityScaler{}, encoder, &stubModel{inputs: 2, scores: scores})
	if err != nil {
		t.Fatalf("artifacts: %v", err)
	}
	return ml.NewPredictor(artifacts, ml.MissingZero)
}

type panicPredictor struct {
	PredictService
}

func (panicPredictor) Predict(ctx context.Context, payload ml.Payload) (ml.Outcome, error) {
	panic("boom")
}

type memoryHistory struct {
	mu      sync.Mutex
	records []db.PredictionRecord
	err     error
}

func (m *memoryHistory) Record(ctx context.Context, rec db.PredictionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	rec.ID = int64(len(m.records) + 1)
	m.records = append(m.records, rec)
	return nil
}

func (m *memoryHistory) Recent(ctx context.Context, limit int) ([]db.PredictionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]db.PredictionRecord, 0, limit)
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}

var errHistoryDown = errors.New("history unavailable")

type changedFlag bool

func (c changedFlag) Changed() bool { return bool(c) }

func newTestMux(opts Options) *http.ServeMux {
	mux := http.NewServeMux()
	NewHandler(opts).Register(mux)
	return mux
}
