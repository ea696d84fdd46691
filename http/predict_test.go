package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"symptomcheck/monitoring"
)

func postPredict(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHandlePredict(t *testing.T) {
	mux := newTestMux(Options{Predictor: newTestPredictor(t, 0.2, 0.8)})

	w := postPredict(t, mux, `{"f1":1,"f2":0}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	expected := `{"prediction":"cold","confidence":"80.00%"}`
	if got := strings.TrimSpace(w.Body.String()); got != expected {
		t.Fatalf("unexpected body: got %s want %s", got, expected)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
}

func TestHandlePredictErrorsUse200(t *testing.T) {
	mux := newTestMux(Options{Predictor: newTestPredictor(t, 0.2, 0.8)})

	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty body", ``, "request body is empty"},
		{"null body", `null`, "must be a JSON object"},
		{"array body", `[1,0]`, "must be a JSON object"},
		{"malformed", `{"f1":`, "invalid JSON body"},
		{"trailing data", `{"f1":1}{"f2":1}`, "single JSON object"},
		{"string value", `{"f1":"yes"}`, "must be a number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postPredict(t, mux, tt.body)
			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", w.Code)
			}
			var result PredictResult
			if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if result.Prediction != "" || result.Confidence != "" {
				t.Fatalf("error result carries a prediction: %+v", result)
			}
			if !strings.Contains(result.Error, tt.want) {
				t.Fatalf("error %q does not mention %q", result.Error, tt.want)
			}
		})
	}
}

func TestHandlePredictMissingAndExtraKeys(t *testing.T) {
	mux := newTestMux(Options{Predictor: newTestPredictor(t, 0.9, 0.1)})

	w := postPredict(t, mux, `{"unknown":{"nested":true}}`)
	expected := `{"prediction":"flu","confidence":"90.00%"}`
	if got := strings.TrimSpace(w.Body.String()); got != expected {
		t.Fatalf("unexpected body: got %s want %s", got, expected)
	}
}

func TestHandlePredictRecoversPanic(t *testing.T) {
	metrics := monitoring.NewMetricsCollector()
	mux := newTestMux(Options{
		Predictor: panicPredictor{PredictService: newTestPredictor(t, 0.2, 0.8)},
		Metrics:   metrics,
	})

	w := postPredict(t, mux, `{"f1":1}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var result PredictResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !strings.Contains(result.Error, "boom") {
		t.Fatalf("expected panic message in error, got %q", result.Error)
	}
	if metrics.Snapshot().Errors != 1 {
		t.Fatalf("expected panic to be counted as an error")
	}

	// the handler keeps serving
	w = postPredict(t, mux, `{"f1":1}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 after panic, got %d", w.Code)
	}
}

func TestHandlePredictRecordsHistory(t *testing.T) {
	history := &memoryHistory{}
	metrics := monitoring.NewMetricsCollector()
	mux := newTestMux(Options{
		Predictor: newTestPredictor(t, 0.2, 0.8),
		Metrics:   metrics,
		History:   history,
	})

	postPredict(t, mux, `{"f1":1}`)
	postPredict(t, mux, `{"f1":"x"}`)

	if len(history.records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(history.records))
	}
	ok := history.records[0]
	if ok.Label != "cold" || ok.Confidence == nil || *ok.Confidence != 80 {
		t.Fatalf("unexpected success record: %+v", ok)
	}
	failed := history.records[1]
	if failed.Label != "" || failed.Confidence != nil || failed.Error == "" {
		t.Fatalf("unexpected error record: %+v", failed)
	}

	snap := metrics.Snapshot()
	if snap.Predictions != 1 || snap.Errors != 1 {
		t.Fatalf("unexpected metrics: %+v", snap)
	}
}

func TestHandlePredictHistoryFailureDoesNotFailRequest(t *testing.T) {
	mux := newTestMux(Options{
		Predictor: newTestPredictor(t, 0.2, 0.8),
		History:   &memoryHistory{err: errHistoryDown},
	})

	w := postPredict(t, mux, `{"f1":1}`)
	expected := `{"prediction":"cold","confidence":"80.00%"}`
	if got := strings.TrimSpace(w.Body.String()); got != expected {
		t.Fatalf("unexpected body: got %s want %s", got, expected)
	}
}

func TestHandlePredictBodyTooLarge(t *testing.T) {
	mux := newTestMux(Options{Predictor: newTestPredictor(t, 0.2, 0.8)})
	h := RequestSizeMiddleware(16)(mux)

	w := postPredict(t, h, `{"f1":1,"f2":0,"padding":"xxxxxxxxxxxxxxxx"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var result PredictResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !strings.Contains(result.Error, "exceeds 16 bytes") {
		t.Fatalf("unexpected error %q", result.Error)
	}
}

func TestHandlePredictWrongMethod(t *testing.T) {
	mux := newTestMux(Options{Predictor: newTestPredictor(t, 0.2, 0.8)})

	req := httptest.NewRequest(http.MethodGet, "/predict", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}
