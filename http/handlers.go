package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"symptomcheck/db"
	"symptomcheck/ml"
	"symptomcheck/monitoring"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// PredictService is satisfied by *ml.Predictor and *ml.CachedPredictor.
type PredictService interface {
	Predict(ctx context.Context, payload ml.Payload) (ml.Outcome, error)
	Schema() *ml.Schema
	Classes() []string
}

type HistoryStore interface {
	Record(ctx context.Context, rec db.PredictionRecord) error
	Recent(ctx context.Context, limit int) ([]db.PredictionRecord, error)
}

// ChangeDetector reports whether artifacts on disk differ from the loaded ones.
type ChangeDetector interface {
	Changed() bool
}

// Options carries the handler dependencies. History and Watcher are optional.
type Options struct {
	Predictor PredictService
	Metrics   *monitoring.MetricsCollector
	History   HistoryStore
	Watcher   ChangeDetector
	Stream    *monitoring.Hub
	Logger    *zap.Logger
}

type Handler struct {
	predictor PredictService
	metrics   *monitoring.MetricsCollector
	history   HistoryStore
	watcher   ChangeDetector
	stream    *monitoring.Hub
	logger    *zap.Logger
}

func NewHandler(opts Options) *Handler {
	h := &Handler{
		predictor: opts.Predictor,
		metrics:   opts.Metrics,
		history:   opts.History,
		watcher:   opts.Watcher,
		stream:    opts.Stream,
		logger:    opts.Logger,
	}
	if h.metrics == nil {
		h.metrics = monitoring.NewMetricsCollector()
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	return h
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /predict", h.handlePredict)
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /features", h.handleFeatures)
	mux.HandleFunc("GET /metrics", h.handleMetrics)
	mux.HandleFunc("GET /predictions", h.handlePredictions)
	if h.stream != nil {
		mux.Handle("GET /ws/predictions", h.stream)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status           string `json:"status"`
	Features         int    `json:"features"`
	Classes          int    `json:"classes"`
	ArtifactsChanged bool   `json:"artifacts_changed"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:   "ok",
		Features: h.predictor.Schema().Len(),
		Classes:  len(h.predictor.Classes()),
	}
	if h.watcher != nil {
		resp.ArtifactsChanged = h.watcher.Changed()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleFeatures(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{
		"features": h.predictor.Schema().Names(),
	})
}

// handleMetrics serves JSON by default and the Prometheus text format for ?format=prometheus.
func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	snapshot := h.metrics.Snapshot()
	if r.URL.Query().Get("format") == "prometheus" {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(snapshot.ExportPrometheus()))
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) handlePredictions(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "prediction history is disabled"})
		return
	}

	limit := defaultHistoryLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "limit must be a positive integer"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	records, err := h.history.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to read prediction history",
			zap.String("request_id", GetRequestID(r.Context())), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "failed to read prediction history"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"predictions": records})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
