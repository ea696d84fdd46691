package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"symptomcheck/db"
	"symptomcheck/ml"
	"symptomcheck/monitoring"
)

// PredictResult is the /predict response body. Exactly one of the two variants
// is populated: Prediction with Confidence, or Error.
type PredictResult struct {
	Prediction string `json:"prediction,omitempty"`
	Confidence string `json:"confidence,omitempty"`
	Error      string `json:"error,omitempty"`
}

func successResult(outcome ml.Outcome) PredictResult {
	return PredictResult{Prediction: outcome.Label, Confidence: outcome.FormatConfidence()}
}

func errorResult(err error) PredictResult {
	return PredictResult{Error: err.Error()}
}

// handlePredict always answers 200; failures travel in the error field so
// existing form clients keep working.
func (h *Handler) handlePredict(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := GetRequestID(r.Context())

	outcome, err := h.predict(r)
	elapsed := time.Since(start)

	var result PredictResult
	rec := db.PredictionRecord{RequestID: requestID}
	if err != nil {
		h.metrics.RecordError(elapsed)
		h.logger.Warn("prediction failed",
			zap.String("request_id", requestID), zap.Error(err))
		result = errorResult(err)
		rec.Error = err.Error()
	} else {
		h.metrics.RecordPrediction(outcome.Label, outcome.Cached, elapsed)
		h.logger.Debug("prediction",
			zap.String("request_id", requestID),
			zap.String("label", outcome.Label),
			zap.Float64("score", outcome.Score),
			zap.Bool("cached", outcome.Cached),
			zap.Duration("elapsed", elapsed),
		)
		result = successResult(outcome)
		confidence := outcome.Confidence()
		rec.Label = outcome.Label
		rec.Confidence = &confidence
		rec.Cached = outcome.Cached
	}

	h.recordHistory(r.Context(), rec)
	if h.stream != nil {
		h.stream.Publish(monitoring.PredictionEvent{
			RequestID:  requestID,
			Prediction: result.Prediction,
			Confidence: result.Confidence,
			Error:      result.Error,
			Cached:     rec.Cached,
		})
	}
	writeJSON(w, http.StatusOK, result)
}

// predict turns a panic anywhere in decoding or inference into an error.
func (h *Handler) predict(r *http.Request) (outcome ml.Outcome, err error) {
	defer func() {
		if p := recover(); p != nil {
			h.logger.Error("panic during prediction",
				zap.String("request_id", GetRequestID(r.Context())),
				zap.Any("panic", p),
				zap.Stack("stack"),
			)
			outcome, err = ml.Outcome{}, fmt.Errorf("prediction failed: %v", p)
		}
	}()

	payload, err := decodePayload(r.Body)
	if err != nil {
		return ml.Outcome{}, err
	}
	return h.predictor.Predict(r.Context(), payload)
}

func (h *Handler) recordHistory(ctx context.Context, rec db.PredictionRecord) {
	if h.history == nil {
		return
	}
	// the request context may already be cancelled; the record should still land
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := h.history.Record(ctx, rec); err != nil {
		h.logger.Error("failed to record prediction",
			zap.String("request_id", rec.RequestID), zap.Error(err))
	}
}

// decodePayload reads a single JSON object. Numbers keep their literal form
// until Payload.Lookup converts the ones the schema asks for.
func decodePayload(body io.Reader) (ml.Payload, error) {
	if body == nil {
		return nil, errors.New("request body is empty")
	}
	data, err := io.ReadAll(body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		}
		return nil, fmt.Errorf("read request body: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("request body is empty")
	}
	if data[0] != '{' {
		return nil, errors.New("request body must be a JSON object")
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var payload ml.Payload
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	if dec.More() {
		return nil, errors.New("request body must contain a single JSON object")
	}
	return payload, nil
}
