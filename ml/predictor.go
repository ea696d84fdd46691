package ml

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Outcome is the decoded result of one prediction.
type Outcome struct {
	Index  int
	Label  string
	Score  float64
	Scores []float64
	Cached bool
}

// Confidence is the chosen class score as a percentage.
func (o Outcome) Confidence() float64 {
	return o.Score * 100
}

// FormatConfidence renders the confidence as "NN.NN%".
func (o Outcome) FormatConfidence() string {
	return fmt.Sprintf("%.2f%%", o.Confidence())
}

// Predictor runs vectorize, scale, infer and decode over loaded artifacts.
type Predictor struct {
	artifacts *Artifacts
	policy    MissingPolicy
}

func NewPredictor(artifacts *Artifacts, policy MissingPolicy) *Predictor {
	return &Predictor{artifacts: artifacts, policy: policy}
}

func (p *Predictor) Schema() *Schema { return p.artifacts.Schema }

func (p *Predictor) Classes() []string { return p.artifacts.Encoder.Classes() }

// Vectorize aligns payload against the schema.
func (p *Predictor) Vectorize(payload Payload) ([]float64, error) {
	return p.artifacts.Schema.Vectorize(payload, p.policy)
}

func (p *Predictor) Predict(ctx context.Context, payload Payload) (Outcome, error) {
	raw, err := p.Vectorize(payload)
	if err != nil {
		return Outcome{}, err
	}
	return p.PredictVector(ctx, raw)
}

// PredictVector scales a raw schema-ordered vector, runs the model and decodes the result.
func (p *Predictor) PredictVector(ctx context.Context, raw []float64) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	scaled, err := p.artifacts.Scaler.Transform(raw)
	if err != nil {
		return Outcome{}, fmt.Errorf("scale features: %w", err)
	}
	scores, err := p.artifacts.Model.Predict(scaled)
	if err != nil {
		return Outcome{}, fmt.Errorf("run model: %w", err)
	}
	return Decode(scores, p.artifacts.Encoder)
}

// Decode picks the highest score (lowest index wins ties) and maps it to its label.
func Decode(scores []float64, encoder *LabelEncoder) (Outcome, error) {
	if len(scores) == 0 {
		return Outcome{}, errors.New("model returned no scores")
	}
	if len(scores) != encoder.Len() {
		return Outcome{}, fmt.Errorf("%w: %d scores for %d classes", ErrDimensionMismatch, len(scores), encoder.Len())
	}
	best := 0
	for i, s := range scores {
		if math.IsNaN(s) || s < 0 || s > 1 {
			return Outcome{}, fmt.Errorf("model score %v for class %d is not a probability", s, i)
		}
		if s > scores[best] {
			best = i
		}
	}
	label, err := encoder.Decode(best)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{
		Index:  best,
		Label:  label,
		Score:  scores[best],
		Scores: scores,
	}, nil
}
