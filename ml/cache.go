package ml

import (
	"context"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedPredictor memoizes outcomes by raw feature vector. The artifacts never
// change while the process runs, so an entry stays valid for its lifetime.
type CachedPredictor struct {
	predictor *Predictor
	cache     *lru.Cache[string, Outcome]
}

func NewCachedPredictor(predictor *Predictor, size int) (*CachedPredictor, error) {
	cache, err := lru.New[string, Outcome](size)
	if err != nil {
		return nil, err
	}
	return &CachedPredictor{predictor: predictor, cache: cache}, nil
}

func (c *CachedPredictor) Schema() *Schema { return c.predictor.Schema() }

func (c *CachedPredictor) Classes() []string { return c.predictor.Classes() }

func (c *CachedPredictor) Predict(ctx context.Context, payload Payload) (Outcome, error) {
	raw, err := c.predictor.Vectorize(payload)
	if err != nil {
		return Outcome{}, err
	}
	key := vectorKey(raw)
	if outcome, ok := c.cache.Get(key); ok {
		outcome.Cached = true
		outcome.Scores = append([]float64(nil), outcome.Scores...)
		return outcome, nil
	}
	outcome, err := c.predictor.PredictVector(ctx, raw)
	if err != nil {
		return Outcome{}, err
	}
	stored := outcome
	stored.Scores = append([]float64(nil), outcome.Scores...)
	c.cache.Add(key, stored)
	return outcome, nil
}

func (c *CachedPredictor) Len() int { return c.cache.Len() }

func vectorKey(values []float64) string {
	buf := make([]byte, 0, len(values)*4)
	for i, v := range values {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendFloat(buf, v, 'g', -1, 64)
	}
	return string(buf)
}
