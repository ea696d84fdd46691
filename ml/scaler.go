package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var ErrDimensionMismatch = errors.New("dimension mismatch")

// Scaler applies fitted per-feature normalization parameters.
type Scaler interface {
	Transform(values []float64) ([]float64, error)
	// Dim is the number of features the scaler was fitted on, 0 if it accepts any width.
	Dim() int
}

// StandardScaler computes (x - mean) / scale.
type StandardScaler struct {
	Mean  []float64
	Scale []float64
}

func (s *StandardScaler) Dim() int { return len(s.Mean) }

func (s *StandardScaler) Transform(values []float64) ([]float64, error) {
	if len(values) != len(s.Mean) {
		return nil, fmt.Errorf("%w: scaler expects %d features, got %d", ErrDimensionMismatch, len(s.Mean), len(values))
	}
	result := make([]float64, len(values))
	for i, v := range values {
		scale := s.Scale[i]
		// zero-variance columns are fitted with scale 1
		if scale == 0 {
			scale = 1
		}
		result[i] = (v - s.Mean[i]) / scale
	}
	return result, nil
}

// MinMaxScaler maps each feature onto [0,1] using the training min and max.
type MinMaxScaler struct {
	DataMin []float64
	DataMax []float64
}

func (s *MinMaxScaler) Dim() int { return len(s.DataMin) }

func (s *MinMaxScaler) Transform(values []float64) ([]float64, error) {
	return NormalizeVector(values, s.DataMin, s.DataMax)
}

// IdentityScaler leaves values unchanged.
type IdentityScaler struct{}

func (IdentityScaler) Dim() int { return 0 }

func (IdentityScaler) Transform(values []float64) ([]float64, error) {
	return append([]float64(nil), values...), nil
}

func NormalizeFeature(value, min, max float64) float64 {
	if max == min {
		return 0
	}
	return (value - min) / (max - min)
}

func NormalizeVector(values []float64, mins []float64, maxs []float64) ([]float64, error) {
	if len(values) != len(mins) || len(values) != len(maxs) {
		return nil, fmt.Errorf("%w: values/mins/maxs lengths %d/%d/%d", ErrDimensionMismatch, len(values), len(mins), len(maxs))
	}
	result := make([]float64, len(values))
	for i := range values {
		result[i] = NormalizeFeature(values[i], mins[i], maxs[i])
	}
	return result, nil
}

type scalerFile struct {
	Kind    string    `json:"kind"`
	Mean    []float64 `json:"mean"`
	Scale   []float64 `json:"scale"`
	DataMin []float64 `json:"data_min"`
	DataMax []float64 `json:"data_max"`
}

// LoadScaler reads a scaler artifact:
//
//	{"kind":"standard","mean":[...],"scale":[...]}
//	{"kind":"minmax","data_min":[...],"data_max":[...]}
//	{"kind":"identity"}
func LoadScaler(path string) (Scaler, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scaler: %w", err)
	}
	var file scalerFile
	if err := json.Unmarshal(payload, &file); err != nil {
		return nil, fmt.Errorf("parse scaler %s: %w", path, err)
	}
	switch file.Kind {
	case "standard":
		if len(file.Mean) == 0 || len(file.Mean) != len(file.Scale) {
			return nil, fmt.Errorf("scaler %s: mean and scale must be non-empty and equal length (%d/%d)", path, len(file.Mean), len(file.Scale))
		}
		return &StandardScaler{Mean: file.Mean, Scale: file.Scale}, nil
	case "minmax":
		if len(file.DataMin) == 0 || len(file.DataMin) != len(file.DataMax) {
			return nil, fmt.Errorf("scaler %s: data_min and data_max must be non-empty and equal length (%d/%d)", path, len(file.DataMin), len(file.DataMax))
		}
		return &MinMaxScaler{DataMin: file.DataMin, DataMax: file.DataMax}, nil
	case "identity":
		return IdentityScaler{}, nil
	default:
		return nil, fmt.Errorf("scaler %s: unsupported kind %q", path, file.Kind)
	}
}
