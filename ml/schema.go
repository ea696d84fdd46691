// Package ml holds the prediction pipeline: feature schema, scaler, classifier and label encoder.
package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Schema is the ordered list of feature names the model was trained on.
// It is immutable after construction.
type Schema struct {
	names []string
	index map[string]int
}

// NewSchema validates names and builds a schema preserving their order.
func NewSchema(names []string) (*Schema, error) {
	if len(names) == 0 {
		return nil, errors.New("feature schema is empty")
	}
	s := &Schema{
		names: make([]string, len(names)),
		index: make(map[string]int, len(names)),
	}
	for i, name := range names {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("feature %d has an empty name", i)
		}
		if prev, ok := s.index[name]; ok {
			return nil, fmt.Errorf("feature %q listed twice (positions %d and %d)", name, prev, i)
		}
		s.names[i] = name
		s.index[name] = i
	}
	return s, nil
}

// LoadSchema reads a JSON array of feature names.
func LoadSchema(path string) (*Schema, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feature schema: %w", err)
	}
	var names []string
	if err := json.Unmarshal(payload, &names); err != nil {
		return nil, fmt.Errorf("parse feature schema %s: %w", path, err)
	}
	s, err := NewSchema(names)
	if err != nil {
		return nil, fmt.Errorf("feature schema %s: %w", path, err)
	}
	return s, nil
}

// Names returns a copy of the feature names in schema order.
func (s *Schema) Names() []string {
	return append([]string(nil), s.names...)
}

func (s *Schema) Len() int {
	return len(s.names)
}

// Index returns the column of name.
func (s *Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Vectorize builds the raw feature vector in schema order.
// Keys that are not part of the schema are never inspected.
func (s *Schema) Vectorize(payload Payload, policy MissingPolicy) ([]float64, error) {
	vector := make([]float64, len(s.names))
	for i, name := range s.names {
		value, ok, err := payload.Lookup(name)
		if err != nil {
			return nil, err
		}
		if !ok {
			value, err = policy.fill(name)
			if err != nil {
				return nil, err
			}
		}
		vector[i] = value
	}
	return vector, nil
}
