package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrMissingFeature = errors.New("missing feature")
	ErrInvalidValue   = errors.New("invalid feature value")
)

// Payload is a decoded request body: feature name to value.
// Values are whatever encoding/json produced (float64 or json.Number, bool, nil, ...).
type Payload map[string]any

// Lookup returns the numeric value stored under name.
// ok is false when the key is absent or explicitly null.
func (p Payload) Lookup(name string) (value float64, ok bool, err error) {
	raw, present := p[name]
	if !present || raw == nil {
		return 0, false, nil
	}
	switch v := raw.(type) {
	case float64:
		value = v
	case float32:
		value = float64(v)
	case int:
		value = float64(v)
	case int64:
		value = float64(v)
	case json.Number:
		value, err = strconv.ParseFloat(v.String(), 64)
		if err != nil {
			return 0, false, fmt.Errorf("%w: %q is %s", ErrInvalidValue, name, v)
		}
	case bool:
		if v {
			value = 1
		}
	default:
		return 0, false, fmt.Errorf("%w: %q must be a number, got %T", ErrInvalidValue, name, raw)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false, fmt.Errorf("%w: %q is not finite", ErrInvalidValue, name)
	}
	return value, true, nil
}

// MissingPolicy decides what a schema feature absent from the payload becomes.
type MissingPolicy int

const (
	// MissingZero fills absent features with 0 ("symptom not present").
	MissingZero MissingPolicy = iota
	// MissingReject fails the request when a feature is absent.
	MissingReject
)

// ParseMissingPolicy accepts "zero" (or "") and "reject".
func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "zero":
		return MissingZero, nil
	case "reject":
		return MissingReject, nil
	default:
		return MissingZero, fmt.Errorf("unknown missing feature policy %q", s)
	}
}

func (p MissingPolicy) String() string {
	switch p {
	case MissingZero:
		return "zero"
	case MissingReject:
		return "reject"
	default:
		return "MissingPolicy(" + strconv.Itoa(int(p)) + ")"
	}
}

func (p MissingPolicy) fill(name string) (float64, error) {
	if p == MissingReject {
		return 0, fmt.Errorf("%w: %q", ErrMissingFeature, name)
	}
	return 0, nil
}
