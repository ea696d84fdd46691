package ml

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	ErrUnknownClass = errors.New("class index out of range")
	ErrUnknownLabel = errors.New("unknown label")
)

// LabelEncoder maps class indices to disease names and back.
type LabelEncoder struct {
	classes []string
	index   map[string]int
}

func NewLabelEncoder(classes []string) (*LabelEncoder, error) {
	if len(classes) == 0 {
		return nil, errors.New("label encoder has no classes")
	}
	e := &LabelEncoder{
		classes: make([]string, len(classes)),
		index:   make(map[string]int, len(classes)),
	}
	for i, label := range classes {
		if strings.TrimSpace(label) == "" {
			return nil, fmt.Errorf("class %d has an empty label", i)
		}
		if _, ok := e.index[label]; ok {
			return nil, fmt.Errorf("label %q listed twice", label)
		}
		e.classes[i] = label
		e.index[label] = i
	}
	return e, nil
}

// LoadLabelEncoder accepts either a bare JSON array of labels or {"classes":[...]}.
func LoadLabelEncoder(path string) (*LabelEncoder, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read label encoder: %w", err)
	}
	var classes []string
	if trimmed := bytes.TrimSpace(payload); len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &classes)
	} else {
		var file struct {
			Classes []string `json:"classes"`
		}
		err = json.Unmarshal(payload, &file)
		classes = file.Classes
	}
	if err != nil {
		return nil, fmt.Errorf("parse label encoder %s: %w", path, err)
	}
	e, err := NewLabelEncoder(classes)
	if err != nil {
		return nil, fmt.Errorf("label encoder %s: %w", path, err)
	}
	return e, nil
}

func (e *LabelEncoder) Len() int { return len(e.classes) }

// Classes returns a copy of the labels in class index order.
func (e *LabelEncoder) Classes() []string {
	return append([]string(nil), e.classes...)
}

// Decode maps a class index to its label.
func (e *LabelEncoder) Decode(index int) (string, error) {
	if index < 0 || index >= len(e.classes) {
		return "", fmt.Errorf("%w: %d (have %d classes)", ErrUnknownClass, index, len(e.classes))
	}
	return e.classes[index], nil
}

// Encode maps a label to its class index.
func (e *LabelEncoder) Encode(label string) (int, error) {
	i, ok := e.index[label]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownLabel, label)
	}
	return i, nil
}
