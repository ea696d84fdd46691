package ml

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

type fakeModel struct {
	inputs int
	scores []float64
	err    error
	calls  int
	seen   [][]float64
}

func (f *fakeModel) Predict(features []float64) ([]float64, error) {
	f.calls++
	f.seen = append(f.seen, append([]float64(nil), features...))
	if f.err != nil {
		return nil, f.err
	}
	return append([]float64(nil), f.scores...), nil
}

func (f *fakeModel) InputDim() int  { return f.inputs }
func (f *fakeModel) OutputDim() int { return len(f.scores) }

func mustSchema(t *testing.T, names ...string) *Schema {
	t.Helper()
	s, err := NewSchema(names)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return s
}

func mustEncoder(t *testing.T, classes ...string) *LabelEncoder {
	t.Helper()
	e, err := NewLabelEncoder(classes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return e
}
