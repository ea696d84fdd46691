package ml

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

func TestVectorizeSchemaOrder(t *testing.T) {
	schema := mustSchema(t, "fever", "cough", "fatigue")
	vector, err := schema.Vectorize(Payload{"fatigue": 1.0, "fever": 1.0, "cough": 0.0}, MissingZero)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(vector, []float64{1, 0, 1}) {
		t.Fatalf("expected [1 0 1], got %v", vector)
	}
}

func TestVectorizeMissingFeaturesAreZero(t *testing.T) {
	schema := mustSchema(t, "fever", "cough", "fatigue", "headache")
	payloads := []Payload{
		{},
		{"cough": 1.0},
		{"fever": nil, "headache": 2.5},
		nil,
	}
	for _, payload := range payloads {
		vector, err := schema.Vectorize(payload, MissingZero)
		if err != nil {
			t.Fatalf("payload %v: unexpected error: %v", payload, err)
		}
		if len(vector) != schema.Len() {
			t.Fatalf("expected length %d, got %d", schema.Len(), len(vector))
		}
		for i, name := range schema.Names() {
			want, ok, _ := payload.Lookup(name)
			if !ok {
				want = 0
			}
			if vector[i] != want {
				t.Fatalf("payload %v: feature %s expected %v, got %v", payload, name, want, vector[i])
			}
		}
	}
}

func TestVectorizeIgnoresUnknownKeys(t *testing.T) {
	schema := mustSchema(t, "fever", "cough")
	base, err := schema.Vectorize(Payload{"fever": 1.0}, MissingZero)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	extra, err := schema.Vectorize(Payload{
		"fever":   1.0,
		"rash":    1.0,
		"name":    "John",
		"details": map[string]any{"age": 40.0},
	}, MissingZero)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(base, extra) {
		t.Fatalf("unknown keys changed the vector: %v vs %v", base, extra)
	}
}

func TestVectorizeRejectPolicy(t *testing.T) {
	schema := mustSchema(t, "fever", "cough")
	_, err := schema.Vectorize(Payload{"fever": 1.0}, MissingReject)
	if !errors.Is(err, ErrMissingFeature) {
		t.Fatalf("expected ErrMissingFeature, got %v", err)
	}
}

func TestVectorizeInvalidValue(t *testing.T) {
	schema := mustSchema(t, "fever")
	_, err := schema.Vectorize(Payload{"fever": "yes"}, MissingZero)
	if !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
}

func TestNewSchemaValidation(t *testing.T) {
	cases := map[string][]string{
		"empty":     {},
		"blank":     {"fever", " "},
		"duplicate": {"fever", "cough", "fever"},
	}
	for name, names := range cases {
		if _, err := NewSchema(names); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadSchema(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "features.json", `["itching","skin_rash","continuous_sneezing"]`)
	schema, err := LoadSchema(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(schema.Names(), []string{"itching", "skin_rash", "continuous_sneezing"}) {
		t.Fatalf("unexpected names: %v", schema.Names())
	}
	if i, ok := schema.Index("skin_rash"); !ok || i != 1 {
		t.Fatalf("expected skin_rash at 1, got %d %v", i, ok)
	}
}

func TestLoadSchemaFailures(t *testing.T) {
	dir := t.TempDir()
	malformed := writeFile(t, dir, "bad.json", `{"features": ["a"]}`)
	empty := writeFile(t, dir, "empty.json", `[]`)
	for _, path := range []string{filepath.Join(dir, "missing.json"), malformed, empty} {
		if _, err := LoadSchema(path); err == nil {
			t.Fatalf("%s: expected error", path)
		}
	}
}

func TestSchemaNamesIsACopy(t *testing.T) {
	schema := mustSchema(t, "a", "b")
	names := schema.Names()
	names[0] = "z"
	if schema.Names()[0] != "a" {
		t.Fatal("schema mutated through Names()")
	}
}
