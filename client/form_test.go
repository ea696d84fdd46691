package client

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"symptomcheck/ml"
)

func testSchema(t *testing.T) *ml.Schema {
	t.Helper()
	s, err := ml.NewSchema([]string{"fever", "cough", "skin_rash"})
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	return s
}

func TestFormFillInteractive(t *testing.T) {
	in := strings.NewReader("Ada\n34\nfemale\ny\n\nyes\n")
	var out bytes.Buffer
	form := NewForm(testSchema(t), in, &out)

	sub, err := form.Fill(Patient{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.Patient != (Patient{Name: "Ada", Age: 34, Gender: "Female"}) {
		t.Fatalf("unexpected patient %+v", sub.Patient)
	}
	want := map[string]float64{"fever": 1, "cough": 0, "skin_rash": 1}
	for name, v := range want {
		if sub.Payload()[name] != v {
			t.Fatalf("%s = %v, want %v", name, sub.Payload()[name], v)
		}
	}
	if !strings.Contains(out.String(), "Skin Rash?") {
		t.Fatalf("prompt did not use display name:\n%s", out.String())
	}
}

func TestFormFillPromptsInSchemaOrder(t *testing.T) {
	var out bytes.Buffer
	form := NewForm(testSchema(t), strings.NewReader("n\nn\nn\n"), &out)

	if _, err := form.Fill(Patient{Name: "Bo", Age: 50, Gender: "Male"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := out.String()
	if !(strings.Index(s, "Fever") < strings.Index(s, "Cough") && strings.Index(s, "Cough") < strings.Index(s, "Skin Rash")) {
		t.Fatalf("prompts out of order:\n%s", s)
	}
}

func TestFormOverridesSkipPrompts(t *testing.T) {
	var out bytes.Buffer
	form := NewForm(testSchema(t), strings.NewReader(""), &out)
	if err := form.Set("cough", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := form.Set("sneezing", 1); err == nil {
		t.Fatal("expected error for unknown feature")
	}

	sub, err := form.Fill(Patient{Name: "Cy", Age: 7, Gender: "other"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	payload := sub.Payload()
	if payload["cough"] != 1 || payload["fever"] != 0 || payload["skin_rash"] != 0 {
		t.Fatalf("unexpected payload %v", payload)
	}
	if len(payload) != 3 {
		t.Fatalf("payload must carry every schema feature, got %v", payload)
	}
	if strings.Contains(out.String(), "Cough?") {
		t.Fatal("overridden feature was prompted for")
	}
}

func TestFormRejectsInvalidPatient(t *testing.T) {
	tests := []struct {
		name    string
		patient Patient
		input   string
	}{
		{"empty name", Patient{Age: 30, Gender: "Male"}, "\n"},
		{"age too low", Patient{Name: "Di", Gender: "Male"}, "0\n"},
		{"age too high", Patient{Name: "Di", Age: 121, Gender: "Male"}, ""},
		{"age not a number", Patient{Name: "Di", Gender: "Male"}, "old\n"},
		{"unknown gender", Patient{Name: "Di", Age: 30, Gender: "robot"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := NewForm(testSchema(t), strings.NewReader(tt.input), &bytes.Buffer{})
			_, err := form.Fill(tt.patient)
			if !errors.Is(err, ErrInvalidPatient) {
				t.Fatalf("expected ErrInvalidPatient, got %v", err)
			}
		})
	}
}

func TestParseOverride(t *testing.T) {
	tests := []struct {
		in      string
		name    string
		value   float64
		wantErr bool
	}{
		{"fever=1", "fever", 1, false},
		{"fever=yes", "fever", 1, false},
		{" cough = no", "cough", 0, false},
		{"fever=0.5", "fever", 0.5, false},
		{"fever", "", 0, true},
		{"=1", "", 0, true},
		{"fever=maybe", "", 0, true},
	}
	for _, tt := range tests {
		name, value, err := ParseOverride(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseOverride(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if !tt.wantErr && (name != tt.name || value != tt.value) {
			t.Fatalf("ParseOverride(%q) = %q, %v", tt.in, name, value)
		}
	}
}
