package client

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"symptomcheck/ml"
)

const (
	MinAge = 1
	MaxAge = 120
)

var Genders = []string{"Male", "Female", "Other"}

var ErrInvalidPatient = errors.New("please enter a valid name and age")

// Patient is shown next to the result; it is never sent to the service.
type Patient struct {
	Name   string
	Age    int
	Gender string
}

func (p Patient) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidPatient)
	}
	if p.Age < MinAge || p.Age > MaxAge {
		return fmt.Errorf("%w: age %d outside %d..%d", ErrInvalidPatient, p.Age, MinAge, MaxAge)
	}
	if _, err := normalizeGender(p.Gender); err != nil {
		return err
	}
	return nil
}

func (p Patient) String() string {
	return fmt.Sprintf("%s, %d years old, %s", p.Name, p.Age, p.Gender)
}

func normalizeGender(s string) (string, error) {
	for _, g := range Genders {
		if strings.EqualFold(strings.TrimSpace(s), g) {
			return g, nil
		}
	}
	return "", fmt.Errorf("%w: gender must be one of %s", ErrInvalidPatient, strings.Join(Genders, ", "))
}

// Submission is a completed form.
type Submission struct {
	Patient Patient
	Answers map[string]float64
}

// Payload is the /predict body: one entry per schema feature.
func (s Submission) Payload() map[string]float64 {
	out := make(map[string]float64, len(s.Answers))
	for name, v := range s.Answers {
		out[name] = v
	}
	return out
}

// Form asks for patient details and one yes/no answer per feature in schema order.
type Form struct {
	schema    *ml.Schema
	in        *bufio.Reader
	out       io.Writer
	overrides map[string]float64
}

func NewForm(schema *ml.Schema, in io.Reader, out io.Writer) *Form {
	return &Form{
		schema:    schema,
		in:        bufio.NewReader(in),
		out:       out,
		overrides: make(map[string]float64),
	}
}

// Set pre-answers a feature so it is not prompted for.
func (f *Form) Set(name string, value float64) error {
	if _, ok := f.schema.Index(name); !ok {
		return fmt.Errorf("unknown feature %q", name)
	}
	f.overrides[name] = value
	return nil
}

// ParseOverride parses "name=value"; value may be a number or yes/no.
func ParseOverride(s string) (string, float64, error) {
	name, raw, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", 0, fmt.Errorf("override %q must look like name=value", s)
	}
	if v, ok := parseYesNo(raw); ok {
		return name, v, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return "", 0, fmt.Errorf("override %q: value must be a number or yes/no", s)
	}
	return name, v, nil
}

// Fill prompts for every patient field left empty in p and every feature
// without an override. Prompting stops at end of input and the remaining
// features keep the default answer "no".
func (f *Form) Fill(p Patient) (Submission, error) {
	var err error
	if p.Name == "" {
		if p.Name, err = f.prompt("Name: "); err != nil && !errors.Is(err, io.EOF) {
			return Submission{}, err
		}
	}
	if p.Age == 0 {
		s, err := f.prompt(fmt.Sprintf("Age (%d-%d): ", MinAge, MaxAge))
		if err != nil && !errors.Is(err, io.EOF) {
			return Submission{}, err
		}
		if s != "" {
			if p.Age, err = strconv.Atoi(s); err != nil {
				return Submission{}, fmt.Errorf("%w: age %q is not a number", ErrInvalidPatient, s)
			}
		}
	}
	if p.Gender == "" {
		s, err := f.prompt(fmt.Sprintf("Gender (%s) [%s]: ", strings.Join(Genders, "/"), Genders[0]))
		if err != nil && !errors.Is(err, io.EOF) {
			return Submission{}, err
		}
		p.Gender = s
		if p.Gender == "" {
			p.Gender = Genders[0]
		}
	}
	if p.Gender, err = normalizeGender(p.Gender); err != nil {
		return Submission{}, err
	}
	if err := p.Validate(); err != nil {
		return Submission{}, err
	}

	answers := make(map[string]float64, f.schema.Len())
	eof := false
	for _, name := range f.schema.Names() {
		if v, ok := f.overrides[name]; ok {
			answers[name] = v
			continue
		}
		if eof {
			answers[name] = 0
			continue
		}
		v, err := f.askYesNo(DisplayName(name))
		if errors.Is(err, io.EOF) {
			eof = true
		} else if err != nil {
			return Submission{}, err
		}
		answers[name] = v
	}
	return Submission{Patient: p, Answers: answers}, nil
}

func (f *Form) askYesNo(label string) (float64, error) {
	for {
		s, err := f.prompt(label + "? [y/N]: ")
		if s == "" {
			return 0, err
		}
		if v, ok := parseYesNo(s); ok {
			return v, nil
		}
		if err != nil {
			return 0, err
		}
		fmt.Fprintln(f.out, "  please answer y or n")
	}
}

func (f *Form) prompt(label string) (string, error) {
	fmt.Fprint(f.out, label)
	line, err := f.in.ReadString('\n')
	return strings.TrimSpace(line), err
}

func parseYesNo(s string) (float64, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "1", "true":
		return 1, true
	case "n", "no", "0", "false":
		return 0, true
	}
	return 0, false
}
