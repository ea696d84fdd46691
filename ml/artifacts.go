package ml

import (
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// ArtifactPaths locates the four fitted artifacts.
type ArtifactPaths struct {
	Schema       string
	Scaler       string
	LabelEncoder string
	Model        string
	ModelType    string
}

// DefaultArtifactPaths uses the standard file names under dir.
func DefaultArtifactPaths(dir string) ArtifactPaths {
	return ArtifactPaths{
		Schema:       filepath.Join(dir, "features.json"),
		Scaler:       filepath.Join(dir, "scaler.json"),
		LabelEncoder: filepath.Join(dir, "label_encoder.json"),
		Model:        filepath.Join(dir, "model.json"),
		ModelType:    ModelTypeDense,
	}
}

func (p ArtifactPaths) Files() []string {
	return []string{p.Schema, p.Scaler, p.LabelEncoder, p.Model}
}

// Artifacts bundles everything loaded at startup. It is never mutated afterwards
// and is safe for concurrent use.
type Artifacts struct {
	Schema  *Schema
	Scaler  Scaler
	Encoder *LabelEncoder
	Model   Classifier
}

// NewArtifacts checks that the pieces agree on dimensions.
func NewArtifacts(schema *Schema, scaler Scaler, encoder *LabelEncoder, model Classifier) (*Artifacts, error) {
	a := &Artifacts{Schema: schema, Scaler: scaler, Encoder: encoder, Model: model}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Artifacts) validate() error {
	if a.Schema == nil || a.Scaler == nil || a.Encoder == nil || a.Model == nil {
		return fmt.Errorf("incomplete artifacts")
	}
	n := a.Schema.Len()
	if dim := a.Scaler.Dim(); dim != 0 && dim != n {
		return fmt.Errorf("%w: scaler fitted on %d features, schema has %d", ErrDimensionMismatch, dim, n)
	}
	if dim := a.Model.InputDim(); dim != n {
		return fmt.Errorf("%w: model takes %d inputs, schema has %d", ErrDimensionMismatch, dim, n)
	}
	if dim := a.Model.OutputDim(); dim != a.Encoder.Len() {
		return fmt.Errorf("%w: model emits %d classes, label encoder has %d", ErrDimensionMismatch, dim, a.Encoder.Len())
	}
	return nil
}

// LoadArtifacts reads all artifacts concurrently and fails on the first error.
func LoadArtifacts(ctx context.Context, paths ArtifactPaths) (*Artifacts, error) {
	var (
		schema  *Schema
		scaler  Scaler
		encoder *LabelEncoder
		model   Classifier
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		schema, err = LoadSchema(paths.Schema)
		return err
	})
	g.Go(func() (err error) {
		scaler, err = LoadScaler(paths.Scaler)
		return err
	})
	g.Go(func() (err error) {
		encoder, err = LoadLabelEncoder(paths.LabelEncoder)
		return err
	})
	g.Go(func() (err error) {
		model, err = LoadModel(paths.ModelType, paths.Model)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return NewArtifacts(schema, scaler, encoder, model)
}
