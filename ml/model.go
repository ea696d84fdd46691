package ml

import (
	"fmt"
)

// Classifier runs the forward pass of a trained model and returns one score per class.
type Classifier interface {
	Predict(features []float64) ([]float64, error)
	InputDim() int
	OutputDim() int
}

const (
	ModelTypeDense        = "dense"
	ModelTypeDecisionTree = "decision_tree"
)

// LoadModel reads a classifier artifact of the given type.
func LoadModel(modelType, path string) (Classifier, error) {
	switch modelType {
	case ModelTypeDense, "":
		model := &DenseNetwork{}
		if err := model.Load(path); err != nil {
			return nil, err
		}
		return model, nil
	case ModelTypeDecisionTree:
		model := &DecisionTree{}
		if err := model.Load(path); err != nil {
			return nil, err
		}
		return model, nil
	default:
		return nil, fmt.Errorf("unsupported model type %q", modelType)
	}
}
