package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

// DecisionTree is a fitted classification tree stored in pre-order.
// Each leaf carries the class distribution of its training samples.
type DecisionTree struct {
	features int
	classes  int
	nodes    []TreeNode
}

type TreeNode struct {
	FeatureIdx    int       `json:"feature_idx"`
	Threshold     float64   `json:"threshold"`
	LeftChild     int       `json:"left_child"`
	RightChild    int       `json:"right_child"`
	Probabilities []float64 `json:"probabilities,omitempty"`
	IsLeaf        bool      `json:"is_leaf"`
}

type treeFile struct {
	NFeatures int        `json:"n_features"`
	NClasses  int        `json:"n_classes"`
	Nodes     []TreeNode `json:"nodes"`
}

func (dt *DecisionTree) InputDim() int  { return dt.features }
func (dt *DecisionTree) OutputDim() int { return dt.classes }

func (dt *DecisionTree) Predict(features []float64) ([]float64, error) {
	if len(dt.nodes) == 0 {
		return nil, errors.New("model not loaded")
	}
	if len(features) != dt.features {
		return nil, fmt.Errorf("%w: model expects %d inputs, got %d", ErrDimensionMismatch, dt.features, len(features))
	}
	idx := 0
	for {
		node := dt.nodes[idx]
		if node.IsLeaf {
			return append([]float64(nil), node.Probabilities...), nil
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
	}
}

func (dt *DecisionTree) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read model: %w", err)
	}
	var file treeFile
	if err := json.Unmarshal(payload, &file); err != nil {
		return fmt.Errorf("parse model %s: %w", path, err)
	}
	if err := validateTree(file); err != nil {
		return fmt.Errorf("model %s: %w", path, err)
	}
	dt.features = file.NFeatures
	dt.classes = file.NClasses
	dt.nodes = file.Nodes
	return nil
}

// validateTree checks every index once so Predict can walk the tree without bounds checks.
// Children must come after their parent, which also rules out cycles.
func validateTree(file treeFile) error {
	if file.NFeatures <= 0 || file.NClasses <= 0 {
		return errors.New("n_features and n_classes must be positive")
	}
	if len(file.Nodes) == 0 {
		return errors.New("tree has no nodes")
	}
	for i, node := range file.Nodes {
		if node.IsLeaf {
			if len(node.Probabilities) != file.NClasses {
				return fmt.Errorf("leaf %d has %d probabilities, expected %d", i, len(node.Probabilities), file.NClasses)
			}
			for _, p := range node.Probabilities {
				if math.IsNaN(p) || p < 0 || p > 1 {
					return fmt.Errorf("leaf %d has probability %v outside [0,1]", i, p)
				}
			}
			continue
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= file.NFeatures {
			return fmt.Errorf("node %d: feature index %d out of range", i, node.FeatureIdx)
		}
		for _, child := range []int{node.LeftChild, node.RightChild} {
			if child <= i || child >= len(file.Nodes) {
				return fmt.Errorf("node %d: invalid child %d", i, child)
			}
		}
	}
	return nil
}
