package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

type Activation string

const (
	ActivationLinear  Activation = "linear"
	ActivationReLU    Activation = "relu"
	ActivationSigmoid Activation = "sigmoid"
	ActivationTanh    Activation = "tanh"
	ActivationSoftmax Activation = "softmax"
)

func (a Activation) valid() bool {
	switch a {
	case ActivationLinear, ActivationReLU, ActivationSigmoid, ActivationTanh, ActivationSoftmax:
		return true
	}
	return false
}

// apply transforms the layer output in place.
func (a Activation) apply(x []float64) {
	switch a {
	case ActivationReLU:
		for i, v := range x {
			if v < 0 {
				x[i] = 0
			}
		}
	case ActivationSigmoid:
		for i, v := range x {
			x[i] = 1.0 / (1.0 + math.Exp(-v))
		}
	case ActivationTanh:
		for i, v := range x {
			x[i] = math.Tanh(v)
		}
	case ActivationSoftmax:
		softmax(x)
	}
}

func softmax(x []float64) {
	if len(x) == 0 {
		return
	}
	max := x[0]
	for _, v := range x[1:] {
		if v > max {
			max = v
		}
	}
	sum := 0.0
	for i, v := range x {
		x[i] = math.Exp(v - max)
		sum += x[i]
	}
	for i := range x {
		x[i] /= sum
	}
}

// DenseLayer is a fully connected layer. Weights[o][i] connects input i to output o.
type DenseLayer struct {
	Weights    [][]float64 `json:"weights"`
	Biases     []float64   `json:"biases"`
	Activation Activation  `json:"activation"`
}

func (l *DenseLayer) inputs() int  { return len(l.Weights[0]) }
func (l *DenseLayer) outputs() int { return len(l.Weights) }

func (l *DenseLayer) forward(input []float64) []float64 {
	output := make([]float64, len(l.Weights))
	for o, row := range l.Weights {
		x := l.Biases[o]
		for i, w := range row {
			x += w * input[i]
		}
		output[o] = x
	}
	l.Activation.apply(output)
	return output
}

// DenseNetwork is a feed-forward network exported from the training toolkit as JSON.
type DenseNetwork struct {
	Layers []DenseLayer `json:"layers"`
}

func (n *DenseNetwork) InputDim() int {
	if len(n.Layers) == 0 {
		return 0
	}
	return n.Layers[0].inputs()
}

func (n *DenseNetwork) OutputDim() int {
	if len(n.Layers) == 0 {
		return 0
	}
	return n.Layers[len(n.Layers)-1].outputs()
}

func (n *DenseNetwork) Predict(features []float64) ([]float64, error) {
	if len(n.Layers) == 0 {
		return nil, errors.New("model not loaded")
	}
	if len(features) != n.InputDim() {
		return nil, fmt.Errorf("%w: model expects %d inputs, got %d", ErrDimensionMismatch, n.InputDim(), len(features))
	}
	activations := features
	for i := range n.Layers {
		activations = n.Layers[i].forward(activations)
	}
	return activations, nil
}

func (n *DenseNetwork) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read model: %w", err)
	}
	var network DenseNetwork
	if err := json.Unmarshal(payload, &network); err != nil {
		return fmt.Errorf("parse model %s: %w", path, err)
	}
	if err := network.validate(); err != nil {
		return fmt.Errorf("model %s: %w", path, err)
	}
	n.Layers = network.Layers
	return nil
}

func (n *DenseNetwork) validate() error {
	if len(n.Layers) == 0 {
		return errors.New("network has no layers")
	}
	prev := -1
	for li := range n.Layers {
		layer := &n.Layers[li]
		if len(layer.Weights) == 0 || len(layer.Weights[0]) == 0 {
			return fmt.Errorf("layer %d has no weights", li)
		}
		width := layer.inputs()
		for o, row := range layer.Weights {
			if len(row) != width {
				return fmt.Errorf("layer %d row %d has %d weights, expected %d", li, o, len(row), width)
			}
		}
		if len(layer.Biases) != layer.outputs() {
			return fmt.Errorf("layer %d has %d biases for %d outputs", li, len(layer.Biases), layer.outputs())
		}
		if layer.Activation == "" {
			layer.Activation = ActivationLinear
		}
		if !layer.Activation.valid() {
			return fmt.Errorf("layer %d: unsupported activation %q", li, layer.Activation)
		}
		if prev >= 0 && width != prev {
			return fmt.Errorf("layer %d expects %d inputs but layer %d emits %d", li, width, li-1, prev)
		}
		prev = layer.outputs()
	}
	return nil
}
