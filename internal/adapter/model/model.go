// Package model evaluates a pre-trained dense feed-forward network exported
// from the training environment as a YAML artifact.
package model

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Inputs is the width of the feature row [latitude, longitude, severity].
const Inputs = 3

// Supported activation functions.
const (
	ActivationLinear  = "linear"
	ActivationReLU    = "relu"
	ActivationSigmoid = "sigmoid"
	ActivationTanh    = "tanh"
)

// Layer is one fully-connected layer. Weights is indexed [input][unit].
type Layer struct {
	Weights    [][]float64 `yaml:"weights" json:"weights"`
	Bias       []float64   `yaml:"bias" json:"bias"`
	Activation string      `yaml:"activation" json:"activation"`
}

// Network is the on-disk model description.
type Network struct {
	Name   string  `yaml:"name,omitempty" json:"name,omitempty"`
	Inputs int     `yaml:"inputs" json:"inputs"`
	Layers []Layer `yaml:"layers" json:"layers"`
}

// Model is a validated, immutable network. It is safe for concurrent use.
type Model struct {
	net Network
}

// Load reads and validates the artifact at path. YAML is a superset of JSON, so
// JSON exports load as well.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a model artifact.
func Parse(data []byte) (*Model, error) {
	var net Network
	if err := yaml.Unmarshal(data, &net); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	return New(net)
}

// New validates layer shapes and activations.
func New(net Network) (*Model, error) {
	if net.Inputs != Inputs {
		return nil, fmt.Errorf("model expects %d inputs, want %d", net.Inputs, Inputs)
	}
	if len(net.Layers) == 0 {
		return nil, errors.New("model has no layers")
	}

	width := net.Inputs
	for i, l := range net.Layers {
		if len(l.Weights) != width {
			return nil, fmt.Errorf("layer %d: %d weight rows, want %d", i, len(l.Weights), width)
		}
		units := len(l.Bias)
		if units == 0 {
			return nil, fmt.Errorf("layer %d: empty bias", i)
		}
		for r, row := range l.Weights {
			if len(row) != units {
				return nil, fmt.Errorf("layer %d: weight row %d has %d columns, want %d", i, r, len(row), units)
			}
		}
		switch l.Activation {
		case "", ActivationLinear, ActivationReLU, ActivationSigmoid, ActivationTanh:
		default:
			return nil, fmt.Errorf("layer %d: unsupported activation %q", i, l.Activation)
		}
		width = units
	}
	return &Model{net: net}, nil
}

// Predict runs the feature row through the network and returns output unit 0.
func (m *Model) Predict(_ context.Context, latitude, longitude float64, severity int) (float64, error) {
	out := m.Forward([]float64{latitude, longitude, float64(severity)})
	v := out[0]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("model produced non-finite output %v", v)
	}
	return v, nil
}

// Forward evaluates the network on x, which must have Inputs elements.
func (m *Model) Forward(x []float64) []float64 {
	for _, l := range m.net.Layers {
		next := make([]float64, len(l.Bias))
		copy(next, l.Bias)
		for i, xi := range x {
			for j, w := range l.Weights[i] {
				next[j] += xi * w
			}
		}
		for j := range next {
			next[j] = activate(l.Activation, next[j])
		}
		x = next
	}
	return x
}

func activate(name string, v float64) float64 {
	switch name {
	case ActivationReLU:
		return math.Max(0, v)
	case ActivationSigmoid:
		return 1 / (1 + math.Exp(-v))
	case ActivationTanh:
		return math.Tanh(v)
	default:
		return v
	}
}

// Marshal encodes net in the artifact format.
func Marshal(net Network) ([]byte, error) {
	return yaml.Marshal(net)
}
