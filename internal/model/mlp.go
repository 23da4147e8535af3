// Package model defines the two-layer digit classifier.
package model

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/born-ml/simplenn/internal/autodiff"
	"github.com/born-ml/simplenn/internal/nn"
	"github.com/born-ml/simplenn/internal/tensor"
)

// ErrShapeMismatch reports an input whose feature count differs from the
// configured input size.
var ErrShapeMismatch = errors.New("shape mismatch")

// Config sizes the network.
type Config struct {
	InputSize  int
	HiddenSize int
	NumClasses int
}

// MLP computes scores = fc2(relu(fc1(x))).
//
// Architecture (reference sizes):
//   - fc1: input_size (784) → hidden_size (50)
//   - ReLU
//   - fc2: hidden_size (50) → num_classes (10)
//
// Scores are raw logits; CrossEntropyLoss applies the softmax.
//
// The mode is tied to the backend's gradient tape when it has one: Training
// starts recording, Evaluation stops it. On a backend without a tape the mode
// is bookkeeping only.
type MLP[B tensor.Backend] struct {
	cfg     Config
	fc1     *nn.Linear[B]
	fc2     *nn.Linear[B]
	layers  *nn.Sequential[B]
	backend B
	mode    Mode
}

// NewMLP creates a network with parameters drawn from rng, in Training mode.
func NewMLP[B tensor.Backend](cfg Config, backend B, rng *rand.Rand) (*MLP[B], error) {
	if cfg.InputSize <= 0 || cfg.HiddenSize <= 0 || cfg.NumClasses <= 0 {
		return nil, fmt.Errorf("model: sizes must be > 0, got %d-%d-%d", cfg.InputSize, cfg.HiddenSize, cfg.NumClasses)
	}
	if rng == nil {
		return nil, errors.New("model: nil rng")
	}

	fc1 := nn.NewNamedLinear("fc1", cfg.InputSize, cfg.HiddenSize, backend, rng)
	fc2 := nn.NewNamedLinear("fc2", cfg.HiddenSize, cfg.NumClasses, backend, rng)

	m := &MLP[B]{
		cfg:     cfg,
		fc1:     fc1,
		fc2:     fc2,
		layers:  nn.NewSequential[B](fc1, nn.NewReLU[B](), fc2),
		backend: backend,
	}
	m.SetMode(Training)
	return m, nil
}

// Forward maps input [N, input_size] to scores [N, num_classes]. A single
// sample [input_size] is treated as N = 1.
func (m *MLP[B]) Forward(input *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	shape := input.Shape()
	if len(shape) == 1 && shape[0] == m.cfg.InputSize {
		input = input.Reshape(1, m.cfg.InputSize)
		shape = input.Shape()
	}
	if len(shape) != 2 || shape[1] != m.cfg.InputSize {
		return nil, fmt.Errorf("%w: input %v, want [N, %d]", ErrShapeMismatch, shape, m.cfg.InputSize)
	}

	return m.layers.Forward(input), nil
}

// Predict returns the argmax class per sample. Ties resolve to the lowest
// class index.
func (m *MLP[B]) Predict(input *tensor.Tensor[float32, B]) (*tensor.Tensor[int32, B], error) {
	scores, err := m.Forward(input)
	if err != nil {
		return nil, err
	}
	return scores.Argmax(1), nil
}

// Mode returns the current mode.
func (m *MLP[B]) Mode() Mode {
	return m.mode
}

// SetMode switches modes and starts or stops the backend's tape to match.
func (m *MLP[B]) SetMode(mode Mode) {
	m.mode = mode

	tracked, ok := any(m.backend).(autodiff.BackwardCapable)
	if !ok {
		return
	}
	if mode == Training {
		tracked.Tape().StartRecording()
	} else {
		tracked.Tape().StopRecording()
	}
}

// Eval switches to Evaluation and returns a function that switches back to
// Training. Use it with defer:
//
//	defer m.Eval()()
func (m *MLP[B]) Eval() (restore func()) {
	m.SetMode(Evaluation)
	return func() {
		m.SetMode(Training)
	}
}

// Parameters returns fc1.weight, fc1.bias, fc2.weight, fc2.bias.
func (m *MLP[B]) Parameters() []*nn.Parameter[B] {
	return m.layers.Parameters()
}

// NumParameters returns the total number of scalar parameters.
func (m *MLP[B]) NumParameters() int {
	n := 0
	for _, p := range m.Parameters() {
		n += p.Tensor().NumElements()
	}
	return n
}

// Config returns the network sizes.
func (m *MLP[B]) Config() Config {
	return m.cfg
}

// Backend returns the backend the parameters live on.
func (m *MLP[B]) Backend() B {
	return m.backend
}

func (m *MLP[B]) String() string {
	return fmt.Sprintf("MLP(%d → %d → ReLU → %d, %d params, %s)",
		m.fc1.InFeatures(), m.fc1.OutFeatures(), m.fc2.OutFeatures(), m.NumParameters(), m.mode)
}
