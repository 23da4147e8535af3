package nn

import "github.com/born-ml/simplenn/internal/tensor"

// ReLUBackend is implemented by backends with a ReLU kernel (cpu.CPUBackend,
// autodiff.AutodiffBackend).
type ReLUBackend interface {
	ReLU(*tensor.RawTensor) *tensor.RawTensor
}

// ReLU applies max(0, x) element-wise.
type ReLU[B tensor.Backend] struct{}

// NewReLU creates a ReLU module.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return &ReLU[B]{}
}

// Forward applies ReLU through the input's backend.
func (r *ReLU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()

	if reluBackend, ok := any(backend).(ReLUBackend); ok {
		return tensor.New[float32](reluBackend.ReLU(input.Raw()), backend)
	}

	panic("ReLU: backend must implement ReLU operation")
}

// Parameters returns nil.
func (r *ReLU[B]) Parameters() []*Parameter[B] {
	return nil
}
