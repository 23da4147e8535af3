package nn

import "github.com/born-ml/simplenn/internal/tensor"

// Parameter is a trainable tensor with an optional gradient.
//
// The tensor's RawTensor is the key the tape's gradient map and the optimizer
// use, so optimizers update it in place.
type Parameter[B tensor.Backend] struct {
	name   string
	tensor *tensor.Tensor[float32, B]
	grad   *tensor.Tensor[float32, B] // nil until a backward pass reaches it
}

// NewParameter wraps t as a named parameter.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{
		name:   name,
		tensor: t,
	}
}

// Name returns the parameter name (e.g. "fc1.weight").
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] {
	return p.tensor
}

// Grad returns the last gradient, or nil.
func (p *Parameter[B]) Grad() *tensor.Tensor[float32, B] {
	return p.grad
}

// SetGrad stores a gradient.
func (p *Parameter[B]) SetGrad(grad *tensor.Tensor[float32, B]) {
	p.grad = grad
}

// ZeroGrad drops the gradient.
func (p *Parameter[B]) ZeroGrad() {
	p.grad = nil
}
