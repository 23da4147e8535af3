package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/simplenn/internal/tensor"
)

// Linear is a fully connected layer: y = x @ Wᵀ + b.
//
// Shapes:
//   - input:  [batch, in_features]
//   - weight: [out_features, in_features]
//   - bias:   [out_features]
//   - output: [batch, out_features]
type Linear[B tensor.Backend] struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter[B]
	bias        *Parameter[B]
}

// NewLinear creates a layer with weight and bias drawn from
// U(-1/√in, 1/√in) using rng.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B, rng *rand.Rand) *Linear[B] {
	return NewNamedLinear("", inFeatures, outFeatures, backend, rng)
}

// NewNamedLinear is NewLinear with parameters named "<prefix>.weight" and
// "<prefix>.bias".
func NewNamedLinear[B tensor.Backend](prefix string, inFeatures, outFeatures int, backend B, rng *rand.Rand) *Linear[B] {
	name := func(s string) string {
		if prefix == "" {
			return s
		}
		return prefix + "." + s
	}

	weight := LinearInit(inFeatures, tensor.Shape{outFeatures, inFeatures}, rng, backend)
	bias := LinearInit(inFeatures, tensor.Shape{outFeatures}, rng, backend)

	return &Linear[B]{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      NewParameter(name("weight"), weight),
		bias:        NewParameter(name("bias"), bias),
	}
}

// Forward computes x @ Wᵀ + b. Panics unless input is [batch, in_features];
// callers holding user data check the shape first.
func (l *Linear[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 2 || shape[1] != l.inFeatures {
		panic(fmt.Sprintf("Linear.Forward: expected input [batch, %d], got %v", l.inFeatures, shape))
	}

	output := input.MatMul(l.weight.Tensor().Transpose())
	return output.Add(l.bias.Tensor().Reshape(1, l.outFeatures))
}

// Parameters returns [weight, bias].
func (l *Linear[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{l.weight, l.bias}
}

// Weight returns the weight parameter.
func (l *Linear[B]) Weight() *Parameter[B] {
	return l.weight
}

// Bias returns the bias parameter.
func (l *Linear[B]) Bias() *Parameter[B] {
	return l.bias
}

// InFeatures returns the input width.
func (l *Linear[B]) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the output width.
func (l *Linear[B]) OutFeatures() int {
	return l.outFeatures
}
