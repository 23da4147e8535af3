// Package optim implements parameter update rules.
package optim

import (
	"github.com/born-ml/simplenn/internal/nn"
	"github.com/born-ml/simplenn/internal/tensor"
)

// Optimizer updates parameters from a gradient map produced by a backward pass.
//
// Typical step:
//
//	optimizer.ZeroGrad()
//	loss := criterion.Forward(model.Forward(x), y)
//	grads := autodiff.Backward(loss, backend)
//	optimizer.Step(grads)
type Optimizer interface {
	// Step applies one update. Parameters missing from grads are left alone.
	Step(grads map[*tensor.RawTensor]*tensor.RawTensor)

	// ZeroGrad clears the gradients stored on every parameter.
	ZeroGrad()

	GetLR() float32
}

func getGradient[B tensor.Backend](param *nn.Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor) *tensor.RawTensor {
	if param == nil {
		return nil
	}
	return grads[param.Tensor().Raw()]
}
