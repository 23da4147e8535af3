// Package ops holds the differentiable operations recorded by the gradient tape.
//
// Each operation keeps its inputs and output from the forward pass and maps an
// output gradient to input gradients:
//   - AddOp: d(a+b)/da = 1, d(a+b)/db = 1 (summed over broadcast dims)
//   - MulOp: d(a*b)/da = b, d(a*b)/db = a
//   - MatMulOp: d(A@B)/dA = grad@Bᵀ, d(A@B)/dB = Aᵀ@grad
//   - ReshapeOp, TransposeOp: route the gradient back to the source layout
//   - SumDimOp: broadcast the gradient over the reduced dimension
//   - ReLUOp: pass the gradient where the input was positive
//   - CrossEntropyOp: fused log-softmax + negative log-likelihood
package ops

import "github.com/born-ml/simplenn/internal/tensor"

// Operation is a node of the computation graph.
type Operation interface {
	// Backward returns one gradient per input, in Inputs order. A nil entry
	// means no gradient flows to that input.
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	Inputs() []*tensor.RawTensor
	Output() *tensor.RawTensor
}
