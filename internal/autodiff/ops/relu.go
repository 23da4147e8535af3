package ops

import (
	"fmt"

	"github.com/born-ml/simplenn/internal/tensor"
)

// ReLUOp records output = max(0, x).
//
// d(ReLU(x))/dx is 1 where x > 0 and 0 elsewhere (including x == 0).
type ReLUOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewReLUOp creates a new ReLUOp.
func NewReLUOp(input, output *tensor.RawTensor) *ReLUOp {
	return &ReLUOp{
		input:  input,
		output: output,
	}
}

// Backward masks the output gradient with (x > 0).
func (op *ReLUOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	mask := reluMask(op.input, backend.Device())
	return []*tensor.RawTensor{backend.Mul(outputGrad, mask)}
}

// Inputs returns [x].
func (op *ReLUOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns max(0, x).
func (op *ReLUOp) Output() *tensor.RawTensor {
	return op.output
}

func reluMask(input *tensor.RawTensor, device tensor.Device) *tensor.RawTensor {
	if input.DType() != tensor.Float32 {
		panic(fmt.Sprintf("relu: unsupported dtype %s", input.DType()))
	}

	mask := tensor.MustRaw(input.Shape(), tensor.Float32, device)
	maskData := mask.AsFloat32()
	for i, v := range input.AsFloat32() {
		if v > 0 {
			maskData[i] = 1
		}
	}
	return mask
}
