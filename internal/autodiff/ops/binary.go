package ops

import "github.com/born-ml/simplenn/internal/tensor"

// binary holds the operands and result of a two-input operation.
type binary struct {
	lhs, rhs *tensor.RawTensor
	out      *tensor.RawTensor
}

func (op *binary) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.lhs, op.rhs}
}

func (op *binary) Output() *tensor.RawTensor {
	return op.out
}

// AddOp is out = lhs + rhs. An operand that was broadcast (the Linear bias row)
// gets the upstream gradient summed back down to its own shape.
type AddOp struct{ binary }

// NewAddOp records lhs + rhs = out.
func NewAddOp(lhs, rhs, out *tensor.RawTensor) *AddOp {
	return &AddOp{binary{lhs, rhs, out}}
}

func (op *AddOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		reduceBroadcast(grad, op.lhs.Shape(), backend),
		reduceBroadcast(grad, op.rhs.Shape(), backend),
	}
}

// MulOp is the element-wise out = lhs * rhs; each side's gradient is the
// upstream gradient scaled by the other side.
type MulOp struct{ binary }

// NewMulOp records lhs * rhs = out.
func NewMulOp(lhs, rhs, out *tensor.RawTensor) *MulOp {
	return &MulOp{binary{lhs, rhs, out}}
}

func (op *MulOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		reduceBroadcast(backend.Mul(grad, op.rhs), op.lhs.Shape(), backend),
		reduceBroadcast(backend.Mul(grad, op.lhs), op.rhs.Shape(), backend),
	}
}

// MatMulOp is out = lhs @ rhs for lhs [M, K] and rhs [K, N]:
//
//	dlhs = grad @ rhsᵀ  -> [M, K]
//	drhs = lhsᵀ @ grad  -> [K, N]
type MatMulOp struct{ binary }

// NewMatMulOp records lhs @ rhs = out.
func NewMatMulOp(lhs, rhs, out *tensor.RawTensor) *MatMulOp {
	return &MatMulOp{binary{lhs, rhs, out}}
}

func (op *MatMulOp) Backward(grad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		backend.MatMul(grad, backend.Transpose(op.rhs, 1, 0)),
		backend.MatMul(backend.Transpose(op.lhs, 1, 0), grad),
	}
}
