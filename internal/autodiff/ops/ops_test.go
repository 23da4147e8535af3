package ops_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/simplenn/internal/autodiff/ops"
	"github.com/born-ml/simplenn/internal/backend/cpu"
	"github.com/born-ml/simplenn/internal/tensor"
)

func raw(t *testing.T, data []float32, shape ...int) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.NewRaw(tensor.Shape(shape), tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	copy(r.AsFloat32(), data)
	return r
}

func labels(t *testing.T, data ...int32) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.NewRaw(tensor.Shape{len(data)}, tensor.Int32, tensor.CPU)
	require.NoError(t, err)
	copy(r.AsInt32(), data)
	return r
}

func TestCrossEntropyForward(t *testing.T) {
	logits := raw(t, []float32{
		1, 2, 3,
		3, 2, 1,
	}, 2, 3)

	out := ops.CrossEntropyForward(logits, labels(t, 2, 0), tensor.CPU)

	require.True(t, out.Shape().Equal(tensor.Shape{1}))
	// Both rows put the target on the largest logit: -log(e^3 / (e+e²+e³)).
	want := math.Log(math.Exp(1)+math.Exp(2)+math.Exp(3)) - 3
	assert.InDelta(t, want, out.AsFloat32()[0], 1e-5)
}

func TestCrossEntropyForward_UniformLogits(t *testing.T) {
	logits := raw(t, make([]float32, 10), 1, 10)

	out := ops.CrossEntropyForward(logits, labels(t, 7), tensor.CPU)

	assert.InDelta(t, math.Log(10), out.AsFloat32()[0], 1e-5)
}

func TestCrossEntropyForward_LargeLogitsStayFinite(t *testing.T) {
	logits := raw(t, []float32{1000, -1000, 0}, 1, 3)

	out := ops.CrossEntropyForward(logits, labels(t, 1), tensor.CPU)

	v := float64(out.AsFloat32()[0])
	assert.False(t, math.IsInf(v, 0) || math.IsNaN(v))
	assert.InDelta(t, 2000, v, 1e-2)
}

func TestCrossEntropyForward_Panics(t *testing.T) {
	logits := raw(t, []float32{1, 2, 3}, 1, 3)

	assert.Panics(t, func() { ops.CrossEntropyForward(logits, labels(t, 3), tensor.CPU) }, "target out of range")
	assert.Panics(t, func() { ops.CrossEntropyForward(logits, labels(t, 0, 1), tensor.CPU) }, "batch mismatch")
}

func TestCrossEntropyOp_Backward(t *testing.T) {
	backend := cpu.New()
	logits := raw(t, []float32{
		1, 2, 3,
		3, 2, 1,
	}, 2, 3)
	targets := labels(t, 2, 0)

	out := ops.CrossEntropyForward(logits, targets, tensor.CPU)
	op := ops.NewCrossEntropyOp(logits, targets, out)

	grads := op.Backward(raw(t, []float32{1}, 1), backend)
	require.Len(t, grads, 1)
	g := grads[0].AsFloat32()

	// Each row of (softmax - onehot) sums to zero.
	for i := 0; i < 2; i++ {
		var sum float32
		for j := 0; j < 3; j++ {
			sum += g[i*3+j]
		}
		assert.InDelta(t, 0, sum, 1e-6)
	}
	assert.Less(t, g[2], float32(0), "target logit gradient is negative")
	assert.Less(t, g[3], float32(0))
	assert.Same(t, logits, op.Inputs()[0])
	assert.Same(t, out, op.Output())
}

func TestAddOp_ReducesBroadcast(t *testing.T) {
	backend := cpu.New()
	a := raw(t, []float32{1, 2, 3, 4, 5, 6}, 2, 3)
	b := raw(t, []float32{1, 1, 1}, 1, 3)
	op := ops.NewAddOp(a, b, backend.Add(a, b))

	grads := op.Backward(raw(t, []float32{1, 2, 3, 4, 5, 6}, 2, 3), backend)

	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, grads[0].AsFloat32())
	assert.True(t, grads[1].Shape().Equal(tensor.Shape{1, 3}))
	assert.Equal(t, []float32{5, 7, 9}, grads[1].AsFloat32())
}

func TestMulOp_Backward(t *testing.T) {
	backend := cpu.New()
	a := raw(t, []float32{2, 3}, 2)
	b := raw(t, []float32{5, 7}, 2)
	op := ops.NewMulOp(a, b, backend.Mul(a, b))

	grads := op.Backward(raw(t, []float32{1, 1}, 2), backend)

	assert.Equal(t, []float32{5, 7}, grads[0].AsFloat32())
	assert.Equal(t, []float32{2, 3}, grads[1].AsFloat32())
}

func TestMatMulOp_Backward(t *testing.T) {
	backend := cpu.New()
	a := raw(t, []float32{1, 2, 3, 4}, 2, 2)
	b := raw(t, []float32{5, 6, 7, 8}, 2, 2)
	op := ops.NewMatMulOp(a, b, backend.MatMul(a, b))

	grads := op.Backward(raw(t, []float32{1, 1, 1, 1}, 2, 2), backend)

	// grad_a = 1 @ bᵀ, grad_b = aᵀ @ 1
	assert.Equal(t, []float32{11, 15, 11, 15}, grads[0].AsFloat32())
	assert.Equal(t, []float32{4, 4, 6, 6}, grads[1].AsFloat32())
}

func TestTransposeOp_Backward(t *testing.T) {
	backend := cpu.New()
	x := raw(t, []float32{1, 2, 3, 4, 5, 6}, 2, 3)
	op := ops.NewTransposeOp(x, backend.Transpose(x, 1, 0), []int{1, 0})

	grads := op.Backward(raw(t, []float32{1, 2, 3, 4, 5, 6}, 3, 2), backend)

	assert.True(t, grads[0].Shape().Equal(tensor.Shape{2, 3}))
	assert.Equal(t, []float32{1, 3, 5, 2, 4, 6}, grads[0].AsFloat32())
}

func TestReshapeOp_Backward(t *testing.T) {
	backend := cpu.New()
	x := raw(t, []float32{1, 2, 3}, 3)
	op := ops.NewReshapeOp(x, backend.Reshape(x, tensor.Shape{1, 3}))

	grads := op.Backward(raw(t, []float32{4, 5, 6}, 1, 3), backend)

	assert.True(t, grads[0].Shape().Equal(tensor.Shape{3}))
	assert.Equal(t, []float32{4, 5, 6}, grads[0].AsFloat32())
}

func TestSumDimOp_Backward(t *testing.T) {
	backend := cpu.New()
	x := raw(t, []float32{1, 2, 3, 4, 5, 6}, 2, 3)

	op := ops.NewSumDimOp(x, backend.SumDim(x, -1, false), -1, false)
	grads := op.Backward(raw(t, []float32{10, 20}, 2), backend)

	assert.True(t, grads[0].Shape().Equal(tensor.Shape{2, 3}))
	assert.Equal(t, []float32{10, 10, 10, 20, 20, 20}, grads[0].AsFloat32())
}

func TestReLUOp_Backward(t *testing.T) {
	backend := cpu.New()
	x := raw(t, []float32{-1, 0, 2, 3}, 4)
	op := ops.NewReLUOp(x, backend.ReLU(x))

	grads := op.Backward(raw(t, []float32{5, 5, 5, 5}, 4), backend)

	assert.Equal(t, []float32{0, 0, 5, 5}, grads[0].AsFloat32())
}
