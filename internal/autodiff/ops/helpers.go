package ops

import "github.com/born-ml/simplenn/internal/tensor"

// reduceBroadcast sums grad down to targetShape, undoing forward broadcasting.
//
//	Forward:  x[4,3] + bias[1,3] -> y[4,3]
//	Backward: grad_y[4,3] -> grad_bias[1,3] (sum over dim 0)
func reduceBroadcast(grad *tensor.RawTensor, targetShape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	if grad.Shape().Equal(targetShape) {
		// Clone so accumulation never aliases a gradient shared by two inputs.
		return grad.Clone()
	}

	// Dimensions prepended by broadcasting are summed away first.
	for len(grad.Shape()) > len(targetShape) {
		grad = backend.SumDim(grad, 0, false)
	}

	shape := grad.Shape()
	for i := range targetShape {
		if targetShape[i] == 1 && shape[i] > 1 {
			grad = backend.SumDim(grad, i, true)
		}
	}

	if !grad.Shape().Equal(targetShape) {
		grad = backend.Reshape(grad, targetShape)
	}
	return grad
}

// broadcastTo expands grad to targetShape by adding it to zeros.
func broadcastTo(grad *tensor.RawTensor, targetShape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	if grad.Shape().Equal(targetShape) {
		return grad.Clone()
	}
	zeros := tensor.MustRaw(targetShape, grad.DType(), backend.Device())
	return backend.Add(zeros, grad)
}
