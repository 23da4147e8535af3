package train

import (
	"fmt"

	"github.com/born-ml/simplenn/internal/dataset"
	"github.com/born-ml/simplenn/internal/model"
	"github.com/born-ml/simplenn/internal/tensor"
)

// Flatten turns a batch into an input tensor [N, inputSize]. Samples of any
// shape are accepted as long as they hold exactly inputSize values.
func Flatten[B tensor.Backend](b dataset.Batch, inputSize int, backend B) (*tensor.Tensor[float32, B], error) {
	n := b.Size()
	if n == 0 {
		return nil, fmt.Errorf("flatten: empty batch")
	}
	if got := b.SampleShape.NumElements(); got != inputSize {
		return nil, fmt.Errorf("%w: sample %v has %d values, want %d", model.ErrShapeMismatch, b.SampleShape, got, inputSize)
	}
	if len(b.Inputs) != n*inputSize {
		return nil, fmt.Errorf("%w: batch of %d holds %d values, want %d", model.ErrShapeMismatch, n, len(b.Inputs), n*inputSize)
	}

	return tensor.FromSlice(b.Inputs, tensor.Shape{n, inputSize}, backend)
}

// Labels converts batch labels to an Int32 tensor [N], rejecting classes
// outside [0, numClasses).
func Labels[B tensor.Backend](b dataset.Batch, numClasses int, backend B) (*tensor.Tensor[int32, B], error) {
	for i, label := range b.Labels {
		if label < 0 || int(label) >= numClasses {
			return nil, fmt.Errorf("sample %d: label %d out of range [0, %d)", i, label, numClasses)
		}
	}
	return tensor.FromSlice(b.Labels, tensor.Shape{b.Size()}, backend)
}
