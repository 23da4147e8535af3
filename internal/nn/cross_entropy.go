package nn

import (
	"github.com/born-ml/simplenn/internal/autodiff/ops"
	"github.com/born-ml/simplenn/internal/tensor"
)

// CrossEntropyBackend is implemented by backends that record the fused loss
// (autodiff.AutodiffBackend).
type CrossEntropyBackend interface {
	CrossEntropy(logits, targets *tensor.RawTensor) *tensor.RawTensor
}

// CrossEntropyLoss is the mean over the batch of -log softmax(logits)[target].
type CrossEntropyLoss[B tensor.Backend] struct {
	backend B
}

// NewCrossEntropyLoss creates the loss bound to backend.
func NewCrossEntropyLoss[B tensor.Backend](backend B) *CrossEntropyLoss[B] {
	return &CrossEntropyLoss[B]{backend: backend}
}

// Forward returns the loss as a [1] tensor.
//
// On an autodiff backend the loss is recorded on the tape; otherwise it is
// computed without gradient support.
func (c *CrossEntropyLoss[B]) Forward(
	logits *tensor.Tensor[float32, B],
	targets *tensor.Tensor[int32, B],
) *tensor.Tensor[float32, B] {
	if ce, ok := any(c.backend).(CrossEntropyBackend); ok {
		return tensor.New[float32](ce.CrossEntropy(logits.Raw(), targets.Raw()), c.backend)
	}

	loss := ops.CrossEntropyForward(logits.Raw(), targets.Raw(), c.backend.Device())
	return tensor.New[float32](loss, c.backend)
}

// Parameters returns nil.
func (c *CrossEntropyLoss[B]) Parameters() []*Parameter[B] {
	return nil
}

// CorrectCount returns how many rows of logits [N, C] have their argmax equal
// to the target. Ties resolve to the lowest class index.
func CorrectCount[B tensor.Backend](
	logits *tensor.Tensor[float32, B],
	targets *tensor.Tensor[int32, B],
) int {
	predicted := logits.Argmax(1).Data()
	labels := targets.Data()

	correct := 0
	for i, p := range predicted {
		if p == labels[i] {
			correct++
		}
	}
	return correct
}
