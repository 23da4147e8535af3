package autodiff

import (
	"fmt"

	"github.com/born-ml/simplenn/internal/tensor"
)

// BackwardCapable is a backend that owns a gradient tape.
type BackwardCapable interface {
	tensor.Backend
	Tape() *GradientTape
}

// Backward computes gradients of t (seeded with ones) with respect to every
// tensor recorded on the backend's tape.
//
// Example:
//
//	loss := criterion.Forward(logits, labels)
//	grads := autodiff.Backward(loss, backend)
//	optimizer.Step(grads)
func Backward[B BackwardCapable](t *tensor.Tensor[float32, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	tape := backend.Tape()
	if tape.NumOps() == 0 {
		panic("backward: no operations recorded (is the tape recording?)")
	}

	seed, err := tensor.NewRaw(t.Shape(), tensor.Float32, backend.Device())
	if err != nil {
		panic(fmt.Sprintf("backward: failed to create output gradient: %v", err))
	}
	ones := seed.AsFloat32()
	for i := range ones {
		ones[i] = 1
	}

	return tape.Backward(seed, backend)
}
