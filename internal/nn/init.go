package nn

import (
	"math"
	"math/rand"

	"github.com/born-ml/simplenn/internal/tensor"
)

// LinearInit draws from U(-1/√fanIn, 1/√fanIn), the default for Linear weights
// and biases alike.
func LinearInit[B tensor.Backend](fanIn int, shape tensor.Shape, rng *rand.Rand, backend B) *tensor.Tensor[float32, B] {
	bound := 1 / math.Sqrt(float64(fanIn))
	return tensor.Uniform(shape, -bound, bound, rng, backend)
}
