package dataset

import (
	"math/rand"

	"github.com/born-ml/simplenn/internal/tensor"
)

// Synthetic generates n samples of sampleShape over numClasses classes.
//
// Each class owns a band of the flattened input where pixels are bright
// (0.8 ± noise); everything else is low noise. Labels cycle 0, 1, ...,
// numClasses-1 so every class is represented.
func Synthetic(n, numClasses int, sampleShape tensor.Shape, rng *rand.Rand) *Dataset {
	size := sampleShape.NumElements()
	band := size / numClasses
	if band == 0 {
		band = 1
	}

	images := make([]float32, n*size)
	labels := make([]int32, n)
	for i := 0; i < n; i++ {
		label := i % numClasses
		labels[i] = int32(label)

		sample := images[i*size : (i+1)*size]
		start := (label * band) % size
		for j := range sample {
			v := 0.1 * rng.Float32()
			if j >= start && j < start+band {
				v += 0.7
			}
			sample[j] = v
		}
	}

	return &Dataset{
		Images:      images,
		Labels:      labels,
		SampleShape: sampleShape.Clone(),
	}
}
