package tensor

import "math/rand"

// Zeros creates a zero-filled tensor.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return New[T, B](MustRaw(shape, dataTypeOf[T](), b.Device()), b)
}

// Full creates a tensor with every element set to value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Uniform fills a float32 tensor with samples from U(low, high).
//
// The generator is explicit so that parameter initialization is reproducible from
// a seed; nothing here touches the package-level source of math/rand.
func Uniform[B Backend](shape Shape, low, high float64, rng *rand.Rand, b B) *Tensor[float32, B] {
	t := Zeros[float32, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = float32(low + (high-low)*rng.Float64())
	}
	return t
}
