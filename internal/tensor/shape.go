package tensor

import "fmt"

// Shape lists the size of every dimension, outermost first.
type Shape []int

// NumElements returns the product of all dimensions. A scalar (empty shape) holds
// one element.
func (s Shape) NumElements() int {
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate rejects zero and negative dimensions.
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("dimension %d is %d, must be > 0", i, dim)
		}
	}
	return nil
}

// Equal reports whether both shapes have the same rank and sizes.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (s Shape) Clone() Shape {
	return append(Shape(nil), s...)
}

// ComputeStrides returns row-major strides: the last dimension is contiguous.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	step := 1
	for i := len(s) - 1; i >= 0; i-- {
		strides[i] = step
		step *= s[i]
	}
	return strides
}

// BroadcastShapes aligns a and b from the right and returns the broadcast result.
// The boolean is true when either operand has to be stretched.
//
//	(2, 3) + (1, 3) -> (2, 3), true
//	(2, 3) + (2, 3) -> (2, 3), false
//	(2, 3) + (2, 4) -> error
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	rank := max(len(a), len(b))
	out := make(Shape, rank)
	stretched := len(a) != len(b)

	for i := 1; i <= rank; i++ {
		da, db := 1, 1
		if i <= len(a) {
			da = a[len(a)-i]
		}
		if i <= len(b) {
			db = b[len(b)-i]
		}

		switch {
		case da == db:
			out[rank-i] = da
		case da == 1:
			out[rank-i] = db
			stretched = true
		case db == 1:
			out[rank-i] = da
			stretched = true
		default:
			return nil, false, fmt.Errorf("cannot broadcast %v with %v", a, b)
		}
	}

	return out, stretched, nil
}
