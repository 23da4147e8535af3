package cpu

import (
	"fmt"

	"github.com/born-ml/simplenn/internal/tensor"
)

// SumDim sums x along dim (negative dims count from the end).
//
//	x: [2, 3]
//	SumDim(x, 0, true)  -> [1, 3]
//	SumDim(x, -1, false) -> [2]
func (cpu *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	shape := x.Shape()
	dim = normalizeDim("sumdim", dim, len(shape))

	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("sumdim: unsupported dtype %s", x.DType()))
	}

	outer, size, inner := splitAt(shape, dim)
	result := tensor.MustRaw(reducedShape(shape, dim, keepDim), tensor.Float32, cpu.device)

	in := x.AsFloat32()
	out := result.AsFloat32()
	for o := 0; o < outer; o++ {
		for j := 0; j < size; j++ {
			base := (o*size + j) * inner
			for i := 0; i < inner; i++ {
				out[o*inner+i] += in[base+i]
			}
		}
	}

	return result
}

// Argmax returns Int32 indices of the maximum along dim; the first index wins ties.
func (cpu *CPUBackend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	dim = normalizeDim("argmax", dim, len(shape))

	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("argmax: unsupported dtype %s", x.DType()))
	}

	outer, size, inner := splitAt(shape, dim)
	outShape := reducedShape(shape, dim, false)
	if len(outShape) == 0 {
		outShape = tensor.Shape{1}
	}
	result := tensor.MustRaw(outShape, tensor.Int32, cpu.device)

	in := x.AsFloat32()
	out := result.AsInt32()
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			best := 0
			bestVal := in[o*size*inner+i]
			for j := 1; j < size; j++ {
				if v := in[(o*size+j)*inner+i]; v > bestVal {
					best, bestVal = j, v
				}
			}
			out[o*inner+i] = int32(best)
		}
	}

	return result
}

func normalizeDim(op string, dim, ndim int) int {
	if dim < 0 {
		dim += ndim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("%s: dimension out of range for %dD tensor", op, ndim))
	}
	return dim
}

// splitAt views shape as [outer, shape[dim], inner].
func splitAt(shape tensor.Shape, dim int) (outer, size, inner int) {
	outer, inner = 1, 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}
	return outer, shape[dim], inner
}

func reducedShape(shape tensor.Shape, dim int, keepDim bool) tensor.Shape {
	if keepDim {
		out := shape.Clone()
		out[dim] = 1
		return out
	}
	out := make(tensor.Shape, 0, len(shape)-1)
	out = append(out, shape[:dim]...)
	return append(out, shape[dim+1:]...)
}
