// Package cpu implements tensor.Backend in pure Go, with float32 matrix products
// delegated to gonum's SGEMM.
package cpu

import (
	"fmt"

	"github.com/born-ml/simplenn/internal/parallel"
	"github.com/born-ml/simplenn/internal/tensor"
)

// CPUBackend executes tensor operations on the host.
type CPUBackend struct {
	device tensor.Device
	par    parallel.Config
}

// Option customizes a CPUBackend.
type Option func(*CPUBackend)

// WithParallel overrides the fan-out used by element-wise kernels.
func WithParallel(cfg parallel.Config) Option {
	return func(cpu *CPUBackend) {
		cpu.par = cfg
	}
}

// New creates a CPU backend sized for the host.
func New(opts ...Option) *CPUBackend {
	cpu := &CPUBackend{
		device: tensor.CPU,
		par:    parallel.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(cpu)
	}
	return cpu
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns tensor.CPU.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Add performs element-wise addition with broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("add", a, b,
		func(x, y float32) float32 { return x + y },
		func(x, y int32) int32 { return x + y },
	)
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("mul", a, b,
		func(x, y float32) float32 { return x * y },
		func(x, y int32) int32 { return x * y },
	)
}

func (cpu *CPUBackend) binary(
	name string,
	a, b *tensor.RawTensor,
	f32 func(x, y float32) float32,
	i32 func(x, y int32) int32,
) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch %s vs %s", name, a.DType(), b.DType()))
	}

	outShape, stretched, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	result := tensor.MustRaw(outShape, a.DType(), cpu.device)

	switch a.DType() {
	case tensor.Float32:
		applyBinary(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), a.Shape(), b.Shape(), outShape, stretched, f32, cpu.par)
	case tensor.Int32:
		applyBinary(result.AsInt32(), a.AsInt32(), b.AsInt32(), a.Shape(), b.Shape(), outShape, stretched, i32, cpu.par)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, a.DType()))
	}

	return result
}

// applyBinary writes op(a, b) into out. Each output element is owned by one
// goroutine.
func applyBinary[T float32 | int32](
	out, a, b []T,
	aShape, bShape, outShape tensor.Shape,
	stretched bool,
	op func(x, y T) T,
	par parallel.Config,
) {
	if !stretched {
		parallel.ForRange(len(out), func(start, end int) {
			for i := start; i < end; i++ {
				out[i] = op(a[i], b[i])
			}
		}, par)
		return
	}

	outStrides := outShape.ComputeStrides()
	aStrides := broadcastStrides(aShape, outShape)
	bStrides := broadcastStrides(bShape, outShape)

	parallel.ForRange(len(out), func(start, end int) {
		for i := start; i < end; i++ {
			ai, bi := 0, 0
			rem := i
			for d, stride := range outStrides {
				coord := rem / stride
				rem %= stride
				ai += coord * aStrides[d]
				bi += coord * bStrides[d]
			}
			out[i] = op(a[ai], b[bi])
		}
	}, par)
}

// broadcastStrides maps in's strides onto out's rank; stretched dimensions get 0.
func broadcastStrides(in, out tensor.Shape) []int {
	strides := make([]int, len(out))
	inStrides := in.ComputeStrides()
	offset := len(out) - len(in)
	for d := range out {
		k := d - offset
		if k < 0 || in[k] == 1 {
			continue
		}
		strides[d] = inStrides[k]
	}
	return strides
}

// Reshape returns a copy of t with a new shape of the same size.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	result, err := t.WithShape(newShape)
	if err != nil {
		panic(fmt.Sprintf("reshape: %v", err))
	}
	return result
}

// Transpose permutes t's dimensions. Without axes the order is reversed.
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: axes length %d != ndim %d", len(axes), ndim))
	}

	seen := make([]bool, ndim)
	for _, ax := range axes {
		if ax < 0 || ax >= ndim || seen[ax] {
			panic(fmt.Sprintf("transpose: invalid permutation %v for %dD tensor", axes, ndim))
		}
		seen[ax] = true
	}

	newShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		newShape[i] = shape[ax]
	}

	result := tensor.MustRaw(newShape, t.DType(), cpu.device)

	switch t.DType() {
	case tensor.Float32:
		permute(result.AsFloat32(), t.AsFloat32(), shape, newShape, axes)
	case tensor.Int32:
		permute(result.AsInt32(), t.AsInt32(), shape, newShape, axes)
	default:
		panic(fmt.Sprintf("transpose: unsupported dtype %s", t.DType()))
	}

	return result
}

func permute[T float32 | int32](out, in []T, inShape, outShape tensor.Shape, axes []int) {
	inStrides := inShape.ComputeStrides()
	outStrides := outShape.ComputeStrides()

	for i := range out {
		src := 0
		rem := i
		for d, stride := range outStrides {
			coord := rem / stride
			rem %= stride
			src += coord * inStrides[axes[d]]
		}
		out[i] = in[src]
	}
}
