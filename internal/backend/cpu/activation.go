package cpu

import (
	"fmt"

	"github.com/born-ml/simplenn/internal/parallel"
	"github.com/born-ml/simplenn/internal/tensor"
)

// ReLU computes max(0, x) element-wise.
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("relu: unsupported dtype %s", x.DType()))
	}

	result := tensor.MustRaw(x.Shape(), tensor.Float32, cpu.device)
	in := x.AsFloat32()
	out := result.AsFloat32()

	parallel.ForRange(len(in), func(start, end int) {
		for i := start; i < end; i++ {
			if v := in[i]; v > 0 {
				out[i] = v
			}
		}
	}, cpu.par)

	return result
}
