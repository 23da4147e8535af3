package tensor

import (
	"fmt"
	"strings"
)

// Device identifies where a tensor's memory lives.
type Device int

// Supported devices. The pipeline runs on a single host, so placement is a no-op.
const (
	CPU Device = iota
)

func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	default:
		return "Unknown"
	}
}

// ParseDevice maps a configuration value to a Device. "auto" and the empty string
// select the CPU.
func ParseDevice(name string) (Device, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto", "cpu":
		return CPU, nil
	default:
		return CPU, fmt.Errorf("unsupported device %q (available: cpu)", name)
	}
}

// RawTensor is the untyped storage that backends and autodiff operations exchange.
// Exactly one of the typed slices is populated, matching dtype.
//
// Autodiff keys gradients by *RawTensor identity, so operations always return a
// fresh RawTensor instead of mutating their inputs.
type RawTensor struct {
	shape  Shape
	stride []int
	dtype  DataType
	device Device
	f32    []float32
	i32    []int32
}

// NewRaw allocates a zero-filled tensor.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape %v: %w", shape, err)
	}

	r := &RawTensor{
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
		device: device,
	}

	switch dtype {
	case Float32:
		r.f32 = make([]float32, shape.NumElements())
	case Int32:
		r.i32 = make([]int32, shape.NumElements())
	default:
		return nil, fmt.Errorf("unsupported dtype %s", dtype)
	}

	return r, nil
}

// MustRaw is NewRaw for shapes already known to be valid (kernel outputs).
func MustRaw(shape Shape, dtype DataType, device Device) *RawTensor {
	r, err := NewRaw(shape, dtype, device)
	if err != nil {
		panic(err)
	}
	return r
}

// Shape returns the tensor's dimensions. Callers must not modify it.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns row-major strides matching Shape.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// DType returns the element type tag.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// Device returns the tensor's device.
func (r *RawTensor) Device() Device {
	return r.device
}

// NumElements returns the number of stored elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// AsFloat32 returns the backing slice. Panics unless the dtype is Float32.
func (r *RawTensor) AsFloat32() []float32 {
	if r.dtype != Float32 {
		panic(fmt.Sprintf("tensor dtype is %s, not float32", r.dtype))
	}
	return r.f32
}

// AsInt32 returns the backing slice. Panics unless the dtype is Int32.
func (r *RawTensor) AsInt32() []int32 {
	if r.dtype != Int32 {
		panic(fmt.Sprintf("tensor dtype is %s, not int32", r.dtype))
	}
	return r.i32
}

// Clone returns a deep copy with its own storage.
func (r *RawTensor) Clone() *RawTensor {
	c := &RawTensor{
		shape:  r.shape.Clone(),
		stride: append([]int(nil), r.stride...),
		dtype:  r.dtype,
		device: r.device,
	}
	if r.f32 != nil {
		c.f32 = append([]float32(nil), r.f32...)
	}
	if r.i32 != nil {
		c.i32 = append([]int32(nil), r.i32...)
	}
	return c
}

// WithShape returns a copy of r viewed with a different shape of equal size.
func (r *RawTensor) WithShape(shape Shape) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape %v: %w", shape, err)
	}
	if shape.NumElements() != r.NumElements() {
		return nil, fmt.Errorf("cannot view %v as %v: element count differs", r.shape, shape)
	}
	c := r.Clone()
	c.shape = shape.Clone()
	c.stride = shape.ComputeStrides()
	return c, nil
}
