// Package tensor provides the typed tensor layer shared by the backend, autodiff and
// nn packages.
package tensor

// DType constrains the element types a Tensor may hold.
//
// Float32 carries activations, parameters and gradients; Int32 carries class labels
// and argmax results.
type DType interface {
	float32 | int32
}

// DataType is the runtime tag stored on every RawTensor.
type DataType int

// Supported element types.
const (
	Float32 DataType = iota
	Int32
)

// Size returns the element width in bytes.
func (dt DataType) Size() int {
	switch dt {
	case Float32, Int32:
		return 4
	default:
		panic("unknown data type")
	}
}

func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Int32:
		return "int32"
	default:
		return "unknown"
	}
}

func dataTypeOf[T DType]() DataType {
	var zero T
	switch any(zero).(type) {
	case float32:
		return Float32
	case int32:
		return Int32
	default:
		panic("unsupported type")
	}
}
