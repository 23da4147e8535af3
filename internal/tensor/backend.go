package tensor

// Backend performs the numerical work behind Tensor operations.
//
// Implementations:
//   - cpu.CPUBackend: pure Go, SGEMM through gonum
//   - autodiff.AutodiffBackend: decorator that records operations on a tape
//
// Kernels panic on malformed inputs (shape or dtype mismatch). Callers that accept
// user data validate shapes before reaching a backend.
type Backend interface {
	// Element-wise with NumPy-style broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor

	// MatMul multiplies 2-D tensors: [M, K] @ [K, N] -> [M, N].
	MatMul(a, b *RawTensor) *RawTensor

	Reshape(t *RawTensor, newShape Shape) *RawTensor
	// Transpose permutes dimensions; no axes reverses them.
	Transpose(t *RawTensor, axes ...int) *RawTensor

	// SumDim sums along dim, keeping it as size 1 when keepDim is set.
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor
	// Argmax returns Int32 indices of the largest value along dim (dim removed).
	Argmax(x *RawTensor, dim int) *RawTensor

	Name() string
	Device() Device
}
