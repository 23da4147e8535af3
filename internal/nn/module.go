// Package nn provides the layers the classifier is assembled from.
//
// All modules are generic over the backend. Gradient tracking is a property of
// the backend (autodiff.AutodiffBackend), not of the modules.
package nn

import "github.com/born-ml/simplenn/internal/tensor"

// Module is a layer with a forward pass and trainable parameters.
type Module[B tensor.Backend] interface {
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]
	Parameters() []*Parameter[B]
}
