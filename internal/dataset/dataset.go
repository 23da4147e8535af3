// Package dataset loads handwritten-digit splits and serves them in batches.
//
// Supported sources:
//   - MNIST IDX files (train-images-idx3-ubyte etc.), raw or gzip-compressed
//   - Kaggle-style CSV (label,pixel0,...,pixel783 with a header row)
//   - Synthetic class-separable data for smoke runs and tests
//
// Pixels are scaled from [0, 255] to [0, 1].
package dataset

import (
	"errors"
	"fmt"

	"github.com/born-ml/simplenn/internal/tensor"
)

// ErrInvalidIDX reports a malformed IDX file.
var ErrInvalidIDX = errors.New("invalid IDX file")

// Dataset is an in-memory split. Images holds Len() samples of SampleShape,
// row-major and back to back.
type Dataset struct {
	Images      []float32
	Labels      []int32
	SampleShape tensor.Shape
}

// New checks that images and labels agree with sampleShape.
func New(images []float32, labels []int32, sampleShape tensor.Shape) (*Dataset, error) {
	if err := sampleShape.Validate(); err != nil {
		return nil, fmt.Errorf("sample shape %v: %w", sampleShape, err)
	}
	size := sampleShape.NumElements()
	if len(images) != len(labels)*size {
		return nil, fmt.Errorf("%d labels need %d pixel values of shape %v, got %d",
			len(labels), len(labels)*size, sampleShape, len(images))
	}
	return &Dataset{
		Images:      images,
		Labels:      labels,
		SampleShape: sampleShape.Clone(),
	}, nil
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.Labels)
}

// SampleSize returns the number of values per sample.
func (d *Dataset) SampleSize() int {
	return d.SampleShape.NumElements()
}

// Sample returns the i-th input (aliasing Images) and its label.
func (d *Dataset) Sample(i int) ([]float32, int32) {
	size := d.SampleSize()
	return d.Images[i*size : (i+1)*size], d.Labels[i]
}

// Limit returns the first n samples, or d itself when n <= 0 or n >= Len.
func (d *Dataset) Limit(n int) *Dataset {
	if n <= 0 || n >= d.Len() {
		return d
	}
	return &Dataset{
		Images:      d.Images[:n*d.SampleSize()],
		Labels:      d.Labels[:n],
		SampleShape: d.SampleShape,
	}
}

// CheckLabels returns an error if any label is outside [0, numClasses).
func (d *Dataset) CheckLabels(numClasses int) error {
	for i, label := range d.Labels {
		if label < 0 || int(label) >= numClasses {
			return fmt.Errorf("sample %d: label %d out of range [0, %d)", i, label, numClasses)
		}
	}
	return nil
}

// Batch is an ordered group of samples sharing one shape.
type Batch struct {
	Inputs      []float32 // Size() × SampleShape, row-major
	SampleShape tensor.Shape
	Labels      []int32
}

// Size returns the number of samples in the batch.
func (b Batch) Size() int {
	return len(b.Labels)
}
