package dataset

import (
	"fmt"
	"iter"
	"math/rand"
)

// Loader serves a Dataset as a finite, restartable sequence of batches.
//
// Every call to Batches starts a new traversal that visits each sample exactly
// once. With shuffling enabled the order is redrawn from the loader's rng at the
// start of each traversal; otherwise samples come in dataset order. The last
// batch holds the remainder when Len is not a multiple of the batch size.
type Loader struct {
	data      *Dataset
	batchSize int
	rng       *rand.Rand // nil: fixed order
	prefetch  int
	order     []int
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithShuffle reshuffles the sample order per traversal using rng.
func WithShuffle(rng *rand.Rand) LoaderOption {
	return func(l *Loader) {
		l.rng = rng
	}
}

// WithPrefetch assembles up to n upcoming batches on a background goroutine.
// Batch contents and order are unchanged.
func WithPrefetch(n int) LoaderOption {
	return func(l *Loader) {
		l.prefetch = n
	}
}

// NewLoader creates a loader over data. An empty dataset yields no batches.
func NewLoader(data *Dataset, batchSize int, opts ...LoaderOption) (*Loader, error) {
	if data == nil {
		return nil, fmt.Errorf("loader: nil dataset")
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("loader: batch size must be > 0 (got %d)", batchSize)
	}

	l := &Loader{
		data:      data,
		batchSize: batchSize,
		order:     make([]int, data.Len()),
	}
	for i := range l.order {
		l.order[i] = i
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Len returns the number of samples per traversal.
func (l *Loader) Len() int {
	return l.data.Len()
}

// NumBatches returns the number of batches per traversal.
func (l *Loader) NumBatches() int {
	return (l.data.Len() + l.batchSize - 1) / l.batchSize
}

// Batches starts a traversal. Batches own their memory; callers may keep them.
func (l *Loader) Batches() iter.Seq[Batch] {
	if l.rng != nil {
		l.rng.Shuffle(len(l.order), func(i, j int) {
			l.order[i], l.order[j] = l.order[j], l.order[i]
		})
	}
	order := append([]int(nil), l.order...)

	if l.prefetch > 0 {
		return l.prefetched(order)
	}
	return func(yield func(Batch) bool) {
		for start := 0; start < len(order); start += l.batchSize {
			if !yield(l.assemble(order, start)) {
				return
			}
		}
	}
}

func (l *Loader) prefetched(order []int) iter.Seq[Batch] {
	return func(yield func(Batch) bool) {
		done := make(chan struct{})
		defer close(done)

		batches := make(chan Batch, l.prefetch)
		go func() {
			defer close(batches)
			for start := 0; start < len(order); start += l.batchSize {
				select {
				case batches <- l.assemble(order, start):
				case <-done:
					return
				}
			}
		}()

		for b := range batches {
			if !yield(b) {
				return
			}
		}
	}
}

func (l *Loader) assemble(order []int, start int) Batch {
	end := min(start+l.batchSize, len(order))
	size := l.data.SampleSize()

	b := Batch{
		Inputs:      make([]float32, (end-start)*size),
		SampleShape: l.data.SampleShape,
		Labels:      make([]int32, end-start),
	}
	for i, idx := range order[start:end] {
		input, label := l.data.Sample(idx)
		copy(b.Inputs[i*size:(i+1)*size], input)
		b.Labels[i] = label
	}
	return b
}
