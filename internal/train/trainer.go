// Package train runs the optimization loop and measures accuracy.
package train

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/born-ml/simplenn/internal/autodiff"
	"github.com/born-ml/simplenn/internal/dataset"
	"github.com/born-ml/simplenn/internal/model"
	"github.com/born-ml/simplenn/internal/nn"
	"github.com/born-ml/simplenn/internal/optim"
)

// Trainer fits a model with a fixed number of full passes over the training
// split. Only differentiating backends can train.
type Trainer[B autodiff.BackwardCapable] struct {
	model     *model.MLP[B]
	optimizer optim.Optimizer
	criterion *nn.CrossEntropyLoss[B]
	epochs    int
	out       io.Writer
	progress  io.Writer
	logger    *log.Logger
}

// Option configures a Trainer.
type Option func(*options)

type options struct {
	out      io.Writer
	progress io.Writer
	logger   *log.Logger
}

// WithOutput sets where progress lines go (default os.Stdout).
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.out = w
	}
}

// WithProgress sets where the per-batch progress bar is drawn (default
// os.Stderr). nil disables it.
func WithProgress(w io.Writer) Option {
	return func(o *options) {
		o.progress = w
	}
}

// WithLogger enables per-epoch loss and timing logs.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// NewTrainer creates a trainer running numEpochs passes.
func NewTrainer[B autodiff.BackwardCapable](m *model.MLP[B], optimizer optim.Optimizer, numEpochs int, opts ...Option) (*Trainer[B], error) {
	if m == nil || optimizer == nil {
		return nil, fmt.Errorf("trainer: model and optimizer are required")
	}
	if numEpochs <= 0 {
		return nil, fmt.Errorf("trainer: epochs must be > 0 (got %d)", numEpochs)
	}

	o := options{out: os.Stdout, progress: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}

	return &Trainer[B]{
		model:     m,
		optimizer: optimizer,
		criterion: nn.NewCrossEntropyLoss(m.Backend()),
		epochs:    numEpochs,
		out:       o.out,
		progress:  o.progress,
		logger:    o.logger,
	}, nil
}

// Train runs every epoch over loader, printing "Epoch [i/N]" before each.
//
// The model is put in Training mode first. ctx is checked between batches; any
// error aborts the run and is returned with its epoch and batch position.
func (t *Trainer[B]) Train(ctx context.Context, loader *dataset.Loader) error {
	t.model.SetMode(model.Training)

	for epoch := 1; epoch <= t.epochs; epoch++ {
		fmt.Fprintf(t.out, "Epoch [%d/%d]\n", epoch, t.epochs)

		if err := t.epoch(ctx, epoch, loader); err != nil {
			return err
		}
	}

	return nil
}

func (t *Trainer[B]) epoch(ctx context.Context, epoch int, loader *dataset.Loader) error {
	bar := t.progressBar(loader.NumBatches())

	start := time.Now()
	var (
		lossSum float64
		batches int
	)
	for b := range loader.Batches() {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("epoch %d: %w", epoch, err)
		}

		loss, err := t.Step(b)
		if err != nil {
			return fmt.Errorf("epoch %d batch %d: %w", epoch, batches+1, err)
		}
		lossSum += float64(loss)
		batches++
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	if t.logger != nil && batches > 0 {
		t.logger.Printf("epoch=%d batches=%d mean_loss=%.4f lr=%g elapsed=%s",
			epoch, batches, lossSum/float64(batches), t.optimizer.GetLR(), time.Since(start).Round(time.Millisecond))
	}
	return nil
}

// progressBar draws one bar per epoch on the progress writer, or nothing when
// progress is disabled.
func (t *Trainer[B]) progressBar(numBatches int) *progressbar.ProgressBar {
	w := t.progress
	if w == nil {
		w = io.Discard
	}
	return progressbar.NewOptions(numBatches,
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
	)
}

// Step performs one optimization step on b and returns the batch loss.
//
// forward → mean cross-entropy → backward → Adam update; the tape is cleared
// afterwards so no graph or gradient outlives the batch.
func (t *Trainer[B]) Step(b dataset.Batch) (float32, error) {
	backend := t.model.Backend()
	cfg := t.model.Config()
	defer backend.Tape().Clear()

	x, err := Flatten(b, cfg.InputSize, backend)
	if err != nil {
		return 0, err
	}
	y, err := Labels(b, cfg.NumClasses, backend)
	if err != nil {
		return 0, err
	}

	t.optimizer.ZeroGrad()

	scores, err := t.model.Forward(x)
	if err != nil {
		return 0, err
	}
	loss := t.criterion.Forward(scores, y)

	grads := autodiff.Backward(loss, backend)
	t.optimizer.Step(grads)

	return loss.Data()[0], nil
}
