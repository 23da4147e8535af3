package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"

	"github.com/google/uuid"

	"github.com/born-ml/simplenn/internal/autodiff"
	"github.com/born-ml/simplenn/internal/backend/cpu"
	"github.com/born-ml/simplenn/internal/config"
	"github.com/born-ml/simplenn/internal/dataset"
	"github.com/born-ml/simplenn/internal/model"
	"github.com/born-ml/simplenn/internal/optim"
	"github.com/born-ml/simplenn/internal/tensor"
	"github.com/born-ml/simplenn/internal/train"
)

// run trains once and checks accuracy on both splits. Console lines go to
// out; the banner and verbose diagnostics go to logger.
func run(ctx context.Context, cfg *config.Config, out io.Writer, logger *log.Logger) error {
	device, err := tensor.ParseDevice(cfg.Device)
	if err != nil {
		return err
	}
	backend, err := newBackend(device)
	if err != nil {
		return err
	}
	logger.Printf("run %s: backend %s, device %s, host %s", uuid.New(), backend.Name(), backend.Device(), backend.Inner().Host())

	trainSet, testSet, err := loadSplits(cfg)
	if err != nil {
		return err
	}
	logger.Printf("data: %d training / %d test samples of %v", trainSet.Len(), testSet.Len(), trainSet.SampleShape)

	var shuffle []dataset.LoaderOption
	if cfg.Shuffle {
		shuffle = append(shuffle, dataset.WithShuffle(rand.New(rand.NewSource(cfg.Seed+1))))
	}
	trainLoader, err := dataset.NewLoader(trainSet, cfg.BatchSize, append(shuffle, dataset.WithPrefetch(2))...)
	if err != nil {
		return err
	}
	// Accuracy passes always see the splits in file order.
	trainEval, err := dataset.NewLoader(trainSet, cfg.BatchSize)
	if err != nil {
		return err
	}
	testEval, err := dataset.NewLoader(testSet, cfg.BatchSize)
	if err != nil {
		return err
	}

	m, err := model.NewMLP(model.Config{
		InputSize:  cfg.InputSize,
		HiddenSize: cfg.HiddenSize,
		NumClasses: cfg.NumClasses,
	}, backend, rand.New(rand.NewSource(cfg.Seed)))
	if err != nil {
		return err
	}
	logger.Printf("model: %s", m)

	adam := optim.NewAdam(m.Parameters(), optim.AdamConfig{LR: float32(cfg.LearningRate)}, backend)

	opts := []train.Option{train.WithOutput(out), train.WithProgress(logger.Writer())}
	if cfg.Verbose {
		opts = append(opts, train.WithLogger(logger))
	}
	trainer, err := train.NewTrainer(m, adam, cfg.NumEpochs, opts...)
	if err != nil {
		return err
	}
	if err := trainer.Train(ctx, trainLoader); err != nil {
		return fmt.Errorf("train: %w", err)
	}

	if _, err := train.CheckAccuracy(out, "training", m, trainEval); err != nil {
		return err
	}
	if _, err := train.CheckAccuracy(out, "test", m, testEval); err != nil {
		return err
	}
	return nil
}

// newBackend returns the differentiating backend for device.
func newBackend(device tensor.Device) (*autodiff.AutodiffBackend[*cpu.CPUBackend], error) {
	switch device {
	case tensor.CPU:
		return autodiff.New(cpu.New()), nil
	default:
		return nil, fmt.Errorf("no backend for device %s", device)
	}
}

// loadSplits reads (or generates) the training and test splits, applies the
// sample limit, and rejects labels the model cannot represent.
func loadSplits(cfg *config.Config) (trainSet, testSet *dataset.Dataset, err error) {
	d := cfg.Data

	switch d.Format {
	case config.FormatSynthetic:
		shape := tensor.Shape{cfg.InputSize}
		if cfg.InputSize == 28*28 {
			shape = tensor.Shape{1, 28, 28}
		}
		trainSet = dataset.Synthetic(d.Synthetic, cfg.NumClasses, shape, rand.New(rand.NewSource(cfg.Seed+2)))
		testSet = dataset.Synthetic(d.Synthetic, cfg.NumClasses, shape, rand.New(rand.NewSource(cfg.Seed+3)))

	case config.FormatCSV:
		if trainSet, err = dataset.LoadCSV(d.TrainCSV, d.Limit); err != nil {
			return nil, nil, err
		}
		if testSet, err = dataset.LoadCSV(d.TestCSV, d.Limit); err != nil {
			return nil, nil, err
		}

	case config.FormatAuto, config.FormatIDX:
		if d.Format == config.FormatAuto && !dataset.HasMNIST(d.Dir) {
			return nil, nil, fmt.Errorf("no MNIST files in %q (download them there, or pass -synthetic N)", d.Dir)
		}
		if trainSet, err = dataset.LoadMNIST(d.Dir, true); err != nil {
			return nil, nil, err
		}
		if testSet, err = dataset.LoadMNIST(d.Dir, false); err != nil {
			return nil, nil, err
		}

	default:
		return nil, nil, fmt.Errorf("%w: unknown data.format %q", config.ErrInvalid, d.Format)
	}

	trainSet, testSet = trainSet.Limit(d.Limit), testSet.Limit(d.Limit)
	if err := trainSet.CheckLabels(cfg.NumClasses); err != nil {
		return nil, nil, fmt.Errorf("training split: %w", err)
	}
	if err := testSet.CheckLabels(cfg.NumClasses); err != nil {
		return nil, nil, fmt.Errorf("test split: %w", err)
	}
	return trainSet, testSet, nil
}
