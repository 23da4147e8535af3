// Package config holds the hyperparameters and run settings of a training run.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/simplenn/internal/tensor"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Data formats accepted by DataConfig.Format.
const (
	FormatAuto      = "auto"
	FormatIDX       = "idx"
	FormatCSV       = "csv"
	FormatSynthetic = "synthetic"
)

// Hyperparameters are fixed for the whole run once validated.
type Hyperparameters struct {
	InputSize    int     `yaml:"input_size"`
	HiddenSize   int     `yaml:"hidden_size"`
	NumClasses   int     `yaml:"num_classes"`
	LearningRate float64 `yaml:"learning_rate"`
	BatchSize    int     `yaml:"batch_size"`
	NumEpochs    int     `yaml:"num_epochs"`
}

// DataConfig locates the train and test splits.
type DataConfig struct {
	Dir       string `yaml:"dir"`
	Format    string `yaml:"format"`
	TrainCSV  string `yaml:"train_csv"`
	TestCSV   string `yaml:"test_csv"`
	Limit     int    `yaml:"limit"`     // cap on samples per split, 0 = all
	Synthetic int    `yaml:"synthetic"` // samples per split when Format is synthetic
}

// Config captures the runtime knobs for a training run.
type Config struct {
	Hyperparameters `yaml:",inline"`

	Data    DataConfig `yaml:"data"`
	Device  string     `yaml:"device"`
	Seed    int64      `yaml:"seed"`
	Shuffle bool       `yaml:"shuffle"`
	Verbose bool       `yaml:"verbose"`
}

// Overrides captures CLI supplied values. Zero values leave the config alone.
type Overrides struct {
	DataDir      string
	Epochs       int
	BatchSize    int
	LearningRate float64
	HiddenSize   int
	Seed         *int64 // nil leaves the seed alone, so 0 can be set explicitly
	Limit        int
	Synthetic    int
	Device       string
	NoShuffle    bool
	Verbose      bool
}

// Default returns the reference hyperparameters: 784-50-10, Adam lr 0.001,
// batch 64, 100 epochs.
func Default() *Config {
	return &Config{
		Hyperparameters: Hyperparameters{
			InputSize:    784,
			HiddenSize:   50,
			NumClasses:   10,
			LearningRate: 0.001,
			BatchSize:    64,
			NumEpochs:    100,
		},
		Data: DataConfig{
			Dir:       "dataset",
			Format:    FormatAuto,
			Synthetic: 1000,
		},
		Device:  "cpu",
		Seed:    1,
		Shuffle: true,
	}
}

// Load reads a YAML config on top of Default and validates it. Unknown keys are
// rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyOverrides updates c using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.DataDir != "" {
		c.Data.Dir = o.DataDir
	}
	if o.Epochs > 0 {
		c.NumEpochs = o.Epochs
	}
	if o.BatchSize > 0 {
		c.BatchSize = o.BatchSize
	}
	if o.LearningRate > 0 {
		c.LearningRate = o.LearningRate
	}
	if o.HiddenSize > 0 {
		c.HiddenSize = o.HiddenSize
	}
	if o.Seed != nil {
		c.Seed = *o.Seed
	}
	if o.Limit > 0 {
		c.Data.Limit = o.Limit
	}
	if o.Synthetic > 0 {
		c.Data.Format = FormatSynthetic
		c.Data.Synthetic = o.Synthetic
	}
	if o.Device != "" {
		c.Device = o.Device
	}
	if o.NoShuffle {
		c.Shuffle = false
	}
	if o.Verbose {
		c.Verbose = true
	}
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalid)
	}

	positive := []struct {
		name  string
		value int
	}{
		{"input_size", c.InputSize},
		{"hidden_size", c.HiddenSize},
		{"num_classes", c.NumClasses},
		{"batch_size", c.BatchSize},
		{"num_epochs", c.NumEpochs},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("%w: %s must be > 0 (got %d)", ErrInvalid, p.name, p.value)
		}
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("%w: learning_rate must be > 0 (got %g)", ErrInvalid, c.LearningRate)
	}
	if c.Data.Limit < 0 {
		return fmt.Errorf("%w: data.limit must be >= 0 (got %d)", ErrInvalid, c.Data.Limit)
	}

	switch c.Data.Format {
	case FormatAuto, FormatIDX:
		if c.Data.Dir == "" {
			return fmt.Errorf("%w: data.dir is required for %s data", ErrInvalid, c.Data.Format)
		}
	case FormatCSV:
		if c.Data.TrainCSV == "" || c.Data.TestCSV == "" {
			return fmt.Errorf("%w: data.train_csv and data.test_csv are required for csv data", ErrInvalid)
		}
	case FormatSynthetic:
		if c.Data.Synthetic <= 0 {
			return fmt.Errorf("%w: data.synthetic must be > 0 (got %d)", ErrInvalid, c.Data.Synthetic)
		}
	default:
		return fmt.Errorf("%w: unknown data.format %q", ErrInvalid, c.Data.Format)
	}

	if _, err := tensor.ParseDevice(c.Device); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}
