// Package main trains the two-layer digit classifier and reports its accuracy.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/born-ml/simplenn/internal/config"
)

const version = "v0.1.0"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("simplenn %s\n", version)
		return
	}

	cfg, err := parseConfig(os.Args[1:], os.Stderr)
	if err != nil {
		if err == flag.ErrHelp {
			return
		}
		log.Fatalf("simplenn: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, os.Stdout, log.New(os.Stderr, "", log.LstdFlags))
	stop()
	if err != nil {
		log.Fatalf("simplenn: %v", err)
	}
}

// parseConfig builds the run config from an optional YAML file plus flags.
func parseConfig(args []string, stderr io.Writer) (*config.Config, error) {
	fs := flag.NewFlagSet("simplenn", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		path string
		seed int64
		o    config.Overrides
	)
	fs.StringVar(&path, "config", "", "YAML config file (defaults apply when empty)")
	fs.StringVar(&o.DataDir, "data", "", "directory holding the MNIST IDX files")
	fs.IntVar(&o.Epochs, "epochs", 0, "number of training epochs")
	fs.IntVar(&o.BatchSize, "batch", 0, "mini-batch size")
	fs.Float64Var(&o.LearningRate, "lr", 0, "Adam learning rate")
	fs.IntVar(&o.HiddenSize, "hidden", 0, "hidden layer width")
	fs.Int64Var(&seed, "seed", 0, "seed for initialization and shuffling")
	fs.IntVar(&o.Limit, "samples", 0, "use at most this many samples per split")
	fs.IntVar(&o.Synthetic, "synthetic", 0, "generate this many synthetic samples per split instead of reading files")
	fs.StringVar(&o.Device, "device", "", "compute device (cpu)")
	fs.BoolVar(&o.NoShuffle, "no-shuffle", false, "keep the training split in file order")
	fs.BoolVar(&o.Verbose, "v", false, "log per-epoch loss and timing")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			o.Seed = &seed
		}
	})

	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.ApplyOverrides(o)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
