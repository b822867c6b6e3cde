// Package parfold carries the run configuration shared by the training
// coordinator's execution modes.
package parfold

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml"

	"github.com/rodneyosodo/parfold/trainer"
)

var (
	ErrUnknownDataset = errors.New("unknown dataset selector")
	ErrUnknownDevice  = errors.New("unknown device selector")
	ErrBadProcessors  = errors.New("processor count must be at least 1")
	ErrBadBatchSize   = errors.New("batch size must be at least 1")
	ErrBadEpochs      = errors.New("epoch count must be at least 1")
	ErrBadFraction    = errors.New("test fraction must lie in (0, 1)")
)

const (
	DatasetMNIST = "MNIST"
	DatasetSynth = "SYNTH"

	DeviceCPU = "CPU"
	DeviceGPU = "GPU"
)

type SynthConfig struct {
	Examples int `toml:"examples"`
	Classes  int `toml:"classes"`
	Features int `toml:"features"`
}

// Config is the options bundle consumed by the coordinator. It is
// assembled by the CLI or loaded from a TOML file and validated before
// any training work starts.
type Config struct {
	Dataset      string      `toml:"dataset"`
	DataDir      string      `toml:"data_dir"`
	Device       string      `toml:"device"`
	Processors   int         `toml:"processors"`
	Folds        int         `toml:"folds"`
	BatchSize    int         `toml:"batch_size"`
	Epochs       int         `toml:"epochs"`
	LearningRate float64     `toml:"learning_rate"`
	Patience     int         `toml:"patience"`
	Activation   string      `toml:"activation"`
	Loss         string      `toml:"loss"`
	Optimizer    string      `toml:"optimizer"`
	Seed         int64       `toml:"seed"`
	TestFraction float64     `toml:"test_fraction"`
	ValFraction  float64     `toml:"val_fraction"`
	Synth        SynthConfig `toml:"synth"`
}

// DefaultConfig mirrors the coordinator's conventional defaults.
func DefaultConfig() Config {
	return Config{
		Dataset:      DatasetSynth,
		DataDir:      "data",
		Device:       DeviceCPU,
		Processors:   2,
		Folds:        10,
		BatchSize:    64,
		Epochs:       10,
		LearningRate: 0.01,
		Patience:     3,
		Activation:   "RELU",
		Loss:         "CE",
		Optimizer:    "SGD",
		Seed:         42,
		TestFraction: 0.2,
		ValFraction:  0.1,
		Synth:        SynthConfig{Examples: 1000, Classes: 10, Features: 64},
	}
}

// LoadConfig reads a TOML run configuration over the defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("error reading config file: %w", err)
	}

	tree, err := toml.Load(string(data))
	if err != nil {
		return Config{}, fmt.Errorf("error parsing config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := tree.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate surfaces configuration errors before any training starts.
// Unknown option values are never retried.
func (c Config) Validate() error {
	switch strings.ToUpper(c.Dataset) {
	case DatasetMNIST, DatasetSynth:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDataset, c.Dataset)
	}

	switch strings.ToUpper(c.Device) {
	case DeviceCPU, DeviceGPU:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDevice, c.Device)
	}

	if c.Processors < 1 {
		return fmt.Errorf("%w: got %d", ErrBadProcessors, c.Processors)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("%w: got %d", ErrBadBatchSize, c.BatchSize)
	}
	if c.Epochs < 1 {
		return fmt.Errorf("%w: got %d", ErrBadEpochs, c.Epochs)
	}
	if c.TestFraction <= 0 || c.TestFraction >= 1 {
		return fmt.Errorf("%w: got %g", ErrBadFraction, c.TestFraction)
	}
	if c.ValFraction <= 0 || c.ValFraction >= 1 {
		return fmt.Errorf("%w: got %g", ErrBadFraction, c.ValFraction)
	}

	if _, err := c.TrainerConfig().Resolve(); err != nil {
		return err
	}

	return nil
}

// TrainerConfig projects the shared hyperparameters for worker units.
func (c Config) TrainerConfig() trainer.Config {
	return trainer.Config{
		Epochs:       c.Epochs,
		BatchSize:    c.BatchSize,
		LearningRate: c.LearningRate,
		Patience:     c.Patience,
		Activation:   c.Activation,
		Loss:         c.Loss,
		Optimizer:    c.Optimizer,
		Seed:         c.Seed,
	}
}
