// Package config loads the YAML run description of mibench.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mibench/mibench/pkg/errors"
)

// Config holds one benchmark run.
type Config struct {
	// Subjects of the EEGBCI dataset, 1-based.
	Subjects []int `yaml:"subjects"`
	// ActionTasks are the motor execution runs; ImaginaryTasks the paired
	// imagery runs, index by index.
	ActionTasks    []int `yaml:"action_tasks"`
	ImaginaryTasks []int `yaml:"imaginary_tasks"`

	DataDir string `yaml:"data_dir"`

	Epochs EpochsConfig `yaml:"epochs"`
	CV     CVConfig     `yaml:"cv"`

	// Workers bounds the evaluation pool; 0 means one per CPU.
	Workers int `yaml:"workers"`

	Logging LoggingConfig `yaml:"logging"`
}

// EpochsConfig is the window cut around every event, in seconds.
type EpochsConfig struct {
	TMin float64 `yaml:"tmin"`
	TMax float64 `yaml:"tmax"`
}

// CVConfig configures the shuffle-split cross validation.
type CVConfig struct {
	NSplits  int     `yaml:"n_splits"`
	TestSize float64 `yaml:"test_size"`
	Seed     uint64  `yaml:"seed"`
}

// LoggingConfig selects the log backend.
type LoggingConfig struct {
	Level   string `yaml:"level"`   // debug, info, warn, error
	Backend string `yaml:"backend"` // slog, zerolog, zap
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "data/eegbci",
		Epochs: EpochsConfig{
			TMin: -1.0,
			TMax: 4.0,
		},
		CV: CVConfig{
			NSplits:  10,
			TestSize: 0.4,
			Seed:     42,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Backend: "slog",
		},
	}
}

// Load reads path over the defaults and applies environment overrides.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, errors.Wrapf(err, "failed to read config")
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config %s", path)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create config directory")
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal config")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write config")
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("MIBENCH_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("MIBENCH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks the run description.
func (c *Config) Validate() error {
	if len(c.Subjects) == 0 {
		return errors.NewValidationError("subjects", "must not be empty", c.Subjects)
	}
	if len(c.ActionTasks) == 0 {
		return errors.NewValidationError("action_tasks", "must not be empty", c.ActionTasks)
	}
	if len(c.ActionTasks) != len(c.ImaginaryTasks) {
		return errors.NewValidationError("imaginary_tasks", "must have as many runs as action_tasks", c.ImaginaryTasks)
	}
	if c.Epochs.TMax <= c.Epochs.TMin {
		return errors.NewValidationError("epochs.tmax", "must be greater than epochs.tmin", c.Epochs.TMax)
	}
	if c.CV.NSplits < 1 {
		return errors.NewValidationError("cv.n_splits", "must be at least 1", c.CV.NSplits)
	}
	if c.CV.TestSize <= 0 || c.CV.TestSize >= 1 {
		return errors.NewValidationError("cv.test_size", "must be in (0, 1)", c.CV.TestSize)
	}
	if c.Workers < 0 {
		return errors.NewValidationError("workers", "must not be negative", c.Workers)
	}
	return nil
}
