// Package config holds the configuration of the cadenza command.
package config

import (
	"encoding/json"

	"github.com/cadenza-ai/cadenza/pkg/cadence"
	"github.com/cadenza-ai/cadenza/pkg/check"
	"github.com/cadenza-ai/cadenza/pkg/logger"
	"github.com/cadenza-ai/cadenza/pkg/model"
)

// DefaultConfig returns the default configuration of the command.
func DefaultConfig() *Config {
	return &Config{
		Log: logger.DefaultConfig(),
		Cadence: cadence.Config{
			CounterUnit:    model.Epochs,
			EvaluationFreq: 1,
		},
		Schedule: ScheduleConfig{
			TotalBatches:    100,
			BatchSize:       32,
			BatchesPerEpoch: 10,
		},
	}
}

// Config is the configuration of the cadenza command.
type Config struct {
	ConfigFile string         `json:"config_file"`
	Log        logger.Config  `json:"log"`
	Cadence    cadence.Config `json:"cadence"`
	Schedule   ScheduleConfig `json:"schedule"`
}

// Printable returns a JSON string of the config for logging.
func (c Config) Printable() ([]byte, error) {
	return json.Marshal(c)
}

// Resolve applies the parts of the config that act on global state.
func (c Config) Resolve() {
	logger.SetLogrus(c.Log)
}

// ScheduleConfig describes the batch schedule a dry run walks through.
type ScheduleConfig struct {
	// TotalBatches is how many batches the simulated run trains for.
	TotalBatches int `json:"total_batches"`
	// BatchSize is the number of samples per batch.
	BatchSize int `json:"batch_size"`
	// BatchesPerEpoch may be fractional when epoch boundaries do not align
	// with batch boundaries.
	BatchesPerEpoch float64 `json:"batches_per_epoch"`
	// ResumedBatches and ResumedEpochs seed the run as if it were resumed
	// from a checkpoint with that much completed progress.
	ResumedBatches int     `json:"resumed_batches"`
	ResumedEpochs  float64 `json:"resumed_epochs"`
}

// Validate implements the check.Validatable interface.
func (s ScheduleConfig) Validate() []error {
	return []error{
		check.GreaterThan(float64(s.TotalBatches), 0, "total_batches must be positive"),
		check.GreaterThan(float64(s.BatchSize), 0, "batch_size must be positive"),
		check.GreaterThan(s.BatchesPerEpoch, 0, "batches_per_epoch must be positive"),
		check.GreaterThanOrEqualTo(float64(s.ResumedBatches), 0,
			"resumed_batches must be nonnegative"),
		check.GreaterThanOrEqualTo(s.ResumedEpochs, 0, "resumed_epochs must be nonnegative"),
	}
}
