package cadence

import (
	"github.com/pkg/errors"

	"github.com/cadenza-ai/cadenza/pkg/check"
	"github.com/cadenza-ai/cadenza/pkg/checkpointer"
	"github.com/cadenza-ai/cadenza/pkg/model"
	"github.com/cadenza-ai/cadenza/pkg/writer"
)

// Config configures the cadence manager for one training run.
type Config struct {
	// CounterUnit selects which progress counter drives evaluation triggers.
	CounterUnit model.Unit `json:"counter_unit"`
	// EvaluationFreq is the amount of progress, in CounterUnit units, between
	// evaluation triggers.
	EvaluationFreq float64 `json:"evaluation_freq"`
	// Checkpointing enables periodic checkpointing.
	Checkpointing bool `json:"checkpointing"`
	// Checkpointer configures checkpoint persistence; only consulted when
	// Checkpointing is set.
	Checkpointer checkpointer.Config `json:"checkpointer_config"`
	// Writer selects the metric log writer backend.
	Writer writer.Config `json:"writer_config"`
	// Verbose enables informational logging. It has no behavioral effect.
	Verbose bool `json:"verbose"`
}

// WithDefaults returns a copy of the config with defaults filled in.
func (c Config) WithDefaults() Config {
	if c.CounterUnit == "" {
		c.CounterUnit = model.Epochs
	}
	if c.EvaluationFreq == 0 {
		c.EvaluationFreq = 1
	}
	c.Checkpointer = c.Checkpointer.WithDefaults()
	c.Writer = c.Writer.WithDefaults()
	return c
}

// Validate implements the check.Validatable interface.
func (c Config) Validate() []error {
	var errs []error
	if _, err := model.ParseUnit(string(c.CounterUnit)); err != nil {
		errs = append(errs, errors.Wrap(err, "counter_unit"))
	}
	errs = append(errs, check.GreaterThan(c.EvaluationFreq, 0,
		"evaluation_freq must be positive"))
	return errs
}
