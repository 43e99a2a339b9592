package checkpointer

import (
	"github.com/pkg/errors"

	"github.com/cadenza-ai/cadenza/pkg/check"
	"github.com/cadenza-ai/cadenza/pkg/model"
)

// Config configures checkpoint persistence for a training run.
type Config struct {
	// Path is the base directory checkpoints are written under. Each run
	// writes into its own subdirectory of Path.
	Path string `json:"checkpoint_path"`
	// Freq is the number of evaluation triggers between checkpoints.
	Freq int `json:"checkpoint_freq"`
	// Metric optionally names the metric used to track the best checkpoint.
	// When empty, the latest checkpoint is considered the best.
	Metric string `json:"checkpoint_metric"`
	// Mode states whether Metric is minimized or maximized.
	Mode model.MetricMode `json:"checkpoint_metric_mode"`
	// ClearIntermediate removes all but the best checkpoint on Clear.
	ClearIntermediate bool `json:"clear_intermediate_checkpoints"`
	// ClearAll removes the whole run directory on Clear.
	ClearAll bool `json:"clear_all_checkpoints"`
}

// WithDefaults returns a copy of the config with defaults filled in.
func (c Config) WithDefaults() Config {
	if c.Path == "" {
		c.Path = "checkpoints"
	}
	if c.Freq == 0 {
		c.Freq = 1
	}
	if c.Mode == "" {
		c.Mode = model.MetricModeMax
	}
	return c
}

// Validate implements the check.Validatable interface.
func (c Config) Validate() []error {
	var errs []error
	// Zero means unset; WithDefaults fills it in.
	if c.Freq != 0 {
		errs = append(errs, check.GreaterThanOrEqualTo(float64(c.Freq), 1,
			"checkpoint_freq must be a positive integer"))
	}
	if c.Mode != "" {
		if _, err := model.ParseMetricMode(string(c.Mode)); err != nil {
			errs = append(errs, errors.Wrap(err, "checkpoint_metric_mode"))
		}
	}
	return errs
}
