// Package writer provides the metric log writers a training run can emit
// scalars to. The writer is selected by a tagged-union config; the "none"
// variant is a real writer that discards everything, so callers never have to
// guard against a missing writer.
package writer

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/cadenza-ai/cadenza/pkg/union"
)

// A Writer receives scalar metrics emitted during training.
type Writer interface {
	// AddScalar records a single named scalar at the given step.
	AddScalar(name string, value float64, step float64) error
	// Close flushes and releases the writer.
	Close() error
}

// Config selects and configures the metric writer backend.
type Config struct {
	NoneConfig        *NoneConfig        `union:"writer,none" json:"-"`
	JSONConfig        *JSONConfig        `union:"writer,json" json:"-"`
	TensorboardConfig *TensorboardConfig `union:"writer,tensorboard" json:"-"`
}

// MarshalJSON implements the json.Marshaler interface.
func (c Config) MarshalJSON() ([]byte, error) {
	return union.Marshal(c)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (c *Config) UnmarshalJSON(data []byte) error {
	if err := union.Unmarshal(data, c); err != nil {
		return err
	}
	type DefaultParser *Config
	return errors.Wrap(json.Unmarshal(data, DefaultParser(c)), "failed to parse writer config")
}

// WithDefaults returns a copy of the config with an explicit backend; an
// empty config resolves to the none variant.
func (c Config) WithDefaults() Config {
	if c.NoneConfig == nil && c.JSONConfig == nil && c.TensorboardConfig == nil {
		c.NoneConfig = &NoneConfig{}
	}
	return c
}

// Validate implements the check.Validatable interface.
func (c Config) Validate() []error {
	count := 0
	if c.NoneConfig != nil {
		count++
	}
	if c.JSONConfig != nil {
		count++
	}
	if c.TensorboardConfig != nil {
		count++
	}
	if count > 1 {
		return []error{errors.New("at most one writer backend can be configured")}
	}
	return nil
}

// Open builds the configured writer for the given run. Defaults are applied
// first, so an unset backend opens the none variant.
func (c Config) Open(runID string) (Writer, error) {
	c = c.WithDefaults()
	switch {
	case c.JSONConfig != nil:
		return openJSONWriter(*c.JSONConfig, runID)
	case c.TensorboardConfig != nil:
		return openTensorboardWriter(*c.TensorboardConfig, runID)
	default:
		return NoneWriter{}, nil
	}
}
