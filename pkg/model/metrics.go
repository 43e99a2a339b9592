package model

import (
	"github.com/pkg/errors"
)

// Metrics maps metric names to scalar values.
type Metrics map[string]float64

// Merge copies all entries of other into m, overwriting on collision.
func (m Metrics) Merge(other Metrics) {
	for name, value := range other {
		m[name] = value
	}
}

// MetricMode states whether a smaller or a larger metric value is better.
type MetricMode string

// The two directions a tracked metric can be optimized in.
const (
	MetricModeMin MetricMode = "min"
	MetricModeMax MetricMode = "max"
)

// ParseMetricMode converts a raw configuration value into a MetricMode.
func ParseMetricMode(s string) (MetricMode, error) {
	switch MetricMode(s) {
	case MetricModeMin, MetricModeMax:
		return MetricMode(s), nil
	default:
		return "", errors.Errorf("unrecognized metric mode: %s", s)
	}
}

// Improves reports whether candidate is strictly better than incumbent under
// the mode.
func (m MetricMode) Improves(candidate, incumbent float64) bool {
	if m == MetricModeMin {
		return candidate < incumbent
	}
	return candidate > incumbent
}
