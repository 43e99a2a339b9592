package config

import (
	"testing"

	"github.com/ghodss/yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadenza-ai/cadenza/pkg/check"
	"github.com/cadenza-ai/cadenza/pkg/model"
)

func TestDefaultConfigValidates(t *testing.T) {
	require.NoError(t, check.Validate(DefaultConfig()))
}

func TestConfigFromYAML(t *testing.T) {
	raw := `
log:
  level: debug
  color: false
cadence:
  counter_unit: batch
  evaluation_freq: 50
  checkpointing: true
  checkpointer_config:
    checkpoint_freq: 2
    checkpoint_path: /tmp/ckpts
    checkpoint_metric: accuracy
    checkpoint_metric_mode: max
  writer_config:
    writer: json
    log_dir: /tmp/logs
schedule:
  total_batches: 500
  batch_size: 16
  batches_per_epoch: 125
`
	conf := DefaultConfig()
	require.NoError(t, yaml.Unmarshal([]byte(raw), conf))
	require.NoError(t, check.Validate(conf))

	assert.Equal(t, "debug", conf.Log.Level)
	assert.Equal(t, model.Batches, conf.Cadence.CounterUnit)
	assert.InDelta(t, 50, conf.Cadence.EvaluationFreq, 1e-9)
	assert.True(t, conf.Cadence.Checkpointing)
	assert.Equal(t, 2, conf.Cadence.Checkpointer.Freq)
	assert.Equal(t, "accuracy", conf.Cadence.Checkpointer.Metric)
	require.NotNil(t, conf.Cadence.Writer.JSONConfig)
	assert.Equal(t, "/tmp/logs", conf.Cadence.Writer.JSONConfig.LogDir)
	assert.Equal(t, 500, conf.Schedule.TotalBatches)
	assert.InDelta(t, 125, conf.Schedule.BatchesPerEpoch, 1e-9)
}

func TestConfigRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"bad unit", "cadence:\n  counter_unit: minute\n"},
		{"bad writer", "cadence:\n  writer_config:\n    writer: csv\n"},
		{"bad schedule", "schedule:\n  batch_size: -1\n"},
		{"bad log level", "log:\n  level: shouting\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			conf := DefaultConfig()
			err := yaml.Unmarshal([]byte(tc.raw), conf)
			if err == nil {
				err = check.Validate(conf)
			}
			require.Error(t, err)
		})
	}
}
