package checkpointer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadenza-ai/cadenza/pkg/check"
	"github.com/cadenza-ai/cadenza/pkg/model"
)

type state struct {
	Value string `json:"value"`
}

func (s *state) Snapshot() (json.RawMessage, error) {
	return json.Marshal(s)
}

func (s *state) Restore(data json.RawMessage) error {
	return json.Unmarshal(data, s)
}

func newTestCheckpointer(t *testing.T, conf Config) *Checkpointer {
	conf.Path = t.TempDir()
	c, err := New(conf, "", false)
	require.NoError(t, err)
	return c
}

func checkpoint(t *testing.T, c *Checkpointer, step float64, value string, metrics model.Metrics) {
	require.NoError(t, c.Checkpoint(step,
		&state{Value: value}, &state{Value: "opt"}, &state{Value: "sched"}, metrics))
}

func TestCheckpointWritesRecord(t *testing.T) {
	c := newTestCheckpointer(t, Config{})
	checkpoint(t, c, 5, "m1", model.Metrics{"loss": 0.5})

	bs, err := os.ReadFile(filepath.Join(c.Dir(), "checkpoint.5.json"))
	require.NoError(t, err)

	var rec record
	require.NoError(t, json.Unmarshal(bs, &rec))
	assert.InDelta(t, 5, rec.Step, 1e-9)
	assert.Equal(t, model.Metrics{"loss": 0.5}, rec.Metrics)
	assert.JSONEq(t, `{"value":"m1"}`, string(rec.Model))
	assert.JSONEq(t, `{"value":"opt"}`, string(rec.Optimizer))
	assert.JSONEq(t, `{"value":"sched"}`, string(rec.LRScheduler))
}

func TestBestTracksMetricMode(t *testing.T) {
	c := newTestCheckpointer(t, Config{Metric: "loss", Mode: model.MetricModeMin})

	checkpoint(t, c, 1, "first", model.Metrics{"loss": 0.8})
	checkpoint(t, c, 2, "better", model.Metrics{"loss": 0.3})
	checkpoint(t, c, 3, "worse", model.Metrics{"loss": 0.9})

	mdl := &state{}
	require.NoError(t, c.LoadBestModel(mdl))
	assert.Equal(t, "better", mdl.Value)
}

func TestBestDefaultsToLatest(t *testing.T) {
	c := newTestCheckpointer(t, Config{})
	checkpoint(t, c, 1, "old", nil)
	checkpoint(t, c, 2, "new", nil)

	mdl := &state{}
	require.NoError(t, c.LoadBestModel(mdl))
	assert.Equal(t, "new", mdl.Value)
}

func TestMissingTrackedMetricNeverBest(t *testing.T) {
	c := newTestCheckpointer(t, Config{Metric: "accuracy"})
	checkpoint(t, c, 1, "m1", model.Metrics{"loss": 0.5})

	mdl := &state{Value: "unchanged"}
	require.NoError(t, c.LoadBestModel(mdl))
	assert.Equal(t, "unchanged", mdl.Value)
}

func TestClearIntermediateKeepsBest(t *testing.T) {
	c := newTestCheckpointer(t, Config{
		Metric:            "accuracy",
		ClearIntermediate: true,
	})
	checkpoint(t, c, 1, "m1", model.Metrics{"accuracy": 0.5})
	checkpoint(t, c, 2, "m2", model.Metrics{"accuracy": 0.7})

	require.NoError(t, c.Clear())
	// Clear is idempotent.
	require.NoError(t, c.Clear())

	entries, err := os.ReadDir(c.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "best.json", entries[0].Name())

	mdl := &state{}
	require.NoError(t, c.LoadBestModel(mdl))
	assert.Equal(t, "m2", mdl.Value)
}

func TestClearAllRemovesRunDir(t *testing.T) {
	c := newTestCheckpointer(t, Config{ClearAll: true})
	checkpoint(t, c, 1, "m1", nil)

	require.NoError(t, c.Clear())
	_, err := os.Stat(c.Dir())
	require.True(t, os.IsNotExist(err))
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, check.Validate(Config{}.WithDefaults()))
	require.Error(t, check.Validate(Config{Freq: -1}))
	require.Error(t, check.Validate(Config{Freq: 1, Mode: "sideways"}))
}
