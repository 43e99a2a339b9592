package writer

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		verify  func(t *testing.T, c Config)
	}{
		{
			name: "none",
			raw:  `{"writer":"none"}`,
			verify: func(t *testing.T, c Config) {
				require.NotNil(t, c.NoneConfig)
			},
		},
		{
			name: "json with log dir",
			raw:  `{"writer":"json","log_dir":"/tmp/logs"}`,
			verify: func(t *testing.T, c Config) {
				require.NotNil(t, c.JSONConfig)
				require.Equal(t, "/tmp/logs", c.JSONConfig.LogDir)
			},
		},
		{
			name: "tensorboard",
			raw:  `{"writer":"tensorboard"}`,
			verify: func(t *testing.T, c Config) {
				require.NotNil(t, c.TensorboardConfig)
			},
		},
		{
			name:    "unrecognized writer",
			raw:     `{"writer":"csv"}`,
			wantErr: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var c Config
			err := json.Unmarshal([]byte(tc.raw), &c)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			tc.verify(t, c)
		})
	}
}

func TestConfigDefaultsToNone(t *testing.T) {
	w, err := Config{}.Open("run")
	require.NoError(t, err)
	require.IsType(t, NoneWriter{}, w)
	require.NoError(t, w.AddScalar("loss", 1, 1))
	require.NoError(t, w.Close())
}

func TestJSONWriter(t *testing.T) {
	dir := t.TempDir()
	w, err := Config{JSONConfig: &JSONConfig{LogDir: dir}}.Open("run-1")
	require.NoError(t, err)

	require.NoError(t, w.AddScalar("loss", 0.5, 10))
	require.NoError(t, w.AddScalar("accuracy", 0.9, 10))
	require.NoError(t, w.Close())

	bs, err := os.ReadFile(filepath.Join(dir, "run-1", "metrics.jsonl"))
	require.NoError(t, err)

	var records []scalarRecord
	scanner := bufio.NewScanner(bytes.NewReader(bs))
	for scanner.Scan() {
		var rec scalarRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}
	require.Len(t, records, 2)
	assert.Equal(t, "loss", records[0].Name)
	assert.InDelta(t, 0.5, records[0].Value, 1e-9)
	assert.InDelta(t, 10, records[0].Step, 1e-9)
	assert.Equal(t, "accuracy", records[1].Name)
}

// readEventRecords parses the tfevents framing, checking both CRCs of every
// record.
func readEventRecords(t *testing.T, path string) [][]byte {
	bs, err := os.ReadFile(path)
	require.NoError(t, err)

	var records [][]byte
	for len(bs) > 0 {
		require.GreaterOrEqual(t, len(bs), 12)
		length := binary.LittleEndian.Uint64(bs[:8])
		require.Equal(t, maskedCRC(bs[:8]), binary.LittleEndian.Uint32(bs[8:12]))
		payload := bs[12 : 12+length]
		require.Equal(t, maskedCRC(payload),
			binary.LittleEndian.Uint32(bs[12+length:16+length]))
		records = append(records, payload)
		bs = bs[16+length:]
	}
	return records
}

func TestTensorboardWriter(t *testing.T) {
	dir := t.TempDir()
	w, err := Config{TensorboardConfig: &TensorboardConfig{LogDir: dir}}.Open("run-2")
	require.NoError(t, err)

	require.NoError(t, w.AddScalar("train/loss", 0.25, 2.5))
	require.NoError(t, w.Close())

	matches, err := filepath.Glob(filepath.Join(dir, "run-2", "events.out.tfevents.*"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	records := readEventRecords(t, matches[0])
	require.Len(t, records, 2)
	assert.Contains(t, string(records[0]), "brain.Event:2")
	assert.Contains(t, string(records[1]), "train/loss")
	// Step 2.5 floors to varint-encoded 2 in field 2.
	assert.Contains(t, string(records[1]), string([]byte{0x10, 0x02}))
}

func TestAtMostOneBackend(t *testing.T) {
	c := Config{NoneConfig: &NoneConfig{}, JSONConfig: &JSONConfig{}}
	require.NotEmpty(t, c.Validate())
	require.Empty(t, Config{JSONConfig: &JSONConfig{}}.Validate())
}
