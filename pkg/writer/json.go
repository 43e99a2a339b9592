package writer

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// JSONConfig configures the JSON-lines log writer.
type JSONConfig struct {
	LogDir string `json:"log_dir"`
}

// Validate implements the check.Validatable interface.
func (c JSONConfig) Validate() []error {
	return nil
}

type jsonWriter struct {
	f   *os.File
	buf *bufio.Writer
	enc *json.Encoder
}

type scalarRecord struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Step  float64 `json:"step"`
	Time  int64   `json:"time"`
}

func openJSONWriter(cfg JSONConfig, runID string) (Writer, error) {
	dir := cfg.LogDir
	if dir == "" {
		dir = "logs"
	}
	dir = filepath.Join(dir, runID)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrap(err, "error creating log directory")
	}
	f, err := os.Create(filepath.Join(dir, "metrics.jsonl"))
	if err != nil {
		return nil, errors.Wrap(err, "error creating metrics log")
	}
	buf := bufio.NewWriter(f)
	return &jsonWriter{f: f, buf: buf, enc: json.NewEncoder(buf)}, nil
}

// AddScalar implements the Writer interface.
func (w *jsonWriter) AddScalar(name string, value float64, step float64) error {
	rec := scalarRecord{Name: name, Value: value, Step: step, Time: time.Now().Unix()}
	return errors.Wrap(w.enc.Encode(rec), "error writing metrics log")
}

// Close implements the Writer interface.
func (w *jsonWriter) Close() error {
	if err := w.buf.Flush(); err != nil {
		_ = w.f.Close()
		return errors.Wrap(err, "error flushing metrics log")
	}
	return errors.Wrap(w.f.Close(), "error closing metrics log")
}
