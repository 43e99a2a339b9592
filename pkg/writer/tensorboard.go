package writer

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// TensorboardConfig configures the tfevents log writer.
type TensorboardConfig struct {
	LogDir string `json:"log_dir"`
}

// Validate implements the check.Validatable interface.
func (c TensorboardConfig) Validate() []error {
	return nil
}

type tensorboardWriter struct {
	f   *os.File
	buf *bufio.Writer
}

func openTensorboardWriter(cfg TensorboardConfig, runID string) (Writer, error) {
	dir := cfg.LogDir
	if dir == "" {
		dir = "logs"
	}
	dir = filepath.Join(dir, runID)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrap(err, "error creating log directory")
	}

	now := time.Now()
	name := fmt.Sprintf("events.out.tfevents.%d.%s", now.Unix(), runID)
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, errors.Wrap(err, "error creating event file")
	}

	w := &tensorboardWriter{f: f, buf: bufio.NewWriter(f)}
	// Tensorboard expects the file to open with a version event.
	ev := encodeFileVersionEvent(float64(now.UnixNano()) / 1e9)
	if _, err := w.buf.Write(frameRecord(ev)); err != nil {
		_ = f.Close()
		return nil, errors.Wrap(err, "error writing event file header")
	}
	return w, nil
}

// AddScalar implements the Writer interface. Steps are floored to integers
// since the event format only carries integral step indices.
func (w *tensorboardWriter) AddScalar(name string, value float64, step float64) error {
	wallTime := float64(time.Now().UnixNano()) / 1e9
	ev := encodeScalarEvent(wallTime, int64(math.Floor(step)), name, float32(value))
	_, err := w.buf.Write(frameRecord(ev))
	return errors.Wrap(err, "error writing scalar event")
}

// Close implements the Writer interface.
func (w *tensorboardWriter) Close() error {
	if err := w.buf.Flush(); err != nil {
		_ = w.f.Close()
		return errors.Wrap(err, "error flushing event file")
	}
	return errors.Wrap(w.f.Close(), "error closing event file")
}
