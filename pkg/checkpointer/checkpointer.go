// Package checkpointer persists training state to the local filesystem and
// tracks the best checkpoint of a run by a configured metric.
package checkpointer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/cadenza-ai/cadenza/pkg/model"
)

const bestCheckpointName = "best.json"

// record is the on-disk form of a single checkpoint.
type record struct {
	Step        float64         `json:"step"`
	SavedAt     time.Time       `json:"saved_at"`
	Metrics     model.Metrics   `json:"metrics"`
	Model       json.RawMessage `json:"model"`
	Optimizer   json.RawMessage `json:"optimizer"`
	LRScheduler json.RawMessage `json:"lr_scheduler"`
}

// Checkpointer writes checkpoints for one training run under a uuid-stamped
// directory and remembers the best one seen so far.
type Checkpointer struct {
	conf    Config
	runDir  string
	verbose bool

	intermediate []string
	bestStep     float64
	bestValue    float64
	hasBest      bool
}

// New creates the run directory and returns a ready checkpointer. An empty
// runID gets a fresh uuid.
func New(conf Config, runID string, verbose bool) (*Checkpointer, error) {
	conf = conf.WithDefaults()
	if runID == "" {
		runID = uuid.New().String()
	}
	runDir := filepath.Join(conf.Path, runID)
	if err := os.MkdirAll(runDir, 0o700); err != nil {
		return nil, errors.Wrap(err, "error creating checkpoint directory")
	}
	if verbose {
		log.Infof("saving checkpoints to %s", runDir)
	}
	return &Checkpointer{conf: conf, runDir: runDir, verbose: verbose}, nil
}

// Dir returns the directory this run's checkpoints are written to.
func (c *Checkpointer) Dir() string {
	return c.runDir
}

// Freq is the number of evaluation triggers between checkpoints.
func (c *Checkpointer) Freq() int {
	return c.conf.Freq
}

// Checkpoint persists the snapshots of the model, optimizer and lr scheduler
// together with the metrics at the given progress stamp.
func (c *Checkpointer) Checkpoint(
	step float64,
	mdl, optimizer, lrScheduler model.Snapshotter,
	metrics model.Metrics,
) error {
	rec := record{Step: step, SavedAt: time.Now().UTC(), Metrics: metrics}
	var err error
	if rec.Model, err = mdl.Snapshot(); err != nil {
		return errors.Wrap(err, "error snapshotting model")
	}
	if rec.Optimizer, err = optimizer.Snapshot(); err != nil {
		return errors.Wrap(err, "error snapshotting optimizer")
	}
	if rec.LRScheduler, err = lrScheduler.Snapshot(); err != nil {
		return errors.Wrap(err, "error snapshotting lr scheduler")
	}

	bs, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "error encoding checkpoint")
	}
	name := "checkpoint." + strconv.FormatFloat(step, 'g', -1, 64) + ".json"
	path := filepath.Join(c.runDir, name)
	if err := os.WriteFile(path, bs, 0o600); err != nil {
		return errors.Wrap(err, "error writing checkpoint")
	}
	c.intermediate = append(c.intermediate, path)
	if c.verbose {
		log.Infof("wrote checkpoint at step %v to %s", step, path)
	}

	if c.isImprovement(metrics) {
		if err := os.WriteFile(filepath.Join(c.runDir, bestCheckpointName), bs, 0o600); err != nil {
			return errors.Wrap(err, "error writing best checkpoint")
		}
		c.bestStep = step
		if c.conf.Metric != "" {
			c.bestValue = metrics[c.conf.Metric]
		}
		c.hasBest = true
		if c.verbose && c.conf.Metric != "" {
			log.Infof("best %s so far: %v at step %v", c.conf.Metric, c.bestValue, step)
		}
	}
	return nil
}

func (c *Checkpointer) isImprovement(metrics model.Metrics) bool {
	if c.conf.Metric == "" {
		// Without a tracked metric the latest checkpoint is the best.
		return true
	}
	value, ok := metrics[c.conf.Metric]
	if !ok {
		log.Warnf("tracked metric %s missing from checkpoint metrics", c.conf.Metric)
		return false
	}
	return !c.hasBest || c.conf.Mode.Improves(value, c.bestValue)
}

// LoadBestModel restores the model snapshot of the best checkpoint into mdl.
// It is a no-op when no checkpoint qualified as best.
func (c *Checkpointer) LoadBestModel(mdl model.Snapshotter) error {
	if !c.hasBest {
		log.Warnf("no best checkpoint recorded, keeping current model")
		return nil
	}
	bs, err := os.ReadFile(filepath.Join(c.runDir, bestCheckpointName))
	if err != nil {
		return errors.Wrap(err, "error reading best checkpoint")
	}
	var rec record
	if err := json.Unmarshal(bs, &rec); err != nil {
		return errors.Wrap(err, "error decoding best checkpoint")
	}
	if c.verbose {
		log.Infof("reloading best model from step %v", rec.Step)
	}
	return errors.Wrap(mdl.Restore(rec.Model), "error restoring model")
}

// Clear releases the checkpointer's on-disk resources according to the
// configured retention flags. It is safe to call more than once.
func (c *Checkpointer) Clear() error {
	if c.conf.ClearAll {
		return errors.Wrap(os.RemoveAll(c.runDir), "error clearing checkpoints")
	}
	if !c.conf.ClearIntermediate {
		return nil
	}
	var merr *multierror.Error
	for _, path := range c.intermediate {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			merr = multierror.Append(merr, errors.Wrapf(err, "error removing %s", path))
		}
	}
	c.intermediate = nil
	return merr.ErrorOrNil()
}
