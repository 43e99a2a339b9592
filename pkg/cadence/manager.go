// Package cadence tracks training progress and decides when a training loop
// should evaluate, log, and checkpoint. The training loop calls Update once
// per completed batch and then asks TriggerEvaluation and, when that fires,
// TriggerCheckpointing.
package cadence

import (
	"math"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/cadenza-ai/cadenza/pkg/check"
	"github.com/cadenza-ai/cadenza/pkg/checkpointer"
	"github.com/cadenza-ai/cadenza/pkg/model"
	"github.com/cadenza-ai/cadenza/pkg/writer"
)

// Manager owns the progress counters of a single training run. It is not
// safe for concurrent use; the training loop is expected to drive it from
// one goroutine.
type Manager struct {
	conf             Config
	nBatchesPerEpoch float64
	runID            string

	// Counters come in (since-last-trigger, running-total) pairs. The unit
	// view is derived on demand from the configured counter unit, never
	// stored.
	sampleCount int
	sampleTotal int
	batchCount  int
	batchTotal  int
	epochCount  float64
	epochTotal  float64

	// triggerCount is the number of evaluation triggers since the last
	// checkpoint.
	triggerCount int

	writer writer.Writer
	ckpt   *checkpointer.Checkpointer
}

type options struct {
	batchCount int
	epochCount float64
	writer     writer.Writer
}

// Option customizes manager construction.
type Option func(*options)

// WithResumedBatches resumes the run with the given number of already
// completed batches.
func WithResumedBatches(batches int) Option {
	return func(o *options) { o.batchCount = batches }
}

// WithResumedEpochs resumes the run with the given number of already
// completed epochs.
func WithResumedEpochs(epochs float64) Option {
	return func(o *options) { o.epochCount = epochs }
}

// WithWriter overrides the configured writer backend with a caller-supplied
// one.
func WithWriter(w writer.Writer) Option {
	return func(o *options) { o.writer = w }
}

// New validates the config and builds a manager. nBatchesPerEpoch may be
// fractional when epoch boundaries do not align with batch boundaries.
func New(conf Config, nBatchesPerEpoch float64, opts ...Option) (*Manager, error) {
	conf = conf.WithDefaults()
	if err := check.Validate(conf); err != nil {
		return nil, err
	}
	if nBatchesPerEpoch <= 0 {
		return nil, errors.Errorf("n batches per epoch must be positive, got %v", nBatchesPerEpoch)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.batchCount < 0 || o.epochCount < 0 {
		return nil, errors.New("resumed counters must be nonnegative")
	}

	if conf.Verbose {
		log.Infof("evaluating every %v %s(s)", conf.EvaluationFreq, conf.CounterUnit)
	}

	m := &Manager{
		conf:             conf,
		nBatchesPerEpoch: nBatchesPerEpoch,
		runID:            uuid.New().String(),
		batchCount:       o.batchCount,
		batchTotal:       o.batchCount,
		epochCount:       o.epochCount,
		epochTotal:       o.epochCount,
	}
	m.rehydrate()

	if o.writer != nil {
		m.writer = o.writer
	} else {
		w, err := conf.Writer.Open(m.runID)
		if err != nil {
			return nil, err
		}
		m.writer = w
	}

	if conf.Checkpointing {
		ckpt, err := checkpointer.New(conf.Checkpointer, m.runID, conf.Verbose)
		if err != nil {
			closeErr := m.writer.Close()
			return nil, multierror.Append(err, closeErr).ErrorOrNil()
		}
		m.ckpt = ckpt
		if conf.Verbose {
			log.Infof("checkpointing every %v %s(s)",
				float64(m.ckpt.Freq())*conf.EvaluationFreq, conf.CounterUnit)
		}
	} else if conf.Verbose {
		log.Infof("no checkpointing")
	}

	return m, nil
}

// rehydrate normalizes resumed counters into progress since the most recent
// would-have-been trigger boundary. Batch and epoch counters are normalized
// independently because they are expressed in different native units.
func (m *Manager) rehydrate() {
	if m.batchCount != 0 {
		switch m.conf.CounterUnit {
		case model.Batches:
			m.batchCount = int(floorMod(float64(m.batchCount), m.conf.EvaluationFreq))
		case model.Epochs:
			m.batchCount = int(floorMod(float64(m.batchCount),
				m.conf.EvaluationFreq*m.nBatchesPerEpoch))
		}
	}
	if m.epochCount != 0 {
		switch m.conf.CounterUnit {
		case model.Epochs:
			m.epochCount = floorMod(m.epochCount, m.conf.EvaluationFreq)
		case model.Batches:
			m.epochCount = floorMod(m.epochCount, m.conf.EvaluationFreq/m.nBatchesPerEpoch)
		}
	}
}

// floorMod reduces x into [0, y). For the nonnegative inputs used here it
// matches the repeated-subtraction loop it replaces.
func floorMod(x, y float64) float64 {
	r := math.Mod(x, y)
	if r < 0 {
		r += y
	}
	return r
}

// RunID identifies this run; log and checkpoint directories are named by it.
func (m *Manager) RunID() string {
	return m.runID
}

// Update advances the counters by one completed batch of the given size.
func (m *Manager) Update(batchSize int) {
	m.sampleCount += batchSize
	m.sampleTotal += batchSize

	m.batchCount++
	m.batchTotal++

	// Epoch progress is fractional between batch boundaries.
	m.epochCount = float64(m.batchCount) / m.nBatchesPerEpoch
	m.epochTotal = float64(m.batchTotal) / m.nBatchesPerEpoch
}

// unitCount is the since-last-trigger progress in the configured unit.
func (m *Manager) unitCount() float64 {
	switch m.conf.CounterUnit {
	case model.Samples:
		return float64(m.sampleCount)
	case model.Batches:
		return float64(m.batchCount)
	default:
		return m.epochCount
	}
}

// UnitTotal is the running total progress in the configured unit. It stamps
// checkpoints and log steps.
func (m *Manager) UnitTotal() float64 {
	switch m.conf.CounterUnit {
	case model.Samples:
		return float64(m.sampleTotal)
	case model.Batches:
		return float64(m.batchTotal)
	default:
		return m.epochTotal
	}
}

// SampleTotal is the number of samples seen over the whole run.
func (m *Manager) SampleTotal() int { return m.sampleTotal }

// BatchTotal is the number of batches seen over the whole run.
func (m *Manager) BatchTotal() int { return m.batchTotal }

// EpochTotal is the fractional number of epochs seen over the whole run.
func (m *Manager) EpochTotal() float64 { return m.epochTotal }

// SampleCount is the number of samples since the last evaluation trigger.
func (m *Manager) SampleCount() int { return m.sampleCount }

// BatchCount is the number of batches since the last evaluation trigger.
func (m *Manager) BatchCount() int { return m.batchCount }

// EpochCount is the fractional number of epochs since the last evaluation
// trigger.
func (m *Manager) EpochCount() float64 { return m.epochCount }

// TriggerEvaluation reports whether enough progress has accumulated to run
// an evaluation. On true it resets the since-last counters, so the decision
// and the reset are never separated.
func (m *Manager) TriggerEvaluation() bool {
	satisfied := m.unitCount() >= m.conf.EvaluationFreq
	if satisfied {
		m.triggerCount++
		m.reset()
	}
	return satisfied
}

func (m *Manager) reset() {
	m.sampleCount = 0
	m.batchCount = 0
	m.epochCount = 0
}

// TriggerCheckpointing reports whether enough evaluations have fired to
// checkpoint. Always false when checkpointing is disabled. On true it resets
// the evaluation trigger count; the progress counters are untouched.
func (m *Manager) TriggerCheckpointing() bool {
	if m.ckpt == nil {
		return false
	}
	satisfied := m.triggerCount >= m.ckpt.Freq()
	if satisfied {
		m.triggerCount = 0
	}
	return satisfied
}

// WriteLog emits each metric to the configured writer, stamped with the
// total progress in the configured unit. Epoch progress is rescaled to
// batch-equivalent steps since downstream writers need integer-like
// monotonic step indices.
func (m *Manager) WriteLog(metrics model.Metrics) error {
	step := m.UnitTotal()
	if m.conf.CounterUnit == model.Epochs {
		step *= m.nBatchesPerEpoch
	}
	for name, value := range metrics {
		if err := m.writer.AddScalar(name, value, step); err != nil {
			return err
		}
	}
	return nil
}

// CheckpointModel persists the current training state, stamped with the
// total progress in the configured unit.
func (m *Manager) CheckpointModel(
	mdl, optimizer, lrScheduler model.Snapshotter, metrics model.Metrics,
) error {
	if m.ckpt == nil {
		return errors.New("checkpointing is not enabled")
	}
	return m.ckpt.Checkpoint(m.UnitTotal(), mdl, optimizer, lrScheduler, metrics)
}

// Close flushes the writer and, when checkpointing, reloads the best model
// into mdl and releases the checkpointer's resources. The checkpointer is
// released even if the reload fails; errors are aggregated.
func (m *Manager) Close(mdl model.Snapshotter) (model.Snapshotter, error) {
	var merr *multierror.Error
	merr = multierror.Append(merr, m.writer.Close())
	if m.ckpt != nil {
		merr = multierror.Append(merr, m.ckpt.LoadBestModel(mdl))
		merr = multierror.Append(merr, m.ckpt.Clear())
	}
	return mdl, merr.ErrorOrNil()
}
