package main

import (
	"encoding/json"

	log "github.com/sirupsen/logrus"

	"github.com/cadenza-ai/cadenza/internal/config"
	"github.com/cadenza-ai/cadenza/pkg/cadence"
	"github.com/cadenza-ai/cadenza/pkg/model"
)

// staticState stands in for the model/optimizer/scheduler states of a real
// training loop so the dry run exercises the full checkpoint path.
type staticState struct {
	Name string `json:"name"`
}

func (s *staticState) Snapshot() (json.RawMessage, error) {
	return json.Marshal(s)
}

func (s *staticState) Restore(data json.RawMessage) error {
	return json.Unmarshal(data, s)
}

// runDry walks the configured batch schedule through a real cadence manager
// and logs every evaluation and checkpoint firing.
func runDry(conf *config.Config) error {
	var opts []cadence.Option
	if conf.Schedule.ResumedBatches > 0 {
		opts = append(opts, cadence.WithResumedBatches(conf.Schedule.ResumedBatches))
	}
	if conf.Schedule.ResumedEpochs > 0 {
		opts = append(opts, cadence.WithResumedEpochs(conf.Schedule.ResumedEpochs))
	}

	mgr, err := cadence.New(conf.Cadence, conf.Schedule.BatchesPerEpoch, opts...)
	if err != nil {
		return err
	}
	log.Infof("starting dry run %s", mgr.RunID())

	mdl := &staticState{Name: "model"}
	optimizer := &staticState{Name: "optimizer"}
	lrScheduler := &staticState{Name: "lr_scheduler"}

	evaluations, checkpoints := 0, 0
	for batch := 1; batch <= conf.Schedule.TotalBatches; batch++ {
		mgr.Update(conf.Schedule.BatchSize)
		if !mgr.TriggerEvaluation() {
			continue
		}
		evaluations++
		log.Infof("evaluation %d fires after batch %d (total progress %v)",
			evaluations, mgr.BatchTotal(), mgr.UnitTotal())

		metrics := model.Metrics{"progress": mgr.UnitTotal()}
		if err := mgr.WriteLog(metrics); err != nil {
			return err
		}

		if mgr.TriggerCheckpointing() {
			checkpoints++
			log.Infof("checkpoint %d fires after batch %d", checkpoints, mgr.BatchTotal())
			if err := mgr.CheckpointModel(mdl, optimizer, lrScheduler, metrics); err != nil {
				return err
			}
		}
	}

	if _, err := mgr.Close(mdl); err != nil {
		return err
	}
	log.Infof("dry run complete: %d batches, %d evaluations, %d checkpoints",
		conf.Schedule.TotalBatches, evaluations, checkpoints)
	return nil
}
