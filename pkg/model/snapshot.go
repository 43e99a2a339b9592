package model

import "encoding/json"

// Snapshotter is any object that implements how to save and restore its state.
// The trained model, the optimizer, and the learning-rate scheduler all enter
// the checkpointing path through this interface.
type Snapshotter interface {
	Snapshot() (json.RawMessage, error)
	Restore(json.RawMessage) error
}
