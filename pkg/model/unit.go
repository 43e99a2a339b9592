package model

import (
	"github.com/pkg/errors"
)

// Unit is the unit of training progress used to decide when to evaluate.
type Unit string

// All the units available for counting progress.
const (
	Samples Unit = "sample"
	Batches Unit = "batch"
	Epochs  Unit = "epoch"
)

// ParseUnit converts a raw configuration value into a Unit.
func ParseUnit(s string) (Unit, error) {
	switch Unit(s) {
	case Samples, Batches, Epochs:
		return Unit(s), nil
	default:
		return "", errors.Errorf("unrecognized unit: %s", s)
	}
}

func (u Unit) String() string {
	return string(u)
}
