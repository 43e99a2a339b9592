// Package scorer implements the metric scorers used to evaluate predictions.
// Every scorer shares one signature: ground-truth labels, predicted
// probabilities, and predicted labels in, a metric map out. Scorers that do
// not need the probabilities still accept them so they stay interchangeable.
package scorer

import (
	"github.com/pkg/errors"

	"github.com/cadenza-ai/cadenza/pkg/model"
)

// Func is the common scorer signature.
type Func func(golds []int, probs [][]float64, preds []int) (model.Metrics, error)

// Accuracy scores the fraction of predictions matching the gold labels.
func Accuracy(golds []int, probs [][]float64, preds []int) (model.Metrics, error) {
	if err := checkShapes(golds, preds); err != nil {
		return nil, err
	}
	correct := 0
	for i, gold := range golds {
		if preds[i] == gold {
			correct++
		}
	}
	return model.Metrics{"accuracy": float64(correct) / float64(len(golds))}, nil
}

// F1 scores the binary F1 with positive label 1.
func F1(golds []int, probs [][]float64, preds []int) (model.Metrics, error) {
	if err := checkShapes(golds, preds); err != nil {
		return nil, err
	}
	var tp, fp, fn int
	for i, gold := range golds {
		switch {
		case preds[i] == 1 && gold == 1:
			tp++
		case preds[i] == 1 && gold != 1:
			fp++
		case preds[i] != 1 && gold == 1:
			fn++
		}
	}
	f1 := 0.0
	if 2*tp+fp+fn > 0 {
		f1 = 2 * float64(tp) / float64(2*tp+fp+fn)
	}
	return model.Metrics{"f1": f1}, nil
}

// AccuracyF1 merges the accuracy and F1 metrics and adds their arithmetic
// mean as "accuracy_f1".
func AccuracyF1(golds []int, probs [][]float64, preds []int) (model.Metrics, error) {
	metrics := model.Metrics{}

	acc, err := Accuracy(golds, probs, preds)
	if err != nil {
		return nil, err
	}
	metrics.Merge(acc)

	f1, err := F1(golds, probs, preds)
	if err != nil {
		return nil, err
	}
	metrics.Merge(f1)

	metrics["accuracy_f1"] = (metrics["accuracy"] + metrics["f1"]) / 2
	return metrics, nil
}

func checkShapes(golds, preds []int) error {
	if len(golds) == 0 {
		return errors.New("golds must be non-empty")
	}
	if len(golds) != len(preds) {
		return errors.Errorf("golds and preds must have the same length: %d != %d",
			len(golds), len(preds))
	}
	return nil
}
