// SPDX-License-Identifier: CC-BY-NC-SA-4.0
// Copyright (c) 2025-2026 fumi-engineer

package train

import "github.com/fumi-engineer/cfarnet/eval"

// EpochRecord captures one epoch's training and validation metrics.
type EpochRecord struct {
	Epoch          int
	LR             float64
	TrainLoss      float64
	TrainRecall    float64
	SkippedBatches int
	Val            []eval.Result
}

// ValAt returns the validation result for a power level, if present.
func (r EpochRecord) ValAt(powerDBm float64) (eval.Result, bool) {
	for _, v := range r.Val {
		if v.PowerDBm == powerDBm {
			return v, true
		}
	}
	return eval.Result{}, false
}

// History is the full training run record.
type History struct {
	Epochs    []EpochRecord
	BestEpoch int
	BestLoss  float64
	Stopped   bool // true when early stopping ended the run
}

// PowerLevels returns the validation power levels seen in the run, in the
// order they were evaluated.
func (h *History) PowerLevels() []float64 {
	if len(h.Epochs) == 0 {
		return nil
	}
	levels := make([]float64, len(h.Epochs[0].Val))
	for i, v := range h.Epochs[0].Val {
		levels[i] = v.PowerDBm
	}
	return levels
}
