// SPDX-License-Identifier: CC-BY-NC-SA-4.0
// Copyright (c) 2025-2026 fumi-engineer

package train

import "github.com/fumi-engineer/cfarnet/eval"

// Plotter receives visualization hooks from the training loop. The loop
// never fails on a plotting error; implementations log and move on.
type Plotter interface {
	// Curves renders the loss, recall, and learning-rate curves for the run.
	Curves(h *History)
	// Predictions renders predicted probability rows against their smoothed
	// targets for one epoch at one power level.
	Predictions(epoch int, powerDBm float64, pairs []eval.PredTarget)
	// Heatmap renders one input spectrum image with its true peak positions.
	Heatmap(name string, img [][]float64, peaks []int)
}
