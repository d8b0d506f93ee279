// SPDX-License-Identifier: CC-BY-NC-SA-4.0
// Copyright (c) 2025-2026 fumi-engineer

// Package train drives the training loop: random-power batch corruption,
// AdamW updates with cosine learning-rate decay, per-power validation, and
// early stopping on the critical (lowest) validation power.
package train

import (
	"fmt"

	"github.com/fumi-engineer/cfarnet/nn"
	"github.com/fumi-engineer/cfarnet/signal"
)

// Options holds optimizer and training-loop hyperparameters.
type Options struct {
	Epochs      int     // training epochs
	BatchSize   int     // samples per batch
	LR          float64 // initial learning rate
	Beta1       float64 // AdamW first moment decay
	Beta2       float64 // AdamW second moment decay
	Eps         float64 // AdamW epsilon
	WeightDecay float64 // AdamW decoupled weight decay
	GradClip    float64 // max global gradient L2 norm, 0 disables
	Patience    int     // epochs without improvement before stopping

	LossMode  nn.LossMode // training objective
	Sigma     float64     // target Gaussian width in bins
	TopK      int         // recall cutoff
	Tolerance int         // recall hit tolerance in bins

	TrainPowerLo float64            // training power range low, dBm
	TrainPowerHi float64            // training power range high, dBm
	PowerPolicy  signal.PowerPolicy // how powers are drawn from the range
	ValPowers    []float64          // fixed validation power levels, dBm

	Seed int64 // shuffle and dropout seed
}

// DefaultOptions returns the hyperparameters of the reference experiments.
func DefaultOptions() Options {
	return Options{
		Epochs:      60,
		BatchSize:   100,
		LR:          1e-4,
		Beta1:       0.9,
		Beta2:       0.999,
		Eps:         1e-8,
		WeightDecay: 1e-5,
		GradClip:    5.0,
		Patience:    7,

		LossMode:  nn.LossBCE,
		Sigma:     1.0,
		TopK:      4,
		Tolerance: 3,

		TrainPowerLo: -10,
		TrainPowerHi: 30,
		PowerPolicy:  signal.PowerLinear,
		ValPowers:    []float64{-10, 0, 10},

		Seed: 42,
	}
}

// Validate reports the first invalid field.
func (o Options) Validate() error {
	if o.Epochs <= 0 {
		return fmt.Errorf("epochs must be positive, got %d", o.Epochs)
	}
	if o.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", o.BatchSize)
	}
	if o.LR <= 0 {
		return fmt.Errorf("learning rate must be positive, got %g", o.LR)
	}
	if o.Patience <= 0 {
		return fmt.Errorf("patience must be positive, got %d", o.Patience)
	}
	if o.Sigma <= 0 {
		return fmt.Errorf("sigma must be positive, got %g", o.Sigma)
	}
	if o.TopK <= 0 {
		return fmt.Errorf("top-k must be positive, got %d", o.TopK)
	}
	if o.Tolerance < 0 {
		return fmt.Errorf("tolerance must be non-negative, got %d", o.Tolerance)
	}
	if o.TrainPowerHi < o.TrainPowerLo {
		return fmt.Errorf("training power range [%g, %g] dBm is inverted", o.TrainPowerLo, o.TrainPowerHi)
	}
	if len(o.ValPowers) == 0 {
		return fmt.Errorf("at least one validation power level is required")
	}
	return nil
}

// CriticalPower returns the lowest validation power level, the one early
// stopping and checkpoint selection key off. Low power is the hard regime;
// a model picked there holds up at the easier levels too.
func (o Options) CriticalPower() float64 {
	min := o.ValPowers[0]
	for _, p := range o.ValPowers[1:] {
		if p < min {
			min = p
		}
	}
	return min
}
