// SPDX-License-Identifier: CC-BY-NC-SA-4.0
// Copyright (c) 2025-2026 fumi-engineer

package train

import "math"

// CosineSchedule anneals the learning rate per epoch from the initial value
// down to a floor:
//
//	lr(t) = eta_min + 0.5*(lr0 - eta_min)*(1 + cos(pi * t / t_max))
//	eta_min = max(1e-8, lr0 * 1e-3)
type CosineSchedule struct {
	lr0    float64
	etaMin float64
	tMax   int
}

// NewCosineSchedule creates a schedule over tMax epochs.
func NewCosineSchedule(lr0 float64, tMax int) *CosineSchedule {
	return &CosineSchedule{
		lr0:    lr0,
		etaMin: math.Max(1e-8, lr0*1e-3),
		tMax:   tMax,
	}
}

// At returns the learning rate for epoch t (0-based). Epochs beyond tMax
// stay at the floor.
func (s *CosineSchedule) At(t int) float64 {
	if t >= s.tMax {
		return s.etaMin
	}
	progress := float64(t) / float64(s.tMax)
	return s.etaMin + 0.5*(s.lr0-s.etaMin)*(1+math.Cos(math.Pi*progress))
}
