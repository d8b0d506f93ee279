// SPDX-License-Identifier: CC-BY-NC-4.0
// Copyright (c) 2025-2026 fumi-engineer

package nn

import "fmt"

// Config holds the architecture hyperparameters of the peak estimator.
type Config struct {
	// NumSubcarriers is M; the network scores M+1 subcarrier positions.
	NumSubcarriers int
	// DopplerBins is Ns, the height of the Doppler-spectrum input.
	DopplerBins int
	// HiddenDim is the channel width of the first prediction-head layer;
	// the second runs at HiddenDim/2.
	HiddenDim int
	// DropoutRate is the channel dropout probability in the feature
	// blocks and the element dropout probability in the head.
	DropoutRate float32
}

// DefaultConfig returns the architecture used in the reference experiments.
func DefaultConfig(numSubcarriers, dopplerBins int) Config {
	return Config{
		NumSubcarriers: numSubcarriers,
		DopplerBins:    dopplerBins,
		HiddenDim:      512,
		DropoutRate:    0.1,
	}
}

// TinyConfig returns a reduced architecture for tests and smoke runs.
func TinyConfig(numSubcarriers, dopplerBins int) Config {
	return Config{
		NumSubcarriers: numSubcarriers,
		DopplerBins:    dopplerBins,
		HiddenDim:      16,
		DropoutRate:    0.1,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.NumSubcarriers <= 0 {
		return fmt.Errorf("num subcarriers must be positive, got %d", c.NumSubcarriers)
	}
	if c.DopplerBins <= 0 {
		return fmt.Errorf("doppler bins must be positive, got %d", c.DopplerBins)
	}
	if c.HiddenDim < 2 {
		return fmt.Errorf("hidden dim must be at least 2, got %d", c.HiddenDim)
	}
	if c.HiddenDim%2 != 0 {
		return fmt.Errorf("hidden dim must be even, got %d", c.HiddenDim)
	}
	if c.DropoutRate < 0 || c.DropoutRate >= 1 {
		return fmt.Errorf("dropout rate must be in [0, 1), got %g", c.DropoutRate)
	}
	return nil
}
