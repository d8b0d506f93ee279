// SPDX-License-Identifier: CC-BY-NC-4.0
// Copyright (c) 2025-2026 fumi-engineer

// Package signal turns raw complex echoes into network input: transmit-power
// scaling, thermal noise injection, and the Doppler-spectrum feature
// frontend.
package signal

import (
	"fmt"
	"math"

	"github.com/mdobak/go-xerrors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/fumi-engineer/cfarnet/tensor"
)

// Thermal noise constants: Boltzmann's constant and the reference noise
// temperature.
const (
	kBoltzmann  = 1.38e-23
	noiseKelvin = 290.0
)

// NoiseStdDev returns the per-component (real or imaginary) standard
// deviation of thermal noise at the given bandwidth in Hz:
//
//	sigma = sqrt(k * T * BW / 2)
func NoiseStdDev(bandwidthHz float64) float64 {
	return math.Sqrt(kBoltzmann * noiseKelvin * bandwidthHz / 2)
}

// ScaleFactor converts a transmit power in dBm to the amplitude factor
// applied to a unit-power echo: sqrt(10^(dBm/10)).
func ScaleFactor(powerDBm float64) float64 {
	return math.Sqrt(math.Pow(10, powerDBm/10))
}

// NoiseModel scales echoes to a transmit power and adds circular complex
// Gaussian thermal noise for the configured bandwidth.
type NoiseModel struct {
	stdDev float64
	normal distuv.Normal
}

// NewNoiseModel creates a noise model for the given bandwidth.
func NewNoiseModel(bandwidthHz float64, seed uint64) *NoiseModel {
	std := NoiseStdDev(bandwidthHz)
	return &NoiseModel{
		stdDev: std,
		normal: distuv.Normal{Mu: 0, Sigma: std, Src: rand.NewSource(seed)},
	}
}

// StdDev returns the per-component noise standard deviation.
func (m *NoiseModel) StdDev() float64 { return m.stdDev }

// Corrupt returns a copy of echo scaled to powerDBm with fresh noise added
// to every element. The input is not modified.
func (m *NoiseModel) Corrupt(echo *tensor.CMatrix, powerDBm float64) *tensor.CMatrix {
	out := echo.Scale(ScaleFactor(powerDBm))
	for i := range out.Data {
		out.Data[i] += complex(m.normal.Rand(), m.normal.Rand())
	}
	return out
}

// ReferenceSNR reports the mean SNR in dB a clean echo would have after
// scaling to powerDBm, against the model's noise floor. Noise power per
// complex sample is 2*sigma^2.
func (m *NoiseModel) ReferenceSNR(echo *tensor.CMatrix, powerDBm float64) float64 {
	scale := ScaleFactor(powerDBm)
	sig := scale * scale * echo.PowerMean()
	noise := 2 * m.stdDev * m.stdDev
	return 10 * math.Log10(sig/noise)
}

// PowerPolicy selects how training transmit powers are drawn from a range.
type PowerPolicy string

const (
	// PowerLinear draws uniformly in linear milliwatts between the dBm
	// bounds, weighting the draw toward the top of the range in dB terms.
	PowerLinear PowerPolicy = "linear"
	// PowerDBm draws uniformly in dBm.
	PowerDBm PowerPolicy = "dbm"
)

// PowerSampler draws transmit powers (in dBm) from a configured range.
type PowerSampler struct {
	policy PowerPolicy
	lo, hi float64
	uni    distuv.Uniform
}

// NewPowerSampler creates a sampler over [loDBm, hiDBm].
func NewPowerSampler(policy PowerPolicy, loDBm, hiDBm float64, seed uint64) (*PowerSampler, error) {
	if hiDBm < loDBm {
		return nil, xerrors.New(fmt.Sprintf("power range [%g, %g] dBm is inverted", loDBm, hiDBm))
	}
	var min, max float64
	switch policy {
	case PowerLinear:
		min, max = math.Pow(10, loDBm/10), math.Pow(10, hiDBm/10)
	case PowerDBm:
		min, max = loDBm, hiDBm
	default:
		return nil, xerrors.New(fmt.Sprintf("unknown power policy %q (want %q or %q)", policy, PowerLinear, PowerDBm))
	}
	return &PowerSampler{
		policy: policy,
		lo:     loDBm,
		hi:     hiDBm,
		uni:    distuv.Uniform{Min: min, Max: max, Src: rand.NewSource(seed)},
	}, nil
}

// Sample draws one transmit power in dBm.
func (s *PowerSampler) Sample() float64 {
	if s.hi == s.lo {
		return s.lo
	}
	v := s.uni.Rand()
	if s.policy == PowerLinear {
		return 10 * math.Log10(v)
	}
	return v
}
