// SPDX-License-Identifier: CC-BY-NC-4.0
// Copyright (c) 2025-2026 fumi-engineer

package signal

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/fumi-engineer/cfarnet/tensor"
)

func TestNoiseStdDevFormula(t *testing.T) {
	bw := 1e8
	want := math.Sqrt(1.38e-23 * 290 * bw / 2)
	if got := NoiseStdDev(bw); math.Abs(got-want) > want*1e-12 {
		t.Errorf("NoiseStdDev: got %g, want %g", got, want)
	}
}

func TestScaleFactor(t *testing.T) {
	// 0 dBm is unit scale; +10 dBm multiplies power by 10, amplitude by sqrt(10).
	if got := ScaleFactor(0); math.Abs(got-1) > 1e-12 {
		t.Errorf("ScaleFactor(0): got %g, want 1", got)
	}
	if got := ScaleFactor(10); math.Abs(got-math.Sqrt(10)) > 1e-12 {
		t.Errorf("ScaleFactor(10): got %g, want sqrt(10)", got)
	}
	if ScaleFactor(-10) >= ScaleFactor(0) || ScaleFactor(0) >= ScaleFactor(20) {
		t.Error("ScaleFactor must be monotone in power")
	}
}

func TestCorruptScalesAndPerturbs(t *testing.T) {
	m := NewNoiseModel(1e8, 1)
	echo := tensor.NewCMatrix(4, 4)
	for i := range echo.Data {
		echo.Data[i] = complex(1, 0)
	}
	out := m.Corrupt(echo, 20)

	// The original must be untouched.
	if echo.At(0, 0) != complex(1, 0) {
		t.Fatal("Corrupt modified its input")
	}
	// Scaled amplitude is 10; thermal noise at 1e8 Hz is ~1e-7, invisible
	// at this magnitude but the values must not be exactly equal.
	scale := ScaleFactor(20)
	changed := false
	for _, v := range out.Data {
		if math.Abs(cmplx.Abs(v)-scale) > scale*1e-3 {
			t.Fatalf("scaled magnitude: got %g, want ~%g", cmplx.Abs(v), scale)
		}
		if v != complex(scale, 0) {
			changed = true
		}
	}
	if !changed {
		t.Error("no noise was added")
	}
}

func TestReferenceSNRTracksPower(t *testing.T) {
	m := NewNoiseModel(1e8, 1)
	echo := tensor.NewCMatrix(2, 2)
	for i := range echo.Data {
		echo.Data[i] = complex(1, 0)
	}
	// +10 dB of transmit power is +10 dB of SNR.
	low := m.ReferenceSNR(echo, 0)
	high := m.ReferenceSNR(echo, 10)
	if math.Abs(high-low-10) > 1e-9 {
		t.Errorf("SNR delta: got %g, want 10", high-low)
	}
}

func TestPowerSamplerStaysInRange(t *testing.T) {
	for _, policy := range []PowerPolicy{PowerLinear, PowerDBm} {
		s, err := NewPowerSampler(policy, -10, 30, 1)
		if err != nil {
			t.Fatalf("%s: %v", policy, err)
		}
		for i := 0; i < 1000; i++ {
			p := s.Sample()
			if p < -10-1e-9 || p > 30+1e-9 {
				t.Fatalf("%s: sample %g outside [-10, 30]", policy, p)
			}
		}
	}
}

func TestPowerSamplerLinearSkewsHigh(t *testing.T) {
	// Uniform in milliwatts concentrates mass near the top of the dB range:
	// the mean in dBm must sit well above the midpoint.
	s, err := NewPowerSampler(PowerLinear, -10, 30, 2)
	if err != nil {
		t.Fatal(err)
	}
	sum := 0.0
	const n = 2000
	for i := 0; i < n; i++ {
		sum += s.Sample()
	}
	if mean := sum / n; mean < 15 {
		t.Errorf("linear-policy mean %g dBm, expected above the 10 dBm midpoint", mean)
	}
}

func TestPowerSamplerDegenerateRange(t *testing.T) {
	s, err := NewPowerSampler(PowerDBm, 5, 5, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Sample(); got != 5 {
		t.Errorf("degenerate range: got %g, want 5", got)
	}
	if _, err := NewPowerSampler(PowerDBm, 10, 0, 1); err == nil {
		t.Fatal("expected an error for an inverted range")
	}
	if _, err := NewPowerSampler("log", 0, 10, 1); err == nil {
		t.Fatal("expected an error for an unknown policy")
	}
}

func TestFFTShift(t *testing.T) {
	src := []complex128{0, 1, 2, 3}
	dst := make([]complex128, 4)
	fftshift(dst, src)
	want := []complex128{2, 3, 0, 1}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("dst[%d]: got %v, want %v", i, dst[i], want[i])
		}
	}
}

func TestFrontendToneLandsAtShiftedBin(t *testing.T) {
	// A complex exponential at Doppler frequency k occupies FFT bin k;
	// after the shift it lands at bin (k + ns/2) % ns.
	const ns, width, k = 8, 3, 2
	echo := tensor.NewCMatrix(ns, width)
	for y := 0; y < ns; y++ {
		phase := 2 * math.Pi * float64(k) * float64(y) / ns
		v := cmplx.Exp(complex(0, phase))
		for x := 0; x < width; x++ {
			echo.Set(y, x, v)
		}
	}

	f := NewFrontend(ns, width)
	features, err := f.Features([]*tensor.CMatrix{echo})
	if err != nil {
		t.Fatal(err)
	}
	want := tensor.NewShape(1, 1, ns, width)
	if !features.Shape().Equal(want) {
		t.Fatalf("shape: got %v, want %v", features.Shape(), want)
	}

	data := features.DataPtr()
	for x := 0; x < width; x++ {
		best, arg := float32(-1), -1
		for y := 0; y < ns; y++ {
			if v := data[y*width+x]; v > best {
				best, arg = v, y
			}
		}
		if arg != (k+ns/2)%ns {
			t.Errorf("column %d: peak at bin %d, want %d", x, arg, (k+ns/2)%ns)
		}
	}
}

func TestFrontendRejectsWrongShape(t *testing.T) {
	f := NewFrontend(8, 4)
	if _, err := f.Features([]*tensor.CMatrix{tensor.NewCMatrix(4, 4)}); err == nil {
		t.Fatal("expected an error for a mis-sized echo")
	}
}

func TestSpectrumImageRoundTrip(t *testing.T) {
	f := NewFrontend(4, 2)
	echo := tensor.NewCMatrix(4, 2)
	echo.Set(0, 0, complex(3, 0))
	features, err := f.Features([]*tensor.CMatrix{echo})
	if err != nil {
		t.Fatal(err)
	}
	img := f.SpectrumImage(features, 0)
	if len(img) != 4 || len(img[0]) != 2 {
		t.Fatalf("image dims: got %dx%d, want 4x2", len(img), len(img[0]))
	}
	if float32(img[1][0]) != features.At(0, 0, 1, 0) {
		t.Error("image values must mirror the feature tensor")
	}
}
