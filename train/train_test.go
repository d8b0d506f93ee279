// SPDX-License-Identifier: CC-BY-NC-SA-4.0
// Copyright (c) 2025-2026 fumi-engineer

package train

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/fumi-engineer/cfarnet/dataset"
	"github.com/fumi-engineer/cfarnet/nn"
	"github.com/fumi-engineer/cfarnet/signal"
	"github.com/fumi-engineer/cfarnet/tensor"
)

func TestOptionsValidate(t *testing.T) {
	if err := DefaultOptions().Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}

	bad := DefaultOptions()
	bad.Epochs = 0
	if bad.Validate() == nil {
		t.Error("zero epochs should fail")
	}

	bad = DefaultOptions()
	bad.TrainPowerLo, bad.TrainPowerHi = 30, -10
	if bad.Validate() == nil {
		t.Error("inverted power range should fail")
	}

	bad = DefaultOptions()
	bad.ValPowers = nil
	if bad.Validate() == nil {
		t.Error("empty validation powers should fail")
	}
}

func TestCriticalPowerIsMinimum(t *testing.T) {
	o := DefaultOptions()
	o.ValPowers = []float64{0, 10, -10}
	if got := o.CriticalPower(); got != -10 {
		t.Errorf("CriticalPower: got %g, want -10", got)
	}
}

func TestCosineScheduleEndpoints(t *testing.T) {
	s := NewCosineSchedule(1e-4, 60)
	if got := s.At(0); math.Abs(got-1e-4) > 1e-12 {
		t.Errorf("At(0): got %g, want 1e-4", got)
	}
	floor := math.Max(1e-8, 1e-4*1e-3)
	if got := s.At(60); got != floor {
		t.Errorf("At(tMax): got %g, want %g", got, floor)
	}
	if got := s.At(1000); got != floor {
		t.Errorf("past tMax: got %g, want floor %g", got, floor)
	}
	// Halfway point sits at the midpoint of peak and floor.
	mid := floor + 0.5*(1e-4-floor)
	if got := s.At(30); math.Abs(got-mid) > 1e-12 {
		t.Errorf("At(30): got %g, want %g", got, mid)
	}
	// Monotone decay.
	for e := 1; e <= 60; e++ {
		if s.At(e) > s.At(e-1)+1e-15 {
			t.Fatalf("schedule increased at epoch %d", e)
		}
	}
}

func TestCosineScheduleFloorClamp(t *testing.T) {
	// With a tiny peak LR the floor clamps at 1e-8 instead of lr*1e-3.
	s := NewCosineSchedule(1e-6, 10)
	if got := s.At(10); got != 1e-8 {
		t.Errorf("floor: got %g, want 1e-8", got)
	}
}

func TestAdamWDescendsQuadratic(t *testing.T) {
	// Minimize f(w) = w^2 from w=5; gradient is 2w.
	w := tensor.FromSlice([]float32{5}, tensor.NewShape(1))
	opts := DefaultOptions()
	opts.LR = 0.1
	opts.WeightDecay = 0
	opts.GradClip = 0
	opt := NewAdamW([]*tensor.Tensor{w}, opts)

	for i := 0; i < 200; i++ {
		w.ZeroGrad()
		w.AccumulateGrad([]float32{2 * w.DataPtr()[0]})
		opt.Update(opts.LR)
	}
	if got := math.Abs(float64(w.DataPtr()[0])); got > 0.05 {
		t.Errorf("after 200 steps: |w| = %g, want near 0", got)
	}
	if opt.Step() != 200 {
		t.Errorf("Step: got %d, want 200", opt.Step())
	}
}

func TestAdamWSkipsParamsWithoutGrad(t *testing.T) {
	w := tensor.FromSlice([]float32{3}, tensor.NewShape(1))
	opts := DefaultOptions()
	opt := NewAdamW([]*tensor.Tensor{w}, opts)
	opt.Update(0.1)
	if w.DataPtr()[0] != 3 {
		t.Errorf("gradient-free parameter moved: %f", w.DataPtr()[0])
	}
}

func TestAdamWClipsGlobalNorm(t *testing.T) {
	w := tensor.FromSlice([]float32{0}, tensor.NewShape(1))
	opts := DefaultOptions()
	opts.GradClip = 1.0
	opts.WeightDecay = 0
	opt := NewAdamW([]*tensor.Tensor{w}, opts)

	w.AccumulateGrad([]float32{1000})
	if got := opt.GlobalGradNorm(); math.Abs(got-1000) > 1e-6 {
		t.Fatalf("GlobalGradNorm: got %g, want 1000", got)
	}
	opt.Update(0.1)
	// First Adam step moves by ~lr regardless of magnitude, but the moments
	// must have seen the clipped gradient, not the raw one.
	m := opt.states[0].m[0]
	if math.Abs(float64(m)-0.1) > 1e-5 {
		t.Errorf("first moment: got %g, want 0.1 (clipped grad 1.0 * (1-beta1))", m)
	}
}

// memSource serves echoes from memory; the controller tests don't need disk
// shards.
type memSource struct {
	echoes []*tensor.CMatrix
}

func (m *memSource) Echo(idx int) (*tensor.CMatrix, error) { return m.echoes[idx], nil }

// testRig builds a tiny but complete training setup: 8 train and 4 val
// samples of 8x8 echoes whose labeled subcarrier column carries extra
// energy.
func testRig(t *testing.T, opts Options, ckpt string) (*Controller, *nn.PeakNet) {
	t.Helper()
	const ns, width = 8, 8

	var echoes []*tensor.CMatrix
	var labels [][]int
	for i := 0; i < 12; i++ {
		peak := i % width
		echo := tensor.NewCMatrix(ns, width)
		for y := 0; y < ns; y++ {
			for x := 0; x < width; x++ {
				v := 0.1
				if x == peak {
					v = 1.0
				}
				echo.Set(y, x, complex(v, 0))
			}
		}
		echoes = append(echoes, echo)
		labels = append(labels, []int{peak})
	}
	src := &memSource{echoes: echoes}

	trainDS, err := dataset.NewDataset(src, labels, 0, 8, 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	valDS, err := dataset.NewDataset(src, labels, 8, 12, 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	trainLoader := dataset.NewLoader(trainDS, 4, true, 1)
	valLoader := dataset.NewLoader(valDS, 4, false, 0)

	cfg := nn.TinyConfig(width-1, ns)
	model, err := nn.NewPeakNet(cfg)
	if err != nil {
		t.Fatal(err)
	}
	frontend := signal.NewFrontend(ns, width)
	noise := signal.NewNoiseModel(1e6, 1)

	ctl, err := NewController(opts, model, frontend, noise,
		trainLoader, valLoader, width, ckpt, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	return ctl, model
}

func TestControllerRunRecordsHistory(t *testing.T) {
	opts := DefaultOptions()
	opts.Epochs = 2
	opts.BatchSize = 4
	opts.ValPowers = []float64{-10, 0, 10}

	ckpt := filepath.Join(t.TempDir(), "best.gob")
	ctl, _ := testRig(t, opts, ckpt)

	hist, err := ctl.Run()
	if err != nil {
		t.Fatal(err)
	}
	if len(hist.Epochs) != 2 {
		t.Fatalf("epochs recorded: got %d, want 2", len(hist.Epochs))
	}
	for _, rec := range hist.Epochs {
		if len(rec.Val) != 3 {
			t.Fatalf("epoch %d: %d validation records, want 3", rec.Epoch, len(rec.Val))
		}
		if rec.TrainRecall <= 0 || rec.TrainRecall > 1 {
			t.Errorf("epoch %d: train recall %g outside (0, 1]", rec.Epoch, rec.TrainRecall)
		}
		for i, power := range opts.ValPowers {
			if rec.Val[i].PowerDBm != power {
				t.Errorf("epoch %d: val[%d] at %g dBm, want %g", rec.Epoch, i, rec.Val[i].PowerDBm, power)
			}
		}
	}
	if hist.BestEpoch < 0 {
		t.Error("no best epoch recorded")
	}
	if _, err := os.Stat(ckpt); err != nil {
		t.Errorf("checkpoint not written: %v", err)
	}
}

func TestControllerSkipsNonFiniteBatches(t *testing.T) {
	opts := DefaultOptions()
	opts.Epochs = 1
	opts.BatchSize = 4
	opts.ValPowers = []float64{0}
	ctl, model := testRig(t, opts, "")

	// Poison one weight so every forward pass produces NaN logits. The
	// remaining weights must not move: a skipped batch takes no step.
	params := model.Parameters()
	params[0].DataPtr()[0] = float32(math.NaN())
	last := params[len(params)-1]
	before := append([]float32(nil), last.DataPtr()...)

	hist, err := ctl.Run()
	if err != nil {
		t.Fatal(err)
	}
	rec := hist.Epochs[0]
	if rec.SkippedBatches != 2 {
		t.Errorf("SkippedBatches: got %d, want 2", rec.SkippedBatches)
	}
	if rec.TrainLoss != 0 {
		t.Errorf("TrainLoss over zero valid batches: got %g, want 0", rec.TrainLoss)
	}
	for i, v := range last.DataPtr() {
		if v != before[i] {
			t.Fatalf("weight %d moved on a skipped epoch: %g -> %g", i, before[i], v)
		}
	}
	if hist.BestEpoch != -1 {
		t.Errorf("BestEpoch: got %d, want -1 when validation never succeeds", hist.BestEpoch)
	}
}

func TestControllerHistoryPowerLevels(t *testing.T) {
	opts := DefaultOptions()
	opts.Epochs = 1
	opts.BatchSize = 4
	opts.ValPowers = []float64{0, 10}
	ctl, _ := testRig(t, opts, "")

	hist, err := ctl.Run()
	if err != nil {
		t.Fatal(err)
	}
	levels := hist.PowerLevels()
	if len(levels) != 2 || levels[0] != 0 || levels[1] != 10 {
		t.Errorf("PowerLevels: got %v, want [0 10]", levels)
	}
	if _, ok := hist.Epochs[0].ValAt(10); !ok {
		t.Error("ValAt(10) not found")
	}
	if _, ok := hist.Epochs[0].ValAt(99); ok {
		t.Error("ValAt(99) should not be found")
	}
}
