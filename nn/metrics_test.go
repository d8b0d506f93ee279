// SPDX-License-Identifier: CC-BY-NC-SA-4.0
// Copyright (c) 2025-2026 fumi-engineer

package nn

import (
	"math"
	"testing"

	"github.com/fumi-engineer/cfarnet/tensor"
)

func TestTopKIndicesOrderAndTies(t *testing.T) {
	got := TopKIndices([]float32{0.1, 0.9, 0.9, 0.5}, 3)
	// Ties break toward the lower index: 1 before 2.
	want := []int{1, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("top[%d]: got %d, want %d", i, got[i], want[i])
		}
	}
	if TopKIndices([]float32{1, 2}, 0) != nil {
		t.Error("k=0 should yield nil")
	}
	if n := len(TopKIndices([]float32{1, 2}, 10)); n != 2 {
		t.Errorf("k clamp: got %d indices, want 2", n)
	}
}

func TestRecallExactHit(t *testing.T) {
	probs := tensor.FromSlice([]float32{0, 0, 1, 0, 0}, tensor.NewShape(1, 5))
	got := RecallAtK(probs, [][]int{{2}}, 1, 0)
	if got != 1.0 {
		t.Errorf("recall: got %f, want 1", got)
	}
}

func TestRecallToleranceWindow(t *testing.T) {
	// Predicted peak at 0, true peak at 3: a hit only when tolerance >= 3.
	probs := tensor.FromSlice([]float32{1, 0, 0, 0, 0}, tensor.NewShape(1, 5))
	if got := RecallAtK(probs, [][]int{{3}}, 1, 2); got != 0 {
		t.Errorf("tolerance 2: got %f, want 0", got)
	}
	if got := RecallAtK(probs, [][]int{{3}}, 1, 3); got != 1 {
		t.Errorf("tolerance 3: got %f, want 1", got)
	}
}

func TestRecallPartial(t *testing.T) {
	// Two true peaks, top-1 covers one of them.
	probs := tensor.FromSlice([]float32{1, 0, 0, 0, 0, 0, 0, 0}, tensor.NewShape(1, 8))
	got := RecallAtK(probs, [][]int{{0, 7}}, 1, 0)
	if math.Abs(got-0.5) > 1e-12 {
		t.Errorf("recall: got %f, want 0.5", got)
	}
}

func TestRecallSkipsSamplesWithoutValidPeaks(t *testing.T) {
	probs := tensor.FromSlice([]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
	}, tensor.NewShape(2, 4))
	// First sample is all padding and must not dilute the score.
	got := RecallAtK(probs, [][]int{{-1, -1}, {1}}, 1, 0)
	if got != 1.0 {
		t.Errorf("recall: got %f, want 1", got)
	}
}

func TestRecallEmptyBatchConventions(t *testing.T) {
	// No valid peaks anywhere: vacuous success.
	probs := tensor.FromSlice([]float32{1, 0}, tensor.NewShape(1, 2))
	if got := RecallAtK(probs, [][]int{{-1}}, 1, 0); got != 1.0 {
		t.Errorf("all-padding batch: got %f, want 1", got)
	}
	// Zero-sample batch scores zero.
	empty := tensor.New(tensor.NewShape(0, 2), tensor.F32)
	if got := RecallAtK(empty, nil, 1, 0); got != 0 {
		t.Errorf("empty batch: got %f, want 0", got)
	}
}

func TestRecallKClampedToWidth(t *testing.T) {
	// k larger than the vector selects everything, so any valid peak hits.
	probs := tensor.FromSlice([]float32{0.5, 0.1, 0.9}, tensor.NewShape(1, 3))
	if got := RecallAtK(probs, [][]int{{1}}, 100, 0); got != 1.0 {
		t.Errorf("recall: got %f, want 1", got)
	}
}
