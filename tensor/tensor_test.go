// SPDX-License-Identifier: CC-BY-NC-4.0
// Copyright (c) 2025-2026 fumi-engineer

package tensor

import (
	"math"
	"testing"
)

func closeTo(a, b, tol float32) bool {
	return float32(math.Abs(float64(a-b))) <= tol
}

func TestShapeBasics(t *testing.T) {
	s := NewShape(2, 3, 4)
	if s.Numel() != 24 {
		t.Errorf("Numel: got %d, want 24", s.Numel())
	}
	if s.NDim() != 3 {
		t.Errorf("NDim: got %d, want 3", s.NDim())
	}
	if s.At(-1) != 4 {
		t.Errorf("At(-1): got %d, want 4", s.At(-1))
	}
	strides := s.Strides()
	want := []int{12, 4, 1}
	for i := range want {
		if strides[i] != want[i] {
			t.Errorf("stride %d: got %d, want %d", i, strides[i], want[i])
		}
	}
	if !s.Equal(NewShape(2, 3, 4)) {
		t.Error("Equal: identical shapes reported unequal")
	}
	if s.Equal(NewShape(2, 3)) {
		t.Error("Equal: different ranks reported equal")
	}
}

func TestTensorAtSet(t *testing.T) {
	x := Zeros(NewShape(2, 3), F32)
	x.Set(7, 1, 2)
	if x.At(1, 2) != 7 {
		t.Errorf("At(1,2): got %f, want 7", x.At(1, 2))
	}
	// Row-major: element (1,2) is flat index 5.
	if x.DataPtr()[5] != 7 {
		t.Errorf("flat index 5: got %f, want 7", x.DataPtr()[5])
	}
}

func TestAccumulateGrad(t *testing.T) {
	x := Zeros(NewShape(3), F32)
	x.AccumulateGrad([]float32{1, 2, 3})
	x.AccumulateGrad([]float32{1, 1, 1})
	want := []float32{2, 3, 4}
	for i := range want {
		if x.Grad[i] != want[i] {
			t.Errorf("grad[%d]: got %f, want %f", i, x.Grad[i], want[i])
		}
	}
	x.ZeroGrad()
	for i, g := range x.Grad {
		if g != 0 {
			t.Errorf("grad[%d] after ZeroGrad: got %f, want 0", i, g)
		}
	}
}

func TestMatmulKnownValues(t *testing.T) {
	// [1 2; 3 4] @ [5 6; 7 8] = [19 22; 43 50]
	a := FromSlice([]float32{1, 2, 3, 4}, NewShape(2, 2))
	b := FromSlice([]float32{5, 6, 7, 8}, NewShape(2, 2))
	c := Matmul(a, b)
	want := []float32{19, 22, 43, 50}
	for i, w := range want {
		if !closeTo(c.DataPtr()[i], w, 1e-5) {
			t.Errorf("c[%d]: got %f, want %f", i, c.DataPtr()[i], w)
		}
	}
}

func TestGemmTransposedVariants(t *testing.T) {
	// A = [1 2; 3 4], B = [1 0; 0 1]. A^T@B = A^T; A@B^T = A.
	a := []float32{1, 2, 3, 4}
	eye := []float32{1, 0, 0, 1}

	c := make([]float32, 4)
	GemmTransA(2, 2, 2, 1.0, a, 2, eye, 2, 0.0, c, 2)
	wantT := []float32{1, 3, 2, 4}
	for i := range wantT {
		if !closeTo(c[i], wantT[i], 1e-5) {
			t.Errorf("transA c[%d]: got %f, want %f", i, c[i], wantT[i])
		}
	}

	c2 := make([]float32, 4)
	GemmTransB(2, 2, 2, 1.0, a, 2, eye, 2, 0.0, c2, 2)
	for i := range a {
		if !closeTo(c2[i], a[i], 1e-5) {
			t.Errorf("transB c[%d]: got %f, want %f", i, c2[i], a[i])
		}
	}
}

func TestSigmoidKnownValues(t *testing.T) {
	x := FromSlice([]float32{0, 100, -100}, NewShape(3))
	s := x.Sigmoid()
	if !closeTo(s.At(0), 0.5, 1e-6) {
		t.Errorf("sigmoid(0): got %f, want 0.5", s.At(0))
	}
	if !closeTo(s.At(1), 1.0, 1e-4) || !closeTo(s.At(2), 0.0, 1e-4) {
		t.Errorf("sigmoid saturation: got %f, %f", s.At(1), s.At(2))
	}
}

func TestIsFinite(t *testing.T) {
	x := FromSlice([]float32{1, 2, 3}, NewShape(3))
	if !x.IsFinite() {
		t.Error("finite tensor reported non-finite")
	}
	x.DataPtr()[1] = float32(math.NaN())
	if x.IsFinite() {
		t.Error("NaN not detected")
	}
	x.DataPtr()[1] = float32(math.Inf(1))
	if x.IsFinite() {
		t.Error("Inf not detected")
	}
}

func TestCMatrixPowerMean(t *testing.T) {
	m := NewCMatrix(1, 2)
	m.Set(0, 0, complex(3, 4)) // |z|^2 = 25
	m.Set(0, 1, complex(0, 0))
	if got := m.PowerMean(); math.Abs(got-12.5) > 1e-12 {
		t.Errorf("PowerMean: got %f, want 12.5", got)
	}
}

func TestCMatrixScaleLeavesOriginal(t *testing.T) {
	m := NewCMatrix(1, 1)
	m.Set(0, 0, complex(1, 1))
	s := m.Scale(2)
	if s.At(0, 0) != complex(2, 2) {
		t.Errorf("scaled: got %v, want (2+2i)", s.At(0, 0))
	}
	if m.At(0, 0) != complex(1, 1) {
		t.Errorf("original modified: got %v", m.At(0, 0))
	}
}
