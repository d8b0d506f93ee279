// SPDX-License-Identifier: CC-BY-NC-4.0
// Copyright (c) 2025-2026 fumi-engineer

package tensor

// CMatrix is a dense complex128 matrix in row-major order. One echo
// measurement is a CMatrix of shape (Doppler bins Ns) x (subcarriers M+1).
// Unlike Tensor, CMatrix carries no gradient: echoes are inputs only, the
// gradient path stops at the real-valued feature map.
type CMatrix struct {
	Rows, Cols int
	Data       []complex128
}

// NewCMatrix allocates a zero-filled Rows x Cols complex matrix.
func NewCMatrix(rows, cols int) *CMatrix {
	return &CMatrix{Rows: rows, Cols: cols, Data: make([]complex128, rows*cols)}
}

// At reads element (r, c).
func (m *CMatrix) At(r, c int) complex128 { return m.Data[r*m.Cols+c] }

// Set writes element (r, c).
func (m *CMatrix) Set(r, c int, v complex128) { m.Data[r*m.Cols+c] = v }

// Scale returns m multiplied by a real scalar, as a new matrix.
func (m *CMatrix) Scale(s float64) *CMatrix {
	out := NewCMatrix(m.Rows, m.Cols)
	cs := complex(s, 0)
	for i, v := range m.Data {
		out.Data[i] = v * cs
	}
	return out
}

// PowerMean returns the mean of |x|^2 over all elements, the per-sample
// signal power used for reference SNR reporting.
func (m *CMatrix) PowerMean() float64 {
	sum := 0.0
	for _, v := range m.Data {
		sum += real(v)*real(v) + imag(v)*imag(v)
	}
	return sum / float64(len(m.Data))
}
