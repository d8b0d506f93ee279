// SPDX-License-Identifier: CC-BY-NC-4.0
// Copyright (c) 2025-2026 fumi-engineer

package tensor

// BLAS bridge for the matrix products behind the convolution layers.
//
// The im2col formulation turns every convolution into a single sgemm, so
// all heavy lifting funnels through these three wrappers. They delegate to
// gonum's native float32 BLAS (blas32 with the pure-Go gonum
// implementation), which vectorizes well and keeps the module free of cgo.

import (
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
)

// Gemm computes C = alpha*A@B + beta*C.
// A: [m, k] row-major, B: [k, n] row-major, C: [m, n] row-major.
func Gemm(m, n, k int, alpha float32, a []float32, lda int, b []float32, ldb int, beta float32, c []float32, ldc int) {
	if m == 0 || n == 0 || k == 0 {
		return
	}
	blas32.Gemm(blas.NoTrans, blas.NoTrans, alpha,
		blas32.General{Rows: m, Cols: k, Stride: lda, Data: a},
		blas32.General{Rows: k, Cols: n, Stride: ldb, Data: b},
		beta,
		blas32.General{Rows: m, Cols: n, Stride: ldc, Data: c})
}

// GemmTransA computes C = alpha*A^T@B + beta*C without materializing the
// transpose. A: [k, m] row-major, B: [k, n] row-major, C: [m, n] row-major.
//
// Used by Conv2D.Backward to propagate gradients into the column buffer:
// dCols = W^T @ dOut.
func GemmTransA(m, n, k int, alpha float32, a []float32, lda int, b []float32, ldb int, beta float32, c []float32, ldc int) {
	if m == 0 || n == 0 || k == 0 {
		return
	}
	blas32.Gemm(blas.Trans, blas.NoTrans, alpha,
		blas32.General{Rows: k, Cols: m, Stride: lda, Data: a},
		blas32.General{Rows: k, Cols: n, Stride: ldb, Data: b},
		beta,
		blas32.General{Rows: m, Cols: n, Stride: ldc, Data: c})
}

// GemmTransB computes C = alpha*A@B^T + beta*C without materializing the
// transpose. A: [m, k] row-major, B: [n, k] row-major, C: [m, n] row-major.
//
// Used by Conv2D.Backward for the weight gradient: dW = dOut @ cols^T.
func GemmTransB(m, n, k int, alpha float32, a []float32, lda int, b []float32, ldb int, beta float32, c []float32, ldc int) {
	if m == 0 || n == 0 || k == 0 {
		return
	}
	blas32.Gemm(blas.NoTrans, blas.Trans, alpha,
		blas32.General{Rows: m, Cols: k, Stride: lda, Data: a},
		blas32.General{Rows: n, Cols: k, Stride: ldb, Data: b},
		beta,
		blas32.General{Rows: m, Cols: n, Stride: ldc, Data: c})
}

// Matmul computes matrix multiplication C = A @ B for 2D tensors
// [M,K] x [K,N] -> [M,N].
func Matmul(a, b *Tensor) *Tensor {
	if a.shape.NDim() != 2 || b.shape.NDim() != 2 {
		panic("matmul requires 2D tensors")
	}
	aM, aK := a.shape.At(0), a.shape.At(1)
	bK, bN := b.shape.At(0), b.shape.At(1)
	if aK != bK {
		panic("matmul dimension mismatch")
	}
	result := New(NewShape(aM, bN), a.dtype)
	Gemm(aM, bN, aK, 1.0, a.data, aK, b.data, bN, 0.0, result.data, bN)
	return result
}
