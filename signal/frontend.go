// SPDX-License-Identifier: CC-BY-NC-4.0
// Copyright (c) 2025-2026 fumi-engineer

package signal

import (
	"fmt"
	"math"

	"github.com/mdobak/go-xerrors"
	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/fumi-engineer/cfarnet/tensor"
)

// Frontend converts noisy echoes into the network's input feature map.
// Per echo column (one subcarrier across Ns symbols) it takes the Doppler
// FFT, centers the zero-frequency bin with an fftshift, and compresses the
// magnitude with log1p. Output per echo: a real [Ns, M+1] spectrum image.
//
// No gradient flows through the frontend; the network trains on the
// spectrum image as given.
type Frontend struct {
	ns    int
	width int
	fft   *fourier.CmplxFFT
}

// NewFrontend creates a frontend for echoes of shape [ns, width].
func NewFrontend(ns, width int) *Frontend {
	return &Frontend{ns: ns, width: width, fft: fourier.NewCmplxFFT(ns)}
}

// fftshift rotates src by n/2 so the zero-frequency bin lands in the
// middle: dst[(i + n/2) % n] = src[i].
func fftshift(dst, src []complex128) {
	n := len(src)
	h := n / 2
	for i, v := range src {
		dst[(i+h)%n] = v
	}
}

// Features builds the [b, 1, ns, width] input tensor for a batch of echoes.
func (f *Frontend) Features(echoes []*tensor.CMatrix) (*tensor.Tensor, error) {
	b := len(echoes)
	out := tensor.New(tensor.NewShape(b, 1, f.ns, f.width), tensor.F32)
	data := out.DataPtr()

	col := make([]complex128, f.ns)
	spec := make([]complex128, f.ns)
	shifted := make([]complex128, f.ns)

	for bi, echo := range echoes {
		if echo.Rows != f.ns || echo.Cols != f.width {
			return nil, xerrors.New(fmt.Sprintf("echo %d is %dx%d, frontend expects %dx%d",
				bi, echo.Rows, echo.Cols, f.ns, f.width))
		}
		base := bi * f.ns * f.width
		for x := 0; x < f.width; x++ {
			for y := 0; y < f.ns; y++ {
				col[y] = echo.At(y, x)
			}
			spec = f.fft.Coefficients(spec, col)
			fftshift(shifted, spec)
			for y := 0; y < f.ns; y++ {
				mag := math.Hypot(real(shifted[y]), imag(shifted[y]))
				data[base+y*f.width+x] = float32(math.Log1p(mag))
			}
		}
	}
	return out, nil
}

// SpectrumImage copies one sample's [ns, width] spectrum out of a feature
// tensor produced by Features, for visualization.
func (f *Frontend) SpectrumImage(features *tensor.Tensor, sample int) [][]float64 {
	data := features.DataPtr()
	base := sample * f.ns * f.width
	img := make([][]float64, f.ns)
	for y := 0; y < f.ns; y++ {
		row := make([]float64, f.width)
		for x := 0; x < f.width; x++ {
			row[x] = float64(data[base+y*f.width+x])
		}
		img[y] = row
	}
	return img
}
