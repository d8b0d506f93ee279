// SPDX-License-Identifier: CC-BY-NC-SA-4.0
// Copyright (c) 2025-2026 fumi-engineer

package nn

import (
	"math"
	"math/rand"

	"github.com/fumi-engineer/cfarnet/tensor"
)

// Layer is the common interface for neural network layers with forward/backward
// passes and parameter access (for the optimizer).
type Layer interface {
	Forward(input *tensor.Tensor) *tensor.Tensor
	Backward(gradOutput *tensor.Tensor) *tensor.Tensor
	Parameters() []*tensor.Tensor
}

// Modal is implemented by layers whose behavior differs between training
// and evaluation (batch norm statistics, dropout masks).
type Modal interface {
	SetTraining(training bool)
}

// kaimingFanOutStd returns the Kaiming-normal standard deviation for a
// convolution weight in fan-out mode, tuned for a leaky activation:
//
//	std = sqrt(2 / (1 + slope^2)) / sqrt(fan_out)
func kaimingFanOutStd(fanOut int, slope float32) float32 {
	gain := math.Sqrt(2.0 / (1.0 + float64(slope)*float64(slope)))
	return float32(gain / math.Sqrt(float64(fanOut)))
}

// ---------------------------------------------------------------------------
// Conv2D
// ---------------------------------------------------------------------------

// Conv2D is a 2D convolution over [batch, channels, height, width] input.
//
// The weight is stored flat as [out_ch, in_ch*kh*kw] so that the im2col
// formulation reduces the whole convolution to one sgemm per batch element:
//
//	out[co, p] = sum_k weight[co, k] * cols[k, p]
//
// where cols is the unrolled [in_ch*kh*kw, out_h*out_w] patch matrix.
// In the estimator, height is the Doppler axis (strided down) and width is
// the subcarrier axis (stride 1, padding preserves it).
type Conv2D struct {
	weight *tensor.Tensor // [out_ch, in_ch*kh*kw]
	bias   *tensor.Tensor // [out_ch], nil when bias is disabled
	inCh   int
	outCh  int
	kh, kw int
	sh, sw int
	ph, pw int

	lastInput *tensor.Tensor
	lastCols  []float32 // im2col buffers for the whole batch, b-major
	lastOutH  int
	lastOutW  int
}

// NewConv2D creates a convolution with Kaiming fan-out initialization for
// the given leaky slope. useBias follows the original architecture: the
// feature blocks run bias-free into batch norm.
func NewConv2D(inCh, outCh, kh, kw, sh, sw, ph, pw int, useBias bool, slope float32) *Conv2D {
	std := kaimingFanOutStd(outCh*kh*kw, slope)
	c := &Conv2D{
		weight: tensor.RandnWithStd(tensor.NewShape(outCh, inCh*kh*kw), tensor.F32, std),
		inCh:   inCh, outCh: outCh,
		kh: kh, kw: kw, sh: sh, sw: sw, ph: ph, pw: pw,
	}
	if useBias {
		c.bias = tensor.Zeros(tensor.NewShape(outCh), tensor.F32)
	}
	return c
}

// OutSize returns the spatial output size for an input of (h, w).
func (c *Conv2D) OutSize(h, w int) (int, int) {
	return (h+2*c.ph-c.kh)/c.sh + 1, (w+2*c.pw-c.kw)/c.sw + 1
}

// im2col unrolls one image [in_ch, h, w] into cols [in_ch*kh*kw, p].
// Out-of-bounds taps read as zero (implicit padding).
func (c *Conv2D) im2col(src []float32, h, w, outH, outW int, cols []float32) {
	p := outH * outW
	for ci := 0; ci < c.inCh; ci++ {
		for ki := 0; ki < c.kh; ki++ {
			for kj := 0; kj < c.kw; kj++ {
				row := ((ci*c.kh)+ki)*c.kw + kj
				dst := cols[row*p : (row+1)*p]
				for oy := 0; oy < outH; oy++ {
					iy := oy*c.sh - c.ph + ki
					for ox := 0; ox < outW; ox++ {
						ix := ox*c.sw - c.pw + kj
						if iy >= 0 && iy < h && ix >= 0 && ix < w {
							dst[oy*outW+ox] = src[(ci*h+iy)*w+ix]
						} else {
							dst[oy*outW+ox] = 0
						}
					}
				}
			}
		}
	}
}

// col2im scatters gradient columns [in_ch*kh*kw, p] back into an image
// gradient [in_ch, h, w], accumulating where patches overlap.
func (c *Conv2D) col2im(cols []float32, h, w, outH, outW int, dst []float32) {
	p := outH * outW
	for ci := 0; ci < c.inCh; ci++ {
		for ki := 0; ki < c.kh; ki++ {
			for kj := 0; kj < c.kw; kj++ {
				row := ((ci*c.kh)+ki)*c.kw + kj
				src := cols[row*p : (row+1)*p]
				for oy := 0; oy < outH; oy++ {
					iy := oy*c.sh - c.ph + ki
					if iy < 0 || iy >= h {
						continue
					}
					for ox := 0; ox < outW; ox++ {
						ix := ox*c.sw - c.pw + kj
						if ix < 0 || ix >= w {
							continue
						}
						dst[(ci*h+iy)*w+ix] += src[oy*outW+ox]
					}
				}
			}
		}
	}
}

// Forward computes the convolution. Input: [b, in_ch, h, w].
// Output: [b, out_ch, out_h, out_w].
func (c *Conv2D) Forward(input *tensor.Tensor) *tensor.Tensor {
	dims := input.Shape().DimsRef()
	b, h, w := dims[0], dims[2], dims[3]
	outH, outW := c.OutSize(h, w)
	k := c.inCh * c.kh * c.kw
	p := outH * outW

	c.lastInput = input
	c.lastOutH, c.lastOutW = outH, outW
	if len(c.lastCols) != b*k*p {
		c.lastCols = make([]float32, b*k*p)
	}

	output := tensor.New(tensor.NewShape(b, c.outCh, outH, outW), tensor.F32)
	in, out, wData := input.DataPtr(), output.DataPtr(), c.weight.DataPtr()
	imSize, outSize := c.inCh*h*w, c.outCh*p

	for bi := 0; bi < b; bi++ {
		cols := c.lastCols[bi*k*p : (bi+1)*k*p]
		c.im2col(in[bi*imSize:(bi+1)*imSize], h, w, outH, outW, cols)
		tensor.Gemm(c.outCh, p, k,
			1.0, wData, k,
			cols, p,
			0.0, out[bi*outSize:(bi+1)*outSize], p)
	}

	if c.bias != nil {
		bData := c.bias.DataPtr()
		for bi := 0; bi < b; bi++ {
			for co := 0; co < c.outCh; co++ {
				row := out[(bi*c.outCh+co)*p : (bi*c.outCh+co+1)*p]
				bv := bData[co]
				for i := range row {
					row[i] += bv
				}
			}
		}
	}
	return output
}

// Backward accumulates dW = dOut @ cols^T and db = sum(dOut), and returns
// the input gradient via dCols = W^T @ dOut scattered back with col2im.
func (c *Conv2D) Backward(gradOutput *tensor.Tensor) *tensor.Tensor {
	if c.lastInput == nil {
		panic("backward called before forward")
	}
	dims := c.lastInput.Shape().DimsRef()
	b, h, w := dims[0], dims[2], dims[3]
	outH, outW := c.lastOutH, c.lastOutW
	k := c.inCh * c.kh * c.kw
	p := outH * outW

	gradInput := tensor.Zeros(c.lastInput.Shape(), tensor.F32)
	gOut, gIn := gradOutput.DataPtr(), gradInput.DataPtr()
	imSize, outSize := c.inCh*h*w, c.outCh*p

	dW := make([]float32, c.outCh*k)
	dcols := make([]float32, k*p)
	for bi := 0; bi < b; bi++ {
		gSlice := gOut[bi*outSize : (bi+1)*outSize]
		cols := c.lastCols[bi*k*p : (bi+1)*k*p]

		// dW[co, k] += dOut[co, p] @ cols[k, p]^T (beta=1 accumulates over batch)
		tensor.GemmTransB(c.outCh, k, p, 1.0, gSlice, p, cols, p, 1.0, dW, k)

		// dCols[k, p] = W[co, k]^T @ dOut[co, p]
		tensor.GemmTransA(k, p, c.outCh, 1.0, c.weight.DataPtr(), k, gSlice, p, 0.0, dcols, p)
		c.col2im(dcols, h, w, outH, outW, gIn[bi*imSize:(bi+1)*imSize])
	}
	c.weight.AccumulateGrad(dW)

	if c.bias != nil {
		db := make([]float32, c.outCh)
		for bi := 0; bi < b; bi++ {
			for co := 0; co < c.outCh; co++ {
				row := gOut[(bi*c.outCh+co)*p : (bi*c.outCh+co+1)*p]
				for _, g := range row {
					db[co] += g
				}
			}
		}
		c.bias.AccumulateGrad(db)
	}
	return gradInput
}

// Parameters returns the convolution weight (and bias when present).
func (c *Conv2D) Parameters() []*tensor.Tensor {
	if c.bias != nil {
		return []*tensor.Tensor{c.weight, c.bias}
	}
	return []*tensor.Tensor{c.weight}
}

// ---------------------------------------------------------------------------
// Conv1D
// ---------------------------------------------------------------------------

// Conv1D is a stride-1 1D convolution over [batch, channels, length] input,
// used by the prediction head to score each subcarrier position. It is the
// 2D layer collapsed to kh=1; the same im2col+sgemm path applies.
type Conv1D struct {
	inner *Conv2D
}

// NewConv1D creates a stride-1 1D convolution with kernel size kw and
// symmetric padding pad.
func NewConv1D(inCh, outCh, kw, pad int, useBias bool, slope float32) *Conv1D {
	return &Conv1D{inner: NewConv2D(inCh, outCh, 1, kw, 1, 1, 0, pad, useBias, slope)}
}

// Forward computes the convolution. Input: [b, in_ch, l]. Output: [b, out_ch, l_out].
func (c *Conv1D) Forward(input *tensor.Tensor) *tensor.Tensor {
	dims := input.Shape().DimsRef()
	b, ch, l := dims[0], dims[1], dims[2]
	out := c.inner.Forward(input.Reshape(tensor.NewShape(b, ch, 1, l)))
	od := out.Shape().DimsRef()
	return out.Reshape(tensor.NewShape(od[0], od[1], od[3]))
}

// Backward propagates through the underlying 2D convolution.
func (c *Conv1D) Backward(gradOutput *tensor.Tensor) *tensor.Tensor {
	dims := gradOutput.Shape().DimsRef()
	b, ch, l := dims[0], dims[1], dims[2]
	grad := c.inner.Backward(gradOutput.Reshape(tensor.NewShape(b, ch, 1, l)))
	gd := grad.Shape().DimsRef()
	return grad.Reshape(tensor.NewShape(gd[0], gd[1], gd[3]))
}

// Parameters returns the convolution weight (and bias when present).
func (c *Conv1D) Parameters() []*tensor.Tensor { return c.inner.Parameters() }

// Weight exposes the raw weight tensor; used by the model to re-initialize
// the final single-output layer with small variance.
func (c *Conv1D) Weight() *tensor.Tensor { return c.inner.weight }

// ---------------------------------------------------------------------------
// BatchNorm
// ---------------------------------------------------------------------------

// BatchNorm normalizes per channel over the batch and all spatial positions.
// One implementation covers both the 2D feature blocks ([b, c, h, w]) and
// the 1D head ([b, c, l]): everything after the channel axis is treated as
// flat spatial extent.
//
// Training mode uses batch statistics and updates exponential running
// estimates; evaluation mode normalizes with the running estimates.
// Scale starts at 1, shift at 0.
type BatchNorm struct {
	gamma *tensor.Tensor // [c]
	beta  *tensor.Tensor // [c]

	runMean  []float32
	runVar   []float32
	momentum float32
	eps      float32
	channels int
	training bool

	lastXhat   []float32
	lastInvStd []float32
	lastShape  tensor.Shape
}

// NewBatchNorm creates a batch norm over the given channel count.
func NewBatchNorm(channels int) *BatchNorm {
	bn := &BatchNorm{
		gamma:    tensor.Ones(tensor.NewShape(channels), tensor.F32),
		beta:     tensor.Zeros(tensor.NewShape(channels), tensor.F32),
		runMean:  make([]float32, channels),
		runVar:   make([]float32, channels),
		momentum: 0.1,
		eps:      1e-5,
		channels: channels,
		training: true,
	}
	for i := range bn.runVar {
		bn.runVar[i] = 1
	}
	return bn
}

// SetTraining switches between batch statistics and running statistics.
func (bn *BatchNorm) SetTraining(training bool) { bn.training = training }

// Forward normalizes input of shape [b, c, ...spatial].
func (bn *BatchNorm) Forward(input *tensor.Tensor) *tensor.Tensor {
	dims := input.Shape().DimsRef()
	b, ch := dims[0], dims[1]
	spatial := input.Shape().Numel() / (b * ch)
	n := b * spatial

	output := tensor.New(input.Shape(), tensor.F32)
	in, out := input.DataPtr(), output.DataPtr()
	g, be := bn.gamma.DataPtr(), bn.beta.DataPtr()

	bn.lastShape = input.Shape()
	if len(bn.lastXhat) != len(in) {
		bn.lastXhat = make([]float32, len(in))
	}
	if len(bn.lastInvStd) != ch {
		bn.lastInvStd = make([]float32, ch)
	}

	for c := 0; c < ch; c++ {
		var mean, variance float32
		if bn.training {
			sum := float32(0)
			for bi := 0; bi < b; bi++ {
				row := in[(bi*ch+c)*spatial : (bi*ch+c+1)*spatial]
				for _, v := range row {
					sum += v
				}
			}
			mean = sum / float32(n)
			sumSq := float32(0)
			for bi := 0; bi < b; bi++ {
				row := in[(bi*ch+c)*spatial : (bi*ch+c+1)*spatial]
				for _, v := range row {
					d := v - mean
					sumSq += d * d
				}
			}
			variance = sumSq / float32(n)
			bn.runMean[c] = (1-bn.momentum)*bn.runMean[c] + bn.momentum*mean
			bn.runVar[c] = (1-bn.momentum)*bn.runVar[c] + bn.momentum*variance
		} else {
			mean, variance = bn.runMean[c], bn.runVar[c]
		}

		invStd := float32(1.0 / math.Sqrt(float64(variance)+float64(bn.eps)))
		bn.lastInvStd[c] = invStd
		for bi := 0; bi < b; bi++ {
			off := (bi*ch + c) * spatial
			for s := 0; s < spatial; s++ {
				xhat := (in[off+s] - mean) * invStd
				bn.lastXhat[off+s] = xhat
				out[off+s] = g[c]*xhat + be[c]
			}
		}
	}
	return output
}

// Backward implements the standard batch norm gradient:
//
//	dx = invStd/N * (N*dxhat - sum(dxhat) - xhat*sum(dxhat*xhat))
//
// with dxhat = gradOut * gamma, per channel. Also accumulates
// dgamma = sum(gradOut * xhat) and dbeta = sum(gradOut).
func (bn *BatchNorm) Backward(gradOutput *tensor.Tensor) *tensor.Tensor {
	dims := bn.lastShape.DimsRef()
	b, ch := dims[0], dims[1]
	spatial := bn.lastShape.Numel() / (b * ch)
	n := float32(b * spatial)

	gradInput := tensor.New(bn.lastShape, tensor.F32)
	gOut, gIn := gradOutput.DataPtr(), gradInput.DataPtr()
	g := bn.gamma.DataPtr()

	dGamma := make([]float32, ch)
	dBeta := make([]float32, ch)

	for c := 0; c < ch; c++ {
		sumDxhat := float32(0)
		sumDxhatXhat := float32(0)
		for bi := 0; bi < b; bi++ {
			off := (bi*ch + c) * spatial
			for s := 0; s < spatial; s++ {
				go1 := gOut[off+s]
				xhat := bn.lastXhat[off+s]
				dGamma[c] += go1 * xhat
				dBeta[c] += go1
				dxhat := go1 * g[c]
				sumDxhat += dxhat
				sumDxhatXhat += dxhat * xhat
			}
		}
		scale := bn.lastInvStd[c] / n
		for bi := 0; bi < b; bi++ {
			off := (bi*ch + c) * spatial
			for s := 0; s < spatial; s++ {
				dxhat := gOut[off+s] * g[c]
				gIn[off+s] = scale * (n*dxhat - sumDxhat - bn.lastXhat[off+s]*sumDxhatXhat)
			}
		}
	}
	bn.gamma.AccumulateGrad(dGamma)
	bn.beta.AccumulateGrad(dBeta)
	return gradInput
}

// Parameters returns the scale and shift vectors.
func (bn *BatchNorm) Parameters() []*tensor.Tensor {
	return []*tensor.Tensor{bn.gamma, bn.beta}
}

// ---------------------------------------------------------------------------
// LeakyReLU
// ---------------------------------------------------------------------------

// LeakyReLU applies max(x, slope*x) element-wise.
type LeakyReLU struct {
	slope     float32
	lastInput *tensor.Tensor
}

// NewLeakyReLU creates the activation with the given negative slope.
func NewLeakyReLU(slope float32) *LeakyReLU { return &LeakyReLU{slope: slope} }

// Forward applies the activation.
func (l *LeakyReLU) Forward(input *tensor.Tensor) *tensor.Tensor {
	l.lastInput = input
	out := tensor.New(input.Shape(), tensor.F32)
	src, dst := input.DataPtr(), out.DataPtr()
	for i, x := range src {
		if x >= 0 {
			dst[i] = x
		} else {
			dst[i] = l.slope * x
		}
	}
	return out
}

// Backward routes the gradient with unit gain on the positive side and
// slope gain on the negative side.
func (l *LeakyReLU) Backward(gradOutput *tensor.Tensor) *tensor.Tensor {
	grad := tensor.New(gradOutput.Shape(), tensor.F32)
	src := l.lastInput.DataPtr()
	gOut, gIn := gradOutput.DataPtr(), grad.DataPtr()
	for i, x := range src {
		if x >= 0 {
			gIn[i] = gOut[i]
		} else {
			gIn[i] = l.slope * gOut[i]
		}
	}
	return grad
}

// Parameters returns nil; the activation has no learnable state.
func (l *LeakyReLU) Parameters() []*tensor.Tensor { return nil }

// ---------------------------------------------------------------------------
// Dropout
// ---------------------------------------------------------------------------

// Dropout zeroes elements with probability p during training and rescales
// survivors by 1/(1-p) (inverted dropout), so evaluation is the identity.
type Dropout struct {
	p        float32
	training bool
	mask     []float32
	rng      *rand.Rand
}

// NewDropout creates an element-wise dropout layer.
func NewDropout(p float32) *Dropout {
	return &Dropout{p: p, training: true, rng: rand.New(rand.NewSource(rand.Int63()))}
}

// SetTraining enables or disables masking.
func (d *Dropout) SetTraining(training bool) { d.training = training }

// Forward applies the mask in training mode, identity otherwise.
func (d *Dropout) Forward(input *tensor.Tensor) *tensor.Tensor {
	if !d.training || d.p <= 0 {
		d.mask = nil
		return input
	}
	out := tensor.New(input.Shape(), tensor.F32)
	src, dst := input.DataPtr(), out.DataPtr()
	if len(d.mask) != len(src) {
		d.mask = make([]float32, len(src))
	}
	keep := 1 - d.p
	inv := 1 / keep
	for i := range src {
		if d.rng.Float32() < keep {
			d.mask[i] = inv
		} else {
			d.mask[i] = 0
		}
		dst[i] = src[i] * d.mask[i]
	}
	return out
}

// Backward applies the same mask to the gradient.
func (d *Dropout) Backward(gradOutput *tensor.Tensor) *tensor.Tensor {
	if d.mask == nil {
		return gradOutput
	}
	grad := tensor.New(gradOutput.Shape(), tensor.F32)
	gOut, gIn := gradOutput.DataPtr(), grad.DataPtr()
	for i := range gOut {
		gIn[i] = gOut[i] * d.mask[i]
	}
	return grad
}

// Parameters returns nil; dropout has no learnable state.
func (d *Dropout) Parameters() []*tensor.Tensor { return nil }

// Dropout2D zeroes whole channels with probability p during training
// (spatial dropout). Adjacent activations within a feature map are strongly
// correlated, so element-wise dropout barely regularizes a conv stack;
// dropping entire maps does.
type Dropout2D struct {
	p        float32
	training bool
	mask     []float32 // one entry per (batch, channel)
	rng      *rand.Rand
}

// NewDropout2D creates a channel dropout layer.
func NewDropout2D(p float32) *Dropout2D {
	return &Dropout2D{p: p, training: true, rng: rand.New(rand.NewSource(rand.Int63()))}
}

// SetTraining enables or disables masking.
func (d *Dropout2D) SetTraining(training bool) { d.training = training }

// Forward drops whole channels. Input: [b, c, ...spatial].
func (d *Dropout2D) Forward(input *tensor.Tensor) *tensor.Tensor {
	if !d.training || d.p <= 0 {
		d.mask = nil
		return input
	}
	dims := input.Shape().DimsRef()
	b, ch := dims[0], dims[1]
	spatial := input.Shape().Numel() / (b * ch)

	out := tensor.New(input.Shape(), tensor.F32)
	src, dst := input.DataPtr(), out.DataPtr()
	if len(d.mask) != b*ch {
		d.mask = make([]float32, b*ch)
	}
	keep := 1 - d.p
	inv := 1 / keep
	for i := range d.mask {
		if d.rng.Float32() < keep {
			d.mask[i] = inv
		} else {
			d.mask[i] = 0
		}
		m := d.mask[i]
		row := src[i*spatial : (i+1)*spatial]
		dRow := dst[i*spatial : (i+1)*spatial]
		for s := range row {
			dRow[s] = row[s] * m
		}
	}
	return out
}

// Backward applies the channel mask to the gradient.
func (d *Dropout2D) Backward(gradOutput *tensor.Tensor) *tensor.Tensor {
	if d.mask == nil {
		return gradOutput
	}
	dims := gradOutput.Shape().DimsRef()
	b, ch := dims[0], dims[1]
	spatial := gradOutput.Shape().Numel() / (b * ch)

	grad := tensor.New(gradOutput.Shape(), tensor.F32)
	gOut, gIn := gradOutput.DataPtr(), grad.DataPtr()
	for i := 0; i < b*ch; i++ {
		m := d.mask[i]
		row := gOut[i*spatial : (i+1)*spatial]
		dRow := gIn[i*spatial : (i+1)*spatial]
		for s := range row {
			dRow[s] = row[s] * m
		}
	}
	return grad
}

// Parameters returns nil; dropout has no learnable state.
func (d *Dropout2D) Parameters() []*tensor.Tensor { return nil }

// ---------------------------------------------------------------------------
// MaxOverHeight
// ---------------------------------------------------------------------------

// MaxOverHeight collapses the Doppler (height) axis by taking the maximum
// per (batch, channel, width) column: [b, c, h, w] -> [b, c, w].
// The argmax positions are cached so Backward can scatter the gradient to
// the winning rows only.
type MaxOverHeight struct {
	lastArg   []int
	lastShape tensor.Shape
}

// NewMaxOverHeight creates the reduction.
func NewMaxOverHeight() *MaxOverHeight { return &MaxOverHeight{} }

// Forward reduces over the height axis.
func (m *MaxOverHeight) Forward(input *tensor.Tensor) *tensor.Tensor {
	dims := input.Shape().DimsRef()
	b, c, h, w := dims[0], dims[1], dims[2], dims[3]
	m.lastShape = input.Shape()
	if len(m.lastArg) != b*c*w {
		m.lastArg = make([]int, b*c*w)
	}

	output := tensor.New(tensor.NewShape(b, c, w), tensor.F32)
	in, out := input.DataPtr(), output.DataPtr()
	for bc := 0; bc < b*c; bc++ {
		base := bc * h * w
		for x := 0; x < w; x++ {
			best, arg := tensor.NegInf, 0
			for y := 0; y < h; y++ {
				v := in[base+y*w+x]
				if v > best {
					best, arg = v, y
				}
			}
			out[bc*w+x] = best
			m.lastArg[bc*w+x] = arg
		}
	}
	return output
}

// Backward scatters each gradient element to the row that won the max.
func (m *MaxOverHeight) Backward(gradOutput *tensor.Tensor) *tensor.Tensor {
	dims := m.lastShape.DimsRef()
	b, c, h, w := dims[0], dims[1], dims[2], dims[3]
	grad := tensor.Zeros(m.lastShape, tensor.F32)
	gOut, gIn := gradOutput.DataPtr(), grad.DataPtr()
	for bc := 0; bc < b*c; bc++ {
		base := bc * h * w
		for x := 0; x < w; x++ {
			gIn[base+m.lastArg[bc*w+x]*w+x] = gOut[bc*w+x]
		}
	}
	return grad
}

// Parameters returns nil; the reduction has no learnable state.
func (m *MaxOverHeight) Parameters() []*tensor.Tensor { return nil }
