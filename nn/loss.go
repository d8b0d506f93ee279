// SPDX-License-Identifier: CC-BY-NC-4.0
// Copyright (c) 2025-2026 fumi-engineer

package nn

import (
	"fmt"
	"math"

	"github.com/fumi-engineer/cfarnet/tensor"
)

// TargetSmoother turns integer peak indices into a soft target vector over
// the m+1 subcarrier positions: one Gaussian bump per valid peak, summed,
// then normalized to unit mass. A sample with no valid peaks maps to the
// all-zero vector so both loss modes treat it as "nothing present".
type TargetSmoother struct {
	width int // m+1
	sigma float64
}

// NewTargetSmoother creates a smoother for the given vector width and
// Gaussian standard deviation (in subcarrier bins).
func NewTargetSmoother(width int, sigma float64) *TargetSmoother {
	return &TargetSmoother{width: width, sigma: sigma}
}

// Smooth returns the soft target for one sample. Negative indices (the pad
// sentinel) and indices outside [0, width) are dropped.
func (s *TargetSmoother) Smooth(peaks []int) []float32 {
	out := make([]float32, s.width)
	sum := 0.0
	for _, pk := range peaks {
		if pk < 0 || pk >= s.width {
			continue
		}
		for p := 0; p < s.width; p++ {
			d := (float64(p) - float64(pk)) / s.sigma
			v := math.Exp(-0.5 * d * d)
			out[p] += float32(v)
			sum += v
		}
	}
	if sum == 0 {
		return out
	}
	inv := float32(1.0 / sum)
	for i := range out {
		out[i] *= inv
	}
	return out
}

// SmoothBatch builds the [b, width] target tensor for a batch of label rows.
func (s *TargetSmoother) SmoothBatch(labels [][]int) *tensor.Tensor {
	b := len(labels)
	t := tensor.New(tensor.NewShape(b, s.width), tensor.F32)
	data := t.DataPtr()
	for i, row := range labels {
		copy(data[i*s.width:(i+1)*s.width], s.Smooth(row))
	}
	return t
}

// LossMode selects the training objective.
type LossMode string

const (
	// LossBCE treats each subcarrier as an independent binary detection
	// (sigmoid + binary cross-entropy on the soft target).
	LossBCE LossMode = "bce"
	// LossKL matches the predicted softmax distribution to the re-normalized
	// soft target with KL divergence.
	LossKL LossMode = "kl"
)

// LossEngine computes the training loss and the logit gradient in one pass.
// Both modes have closed-form gradients, so no graph is kept.
type LossEngine struct {
	mode LossMode
}

// NewLossEngine creates an engine for the given mode.
func NewLossEngine(mode LossMode) (*LossEngine, error) {
	switch mode {
	case LossBCE, LossKL:
		return &LossEngine{mode: mode}, nil
	default:
		return nil, fmt.Errorf("unknown loss mode %q (want %q or %q)", mode, LossBCE, LossKL)
	}
}

// Loss computes the scalar loss and the gradient with respect to the logits.
// logits and targets are both [b, width].
func (e *LossEngine) Loss(logits, targets *tensor.Tensor) (float32, *tensor.Tensor) {
	switch e.mode {
	case LossKL:
		return e.klLoss(logits, targets)
	default:
		return e.bceLoss(logits, targets)
	}
}

// bceLoss is the numerically stable binary cross-entropy with logits:
//
//	l(x, t) = max(x, 0) - x*t + log(1 + exp(-|x|))
//
// averaged over every element. Gradient: (sigmoid(x) - t) / n.
func (e *LossEngine) bceLoss(logits, targets *tensor.Tensor) (float32, *tensor.Tensor) {
	x, t := logits.DataPtr(), targets.DataPtr()
	n := float64(len(x))
	grad := tensor.New(logits.Shape(), tensor.F32)
	g := grad.DataPtr()

	total := 0.0
	for i := range x {
		xi, ti := float64(x[i]), float64(t[i])
		total += math.Max(xi, 0) - xi*ti + math.Log1p(math.Exp(-math.Abs(xi)))
		sig := 1.0 / (1.0 + math.Exp(-xi))
		g[i] = float32((sig - ti) / n)
	}
	return float32(total / n), grad
}

// klLoss matches log-softmax predictions against the target re-normalized to
// a distribution, with batchmean reduction:
//
//	l = (1/b) * sum_i sum_p t'[i,p] * (log t'[i,p] - logsoftmax(x)[i,p])
//
// Gradient: (softmax(x) - t') / b. An all-zero target row stays all-zero
// after re-normalization (epsilon in the denominator) and contributes only
// the softmax term to the gradient.
func (e *LossEngine) klLoss(logits, targets *tensor.Tensor) (float32, *tensor.Tensor) {
	dims := logits.Shape().DimsRef()
	b, w := dims[0], dims[1]
	x, t := logits.DataPtr(), targets.DataPtr()
	grad := tensor.New(logits.Shape(), tensor.F32)
	g := grad.DataPtr()

	total := 0.0
	for i := 0; i < b; i++ {
		xr := x[i*w : (i+1)*w]
		tr := t[i*w : (i+1)*w]

		tSum := 0.0
		for _, v := range tr {
			tSum += float64(v)
		}
		tSum += 1e-9

		// log-softmax with max subtraction.
		maxX := float64(xr[0])
		for _, v := range xr[1:] {
			if float64(v) > maxX {
				maxX = float64(v)
			}
		}
		expSum := 0.0
		for _, v := range xr {
			expSum += math.Exp(float64(v) - maxX)
		}
		logZ := maxX + math.Log(expSum)

		for p := 0; p < w; p++ {
			tp := float64(tr[p]) / tSum
			logp := float64(xr[p]) - logZ
			if tp > 0 {
				total += tp * (math.Log(tp) - logp)
			}
			soft := math.Exp(logp)
			g[i*w+p] = float32((soft - tp) / float64(b))
		}
	}
	return float32(total / float64(b)), grad
}
