// SPDX-License-Identifier: CC-BY-NC-SA-4.0
// Copyright (c) 2025-2026 fumi-engineer

package train

import (
	"math"

	"github.com/fumi-engineer/cfarnet/tensor"
)

// adamState holds the first and second moment estimates for one parameter
// tensor.
type adamState struct {
	m []float32
	v []float32
}

// AdamW applies the decoupled weight decay Adam update:
//
//	m = beta1*m + (1-beta1)*g
//	v = beta2*v + (1-beta2)*g^2
//	m_hat = m / (1 - beta1^t)
//	v_hat = v / (1 - beta2^t)
//	w -= lr * (m_hat / (sqrt(v_hat) + eps) + weight_decay * w)
//
// The decay term multiplies the weight directly instead of joining the
// gradient, so it is not rescaled by the adaptive denominator.
type AdamW struct {
	params []*tensor.Tensor
	states []adamState
	opts   Options
	step   int
}

// NewAdamW creates optimizer state (zeroed moments) for the parameter set.
func NewAdamW(params []*tensor.Tensor, opts Options) *AdamW {
	states := make([]adamState, len(params))
	for i, p := range params {
		n := p.Shape().Numel()
		states[i] = adamState{m: make([]float32, n), v: make([]float32, n)}
	}
	return &AdamW{params: params, states: states, opts: opts}
}

// Step returns the number of updates applied so far.
func (o *AdamW) Step() int { return o.step }

// GlobalGradNorm returns the L2 norm of all parameter gradients combined.
func (o *AdamW) GlobalGradNorm() float64 {
	sumSq := 0.0
	for _, p := range o.params {
		if p.Grad == nil {
			continue
		}
		for _, g := range p.Grad {
			sumSq += float64(g) * float64(g)
		}
	}
	return math.Sqrt(sumSq)
}

// Update applies one optimizer step at the given learning rate, clipping
// the global gradient norm to opts.GradClip first. Parameters that received
// no gradient are skipped so their moments do not drift.
func (o *AdamW) Update(lr float64) {
	o.step++

	clipCoeff := 1.0
	if o.opts.GradClip > 0 {
		norm := o.GlobalGradNorm()
		if norm > o.opts.GradClip {
			clipCoeff = o.opts.GradClip / (norm + 1e-12)
		}
	}

	b1, b2 := o.opts.Beta1, o.opts.Beta2
	eps, wd := o.opts.Eps, o.opts.WeightDecay
	mCorr := 1.0 / (1.0 - math.Pow(b1, float64(o.step)))
	vCorr := 1.0 / (1.0 - math.Pow(b2, float64(o.step)))

	for i, param := range o.params {
		if param.Grad == nil {
			continue
		}
		w := param.DataPtr()
		st := &o.states[i]
		for j := range w {
			g := float64(param.Grad[j]) * clipCoeff
			m := b1*float64(st.m[j]) + (1-b1)*g
			v := b2*float64(st.v[j]) + (1-b2)*g*g
			st.m[j] = float32(m)
			st.v[j] = float32(v)
			w[j] -= float32(lr * (m*mCorr/(math.Sqrt(v*vCorr)+eps) + wd*float64(w[j])))
		}
	}
}
