// SPDX-License-Identifier: CC-BY-NC-4.0
// Copyright (c) 2025-2026 fumi-engineer

package nn

import (
	"github.com/fumi-engineer/cfarnet/tensor"
)

// PeakNet maps a Doppler-spectrum feature map [b, 1, ns, m+1] to per-subcarrier
// peak logits [b, m+1].
//
// Four conv blocks widen the channels 1 -> 64 -> 128 -> 256 -> 512 while the
// strided blocks halve the Doppler axis; the subcarrier axis keeps its full
// resolution throughout because that is the axis being scored. A max over the
// remaining Doppler rows collapses each feature map to a per-subcarrier
// profile, and a three-layer 1D head turns the 512-channel profile into one
// logit per position.
type PeakNet struct {
	layers []Layer
}

// leakySlope is the negative slope of every activation in the network.
const leakySlope = 0.1

// NewPeakNet builds the network for the given architecture config.
func NewPeakNet(cfg Config) (*PeakNet, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	hidden := cfg.HiddenDim
	p := cfg.DropoutRate

	layers := []Layer{
		// Feature blocks. Stride (2, 1) halves Doppler, preserves subcarriers.
		NewConv2D(1, 64, 3, 3, 1, 1, 1, 1, false, leakySlope),
		NewBatchNorm(64),
		NewLeakyReLU(leakySlope),

		NewConv2D(64, 128, 3, 3, 2, 1, 1, 1, false, leakySlope),
		NewBatchNorm(128),
		NewLeakyReLU(leakySlope),
		NewDropout2D(p),

		NewConv2D(128, 256, 3, 3, 2, 1, 1, 1, false, leakySlope),
		NewBatchNorm(256),
		NewLeakyReLU(leakySlope),
		NewDropout2D(p),

		NewConv2D(256, 512, 3, 3, 2, 1, 1, 1, false, leakySlope),
		NewBatchNorm(512),
		NewLeakyReLU(leakySlope),
		NewDropout2D(p),

		NewMaxOverHeight(),

		// Prediction head over the subcarrier axis.
		NewConv1D(512, hidden, 3, 1, false, leakySlope),
		NewBatchNorm(hidden),
		NewLeakyReLU(leakySlope),
		NewDropout(p),

		NewConv1D(hidden, hidden/2, 3, 1, false, leakySlope),
		NewBatchNorm(hidden / 2),
		NewLeakyReLU(leakySlope),
		NewDropout(p),

		NewConv1D(hidden/2, 1, 1, 0, true, leakySlope),
	}

	// The final layer starts near zero so initial logits sit close to a
	// uniform prior instead of inheriting the Kaiming variance.
	final := layers[len(layers)-1].(*Conv1D)
	w := final.Weight().DataPtr()
	small := tensor.RandnWithStd(final.Weight().Shape(), tensor.F32, 0.01)
	copy(w, small.DataPtr())

	return &PeakNet{layers: layers}, nil
}

// Forward runs the network. Input: [b, 1, ns, m+1]. Output logits: [b, m+1].
func (n *PeakNet) Forward(input *tensor.Tensor) *tensor.Tensor {
	x := input
	for _, l := range n.layers {
		x = l.Forward(x)
	}
	// [b, 1, m+1] -> [b, m+1]
	dims := x.Shape().DimsRef()
	return x.Reshape(tensor.NewShape(dims[0], dims[2]))
}

// Backward propagates a logit gradient [b, m+1] through the network and
// accumulates parameter gradients. The returned input gradient is discarded
// by callers; the feature frontend has no learnable state.
func (n *PeakNet) Backward(gradLogits *tensor.Tensor) *tensor.Tensor {
	dims := gradLogits.Shape().DimsRef()
	g := gradLogits.Reshape(tensor.NewShape(dims[0], 1, dims[1]))
	for i := len(n.layers) - 1; i >= 0; i-- {
		g = n.layers[i].Backward(g)
	}
	return g
}

// Parameters returns all learnable tensors in layer order.
func (n *PeakNet) Parameters() []*tensor.Tensor {
	var params []*tensor.Tensor
	for _, l := range n.layers {
		params = append(params, l.Parameters()...)
	}
	return params
}

// SetTraining switches every mode-dependent layer between training and
// evaluation behavior.
func (n *PeakNet) SetTraining(training bool) {
	for _, l := range n.layers {
		if m, ok := l.(Modal); ok {
			m.SetTraining(training)
		}
	}
}

// ZeroGrad clears accumulated gradients on every parameter.
func (n *PeakNet) ZeroGrad() {
	for _, p := range n.Parameters() {
		p.ZeroGrad()
	}
}
