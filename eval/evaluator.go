// SPDX-License-Identifier: CC-BY-NC-4.0
// Copyright (c) 2025-2026 fumi-engineer

// Package eval measures model quality on held-out data at fixed transmit
// power levels.
package eval

import (
	"log/slog"
	"math"

	"github.com/fumi-engineer/cfarnet/dataset"
	"github.com/fumi-engineer/cfarnet/nn"
	"github.com/fumi-engineer/cfarnet/signal"
	"github.com/fumi-engineer/cfarnet/tensor"
)

// Result aggregates one evaluation pass at a single power level.
type Result struct {
	PowerDBm     float64
	Loss         float64
	Recall       float64
	ValidBatches int
}

// PredTarget pairs one sample's predicted probabilities with its smoothed
// target and raw peak labels, for the prediction plots.
type PredTarget struct {
	Probs  []float32
	Target []float32
	Labels []int
}

// maxVizSamples caps how many prediction pairs one pass collects.
const maxVizSamples = 10

// Evaluator runs the full inference pipeline (noise injection, frontend,
// network, loss, recall) over a loader.
type Evaluator struct {
	Model    *nn.PeakNet
	Frontend *signal.Frontend
	Noise    *signal.NoiseModel
	Smoother *nn.TargetSmoother
	Loss     *nn.LossEngine
	TopK     int
	Tolerance int
	Log      *slog.Logger
}

// Evaluate makes one full pass over the loader at the given transmit power.
// Batches whose loss or logits go non-finite are skipped with a warning and
// excluded from the averages. When collectViz is true, prediction pairs from
// the first batch are returned for plotting.
func (e *Evaluator) Evaluate(loader *dataset.Loader, powerDBm float64, collectViz bool) (Result, []PredTarget, error) {
	log := e.Log
	if log == nil {
		log = slog.Default()
	}
	e.Model.SetTraining(false)

	res := Result{PowerDBm: powerDBm}
	var viz []PredTarget
	lossSum, recallSum := 0.0, 0.0
	batchIdx := 0

	loader.Reset()
	for loader.Scan() {
		batch := loader.Batch()
		batchIdx++

		noisy := make([]*tensor.CMatrix, batch.Size())
		for i, echo := range batch.Echoes {
			noisy[i] = e.Noise.Corrupt(echo, powerDBm)
		}
		features, err := e.Frontend.Features(noisy)
		if err != nil {
			return Result{}, nil, err
		}

		logits := e.Model.Forward(features)
		targets := e.Smoother.SmoothBatch(batch.Labels)
		loss, _ := e.Loss.Loss(logits, targets)

		if math.IsNaN(float64(loss)) || math.IsInf(float64(loss), 0) || !logits.IsFinite() {
			log.Warn("skipping non-finite evaluation batch",
				"power_dbm", powerDBm, "batch", batchIdx, "loss", loss)
			continue
		}

		// Per-position scores are sigmoid regardless of the training loss,
		// so recall and the prediction overlays read the same across modes.
		probs := logits.Sigmoid()
		recall := nn.RecallAtK(probs, batch.Labels, e.TopK, e.Tolerance)

		lossSum += float64(loss)
		recallSum += recall
		res.ValidBatches++

		if collectViz && viz == nil {
			viz = e.collectViz(probs, targets, batch.Labels)
		}
	}
	if err := loader.Err(); err != nil {
		return Result{}, nil, err
	}

	if res.ValidBatches > 0 {
		res.Loss = lossSum / float64(res.ValidBatches)
		res.Recall = recallSum / float64(res.ValidBatches)
	} else {
		log.Warn("no valid evaluation batches", "power_dbm", powerDBm)
	}
	return res, viz, nil
}

// collectViz copies the first few samples of a batch into prediction pairs.
func (e *Evaluator) collectViz(probs, targets *tensor.Tensor, labels [][]int) []PredTarget {
	dims := probs.Shape().DimsRef()
	b, w := dims[0], dims[1]
	if b > maxVizSamples {
		b = maxVizSamples
	}
	pData, tData := probs.DataPtr(), targets.DataPtr()

	out := make([]PredTarget, b)
	for i := 0; i < b; i++ {
		p := make([]float32, w)
		copy(p, pData[i*w:(i+1)*w])
		t := make([]float32, w)
		copy(t, tData[i*w:(i+1)*w])
		l := make([]int, len(labels[i]))
		copy(l, labels[i])
		out[i] = PredTarget{Probs: p, Target: t, Labels: l}
	}
	return out
}
