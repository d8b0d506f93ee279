// SPDX-License-Identifier: CC-BY-NC-SA-4.0
// Copyright (c) 2025-2026 fumi-engineer

package train

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/fumi-engineer/cfarnet/dataset"
	"github.com/fumi-engineer/cfarnet/eval"
	"github.com/fumi-engineer/cfarnet/nn"
	"github.com/fumi-engineer/cfarnet/signal"
	"github.com/fumi-engineer/cfarnet/tensor"
)

// Controller owns one training run: the model, the corruption pipeline, the
// loaders, the optimizer state, and the checkpoint policy.
type Controller struct {
	opts     Options
	model    *nn.PeakNet
	frontend *signal.Frontend
	noise    *signal.NoiseModel
	sampler  *signal.PowerSampler
	smoother *nn.TargetSmoother
	loss     *nn.LossEngine
	eval     *eval.Evaluator

	trainLoader *dataset.Loader
	valLoader   *dataset.Loader

	ckptPath string
	plot     Plotter
	log      *slog.Logger
}

// NewController wires a run together. width is the subcarrier axis length
// (M+1). ckptPath is where the best model is written; plot may be nil to
// disable visualization.
func NewController(opts Options, model *nn.PeakNet, frontend *signal.Frontend, noise *signal.NoiseModel,
	trainLoader, valLoader *dataset.Loader, width int, ckptPath string, plot Plotter, log *slog.Logger) (*Controller, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}

	sampler, err := signal.NewPowerSampler(opts.PowerPolicy, opts.TrainPowerLo, opts.TrainPowerHi, uint64(opts.Seed))
	if err != nil {
		return nil, err
	}
	lossEngine, err := nn.NewLossEngine(opts.LossMode)
	if err != nil {
		return nil, err
	}
	smoother := nn.NewTargetSmoother(width, opts.Sigma)

	return &Controller{
		opts:     opts,
		model:    model,
		frontend: frontend,
		noise:    noise,
		sampler:  sampler,
		smoother: smoother,
		loss:     lossEngine,
		eval: &eval.Evaluator{
			Model:     model,
			Frontend:  frontend,
			Noise:     noise,
			Smoother:  smoother,
			Loss:      lossEngine,
			TopK:      opts.TopK,
			Tolerance: opts.Tolerance,
			Log:       log,
		},
		trainLoader: trainLoader,
		valLoader:   valLoader,
		ckptPath:    ckptPath,
		plot:        plot,
		log:         log,
	}, nil
}

// Evaluator returns the controller's evaluator, for the final held-out pass.
func (c *Controller) Evaluator() *eval.Evaluator { return c.eval }

// Run trains until the epoch budget is exhausted or validation loss at the
// critical power stops improving for opts.Patience epochs. The best model by
// critical-power validation loss is kept at the checkpoint path.
func (c *Controller) Run() (*History, error) {
	optimizer := NewAdamW(c.model.Parameters(), c.opts)
	schedule := NewCosineSchedule(c.opts.LR, c.opts.Epochs)
	critical := c.opts.CriticalPower()

	hist := &History{BestEpoch: -1, BestLoss: math.Inf(1)}
	badEpochs := 0

	for epoch := 0; epoch < c.opts.Epochs; epoch++ {
		lr := schedule.At(epoch)
		trainLoss, trainRecall, skipped, err := c.trainEpoch(epoch, lr, optimizer)
		if err != nil {
			return hist, err
		}

		rec := EpochRecord{Epoch: epoch, LR: lr, TrainLoss: trainLoss, TrainRecall: trainRecall, SkippedBatches: skipped}
		for i, power := range c.opts.ValPowers {
			res, viz, err := c.eval.Evaluate(c.valLoader, power, i == 0)
			if err != nil {
				return hist, err
			}
			rec.Val = append(rec.Val, res)
			if c.plot != nil && len(viz) > 0 {
				c.plot.Predictions(epoch, power, viz)
			}
		}
		hist.Epochs = append(hist.Epochs, rec)

		crit, _ := rec.ValAt(critical)
		c.log.Info("epoch complete",
			"epoch", epoch,
			"lr", lr,
			"train_loss", trainLoss,
			"train_recall", trainRecall,
			"skipped_batches", skipped,
			"val_loss", crit.Loss,
			"val_recall", crit.Recall,
			"power_dbm", critical)

		// A power level with no valid batches cannot claim an improvement.
		if crit.ValidBatches > 0 && crit.Loss < hist.BestLoss {
			hist.BestLoss = crit.Loss
			hist.BestEpoch = epoch
			badEpochs = 0
			if c.ckptPath != "" {
				// A failed write is not worth killing a long run over;
				// the next improvement retries.
				if err := c.model.SaveCheckpoint(c.ckptPath); err != nil {
					c.log.Warn("checkpoint save failed", "path", c.ckptPath, "error", err)
				} else {
					c.log.Info("checkpoint saved", "path", c.ckptPath, "val_loss", crit.Loss)
				}
			}
		} else {
			badEpochs++
			if badEpochs >= c.opts.Patience {
				c.log.Info("early stopping",
					"epoch", epoch,
					"patience", c.opts.Patience,
					"best_epoch", hist.BestEpoch,
					"best_loss", hist.BestLoss)
				hist.Stopped = true
				break
			}
		}
	}

	if c.plot != nil {
		c.plot.Curves(hist)
	}
	return hist, nil
}

// trainEpoch makes one shuffled pass over the training loader, returning the
// mean loss and recall over valid batches. Batches that produce a non-finite
// loss or logits are skipped without an optimizer step.
func (c *Controller) trainEpoch(epoch int, lr float64, optimizer *AdamW) (float64, float64, int, error) {
	c.model.SetTraining(true)
	c.trainLoader.Reset()

	lossSum, recallSum := 0.0, 0.0
	valid, skipped, batchIdx := 0, 0, 0

	for c.trainLoader.Scan() {
		batch := c.trainLoader.Batch()
		batchIdx++

		power := c.sampler.Sample()
		noisy := make([]*tensor.CMatrix, batch.Size())
		for i, echo := range batch.Echoes {
			noisy[i] = c.noise.Corrupt(echo, power)
		}
		features, err := c.frontend.Features(noisy)
		if err != nil {
			return 0, 0, skipped, err
		}

		if epoch == 0 && batchIdx == 1 && c.plot != nil {
			c.exportHeatmaps(features, batch.Labels)
		}

		logits := c.model.Forward(features)
		targets := c.smoother.SmoothBatch(batch.Labels)
		loss, grad := c.loss.Loss(logits, targets)

		if math.IsNaN(float64(loss)) || math.IsInf(float64(loss), 0) || !logits.IsFinite() {
			skipped++
			c.log.Warn("skipping non-finite training batch",
				"epoch", epoch, "batch", batchIdx, "power_dbm", power, "loss", loss)
			continue
		}

		c.model.ZeroGrad()
		c.model.Backward(grad)
		optimizer.Update(lr)

		lossSum += float64(loss)
		recallSum += nn.RecallAtK(logits.Sigmoid(), batch.Labels, c.opts.TopK, c.opts.Tolerance)
		valid++
	}
	if err := c.trainLoader.Err(); err != nil {
		return 0, 0, skipped, err
	}

	if valid == 0 {
		return 0, 0, skipped, nil
	}
	return lossSum / float64(valid), recallSum / float64(valid), skipped, nil
}

// exportHeatmaps renders the first few input spectra of the run, a quick
// visual check that the frontend and labels line up.
func (c *Controller) exportHeatmaps(features *tensor.Tensor, labels [][]int) {
	n := features.Shape().At(0)
	if n > 10 {
		n = 10
	}
	for i := 0; i < n; i++ {
		c.plot.Heatmap(fmt.Sprintf("input_spectrum_%02d", i), c.frontend.SpectrumImage(features, i), labels[i])
	}
}
