// SPDX-License-Identifier: CC-BY-NC-4.0
// Copyright (c) 2025-2026 fumi-engineer

// Package plot renders training diagnostics (loss/recall curves, prediction
// overlays, input spectrum heatmaps) to PNG files with gonum/plot.
package plot

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/fumi-engineer/cfarnet/eval"
	"github.com/fumi-engineer/cfarnet/train"
)

// maxPredictionFiles caps how many per-sample overlays one epoch writes.
const maxPredictionFiles = 4

// Gonum renders diagnostics into an output directory. It implements
// train.Plotter; failures are logged, never propagated, so a headless or
// disk-full box cannot kill a training run.
type Gonum struct {
	dir string
	log *slog.Logger
}

// NewGonum creates the renderer, making the output directory if needed.
func NewGonum(dir string, log *slog.Logger) (*Gonum, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Gonum{dir: dir, log: log}, nil
}

// save writes p to name inside the output directory.
func (g *Gonum) save(p *plot.Plot, name string) {
	path := filepath.Join(g.dir, name)
	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		g.log.Warn("plot save failed", "path", path, "error", err)
	}
}

// Curves renders loss, recall, and learning-rate curves for the run.
func (g *Gonum) Curves(h *train.History) {
	if len(h.Epochs) == 0 {
		return
	}
	epochs := make([]float64, len(h.Epochs))
	trainLoss := make(plotter.XYs, len(h.Epochs))
	trainRecall := make(plotter.XYs, len(h.Epochs))
	lr := make(plotter.XYs, len(h.Epochs))
	for i, rec := range h.Epochs {
		epochs[i] = float64(rec.Epoch)
		trainLoss[i] = plotter.XY{X: epochs[i], Y: rec.TrainLoss}
		trainRecall[i] = plotter.XY{X: epochs[i], Y: rec.TrainRecall}
		lr[i] = plotter.XY{X: epochs[i], Y: rec.LR}
	}

	lossPlot := plot.New()
	lossPlot.Title.Text = "Loss"
	lossPlot.X.Label.Text = "epoch"
	lossPlot.Y.Label.Text = "loss"
	args := []interface{}{"train", trainLoss}

	recallPlot := plot.New()
	recallPlot.Title.Text = "Recall"
	recallPlot.X.Label.Text = "epoch"
	recallPlot.Y.Label.Text = "recall"
	recallArgs := []interface{}{"train", trainRecall}

	for _, power := range h.PowerLevels() {
		valLoss := make(plotter.XYs, 0, len(h.Epochs))
		valRecall := make(plotter.XYs, 0, len(h.Epochs))
		for i, rec := range h.Epochs {
			if res, ok := rec.ValAt(power); ok && res.ValidBatches > 0 {
				valLoss = append(valLoss, plotter.XY{X: epochs[i], Y: res.Loss})
				valRecall = append(valRecall, plotter.XY{X: epochs[i], Y: res.Recall})
			}
		}
		name := fmt.Sprintf("val %+g dBm", power)
		args = append(args, name, valLoss)
		recallArgs = append(recallArgs, name, valRecall)
	}

	if err := plotutil.AddLinePoints(lossPlot, args...); err != nil {
		g.log.Warn("loss curve render failed", "error", err)
	} else {
		g.save(lossPlot, "loss_curves.png")
	}
	if err := plotutil.AddLinePoints(recallPlot, recallArgs...); err != nil {
		g.log.Warn("recall curve render failed", "error", err)
	} else {
		g.save(recallPlot, "recall_curves.png")
	}

	lrPlot := plot.New()
	lrPlot.Title.Text = "Learning rate"
	lrPlot.X.Label.Text = "epoch"
	lrPlot.Y.Label.Text = "lr"
	if err := plotutil.AddLinePoints(lrPlot, "lr", lr); err != nil {
		g.log.Warn("lr curve render failed", "error", err)
	} else {
		g.save(lrPlot, "lr_schedule.png")
	}
}

// Predictions overlays predicted probabilities on the smoothed target for
// the first few samples of a validation batch.
func (g *Gonum) Predictions(epoch int, powerDBm float64, pairs []eval.PredTarget) {
	n := len(pairs)
	if n > maxPredictionFiles {
		n = maxPredictionFiles
	}
	for s := 0; s < n; s++ {
		pair := pairs[s]
		probs := make(plotter.XYs, len(pair.Probs))
		target := make(plotter.XYs, len(pair.Target))
		for i := range pair.Probs {
			probs[i] = plotter.XY{X: float64(i), Y: float64(pair.Probs[i])}
		}
		for i := range pair.Target {
			target[i] = plotter.XY{X: float64(i), Y: float64(pair.Target[i])}
		}

		p := plot.New()
		p.Title.Text = fmt.Sprintf("Epoch %d, %+g dBm, sample %d (peaks %v)", epoch, powerDBm, s, pair.Labels)
		p.X.Label.Text = "subcarrier index"
		p.Y.Label.Text = "score"
		if err := plotutil.AddLinePoints(p, "predicted", probs, "target", target); err != nil {
			g.log.Warn("prediction render failed", "epoch", epoch, "sample", s, "error", err)
			continue
		}
		g.save(p, fmt.Sprintf("predictions_e%03d_p%+g_s%d.png", epoch, powerDBm, s))
	}
}

// spectrumGrid adapts a [rows][cols] image to the plotter heatmap interface.
type spectrumGrid struct {
	img [][]float64
}

func (s spectrumGrid) Dims() (int, int) {
	if len(s.img) == 0 {
		return 0, 0
	}
	return len(s.img[0]), len(s.img)
}
func (s spectrumGrid) Z(c, r int) float64 { return s.img[r][c] }
func (s spectrumGrid) X(c int) float64    { return float64(c) }
func (s spectrumGrid) Y(r int) float64    { return float64(r) }

// Heatmap renders one input spectrum image.
func (g *Gonum) Heatmap(name string, img [][]float64, peaks []int) {
	if len(img) == 0 || len(img[0]) == 0 {
		return
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s (peaks %v)", name, peaks)
	p.X.Label.Text = "subcarrier index"
	p.Y.Label.Text = "Doppler bin"
	p.Add(plotter.NewHeatMap(spectrumGrid{img: img}, palette.Heat(16, 1)))
	g.save(p, name+".png")
}

// Nop discards every plotting hook; used when visualization is disabled.
type Nop struct{}

// Curves implements train.Plotter.
func (Nop) Curves(*train.History) {}

// Predictions implements train.Plotter.
func (Nop) Predictions(int, float64, []eval.PredTarget) {}

// Heatmap implements train.Plotter.
func (Nop) Heatmap(string, [][]float64, []int) {}
