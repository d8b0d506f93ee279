// SPDX-License-Identifier: CC-BY-NC-4.0
// Copyright (c) 2025-2026 fumi-engineer

// Command train_cfarnet trains the peak-index estimator on a chunked echo
// archive and reports held-out recall at fixed transmit power levels.
//
// Usage:
//
//	train_cfarnet -data-dir /path/to/archive [flags]
//
// The archive layout is system_params.npz + trajectory_data.npz +
// echoes/echo_chunk_<i>.npy. The first 15% of samples are held out for
// test, the next 15% for validation, the rest train.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fumi-engineer/cfarnet/dataset"
	"github.com/fumi-engineer/cfarnet/eval"
	"github.com/fumi-engineer/cfarnet/nn"
	"github.com/fumi-engineer/cfarnet/plot"
	"github.com/fumi-engineer/cfarnet/signal"
	"github.com/fumi-engineer/cfarnet/train"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

// parsePowers parses a comma-separated dBm list like "-10,0,10".
func parsePowers(s string) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("bad power level %q: %w", part, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// summary is the JSON run report written next to the plots.
type summary struct {
	Options    train.Options `json:"options"`
	BestEpoch  int           `json:"best_epoch"`
	BestLoss   float64       `json:"best_val_loss"`
	Stopped    bool          `json:"early_stopped"`
	EpochsRun  int           `json:"epochs_run"`
	TestResult []eval.Result `json:"test_results"`
}

func run() error {
	opts := train.DefaultOptions()

	dataDir := flag.String("data-dir", "", "echo archive directory (required)")
	outDir := flag.String("out-dir", "runs", "output directory for checkpoint, plots, and summary")
	ckpt := flag.String("checkpoint", "", "checkpoint path (default <out-dir>/best_model.gob)")
	testOnly := flag.Bool("test-only", false, "skip training, evaluate an existing checkpoint on the test split")
	noPlots := flag.Bool("no-plots", false, "disable PNG diagnostics")
	verbose := flag.Bool("v", false, "debug logging")

	flag.IntVar(&opts.Epochs, "epochs", opts.Epochs, "training epochs")
	flag.IntVar(&opts.BatchSize, "batch-size", opts.BatchSize, "samples per batch")
	flag.Float64Var(&opts.LR, "lr", opts.LR, "initial learning rate")
	flag.Float64Var(&opts.WeightDecay, "weight-decay", opts.WeightDecay, "AdamW weight decay")
	flag.Float64Var(&opts.GradClip, "clip", opts.GradClip, "max global gradient norm (0 disables)")
	flag.IntVar(&opts.Patience, "patience", opts.Patience, "early stopping patience in epochs")
	flag.Float64Var(&opts.Sigma, "sigma", opts.Sigma, "target Gaussian width in bins")
	flag.IntVar(&opts.TopK, "top-k", opts.TopK, "recall cutoff")
	flag.IntVar(&opts.Tolerance, "tolerance", opts.Tolerance, "recall hit tolerance in bins")
	flag.Float64Var(&opts.TrainPowerLo, "power-lo", opts.TrainPowerLo, "training power range low, dBm")
	flag.Float64Var(&opts.TrainPowerHi, "power-hi", opts.TrainPowerHi, "training power range high, dBm")
	flag.Int64Var(&opts.Seed, "seed", opts.Seed, "shuffle and noise seed")

	lossMode := flag.String("loss", string(opts.LossMode), "loss mode: bce or kl")
	powerPolicy := flag.String("power-policy", string(opts.PowerPolicy), "power sampling policy: linear or dbm")
	valPowers := flag.String("val-powers", "-10,0,10", "comma-separated validation power levels, dBm")
	maxTargets := flag.Int("max-targets", 4, "label row width when the archive records no capacity")
	hidden := flag.Int("hidden", 512, "prediction head width")
	dropout := flag.Float64("dropout", 0.1, "dropout probability")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	if *dataDir == "" {
		flag.Usage()
		return errors.New("-data-dir is required")
	}
	opts.LossMode = nn.LossMode(*lossMode)
	opts.PowerPolicy = signal.PowerPolicy(*powerPolicy)
	powers, err := parsePowers(*valPowers)
	if err != nil {
		return err
	}
	if len(powers) > 0 {
		opts.ValPowers = powers
	}
	if err := opts.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}
	ckptPath := *ckpt
	if ckptPath == "" {
		ckptPath = filepath.Join(*outDir, "best_model.gob")
	}

	params, err := dataset.LoadSystemParams(filepath.Join(*dataDir, "system_params.npz"))
	if err != nil {
		return err
	}
	labels, err := dataset.LoadPeakLabels(filepath.Join(*dataDir, "trajectory_data.npz"))
	if err != nil {
		return err
	}
	capacity := labelCapacity(*maxTargets, params.MaxTargets, log)
	log.Info("archive loaded",
		"samples", len(labels),
		"subcarriers", params.M,
		"doppler_bins", params.Ns,
		"bandwidth_hz", params.Bandwidth,
		"max_targets", capacity)

	store, err := dataset.NewStore(*dataDir, params, log)
	if err != nil {
		return err
	}
	split := dataset.DefaultSplit(len(labels))
	if split.Test.Len() == 0 || split.Val.Len() == 0 || split.Train.Len() == 0 {
		return fmt.Errorf("archive too small to split: %d samples", len(labels))
	}
	trainDS, err := dataset.NewDataset(store, labels, split.Train.From, split.Train.To, capacity, log)
	if err != nil {
		return err
	}
	valDS, err := dataset.NewDataset(store, labels, split.Val.From, split.Val.To, capacity, log)
	if err != nil {
		return err
	}
	testDS, err := dataset.NewDataset(store, labels, split.Test.From, split.Test.To, capacity, log)
	if err != nil {
		return err
	}
	log.Info("split", "train", trainDS.Len(), "val", valDS.Len(), "test", testDS.Len())

	trainLoader := dataset.NewLoader(trainDS, opts.BatchSize, true, opts.Seed)
	valLoader := dataset.NewLoader(valDS, opts.BatchSize, false, 0)
	testLoader := dataset.NewLoader(testDS, opts.BatchSize, false, 0)

	model, err := nn.NewPeakNet(nn.Config{
		NumSubcarriers: params.M,
		DopplerBins:    params.Ns,
		HiddenDim:      *hidden,
		DropoutRate:    float32(*dropout),
	})
	if err != nil {
		return err
	}
	frontend := signal.NewFrontend(params.Ns, params.Width())
	noise := signal.NewNoiseModel(params.Bandwidth, uint64(opts.Seed))
	logReferenceSNR(testDS, noise, opts.ValPowers, log)

	var plotter train.Plotter = plot.Nop{}
	if !*noPlots {
		gp, err := plot.NewGonum(filepath.Join(*outDir, "plots"), log)
		if err != nil {
			return err
		}
		plotter = gp
	}

	ctl, err := train.NewController(opts, model, frontend, noise,
		trainLoader, valLoader, params.Width(), ckptPath, plotter, log)
	if err != nil {
		return err
	}

	var hist *train.History
	if *testOnly {
		if err := model.LoadCheckpoint(ckptPath); err != nil {
			return fmt.Errorf("-test-only needs a loadable checkpoint: %w", err)
		}
		log.Info("checkpoint loaded", "path", ckptPath)
	} else {
		hist, err = ctl.Run()
		if err != nil {
			return err
		}
		// Evaluate the best epoch's weights, not the last ones. If the
		// checkpoint is unreadable the live weights still stand.
		if hist.BestEpoch >= 0 {
			if err := model.LoadCheckpoint(ckptPath); err != nil {
				log.Warn("best checkpoint unreadable, testing live weights", "path", ckptPath, "error", err)
			}
		}
	}

	var results []eval.Result
	for _, power := range opts.ValPowers {
		res, _, err := ctl.Evaluator().Evaluate(testLoader, power, false)
		if err != nil {
			return err
		}
		log.Info("test", "power_dbm", power, "loss", res.Loss, "recall", res.Recall, "batches", res.ValidBatches)
		results = append(results, res)
	}

	sum := summary{Options: opts, TestResult: results}
	if hist != nil {
		sum.BestEpoch = hist.BestEpoch
		sum.BestLoss = hist.BestLoss
		sum.Stopped = hist.Stopped
		sum.EpochsRun = len(hist.Epochs)
	}
	return writeSummary(filepath.Join(*outDir, "summary.json"), sum)
}

// labelCapacity picks the label row width. The configured value wins; the
// count recorded in the archive is advisory and only worth a note when it
// disagrees.
func labelCapacity(configured, archive int, log *slog.Logger) int {
	if archive > 0 && archive != configured {
		log.Info("archive max target count differs from configured",
			"archive", archive, "configured", configured)
	}
	return configured
}

// logReferenceSNR reports the SNR a clean sample would have at each
// evaluation power, a sanity anchor for reading the recall numbers.
func logReferenceSNR(ds *dataset.Dataset, noise *signal.NoiseModel, powers []float64, log *slog.Logger) {
	if ds.Len() == 0 {
		return
	}
	echo, _, err := ds.At(0)
	if err != nil {
		log.Warn("reference SNR probe failed", "error", err)
		return
	}
	for _, p := range powers {
		log.Info("reference SNR", "power_dbm", p, "snr_db", noise.ReferenceSNR(echo, p))
	}
}

func writeSummary(path string, sum summary) error {
	data, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
