// SPDX-License-Identifier: CC-BY-NC-4.0
// Copyright (c) 2025-2026 fumi-engineer

package nn

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/mdobak/go-xerrors"

	"github.com/fumi-engineer/cfarnet/tensor"
)

// paramBlob is the serialized form of one parameter tensor.
type paramBlob struct {
	Shape []int
	Data  []float32
}

// checkpointFile is the on-disk gob payload: parameters in the model's
// canonical order plus the batch norm running statistics, which are state
// but not parameters.
type checkpointFile struct {
	Params  []paramBlob
	RunMean [][]float32
	RunVar  [][]float32
}

// batchNorms returns the model's batch norm layers in network order.
func (n *PeakNet) batchNorms() []*BatchNorm {
	var bns []*BatchNorm
	for _, l := range n.layers {
		if bn, ok := l.(*BatchNorm); ok {
			bns = append(bns, bn)
		}
	}
	return bns
}

// SaveCheckpoint writes the model weights and batch norm running statistics
// to path as a gob stream.
func (n *PeakNet) SaveCheckpoint(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return xerrors.New("create checkpoint", err)
	}
	defer f.Close()

	var cf checkpointFile
	for _, p := range n.Parameters() {
		data := make([]float32, len(p.DataPtr()))
		copy(data, p.DataPtr())
		cf.Params = append(cf.Params, paramBlob{Shape: p.Shape().Dims(), Data: data})
	}
	for _, bn := range n.batchNorms() {
		mean := make([]float32, len(bn.runMean))
		copy(mean, bn.runMean)
		variance := make([]float32, len(bn.runVar))
		copy(variance, bn.runVar)
		cf.RunMean = append(cf.RunMean, mean)
		cf.RunVar = append(cf.RunVar, variance)
	}
	if err := gob.NewEncoder(f).Encode(&cf); err != nil {
		return xerrors.New("encode checkpoint", err)
	}
	return nil
}

// LoadCheckpoint restores weights and running statistics saved by
// SaveCheckpoint. The model architecture must match the checkpoint.
func (n *PeakNet) LoadCheckpoint(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return xerrors.New("open checkpoint", err)
	}
	defer f.Close()

	var cf checkpointFile
	if err := gob.NewDecoder(f).Decode(&cf); err != nil {
		return xerrors.New("decode checkpoint", err)
	}

	params := n.Parameters()
	if len(cf.Params) != len(params) {
		return xerrors.New(fmt.Sprintf("checkpoint has %d parameters, model has %d", len(cf.Params), len(params)))
	}
	for i, blob := range cf.Params {
		want := params[i].Shape()
		got := tensor.NewShape(blob.Shape...)
		if !want.Equal(got) {
			return xerrors.New(fmt.Sprintf("parameter %d shape mismatch: checkpoint %v, model %v", i, got, want))
		}
		copy(params[i].DataPtr(), blob.Data)
	}

	bns := n.batchNorms()
	if len(cf.RunMean) != len(bns) || len(cf.RunVar) != len(bns) {
		return xerrors.New(fmt.Sprintf("checkpoint has %d batch norm states, model has %d", len(cf.RunMean), len(bns)))
	}
	for i, bn := range bns {
		if len(cf.RunMean[i]) != len(bn.runMean) || len(cf.RunVar[i]) != len(bn.runVar) {
			return xerrors.New(fmt.Sprintf("batch norm %d channel mismatch", i))
		}
		copy(bn.runMean, cf.RunMean[i])
		copy(bn.runVar, cf.RunVar[i])
	}
	return nil
}
