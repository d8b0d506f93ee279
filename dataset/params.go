// SPDX-License-Identifier: CC-BY-NC-4.0
// Copyright (c) 2025-2026 fumi-engineer

// Package dataset reads chunked radar echo archives: a system_params.npz
// describing the waveform, numbered .npy shards of complex echo matrices,
// and a trajectory_data.npz with the true peak indices per sample.
package dataset

import (
	"archive/zip"
	"fmt"
	"strings"

	"github.com/mdobak/go-xerrors"
	"github.com/sbinet/npyio"
)

// SystemParams describes the recorded waveform and the shard layout.
type SystemParams struct {
	// M is the subcarrier count; echoes and targets span M+1 positions.
	M int
	// Ns is the number of Doppler bins (OFDM symbols) per echo.
	Ns int
	// SamplesPerChunk is how many echoes each shard file holds.
	SamplesPerChunk int
	// Bandwidth is the signal bandwidth in Hz, used by the noise model.
	Bandwidth float64
	// MaxTargets is the recorded per-sample target capacity K, or 0 when
	// the archive does not state one.
	MaxTargets int
}

// Width returns M+1, the subcarrier axis length of one echo.
func (p SystemParams) Width() int { return p.M + 1 }

// npzArchive is a minimal reader over an .npz file. An .npz is a zip whose
// members are .npy arrays named after their keys.
type npzArchive struct {
	zr *zip.ReadCloser
}

func openNpz(path string) (*npzArchive, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	return &npzArchive{zr: zr}, nil
}

func (a *npzArchive) Close() error { return a.zr.Close() }

// member resolves key against the archive, tolerating the ".npy" suffix
// writers append to member names.
func (a *npzArchive) member(key string) *zip.File {
	for _, f := range a.zr.File {
		if f.Name == key || strings.TrimSuffix(f.Name, ".npy") == key {
			return f
		}
	}
	return nil
}

// scalar reads a 0-d or 1-element member, accepting float64 or int64
// storage. Archives written at different times disagree on the dtype of
// the scalar entries.
func (a *npzArchive) scalar(key string) (float64, bool) {
	_, flat, err := a.numeric(key)
	if err != nil || len(flat) == 0 {
		return 0, false
	}
	return flat[0], true
}

// numeric reads a member as float64 regardless of whether it was stored as
// float64 or int64, and returns its shape alongside the flat data.
func (a *npzArchive) numeric(key string) ([]int, []float64, error) {
	f := a.member(key)
	if f == nil {
		return nil, nil, xerrors.New(fmt.Sprintf("missing member %s", key))
	}
	rc, err := f.Open()
	if err != nil {
		return nil, nil, err
	}
	defer rc.Close()

	r, err := npyio.NewReader(rc)
	if err != nil {
		return nil, nil, err
	}
	shape := r.Header.Descr.Shape

	switch r.Header.Descr.Type {
	case "<i8", ">i8", "i8":
		var i []int64
		if err := r.Read(&i); err != nil {
			return nil, nil, err
		}
		out := make([]float64, len(i))
		for j, v := range i {
			out[j] = float64(v)
		}
		return shape, out, nil
	default:
		var out []float64
		if err := r.Read(&out); err != nil {
			return nil, nil, err
		}
		return shape, out, nil
	}
}

// LoadSystemParams reads system_params.npz.
//
// Required: M, Ns, a chunk size (samples_per_chunk or the older chunk_size),
// and a bandwidth (BW directly, or f_scs from which BW = f_scs * M).
// Optional: K, the per-sample target capacity.
func LoadSystemParams(path string) (SystemParams, error) {
	a, err := openNpz(path)
	if err != nil {
		return SystemParams{}, xerrors.New("open system params", err)
	}
	defer a.Close()

	var p SystemParams

	m, ok := a.scalar("M")
	if !ok {
		return SystemParams{}, xerrors.New(fmt.Sprintf("system params %s: missing M", path))
	}
	p.M = int(m)

	ns, ok := a.scalar("Ns")
	if !ok {
		return SystemParams{}, xerrors.New(fmt.Sprintf("system params %s: missing Ns", path))
	}
	p.Ns = int(ns)

	if spc, ok := a.scalar("samples_per_chunk"); ok {
		p.SamplesPerChunk = int(spc)
	} else if spc, ok := a.scalar("chunk_size"); ok {
		p.SamplesPerChunk = int(spc)
	} else {
		return SystemParams{}, xerrors.New(fmt.Sprintf("system params %s: missing samples_per_chunk/chunk_size", path))
	}

	if bw, ok := a.scalar("BW"); ok {
		p.Bandwidth = bw
	} else if fscs, ok := a.scalar("f_scs"); ok {
		p.Bandwidth = fscs * float64(p.M)
	} else {
		return SystemParams{}, xerrors.New(fmt.Sprintf("system params %s: missing BW/f_scs", path))
	}

	if k, ok := a.scalar("K"); ok {
		p.MaxTargets = int(k)
	}

	if p.M <= 0 || p.Ns <= 0 || p.SamplesPerChunk <= 0 || p.Bandwidth <= 0 {
		return SystemParams{}, xerrors.New(fmt.Sprintf("system params %s: non-positive field (M=%d Ns=%d spc=%d BW=%g)",
			path, p.M, p.Ns, p.SamplesPerChunk, p.Bandwidth))
	}
	return p, nil
}

// LoadPeakLabels reads trajectory_data.npz and returns the per-sample peak
// index rows. The peak array is stored under m_peak_indices (multi-target,
// [n, k]) or m_peak (single target, [n]); values may be float or integer.
func LoadPeakLabels(path string) ([][]int, error) {
	a, err := openNpz(path)
	if err != nil {
		return nil, xerrors.New("open trajectory data", err)
	}
	defer a.Close()

	key := "m_peak_indices"
	if a.member(key) == nil {
		key = "m_peak"
	}
	shape, flat, err := a.numeric(key)
	if err != nil {
		return nil, xerrors.New(fmt.Sprintf("trajectory data %s: read %s", path, key), err)
	}

	switch len(shape) {
	case 1:
		labels := make([][]int, shape[0])
		for i := range labels {
			labels[i] = []int{int(flat[i])}
		}
		return labels, nil
	case 2:
		n, k := shape[0], shape[1]
		labels := make([][]int, n)
		for i := 0; i < n; i++ {
			row := make([]int, k)
			for j := 0; j < k; j++ {
				row[j] = int(flat[i*k+j])
			}
			labels[i] = row
		}
		return labels, nil
	default:
		return nil, xerrors.New(fmt.Sprintf("trajectory data %s: %s has %d dims, want 1 or 2", path, key, len(shape)))
	}
}
