// SPDX-License-Identifier: CC-BY-NC-4.0
// Copyright (c) 2025-2026 fumi-engineer

package dataset

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/mdobak/go-xerrors"
	"github.com/sbinet/npyio"

	"github.com/fumi-engineer/cfarnet/tensor"
)

// ErrNotFound reports a sample index whose shard file does not exist.
var ErrNotFound = errors.New("echo sample not found")

// Store reads echo matrices out of numbered .npy shards under
// <dir>/echoes/echo_chunk_<i>.npy. Sample idx lives in shard idx/spc at
// offset idx%spc, where spc is SamplesPerChunk.
//
// Shards are decoded whole, so the store keeps the most recently used shard
// resident. Split ranges are contiguous, which makes sequential scans hit
// the cache on all but one sample per shard.
type Store struct {
	dir    string
	params SystemParams
	log    *slog.Logger

	mu          sync.Mutex
	cachedShard int
	cacheRows   int
	cacheCols   int
	cacheCount  int
	cache       []complex128
}

// NewStore creates a shard reader rooted at dir. The echoes subdirectory
// must already exist; a data root without one is a configuration error, not
// something to discover mid-training.
func NewStore(dir string, params SystemParams, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	echoDir := filepath.Join(dir, "echoes")
	info, err := os.Stat(echoDir)
	if err != nil {
		return nil, xerrors.New(fmt.Sprintf("echo directory %s", echoDir), err)
	}
	if !info.IsDir() {
		return nil, xerrors.New(fmt.Sprintf("echo directory %s is not a directory", echoDir))
	}
	return &Store{dir: dir, params: params, log: log, cachedShard: -1}, nil
}

// shardPath returns the file backing the given shard number.
func (s *Store) shardPath(shard int) string {
	return filepath.Join(s.dir, "echoes", fmt.Sprintf("echo_chunk_%d.npy", shard))
}

// loadShard decodes a shard into the cache. Caller holds s.mu.
func (s *Store) loadShard(shard int) error {
	path := s.shardPath(shard)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return xerrors.New(fmt.Sprintf("shard %d (%s)", shard, path), ErrNotFound)
		}
		return xerrors.New("open shard", err)
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		return xerrors.New(fmt.Sprintf("decode shard %s", path), err)
	}
	shape := r.Header.Descr.Shape
	if len(shape) != 3 {
		return xerrors.New(fmt.Sprintf("shard %s: %d dims, want 3", path, len(shape)))
	}
	count, rows, cols := shape[0], shape[1], shape[2]
	if rows != s.params.Ns || cols != s.params.Width() {
		s.log.Warn("shard shape differs from system params",
			"shard", path,
			"rows", rows, "cols", cols,
			"want_rows", s.params.Ns, "want_cols", s.params.Width())
	}

	var data []complex128
	if err := r.Read(&data); err != nil {
		return xerrors.New(fmt.Sprintf("read shard %s", path), err)
	}
	if len(data) != count*rows*cols {
		return xerrors.New(fmt.Sprintf("shard %s: %d values, header says %d", path, len(data), count*rows*cols))
	}

	s.cachedShard = shard
	s.cacheCount = count
	s.cacheRows = rows
	s.cacheCols = cols
	s.cache = data
	return nil
}

// Echo returns a copy of the echo matrix for the global sample index.
func (s *Store) Echo(idx int) (*tensor.CMatrix, error) {
	if idx < 0 {
		return nil, xerrors.New(fmt.Sprintf("sample %d", idx), ErrNotFound)
	}
	shard := idx / s.params.SamplesPerChunk
	offset := idx % s.params.SamplesPerChunk

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cachedShard != shard {
		if err := s.loadShard(shard); err != nil {
			return nil, err
		}
	}
	if offset >= s.cacheCount {
		return nil, xerrors.New(fmt.Sprintf("sample %d: offset %d beyond shard size %d", idx, offset, s.cacheCount), ErrNotFound)
	}

	n := s.cacheRows * s.cacheCols
	m := tensor.NewCMatrix(s.cacheRows, s.cacheCols)
	copy(m.Data, s.cache[offset*n:(offset+1)*n])
	return m, nil
}

// Source yields echo matrices by global sample index. Store is the disk
// implementation; tests substitute in-memory sources.
type Source interface {
	Echo(idx int) (*tensor.CMatrix, error)
}

// Dataset is a contiguous index range over a Source paired with the peak
// labels for those samples. Label rows are padded or truncated to a fixed
// per-sample capacity once, at construction; -1 marks padding.
type Dataset struct {
	store  Source
	labels [][]int
	from   int
}

// NewDataset builds the view [from, to) over store with the given label
// table (indexed globally, like the store). The range is clamped to the
// label table and logged when adjusted; a range that clamps to nothing is
// an error. maxTargets fixes the label row width.
func NewDataset(store Source, labels [][]int, from, to, maxTargets int, log *slog.Logger) (*Dataset, error) {
	if log == nil {
		log = slog.Default()
	}
	origFrom, origTo := from, to
	if from < 0 {
		from = 0
	}
	if to > len(labels) {
		to = len(labels)
	}
	if from > to {
		from = to
	}
	if from != origFrom || to != origTo {
		log.Warn("dataset range adjusted",
			"from", origFrom, "to", origTo,
			"adjusted_from", from, "adjusted_to", to)
	}
	if to-from <= 0 {
		return nil, xerrors.New(fmt.Sprintf("dataset range [%d, %d) is empty over %d labels", origFrom, origTo, len(labels)))
	}

	rows := make([][]int, to-from)
	for i := range rows {
		rows[i] = padLabels(labels[from+i], maxTargets)
	}
	return &Dataset{store: store, labels: rows, from: from}, nil
}

// padLabels returns row truncated or padded with -1 to width n.
func padLabels(row []int, n int) []int {
	out := make([]int, n)
	for i := 0; i < n; i++ {
		if i < len(row) {
			out[i] = row[i]
		} else {
			out[i] = -1
		}
	}
	return out
}

// Len returns the number of samples in the view.
func (d *Dataset) Len() int { return len(d.labels) }

// At returns the echo and label row for local index i.
func (d *Dataset) At(i int) (*tensor.CMatrix, []int, error) {
	if i < 0 || i >= len(d.labels) {
		return nil, nil, xerrors.New(fmt.Sprintf("dataset index %d out of range [0, %d)", i, len(d.labels)))
	}
	echo, err := d.store.Echo(d.from + i)
	if err != nil {
		return nil, nil, err
	}
	return echo, d.labels[i], nil
}
