// SPDX-License-Identifier: CC-BY-NC-4.0
// Copyright (c) 2025-2026 fumi-engineer

package dataset

import (
	"math/rand"

	"github.com/fumi-engineer/cfarnet/tensor"
)

// Batch is one mini-batch of raw echoes and their label rows.
type Batch struct {
	Echoes []*tensor.CMatrix
	Labels [][]int
}

// Size returns the number of samples in the batch.
func (b *Batch) Size() int { return len(b.Echoes) }

// Loader iterates a Dataset in mini-batches using the scanner idiom:
//
//	for loader.Scan() {
//		batch := loader.Batch()
//		...
//	}
//	if err := loader.Err(); err != nil { ... }
//
// With shuffling enabled the sample order is re-drawn on every Reset.
// The final batch may be smaller than the batch size.
type Loader struct {
	ds        *Dataset
	batchSize int
	shuffle   bool
	rng       *rand.Rand

	order []int
	pos   int
	batch *Batch
	err   error
}

// NewLoader creates a loader over ds. seed controls the shuffle order and
// is ignored when shuffle is false.
func NewLoader(ds *Dataset, batchSize int, shuffle bool, seed int64) *Loader {
	l := &Loader{
		ds:        ds,
		batchSize: batchSize,
		shuffle:   shuffle,
		rng:       rand.New(rand.NewSource(seed)),
		order:     make([]int, ds.Len()),
	}
	for i := range l.order {
		l.order[i] = i
	}
	l.Reset()
	return l
}

// Reset rewinds the loader and re-shuffles when shuffling is enabled.
// A sticky error is cleared.
func (l *Loader) Reset() {
	l.pos = 0
	l.batch = nil
	l.err = nil
	if l.shuffle {
		l.rng.Shuffle(len(l.order), func(i, j int) {
			l.order[i], l.order[j] = l.order[j], l.order[i]
		})
	}
}

// Batches returns the number of batches per full pass.
func (l *Loader) Batches() int {
	if l.batchSize <= 0 {
		return 0
	}
	return (l.ds.Len() + l.batchSize - 1) / l.batchSize
}

// Scan advances to the next batch. It returns false at the end of the pass
// or on the first read error; check Err afterwards.
func (l *Loader) Scan() bool {
	if l.err != nil || l.pos >= len(l.order) || l.batchSize <= 0 {
		return false
	}
	end := l.pos + l.batchSize
	if end > len(l.order) {
		end = len(l.order)
	}

	batch := &Batch{
		Echoes: make([]*tensor.CMatrix, 0, end-l.pos),
		Labels: make([][]int, 0, end-l.pos),
	}
	for _, idx := range l.order[l.pos:end] {
		echo, labels, err := l.ds.At(idx)
		if err != nil {
			l.err = err
			return false
		}
		batch.Echoes = append(batch.Echoes, echo)
		batch.Labels = append(batch.Labels, labels)
	}
	l.pos = end
	l.batch = batch
	return true
}

// Batch returns the batch produced by the last successful Scan.
func (l *Loader) Batch() *Batch { return l.batch }

// Err returns the error that stopped the last pass, if any.
func (l *Loader) Err() error { return l.err }
