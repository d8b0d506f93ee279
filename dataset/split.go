// SPDX-License-Identifier: CC-BY-NC-4.0
// Copyright (c) 2025-2026 fumi-engineer

package dataset

// Range is a half-open sample index interval [From, To).
type Range struct {
	From, To int
}

// Len returns the number of samples in the range.
func (r Range) Len() int { return r.To - r.From }

// Split partitions an archive into the three standard subsets. The layout
// runs from index 0 as [test | val | train] so that the held-out sets come
// from the same shards run-to-run regardless of the training range.
type Split struct {
	Test  Range
	Val   Range
	Train Range
}

// DefaultSplit reserves 15% for test, the next 15% for validation, and the
// remainder for training.
func DefaultSplit(n int) Split {
	testEnd := int(0.15 * float64(n))
	valEnd := testEnd + int(0.15*float64(n))
	return Split{
		Test:  Range{0, testEnd},
		Val:   Range{testEnd, valEnd},
		Train: Range{valEnd, n},
	}
}
