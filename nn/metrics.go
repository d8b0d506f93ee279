// SPDX-License-Identifier: CC-BY-NC-4.0
// Copyright (c) 2025-2026 fumi-engineer

package nn

import (
	"sort"

	"github.com/fumi-engineer/cfarnet/tensor"
)

// TopKIndices returns the indices of the k largest values in row, ordered by
// value descending with ties broken toward the lower index. k is clamped to
// len(row); k <= 0 yields nil.
func TopKIndices(row []float32, k int) []int {
	if k > len(row) {
		k = len(row)
	}
	if k <= 0 {
		return nil
	}
	idx := make([]int, len(row))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		if row[idx[a]] != row[idx[b]] {
			return row[idx[a]] > row[idx[b]]
		}
		return idx[a] < idx[b]
	})
	return idx[:k]
}

// RecallAtK measures how many true peaks are recovered by the k highest-scoring
// subcarrier positions, counting a peak as found when some selected position
// lies within tolerance bins of it.
//
// probs is [b, width] (any monotone score works; sigmoid output in practice),
// labels holds per-sample peak indices where negatives are padding. Samples
// with no valid peak are excluded from the denominator; a batch with no valid
// peaks at all scores 1.0 by convention.
func RecallAtK(probs *tensor.Tensor, labels [][]int, k, tolerance int) float64 {
	dims := probs.Shape().DimsRef()
	b, w := dims[0], dims[1]
	if k > w {
		k = w
	}
	if k <= 0 || b == 0 {
		return 0
	}
	data := probs.DataPtr()

	totalHits, totalValid := 0, 0
	for i := 0; i < b && i < len(labels); i++ {
		var valid []int
		for _, pk := range labels[i] {
			if pk >= 0 && pk < w {
				valid = append(valid, pk)
			}
		}
		if len(valid) == 0 {
			continue
		}
		top := TopKIndices(data[i*w:(i+1)*w], k)
		for _, pk := range valid {
			totalValid++
			for _, p := range top {
				d := p - pk
				if d < 0 {
					d = -d
				}
				if d <= tolerance {
					totalHits++
					break
				}
			}
		}
	}
	if totalValid == 0 {
		return 1.0
	}
	return float64(totalHits) / float64(totalValid)
}
