// SPDX-License-Identifier: CC-BY-NC-4.0
// Copyright (c) 2025-2026 fumi-engineer

package tensor

// DType enumerates supported data types. F32 backs all learnable state;
// C128 backs raw echo measurements before the feature frontend; the rest
// exist for future mixed-precision support.
type DType uint8

const (
	F32 DType = iota
	F16
	I64
	C128
)

// Size returns the byte width of the data type.
func (d DType) Size() int {
	switch d {
	case F32:
		return 4
	case F16:
		return 2
	case I64:
		return 8
	case C128:
		return 16
	default:
		return 4
	}
}

// String returns a human-readable name for the data type.
func (d DType) String() string {
	names := [...]string{"f32", "f16", "i64", "c128"}
	if int(d) < len(names) {
		return names[d]
	}
	return "unknown"
}
