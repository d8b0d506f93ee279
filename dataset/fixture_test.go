// SPDX-License-Identifier: CC-BY-NC-4.0
// Copyright (c) 2025-2026 fumi-engineer

package dataset

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"strings"
	"testing"
)

// writeNpy serializes data as a little-endian NumPy v1.0 array. Supported
// element types: float64, int64, complex128.
func writeNpy(t *testing.T, w *bytes.Buffer, descr string, shape []int, data interface{}) {
	t.Helper()

	dims := make([]string, len(shape))
	for i, d := range shape {
		dims[i] = fmt.Sprintf("%d", d)
	}
	tuple := strings.Join(dims, ", ")
	if len(shape) == 1 {
		tuple += ","
	}
	header := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': (%s), }", descr, tuple)
	// Pad with spaces so magic+version+len+header is a multiple of 64,
	// ending in a newline.
	total := 10 + len(header) + 1
	pad := (64 - total%64) % 64
	header += strings.Repeat(" ", pad) + "\n"

	w.WriteString("\x93NUMPY")
	w.WriteByte(1)
	w.WriteByte(0)
	if err := binary.Write(w, binary.LittleEndian, uint16(len(header))); err != nil {
		t.Fatal(err)
	}
	w.WriteString(header)
	if err := binary.Write(w, binary.LittleEndian, data); err != nil {
		t.Fatal(err)
	}
}

func writeNpyFile(t *testing.T, path, descr string, shape []int, data interface{}) {
	t.Helper()
	var buf bytes.Buffer
	writeNpy(t, &buf, descr, shape, data)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

// npzEntry is one member of a test .npz archive.
type npzEntry struct {
	key   string
	descr string
	shape []int
	data  interface{}
}

func writeNpzFile(t *testing.T, path string, entries []npzEntry) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, e := range entries {
		var buf bytes.Buffer
		writeNpy(t, &buf, e.descr, e.shape, e.data)
		w, err := zw.Create(e.key + ".npy")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(buf.Bytes()); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

// scalar wraps a value as a 1-element float64 array entry.
func scalar(key string, v float64) npzEntry {
	return npzEntry{key: key, descr: "<f8", shape: []int{1}, data: []float64{v}}
}
