// SPDX-License-Identifier: CC-BY-NC-4.0
// Copyright (c) 2025-2026 fumi-engineer

package main

import (
	"io"
	"log/slog"
	"testing"
)

func TestParsePowers(t *testing.T) {
	got, err := parsePowers("-10, 0,10")
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{-10, 0, 10}
	if len(got) != len(want) {
		t.Fatalf("parsed %d levels, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("level %d: got %g, want %g", i, got[i], want[i])
		}
	}
	if _, err := parsePowers("-10,abc"); err == nil {
		t.Error("expected an error for a non-numeric level")
	}
}

func TestLabelCapacityPrefersConfigured(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	// The flag value wins even when the archive records its own count.
	if got := labelCapacity(4, 6, log); got != 4 {
		t.Errorf("capacity with archive count 6: got %d, want 4", got)
	}
	if got := labelCapacity(4, 0, log); got != 4 {
		t.Errorf("capacity without archive count: got %d, want 4", got)
	}
}
