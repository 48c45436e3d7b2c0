// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package watchui

import (
	"sort"
	"testing"
)

func TestFuzzyMatchBasic(t *testing.T) {
	result := fuzzyMatch("session 4a1b2c3d queued in g1v1", []rune("queued"), nil)
	if result.Score <= 0 {
		t.Fatal("expected positive score for substring match")
	}
	if len(result.Positions) == 0 {
		t.Fatal("expected non-empty match positions")
	}
}

func TestFuzzyMatchNonContiguous(t *testing.T) {
	// "qdg" should match "queued in g1v1" — q and d from queued, g
	// from g1v1.
	result := fuzzyMatch("queued in g1v1", []rune("qdg"), nil)
	if result.Score <= 0 {
		t.Fatal("expected positive score for non-contiguous fuzzy match")
	}
}

func TestFuzzyMatchNoMatch(t *testing.T) {
	result := fuzzyMatch("session 4a1b2c3d queued in g1v1", []rune("xyz"), nil)
	if result.Score != 0 {
		t.Errorf("expected zero score for no match, got %d", result.Score)
	}
	if len(result.Positions) != 0 {
		t.Errorf("expected empty positions for no match, got %v", result.Positions)
	}
}

func TestFuzzyMatchCaseInsensitive(t *testing.T) {
	// Pattern is lowercase, text has uppercase. The wrapper lowercases
	// both sides, so this should match.
	result := fuzzyMatch("Session Finished, Winner Ada", []rune("winner"), nil)
	if result.Score <= 0 {
		t.Fatalf("expected case-insensitive match, got score=%d", result.Score)
	}
}

func TestFuzzyMatchCaseInsensitiveAllCaps(t *testing.T) {
	// All-caps text with lowercase pattern.
	result := fuzzyMatch("STREAM RESYNC", []rune("resync"), nil)
	if result.Score <= 0 {
		t.Fatalf("expected match for 'resync' in 'STREAM RESYNC', got score=%d", result.Score)
	}
}

func TestFuzzyMatchEmptyPattern(t *testing.T) {
	result := fuzzyMatch("anything", []rune{}, nil)
	if result.Score != 0 {
		t.Errorf("expected zero score for empty pattern, got %d", result.Score)
	}
}

func TestFuzzyMatchPositionsSorted(t *testing.T) {
	// The matcher reports positions in backtrack order; the wrapper
	// sorts them for highlighting.
	result := fuzzyMatch("gamma.executor acknowledged 2 sessions", []rune("gas"), nil)
	if result.Score <= 0 {
		t.Fatal("expected positive score")
	}
	if !sort.IntsAreSorted(result.Positions) {
		t.Errorf("positions should be sorted ascending, got %v", result.Positions)
	}
}
