// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package watchui

import (
	"sort"
	"unicode"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

func init() {
	// fzf's scoring tables are populated by Init; matching before
	// this call scores everything zero.
	algo.Init("default")
}

// FuzzyResult holds the outcome of a fuzzy match: the score (higher is
// better, zero means no match) and the rune positions of the matched
// characters in the text, in ascending order.
type FuzzyResult struct {
	Score     int
	Positions []int
}

// fuzzyMatch runs fzf's FuzzyMatchV2 algorithm against a single text.
// The pattern is lowercased and matching runs case-insensitively, so
// "mcp" finds "MCP" and "Pooling" finds "pooling". The slab is an
// optional scratch buffer reused across calls; nil allocates per call.
func fuzzyMatch(text string, pattern []rune, slab *util.Slab) FuzzyResult {
	if len(pattern) == 0 {
		return FuzzyResult{}
	}

	lowered := make([]rune, len(pattern))
	for i, r := range pattern {
		lowered[i] = unicode.ToLower(r)
	}

	chars := util.ToChars([]byte(text))
	result, positions := algo.FuzzyMatchV2(false, true, true, &chars, lowered, true, slab)
	if result.Score <= 0 {
		return FuzzyResult{}
	}

	match := FuzzyResult{Score: result.Score}
	if positions != nil {
		// FuzzyMatchV2 reports positions in backtrack order
		// (end first); sort them for highlighting.
		match.Positions = append(match.Positions, *positions...)
		sort.Ints(match.Positions)
	}
	return match
}
