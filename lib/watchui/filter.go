// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package watchui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/junegunn/fzf/src/util"
)

// FilterModel implements fzf-style fuzzy matching over the event feed.
// The filter narrows the feed client-side; the queue table and header
// stay unfiltered so the operator never loses the registry totals.
type FilterModel struct {
	// Input is the current filter query text.
	Input string

	// Active is true when the filter input has keyboard focus
	// (the user pressed / to start typing).
	Active bool
}

// Apply returns the entries whose line fuzzy-matches the current
// input, preserving feed order. An empty filter returns the entries
// unchanged. The feed is chronological and stays that way; the match
// score only gates inclusion, it never reorders.
func (filter *FilterModel) Apply(entries []feedEntry, slab *util.Slab) []feedEntry {
	if filter.Input == "" {
		return entries
	}

	pattern := []rune(filter.Input)
	var result []feedEntry
	for _, entry := range entries {
		if fuzzyMatch(entry.Line, pattern, slab).Score > 0 {
			result = append(result, entry)
		}
	}
	return result
}

// HandleRune processes a character typed while the filter is active.
// Returns true if the input changed.
func (filter *FilterModel) HandleRune(character rune) bool {
	filter.Input += string(character)
	return true
}

// HandleBackspace removes the last character from the filter input.
// Returns true if the input changed.
func (filter *FilterModel) HandleBackspace() bool {
	if len(filter.Input) == 0 {
		return false
	}
	runes := []rune(filter.Input)
	filter.Input = string(runes[:len(runes)-1])
	return true
}

// Clear resets the filter input and deactivates it.
func (filter *FilterModel) Clear() {
	filter.Input = ""
	filter.Active = false
}

// View renders the filter bar. When active, shows the input with a
// cursor. When inactive with text, shows the filter text. When
// inactive with no text, returns empty string (hidden).
func (filter *FilterModel) View(theme Theme, width int) string {
	if !filter.Active && filter.Input == "" {
		return ""
	}

	style := lipgloss.NewStyle().
		Foreground(theme.NormalText).
		Width(width)

	if filter.Active {
		cursor := lipgloss.NewStyle().
			Foreground(theme.HeaderForeground).
			Bold(true).
			Render("▎")
		return style.Render(" / " + filter.Input + cursor)
	}

	// Inactive but has text — show the filter as a subtle indicator.
	dimStyle := lipgloss.NewStyle().
		Foreground(theme.FaintText).
		Width(width)
	return dimStyle.Render(" filter: " + filter.Input)
}
