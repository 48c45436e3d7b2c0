// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package watchui

import (
	"strings"
	"testing"
)

func testFeed() []feedEntry {
	return []feedEntry{
		{Line: "ada.lovelace joined the matching pool"},
		{Line: "session 01000000 queued in g1v1"},
		{Line: "gamma.executor acknowledged 2 sessions in g1v1"},
		{Line: "session 01000000 running on gamma.executor"},
		{Line: "stream disconnected, retrying in 1s", System: true},
	}
}

func TestFilterEmptyInputPassthrough(t *testing.T) {
	entries := testFeed()
	filter := FilterModel{Input: ""}

	results := filter.Apply(entries, nil)
	if len(results) != len(entries) {
		t.Errorf("empty filter should return all %d entries, got %d", len(entries), len(results))
	}
}

func TestFilterGatesByMatch(t *testing.T) {
	filter := FilterModel{Input: "queued"}

	results := filter.Apply(testFeed(), nil)
	if len(results) != 1 {
		t.Fatalf("filter 'queued' should match 1 entry, got %d", len(results))
	}
	if !strings.Contains(results[0].Line, "queued") {
		t.Errorf("unexpected match: %q", results[0].Line)
	}
}

func TestFilterPreservesFeedOrder(t *testing.T) {
	// "gamma" matches the acknowledge and running lines. The feed is
	// chronological; the filter must not reorder by score.
	filter := FilterModel{Input: "gamma"}

	results := filter.Apply(testFeed(), nil)
	if len(results) != 2 {
		t.Fatalf("filter 'gamma' should match 2 entries, got %d", len(results))
	}
	if !strings.Contains(results[0].Line, "acknowledged") {
		t.Errorf("first result should be the acknowledge line, got %q", results[0].Line)
	}
	if !strings.Contains(results[1].Line, "running") {
		t.Errorf("second result should be the running line, got %q", results[1].Line)
	}
}

func TestFilterCaseInsensitive(t *testing.T) {
	filter := FilterModel{Input: "QUEUED"}

	results := filter.Apply(testFeed(), nil)
	if len(results) != 1 {
		t.Errorf("filter should be case-insensitive, got %d matches", len(results))
	}
}

func TestFilterNoMatch(t *testing.T) {
	filter := FilterModel{Input: "xyz-nonexistent"}

	results := filter.Apply(testFeed(), nil)
	if len(results) != 0 {
		t.Errorf("filter with no matches should return empty, got %d", len(results))
	}
}

func TestFilterHandleRune(t *testing.T) {
	filter := FilterModel{Active: true}

	if !filter.HandleRune('g') {
		t.Error("HandleRune should report a change")
	}
	filter.HandleRune('1')
	if filter.Input != "g1" {
		t.Errorf("input: got %q, want %q", filter.Input, "g1")
	}
}

func TestFilterHandleBackspace(t *testing.T) {
	filter := FilterModel{Input: "g1", Active: true}

	if !filter.HandleBackspace() {
		t.Error("backspace on non-empty input should report a change")
	}
	if filter.Input != "g" {
		t.Errorf("input after backspace: got %q, want %q", filter.Input, "g")
	}

	filter.HandleBackspace()
	if filter.HandleBackspace() {
		t.Error("backspace on empty input should report no change")
	}
}

func TestFilterClear(t *testing.T) {
	filter := FilterModel{Input: "g1v1", Active: true}
	filter.Clear()

	if filter.Input != "" || filter.Active {
		t.Errorf("clear should reset input and focus: %+v", filter)
	}
}

func TestFilterViewHiddenWhenEmpty(t *testing.T) {
	filter := FilterModel{}
	if view := filter.View(DefaultTheme, 80); view != "" {
		t.Errorf("inactive empty filter should render nothing, got %q", view)
	}
}

func TestFilterViewShowsInput(t *testing.T) {
	filter := FilterModel{Input: "g1v1", Active: true}
	view := filter.View(DefaultTheme, 80)
	if !strings.Contains(view, "g1v1") {
		t.Errorf("active filter view should contain the input, got %q", view)
	}
}
