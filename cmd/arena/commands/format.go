// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"sort"
	"time"

	"github.com/arena-foundation/arena/lib/schema/session"
)

// formatUptime formats seconds as a human-readable uptime string.
func formatUptime(seconds float64) string {
	duration := time.Duration(seconds * float64(time.Second))
	hours := int(duration / time.Hour)
	minutes := int((duration % time.Hour) / time.Minute)
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, int((duration%time.Minute)/time.Second))
	}
	return fmt.Sprintf("%ds", int(duration/time.Second))
}

// formatState renders a lifecycle state for table output. Finished
// states show the winner alongside the phase.
func formatState(state session.State) string {
	if winner, ok := state.Winner(); ok {
		return fmt.Sprintf("finished (winner %s)", winner)
	}
	return state.Phase()
}

// formatTimeline renders a record's state-change cycles as a compact
// "queued@3 accepted@5" string, skipping unreached transitions.
func formatTimeline(record session.Record) string {
	names := [session.TimelineSlots]string{"queued", "accepted", "running", "finished"}
	out := ""
	for slot, cycle := range record.StateChange {
		if cycle == 0 {
			continue
		}
		if out != "" {
			out += " "
		}
		out += fmt.Sprintf("%s@%d", names[slot], cycle)
	}
	if out == "" {
		return "-"
	}
	return out
}

// sortedKeys returns the keys of a string-keyed map in sorted order,
// for stable table output.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// truncate shortens a string to maxLength, appending "..." if truncated.
func truncate(value string, maxLength int) string {
	if len(value) <= maxLength {
		return value
	}
	if maxLength <= 3 {
		return value[:maxLength]
	}
	return value[:maxLength-3] + "..."
}
