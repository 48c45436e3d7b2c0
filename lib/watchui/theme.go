// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package watchui

import "github.com/charmbracelet/lipgloss"

// Theme defines the color palette for the watch dashboard. All colors
// use lipgloss ANSI 256-color codes for broad terminal compatibility.
type Theme struct {
	// Text colors.
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Session lifecycle colors, used for both the queue table and
	// the event feed (each event kind is tinted by the state it
	// moves sessions into).
	StateWaiting  lipgloss.Color
	StateAccepted lipgloss.Color
	StateRunning  lipgloss.Color
	StateFinished lipgloss.Color

	// UI chrome.
	HeaderForeground lipgloss.Color
	HelpText         lipgloss.Color

	// SystemNotice colors feed lines about the stream itself
	// (disconnects, resyncs) rather than session activity.
	SystemNotice lipgloss.Color
}

// StateColor returns the color for a session phase name. Unknown
// phases return FaintText.
func (theme Theme) StateColor(phase string) lipgloss.Color {
	switch phase {
	case "waiting":
		return theme.StateWaiting
	case "accepted":
		return theme.StateAccepted
	case "running":
		return theme.StateRunning
	case "finished":
		return theme.StateFinished
	default:
		return theme.FaintText
	}
}

// DefaultTheme is the built-in dark-terminal color scheme. Designed
// for 256-color terminals with a dark background.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	StateWaiting:  lipgloss.Color("114"), // green: available for pickup
	StateAccepted: lipgloss.Color("75"),  // blue: claimed, not yet running
	StateRunning:  lipgloss.Color("220"), // amber: match in progress
	StateFinished: lipgloss.Color("245"), // gray: settled

	HeaderForeground: lipgloss.Color("255"),
	HelpText:         lipgloss.Color("241"),

	SystemNotice: lipgloss.Color("208"), // orange: stream trouble stands out
}
