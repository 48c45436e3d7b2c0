// Copyright 2026 The Arena Authors
// SPDX-License-Identifier: Apache-2.0

package watchui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/junegunn/fzf/src/util"
)

// Fixed chrome heights. The category table sits between the header and
// the feed and grows with the number of categories, capped at
// maxCategoryRows plus an overflow line.
const (
	headerLines     = 1
	footerLines     = 1
	maxCategoryRows = 12
)

// Slab dimensions for the fzf matcher scratch buffer, shared across
// all matches in a render pass.
const (
	slabSize16 = 100 * 1024
	slabSize32 = 2048
)

// feedPrefixWidth is the rendered width of the timestamp and cycle
// columns in front of each feed line: " 15:04:05 " plus a six-digit
// cycle and two spaces of gap.
const feedPrefixWidth = 18

// noticeMsg wraps a Source notice for delivery through the bubbletea
// message loop.
type noticeMsg struct {
	notice Notice
}

// Model is the top-level bubbletea model for the watch dashboard:
// a header line with the stream phase and cycle, a per-category queue
// table, and a scrolling event feed with fuzzy filtering.
type Model struct {
	source *Source
	theme  Theme
	keys   KeyMap

	// Terminal dimensions (set by WindowSizeMsg).
	width  int
	height int
	ready  bool

	// Mirror snapshot, re-read from the source on every notice.
	stats Stats

	// Event feed. The viewport shows the filtered feed; follow keeps
	// it pinned to the newest entry until the user scrolls away.
	feed     []feedEntry
	viewport viewport.Model
	follow   bool

	filter FilterModel
	slab   *util.Slab

	notices <-chan Notice
}

// NewModel creates a Model reading from the given source. The source's
// background goroutine must already be running (NewSource starts it).
func NewModel(source *Source) Model {
	return Model{
		source:  source,
		theme:   DefaultTheme,
		keys:    DefaultKeyMap(),
		stats:   source.Stats(),
		follow:  true,
		slab:    util.MakeSlab(slabSize16, slabSize32),
		notices: source.Subscribe(),
	}
}

// Init implements tea.Model. Starts listening for source notices.
func (model Model) Init() tea.Cmd {
	return listenForNotice(model.notices)
}

// listenForNotice returns a tea.Cmd that blocks until a notice arrives
// on the source channel, then delivers it as a noticeMsg.
func listenForNotice(channel <-chan Notice) tea.Cmd {
	return func() tea.Msg {
		notice, ok := <-channel
		if !ok {
			return nil
		}
		return noticeMsg{notice: notice}
	}
}

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.KeyMsg:
		// When the filter is active, route all input to it first.
		if model.filter.Active {
			return model.handleFilterKeys(message)
		}

		switch {
		case key.Matches(message, model.keys.Quit):
			return model, tea.Quit

		case key.Matches(message, model.keys.Up):
			model.viewport.LineUp(1)
			model.follow = model.viewport.AtBottom()

		case key.Matches(message, model.keys.Down):
			model.viewport.LineDown(1)
			model.follow = model.viewport.AtBottom()

		case key.Matches(message, model.keys.HalfPageUp):
			model.viewport.HalfViewUp()
			model.follow = model.viewport.AtBottom()

		case key.Matches(message, model.keys.HalfPageDn):
			model.viewport.HalfViewDown()
			model.follow = model.viewport.AtBottom()

		case key.Matches(message, model.keys.Top):
			model.viewport.GotoTop()
			model.follow = false

		case key.Matches(message, model.keys.Bottom):
			model.viewport.GotoBottom()
			model.follow = true

		case key.Matches(message, model.keys.Filter):
			model.filter.Active = true

		case key.Matches(message, model.keys.ClearInput):
			if model.filter.Input != "" {
				model.filter.Clear()
				model.refreshFeed()
			}
		}

	case tea.MouseMsg:
		switch message.Button {
		case tea.MouseButtonWheelUp:
			model.viewport.LineUp(3)
			model.follow = model.viewport.AtBottom()
		case tea.MouseButtonWheelDown:
			model.viewport.LineDown(3)
			model.follow = model.viewport.AtBottom()
		}

	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.ready = true
		model.layout()
		model.refreshFeed()

	case noticeMsg:
		return model.handleNotice(message.notice)
	}
	return model, nil
}

// handleFilterKeys processes keystrokes while the filter input has
// focus. Regular characters go to the input, Esc clears and exits,
// Enter confirms and returns to scrolling.
func (model Model) handleFilterKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Quit):
		// ctrl+c always quits, even in filter mode.
		if message.Type == tea.KeyCtrlC {
			return model, tea.Quit
		}
		// 'q' is a regular character in filter mode.
		model.filter.HandleRune('q')
		model.refreshFeed()
		return model, nil

	case key.Matches(message, model.keys.ClearInput):
		model.filter.Clear()
		model.refreshFeed()
		return model, nil

	case message.Type == tea.KeyEnter:
		// Confirm the filter and return to scrolling; the filter text
		// stays applied.
		model.filter.Active = false
		return model, nil

	case message.Type == tea.KeyBackspace:
		if model.filter.HandleBackspace() {
			model.refreshFeed()
		}
		return model, nil

	case message.Type == tea.KeyRunes || message.Type == tea.KeySpace:
		for _, r := range message.Runes {
			model.filter.HandleRune(r)
		}
		model.refreshFeed()
		return model, nil
	}

	return model, nil
}

// handleNotice processes a wake-up from the source: appends to the
// feed for events and stream trouble, re-reads the mirror stats, and
// re-arms the notice listener.
func (model Model) handleNotice(notice Notice) (tea.Model, tea.Cmd) {
	now := time.Now()

	switch notice.Kind {
	case NoticeEvent:
		if notice.Event != nil {
			model.feed = appendFeed(model.feed, feedEntry{
				When:  now,
				Kind:  notice.Event.Kind,
				Cycle: notice.Event.Cycle,
				Line:  formatEvent(*notice.Event),
			})
		}

	case NoticeResync:
		model.feed = appendFeed(model.feed, feedEntry{
			When:   now,
			Line:   "stream resync: events were dropped, reloading snapshot",
			System: true,
		})

	case NoticeDisconnected:
		line := fmt.Sprintf("stream disconnected, retrying in %s", notice.Backoff)
		if notice.Err != nil {
			line = fmt.Sprintf("stream disconnected (%v), retrying in %s", notice.Err, notice.Backoff)
		}
		model.feed = appendFeed(model.feed, feedEntry{
			When:   now,
			Line:   line,
			System: true,
		})

	case NoticePhase:
		// The header renders the new phase from the stats re-read
		// below; nothing to add to the feed.
	}

	model.stats = model.source.Stats()

	// The category table grows with the mirror, so the feed height
	// can change on any notice.
	model.layout()
	model.refreshFeed()

	return model, listenForNotice(model.notices)
}

// layout recalculates the viewport dimensions from the terminal size
// and the current table height.
func (model *Model) layout() {
	model.viewport.Width = model.width
	model.viewport.Height = model.feedHeight()
}

// feedHeight returns the number of lines available for the feed
// viewport: the terminal height minus header, table, the blank line
// after the table, and the footer.
func (model Model) feedHeight() int {
	height := model.height - headerLines - model.tableLines() - 1 - footerLines
	if height < 1 {
		height = 1
	}
	return height
}

// tableLines returns the rendered height of the category table,
// including its column header.
func (model Model) tableLines() int {
	rows := len(model.stats.Counts)
	if rows == 0 {
		rows = 1 // placeholder row
	}
	if rows > maxCategoryRows {
		rows = maxCategoryRows + 1 // overflow line
	}
	return rows + 1
}

// refreshFeed re-renders the filtered feed into the viewport. Keeps
// the view pinned to the newest entry while follow is on.
func (model *Model) refreshFeed() {
	visible := model.filter.Apply(model.feed, model.slab)

	lines := make([]string, 0, len(visible))
	for _, entry := range visible {
		lines = append(lines, model.renderFeedLine(entry))
	}
	if len(lines) == 0 {
		placeholder := "waiting for events"
		if model.filter.Input != "" {
			placeholder = "no events match the filter"
		}
		lines = append(lines, lipgloss.NewStyle().
			Foreground(model.theme.FaintText).
			Render(" "+placeholder))
	}

	model.viewport.SetContent(strings.Join(lines, "\n"))
	if model.follow {
		model.viewport.GotoBottom()
	}
}

// renderFeedLine renders one feed entry: faint timestamp and cycle
// columns, then the line colored by the phase its event moves sessions
// into. Stream notices use the system color instead.
func (model Model) renderFeedLine(entry feedEntry) string {
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)

	timestamp := faint.Render(entry.When.Format("15:04:05"))

	cycle := strings.Repeat(" ", 6)
	if entry.Cycle > 0 {
		cycle = fmt.Sprintf("%6d", entry.Cycle)
	}

	color := model.theme.SystemNotice
	if !entry.System {
		color = model.theme.StateColor(eventPhase(entry.Kind))
	}

	width := model.width - feedPrefixWidth
	if width < 1 {
		width = 1
	}
	body := lipgloss.NewStyle().
		Foreground(color).
		Render(ansi.Truncate(entry.Line, width, "…"))

	return " " + timestamp + " " + faint.Render(cycle) + "  " + body
}

// View implements tea.Model.
func (model Model) View() string {
	if !model.ready {
		return "Loading..."
	}

	var builder strings.Builder
	builder.WriteString(model.renderHeader())
	builder.WriteString("\n")
	builder.WriteString(model.renderTable())
	builder.WriteString("\n\n")
	builder.WriteString(model.viewport.View())
	builder.WriteString("\n")
	builder.WriteString(model.renderFooter())
	return builder.String()
}

// renderHeader renders the top chrome line: the program name and the
// stream status (phase, cycle, live session total).
func (model Model) renderHeader() string {
	title := lipgloss.NewStyle().
		Foreground(model.theme.HeaderForeground).
		Bold(true).
		Render(" arena watch  ")

	var status string
	switch model.stats.Phase {
	case PhaseCaughtUp:
		status = lipgloss.NewStyle().
			Foreground(model.theme.StateWaiting).
			Render("live") +
			lipgloss.NewStyle().
				Foreground(model.theme.FaintText).
				Render(fmt.Sprintf("  cycle %d  %d sessions", model.stats.Cycle, model.stats.Sessions))
	case PhaseLoading:
		status = lipgloss.NewStyle().
			Foreground(model.theme.StateRunning).
			Render("loading snapshot...")
	default:
		status = lipgloss.NewStyle().
			Foreground(model.theme.FaintText).
			Render("connecting...")
	}

	return lipgloss.NewStyle().Width(model.width).Render(title + status)
}

// renderTable renders the per-category queue table: one row per
// category with session counts by phase. Rows beyond maxCategoryRows
// collapse into an overflow line.
func (model Model) renderTable() string {
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)

	lines := []string{
		faint.Render(fmt.Sprintf(" %-12s %8s %9s %8s %9s",
			"CATEGORY", "WAITING", "ACCEPTED", "RUNNING", "FINISHED")),
	}

	counts := model.stats.Counts
	if len(counts) == 0 {
		lines = append(lines, faint.Render(" no live sessions"))
		return strings.Join(lines, "\n")
	}

	overflow := 0
	if len(counts) > maxCategoryRows {
		overflow = len(counts) - maxCategoryRows
		counts = counts[:maxCategoryRows]
	}

	for _, count := range counts {
		row := lipgloss.NewStyle().
			Foreground(model.theme.NormalText).
			Render(fmt.Sprintf(" %-12s", count.Category)) +
			model.renderCount(count.Waiting, 8, model.theme.StateWaiting) +
			model.renderCount(count.Accepted, 9, model.theme.StateAccepted) +
			model.renderCount(count.Running, 8, model.theme.StateRunning) +
			model.renderCount(count.Finished, 9, model.theme.StateFinished)
		lines = append(lines, row)
	}
	if overflow > 0 {
		lines = append(lines, faint.Render(fmt.Sprintf(" … and %d more categories", overflow)))
	}

	return strings.Join(lines, "\n")
}

// renderCount renders one right-aligned count cell, colored when
// non-zero and faint when zero so activity stands out.
func (model Model) renderCount(value, width int, color lipgloss.Color) string {
	cell := fmt.Sprintf(" %*d", width, value)
	if value == 0 {
		return lipgloss.NewStyle().Foreground(model.theme.FaintText).Render(cell)
	}
	return lipgloss.NewStyle().Foreground(color).Render(cell)
}

// renderFooter renders the bottom chrome line: the filter bar when the
// filter is active or set, the key help otherwise.
func (model Model) renderFooter() string {
	if filterView := model.filter.View(model.theme, model.width); filterView != "" {
		return filterView
	}
	return lipgloss.NewStyle().
		Foreground(model.theme.HelpText).
		Width(model.width).
		Render(" j/k scroll  ctrl+u/d page  G follow  / filter  q quit")
}
