package tui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/timetable/internal/schedule"
	"github.com/sadopc/timetable/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewDashboard viewState = iota
	viewWeek
	viewFocus
	viewStats
	viewTodos
	viewSettings
)

var viewNames = []string{"Today", "Week", "Focus", "Stats", "Todos", "Settings"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
	bell    bool
}

// tickMsg drives the wall clock, the schedule status and the alert check.
type tickMsg time.Time

// focusTickMsg drives the countdown. gen ties it to one run so ticks
// scheduled before a pause or reset are dropped.
type focusTickMsg struct {
	gen int
	at  time.Time
}

type blocksChangedMsg struct{}

type sessionRecordedMsg struct{}

type settingsChangedMsg struct {
	settings store.Settings
}

type exportDoneMsg struct {
	path string
}

// --- Helpers ---

func statusCmd(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text} }
}

// bellCmd shows text and rings the terminal bell once.
func bellCmd(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text, bell: true} }
}

// bellOut receives the BEL byte, kept off the renderer output.
var bellOut io.Writer = os.Stderr

func ringCmd() tea.Cmd {
	return func() tea.Msg {
		fmt.Fprint(bellOut, "\a")
		return nil
	}
}

func errorCmd(format string, args ...any) tea.Cmd {
	text := fmt.Sprintf(format, args...)
	return func() tea.Msg { return statusMsg{text: text, isError: true} }
}

// formatCountdown renders seconds as MM:SS, or H:MM:SS past an hour.
func formatCountdown(secs int) string {
	if secs < 0 {
		secs = 0
	}
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

func formatRange(b schedule.TimeBlock) string {
	return b.Start.String() + "-" + b.End.String()
}

func formatIn(minutes int) string {
	switch {
	case minutes <= 0:
		return "now"
	case minutes == 1:
		return "in 1 minute"
	case minutes < 60:
		return fmt.Sprintf("in %d minutes", minutes)
	}
	return fmt.Sprintf("in %dh %02dm", minutes/60, minutes%60)
}

// renderBar draws a filled/empty bar for a fraction in [0, 1].
func renderBar(frac float64, width int) string {
	if width < 1 {
		return ""
	}
	filled := int(frac*float64(width) + 0.5)
	filled = min(max(filled, 0), width)
	return successStyle.Render(strings.Repeat("█", filled)) +
		mutedStyle.Render(strings.Repeat("░", width-filled))
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
