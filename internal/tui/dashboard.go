package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/timetable/internal/focus"
	"github.com/sadopc/timetable/internal/notify"
	"github.com/sadopc/timetable/internal/schedule"
	"github.com/sadopc/timetable/internal/stats"
	"github.com/sadopc/timetable/internal/store"
)

type dashboardModel struct {
	store  *store.Store
	width  int
	height int

	now      time.Time
	blocks   []schedule.TimeBlock
	sessions []focus.Session
	settings store.Settings
	status   schedule.Status
	summary  stats.Summary
}

func newDashboardModel(s *store.Store) dashboardModel {
	return dashboardModel{
		store:    s,
		settings: s.LoadSettings(),
	}
}

func (d dashboardModel) Init() tea.Cmd {
	return d.loadData()
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

type dashboardDataMsg struct {
	blocks   []schedule.TimeBlock
	sessions []focus.Session
	settings store.Settings
}

func (d dashboardModel) loadData() tea.Cmd {
	return func() tea.Msg {
		blocks, _ := d.store.ListBlocks()
		from := startOfDay(time.Now())
		sessions, _ := d.store.ListSessions(from, time.Time{})
		return dashboardDataMsg{
			blocks:   blocks,
			sessions: sessions,
			settings: d.store.LoadSettings(),
		}
	}
}

// notificationsEnabled reports the persisted toggle.
func (d dashboardModel) notificationsEnabled() bool {
	return d.settings.NotificationsEnabled
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		d.blocks = msg.blocks
		d.sessions = msg.sessions
		d.settings = msg.settings
		if !d.now.IsZero() {
			d.resolve(d.now)
		}
		return d, nil

	case settingsChangedMsg:
		d.settings = msg.settings
		d.resolve(d.now)
		return d, nil

	case tickMsg:
		d.resolve(time.Time(msg))
		return d, nil
	}
	return d, nil
}

// resolve recomputes the schedule status and the daily summary for now.
func (d *dashboardModel) resolve(now time.Time) {
	if now.IsZero() {
		now = time.Now()
	}
	d.now = now
	d.status = schedule.Resolve(now, d.blocks)
	d.summary = stats.Today(now, d.sessions, d.blocks, d.settings.DailyGoal)
}

func (d dashboardModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}

	contentWidth := d.width - 4

	statusPanel := d.renderStatusPanel(contentWidth)
	schedulePanel := d.renderSchedulePanel(contentWidth)
	summaryPanel := d.renderSummaryPanel(contentWidth)

	return lipgloss.JoinVertical(lipgloss.Left, statusPanel, schedulePanel, summaryPanel)
}

func (d dashboardModel) renderStatusPanel(w int) string {
	clock := countdownStyle.Width(w - 6).Render(d.now.Format("Monday 15:04:05"))

	var current string
	if c := d.status.Current; c != nil {
		current = lipgloss.JoinVertical(lipgloss.Left,
			fmt.Sprintf("%s %s  %s", colorDot(c.Color), highlightStyle.Bold(true).Render(c.Subject), mutedStyle.Render(formatRange(*c))),
			renderBar(c.Progress(d.now), max(10, w-16)),
		)
		if c.Location != "" {
			current = lipgloss.JoinVertical(lipgloss.Left, current, mutedStyle.Render("  "+c.Location))
		}
	} else {
		current = mutedStyle.Render("No class right now")
	}

	var next string
	if n := d.status.Next; n != nil {
		style := normalItemStyle
		if d.status.MinutesToNext <= notify.LeadMinutes {
			style = warningStyle
		}
		next = fmt.Sprintf("Next: %s %s %s", colorDot(n.Color), n.Subject, style.Render(formatIn(d.status.MinutesToNext)))
		if n.Location != "" {
			next += mutedStyle.Render(" at " + n.Location)
		}
	} else {
		next = mutedStyle.Render("Nothing else scheduled today")
	}

	notif := successStyle.Render("alerts on")
	if !d.settings.NotificationsEnabled {
		notif = mutedStyle.Render("alerts off")
	}

	content := lipgloss.JoinVertical(lipgloss.Center, clock, "")
	content = lipgloss.JoinVertical(lipgloss.Left, content, titleStyle.Render("Now"), current, "", next, "", notif)
	if d.status.Current != nil {
		return activePanelStyle.Width(w).Render(content)
	}
	return panelStyle.Width(w).Render(content)
}

func (d dashboardModel) renderSchedulePanel(w int) string {
	day := schedule.DayOf(d.now)
	title := titleStyle.Render("Schedule for " + string(day))
	blocks := schedule.ForDay(day, d.blocks)

	if len(blocks) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("No classes today. Press 2 to edit the week."),
		))
	}

	var rows []string
	rows = append(rows, title)
	for _, b := range blocks {
		marker := "  "
		style := normalItemStyle
		switch {
		case d.status.Current != nil && d.status.Current.ID == b.ID:
			marker = "▶ "
			style = selectedItemStyle
		case b.End <= schedule.ClockOf(d.now):
			style = mutedStyle
		}
		row := fmt.Sprintf("%s%s %s  %-20s %s", marker, colorDot(b.Color), formatRange(b), b.Subject, b.Location)
		rows = append(rows, style.Render(row))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderSummaryPanel(w int) string {
	s := d.summary
	line := fmt.Sprintf("Focus %s (%d sessions)   Classes %s   Goal %d%%",
		highlightStyle.Render(stats.FormatMinutes(s.FocusMinutes)),
		s.Sessions,
		highlightStyle.Render(stats.FormatMinutes(s.ClassMinutes)),
		s.GoalPercent,
	)
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Today"), line))
}
