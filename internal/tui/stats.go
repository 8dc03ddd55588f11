package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/timetable/internal/focus"
	"github.com/sadopc/timetable/internal/schedule"
	"github.com/sadopc/timetable/internal/stats"
	"github.com/sadopc/timetable/internal/store"
)

type statsModel struct {
	store  *store.Store
	width  int
	height int

	now      time.Time
	summary  stats.Summary
	week     [7]int
	sessions []focus.Session

	chart barchart.Model
}

func newStatsModel(s *store.Store) statsModel {
	return statsModel{
		store: s,
		chart: barchart.New(60, 12),
	}
}

func (m *statsModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

type statsDataMsg struct {
	now      time.Time
	sessions []focus.Session
	blocks   []schedule.TimeBlock
	goal     time.Duration
}

func (m statsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		now := time.Now()
		from := startOfDay(now).AddDate(0, 0, -6)
		sessions, _ := m.store.ListSessions(from, time.Time{})
		blocks, _ := m.store.ListBlocks()
		return statsDataMsg{
			now:      now,
			sessions: sessions,
			blocks:   blocks,
			goal:     m.store.LoadSettings().DailyGoal,
		}
	}
}

func (m statsModel) update(msg tea.Msg) (statsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case statsDataMsg:
		m.now = msg.now
		m.sessions = msg.sessions
		m.summary = stats.Today(msg.now, msg.sessions, msg.blocks, msg.goal)
		m.week = stats.Week(msg.now, msg.sessions)
		m.buildChart()
		return m, nil
	}
	return m, nil
}

func (m *statsModel) buildChart() {
	chartWidth := m.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 10
	if m.height > 30 {
		chartHeight = 14
	}

	m.chart = barchart.New(chartWidth, chartHeight)

	first := startOfDay(m.now).AddDate(0, 0, -6)
	var bars []barchart.BarData
	for i, minutes := range m.week {
		day := first.AddDate(0, 0, i)
		style := lipgloss.NewStyle().Foreground(colorPrimary)
		if i == len(m.week)-1 {
			style = lipgloss.NewStyle().Foreground(colorSecondary)
		}
		bars = append(bars, barchart.BarData{
			Label: day.Format("Mon 02"),
			Values: []barchart.BarValue{{
				Name:  "focus",
				Value: float64(minutes),
				Style: style,
			}},
		})
	}

	m.chart.PushAll(bars)
	m.chart.Draw()
}

func (m statsModel) view() string {
	w := m.width - 4
	s := m.summary

	header := titleStyle.Render("Today")
	goal := fmt.Sprintf("Goal %s  %s %d%%",
		stats.FormatMinutes(int(s.Goal/time.Minute)),
		renderBar(float64(s.GoalPercent)/100, max(10, min(40, w-30))),
		s.GoalPercent,
	)
	today := lipgloss.JoinVertical(lipgloss.Left,
		header,
		fmt.Sprintf("  Focus time     %s", highlightStyle.Render(stats.FormatMinutes(s.FocusMinutes))),
		fmt.Sprintf("  Class time     %s", highlightStyle.Render(stats.FormatMinutes(s.ClassMinutes))),
		fmt.Sprintf("  Sessions       %s", highlightStyle.Render(fmt.Sprintf("%d", s.Sessions))),
		"  "+goal,
	)

	total := 0
	for _, v := range m.week {
		total += v
	}
	weekTitle := titleStyle.Render("Focus, last 7 days") + mutedStyle.Render("  "+stats.FormatMinutes(total))

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			today, "", weekTitle, "", m.chart.View(), "", m.renderRecent(),
		),
	)
}

func (m statsModel) renderRecent() string {
	if len(m.sessions) == 0 {
		return mutedStyle.Render("  No focus sessions yet")
	}
	rows := []string{mutedStyle.Render(fmt.Sprintf("  %-18s %10s", "Completed", "Duration"))}
	for i, sess := range m.sessions {
		if i == 5 {
			break
		}
		rows = append(rows, fmt.Sprintf("  %-18s %10s",
			sess.Started().Format("Mon 02 Jan 15:04"),
			stats.FormatMinutes(sess.Duration),
		))
	}
	return strings.Join(rows, "\n")
}
