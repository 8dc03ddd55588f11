package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/timetable/internal/notify"
	"github.com/sadopc/timetable/internal/store"
)

type settingsModel struct {
	store  *store.Store
	width  int
	height int

	settings   store.Settings
	permission notify.Permission
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	notifications *bool
	focusMinutes  *string
	shortMinutes  *string
	longMinutes   *string
	customMinutes *string
	dailyGoal     *string
}

func newSettingsModel(s *store.Store) settingsModel {
	notif := true
	fm, sm, lm, cm, dg := "", "", "", "", ""
	return settingsModel{
		store:         s,
		settings:      s.LoadSettings(),
		notifications: &notif,
		focusMinutes:  &fm,
		shortMinutes:  &sm,
		longMinutes:   &lm,
		customMinutes: &cm,
		dailyGoal:     &dg,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings store.Settings
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		return settingsDataMsg{settings: s.store.LoadSettings()}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	st := s.settings
	*s.notifications = st.NotificationsEnabled
	*s.focusMinutes = strconv.Itoa(st.FocusMinutes)
	*s.shortMinutes = strconv.Itoa(st.ShortMinutes)
	*s.longMinutes = strconv.Itoa(st.LongMinutes)
	*s.customMinutes = strconv.Itoa(st.CustomMinutes)
	*s.dailyGoal = strconv.FormatFloat(st.DailyGoal.Hours(), 'f', -1, 64)

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().Title("Class reminders").
				Description(fmt.Sprintf("Alert %d minutes before each class", notify.LeadMinutes)).
				Affirmative("On").Negative("Off").
				Value(s.notifications),
		).Title("Notifications"),
		huh.NewGroup(
			huh.NewInput().Title("Focus (min)").Value(s.focusMinutes).Validate(validateMinutesInput),
			huh.NewInput().Title("Short break (min)").Value(s.shortMinutes).Validate(validateMinutesInput),
			huh.NewInput().Title("Long break (min)").Value(s.longMinutes).Validate(validateMinutesInput),
			huh.NewInput().Title("Custom (min)").Value(s.customMinutes).Validate(validateMinutesInput),
		).Title("Timer"),
		huh.NewGroup(
			huh.NewInput().Title("Daily goal (hours)").Value(s.dailyGoal).Validate(validateHoursInput),
		).Title("Stats"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func validateHoursInput(v string) error {
	h, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || h <= 0 {
		return fmt.Errorf("enter a positive number of hours")
	}
	return nil
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		st := s.formSettings()
		if err := s.store.SaveSettings(st); err != nil {
			return s, errorCmd("Error saving settings: %v", err)
		}
		s.settings = st
		return s, func() tea.Msg { return settingsChangedMsg{settings: st} }
	}

	return s, cmd
}

// formSettings converts the form fields, keeping the current value for
// anything that does not parse.
func (s settingsModel) formSettings() store.Settings {
	st := s.settings
	st.NotificationsEnabled = *s.notifications
	st.FocusMinutes = atoiOr(*s.focusMinutes, st.FocusMinutes)
	st.ShortMinutes = atoiOr(*s.shortMinutes, st.ShortMinutes)
	st.LongMinutes = atoiOr(*s.longMinutes, st.LongMinutes)
	st.CustomMinutes = atoiOr(*s.customMinutes, st.CustomMinutes)
	if h, err := strconv.ParseFloat(strings.TrimSpace(*s.dailyGoal), 64); err == nil && h > 0 {
		st.DailyGoal = time.Duration(h * float64(time.Hour))
	}
	return st
}

func atoiOr(v string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Settings"), "", s.form.View()),
		)
	}

	st := s.settings
	reminders := successStyle.Render("on")
	if !st.NotificationsEnabled {
		reminders = mutedStyle.Render("off")
	}
	perm := string(s.permission)
	switch s.permission {
	case notify.PermissionGranted:
		perm = successStyle.Render(perm)
	case notify.PermissionDenied:
		perm = errorStyle.Render(perm)
	default:
		perm = warningStyle.Render(perm)
	}

	row := func(label, value string) string {
		return fmt.Sprintf("  %s %s", lipgloss.NewStyle().Width(24).Render(label), value)
	}

	rows := []string{
		titleStyle.Render("Settings"),
		"",
		row("Class reminders", reminders),
		row("Terminal alerts", perm),
		row("Focus", highlightStyle.Render(fmt.Sprintf("%d min", st.FocusMinutes))),
		row("Short break", highlightStyle.Render(fmt.Sprintf("%d min", st.ShortMinutes))),
		row("Long break", highlightStyle.Render(fmt.Sprintf("%d min", st.LongMinutes))),
		row("Custom", highlightStyle.Render(fmt.Sprintf("%d min", st.CustomMinutes))),
		row("Daily goal", highlightStyle.Render(fmt.Sprintf("%.1f hours", st.DailyGoal.Hours()))),
		"",
		mutedStyle.Render("Press enter to edit settings"),
	}

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
