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

	"github.com/sadopc/timetable/internal/focus"
	"github.com/sadopc/timetable/internal/store"
)

type focusModel struct {
	store  *store.Store
	width  int
	height int

	timer *focus.Timer
	// gen increments on every transition that stops or restarts the
	// countdown; focusTickMsg carrying an older gen is ignored.
	gen int

	completedToday int

	formActive  bool
	form        *huh.Form
	formMinutes *string
}

func newFocusModel(s *store.Store) focusModel {
	st := s.LoadSettings()
	p := focus.Presets{Focus: st.FocusMinutes, Short: st.ShortMinutes, Long: st.LongMinutes}
	mins := ""
	return focusModel{
		store:       s,
		timer:       focus.NewTimer(p, st.CustomMinutes),
		formMinutes: &mins,
	}
}

func (f *focusModel) setSize(w, h int) {
	f.width = w
	f.height = h
}

func (f focusModel) running() bool { return f.timer.State().Running }

func focusTick(gen int) tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return focusTickMsg{gen: gen, at: t}
	})
}

func (f focusModel) update(msg tea.Msg) (focusModel, tea.Cmd) {
	// The countdown keeps running while the duration form is open.
	if msg, ok := msg.(focusTickMsg); ok {
		return f.tick(msg)
	}
	if f.formActive && f.form != nil {
		return f.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsChangedMsg:
		st := msg.settings
		wasRunning := f.running()
		if err := f.timer.SetPresets(focus.Presets{Focus: st.FocusMinutes, Short: st.ShortMinutes, Long: st.LongMinutes}); err != nil {
			return f, errorCmd("Timer presets: %v", err)
		}
		if wasRunning && !f.running() {
			f.gen++
		}
		return f, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Toggle):
			return f.toggle()
		case key.Matches(msg, keys.Reset):
			f.timer.Reset()
			f.gen++
			return f, nil
		case key.Matches(msg, keys.Mode):
			f.timer.SwitchMode(nextMode(f.timer.State().Mode))
			f.gen++
			return f, nil
		case key.Matches(msg, keys.Duration):
			return f.showDurationForm()
		}
	}
	return f, nil
}

func (f focusModel) tick(msg focusTickMsg) (focusModel, tea.Cmd) {
	if msg.gen != f.gen {
		return f, nil
	}
	c, done := f.timer.Tick(msg.at)
	if done {
		f.gen++
		return f.complete(c)
	}
	if f.running() {
		return f, focusTick(f.gen)
	}
	return f, nil
}

func (f focusModel) toggle() (focusModel, tea.Cmd) {
	if f.running() {
		f.timer.Pause()
		f.gen++
		return f, nil
	}
	if !f.timer.Start() {
		return f, nil
	}
	f.gen++
	return f, focusTick(f.gen)
}

func (f focusModel) complete(c focus.Completion) (focusModel, tea.Cmd) {
	sess, ok := focus.NewSession(c)
	if !ok {
		return f, bellCmd("Break over!")
	}
	f.completedToday++
	s := f.store
	return f, tea.Batch(
		func() tea.Msg {
			if err := s.RecordSession(sess); err != nil {
				return statusMsg{text: fmt.Sprintf("Error saving session: %v", err), isError: true}
			}
			return sessionRecordedMsg{}
		},
		bellCmd(fmt.Sprintf("%s session complete: %d minutes", c.Mode.Label(), c.Minutes)),
	)
}

func nextMode(m focus.Mode) focus.Mode {
	for i, mode := range focus.Modes {
		if mode == m {
			return focus.Modes[(i+1)%len(focus.Modes)]
		}
	}
	return focus.ModeFocus
}

func (f focusModel) showDurationForm() (focusModel, tea.Cmd) {
	*f.formMinutes = strconv.Itoa(f.timer.State().CustomMinutes)

	f.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Custom duration (min)").
				Value(f.formMinutes).
				Validate(validateMinutesInput),
		),
	).WithShowHelp(true).WithShowErrors(true)

	f.formActive = true
	return f, f.form.Init()
}

func validateMinutesInput(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("enter whole minutes")
	}
	return focus.ValidateMinutes(n)
}

func (f focusModel) updateForm(msg tea.Msg) (focusModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			f.formActive = false
			f.form = nil
			return f, nil
		}
	}

	form, cmd := f.form.Update(msg)
	if fm, ok := form.(*huh.Form); ok {
		f.form = fm
	}

	if f.form.State == huh.StateCompleted {
		f.formActive = false
		n, _ := strconv.Atoi(strings.TrimSpace(*f.formMinutes))
		return f.applyCustomDuration(n)
	}

	return f, cmd
}

// applyCustomDuration updates the timer and persists the custom preset.
func (f focusModel) applyCustomDuration(minutes int) (focusModel, tea.Cmd) {
	wasRunning := f.running()
	if err := f.timer.SetCustomDuration(minutes); err != nil {
		return f, errorCmd("Invalid duration: %v", err)
	}
	if wasRunning && !f.running() {
		f.gen++
	}
	s := f.store
	return f, func() tea.Msg {
		if err := s.SetSetting("custom_minutes", strconv.Itoa(minutes)); err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		return statusMsg{text: fmt.Sprintf("Custom duration set to %d minutes", minutes)}
	}
}

func (f focusModel) view() string {
	w := f.width - 4

	if f.formActive && f.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Custom Timer"), "", f.form.View()),
		)
	}

	st := f.timer.State()

	var tabs []string
	for _, m := range focus.Modes {
		label := m.Label()
		if m == focus.ModeCustom {
			label = fmt.Sprintf("%s %dm", label, st.CustomMinutes)
		}
		if m == st.Mode {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(label))
		}
	}
	modeRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	style := countdownStyle
	if !st.Mode.Recorded() {
		style = countdownBreakStyle
	}
	indicator := successStyle.Render("●  RUNNING")
	if !st.Running {
		if st.RemainingSeconds == 0 {
			indicator = successStyle.Render("✓  DONE")
		} else if st.RemainingSeconds < st.TotalSeconds {
			style = countdownPausedStyle
			indicator = warningStyle.Render("⏸  PAUSED")
		} else {
			indicator = mutedStyle.Render("■  READY")
		}
	}
	timeDisplay := style.Width(w - 6).Render(formatCountdown(st.RemainingSeconds))

	done := mutedStyle.Render(fmt.Sprintf("%d focus sessions since launch", f.completedToday))

	content := lipgloss.JoinVertical(lipgloss.Center,
		modeRow,
		"",
		timeDisplay,
		indicator,
		"",
		renderBar(st.Progress(), max(10, w-10)),
		"",
		done,
	)

	controls := mutedStyle.Render("space: start/pause  r: reset  m: mode  t: custom time")

	panel := panelStyle
	if st.Running {
		panel = activePanelStyle
	}
	return panel.Width(w).Render(lipgloss.JoinVertical(lipgloss.Center, content, "", controls))
}
