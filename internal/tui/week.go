package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/timetable/internal/schedule"
	"github.com/sadopc/timetable/internal/stats"
	"github.com/sadopc/timetable/internal/store"
)

type weekModel struct {
	store  *store.Store
	width  int
	height int

	blocks []schedule.TimeBlock
	day    schedule.Day
	cursor int

	formActive bool
	form       *huh.Form
	formType   string // "new", "edit"
	editingID  string

	// Form field pointers (survive value copies)
	formSubject  *string
	formLocation *string
	formStart    *string
	formEnd      *string
	formColor    *string
	formDays     *[]string
}

func newWeekModel(s *store.Store) weekModel {
	subject, location, start, end, color := "", "", "", "", blockColors[0]
	var days []string
	return weekModel{
		store:        s,
		day:          schedule.DayOf(time.Now()),
		formSubject:  &subject,
		formLocation: &location,
		formStart:    &start,
		formEnd:      &end,
		formColor:    &color,
		formDays:     &days,
	}
}

func (w *weekModel) setSize(width, height int) {
	w.width = width
	w.height = height
}

type weekDataMsg struct {
	blocks []schedule.TimeBlock
}

func (w weekModel) refresh() tea.Cmd {
	return func() tea.Msg {
		blocks, _ := w.store.ListBlocks()
		return weekDataMsg{blocks: blocks}
	}
}

// dayBlocks are the selected day's blocks in display order.
func (w weekModel) dayBlocks() []schedule.TimeBlock {
	return schedule.ForDay(w.day, w.blocks)
}

func (w weekModel) update(msg tea.Msg) (weekModel, tea.Cmd) {
	if w.formActive && w.form != nil {
		return w.updateForm(msg)
	}

	switch msg := msg.(type) {
	case weekDataMsg:
		w.blocks = msg.blocks
		w.clampCursor()
		return w, nil

	case tea.KeyMsg:
		return w.updateList(msg)
	}
	return w, nil
}

func (w *weekModel) clampCursor() {
	n := len(w.dayBlocks())
	if w.cursor >= n {
		w.cursor = max(0, n-1)
	}
}

func (w weekModel) shiftDay(delta int) weekModel {
	idx := 0
	for i, d := range schedule.Days {
		if d == w.day {
			idx = i
		}
	}
	n := len(schedule.Days)
	w.day = schedule.Days[((idx+delta)%n+n)%n]
	w.cursor = 0
	return w
}

func (w weekModel) updateList(msg tea.KeyMsg) (weekModel, tea.Cmd) {
	blocks := w.dayBlocks()
	switch {
	case key.Matches(msg, keys.Left):
		w = w.shiftDay(-1)
	case key.Matches(msg, keys.Right):
		w = w.shiftDay(1)
	case key.Matches(msg, keys.Up):
		if w.cursor > 0 {
			w.cursor--
		}
	case key.Matches(msg, keys.Down):
		if w.cursor < len(blocks)-1 {
			w.cursor++
		}
	case key.Matches(msg, keys.New):
		return w.showForm(nil)
	case key.Matches(msg, keys.Edit), key.Matches(msg, keys.Enter):
		if len(blocks) > 0 {
			b := blocks[w.cursor]
			return w.showForm(&b)
		}
	case key.Matches(msg, keys.Delete):
		if len(blocks) > 0 {
			b := blocks[w.cursor]
			if err := w.store.DeleteBlock(b.ID); err != nil {
				return w, errorCmd("Error: %v", err)
			}
			return w, tea.Batch(
				w.refresh(),
				func() tea.Msg { return blocksChangedMsg{} },
				statusCmd("Deleted "+b.Subject),
			)
		}
	}
	return w, nil
}

// showForm opens the block form, prefilled from b when editing.
func (w weekModel) showForm(b *schedule.TimeBlock) (weekModel, tea.Cmd) {
	if b == nil {
		w.formType = "new"
		w.editingID = ""
		*w.formSubject = ""
		*w.formLocation = ""
		*w.formStart = "09:00"
		*w.formEnd = "10:00"
		*w.formColor = blockColors[0]
		*w.formDays = []string{string(w.day)}
	} else {
		w.formType = "edit"
		w.editingID = b.ID
		*w.formSubject = b.Subject
		*w.formLocation = b.Location
		*w.formStart = b.Start.String()
		*w.formEnd = b.End.String()
		*w.formColor = b.Color
		if *w.formColor == "" {
			*w.formColor = blockColors[0]
		}
		days := make([]string, len(b.Days))
		for i, d := range b.Days {
			days[i] = string(d)
		}
		*w.formDays = days
	}

	dayOptions := make([]huh.Option[string], len(schedule.Days))
	for i, d := range schedule.Days {
		dayOptions[i] = huh.NewOption(string(d), string(d))
	}
	colorOptions := make([]huh.Option[string], len(blockColors))
	for i, c := range blockColors {
		colorOptions[i] = huh.NewOption(fmt.Sprintf("● %s", c), c)
	}

	w.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Subject").Value(w.formSubject).Validate(requireText),
			huh.NewInput().Title("Location").Value(w.formLocation),
			huh.NewInput().Title("Start (HH:MM)").Value(w.formStart).Validate(validateClockInput),
			huh.NewInput().Title("End (HH:MM)").Value(w.formEnd).Validate(validateClockInput),
		),
		huh.NewGroup(
			huh.NewMultiSelect[string]().Title("Days").Options(dayOptions...).Value(w.formDays).
				Validate(func(v []string) error {
					if len(v) == 0 {
						return schedule.ErrNoDays
					}
					return nil
				}),
			huh.NewSelect[string]().Title("Color").Options(colorOptions...).Value(w.formColor),
		),
	).WithShowHelp(true).WithShowErrors(true)

	w.formActive = true
	return w, w.form.Init()
}

func requireText(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("required")
	}
	return nil
}

func validateClockInput(s string) error {
	_, err := schedule.ParseClock(strings.TrimSpace(s))
	return err
}

// formBlock builds and validates a block from the form fields.
func (w weekModel) formBlock() (schedule.TimeBlock, error) {
	b := schedule.TimeBlock{
		ID:       w.editingID,
		Subject:  strings.TrimSpace(*w.formSubject),
		Location: strings.TrimSpace(*w.formLocation),
		Color:    *w.formColor,
	}
	var err error
	if b.Start, err = schedule.ParseClock(strings.TrimSpace(*w.formStart)); err != nil {
		return b, err
	}
	if b.End, err = schedule.ParseClock(strings.TrimSpace(*w.formEnd)); err != nil {
		return b, err
	}
	for _, d := range *w.formDays {
		day, err := schedule.ParseDay(d)
		if err != nil {
			return b, err
		}
		b.Days = append(b.Days, day)
	}
	return b, schedule.Validate(b)
}

func (w weekModel) updateForm(msg tea.Msg) (weekModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			w.formActive = false
			w.form = nil
			return w, nil
		}
	}

	form, cmd := w.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		w.form = f
	}

	if w.form.State == huh.StateCompleted {
		return w.save()
	}

	return w, cmd
}

func (w weekModel) save() (weekModel, tea.Cmd) {
	w.formActive = false
	w.form = nil
	b, err := w.formBlock()
	if err != nil {
		return w, errorCmd("Invalid block: %v", err)
	}
	switch w.formType {
	case "edit":
		err = w.store.UpdateBlock(b)
	default:
		_, err = w.store.CreateBlock(b)
	}
	if err != nil {
		return w, errorCmd("Error: %v", err)
	}
	return w, tea.Batch(
		w.refresh(),
		func() tea.Msg { return blocksChangedMsg{} },
		statusCmd("Saved "+b.Subject),
	)
}

func (w weekModel) view() string {
	width := w.width - 4

	if w.formActive && w.form != nil {
		title := titleStyle.Render("New Class")
		if w.formType == "edit" {
			title = titleStyle.Render("Edit Class")
		}
		return panelStyle.Width(width).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", w.form.View()),
		)
	}

	var dayTabs []string
	for _, d := range schedule.Days {
		label := d.Short()
		if n := len(schedule.ForDay(d, w.blocks)); n > 0 {
			label = fmt.Sprintf("%s %d", label, n)
		}
		if d == w.day {
			dayTabs = append(dayTabs, activeTabStyle.Render(label))
		} else {
			dayTabs = append(dayTabs, inactiveTabStyle.Render(label))
		}
	}
	dayRow := lipgloss.JoinHorizontal(lipgloss.Bottom, dayTabs...)

	title := titleStyle.Render(string(w.day))
	total := schedule.ScheduledTime(w.day, w.blocks)
	if total > 0 {
		title += mutedStyle.Render(fmt.Sprintf("  %s scheduled", stats.FormatMinutes(int(total/time.Minute))))
	}

	rows := []string{dayRow, "", title, ""}
	blocks := w.dayBlocks()
	if len(blocks) == 0 {
		rows = append(rows, mutedStyle.Render("No classes. Press n to add one."))
	}
	for i, b := range blocks {
		cursor := "  "
		style := normalItemStyle
		if i == w.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		line := style.Render(fmt.Sprintf("%s%s  %-20s", cursor, formatRange(b), b.Subject))
		detail := mutedStyle.Render(fmt.Sprintf(" %s  %s", b.Location, b.DayList()))
		rows = append(rows, colorDot(b.Color)+" "+line+detail)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  ←/→: day  n: new  e: edit  d: delete"))

	return panelStyle.Width(width).Render(strings.Join(rows, "\n"))
}
