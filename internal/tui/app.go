package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/sadopc/timetable/internal/export"
	"github.com/sadopc/timetable/internal/logging"
	"github.com/sadopc/timetable/internal/notify"
	"github.com/sadopc/timetable/internal/store"
)

// Options configures the App. A nil Trigger gets an in-memory one that
// only logs.
type Options struct {
	Trigger *notify.Trigger
	// ExportDir is where exports are written. Defaults to the home directory.
	ExportDir string
}

// App is the root Bubble Tea model.
type App struct {
	store   *store.Store
	trigger *notify.Trigger
	log     *logrus.Entry
	width   int
	height  int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int
	exportDir     string

	dashboard dashboardModel
	week      weekModel
	focus     focusModel
	stats     statsModel
	todos     todosModel
	settings  settingsModel

	help   help.Model
	status string
	isErr  bool
	alert  string
}

func NewApp(s *store.Store, opts Options) App {
	h := help.New()
	h.ShowAll = false

	log := logging.NewLogger("tui")
	trigger := opts.Trigger
	if trigger == nil {
		trigger = notify.NewTrigger(notify.Options{
			Sink:   notify.LogSink{Log: log},
			Logger: log,
		})
	}
	dir := opts.ExportDir
	if dir == "" {
		dir, _ = os.UserHomeDir()
	}

	return App{
		store:      s,
		trigger:    trigger,
		log:        log,
		activeView: viewDashboard,
		exportDir:  dir,
		dashboard:  newDashboardModel(s),
		week:       newWeekModel(s),
		focus:      newFocusModel(s),
		stats:      newStatsModel(s),
		todos:      newTodosModel(s),
		settings:   newSettingsModel(s),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.dashboard.Init(),
		a.week.refresh(),
		a.todos.refresh(),
		func() tea.Msg { return tickMsg(time.Now()) },
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.dashboard.setSize(a.width, contentHeight)
		a.week.setSize(a.width, contentHeight)
		a.focus.setSize(a.width, contentHeight)
		a.stats.setSize(a.width, contentHeight)
		a.todos.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Back):
			a.alert = ""
			return a, nil
		case key.Matches(msg, keys.Tab1):
			return a.switchView(viewDashboard)
		case key.Matches(msg, keys.Tab2):
			return a.switchView(viewWeek)
		case key.Matches(msg, keys.Tab3):
			return a.switchView(viewFocus)
		case key.Matches(msg, keys.Tab4):
			return a.switchView(viewStats)
		case key.Matches(msg, keys.Tab5):
			return a.switchView(viewTodos)
		case key.Matches(msg, keys.Tab6):
			return a.switchView(viewSettings)
		case key.Matches(msg, keys.Tab):
			return a.switchView((a.activeView + 1) % viewState(len(viewNames)))
		}

	case tickMsg:
		cmds = append(cmds, tickCmd())
		a.dashboard, _ = a.dashboard.update(msg)
		a.settings.permission = a.trigger.Permission()
		if cmd := a.checkAlert(); cmd != nil {
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case focusTickMsg:
		// Countdown runs regardless of the visible view.
		var cmd tea.Cmd
		a.focus, cmd = a.focus.update(msg)
		return a, cmd

	case blocksChangedMsg:
		return a, a.dashboard.loadData()

	case sessionRecordedMsg:
		return a, tea.Batch(a.dashboard.loadData(), a.stats.refresh())

	case settingsChangedMsg:
		a.dashboard, _ = a.dashboard.update(msg)
		var cmd tea.Cmd
		a.focus, cmd = a.focus.update(msg)
		a.status = "Settings saved"
		a.isErr = false
		return a, tea.Batch(cmd, a.settings.refresh())

	case statusMsg:
		a.status = msg.text
		a.isErr = msg.isError
		if msg.bell {
			return a, ringCmd()
		}
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.isErr = false
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

// checkAlert runs the notification trigger against the latest schedule
// status. The trigger dedupes, so this is safe on every tick.
func (a *App) checkAlert() tea.Cmd {
	alert, ok := a.trigger.Evaluate(a.dashboard.status, a.dashboard.notificationsEnabled())
	if !ok || a.trigger.Permission() != notify.PermissionGranted {
		return nil
	}
	a.alert = alert.Title + ": " + alert.Body
	return ringCmd()
}

func (a App) switchView(v viewState) (tea.Model, tea.Cmd) {
	a.activeView = v
	return a, a.refreshCurrentView()
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewDashboard:
		a.dashboard, cmd = a.dashboard.update(msg)
	case viewWeek:
		a.week, cmd = a.week.update(msg)
	case viewFocus:
		a.focus, cmd = a.focus.update(msg)
	case viewStats:
		a.stats, cmd = a.stats.update(msg)
	case viewTodos:
		a.todos, cmd = a.todos.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewWeek:
		return a.week.formActive
	case viewFocus:
		return a.focus.formActive
	case viewTodos:
		return a.todos.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewDashboard:
		return a.dashboard.loadData()
	case viewWeek:
		return a.week.refresh()
	case viewStats:
		return a.stats.refresh()
	case viewTodos:
		return a.todos.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewDashboard:
		content = a.dashboard.view()
	case viewWeek:
		content = a.week.view()
	case viewFocus:
		content = a.focus.view()
	case viewStats:
		content = a.stats.view()
	case viewTodos:
		content = a.todos.view()
	case viewSettings:
		content = a.settings.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("timetable")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	head := headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
	if a.alert != "" {
		head = lipgloss.JoinVertical(lipgloss.Left, head, alertStyle.Render(" 🔔 "+a.alert+"  (esc to dismiss)"))
	}
	return head
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		if a.isErr {
			status = errorStyle.Render(" " + a.status)
		} else {
			status = mutedStyle.Render(" " + a.status)
		}
	}

	// Countdown indicator in footer
	timerInfo := ""
	if st := a.focus.timer.State(); st.Running {
		timerInfo = successStyle.Render(fmt.Sprintf(" ● %s %s", st.Mode.Label(), formatCountdown(st.RemainingSeconds)))
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

var exportFormats = []string{"Classes (CSV)", "Focus sessions (CSV)", "Everything (JSON)", "Calendar (ICS)"}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export")
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	s, dir, log := a.store, a.exportDir, a.log
	return func() tea.Msg {
		blocks, err := s.ListBlocks()
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		sessions, err := s.ListSessions(time.Time{}, time.Time{})
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}

		dateStr := time.Now().Format("2006-01-02")
		var path string
		switch format {
		case 0:
			path = filepath.Join(dir, fmt.Sprintf("timetable-classes-%s.csv", dateStr))
			err = export.BlocksToCSV(blocks, path)
		case 1:
			path = filepath.Join(dir, fmt.Sprintf("timetable-sessions-%s.csv", dateStr))
			err = export.SessionsToCSV(sessions, path)
		case 2:
			path = filepath.Join(dir, fmt.Sprintf("timetable-export-%s.json", dateStr))
			err = export.ToJSON(blocks, sessions, path)
		default:
			path = filepath.Join(dir, fmt.Sprintf("timetable-%s.ics", dateStr))
			err = export.ToICS(blocks, export.ICSOptions{}, path)
		}
		if err != nil {
			log.WithError(err).WithField("path", path).Error("export failed")
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		log.WithField("path", path).Info("exported")
		return exportDoneMsg{path: path}
	}
}
