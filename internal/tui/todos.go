package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/timetable/internal/store"
)

type todosModel struct {
	store  *store.Store
	width  int
	height int

	todos  []store.Todo
	cursor int

	formActive bool
	form       *huh.Form
	formText   *string
}

func newTodosModel(s *store.Store) todosModel {
	text := ""
	return todosModel{store: s, formText: &text}
}

func (t *todosModel) setSize(w, h int) {
	t.width = w
	t.height = h
}

type todosDataMsg struct {
	todos []store.Todo
}

func (t todosModel) refresh() tea.Cmd {
	return func() tea.Msg {
		todos, _ := t.store.ListTodos()
		return todosDataMsg{todos: todos}
	}
}

func (t todosModel) update(msg tea.Msg) (todosModel, tea.Cmd) {
	if t.formActive && t.form != nil {
		return t.updateForm(msg)
	}

	switch msg := msg.(type) {
	case todosDataMsg:
		t.todos = msg.todos
		if t.cursor >= len(t.todos) {
			t.cursor = max(0, len(t.todos)-1)
		}
		return t, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if t.cursor > 0 {
				t.cursor--
			}
		case key.Matches(msg, keys.Down):
			if t.cursor < len(t.todos)-1 {
				t.cursor++
			}
		case key.Matches(msg, keys.New):
			return t.showForm()
		case key.Matches(msg, keys.Toggle), key.Matches(msg, keys.Enter):
			if len(t.todos) > 0 {
				if err := t.store.ToggleTodo(t.todos[t.cursor].ID); err != nil {
					return t, errorCmd("Error: %v", err)
				}
				return t, t.refresh()
			}
		case key.Matches(msg, keys.Delete):
			if len(t.todos) > 0 {
				t.store.DeleteTodo(t.todos[t.cursor].ID)
				return t, t.refresh()
			}
		}
	}
	return t, nil
}

func (t todosModel) showForm() (todosModel, tea.Cmd) {
	*t.formText = ""
	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Todo").Value(t.formText).Validate(requireText),
		),
	).WithShowHelp(true).WithShowErrors(true)

	t.formActive = true
	return t, t.form.Init()
}

func (t todosModel) updateForm(msg tea.Msg) (todosModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			t.formActive = false
			t.form = nil
			return t, nil
		}
	}

	form, cmd := t.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		t.form = f
	}

	if t.form.State == huh.StateCompleted {
		t.formActive = false
		if _, err := t.store.AddTodo(*t.formText); err != nil {
			return t, errorCmd("Error: %v", err)
		}
		t.cursor = 0
		return t, t.refresh()
	}

	return t, cmd
}

func (t todosModel) openCount() int {
	n := 0
	for _, td := range t.todos {
		if !td.Completed {
			n++
		}
	}
	return n
}

func (t todosModel) view() string {
	w := t.width - 4

	if t.formActive && t.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("New Todo"), "", t.form.View()),
		)
	}

	title := titleStyle.Render("Todos") + mutedStyle.Render(fmt.Sprintf("  %d open", t.openCount()))

	if len(t.todos) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("Nothing to do. Press n to add a todo."),
		))
	}

	rows := []string{title, ""}
	for i, td := range t.todos {
		cursor := "  "
		if i == t.cursor {
			cursor = "> "
		}
		box := "[ ] "
		style := normalItemStyle
		if td.Completed {
			box = "[x] "
			style = doneItemStyle
		}
		if i == t.cursor && !td.Completed {
			style = selectedItemStyle
		}
		rows = append(rows, cursor+box+style.Render(td.Text))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  space: toggle  d: delete"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
