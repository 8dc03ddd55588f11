package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

func (s *Store) AddTodo(text string) (*Todo, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("add todo: empty text")
	}
	t := Todo{ID: uuid.NewString(), Text: text, CreatedAt: time.Now().UnixMilli()}
	_, err := s.db.Exec(
		`INSERT INTO todos (id, text, completed, created_at) VALUES (?, ?, 0, ?)`,
		t.ID, t.Text, t.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert todo: %w", err)
	}
	return &t, nil
}

func (s *Store) ToggleTodo(id string) error {
	res, err := s.db.Exec(`UPDATE todos SET completed = 1 - completed WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("toggle todo: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("toggle todo %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteTodo(id string) error {
	_, err := s.db.Exec(`DELETE FROM todos WHERE id = ?`, id)
	return err
}

// ListTodos returns open todos first, newest first within each group.
func (s *Store) ListTodos() ([]Todo, error) {
	rows, err := s.db.Query(
		`SELECT id, text, completed, created_at FROM todos ORDER BY completed, created_at DESC, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	var todos []Todo
	for rows.Next() {
		var t Todo
		var completed int
		if err := rows.Scan(&t.ID, &t.Text, &completed, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Completed = completed == 1
		todos = append(todos, t)
	}
	return todos, rows.Err()
}
