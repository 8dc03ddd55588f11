package store

import (
	"fmt"
	"time"

	"github.com/sadopc/timetable/internal/focus"
)

// RecordSession appends a finished focus run to the history. It satisfies
// focus.Recorder.
func (s *Store) RecordSession(sess focus.Session) error {
	_, err := s.db.Exec(
		`INSERT INTO focus_sessions (id, start_time, duration, completed) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		sess.ID, sess.StartTime, sess.Duration, boolToInt(sess.Completed),
	)
	if err != nil {
		return fmt.Errorf("record session: %w", err)
	}
	s.log.WithField("minutes", sess.Duration).Info("focus session recorded")
	return nil
}

// ListSessions returns sessions with from <= start < to, newest first. A
// zero to means no upper bound.
func (s *Store) ListSessions(from, to time.Time) ([]focus.Session, error) {
	query := `SELECT id, start_time, duration, completed FROM focus_sessions WHERE start_time >= ?`
	args := []any{from.UnixMilli()}
	if !to.IsZero() {
		query += ` AND start_time < ?`
		args = append(args, to.UnixMilli())
	}
	query += ` ORDER BY start_time DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []focus.Session
	for rows.Next() {
		var sess focus.Session
		var completed int
		if err := rows.Scan(&sess.ID, &sess.StartTime, &sess.Duration, &completed); err != nil {
			return nil, err
		}
		sess.Completed = completed == 1
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// FocusByDay sums completed focus minutes per local calendar day in
// [from, to). Days without sessions are omitted.
func (s *Store) FocusByDay(from, to time.Time) ([]DailyFocus, error) {
	sessions, err := s.ListSessions(from, to)
	if err != nil {
		return nil, err
	}
	byDate := make(map[string]*DailyFocus)
	var order []string
	for i := len(sessions) - 1; i >= 0; i-- {
		sess := sessions[i]
		if !sess.Completed {
			continue
		}
		date := sess.Started().Format("2006-01-02")
		d, ok := byDate[date]
		if !ok {
			d = &DailyFocus{Date: date}
			byDate[date] = d
			order = append(order, date)
		}
		d.Minutes += sess.Duration
		d.Sessions++
	}
	out := make([]DailyFocus, 0, len(order))
	for _, date := range order {
		out = append(out, *byDate[date])
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
