package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sadopc/timetable/internal/schedule"
)

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = errors.New("not found")

const blockColumns = `id, days, start_time, end_time, subject, location, color`

// CreateBlock validates b, assigns an id if it has none and appends it to
// the end of the schedule.
func (s *Store) CreateBlock(b schedule.TimeBlock) (*schedule.TimeBlock, error) {
	if err := schedule.Validate(b); err != nil {
		return nil, fmt.Errorf("create block: %w", err)
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	days, err := json.Marshal(b.Days)
	if err != nil {
		return nil, fmt.Errorf("encode days: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.Exec(
		`INSERT INTO time_blocks (id, position, days, start_time, end_time, subject, location, color, created_at, updated_at)
		 VALUES (?, (SELECT COALESCE(MAX(position), 0) + 1 FROM time_blocks), ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, string(days), b.Start.String(), b.End.String(), b.Subject, b.Location, b.Color, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert block: %w", err)
	}
	s.log.WithField("id", b.ID).Debug("block created")
	return s.GetBlock(b.ID)
}

func (s *Store) GetBlock(id string) (*schedule.TimeBlock, error) {
	row := s.db.QueryRow(`SELECT `+blockColumns+` FROM time_blocks WHERE id = ?`, id)
	b, err := scanBlock(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("get block %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get block %s: %w", id, err)
	}
	return &b, nil
}

// ListBlocks returns every block in insertion order.
func (s *Store) ListBlocks() ([]schedule.TimeBlock, error) {
	rows, err := s.db.Query(`SELECT ` + blockColumns + ` FROM time_blocks ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	defer rows.Close()

	var blocks []schedule.TimeBlock
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

// UpdateBlock replaces the block with the same id, keeping its position.
func (s *Store) UpdateBlock(b schedule.TimeBlock) error {
	if err := schedule.Validate(b); err != nil {
		return fmt.Errorf("update block: %w", err)
	}
	days, err := json.Marshal(b.Days)
	if err != nil {
		return fmt.Errorf("encode days: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(
		`UPDATE time_blocks SET days = ?, start_time = ?, end_time = ?, subject = ?, location = ?, color = ?, updated_at = ?
		 WHERE id = ?`,
		string(days), b.Start.String(), b.End.String(), b.Subject, b.Location, b.Color, now, b.ID,
	)
	if err != nil {
		return fmt.Errorf("update block: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update block %s: %w", b.ID, ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteBlock(id string) error {
	_, err := s.db.Exec(`DELETE FROM time_blocks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete block: %w", err)
	}
	return nil
}

// ImportBlocks upserts blocks keeping their ids. Invalid blocks are skipped
// and reported in the returned error; valid ones are still imported.
func (s *Store) ImportBlocks(blocks []schedule.TimeBlock) (int, error) {
	var errs []error
	imported := 0
	for _, b := range blocks {
		if b.ID != "" {
			if _, err := s.GetBlock(b.ID); err == nil {
				if err := s.UpdateBlock(b); err != nil {
					errs = append(errs, fmt.Errorf("block %q: %w", b.Subject, err))
					continue
				}
				imported++
				continue
			}
		}
		if _, err := s.CreateBlock(b); err != nil {
			errs = append(errs, fmt.Errorf("block %q: %w", b.Subject, err))
			continue
		}
		imported++
	}
	return imported, errors.Join(errs...)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBlock(r rowScanner) (schedule.TimeBlock, error) {
	var b schedule.TimeBlock
	var days, start, end string
	if err := r.Scan(&b.ID, &days, &start, &end, &b.Subject, &b.Location, &b.Color); err != nil {
		return b, err
	}
	if err := json.Unmarshal([]byte(days), &b.Days); err != nil {
		return b, fmt.Errorf("decode days of %s: %w", b.ID, err)
	}
	var err error
	if b.Start, err = schedule.ParseClock(start); err != nil {
		return b, err
	}
	if b.End, err = schedule.ParseClock(end); err != nil {
		return b, err
	}
	return b, nil
}
