package store

import (
	"fmt"
	"time"
)

// Used reports whether an alert key was already fired. Together with Use it
// satisfies notify.KeyStore so dedupe survives restarts.
func (s *Store) Used(key string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM notified_keys WHERE key = ?`, key).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("lookup alert key: %w", err)
	}
	return n > 0, nil
}

func (s *Store) Use(key string) error {
	_, err := s.db.Exec(`INSERT OR IGNORE INTO notified_keys (key) VALUES (?)`, key)
	if err != nil {
		return fmt.Errorf("record alert key: %w", err)
	}
	return nil
}

// PruneKeys drops keys fired before the given instant.
func (s *Store) PruneKeys(before time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM notified_keys WHERE fired_at < ?`, before.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("prune alert keys: %w", err)
	}
	return res.RowsAffected()
}
