package store

import (
	"fmt"
	"strconv"
	"time"
)

func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

func (s *Store) GetAllSettings() ([]Setting, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var settings []Setting
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Key, &s.Value); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// LoadSettings reads the typed settings, falling back to defaults for
// missing or unparsable values.
func (s *Store) LoadSettings() Settings {
	return Settings{
		NotificationsEnabled: s.boolSetting("notifications_enabled", true),
		FocusMinutes:         s.intSetting("focus_minutes", 25),
		ShortMinutes:         s.intSetting("short_minutes", 5),
		LongMinutes:          s.intSetting("long_minutes", 15),
		CustomMinutes:        s.intSetting("custom_minutes", 25),
		DailyGoal:            time.Duration(s.intSetting("daily_goal", 21600)) * time.Second,
	}
}

// SaveSettings writes every typed setting.
func (s *Store) SaveSettings(st Settings) error {
	values := map[string]string{
		"notifications_enabled": strconv.FormatBool(st.NotificationsEnabled),
		"focus_minutes":         strconv.Itoa(st.FocusMinutes),
		"short_minutes":         strconv.Itoa(st.ShortMinutes),
		"long_minutes":          strconv.Itoa(st.LongMinutes),
		"custom_minutes":        strconv.Itoa(st.CustomMinutes),
		"daily_goal":            strconv.Itoa(int(st.DailyGoal / time.Second)),
	}
	for k, v := range values {
		if err := s.SetSetting(k, v); err != nil {
			return fmt.Errorf("save setting %q: %w", k, err)
		}
	}
	return nil
}

func (s *Store) intSetting(key string, fallback int) int {
	v, err := s.GetSetting(key)
	if err != nil {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func (s *Store) boolSetting(key string, fallback bool) bool {
	v, err := s.GetSetting(key)
	if err != nil {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
