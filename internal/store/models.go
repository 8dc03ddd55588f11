package store

import "time"

// Todo mirrors the stored todo record shape. CreatedAt is unix milliseconds.
type Todo struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	CreatedAt int64  `json:"createdAt"`
}

type Setting struct {
	Key   string
	Value string
}

// Settings is the typed view of the settings table.
type Settings struct {
	NotificationsEnabled bool
	FocusMinutes         int
	ShortMinutes         int
	LongMinutes          int
	CustomMinutes        int
	DailyGoal            time.Duration
}

// DailyFocus represents completed focus time for one local calendar day.
type DailyFocus struct {
	Date     string
	Minutes  int
	Sessions int
}
