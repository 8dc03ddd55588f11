package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNoDays     = errors.New("time block has no days")
	ErrBadClock   = errors.New("invalid clock time")
	ErrEmptyRange = errors.New("start time must be before end time")
	ErrNoSubject  = errors.New("time block has no subject")
)

// TimeBlock is one recurring weekly class. The resolver only reads blocks;
// callers hand it a fresh slice whenever the schedule is edited.
type TimeBlock struct {
	ID       string `json:"id"`
	Days     []Day  `json:"days"`
	Start    Clock  `json:"startTime"`
	End      Clock  `json:"endTime"`
	Subject  string `json:"subject"`
	Location string `json:"location,omitempty"`
	Color    string `json:"color,omitempty"`
}

// OnDay reports whether the block recurs on d.
func (b TimeBlock) OnDay(d Day) bool {
	for _, day := range b.Days {
		if day == d {
			return true
		}
	}
	return false
}

// Duration is the length of one occurrence. Zero for malformed blocks.
func (b TimeBlock) Duration() time.Duration {
	if b.End <= b.Start {
		return 0
	}
	return (b.End - b.Start).Offset()
}

// DayList renders the days as "Mon, Wed".
func (b TimeBlock) DayList() string {
	var parts []string
	for _, d := range Days {
		if b.OnDay(d) {
			parts = append(parts, d.Short())
		}
	}
	return strings.Join(parts, ", ")
}

// Progress is the elapsed fraction of the block at now, clamped to [0, 1].
func (b TimeBlock) Progress(now time.Time) float64 {
	span := b.End.Offset() - b.Start.Offset()
	if span <= 0 {
		return 0
	}
	p := float64(timeOfDay(now)-b.Start.Offset()) / float64(span)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// Validate checks a block at the entry boundary. The resolver itself
// tolerates invalid blocks.
func Validate(b TimeBlock) error {
	if strings.TrimSpace(b.Subject) == "" {
		return ErrNoSubject
	}
	if len(b.Days) == 0 {
		return ErrNoDays
	}
	for _, d := range b.Days {
		if _, ok := d.Weekday(); !ok {
			return fmt.Errorf("unknown day %q", d)
		}
	}
	if b.Start < 0 || b.End < 0 || b.Start >= 24*60 || b.End > 24*60 {
		return ErrBadClock
	}
	if b.Start >= b.End {
		return fmt.Errorf("%w: %s-%s", ErrEmptyRange, b.Start, b.End)
	}
	return nil
}
