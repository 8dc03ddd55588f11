// Package stats derives the daily summary shown next to the schedule:
// focused time, class time and progress towards a daily goal.
package stats

import (
	"fmt"
	"time"

	"github.com/sadopc/timetable/internal/focus"
	"github.com/sadopc/timetable/internal/schedule"
)

// DefaultGoal is the daily target for focus plus class time.
const DefaultGoal = 6 * time.Hour

type Summary struct {
	Date         time.Time
	FocusMinutes int
	ClassMinutes int
	Sessions     int
	Goal         time.Duration
	// GoalPercent is (focus + class) / goal, capped at 100.
	GoalPercent int
}

// Total is the combined focus and class time.
func (s Summary) Total() time.Duration {
	return time.Duration(s.FocusMinutes+s.ClassMinutes) * time.Minute
}

// Today summarises the local calendar day containing now. Only completed
// sessions that started on that day count.
func Today(now time.Time, sessions []focus.Session, blocks []schedule.TimeBlock, goal time.Duration) Summary {
	if goal <= 0 {
		goal = DefaultGoal
	}
	start := startOfDay(now)
	end := start.AddDate(0, 0, 1)

	sum := Summary{Date: start, Goal: goal}
	for _, s := range sessions {
		if !s.Completed {
			continue
		}
		at := s.Started()
		if at.Before(start) || !at.Before(end) {
			continue
		}
		sum.FocusMinutes += s.Duration
		sum.Sessions++
	}
	sum.ClassMinutes = int(schedule.ScheduledTime(schedule.DayOf(now), blocks) / time.Minute)

	pct := int(sum.Total() * 100 / goal)
	if pct > 100 {
		pct = 100
	}
	sum.GoalPercent = pct
	return sum
}

// Week returns focus minutes for the seven local days ending on now's day,
// oldest first.
func Week(now time.Time, sessions []focus.Session) [7]int {
	var out [7]int
	first := startOfDay(now).AddDate(0, 0, -6)
	for _, s := range sessions {
		if !s.Completed {
			continue
		}
		at := s.Started()
		if at.Before(first) {
			continue
		}
		idx := daysBetween(first, startOfDay(at))
		if idx < 0 || idx > 6 {
			continue
		}
		out[idx] += s.Duration
	}
	return out
}

// FormatMinutes renders minutes as "2h 05m" or "45m".
func FormatMinutes(m int) string {
	if m < 60 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %02dm", m/60, m%60)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// daysBetween counts calendar days from a to b; both must be midnights.
func daysBetween(a, b time.Time) int {
	n := 0
	for a.Before(b) {
		a = a.AddDate(0, 0, 1)
		n++
	}
	return n
}
