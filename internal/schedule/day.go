package schedule

import (
	"fmt"
	"strings"
	"time"
)

// Day is a weekday name as stored in time-block records ("Monday".."Sunday").
type Day string

const (
	Monday    Day = "Monday"
	Tuesday   Day = "Tuesday"
	Wednesday Day = "Wednesday"
	Thursday  Day = "Thursday"
	Friday    Day = "Friday"
	Saturday  Day = "Saturday"
	Sunday    Day = "Sunday"
)

// Days lists the week starting on Monday.
var Days = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var weekdays = map[time.Weekday]Day{
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
	time.Sunday:    Sunday,
}

// DayOf returns the weekday of t on its own wall clock.
func DayOf(t time.Time) Day {
	return weekdays[t.Weekday()]
}

// Weekday converts d back to a time.Weekday.
func (d Day) Weekday() (time.Weekday, bool) {
	for wd, day := range weekdays {
		if day == d {
			return wd, true
		}
	}
	return time.Sunday, false
}

// Short is the three-letter form used in compact views.
func (d Day) Short() string {
	if len(d) < 3 {
		return string(d)
	}
	return string(d[:3])
}

// ParseDay accepts full or three-letter names in any case.
func ParseDay(s string) (Day, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	for _, d := range Days {
		name := strings.ToLower(string(d))
		if s == name || (len(s) == 3 && strings.HasPrefix(name, s)) {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown day %q", s)
}
