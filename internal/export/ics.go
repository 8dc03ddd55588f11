package export

import (
	"fmt"
	"os"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/sadopc/timetable/internal/schedule"
)

const icsFloating = "20060102T150405"

var rruleDays = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

// ICSOptions bounds the exported recurrence.
type ICSOptions struct {
	// From is the first date a class may occur on. Defaults to today.
	From time.Time
	// Until, when set, ends every series on that date.
	Until time.Time
}

// BuildCalendar turns each block into a weekly recurring VEVENT. Times are
// floating local wall-clock times.
func BuildCalendar(blocks []schedule.TimeBlock, opts ICSOptions) (*ical.Calendar, error) {
	if opts.From.IsZero() {
		opts.From = time.Now()
	}
	from := time.Date(opts.From.Year(), opts.From.Month(), opts.From.Day(), 0, 0, 0, 0, time.Local)
	stamp := time.Now().UTC()

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//sadopc//timetable//EN")

	for _, b := range blocks {
		rule, err := weeklyRule(b, from, opts.Until)
		if err != nil {
			return nil, fmt.Errorf("block %q: %w", b.Subject, err)
		}
		// DTSTART must be the first instance of the series.
		first := rule.After(from, true)
		if first.IsZero() {
			continue
		}
		end := first.Add(b.Duration())

		ev := cal.AddEvent(b.ID + "@timetable")
		ev.SetDtStampTime(stamp)
		ev.SetProperty(ical.ComponentPropertyDtStart, first.Format(icsFloating))
		ev.SetProperty(ical.ComponentPropertyDtEnd, end.Format(icsFloating))
		ev.SetSummary(b.Subject)
		if b.Location != "" {
			ev.SetLocation(b.Location)
		}
		if b.Color != "" {
			ev.SetProperty(ical.ComponentProperty("COLOR"), b.Color)
		}
		ev.SetProperty(ical.ComponentPropertyRrule, rule.OrigOptions.RRuleString())
	}
	return cal, nil
}

func ToICS(blocks []schedule.TimeBlock, opts ICSOptions, path string) error {
	cal, err := BuildCalendar(blocks, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(cal.Serialize()), 0o644); err != nil {
		return fmt.Errorf("write ics file: %w", err)
	}
	return nil
}

func weeklyRule(b schedule.TimeBlock, from, until time.Time) (*rrule.RRule, error) {
	if err := schedule.Validate(b); err != nil {
		return nil, err
	}
	var days []rrule.Weekday
	for _, d := range b.Days {
		wd, _ := d.Weekday()
		days = append(days, rruleDays[wd])
	}
	opt := rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: days,
		Dtstart:   time.Date(from.Year(), from.Month(), from.Day(), int(b.Start)/60, int(b.Start)%60, 0, 0, time.Local),
	}
	if !until.IsZero() {
		opt.Until = time.Date(until.Year(), until.Month(), until.Day(), 23, 59, 59, 0, time.Local)
	}
	return rrule.NewRRule(opt)
}
