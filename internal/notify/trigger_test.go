package notify

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/timetable/internal/schedule"
)

type recordingSink struct {
	alerts []Alert
	err    error
}

func (r *recordingSink) Notify(a Alert) error {
	r.alerts = append(r.alerts, a)
	return r.err
}

func math() schedule.TimeBlock {
	return schedule.TimeBlock{
		ID:       "math",
		Days:     []schedule.Day{schedule.Monday},
		Start:    schedule.MustClock("09:00"),
		End:      schedule.MustClock("10:00"),
		Subject:  "Math",
		Location: "Room 101",
	}
}

func at(day, hh, mm int) time.Time {
	return time.Date(2024, 1, day, hh, mm, 0, 0, time.Local)
}

func granted(sink Sink) *Trigger {
	return NewTrigger(Options{Sink: sink, Permission: PermissionGranted})
}

func TestSweepFiresExactlyOnce(t *testing.T) {
	sink := &recordingSink{}
	tr := granted(sink)
	blocks := []schedule.TimeBlock{math()}

	fired := 0
	// 08:54 (6 min before) through 09:10, then re-evaluate the window again.
	for m := 54; m <= 70; m++ {
		now := at(1, 8, 0).Add(time.Duration(m) * time.Minute)
		if _, ok := tr.Evaluate(schedule.Resolve(now, blocks), true); ok {
			fired++
		}
	}
	for m := 55; m <= 59; m++ {
		if _, ok := tr.Evaluate(schedule.Resolve(at(1, 8, m), blocks), true); ok {
			fired++
		}
	}
	assert.Equal(t, 1, fired)
	require.Len(t, sink.alerts, 1)
	assert.Equal(t, "Class starts in 5 minutes at Room 101", sink.alerts[0].Body)
}

func TestUpcomingMathScenario(t *testing.T) {
	sink := &recordingSink{}
	tr := granted(sink)
	blocks := []schedule.TimeBlock{math()}

	st := schedule.Resolve(at(1, 8, 56), blocks)
	a, ok := tr.Evaluate(st, true)
	require.True(t, ok)
	assert.Equal(t, "Upcoming: Math", a.Title)
	assert.Equal(t, "Class starts in 4 minutes at Room 101", a.Body)
	assert.Equal(t, "math|2024-01-01", a.Key)

	_, ok = tr.Evaluate(schedule.Resolve(at(1, 8, 57), blocks), true)
	assert.False(t, ok)
	assert.Len(t, sink.alerts, 1)
}

func TestOutsideWindow(t *testing.T) {
	sink := &recordingSink{}
	tr := granted(sink)
	_, ok := tr.Evaluate(schedule.Resolve(at(1, 8, 54), []schedule.TimeBlock{math()}), true)
	assert.False(t, ok)
	assert.Empty(t, sink.alerts)
}

func TestNewDayRearms(t *testing.T) {
	sink := &recordingSink{}
	tr := granted(sink)
	b := math()
	b.Days = append(b.Days, schedule.Tuesday)
	blocks := []schedule.TimeBlock{b}

	_, ok := tr.Evaluate(schedule.Resolve(at(1, 8, 58), blocks), true)
	require.True(t, ok)
	_, ok = tr.Evaluate(schedule.Resolve(at(2, 8, 58), blocks), true)
	require.True(t, ok)
	assert.Len(t, sink.alerts, 2)
}

func TestDisabledDoesNotConsumeKey(t *testing.T) {
	sink := &recordingSink{}
	tr := granted(sink)
	blocks := []schedule.TimeBlock{math()}

	_, ok := tr.Evaluate(schedule.Resolve(at(1, 8, 56), blocks), false)
	assert.False(t, ok)

	_, ok = tr.Evaluate(schedule.Resolve(at(1, 8, 57), blocks), true)
	assert.True(t, ok)
}

func TestDeniedStillMarksKey(t *testing.T) {
	sink := &recordingSink{}
	tr := NewTrigger(Options{Sink: sink, Permission: PermissionDenied})
	blocks := []schedule.TimeBlock{math()}

	_, ok := tr.Evaluate(schedule.Resolve(at(1, 8, 56), blocks), true)
	assert.True(t, ok)
	assert.Empty(t, sink.alerts)

	tr.SetPermission(PermissionGranted)
	_, ok = tr.Evaluate(schedule.Resolve(at(1, 8, 57), blocks), true)
	assert.False(t, ok, "no retry after a suppressed alert")
	assert.Empty(t, sink.alerts)
}

func TestSinkFailureNotRetried(t *testing.T) {
	sink := &recordingSink{err: errors.New("host gone")}
	tr := granted(sink)
	blocks := []schedule.TimeBlock{math()}

	_, ok := tr.Evaluate(schedule.Resolve(at(1, 8, 56), blocks), true)
	assert.True(t, ok)
	_, ok = tr.Evaluate(schedule.Resolve(at(1, 8, 57), blocks), true)
	assert.False(t, ok)
	assert.Len(t, sink.alerts, 1)
}

func TestNoLocation(t *testing.T) {
	b := math()
	b.Location = ""
	a := BuildAlert(b, 3, at(1, 8, 57))
	assert.Equal(t, "Class starts in 3 minutes", a.Body)
}

type failingKeys struct{}

func (failingKeys) Used(string) (bool, error) { return false, errors.New("db locked") }
func (failingKeys) Use(string) error          { return nil }

func TestKeyStoreErrorSkips(t *testing.T) {
	sink := &recordingSink{}
	tr := NewTrigger(Options{Sink: sink, Keys: failingKeys{}, Permission: PermissionGranted})
	_, ok := tr.Evaluate(schedule.Resolve(at(1, 8, 56), []schedule.TimeBlock{math()}), true)
	assert.False(t, ok)
	assert.Empty(t, sink.alerts)
}

type fixedPermitter struct{ p Permission }

func (f fixedPermitter) RequestPermission() (Permission, error) { return f.p, nil }

func TestRequestPermissionAsync(t *testing.T) {
	tr := NewTrigger(Options{})
	assert.Equal(t, PermissionDefault, tr.Permission())

	tr.RequestPermission(fixedPermitter{PermissionGranted})
	assert.Eventually(t, func() bool {
		return tr.Permission() == PermissionGranted
	}, time.Second, 5*time.Millisecond)

	// Already decided: no further request.
	tr.RequestPermission(fixedPermitter{PermissionDenied})
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, PermissionGranted, tr.Permission())
}

func TestSinks(t *testing.T) {
	var buf bytes.Buffer
	a := Alert{Title: "Upcoming: Math", Body: "Class starts in 2 minutes"}
	require.NoError(t, BellSink{W: &buf}.Notify(a))
	assert.Equal(t, "\aUpcoming: Math: Class starts in 2 minutes\n", buf.String())

	calls := 0
	ok := SinkFunc(func(Alert) error { calls++; return nil })
	bad := SinkFunc(func(Alert) error { calls++; return errors.New("boom") })
	err := Multi{ok, bad, ok}.Notify(a)
	assert.EqualError(t, err, "boom")
	assert.Equal(t, 3, calls)
}

func TestTerminalPermitterNil(t *testing.T) {
	p, err := TerminalPermitter{}.RequestPermission()
	require.NoError(t, err)
	assert.Equal(t, PermissionDenied, p)
}
