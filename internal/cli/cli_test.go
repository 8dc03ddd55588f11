package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/timetable/internal/export"
	"github.com/sadopc/timetable/internal/focus"
	"github.com/sadopc/timetable/internal/logging"
	"github.com/sadopc/timetable/internal/notify"
	"github.com/sadopc/timetable/internal/schedule"
	"github.com/sadopc/timetable/internal/store"
)

// 2024-01-01 is a Monday.
func mondayAt(hh, mm int) time.Time {
	return time.Date(2024, 1, 1, hh, mm, 0, 0, time.Local)
}

type harness struct {
	t      *testing.T
	dir    string
	db     string
	config string
	opts   *rootOptions
}

func newHarness(t *testing.T, now time.Time) *harness {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	return &harness{
		t:      t,
		dir:    dir,
		db:     filepath.Join(dir, "timetable.db"),
		config: filepath.Join(dir, "config.yaml"),
		opts: &rootOptions{
			now:  func() time.Time { return now },
			tick: time.Millisecond,
		},
	}
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	cmd := newRootCmd(h.opts)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", h.config, "--db", h.db}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (h *harness) store() *store.Store {
	h.t.Helper()
	s, err := store.New(h.db)
	require.NoError(h.t, err)
	h.t.Cleanup(func() { s.Close() })
	return s
}

func (h *harness) seed(blocks ...schedule.TimeBlock) {
	h.t.Helper()
	s, err := store.New(h.db)
	require.NoError(h.t, err)
	defer s.Close()
	for _, b := range blocks {
		_, err := s.CreateBlock(b)
		require.NoError(h.t, err)
	}
}

func block(id, subject, start, end, location string) schedule.TimeBlock {
	return schedule.TimeBlock{
		ID:       id,
		Days:     []schedule.Day{schedule.Monday},
		Start:    schedule.MustClock(start),
		End:      schedule.MustClock(end),
		Subject:  subject,
		Location: location,
	}
}

func TestStatusText(t *testing.T) {
	h := newHarness(t, mondayAt(9, 30))
	h.seed(
		block("math", "Math", "09:00", "10:00", "Room 101"),
		block("phys", "Physics", "11:00", "12:00", ""),
	)

	out, err := h.run("status")
	require.NoError(t, err)
	assert.Contains(t, out, "Now:  Math 09:00-10:00 (Room 101), 30 min left")
	assert.Contains(t, out, "Next: Physics 11:00-12:00 in 90 min")
}

func TestStatusNothingScheduled(t *testing.T) {
	h := newHarness(t, mondayAt(9, 30))
	out, err := h.run("status")
	require.NoError(t, err)
	assert.Contains(t, out, "Now:  free")
	assert.Contains(t, out, "Next: nothing else today")

	_, err = os.Stat(h.config)
	assert.NoError(t, err, "first run should write a default config")
}

func TestStatusJSON(t *testing.T) {
	h := newHarness(t, mondayAt(8, 56))
	h.seed(block("math", "Math", "09:00", "10:00", "Room 101"))

	out, err := h.run("status", "--json")
	require.NoError(t, err)

	var got struct {
		Current       *schedule.TimeBlock `json:"current"`
		Next          *schedule.TimeBlock `json:"next"`
		MinutesToNext *int                `json:"minutes_to_next"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Nil(t, got.Current)
	require.NotNil(t, got.Next)
	assert.Equal(t, "Math", got.Next.Subject)
	require.NotNil(t, got.MinutesToNext)
	assert.Equal(t, 4, *got.MinutesToNext)
}

func TestWatchOnceFiresOncePerDay(t *testing.T) {
	h := newHarness(t, mondayAt(8, 57))
	h.seed(block("math", "Math", "09:00", "10:00", "Room 101"))

	out, err := h.run("watch", "--once")
	require.NoError(t, err)
	assert.Equal(t, "\aUpcoming: Math: Class starts in 3 minutes at Room 101\n", out)

	// A restarted watcher remembers the alert through the database.
	out, err = h.run("watch", "--once")
	require.NoError(t, err)
	assert.Empty(t, out)

	used, err := h.store().Used(notify.Key("math", mondayAt(8, 57)))
	require.NoError(t, err)
	assert.True(t, used)
}

func TestWatchOutsideWindow(t *testing.T) {
	h := newHarness(t, mondayAt(8, 50))
	h.seed(block("math", "Math", "09:00", "10:00", ""))

	out, err := h.run("watch", "--once")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestWatchRespectsNotificationSetting(t *testing.T) {
	h := newHarness(t, mondayAt(8, 57))
	h.seed(block("math", "Math", "09:00", "10:00", ""))
	s := h.store()
	st := s.LoadSettings()
	st.NotificationsEnabled = false
	require.NoError(t, s.SaveSettings(st))

	out, err := h.run("watch", "--once")
	require.NoError(t, err)
	assert.Empty(t, out)

	used, err := s.Used(notify.Key("math", mondayAt(8, 57)))
	require.NoError(t, err)
	assert.False(t, used, "disabled alerts must not consume the key")
}

func TestWatcherRunStopsOnCancel(t *testing.T) {
	s, err := store.NewMemory()
	require.NoError(t, err)
	defer s.Close()
	_, err = s.CreateBlock(block("math", "Math", "09:00", "10:00", ""))
	require.NoError(t, err)

	var fired []notify.Alert
	w := &watcher{
		store: s,
		trigger: notify.NewTrigger(notify.Options{
			Sink:       notify.SinkFunc(func(a notify.Alert) error { fired = append(fired, a); return nil }),
			Permission: notify.PermissionGranted,
		}),
		now: func() time.Time { return mondayAt(8, 55) },
		log: logging.NewLogger("test"),
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	require.NoError(t, w.run(ctx, cron.Every(time.Hour)))

	w.mu.Lock()
	defer w.mu.Unlock()
	require.Len(t, fired, 1, "run checks immediately")
	assert.Equal(t, "Class starts in 5 minutes", fired[0].Body)
}

func TestWatcherPrunesOncePerDay(t *testing.T) {
	s, err := store.NewMemory()
	require.NoError(t, err)
	defer s.Close()

	w := &watcher{store: s, log: logging.NewLogger("test"), persisted: true}
	w.prune(mondayAt(8, 0))
	assert.Equal(t, "2024-01-01", w.prunedOn)
	w.prune(mondayAt(9, 0))
	assert.Equal(t, "2024-01-01", w.prunedOn)
	w.prune(mondayAt(9, 0).AddDate(0, 0, 1))
	assert.Equal(t, "2024-01-02", w.prunedOn)
}

func TestFocusCustomRecordsSession(t *testing.T) {
	h := newHarness(t, mondayAt(9, 0))

	out, err := h.run("focus", "--minutes", "1", "--quiet")
	require.NoError(t, err)
	assert.Contains(t, out, "Custom session complete: 1 minutes")

	s := h.store()
	sessions, err := s.ListSessions(time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, 1, sessions[0].Duration)
	assert.True(t, sessions[0].Completed)
	assert.Equal(t, 1, s.LoadSettings().CustomMinutes)
}

func TestFocusBreakNotRecorded(t *testing.T) {
	h := newHarness(t, mondayAt(9, 0))

	_, err := h.run("focus", "--mode", "short", "-q")
	require.NoError(t, err)

	sessions, err := h.store().ListSessions(time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestFocusRejectsBadInput(t *testing.T) {
	h := newHarness(t, mondayAt(9, 0))

	_, err := h.run("focus", "--minutes", "0")
	assert.ErrorIs(t, err, focus.ErrInvalidMinutes)

	_, err = h.run("focus", "--mode", "nap")
	assert.Error(t, err)
}

func TestRunFocusCancelled(t *testing.T) {
	tm := focus.NewTimer(focus.DefaultPresets(), 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	_, done := runFocus(ctx, tm, focus.DriverOptions{Interval: time.Hour}, &out)
	assert.False(t, done)
	assert.False(t, tm.State().Running)
	assert.Contains(t, out.String(), "Focus  25:00")
}

func TestFormatRemaining(t *testing.T) {
	assert.Equal(t, "25:00", formatRemaining(1500))
	assert.Equal(t, "00:09", formatRemaining(9))
	assert.Equal(t, "1:02:03", formatRemaining(3723))
}

func TestExportFormats(t *testing.T) {
	h := newHarness(t, mondayAt(9, 0))
	h.seed(block("math", "Math", "09:00", "10:00", "Room 101"))

	for _, args := range [][]string{
		{"--format", "csv"},
		{"--format", "csv", "--sessions"},
		{"--format", "json"},
		{"--format", "ics", "--weeks", "4"},
	} {
		path := filepath.Join(h.dir, "out-"+strings.Join(args, ""))
		out, err := h.run(append([]string{"export", "-o", path}, args...)...)
		require.NoError(t, err, args)
		assert.Contains(t, out, "Exported to "+path)
		_, err = os.Stat(path)
		require.NoError(t, err, args)
	}

	data, err := os.ReadFile(filepath.Join(h.dir, "out---formatics--weeks4"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "SUMMARY:Math")
	assert.Contains(t, string(data), "UNTIL=")
}

func TestExportUnknownFormat(t *testing.T) {
	h := newHarness(t, mondayAt(9, 0))
	_, err := h.run("export", "--format", "xml", "-o", filepath.Join(h.dir, "x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown export format")
}

func TestDefaultExportName(t *testing.T) {
	now := mondayAt(9, 0)
	assert.Equal(t, "timetable-classes-2024-01-01.csv", defaultExportName(&exportOptions{format: "csv"}, now))
	assert.Equal(t, "timetable-sessions-2024-01-01.csv", defaultExportName(&exportOptions{format: "csv", sessions: true}, now))
	assert.Equal(t, "timetable-export-2024-01-01.json", defaultExportName(&exportOptions{format: "json"}, now))
	assert.Equal(t, "timetable-2024-01-01.ics", defaultExportName(&exportOptions{format: "ics"}, now))
}

func TestImportBundle(t *testing.T) {
	h := newHarness(t, mondayAt(9, 0))
	bundle := filepath.Join(h.dir, "bundle.json")
	require.NoError(t, export.ToJSON(
		[]schedule.TimeBlock{block("math", "Math", "09:00", "10:00", "")},
		[]focus.Session{{ID: "s1", StartTime: mondayAt(8, 0).UnixMilli(), Duration: 25, Completed: true}},
		bundle,
	))

	out, err := h.run("import", bundle, "--sessions", bundle)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 of 1 classes")
	assert.Contains(t, out, "Imported 1 focus sessions")

	// Importing again updates in place.
	_, err = h.run("import", bundle)
	require.NoError(t, err)

	s := h.store()
	blocks, err := s.ListBlocks()
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "math", blocks[0].ID)
	sessions, err := s.ListSessions(time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestImportSkipsInvalidBlocks(t *testing.T) {
	h := newHarness(t, mondayAt(9, 0))
	path := filepath.Join(h.dir, "blocks.json")
	data := `[
	  {"id":"a","days":["Monday"],"startTime":"09:00","endTime":"10:00","subject":"Math"},
	  {"id":"b","days":["Tuesday"],"startTime":"11:00","endTime":"10:00","subject":"Broken"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	out, err := h.run("import", path)
	require.Error(t, err)
	assert.ErrorIs(t, err, schedule.ErrEmptyRange)
	assert.Contains(t, out, "Imported 1 of 2 classes")
}

func TestImportMissingFile(t *testing.T) {
	h := newHarness(t, mondayAt(9, 0))
	_, err := h.run("import", filepath.Join(h.dir, "nope.json"))
	assert.Error(t, err)
}

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", "/home/alice")
	got, err := expandHome("~/data/timetable.db")
	require.NoError(t, err)
	assert.Equal(t, "/home/alice/data/timetable.db", got)

	got, err = expandHome("/var/lib/timetable.db")
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/timetable.db", got)
}
