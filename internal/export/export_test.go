package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/sadopc/timetable/internal/focus"
	"github.com/sadopc/timetable/internal/schedule"
)

func sampleBlocks() []schedule.TimeBlock {
	return []schedule.TimeBlock{
		{
			ID:       "math",
			Days:     []schedule.Day{schedule.Monday, schedule.Wednesday},
			Start:    schedule.MustClock("09:00"),
			End:      schedule.MustClock("10:30"),
			Subject:  "Math",
			Location: "Room 101",
			Color:    "#4f46e5",
		},
		{
			ID:      "art",
			Days:    []schedule.Day{schedule.Friday},
			Start:   schedule.MustClock("14:00"),
			End:     schedule.MustClock("15:00"),
			Subject: "Art",
		},
	}
}

func sampleSessions() []focus.Session {
	at := time.Date(2024, 1, 1, 10, 0, 0, 0, time.Local)
	return []focus.Session{
		{ID: "s1", StartTime: at.UnixMilli(), Duration: 25, Completed: true},
		{ID: "s2", StartTime: at.Add(time.Hour).UnixMilli(), Duration: 90, Completed: true},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return records
}

// ============================================================
// CSV
// ============================================================

func TestBlocksToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocks.csv")
	if err := BlocksToCSV(sampleBlocks(), path); err != nil {
		t.Fatalf("BlocksToCSV: %v", err)
	}

	records := readCSV(t, path)
	if len(records) != 3 {
		t.Fatalf("expected 3 rows (1 header + 2 data), got %d", len(records))
	}

	expectedHeader := []string{"ID", "Days", "Start", "End", "Duration", "Subject", "Location", "Color"}
	for i, h := range expectedHeader {
		if records[0][i] != h {
			t.Fatalf("header[%d] = %q, want %q", i, records[0][i], h)
		}
	}

	row := records[1]
	if row[0] != "math" || row[1] != "Monday;Wednesday" {
		t.Fatalf("unexpected id/days: %v", row)
	}
	if row[2] != "09:00" || row[3] != "10:30" || row[4] != "01:30" {
		t.Fatalf("unexpected times: %v", row)
	}
	if row[6] != "Room 101" {
		t.Fatalf("Location = %q", row[6])
	}

	if records[2][6] != "" {
		t.Fatalf("empty location should stay empty, got %q", records[2][6])
	}
}

func TestSessionsToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.csv")
	if err := SessionsToCSV(sampleSessions(), path); err != nil {
		t.Fatal(err)
	}

	records := readCSV(t, path)
	if len(records) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(records))
	}
	row := records[2]
	if row[0] != "s2" || row[2] != "90" || row[3] != "01:30" || row[4] != "true" {
		t.Fatalf("unexpected row: %v", row)
	}
	if _, err := time.Parse(time.RFC3339, row[1]); err != nil {
		t.Fatalf("completed at is not RFC3339: %q", row[1])
	}
}

func TestCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := SessionsToCSV(nil, path); err != nil {
		t.Fatal(err)
	}
	if records := readCSV(t, path); len(records) != 1 {
		t.Fatalf("expected header only, got %d rows", len(records))
	}
}

func TestCSVBadPath(t *testing.T) {
	if err := BlocksToCSV(nil, "/nonexistent/dir/file.csv"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestCSVSpecialCharacters(t *testing.T) {
	blocks := sampleBlocks()[:1]
	blocks[0].Subject = `Math "Advanced", part 2`
	path := filepath.Join(t.TempDir(), "special.csv")
	if err := BlocksToCSV(blocks, path); err != nil {
		t.Fatal(err)
	}
	records := readCSV(t, path)
	if records[1][5] != `Math "Advanced", part 2` {
		t.Fatalf("subject mangled: %q", records[1][5])
	}
}

// ============================================================
// JSON
// ============================================================

func TestToJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.json")
	if err := ToJSON(sampleBlocks(), sampleSessions(), path); err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var result Bundle
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(result.Blocks) != 2 || len(result.Sessions) != 2 {
		t.Fatalf("unexpected counts: %d blocks, %d sessions", len(result.Blocks), len(result.Sessions))
	}
	if _, err := time.Parse(time.RFC3339, result.ExportedAt); err != nil {
		t.Fatalf("exported_at is not valid RFC3339: %q", result.ExportedAt)
	}
	if !strings.Contains(string(data), `"startTime": "09:00"`) {
		t.Fatal("blocks should use HH:MM start times")
	}
	if !strings.Contains(string(data), "\n  ") {
		t.Fatal("JSON should be pretty-printed")
	}
}

func TestToJSONEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	if err := ToJSON(nil, nil, path); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), `"blocks": []`) {
		t.Fatalf("empty export should contain empty arrays: %s", data)
	}
}

func TestToJSONBadPath(t *testing.T) {
	if err := ToJSON(nil, nil, "/nonexistent/dir/file.json"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestJSONRoundTripThroughReaders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bundle.json")
	ToJSON(sampleBlocks(), sampleSessions(), path)

	f, _ := os.Open(path)
	blocks, err := ReadBlocks(f)
	f.Close()
	if err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 2 || blocks[0].Start != schedule.MustClock("09:00") || blocks[0].Days[1] != schedule.Wednesday {
		t.Fatalf("unexpected blocks: %+v", blocks)
	}

	f, _ = os.Open(path)
	sessions, err := ReadSessions(f)
	f.Close()
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 2 || sessions[1].Duration != 90 {
		t.Fatalf("unexpected sessions: %+v", sessions)
	}
}

func TestReadBareArrays(t *testing.T) {
	blocksJSON := `[{"id":"1","days":["Tuesday"],"startTime":"13:00","endTime":"14:00","subject":"Chem"}]`
	blocks, err := ReadBlocks(strings.NewReader(blocksJSON))
	if err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 1 || blocks[0].Subject != "Chem" || blocks[0].End.String() != "14:00" {
		t.Fatalf("unexpected blocks: %+v", blocks)
	}

	sessionsJSON := ` [{"id":"x","startTime":1700000000000,"duration":25,"completed":true}]`
	sessions, err := ReadSessions(strings.NewReader(sessionsJSON))
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 || sessions[0].StartTime != 1700000000000 {
		t.Fatalf("unexpected sessions: %+v", sessions)
	}
}

func TestReadBlocksInvalid(t *testing.T) {
	if _, err := ReadBlocks(strings.NewReader(`[{"startTime":"9am"}]`)); err == nil {
		t.Fatal("expected error for bad clock")
	}
	if _, err := ReadBlocks(strings.NewReader(`not json`)); err == nil {
		t.Fatal("expected error for garbage")
	}
}

// ============================================================
// ICS
// ============================================================

func TestBuildCalendar(t *testing.T) {
	// 2024-01-03 is a Wednesday.
	from := time.Date(2024, 1, 3, 12, 0, 0, 0, time.Local)
	cal, err := BuildCalendar(sampleBlocks(), ICSOptions{From: from})
	if err != nil {
		t.Fatal(err)
	}

	parsed, err := ical.ParseCalendar(strings.NewReader(cal.Serialize()))
	if err != nil {
		t.Fatalf("serialized calendar does not parse: %v", err)
	}
	events := parsed.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	math := events[0]
	if got := math.GetProperty(ical.ComponentPropertySummary).Value; got != "Math" {
		t.Fatalf("summary = %q", got)
	}
	if got := math.GetProperty(ical.ComponentPropertyLocation).Value; got != "Room 101" {
		t.Fatalf("location = %q", got)
	}
	// First instance on or after Wednesday 00:00 is that same Wednesday.
	if got := math.GetProperty(ical.ComponentPropertyDtStart).Value; got != "20240103T090000" {
		t.Fatalf("dtstart = %q", got)
	}
	if got := math.GetProperty(ical.ComponentPropertyDtEnd).Value; got != "20240103T103000" {
		t.Fatalf("dtend = %q", got)
	}
	rr := math.GetProperty(ical.ComponentPropertyRrule).Value
	if !strings.Contains(rr, "FREQ=WEEKLY") || !strings.Contains(rr, "BYDAY=MO,WE") {
		t.Fatalf("rrule = %q", rr)
	}

	art := events[1]
	if art.GetProperty(ical.ComponentPropertyLocation) != nil {
		t.Fatal("empty location should not be exported")
	}
	if got := art.GetProperty(ical.ComponentPropertyDtStart).Value; got != "20240105T140000" {
		t.Fatalf("art dtstart = %q", got)
	}
}

func TestBuildCalendarRecurrenceExpands(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)
	cal, err := BuildCalendar(sampleBlocks()[:1], ICSOptions{From: from})
	if err != nil {
		t.Fatal(err)
	}
	ev := cal.Events()[0]
	r, err := rrule.StrToRRule(ev.GetProperty(ical.ComponentPropertyRrule).Value)
	if err != nil {
		t.Fatal(err)
	}
	r.DTStart(time.Date(2024, 1, 1, 9, 0, 0, 0, time.Local))

	// Two weeks of Monday/Wednesday classes.
	occ := r.Between(from, from.AddDate(0, 0, 14), true)
	if len(occ) != 4 {
		t.Fatalf("expected 4 occurrences, got %d: %v", len(occ), occ)
	}
	if occ[1].Weekday() != time.Wednesday || occ[1].Hour() != 9 {
		t.Fatalf("unexpected occurrence %v", occ[1])
	}
}

func TestBuildCalendarUntil(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)
	cal, err := BuildCalendar(sampleBlocks()[:1], ICSOptions{From: from, Until: from.AddDate(0, 0, 7)})
	if err != nil {
		t.Fatal(err)
	}
	rr := cal.Events()[0].GetProperty(ical.ComponentPropertyRrule).Value
	if !strings.Contains(rr, "UNTIL=") {
		t.Fatalf("expected UNTIL in %q", rr)
	}
}

func TestBuildCalendarInvalidBlock(t *testing.T) {
	blocks := sampleBlocks()
	blocks[0].Days = nil
	if _, err := BuildCalendar(blocks, ICSOptions{}); err == nil {
		t.Fatal("expected error for block without days")
	}
}

func TestToICS(t *testing.T) {
	path := filepath.Join(t.TempDir(), "classes.ics")
	if err := ToICS(sampleBlocks(), ICSOptions{}, path); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), "BEGIN:VCALENDAR") {
		t.Fatalf("not a calendar: %.40q", data)
	}
	if strings.Count(string(data), "BEGIN:VEVENT") != 2 {
		t.Fatal("expected 2 events")
	}
}

func TestFormatMinutes(t *testing.T) {
	tests := []struct {
		min  int
		want string
	}{
		{0, "00:00"},
		{25, "00:25"},
		{90, "01:30"},
		{600, "10:00"},
	}
	for _, tt := range tests {
		if got := formatMinutes(tt.min); got != tt.want {
			t.Errorf("formatMinutes(%d) = %q, want %q", tt.min, got, tt.want)
		}
	}
}
