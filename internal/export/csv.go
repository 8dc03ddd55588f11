package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sadopc/timetable/internal/focus"
	"github.com/sadopc/timetable/internal/schedule"
)

// BlocksToCSV writes one row per block.
func BlocksToCSV(blocks []schedule.TimeBlock, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"ID", "Days", "Start", "End", "Duration", "Subject", "Location", "Color"}); err != nil {
		return err
	}

	for _, b := range blocks {
		days := make([]string, len(b.Days))
		for i, d := range b.Days {
			days[i] = string(d)
		}
		row := []string{
			b.ID,
			strings.Join(days, ";"),
			b.Start.String(),
			b.End.String(),
			formatMinutes(int(b.Duration() / time.Minute)),
			b.Subject,
			b.Location,
			b.Color,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// SessionsToCSV writes one row per focus session.
func SessionsToCSV(sessions []focus.Session, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"ID", "Completed At", "Duration (min)", "Duration", "Completed"}); err != nil {
		return err
	}

	for _, s := range sessions {
		row := []string{
			s.ID,
			s.Started().Format(time.RFC3339),
			strconv.Itoa(s.Duration),
			formatMinutes(s.Duration),
			strconv.FormatBool(s.Completed),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func formatMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
