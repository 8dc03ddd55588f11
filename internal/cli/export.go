package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/timetable/internal/export"
)

type exportOptions struct {
	format   string
	output   string
	sessions bool
	weeks    int
}

func newExportCmd(o *rootOptions) *cobra.Command {
	eo := &exportOptions{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export classes and focus history",
		Long: `Export the schedule and focus history.

Formats:
  csv   classes, or focus sessions with --sessions
  json  classes and sessions in one file, readable by "timetable import"
  ics   a calendar with one weekly recurring event per class`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.open("export", cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.close()

			now := o.now()
			path := eo.output
			if path == "" {
				path = defaultExportName(eo, now)
			}

			blocks, err := e.store.ListBlocks()
			if err != nil {
				return err
			}

			switch eo.format {
			case "csv":
				if eo.sessions {
					sessions, lerr := e.store.ListSessions(time.Time{}, time.Time{})
					if lerr != nil {
						return lerr
					}
					err = export.SessionsToCSV(sessions, path)
				} else {
					err = export.BlocksToCSV(blocks, path)
				}
			case "json":
				sessions, lerr := e.store.ListSessions(time.Time{}, time.Time{})
				if lerr != nil {
					return lerr
				}
				err = export.ToJSON(blocks, sessions, path)
			case "ics":
				opts := export.ICSOptions{From: now}
				if eo.weeks > 0 {
					opts.Until = now.AddDate(0, 0, 7*eo.weeks)
				}
				err = export.ToICS(blocks, opts, path)
			default:
				return fmt.Errorf("unknown export format %q (want csv, json or ics)", eo.format)
			}
			if err != nil {
				return err
			}

			e.log.WithField("path", path).Info("exported")
			fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&eo.format, "format", "f", "csv", "Output format: csv, json or ics")
	cmd.Flags().StringVarP(&eo.output, "output", "o", "", "Output file (default in the current directory)")
	cmd.Flags().BoolVar(&eo.sessions, "sessions", false, "Export focus sessions instead of classes (csv only)")
	cmd.Flags().IntVar(&eo.weeks, "weeks", 0, "Stop the ics recurrence after this many weeks (0 means no end)")
	return cmd
}

func defaultExportName(eo *exportOptions, now time.Time) string {
	date := now.Format("2006-01-02")
	switch {
	case eo.format == "json":
		return "timetable-export-" + date + ".json"
	case eo.format == "ics":
		return "timetable-" + date + ".ics"
	case eo.sessions:
		return "timetable-sessions-" + date + ".csv"
	default:
		return "timetable-classes-" + date + ".csv"
	}
}
