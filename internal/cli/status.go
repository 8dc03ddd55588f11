package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sadopc/timetable/internal/schedule"
)

// statusOutput is the --json shape of the status command.
type statusOutput struct {
	Now           string              `json:"now"`
	Current       *schedule.TimeBlock `json:"current"`
	Next          *schedule.TimeBlock `json:"next"`
	MinutesToNext *int                `json:"minutes_to_next"`
}

func newStatusCmd(o *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the current and next class",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.open("status", cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.close()

			blocks, err := e.store.ListBlocks()
			if err != nil {
				return err
			}
			st := schedule.Resolve(o.now(), blocks)

			if asJSON {
				return writeStatusJSON(cmd.OutOrStdout(), st)
			}
			writeStatus(cmd.OutOrStdout(), st)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output in JSON format")
	return cmd
}

func writeStatus(w io.Writer, st schedule.Status) {
	if c := st.Current; c != nil {
		left := int(c.End - schedule.ClockOf(st.Now))
		fmt.Fprintf(w, "Now:  %s %s-%s%s, %d min left\n", c.Subject, c.Start, c.End, where(*c), left)
	} else {
		fmt.Fprintln(w, "Now:  free")
	}
	if n := st.Next; n != nil {
		fmt.Fprintf(w, "Next: %s %s-%s%s in %d min\n", n.Subject, n.Start, n.End, where(*n), st.MinutesToNext)
	} else {
		fmt.Fprintln(w, "Next: nothing else today")
	}
}

func where(b schedule.TimeBlock) string {
	if b.Location == "" {
		return ""
	}
	return " (" + b.Location + ")"
}

func writeStatusJSON(w io.Writer, st schedule.Status) error {
	out := statusOutput{
		Now:     st.Now.Format("2006-01-02T15:04:05"),
		Current: st.Current,
		Next:    st.Next,
	}
	if st.Next != nil {
		m := st.MinutesToNext
		out.MinutesToNext = &m
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal status to JSON: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}
