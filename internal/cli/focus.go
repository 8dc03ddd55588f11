package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/timetable/internal/focus"
)

type focusOptions struct {
	mode    string
	minutes int
	quiet   bool
}

func newFocusCmd(o *rootOptions) *cobra.Command {
	fo := &focusOptions{}
	cmd := &cobra.Command{
		Use:   "focus",
		Short: "Run one focus timer in the terminal",
		Long: `Count down one timer run without the dashboard. Finished focus and custom
runs are saved to the focus history; breaks are not.

Passing --minutes implies --mode custom and stores the new custom length.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := focus.ParseMode(fo.mode)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("minutes") {
				if err := focus.ValidateMinutes(fo.minutes); err != nil {
					return err
				}
				mode = focus.ModeCustom
			}

			e, err := o.open("focus", cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.close()

			st := e.store.LoadSettings()
			timer := focus.NewTimer(focus.Presets{Focus: st.FocusMinutes, Short: st.ShortMinutes, Long: st.LongMinutes}, st.CustomMinutes)
			if mode == focus.ModeCustom && fo.minutes > 0 {
				if err := timer.SetCustomDuration(fo.minutes); err != nil {
					return err
				}
				st.CustomMinutes = fo.minutes
				if err := e.store.SaveSettings(st); err != nil {
					return err
				}
			}
			timer.SwitchMode(mode)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			if fo.quiet {
				out = io.Discard
			}
			c, done := runFocus(ctx, timer, focus.DriverOptions{Interval: o.tick, Logger: e.log}, out)
			if !done {
				fmt.Fprintln(cmd.OutOrStdout(), "\nStopped.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\a%s session complete: %d minutes\n", c.Mode.Label(), c.Minutes)

			sess, ok := focus.NewSession(c)
			if !ok {
				return nil
			}
			return record(e.store, sess)
		},
	}
	cmd.Flags().StringVarP(&fo.mode, "mode", "m", "focus", "Timer mode: focus, short, long or custom")
	cmd.Flags().IntVar(&fo.minutes, "minutes", 0, "Custom duration in minutes")
	cmd.Flags().BoolVarP(&fo.quiet, "quiet", "q", false, "Do not print the countdown")
	return cmd
}

// runFocus drives the timer until it completes or ctx is cancelled, redrawing
// the remaining time on w once per second.
func runFocus(ctx context.Context, t *focus.Timer, opts focus.DriverOptions, w io.Writer) (focus.Completion, bool) {
	completed := make(chan focus.Completion, 1)
	opts.OnComplete = func(c focus.Completion) { completed <- c }

	d := focus.NewDriver(t, opts)
	defer d.Close()
	d.Start()

	interval := opts.Interval
	if interval <= 0 {
		interval = time.Second
	}
	redraw := time.NewTicker(interval)
	defer redraw.Stop()

	draw := func() {
		s := d.State()
		fmt.Fprintf(w, "\r%s  %s ", s.Mode.Label(), formatRemaining(s.RemainingSeconds))
	}
	draw()
	for {
		select {
		case c := <-completed:
			fmt.Fprintln(w)
			return c, true
		case <-ctx.Done():
			d.Pause()
			return focus.Completion{}, false
		case <-redraw.C:
			draw()
		}
	}
}

func formatRemaining(secs int) string {
	if secs >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", secs/3600, secs%3600/60, secs%60)
	}
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

func record(r focus.Recorder, sess focus.Session) error {
	if err := r.RecordSession(sess); err != nil {
		return fmt.Errorf("record session: %w", err)
	}
	return nil
}
