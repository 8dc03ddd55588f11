package cli

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sadopc/timetable/internal/notify"
	"github.com/sadopc/timetable/internal/schedule"
	"github.com/sadopc/timetable/internal/store"
)

// watcher re-resolves the schedule on every cron tick and feeds the trigger.
// Cron may overlap runs, so check is serialized.
type watcher struct {
	mu        sync.Mutex
	store     *store.Store
	trigger   *notify.Trigger
	now       func() time.Time
	log       *logrus.Entry
	persisted bool
	prunedOn  string
}

func newWatchCmd(o *rootOptions) *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Alert five minutes before each class without the dashboard",
		Long: `Resolve the schedule on the configured cron spec (watch.schedule) and
ring the bell once per class and day when it is about to start.

Fired alerts are stored in the database when watch.persist_dedupe is set,
so restarting the watcher does not repeat them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.open("watch", cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.close()

			sinks := notify.Multi{notify.LogSink{Log: e.log}}
			if e.cfg.Watch.Bell {
				sinks = append(sinks, notify.BellSink{W: cmd.OutOrStdout()})
			}
			opts := notify.Options{
				Sink: sinks,
				// Starting the watcher is the user's opt-in.
				Permission: notify.PermissionGranted,
				Logger:     e.log,
			}
			if e.cfg.Watch.PersistDedupe {
				opts.Keys = e.store
			}
			w := &watcher{
				store:     e.store,
				trigger:   notify.NewTrigger(opts),
				now:       o.now,
				log:       e.log,
				persisted: e.cfg.Watch.PersistDedupe,
			}

			if once {
				w.check()
				return nil
			}

			sched, err := e.cfg.Watch.ParseSchedule()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return w.run(ctx, sched)
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "Check once and exit")
	return cmd
}

func (w *watcher) run(ctx context.Context, sched cron.Schedule) error {
	c := cron.New()
	c.Schedule(sched, cron.FuncJob(w.check))
	c.Start()
	w.log.Info("watching schedule")

	w.check()
	<-ctx.Done()

	<-c.Stop().Done()
	w.log.Info("watcher stopped")
	return nil
}

func (w *watcher) check() {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	blocks, err := w.store.ListBlocks()
	if err != nil {
		w.log.WithError(err).Warn("list blocks")
		return
	}
	settings := w.store.LoadSettings()
	st := schedule.Resolve(now, blocks)
	if a, ok := w.trigger.Evaluate(st, settings.NotificationsEnabled); ok {
		w.log.WithField("key", a.Key).Debug("alert fired")
	}
	w.prune(now)
}

// prune drops persisted keys from earlier days, once per day.
func (w *watcher) prune(now time.Time) {
	day := now.Format("2006-01-02")
	if !w.persisted || w.prunedOn == day {
		return
	}
	w.prunedOn = day
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	n, err := w.store.PruneKeys(start)
	if err != nil {
		w.log.WithError(err).Warn("prune alert keys")
		return
	}
	if n > 0 {
		w.log.WithField("removed", n).Debug("pruned alert keys")
	}
}
