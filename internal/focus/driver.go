package focus

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DriverOptions configures a Driver.
type DriverOptions struct {
	// Interval between ticks. Defaults to one second; tests shorten it.
	Interval time.Duration
	// OnComplete is called outside the lock for every finished run, after
	// the ticker goroutine has been accounted for, so it may call Close.
	OnComplete func(Completion)
	Logger     *logrus.Entry
}

// Driver owns the single shared Timer and its one-second tick source. The
// ticker goroutine only exists while the timer runs, and every stop
// transition cancels it under the same lock that guards Tick, so no
// decrement is observable once Pause, Reset or SwitchMode has returned.
type Driver struct {
	mu      sync.Mutex
	timer   *Timer
	opts    DriverOptions
	stopCh  chan struct{}
	stopped sync.WaitGroup
}

func NewDriver(t *Timer, opts DriverOptions) *Driver {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Driver{timer: t, opts: opts}
}

// State returns a snapshot of the timer.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer.State()
}

// Start begins ticking if the timer has time left and is not already running.
func (d *Driver) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.timer.Start() {
		return
	}
	stop := make(chan struct{})
	d.stopCh = stop
	d.stopped.Add(1)
	go d.loop(stop)
	d.opts.Logger.WithField("mode", d.timer.State().Mode).Debug("timer started")
}

func (d *Driver) Pause() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.timer.Pause()
	d.cancelLocked()
}

func (d *Driver) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.timer.Reset()
	d.cancelLocked()
}

func (d *Driver) SwitchMode(m Mode) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.timer.SwitchMode(m)
	d.cancelLocked()
}

func (d *Driver) SetCustomDuration(minutes int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.timer.SetCustomDuration(minutes); err != nil {
		return err
	}
	if !d.timer.State().Running {
		d.cancelLocked()
	}
	return nil
}

// SetPresets replaces the fixed mode lengths and stops ticking if that
// rewound the current run.
func (d *Driver) SetPresets(p Presets) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.timer.SetPresets(p); err != nil {
		return err
	}
	if !d.timer.State().Running {
		d.cancelLocked()
	}
	return nil
}

// Close stops ticking and waits for the goroutine to exit.
func (d *Driver) Close() {
	d.Pause()
	d.stopped.Wait()
}

func (d *Driver) cancelLocked() {
	if d.stopCh != nil {
		close(d.stopCh)
		d.stopCh = nil
	}
}

func (d *Driver) loop(stop chan struct{}) {
	c, done := d.run(stop)
	d.stopped.Done()
	if !done {
		return
	}
	d.opts.Logger.WithFields(logrus.Fields{
		"mode":    c.Mode,
		"minutes": c.Minutes,
	}).Info("timer completed")
	if d.opts.OnComplete != nil {
		d.opts.OnComplete(c)
	}
}

// run ticks until the run completes or stop is closed.
func (d *Driver) run(stop chan struct{}) (Completion, bool) {
	ticker := time.NewTicker(d.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return Completion{}, false
		case now := <-ticker.C:
			c, done, cancelled := d.tick(stop, now)
			if cancelled {
				return Completion{}, false
			}
			if done {
				return c, true
			}
		}
	}
}

func (d *Driver) tick(stop chan struct{}, now time.Time) (Completion, bool, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	select {
	case <-stop:
		return Completion{}, false, true
	default:
	}
	c, done := d.timer.Tick(now)
	if done {
		d.cancelLocked()
	}
	return c, done, false
}
