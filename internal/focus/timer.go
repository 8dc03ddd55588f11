package focus

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidMinutes is returned for non-positive durations.
var ErrInvalidMinutes = errors.New("duration must be at least one minute")

// Mode is a countdown preset.
type Mode string

const (
	ModeFocus  Mode = "focus"
	ModeShort  Mode = "short"
	ModeLong   Mode = "long"
	ModeCustom Mode = "custom"
)

// Modes in display order.
var Modes = []Mode{ModeFocus, ModeShort, ModeLong, ModeCustom}

var modeLabels = map[Mode]string{
	ModeFocus:  "Focus",
	ModeShort:  "Short Break",
	ModeLong:   "Long Break",
	ModeCustom: "Custom",
}

func (m Mode) Label() string {
	if l, ok := modeLabels[m]; ok {
		return l
	}
	return string(m)
}

// Recorded reports whether completing a run in this mode produces a
// focus session.
func (m Mode) Recorded() bool {
	return m == ModeFocus || m == ModeCustom
}

// ParseMode accepts the mode names plus "short-break"/"long-break".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "focus":
		return ModeFocus, nil
	case "short", "short-break", "short_break":
		return ModeShort, nil
	case "long", "long-break", "long_break":
		return ModeLong, nil
	case "custom":
		return ModeCustom, nil
	}
	return "", fmt.Errorf("unknown timer mode %q", s)
}

// Presets holds the minutes for each fixed mode.
type Presets struct {
	Focus int
	Short int
	Long  int
}

func DefaultPresets() Presets {
	return Presets{Focus: 25, Short: 5, Long: 15}
}

// ValidateMinutes is the boundary check for user-entered durations.
func ValidateMinutes(m int) error {
	if m <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidMinutes, m)
	}
	return nil
}

// State is a snapshot of the countdown.
type State struct {
	Mode             Mode
	TotalSeconds     int
	RemainingSeconds int
	Running          bool
	CustomMinutes    int
}

// Remaining as a duration.
func (s State) Remaining() time.Duration {
	return time.Duration(s.RemainingSeconds) * time.Second
}

// Progress is the elapsed fraction of the current run in [0,1].
func (s State) Progress() float64 {
	if s.TotalSeconds <= 0 {
		return 0
	}
	return float64(s.TotalSeconds-s.RemainingSeconds) / float64(s.TotalSeconds)
}

// Completion is emitted once when a run reaches zero. Minutes is the
// configured target of the mode, not the wall time that passed.
type Completion struct {
	Mode    Mode
	Minutes int
	At      time.Time
}

// Timer is the countdown state machine. It is not safe for concurrent use;
// Driver wraps it for goroutine-driven ticking.
type Timer struct {
	presets Presets
	state   State
}

// NewTimer returns a stopped timer in focus mode.
func NewTimer(p Presets, customMinutes int) *Timer {
	if customMinutes <= 0 {
		customMinutes = p.Focus
	}
	t := &Timer{presets: p}
	t.state.Mode = ModeFocus
	t.state.CustomMinutes = customMinutes
	t.rewind()
	return t
}

func (t *Timer) State() State { return t.state }

// Minutes is the configured target for the current mode.
func (t *Timer) Minutes() int {
	return t.minutesFor(t.state.Mode)
}

func (t *Timer) minutesFor(m Mode) int {
	switch m {
	case ModeShort:
		return t.presets.Short
	case ModeLong:
		return t.presets.Long
	case ModeCustom:
		return t.state.CustomMinutes
	default:
		return t.presets.Focus
	}
}

func (t *Timer) rewind() {
	t.state.Running = false
	t.state.TotalSeconds = t.Minutes() * 60
	t.state.RemainingSeconds = t.state.TotalSeconds
}

// Start resumes the countdown. It reports whether the timer is now
// running because of this call.
func (t *Timer) Start() bool {
	if t.state.Running || t.state.RemainingSeconds <= 0 {
		return false
	}
	t.state.Running = true
	return true
}

func (t *Timer) Pause() {
	t.state.Running = false
}

// Toggle pauses a running timer or starts a stopped one.
func (t *Timer) Toggle() {
	if t.state.Running {
		t.Pause()
		return
	}
	t.Start()
}

func (t *Timer) Reset() {
	t.rewind()
}

func (t *Timer) SwitchMode(m Mode) {
	t.state.Mode = m
	t.rewind()
}

// SetCustomDuration changes the custom preset. A running custom countdown
// is stopped and rewound to the new length.
func (t *Timer) SetCustomDuration(minutes int) error {
	if err := ValidateMinutes(minutes); err != nil {
		return err
	}
	t.state.CustomMinutes = minutes
	if t.state.Mode == ModeCustom {
		t.rewind()
	}
	return nil
}

// SetPresets replaces the fixed mode lengths. The current countdown is
// rewound only if its own length changed.
func (t *Timer) SetPresets(p Presets) error {
	for _, m := range []int{p.Focus, p.Short, p.Long} {
		if err := ValidateMinutes(m); err != nil {
			return err
		}
	}
	before := t.Minutes()
	t.presets = p
	if t.state.Mode != ModeCustom && t.Minutes() != before {
		t.rewind()
	}
	return nil
}

// Tick advances a running timer by one second. The second return value is
// true exactly once per run, on the tick that reaches zero.
func (t *Timer) Tick(now time.Time) (Completion, bool) {
	if !t.state.Running || t.state.RemainingSeconds <= 0 {
		return Completion{}, false
	}
	t.state.RemainingSeconds--
	if t.state.RemainingSeconds > 0 {
		return Completion{}, false
	}
	t.state.Running = false
	return Completion{Mode: t.state.Mode, Minutes: t.Minutes(), At: now}, true
}
