package focus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriverRunsToCompletion(t *testing.T) {
	done := make(chan Completion, 2)
	tm := NewTimer(Presets{Focus: 1, Short: 1, Long: 1}, 0)
	d := NewDriver(tm, DriverOptions{
		Interval:   time.Millisecond,
		OnComplete: func(c Completion) { done <- c },
	})
	defer d.Close()

	d.Start()
	select {
	case c := <-done:
		assert.Equal(t, ModeFocus, c.Mode)
		assert.Equal(t, 1, c.Minutes)
	case <-time.After(5 * time.Second):
		t.Fatal("timer did not complete")
	}

	s := d.State()
	assert.Equal(t, 0, s.RemainingSeconds)
	assert.False(t, s.Running)

	select {
	case <-done:
		t.Fatal("completion delivered twice")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestDriverPauseStopsDecrements(t *testing.T) {
	tm := NewTimer(DefaultPresets(), 0)
	d := NewDriver(tm, DriverOptions{Interval: time.Millisecond})
	defer d.Close()

	d.Start()
	time.Sleep(10 * time.Millisecond)
	d.Pause()
	frozen := d.State().RemainingSeconds
	require.Less(t, frozen, 1500)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, frozen, d.State().RemainingSeconds)
	assert.False(t, d.State().Running)
}

func TestDriverSwitchModeStops(t *testing.T) {
	tm := NewTimer(DefaultPresets(), 0)
	d := NewDriver(tm, DriverOptions{Interval: time.Millisecond})
	defer d.Close()

	d.Start()
	time.Sleep(5 * time.Millisecond)
	d.SwitchMode(ModeShort)
	time.Sleep(10 * time.Millisecond)

	s := d.State()
	assert.Equal(t, 300, s.RemainingSeconds)
	assert.False(t, s.Running)
}

func TestDriverResetAndRestart(t *testing.T) {
	tm := NewTimer(DefaultPresets(), 0)
	d := NewDriver(tm, DriverOptions{Interval: time.Millisecond})
	defer d.Close()

	d.Start()
	time.Sleep(5 * time.Millisecond)
	d.Reset()
	assert.Equal(t, 1500, d.State().RemainingSeconds)

	d.Start()
	d.Start()
	time.Sleep(5 * time.Millisecond)
	assert.True(t, d.State().Running)
}

func TestDriverCustomDuration(t *testing.T) {
	tm := NewTimer(DefaultPresets(), 0)
	d := NewDriver(tm, DriverOptions{Interval: time.Millisecond})
	defer d.Close()

	d.SwitchMode(ModeCustom)
	d.Start()
	require.NoError(t, d.SetCustomDuration(3))
	s := d.State()
	assert.False(t, s.Running)
	assert.Equal(t, 180, s.RemainingSeconds)

	assert.Error(t, d.SetCustomDuration(0))
}

func TestDriverCloseFromOnComplete(t *testing.T) {
	closed := make(chan struct{})
	tm := NewTimer(Presets{Focus: 1, Short: 1, Long: 1}, 0)
	var d *Driver
	d = NewDriver(tm, DriverOptions{
		Interval: time.Millisecond,
		OnComplete: func(Completion) {
			d.Reset()
			d.Close()
			close(closed)
		},
	})

	d.Start()
	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("Close inside OnComplete did not return")
	}
	assert.Equal(t, 60, d.State().RemainingSeconds)
}

func TestDriverSetPresetsStops(t *testing.T) {
	tm := NewTimer(DefaultPresets(), 0)
	d := NewDriver(tm, DriverOptions{Interval: time.Millisecond})
	defer d.Close()

	d.Start()
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, d.SetPresets(Presets{Focus: 50, Short: 5, Long: 15}))
	time.Sleep(10 * time.Millisecond)

	s := d.State()
	assert.False(t, s.Running)
	assert.Equal(t, 3000, s.RemainingSeconds)

	// Unchanged focus length keeps the run going.
	d.Start()
	require.NoError(t, d.SetPresets(Presets{Focus: 50, Short: 10, Long: 20}))
	time.Sleep(10 * time.Millisecond)
	assert.True(t, d.State().Running)
	assert.Less(t, d.State().RemainingSeconds, 3000)

	assert.Error(t, d.SetPresets(Presets{Focus: 0, Short: 5, Long: 15}))
}
