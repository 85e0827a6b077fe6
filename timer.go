package iomodal

import (
	"sync"
	"time"
)

// TimerState is the lifecycle state of a [Timer].
//
// State Machine:
//
//	TimerIdle → TimerRunning          [Start()]
//	TimerRunning ⇄ TimerPaused        [Pause()/Resume()]
//	TimerRunning → TimerFired         [deadline reached]
//	any non-terminal → TimerStopped   [Stop()]
//
// TimerFired and TimerStopped are terminal.
type TimerState int32

const (
	// TimerIdle indicates the timer has been created but not started.
	TimerIdle TimerState = iota
	// TimerRunning indicates the countdown is in progress.
	TimerRunning
	// TimerPaused indicates the countdown is suspended with its remaining
	// duration preserved.
	TimerPaused
	// TimerFired indicates the deadline was reached and the callback ran.
	TimerFired
	// TimerStopped indicates the timer was cancelled before firing.
	TimerStopped
)

// String returns a human-readable representation of the state.
func (s TimerState) String() string {
	switch s {
	case TimerIdle:
		return "Idle"
	case TimerRunning:
		return "Running"
	case TimerPaused:
		return "Paused"
	case TimerFired:
		return "Fired"
	case TimerStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// Timer is a cancellable, pausable countdown bound to a [Loop].
//
// The callback executes exactly once, on the loop goroutine, when the
// deadline is reached while running. Pausing preserves elapsed accounting:
// after Pause at elapsed e and a later Resume, the remaining duration is the
// original duration minus e, regardless of how long the timer sat paused.
//
// Thread Safety: all methods are safe for concurrent use.
type Timer struct {
	loop *Loop
	fn   func()

	mu        sync.Mutex
	state     TimerState
	remaining time.Duration // valid while Paused or Idle; snapshot basis while Running
	startedAt time.Time     // when the current running stretch began
	id        TimerID       // loop timer for the current running stretch
}

// NewTimer creates an idle timer that will run fn once d elapses after
// [Timer.Start] (accounting for pauses). A nil fn or non-positive d yields
// nil.
func NewTimer(loop *Loop, d time.Duration, fn func()) *Timer {
	if loop == nil || fn == nil || d <= 0 {
		return nil
	}
	return &Timer{
		loop:      loop,
		fn:        fn,
		state:     TimerIdle,
		remaining: d,
	}
}

// State returns the current [TimerState].
func (t *Timer) State() TimerState {
	if t == nil {
		return TimerStopped
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// IsRunning reports whether the countdown is currently in progress.
func (t *Timer) IsRunning() bool {
	return t.State() == TimerRunning
}

// Start begins the countdown. Returns false unless the timer was idle.
func (t *Timer) Start() bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != TimerIdle {
		return false
	}
	return t.scheduleLocked(t.remaining)
}

// Stop cancels the countdown. Terminal: a stopped timer cannot be restarted.
// Returns false if the timer had already fired or been stopped.
func (t *Timer) Stop() bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case TimerFired, TimerStopped:
		return false
	case TimerRunning:
		_ = t.loop.CancelTimer(t.id)
	}
	t.state = TimerStopped
	return true
}

// Pause suspends a running countdown, preserving the remaining duration.
// Returns false unless the timer was running.
func (t *Timer) Pause() bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != TimerRunning {
		return false
	}

	// If cancellation fails the loop timer already fired (or is firing);
	// let the fire win rather than resurrect the countdown.
	if err := t.loop.CancelTimer(t.id); err != nil {
		return false
	}

	elapsed := t.loop.Now().Sub(t.startedAt)
	t.remaining -= elapsed
	if t.remaining < 0 {
		t.remaining = 0
	}
	t.state = TimerPaused
	return true
}

// Resume continues a paused countdown with the preserved remaining duration.
// Returns false unless the timer was paused.
func (t *Timer) Resume() bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != TimerPaused {
		return false
	}
	return t.scheduleLocked(t.remaining)
}

// Toggle pauses a running timer or resumes a paused one. Returns true if
// the timer is running after the call.
func (t *Timer) Toggle() bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	state := t.state
	t.mu.Unlock()

	switch state {
	case TimerRunning:
		t.Pause()
		return false
	case TimerPaused:
		t.Resume()
		return true
	default:
		return false
	}
}

// TimeLeft returns the remaining duration: the live countdown remainder
// while running, the preserved remainder while paused or idle, and zero once
// terminal.
func (t *Timer) TimeLeft() time.Duration {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case TimerRunning:
		left := t.remaining - t.loop.Now().Sub(t.startedAt)
		if left < 0 {
			left = 0
		}
		return left
	case TimerPaused, TimerIdle:
		return t.remaining
	default:
		return 0
	}
}

// Increase extends the countdown by d and returns the new remaining
// duration. Works on running, paused, and idle timers; terminal timers
// return zero.
func (t *Timer) Increase(d time.Duration) time.Duration {
	if t == nil || d < 0 {
		return t.TimeLeft()
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case TimerRunning:
		if err := t.loop.CancelTimer(t.id); err != nil {
			// Already fired; nothing left to extend.
			return 0
		}
		left := t.remaining - t.loop.Now().Sub(t.startedAt)
		if left < 0 {
			left = 0
		}
		t.remaining = left + d
		t.state = TimerPaused // transient; scheduleLocked flips back
		t.scheduleLocked(t.remaining)
		return t.remaining
	case TimerPaused, TimerIdle:
		t.remaining += d
		return t.remaining
	default:
		return 0
	}
}

// scheduleLocked arms the loop timer for d and transitions to Running.
// Must be called with t.mu held, in Idle or Paused state.
func (t *Timer) scheduleLocked(d time.Duration) bool {
	if d < 0 {
		d = 0
	}
	id, err := t.loop.ScheduleTimer(d, t.fire)
	if err != nil {
		t.state = TimerStopped
		return false
	}
	t.id = id
	t.remaining = d
	t.startedAt = t.loop.Now()
	t.state = TimerRunning
	return true
}

// fire runs on the loop goroutine when the armed deadline is reached.
func (t *Timer) fire() {
	t.mu.Lock()
	if t.state != TimerRunning {
		// Lost the race against Stop/Pause; their CancelTimer failed after
		// the loop already dequeued us, so respect their transition.
		t.mu.Unlock()
		return
	}
	t.state = TimerFired
	t.remaining = 0
	fn := t.fn
	t.mu.Unlock()

	fn()
}
