// Package tick provides cooperative, resumable tasks advanced by the
// external per-frame driver. Nothing here blocks or reads a wall clock.
package tick

import "math"

// Task fires a callback at fixed boundaries until its duration has elapsed.
// State is plain data; Advance resumes it from where the last frame stopped.
type Task struct {
	name     string
	interval float64
	ticks    int
	fired    int
	elapsed  float64
	onTick   func(t *Task)
	onDone   func(t *Task)
	done     bool
	canceled bool
}

// NewTask creates a task that calls onTick ceil(duration/interval) times, once
// at every interval boundary.
//
// Precondition: interval > 0; duration >= 0; onTick non-nil.
func NewTask(name string, duration, interval float64, onTick func(t *Task)) *Task {
	if interval <= 0 {
		panic("tick.NewTask: interval must be > 0")
	}
	if onTick == nil {
		panic("tick.NewTask: onTick must not be nil")
	}
	return &Task{
		name:     name,
		interval: interval,
		ticks:    TickCount(duration, interval),
		onTick:   onTick,
	}
}

// TickCount returns ceil(duration/interval), and at least 1 when duration > 0.
func TickCount(duration, interval float64) int {
	if duration <= 0 {
		return 0
	}
	n := int(math.Ceil(duration/interval - 1e-9))
	if n < 1 {
		n = 1
	}
	return n
}

// OnDone registers a callback invoked once when the task completes normally.
// It is not invoked on Cancel.
func (t *Task) OnDone(fn func(t *Task)) *Task {
	t.onDone = fn
	return t
}

// Name returns the task's name.
func (t *Task) Name() string { return t.name }

// Ticks returns the total number of ticks the task will fire.
func (t *Task) Ticks() int { return t.ticks }

// Fired returns the number of ticks fired so far.
func (t *Task) Fired() int { return t.fired }

// Elapsed returns the time accumulated since the task (re)started.
func (t *Task) Elapsed() float64 { return t.elapsed }

// Remaining returns the time left until the last tick.
func (t *Task) Remaining() float64 {
	r := float64(t.ticks)*t.interval - t.elapsed
	if r < 0 {
		return 0
	}
	return r
}

// Done reports whether the task has finished or was canceled.
func (t *Task) Done() bool { return t.done || t.canceled }

// Canceled reports whether Cancel was called.
func (t *Task) Canceled() bool { return t.canceled }

// Advance adds dt to the task's clock and fires every boundary crossed.
//
// Postcondition: Fired() <= Ticks().
func (t *Task) Advance(dt float64) {
	if t.Done() {
		return
	}
	t.elapsed += dt
	for !t.Done() && t.fired < t.ticks && t.elapsed >= float64(t.fired+1)*t.interval-1e-9 {
		t.fired++
		t.onTick(t)
	}
	if !t.Done() && t.fired >= t.ticks {
		t.done = true
		if t.onDone != nil {
			t.onDone(t)
		}
	}
}

// Restart resets the task's clock and tick counter, keeping its callbacks.
func (t *Task) Restart(duration float64) {
	t.ticks = TickCount(duration, t.interval)
	t.fired = 0
	t.elapsed = 0
	t.done = false
	t.canceled = false
}

// Cancel stops the task. Safe to call multiple times.
//
// Postcondition: onTick and onDone will not be called again.
func (t *Task) Cancel() {
	t.canceled = true
}
