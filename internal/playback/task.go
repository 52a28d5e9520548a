package playback

import (
	"sync/atomic"
	"time"
)

const (
	taskPending int32 = iota
	taskFired
	taskCancelled
)

// Task is a cancellable one-shot timer. Its callback runs at most once no matter
// how the timer expiry, Fire and Cancel race; the first transition out of pending wins.
type Task struct {
	state  int32
	timer  Timer
	onFire func()
}

// StartTask schedules onFire after d
func StartTask(clock Clock, d time.Duration, onFire func()) *Task {
	t := &Task{onFire: onFire}
	t.timer = clock.AfterFunc(d, func() { t.fire() })
	return t
}

// Fire runs the callback now if the task is still pending.
// It reports whether this call ran the callback.
func (t *Task) Fire() bool {
	if !t.fire() {
		return false
	}
	t.timer.Stop()
	return true
}

func (t *Task) fire() bool {
	if !atomic.CompareAndSwapInt32(&t.state, taskPending, taskFired) {
		return false
	}
	t.onFire()
	return true
}

// Cancel stops the task without running the callback.
// It reports whether the task was still pending.
func (t *Task) Cancel() bool {
	if !atomic.CompareAndSwapInt32(&t.state, taskPending, taskCancelled) {
		return false
	}
	t.timer.Stop()
	return true
}

// Pending reports whether the task has neither fired nor been cancelled
func (t *Task) Pending() bool {
	return atomic.LoadInt32(&t.state) == taskPending
}
