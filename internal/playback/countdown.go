package playback

import (
	"time"

	"github.com/amaumene/reelarr/internal/models"
)

// Countdown is the auto-advance timer started when an episode ends.
// Expiry and PlayNow race through the same Task, so advance fires at most once.
type Countdown struct {
	task     *Task
	clock    Clock
	deadline time.Time
	next     models.ContentRef
}

// StartCountdown arms a countdown that calls advance with next after d
func StartCountdown(clock Clock, d time.Duration, next models.ContentRef, advance func(models.ContentRef)) *Countdown {
	c := &Countdown{
		clock:    clock,
		deadline: clock.Now().Add(d),
		next:     next,
	}
	c.task = StartTask(clock, d, func() { advance(next) })
	return c
}

// Next returns the episode the countdown advances to
func (c *Countdown) Next() models.ContentRef {
	return c.next
}

// Remaining returns the time left, zero once fired or cancelled
func (c *Countdown) Remaining() time.Duration {
	if !c.task.Pending() {
		return 0
	}
	left := c.deadline.Sub(c.clock.Now())
	if left < 0 {
		return 0
	}
	return left
}

// PlayNow advances immediately. It reports whether this call won the race.
func (c *Countdown) PlayNow() bool {
	return c.task.Fire()
}

// Cancel stops the countdown without advancing
func (c *Countdown) Cancel() bool {
	return c.task.Cancel()
}

// Pending reports whether the countdown is still running
func (c *Countdown) Pending() bool {
	return c.task.Pending()
}
