package engine

import (
	"sync"
	"time"
)

// Timer is a cancellable pending callback.
type Timer interface {
	Stop() bool
}

// Clock abstracts time so countdowns can be driven by tests.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// SystemClock is the wall clock.
func SystemClock() Clock { return systemClock{} }

// Countdown is the timer resource scoped to one awaiting-guess state. Every
// Start or Cancel bumps a generation number; an expiry carrying an older
// generation is stale and must be ignored by the owner.
type Countdown struct {
	clock Clock

	mu       sync.Mutex
	timer    Timer
	gen      uint64
	deadline time.Time
}

func NewCountdown(clock Clock) *Countdown {
	if clock == nil {
		clock = SystemClock()
	}
	return &Countdown{clock: clock}
}

// Start cancels any running countdown and arms a new one that calls expire
// with its generation after d.
func (c *Countdown) Start(d time.Duration, expire func(gen uint64)) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()
	c.gen++
	gen := c.gen
	c.deadline = c.clock.Now().Add(d)
	c.timer = c.clock.AfterFunc(d, func() { expire(gen) })
	return gen
}

// Cancel stops the running countdown, if any.
func (c *Countdown) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.gen++
}

func (c *Countdown) stopLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.deadline = time.Time{}
}

// Current reports whether gen is the generation of the running countdown.
func (c *Countdown) Current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timer != nil && gen == c.gen
}

// Remaining is the time left before expiry, or 0 when nothing is running.
func (c *Countdown) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer == nil {
		return 0
	}
	if d := c.deadline.Sub(c.clock.Now()); d > 0 {
		return d
	}
	return 0
}
