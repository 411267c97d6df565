package audio

import (
	"sync"
	"time"
)

// Events receives notifications from a Player. Players deliver events from
// their own goroutines and never from inside a method call.
type Events struct {
	OnTimeUpdate func(position time.Duration)
	OnEnded      func()
	OnError      func(err error)
}

func (e Events) timeUpdate(position time.Duration) {
	if e.OnTimeUpdate != nil {
		e.OnTimeUpdate(position)
	}
}

func (e Events) ended() {
	if e.OnEnded != nil {
		e.OnEnded()
	}
}

func (e Events) fail(err error) {
	if e.OnError != nil {
		e.OnError(err)
	}
}

// Player is the audio output capability a session drives.
type Player interface {
	// Load prepares WAV data and reports its duration.
	Load(data []byte) (time.Duration, error)
	Play() error
	Pause() error
	Seek(position time.Duration) error
	SetRate(rate float64) error
	Position() time.Duration
	// Release frees the player. No events are delivered afterwards.
	Release() error
}

// PlayerFactory creates a player bound to events.
type PlayerFactory func(events Events) Player

// clock tracks playback position against wall time at a given rate.
type clock struct {
	now func() time.Time

	mu       sync.Mutex
	offset   time.Duration
	started  time.Time
	running  bool
	rate     float64
	duration time.Duration
}

func newClock(now func() time.Time) *clock {
	if now == nil {
		now = time.Now
	}
	return &clock{now: now, rate: 1}
}

func (c *clock) position() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.positionLocked()
}

func (c *clock) positionLocked() time.Duration {
	pos := c.offset
	if c.running {
		pos += time.Duration(float64(c.now().Sub(c.started)) * c.rate)
	}
	if pos > c.duration {
		pos = c.duration
	}
	return pos
}

func (c *clock) start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	if c.offset >= c.duration {
		c.offset = 0
	}
	c.started = c.now()
	c.running = true
}

func (c *clock) stop() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset = c.positionLocked()
	c.running = false
	return c.offset
}

func (c *clock) seek(position time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset = clamp(position, c.duration)
	if c.running {
		c.started = c.now()
	}
}

func (c *clock) setRate(rate float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		c.offset = c.positionLocked()
		c.started = c.now()
	}
	c.rate = rate
}

func (c *clock) isRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func clamp(position, duration time.Duration) time.Duration {
	if position < 0 {
		return 0
	}
	if position > duration {
		return duration
	}
	return position
}
