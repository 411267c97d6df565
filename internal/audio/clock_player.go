package audio

import (
	"errors"
	"sync"
	"time"

	"github.com/ariel-frischer/changecast/internal/tts"
)

// ErrReleased is returned by a player used after Release.
var ErrReleased = errors.New("player released")

// DefaultTickInterval is how often ClockPlayer reports time updates.
const DefaultTickInterval = 250 * time.Millisecond

// ClockPlayer plays audio against a virtual clock without producing sound.
// It backs headless sessions and tests.
type ClockPlayer struct {
	events   Events
	clock    *clock
	interval time.Duration

	mu       sync.Mutex
	loaded   bool
	released bool
	done     chan struct{}
}

// ClockOption configures a ClockPlayer.
type ClockOption func(*ClockPlayer)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) ClockOption {
	return func(p *ClockPlayer) {
		p.clock.now = now
	}
}

// WithTickInterval sets the time update interval. Zero disables the
// background ticker; callers then drive updates with Poll.
func WithTickInterval(d time.Duration) ClockOption {
	return func(p *ClockPlayer) {
		p.interval = d
	}
}

// NewClockPlayer returns a ClockPlayer delivering events.
func NewClockPlayer(events Events, opts ...ClockOption) *ClockPlayer {
	p := &ClockPlayer{
		events:   events,
		clock:    newClock(nil),
		interval: DefaultTickInterval,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ClockPlayerFactory adapts NewClockPlayer to a PlayerFactory.
func ClockPlayerFactory(opts ...ClockOption) PlayerFactory {
	return func(events Events) Player {
		return NewClockPlayer(events, opts...)
	}
}

func (p *ClockPlayer) Load(data []byte) (time.Duration, error) {
	d, err := tts.WAVDuration(data)
	if err != nil {
		return 0, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return 0, ErrReleased
	}
	p.clock.mu.Lock()
	p.clock.duration = d
	p.clock.offset = 0
	p.clock.running = false
	p.clock.mu.Unlock()
	p.loaded = true
	return d, nil
}

func (p *ClockPlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return ErrReleased
	}
	if !p.loaded {
		return errors.New("no audio loaded")
	}
	p.clock.start()
	if p.interval > 0 && p.done == nil {
		p.done = make(chan struct{})
		go p.tick(p.done)
	}
	return nil
}

func (p *ClockPlayer) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return ErrReleased
	}
	p.clock.stop()
	p.stopTickerLocked()
	return nil
}

func (p *ClockPlayer) Seek(position time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return ErrReleased
	}
	p.clock.seek(position)
	return nil
}

func (p *ClockPlayer) SetRate(rate float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return ErrReleased
	}
	p.clock.setRate(rate)
	return nil
}

func (p *ClockPlayer) Position() time.Duration {
	return p.clock.position()
}

func (p *ClockPlayer) Release() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return ErrReleased
	}
	p.released = true
	p.clock.stop()
	p.stopTickerLocked()
	return nil
}

// Poll reports the current position and delivers the ended event once the
// clock reaches the end. It returns false when the player is not running.
func (p *ClockPlayer) Poll() bool {
	p.mu.Lock()
	if p.released || !p.clock.isRunning() {
		p.mu.Unlock()
		return false
	}
	pos := p.clock.position()
	ended := pos >= p.clock.duration
	if ended {
		p.clock.stop()
		p.clock.seek(0)
		p.stopTickerLocked()
	}
	p.mu.Unlock()

	if ended {
		p.events.ended()
		return false
	}
	p.events.timeUpdate(pos)
	return true
}

func (p *ClockPlayer) stopTickerLocked() {
	if p.done != nil {
		close(p.done)
		p.done = nil
	}
}

func (p *ClockPlayer) tick(done <-chan struct{}) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if !p.Poll() {
				return
			}
		}
	}
}
