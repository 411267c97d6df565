package audio

import (
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestClockPlayer(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{now: time.Unix(1700000000, 0)}
	var (
		updates []time.Duration
		ended   int
	)
	p := NewClockPlayer(Events{
		OnTimeUpdate: func(pos time.Duration) { updates = append(updates, pos) },
		OnEnded:      func() { ended++ },
	}, WithClock(clk.Now), WithTickInterval(0))

	assert.Error(t, p.Play(), "nothing loaded")

	d, err := p.Load(wavOf(2 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, d)
	assert.False(t, p.Poll(), "not running")

	require.NoError(t, p.Play())
	clk.Advance(500 * time.Millisecond)
	assert.True(t, p.Poll())
	assert.Equal(t, []time.Duration{500 * time.Millisecond}, updates)

	require.NoError(t, p.SetRate(2))
	clk.Advance(250 * time.Millisecond)
	assert.Equal(t, time.Second, p.Position())

	require.NoError(t, p.Pause())
	clk.Advance(time.Second)
	assert.Equal(t, time.Second, p.Position())

	require.NoError(t, p.Seek(1500*time.Millisecond))
	require.NoError(t, p.Play())
	clk.Advance(600 * time.Millisecond)
	assert.False(t, p.Poll())
	assert.Equal(t, 1, ended)
	assert.Equal(t, time.Duration(0), p.Position())

	require.NoError(t, p.Release())
	assert.ErrorIs(t, p.Release(), ErrReleased)
	assert.ErrorIs(t, p.Play(), ErrReleased)
}

func TestClockPlayer_RejectsNonWAV(t *testing.T) {
	t.Parallel()

	p := NewClockPlayer(Events{}, WithTickInterval(0))
	_, err := p.Load([]byte("mp3?"))
	assert.Error(t, err)
}

func TestClockPlayer_TickerDeliversEnded(t *testing.T) {
	t.Parallel()

	ended := make(chan struct{})
	p := NewClockPlayer(Events{OnEnded: func() { close(ended) }}, WithTickInterval(5*time.Millisecond))
	t.Cleanup(func() { _ = p.Release() })

	_, err := p.Load(wavOf(20 * time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, p.Play())

	select {
	case <-ended:
	case <-time.After(2 * time.Second):
		t.Fatal("ended event not delivered")
	}
}

func TestCommandArgs(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		name   string
		base   []string
		offset time.Duration
		rate   float64
		want   []string
	}{
		"ffplay from start": {
			name: "ffplay",
			rate: 1,
			want: []string{"-nodisp", "-autoexit", "-loglevel", "quiet", "clip.wav"},
		},
		"ffplay offset and rate": {
			name:   "/usr/bin/ffplay",
			offset: 1500 * time.Millisecond,
			rate:   1.25,
			want:   []string{"-nodisp", "-autoexit", "-loglevel", "quiet", "-ss", "1.500", "-af", "atempo=1.25", "clip.wav"},
		},
		"mpv keeps base args": {
			name:   "mpv",
			base:   []string{"--volume=50"},
			offset: 2 * time.Second,
			rate:   2,
			want:   []string{"--volume=50", "--no-video", "--really-quiet", "--start=2.000", "--speed=2", "clip.wav"},
		},
		"unknown player": {
			name:   "aplay",
			base:   []string{"-q"},
			offset: time.Second,
			rate:   2,
			want:   []string{"-q", "clip.wav"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, commandArgs(tt.name, tt.base, "clip.wav", tt.offset, tt.rate))
		})
	}
}

func TestExecPlayerFactory(t *testing.T) {
	t.Parallel()

	_, err := ExecPlayerFactory("")
	assert.Error(t, err)

	_, err = ExecPlayerFactory("changecast-no-such-player --flag")
	assert.Error(t, err)

	_, err = NewExecPlayer(Events{}, `ffplay "unterminated`)
	assert.Error(t, err)
}

func TestExecPlayer_Events(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		command   string
		wantEnded bool
	}{
		"clean exit ends":   {command: "true", wantEnded: true},
		"failed exit fails": {command: "false", wantEnded: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if _, err := exec.LookPath(tt.command); err != nil {
				t.Skipf("%s not available", tt.command)
			}

			done := make(chan bool, 1)
			p, err := NewExecPlayer(Events{
				OnEnded: func() { done <- true },
				OnError: func(error) { done <- false },
			}, tt.command)
			require.NoError(t, err)
			t.Cleanup(func() { _ = p.Release() })

			_, err = p.Load(wavOf(time.Second))
			require.NoError(t, err)
			require.NoError(t, p.Play())

			select {
			case got := <-done:
				assert.Equal(t, tt.wantEnded, got)
			case <-time.After(5 * time.Second):
				t.Fatal("no event from player process")
			}
		})
	}
}
