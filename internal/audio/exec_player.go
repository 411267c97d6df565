package audio

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/shlex"

	"github.com/ariel-frischer/changecast/internal/tts"
)

// ExecPlayer plays audio through an external command such as ffplay or mpv.
// The WAV data is written to a temporary file; pausing stops the process and
// resuming restarts it at the tracked offset.
type ExecPlayer struct {
	events Events
	name   string
	args   []string
	clock  *clock

	mu       sync.Mutex
	file     string
	cmd      *exec.Cmd
	gen      uint64
	released bool
}

// NewExecPlayer parses command and returns a player that runs it.
func NewExecPlayer(events Events, command string) (*ExecPlayer, error) {
	parts, err := shlex.Split(command)
	if err != nil {
		return nil, fmt.Errorf("parsing player command: %w", err)
	}
	if len(parts) == 0 {
		return nil, errors.New("player command is empty")
	}
	return &ExecPlayer{
		events: events,
		name:   parts[0],
		args:   parts[1:],
		clock:  newClock(nil),
	}, nil
}

// ExecPlayerFactory checks that command resolves to an executable and
// returns a factory for it.
func ExecPlayerFactory(command string) (PlayerFactory, error) {
	probe, err := NewExecPlayer(Events{}, command)
	if err != nil {
		return nil, err
	}
	if _, err := exec.LookPath(probe.name); err != nil {
		return nil, fmt.Errorf("player command %q not found: %w", probe.name, err)
	}
	return func(events Events) Player {
		p, _ := NewExecPlayer(events, command)
		return p
	}, nil
}

func (p *ExecPlayer) Load(data []byte) (time.Duration, error) {
	d, err := tts.WAVDuration(data)
	if err != nil {
		return 0, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return 0, ErrReleased
	}
	p.killLocked()
	p.removeFileLocked()

	f, err := os.CreateTemp("", "changecast-*.wav")
	if err != nil {
		return 0, fmt.Errorf("creating audio file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return 0, fmt.Errorf("writing audio file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return 0, fmt.Errorf("writing audio file: %w", err)
	}
	p.file = f.Name()

	p.clock.mu.Lock()
	p.clock.duration = d
	p.clock.offset = 0
	p.clock.running = false
	p.clock.mu.Unlock()
	return d, nil
}

func (p *ExecPlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return ErrReleased
	}
	if p.file == "" {
		return errors.New("no audio loaded")
	}
	if p.cmd != nil {
		return nil
	}
	p.clock.start()
	if err := p.startLocked(); err != nil {
		p.clock.stop()
		return err
	}
	return nil
}

func (p *ExecPlayer) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return ErrReleased
	}
	p.killLocked()
	p.clock.stop()
	return nil
}

func (p *ExecPlayer) Seek(position time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return ErrReleased
	}
	p.clock.seek(position)
	return p.restartLocked()
}

func (p *ExecPlayer) SetRate(rate float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return ErrReleased
	}
	p.clock.setRate(rate)
	return p.restartLocked()
}

func (p *ExecPlayer) Position() time.Duration {
	return p.clock.position()
}

func (p *ExecPlayer) Release() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return ErrReleased
	}
	p.released = true
	p.killLocked()
	p.clock.stop()
	p.removeFileLocked()
	return nil
}

func (p *ExecPlayer) restartLocked() error {
	if p.cmd == nil {
		return nil
	}
	p.killLocked()
	return p.startLocked()
}

func (p *ExecPlayer) startLocked() error {
	p.clock.mu.Lock()
	rate := p.clock.rate
	p.clock.mu.Unlock()

	args := commandArgs(p.name, p.args, p.file, p.clock.position(), rate)
	cmd := exec.Command(p.name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", p.name, err)
	}
	p.gen++
	p.cmd = cmd
	go p.wait(cmd, p.gen)
	return nil
}

func (p *ExecPlayer) killLocked() {
	if p.cmd == nil {
		return
	}
	p.gen++
	_ = p.cmd.Process.Kill()
	p.cmd = nil
}

func (p *ExecPlayer) removeFileLocked() {
	if p.file != "" {
		_ = os.Remove(p.file)
		p.file = ""
	}
}

func (p *ExecPlayer) current(gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.released && gen == p.gen
}

func (p *ExecPlayer) wait(cmd *exec.Cmd, gen uint64) {
	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	ticker := time.NewTicker(DefaultTickInterval)
	defer ticker.Stop()
	for {
		select {
		case err := <-done:
			p.mu.Lock()
			current := !p.released && gen == p.gen
			if current {
				p.cmd = nil
				p.clock.stop()
				if err == nil {
					p.clock.seek(0)
				}
			}
			p.mu.Unlock()
			if !current {
				return
			}
			if err != nil {
				p.events.fail(fmt.Errorf("%s: %w", p.name, err))
				return
			}
			p.events.ended()
			return
		case <-ticker.C:
			if p.current(gen) {
				p.events.timeUpdate(p.clock.position())
			}
		}
	}
}

// commandArgs builds the argument list for known players. Unknown commands
// get the file appended and always start from the beginning at normal speed.
func commandArgs(name string, base []string, file string, offset time.Duration, rate float64) []string {
	args := append([]string(nil), base...)
	seconds := strconv.FormatFloat(offset.Seconds(), 'f', 3, 64)
	speed := strconv.FormatFloat(rate, 'f', -1, 64)

	switch strings.TrimSuffix(filepath.Base(name), ".exe") {
	case "ffplay":
		args = append(args, "-nodisp", "-autoexit", "-loglevel", "quiet")
		if offset > 0 {
			args = append(args, "-ss", seconds)
		}
		if rate != 1 {
			args = append(args, "-af", "atempo="+speed)
		}
	case "mpv":
		args = append(args, "--no-video", "--really-quiet")
		if offset > 0 {
			args = append(args, "--start="+seconds)
		}
		if rate != 1 {
			args = append(args, "--speed="+speed)
		}
	}
	return append(args, file)
}
