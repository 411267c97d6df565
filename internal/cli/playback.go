package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/ariel-frischer/changecast/internal/audio"
	"github.com/ariel-frischer/changecast/internal/prefs"
	"github.com/fatih/color"
	"golang.org/x/term"
)

const (
	seekStep  = 10 * time.Second
	speedStep = 0.25
	minSpeed  = 0.25
)

// playbackWatcher follows controller snapshots. done closes once a session
// that was loaded returns to Idle through end of clip, stop or a player error.
type playbackWatcher struct {
	out    io.Writer
	status bool

	mu     sync.Mutex
	loaded bool
	last   audio.Snapshot
	done   chan struct{}
	once   sync.Once
}

func newPlaybackWatcher(out io.Writer, status bool) *playbackWatcher {
	return &playbackWatcher{out: out, status: status, done: make(chan struct{})}
}

// Observe is passed to audio.WithObserver.
func (w *playbackWatcher) Observe(s audio.Snapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.last = s
	if s.State != audio.Idle {
		w.loaded = true
	}
	if w.status && s.HasSession {
		fmt.Fprintf(w.out, "\r\033[K%s", statusLine(s))
	}
	if w.loaded && s.State == audio.Idle {
		w.once.Do(func() { close(w.done) })
	}
}

// Done is closed when playback finishes.
func (w *playbackWatcher) Done() <-chan struct{} {
	return w.done
}

// Last returns the most recent snapshot.
func (w *playbackWatcher) Last() audio.Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

var stateIcons = map[audio.State]string{
	audio.Idle:    "■",
	audio.Playing: "▶",
	audio.Paused:  "⏸",
}

// statusLine renders "▶ v1.2.3  00:12 / 01:30  1.25x".
func statusLine(s audio.Snapshot) string {
	label := s.Label
	if label == "" {
		label = "-"
	}
	return fmt.Sprintf("%s %s  %s / %s  %sx",
		stateIcons[s.State], label, formatClock(s.Position), formatClock(s.Duration), formatSpeed(s.Speed))
}

func formatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

func formatSpeed(speed float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", speed), "0"), ".")
}

// handleKey applies one keyboard control. It reports true for quit.
func handleKey(ctx context.Context, ctrl *audio.Controller, key byte) (bool, error) {
	snap := ctrl.Snapshot()
	switch key {
	case 'q', 3: // 3 is Ctrl-C in raw mode
		return true, nil
	case ' ', 'p':
		if snap.State == audio.Playing {
			return false, ctrl.Pause()
		}
		return false, ctrl.Play()
	case 's':
		return false, ctrl.Stop()
	case 'l', '.':
		return false, ctrl.Seek(snap.Position + seekStep)
	case 'h', ',':
		return false, ctrl.Seek(snap.Position - seekStep)
	case '0':
		return false, ctrl.Seek(0)
	case '+', '=':
		return false, ctrl.SetSpeed(ctx, min(snap.Speed+speedStep, prefs.MaxSpeed))
	case '-', '_':
		return false, ctrl.SetSpeed(ctx, max(snap.Speed-speedStep, minSpeed))
	}
	return false, nil
}

const keyHelp = "space pause/play · h/l seek ∓10s · +/- speed · s stop · q quit"

// readKeys streams bytes from in until it fails.
func readKeys(in io.Reader) <-chan byte {
	keys := make(chan byte)
	go func() {
		defer close(keys)
		buf := make([]byte, 1)
		for {
			n, err := in.Read(buf)
			if err != nil {
				return
			}
			if n == 1 {
				keys <- buf[0]
			}
		}
	}()
	return keys
}

func isTerminalFd(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// waitForPlayback blocks until playback finishes, the user quits or the
// process is interrupted. keys may be nil. Interrupts and quit stop the
// session. A player failure reported while waiting is returned.
func waitForPlayback(ctx context.Context, ctrl *audio.Controller, watcher *playbackWatcher, keys <-chan byte) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		select {
		case <-watcher.Done():
			return watcher.Last().Err
		case <-ctx.Done():
			return ctrl.Stop()
		case key, ok := <-keys:
			if !ok {
				keys = nil
				continue
			}
			quit, err := handleKey(ctx, ctrl, key)
			if err != nil {
				return err
			}
			if quit {
				return ctrl.Stop()
			}
		}
	}
}

// playInteractive waits for playback with keyboard controls when stdin and
// stdout are terminals, and without them otherwise.
func playInteractive(ctx context.Context, out io.Writer, ctrl *audio.Controller, watcher *playbackWatcher, interactive bool) error {
	if !interactive || !isStdinTerminal() {
		return waitForPlayback(ctx, ctrl, watcher, nil)
	}

	fd := int(os.Stdin.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return waitForPlayback(ctx, ctrl, watcher, nil)
	}
	defer func() {
		_ = term.Restore(fd, state)
		fmt.Fprintln(out)
	}()

	fmt.Fprintf(out, "%s\r\n", color.New(color.Faint).Sprint(keyHelp))
	return waitForPlayback(ctx, ctrl, watcher, readKeys(os.Stdin))
}

var nonSlug = regexp.MustCompile(`[^a-z0-9.]+`)

// downloadName builds "<source>-<latest>-<label>.wav", e.g.
// "claude-code-1.2.3-v1.2.3.wav".
func downloadName(source, latest, label string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{source, latest, label} {
		slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(p), "-"), "-")
		if slug != "" {
			parts = append(parts, slug)
		}
	}
	if len(parts) == 0 {
		parts = append(parts, "audio")
	}
	return strings.Join(parts, "-") + ".wav"
}
