package notify

import (
	"context"
	"os/exec"
	"runtime"
)

// Sender delivers notifications to the operating system.
type Sender interface {
	// SendVisual shows n in the OS notification area.
	SendVisual(ctx context.Context, n Notification) error
	// SendSound plays soundFile, or the system sound when it is empty.
	SendSound(ctx context.Context, soundFile string) error
}

// NewSender returns the sender for the current OS. Platforms without a
// known notification tool get a no-op sender.
func NewSender() Sender {
	switch runtime.GOOS {
	case "darwin":
		return &commandSender{
			visual: func(n Notification) []string {
				script := `display notification ` + appleQuote(n.Message) + ` with title ` + appleQuote(n.Title)
				return []string{"osascript", "-e", script}
			},
			sound: func(file string) []string {
				if file == "" {
					file = "/System/Library/Sounds/Glass.aiff"
				}
				return []string{"afplay", file}
			},
		}
	case "linux":
		return &commandSender{
			visual: func(n Notification) []string {
				return []string{"notify-send", "--app-name=changecast", n.Title, n.Message}
			},
			sound: func(file string) []string {
				if file == "" {
					file = "/usr/share/sounds/freedesktop/stereo/complete.oga"
				}
				return []string{"paplay", file}
			},
		}
	default:
		return noopSender{}
	}
}

// commandSender runs a command line per notification. A missing tool is
// not an error.
type commandSender struct {
	visual func(Notification) []string
	sound  func(string) []string
}

func (s *commandSender) SendVisual(ctx context.Context, n Notification) error {
	return run(ctx, s.visual(n))
}

func (s *commandSender) SendSound(ctx context.Context, soundFile string) error {
	return run(ctx, s.sound(soundFile))
}

func run(ctx context.Context, argv []string) error {
	if !toolAvailable(argv[0]) {
		return nil
	}
	return exec.CommandContext(ctx, argv[0], argv[1:]...).Run()
}

// toolAvailable checks if a command-line tool is available in PATH
func toolAvailable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func appleQuote(s string) string {
	out := make([]rune, 0, len(s)+2)
	out = append(out, '"')
	for _, r := range s {
		if r == '"' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(append(out, '"'))
}

type noopSender struct{}

func (noopSender) SendVisual(context.Context, Notification) error { return nil }
func (noopSender) SendSound(context.Context, string) error        { return nil }
