package shared

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// GetTerminalWidth returns the terminal width, defaulting to 80 if unavailable.
func GetTerminalWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return 80
}

// CenterText pads text with leading spaces to center it within width.
func CenterText(text string, width int) string {
	pad := (width - len([]rune(text))) / 2
	if pad <= 0 {
		return text
	}
	return strings.Repeat(" ", pad) + text
}

// Tagline is printed under the version banner.
const Tagline = "changelog digests, analysis and spoken summaries"
