// Package notify sends desktop notifications.
package notify

import "time"

// OutputType represents the notification output type
type OutputType string

const (
	// OutputSound sends only an audible notification
	OutputSound OutputType = "sound"
	// OutputVisual sends only a visual notification
	OutputVisual OutputType = "visual"
	// OutputBoth sends both sound and visual notifications
	OutputBoth OutputType = "both"
)

// ValidOutputType checks if the given string is a valid output type
func ValidOutputType(s string) bool {
	switch OutputType(s) {
	case OutputSound, OutputVisual, OutputBoth:
		return true
	default:
		return false
	}
}

// Config holds notification preferences from the notifications config
// section.
type Config struct {
	Enabled   bool
	Type      OutputType
	SoundFile string
	// Timeout bounds one dispatch. Zero uses DefaultTimeout.
	Timeout time.Duration
}

// DefaultTimeout allows a sound file to play to the end.
const DefaultTimeout = 5 * time.Second

// Notification is a single notification event to dispatch
type Notification struct {
	Title   string
	Message string
}
