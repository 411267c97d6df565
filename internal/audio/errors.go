package audio

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSession is returned by transport operations before any audio is loaded.
	ErrNoSession = errors.New("no audio loaded")
	// ErrSuperseded is returned to a generation whose result was dropped
	// because a newer request was started.
	ErrSuperseded = errors.New("generation superseded by a newer request")
)

// AudioError is a user-visible audio failure.
type AudioError struct {
	Op    string
	Label string
	Err   error
}

func (e *AudioError) Error() string {
	switch e.Op {
	case "play":
		return fmt.Sprintf("failed to play audio: %v", e.Err)
	case "generate":
		return fmt.Sprintf("failed to generate audio: %v", e.Err)
	default:
		return fmt.Sprintf("audio %s failed: %v", e.Op, e.Err)
	}
}

func (e *AudioError) Unwrap() error {
	return e.Err
}
