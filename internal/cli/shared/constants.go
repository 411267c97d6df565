// Package shared provides constants and types used across CLI subpackages.
package shared

import (
	"errors"
	"fmt"
)

// Exit codes for the changecast CLI.
// These codes support programmatic composition and CI/CD integration.
const (
	// ExitSuccess indicates successful command execution
	ExitSuccess = 0

	// ExitFailure indicates a general runtime failure
	ExitFailure = 1

	// ExitFetchFailed indicates the changelog or registry could not be fetched after retries
	ExitFetchFailed = 2

	// ExitInvalidArguments indicates invalid command arguments
	ExitInvalidArguments = 3

	// ExitMissingDependency indicates a missing API key or player command
	ExitMissingDependency = 4

	// ExitAudioFailed indicates speech generation or playback failed
	ExitAudioFailed = 5
)

// Command group IDs for the root help output.
const (
	GroupGettingStarted = "getting-started"
	GroupReading        = "reading"
	GroupListening      = "listening"
	GroupSources        = "sources"
	GroupConfiguration  = "configuration"
)

// ExitError carries a process exit code through cobra's error return.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// NewExitError returns an error that makes the CLI exit with code.
func NewExitError(code int) error {
	return &ExitError{Code: code}
}

// ExitCode extracts the exit code from err.
// nil maps to ExitSuccess and any other error to ExitFailure.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}
