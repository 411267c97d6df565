// Package shared_test tests shared constants and types used across CLI subpackages.
// Related: internal/cli/shared/constants.go
// Tags: cli, shared, constants, exit-codes, errors

package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCodeConstants(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		constant int
		want     int
	}{
		"ExitSuccess":           {constant: ExitSuccess, want: 0},
		"ExitFailure":           {constant: ExitFailure, want: 1},
		"ExitFetchFailed":       {constant: ExitFetchFailed, want: 2},
		"ExitInvalidArguments":  {constant: ExitInvalidArguments, want: 3},
		"ExitMissingDependency": {constant: ExitMissingDependency, want: 4},
		"ExitAudioFailed":       {constant: ExitAudioFailed, want: 5},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, tc.constant)
		})
	}
}

func TestGroupConstants(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		constant string
		want     string
	}{
		"GroupGettingStarted": {constant: GroupGettingStarted, want: "getting-started"},
		"GroupReading":        {constant: GroupReading, want: "reading"},
		"GroupListening":      {constant: GroupListening, want: "listening"},
		"GroupSources":        {constant: GroupSources, want: "sources"},
		"GroupConfiguration":  {constant: GroupConfiguration, want: "configuration"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, tc.constant)
		})
	}
}

func TestExitError_Error(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		code        int
		wantMessage string
	}{
		"exit code 0": {code: 0, wantMessage: "exit code 0"},
		"exit code 2": {code: 2, wantMessage: "exit code 2"},
		"exit code 5": {code: 5, wantMessage: "exit code 5"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := NewExitError(tc.code)
			assert.Equal(t, tc.wantMessage, err.Error())
		})
	}
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err  error
		want int
	}{
		"nil error":          {err: nil, want: ExitSuccess},
		"exit error code 0":  {err: NewExitError(0), want: 0},
		"exit error code 2":  {err: NewExitError(2), want: 2},
		"exit error code 4":  {err: NewExitError(4), want: 4},
		"generic error":      {err: errors.New("generic error"), want: ExitFailure},
		"wrapped exit error": {err: fmt.Errorf("speak: %w", NewExitError(ExitAudioFailed)), want: ExitAudioFailed},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, ExitCode(tc.err))
		})
	}
}

func TestExitCodeUniqueness(t *testing.T) {
	t.Parallel()

	codes := []int{
		ExitSuccess,
		ExitFailure,
		ExitFetchFailed,
		ExitInvalidArguments,
		ExitMissingDependency,
		ExitAudioFailed,
	}
	seen := make(map[int]bool)
	for _, c := range codes {
		assert.False(t, seen[c], "duplicate exit code %d", c)
		seen[c] = true
	}
}

func TestCenterText(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		text  string
		width int
		want  string
	}{
		"pads":         {text: "ab", width: 6, want: "  ab"},
		"too wide":     {text: "abcdef", width: 4, want: "abcdef"},
		"exact fit":    {text: "abcd", width: 4, want: "abcd"},
		"counts runes": {text: "✓✓", width: 4, want: " ✓✓"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, CenterText(tc.text, tc.width))
		})
	}
}
