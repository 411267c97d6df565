package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

// Spinner wraps briandowns/spinner. On a non-terminal it prints nothing
// while running and a single completion line when stopped.
type Spinner struct {
	out     io.Writer
	caps    TerminalCapabilities
	symbols ProgressSymbols
	sp      *spinner.Spinner
	message string
}

// NewSpinner creates a spinner writing to out.
func NewSpinner(out io.Writer, caps TerminalCapabilities) *Spinner {
	s := &Spinner{
		out:     out,
		caps:    caps,
		symbols: SelectSymbols(caps),
	}
	if caps.IsTTY {
		s.sp = spinner.New(spinner.CharSets[s.symbols.SpinnerSet], 100*time.Millisecond, spinner.WithWriter(out))
		if caps.SupportsColor {
			_ = s.sp.Color("cyan")
		}
	}
	return s
}

// Start shows message next to the spinner.
func (s *Spinner) Start(message string) {
	s.message = message
	if s.sp == nil {
		return
	}
	s.sp.Suffix = " " + message
	s.sp.Start()
}

// Update replaces the message of a running spinner.
func (s *Spinner) Update(message string) {
	s.message = message
	if s.sp != nil {
		s.sp.Suffix = " " + message
	}
}

// Success stops the spinner and prints a check mark with message.
func (s *Spinner) Success(message string) {
	s.finish(s.symbols.Checkmark, color.FgGreen, message)
}

// Fail stops the spinner and prints a failure mark with message.
func (s *Spinner) Fail(message string) {
	s.finish(s.symbols.Failure, color.FgRed, message)
}

// Stop halts the spinner without printing a completion line.
func (s *Spinner) Stop() {
	if s.sp != nil {
		s.sp.Stop()
	}
}

func (s *Spinner) finish(mark string, attr color.Attribute, message string) {
	s.Stop()
	if message == "" {
		message = s.message
	}
	if s.caps.SupportsColor {
		mark = color.New(attr).Sprint(mark)
	}
	fmt.Fprintf(s.out, "%s %s\n", mark, message)
}

// Run executes fn with a spinner showing message and reports success or
// failure with the same message.
func Run(out io.Writer, caps TerminalCapabilities, message string, fn func() error) error {
	s := NewSpinner(out, caps)
	s.Start(message)
	if err := fn(); err != nil {
		s.Fail(message)
		return err
	}
	s.Stop()
	return nil
}
