// Package output provides terminal output formatting utilities for the changecast CLI.
// This package is designed to have minimal dependencies to avoid import cycles.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// PrintSectionHeader prints a dim rule with a cyan title, e.g. "---- TL;DR ----".
func PrintSectionHeader(out io.Writer, title string) {
	line := strings.Repeat("─", 4)
	dim := color.New(color.Faint).SprintFunc()
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Fprintf(out, "\n%s %s %s\n", dim(line), cyan(title), dim(line))
}

// PrintSuccess prints a green checkmark followed by message.
func PrintSuccess(out io.Writer, message string) {
	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	fmt.Fprintf(out, "%s %s\n", green("✓"), message)
}

// PrintWarning prints a yellow warning line.
func PrintWarning(out io.Writer, message string) {
	yellow := color.New(color.FgYellow).SprintFunc()
	fmt.Fprintf(out, "%s %s\n", yellow("!"), message)
}

// PrintBullets prints each item as an indented bullet. Nothing is printed
// for an empty list.
func PrintBullets(out io.Writer, items []string) {
	for _, item := range items {
		fmt.Fprintf(out, "  • %s\n", item)
	}
}

// PrintKeyValue prints an aligned "label: value" line.
func PrintKeyValue(out io.Writer, label, value string) {
	yellow := color.New(color.FgYellow).SprintFunc()
	fmt.Fprintf(out, "%s %s\n", yellow(fmt.Sprintf("%-16s", label+":")), value)
}
