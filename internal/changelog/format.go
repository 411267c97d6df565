package changelog

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// TypeStyle defines the color and icon for an item type.
type TypeStyle struct {
	Color *color.Color
	Icon  string
}

// Palette maps item types to styles.
type Palette map[ItemType]TypeStyle

// lightPalette uses standard colors, readable on light backgrounds.
var lightPalette = Palette{
	TypeFeature:  {Color: color.New(color.FgGreen), Icon: "✨"},
	TypeFix:      {Color: color.New(color.FgBlue), Icon: "🔧"},
	TypeRemoval:  {Color: color.New(color.FgYellow), Icon: "⚠️"},
	TypeBreaking: {Color: color.New(color.FgRed, color.Bold), Icon: "🚨"},
	TypeOther:    {Color: color.New(color.Reset), Icon: "•"},
}

// darkPalette uses high-intensity colors for dark backgrounds.
var darkPalette = Palette{
	TypeFeature:  {Color: color.New(color.FgHiGreen), Icon: "✨"},
	TypeFix:      {Color: color.New(color.FgHiCyan), Icon: "🔧"},
	TypeRemoval:  {Color: color.New(color.FgHiYellow), Icon: "⚠️"},
	TypeBreaking: {Color: color.New(color.FgHiRed, color.Bold), Icon: "🚨"},
	TypeOther:    {Color: color.New(color.FgHiWhite), Icon: "•"},
}

// PaletteFor returns the palette for a theme name ("light" or "dark").
func PaletteFor(theme string) Palette {
	if theme == "dark" {
		return darkPalette
	}
	return lightPalette
}

// FormatOptions controls the terminal output formatting.
type FormatOptions struct {
	Plain      bool   // Disable colors and icons
	MaxWidth   int    // Maximum line width (0 = auto-detect)
	Theme      string // light | dark
	ShowSource bool   // Append the source name to version headers
	ShowCounts bool   // Print per-type counts under each header
}

// FormatTerminal writes versions to w with terminal styling.
func FormatTerminal(versions []Version, w io.Writer, opts FormatOptions) error {
	width := resolveWidth(opts.MaxWidth)
	palette := PaletteFor(opts.Theme)

	for i := range versions {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if err := formatVersion(&versions[i], w, opts, palette, width); err != nil {
			return fmt.Errorf("formatting version %s: %w", versions[i].Version, err)
		}
	}
	return nil
}

// FormatVersion writes a single version to w.
func FormatVersion(v *Version, w io.Writer, opts FormatOptions) error {
	return formatVersion(v, w, opts, PaletteFor(opts.Theme), resolveWidth(opts.MaxWidth))
}

func formatVersion(v *Version, w io.Writer, opts FormatOptions, palette Palette, width int) error {
	if err := writeVersionHeader(v, w, opts); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if opts.ShowCounts && len(v.Items) > 0 {
		if _, err := fmt.Fprintln(w, FormatCounts(v.Counts(), palette, opts.Plain)); err != nil {
			return err
		}
	}
	for _, item := range v.Items {
		if err := writeItem(item, palette[item.Type], w, opts, width); err != nil {
			return err
		}
	}
	return nil
}

// writeVersionHeader writes the version header line.
func writeVersionHeader(v *Version, w io.Writer, opts FormatOptions) error {
	header := "v" + v.Version
	if v.Date != "" {
		header = fmt.Sprintf("v%s (%s)", v.Version, v.Date)
	}
	if opts.ShowSource && v.SourceName != "" {
		header += " · " + v.SourceName
	}

	if opts.Plain {
		_, err := fmt.Fprintf(w, "## %s\n", header)
		return err
	}

	bold := color.New(color.Bold).SprintFunc()
	_, err := fmt.Fprintf(w, "## %s\n", bold(header))
	return err
}

// itemPrefixWidth is the display width of "  <icon> "; icons occupy two cells.
const itemPrefixWidth = 5

// writeItem writes a single item with optional wrapping.
func writeItem(item Item, style TypeStyle, w io.Writer, opts FormatOptions, width int) error {
	if opts.Plain {
		_, err := fmt.Fprintf(w, "  - [%s] %s\n", item.Type, item.Content)
		return err
	}

	prefix := "  " + style.Icon + " "
	wrapped := wrapText(item.Content, width-itemPrefixWidth, "     ")

	colored := style.Color.SprintFunc()
	_, err := fmt.Fprintf(w, "%s%s\n", prefix, colored(wrapped))
	return err
}

// FormatCounts returns a one-line tally such as "2 feature · 1 fix".
func FormatCounts(c Counts, palette Palette, plain bool) string {
	var parts []string
	for _, t := range ItemTypes() {
		n := c[t]
		if n == 0 {
			continue
		}
		part := fmt.Sprintf("%d %s", n, t)
		if !plain {
			part = palette[t].Color.Sprint(part)
		}
		parts = append(parts, part)
	}
	return "  " + strings.Join(parts, " · ")
}

// resolveWidth determines the terminal width to use.
func resolveWidth(maxWidth int) int {
	if maxWidth > 0 {
		return maxWidth
	}
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

// wrapText wraps text to fit within maxWidth, using indent for continuation lines.
func wrapText(text string, maxWidth int, indent string) string {
	if maxWidth <= 0 || len(text) <= maxWidth {
		return text
	}

	var lines []string
	remaining := text

	for len(remaining) > maxWidth {
		breakPoint := maxWidth
		for i := maxWidth - 1; i > 0; i-- {
			if remaining[i] == ' ' {
				breakPoint = i
				break
			}
		}

		lines = append(lines, remaining[:breakPoint])
		remaining = strings.TrimLeft(remaining[breakPoint:], " ")
	}

	if len(remaining) > 0 {
		lines = append(lines, remaining)
	}

	return strings.Join(lines, "\n"+indent)
}

// TruncateText truncates text to maxLen runes, adding an ellipsis if needed.
func TruncateText(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen || maxLen < 4 {
		return text
	}
	return string(runes[:maxLen-3]) + "..."
}
