package changelog

import (
	"fmt"
	"io"
	"strings"
)

// RenderMarkdown writes versions back out as markdown that Parse reads into
// the same versions. Dates are emitted with a " - " separator.
func RenderMarkdown(versions []Version, w io.Writer) error {
	for i := range versions {
		if err := renderVersion(&versions[i], w, i == 0); err != nil {
			return fmt.Errorf("rendering version %s: %w", versions[i].Version, err)
		}
	}
	return nil
}

// RenderMarkdownString is a convenience function that renders to a string.
func RenderMarkdownString(versions []Version) (string, error) {
	var b strings.Builder
	if err := RenderMarkdown(versions, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}

// renderVersion writes a single version section with all its items.
func renderVersion(v *Version, w io.Writer, isFirst bool) error {
	if !isFirst {
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w, formatVersionHeader(v)+"\n\n"); err != nil {
		return err
	}
	for _, item := range v.Items {
		if _, err := io.WriteString(w, "- "+item.Content+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// formatVersionHeader formats the version header line.
func formatVersionHeader(v *Version) string {
	if v.Date == "" {
		return "## " + v.Version
	}
	return fmt.Sprintf("## %s - %s", v.Version, v.Date)
}
