package changelog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gocolly/colly/v2"
)

// ErrNoHTMLVersions is returned when a page has no h2 headings to convert.
var ErrNoHTMLVersions = errors.New("page contains no h2 headings")

// HTMLToMarkdown visits an HTML release-notes page and converts it into the
// markdown shape Parse understands: each h2 becomes a "## " line and each li
// a "- " line, in document order.
func HTMLToMarkdown(ctx context.Context, url, userAgent string) (string, error) {
	c := colly.NewCollector(colly.StdlibContext(ctx))
	if userAgent != "" {
		c.UserAgent = userAgent
	}

	var (
		lines    []string
		headings int
		visitErr error
	)

	c.OnError(func(r *colly.Response, err error) {
		visitErr = fmt.Errorf("fetch %s: status %d: %w", r.Request.URL, r.StatusCode, err)
	})

	c.OnHTML("h2, li", func(e *colly.HTMLElement) {
		text := collapseSpace(e.Text)
		if text == "" {
			return
		}
		switch e.Name {
		case "h2":
			headings++
			lines = append(lines, "", "## "+text)
		case "li":
			lines = append(lines, "- "+text)
		}
	})

	if err := c.Visit(url); err != nil {
		if visitErr != nil {
			return "", visitErr
		}
		return "", fmt.Errorf("visit %s: %w", url, err)
	}
	c.Wait()

	if visitErr != nil {
		return "", visitErr
	}
	if headings == 0 {
		return "", ErrNoHTMLVersions
	}
	return strings.TrimLeft(strings.Join(lines, "\n"), "\n") + "\n", nil
}

// collapseSpace joins whitespace runs, including newlines, into single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
