package changelog

import (
	"fmt"
	"io"
	"regexp"
	"strings"
)

// versionHeader matches "## 1.2.3", "## [1.2.3-beta.1]" and "## 1.2.3 - 2024-01-01"
// (hyphen or en dash). Group 1 is the version, group 2 the date.
var versionHeader = regexp.MustCompile(`^##\s+\[?(\d+\.\d+\.\d+(?:-[a-zA-Z0-9.]+)?)\]?(?:\s*[-–]\s*(.+))?`)

// Parse scans markdown line by line and returns the versions in document order.
// Every returned version carries sourceID and sourceName.
func Parse(markdown, sourceID, sourceName string) []Version {
	var (
		versions []Version
		current  *Version
	)

	for _, line := range strings.Split(markdown, "\n") {
		if m := versionHeader.FindStringSubmatch(line); m != nil {
			if current != nil {
				versions = append(versions, *current)
			}
			current = &Version{
				Version:    m[1],
				Date:       strings.TrimSpace(m[2]),
				Items:      []Item{},
				SourceID:   sourceID,
				SourceName: sourceName,
			}
			continue
		}

		if current == nil {
			continue
		}
		if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") {
			content := strings.TrimSpace(line[2:])
			current.Items = append(current.Items, Item{
				Type:    Categorize(content),
				Content: content,
			})
		}
	}

	if current != nil {
		versions = append(versions, *current)
	}
	return versions
}

// ParseReader reads all of r and parses it.
func ParseReader(r io.Reader, sourceID, sourceName string) ([]Version, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading changelog: %w", err)
	}
	return Parse(string(data), sourceID, sourceName), nil
}

// Categorize assigns a type to item content by case-insensitive keyword
// search. The first matching rule wins:
//
//	breaking: "breaking", or both "removed" and "support"
//	removal:  "removed", "deprecated", "no longer"
//	fix:      "fix", "bug", "issue"
//	feature:  "add", "new", "feature", "support"
func Categorize(content string) ItemType {
	lower := strings.ToLower(content)
	has := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(lower, w) {
				return true
			}
		}
		return false
	}

	switch {
	case has("breaking") || (has("removed") && has("support")):
		return TypeBreaking
	case has("removed", "deprecated", "no longer"):
		return TypeRemoval
	case has("fix", "bug", "issue"):
		return TypeFix
	case has("add", "new", "feature", "support"):
		return TypeFeature
	default:
		return TypeOther
	}
}
