package changelog

import (
	"strings"
)

// DigestVersions is how many of the newest versions feed the analysis digest.
const DigestVersions = 3

// AnalysisDigest renders the first n versions as
//
//	## <version>
//	- <item>
//
// joined by blank lines. Its hash keys the analysis cache, so the format must
// stay stable.
func AnalysisDigest(versions []Version, n int) string {
	head := Head(versions, n)
	sections := make([]string, len(head))
	for i, v := range head {
		lines := make([]string, 0, len(v.Items)+1)
		lines = append(lines, "## "+v.Version)
		for _, item := range v.Items {
			lines = append(lines, "- "+item.Content)
		}
		sections[i] = strings.Join(lines, "\n")
	}
	return strings.Join(sections, "\n\n")
}

// SpeechLabel is the spoken name of an item type.
func SpeechLabel(t ItemType) string {
	switch t {
	case TypeFeature:
		return "New feature"
	case TypeFix:
		return "Bug fix"
	case TypeRemoval:
		return "Removal"
	case TypeBreaking:
		return "Breaking change"
	default:
		return "Update"
	}
}

// SpeechText is the narration for a version:
// "Version 1.2.3, released 2024-01-01. Changes include: Bug fix: ...".
func SpeechText(v Version) string {
	var sb strings.Builder
	sb.WriteString("Version ")
	sb.WriteString(v.Version)
	if v.Date != "" {
		sb.WriteString(", released ")
		sb.WriteString(v.Date)
	}
	sb.WriteString(". Changes include: ")

	items := make([]string, len(v.Items))
	for i, item := range v.Items {
		items[i] = SpeechLabel(item.Type) + ": " + item.Content
	}
	sb.WriteString(strings.Join(items, ". "))
	return sb.String()
}

// AudioLabel identifies the clip generated for a version.
func AudioLabel(v Version) string {
	return "v" + v.Version
}
