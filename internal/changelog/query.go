package changelog

import (
	"fmt"
	"strings"
)

// UnknownVersion is reported as the latest version of an empty changelog.
const UnknownVersion = "Unknown"

// VersionNotFoundError is returned when a requested version doesn't exist.
type VersionNotFoundError struct {
	Version           string
	AvailableVersions []string
}

func (e *VersionNotFoundError) Error() string {
	return fmt.Sprintf("version %q not found (available: %s)",
		e.Version, strings.Join(e.AvailableVersions, ", "))
}

// NormalizeVersion strips surrounding whitespace and a leading "v".
func NormalizeVersion(version string) string {
	v := strings.TrimSpace(version)
	if len(v) > 1 && (v[0] == 'v' || v[0] == 'V') && v[1] >= '0' && v[1] <= '9' {
		return v[1:]
	}
	return v
}

// FindVersion returns the first version matching version.
// Accepts both "v1.0.6" and "1.0.6".
func FindVersion(versions []Version, version string) (*Version, error) {
	normalized := NormalizeVersion(version)
	for i := range versions {
		if versions[i].Version == normalized {
			return &versions[i], nil
		}
	}
	return nil, &VersionNotFoundError{
		Version:           version,
		AvailableVersions: ListVersions(versions),
	}
}

// ListVersions returns the version identifiers in document order.
func ListVersions(versions []Version) []string {
	out := make([]string, len(versions))
	for i, v := range versions {
		out[i] = v.Version
	}
	return out
}

// LatestVersion returns the first version, or "Unknown" when there is none.
func LatestVersion(versions []Version) string {
	if len(versions) == 0 {
		return UnknownVersion
	}
	return versions[0].Version
}

// Head returns at most the first n versions.
func Head(versions []Version, n int) []Version {
	if n <= 0 {
		return []Version{}
	}
	if len(versions) <= n {
		return versions
	}
	return versions[:n]
}

// FilterByType returns copies of versions keeping only items of the given
// types. Versions left without items are dropped.
func FilterByType(versions []Version, types ...ItemType) []Version {
	if len(types) == 0 {
		return versions
	}
	want := make(map[ItemType]bool, len(types))
	for _, t := range types {
		want[t] = true
	}

	var out []Version
	for _, v := range versions {
		filtered := v
		filtered.Items = nil
		for _, item := range v.Items {
			if want[item.Type] {
				filtered.Items = append(filtered.Items, item)
			}
		}
		if len(filtered.Items) > 0 {
			out = append(out, filtered)
		}
	}
	return out
}

// ParseItemType validates an item type name.
func ParseItemType(s string) (ItemType, error) {
	for _, t := range ItemTypes() {
		if string(t) == strings.ToLower(strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown item type %q", s)
}
