// Package sources implements the changelog sources registry: a REST client
// for it, a gin server that serves it from a YAML source list, and a checker
// that pushes version changes to websocket subscribers.
package sources

// Source is a registry record.
type Source struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	URL           string  `json:"url"`
	IsActive      bool    `json:"is_active"`
	LastVersion   *string `json:"last_version"`
	LastCheckedAt *string `json:"last_checked_at"`
}

// ChangelogResponse is the body of GET /api/sources/{id}/changelog.
type ChangelogResponse struct {
	Markdown string `json:"markdown"`
	Source   Source `json:"source"`
}

// SourceChangelog is one active source's markdown.
type SourceChangelog struct {
	SourceID   string
	SourceName string
	Markdown   string
}

// UpdateEvent is broadcast on /ws/updates when a source's latest version
// changes.
type UpdateEvent struct {
	Type            string `json:"type"`
	SourceID        string `json:"source_id"`
	SourceName      string `json:"source_name"`
	PreviousVersion string `json:"previous_version,omitempty"`
	LatestVersion   string `json:"latest_version"`
	CheckedAt       string `json:"checked_at"`
}

// EventVersionChanged is the UpdateEvent type for a new latest version.
const EventVersionChanged = "version_changed"

// Active returns the active sources in list order.
func Active(list []Source) []Source {
	active := make([]Source, 0, len(list))
	for _, s := range list {
		if s.IsActive {
			active = append(active, s)
		}
	}
	return active
}
