package sources

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Kind selects how a source's changelog is retrieved.
type Kind string

const (
	KindMarkdown Kind = "markdown"
	KindHTML     Kind = "html"
	KindGit      Kind = "git"
)

// Entry is one source in the sources file.
type Entry struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	URL    string `yaml:"url"`
	Kind   Kind   `yaml:"kind"`
	Path   string `yaml:"path"`
	Active *bool  `yaml:"active"`
}

// IsActive reports whether the entry is active; entries are active unless
// disabled explicitly.
func (e Entry) IsActive() bool {
	return e.Active == nil || *e.Active
}

type sourcesFile struct {
	Sources []Entry `yaml:"sources"`
}

// ParseEntries decodes and validates a sources file.
func ParseEntries(data []byte) ([]Entry, error) {
	var file sourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing sources file: %w", err)
	}

	seen := make(map[string]bool, len(file.Sources))
	var errs []error
	for i := range file.Sources {
		e := &file.Sources[i]
		e.ID = strings.TrimSpace(e.ID)
		if e.Kind == "" {
			e.Kind = KindMarkdown
		}
		if e.Name == "" {
			e.Name = e.ID
		}
		switch {
		case e.ID == "":
			errs = append(errs, fmt.Errorf("source %d: id is required", i+1))
		case seen[e.ID]:
			errs = append(errs, fmt.Errorf("source %s: duplicate id", e.ID))
		case e.URL == "":
			errs = append(errs, fmt.Errorf("source %s: url is required", e.ID))
		}
		switch e.Kind {
		case KindMarkdown, KindHTML, KindGit:
		default:
			errs = append(errs, fmt.Errorf("source %s: unknown kind %q (valid: markdown, html, git)", e.ID, e.Kind))
		}
		seen[e.ID] = true
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return file.Sources, nil
}

// LoadEntries reads and validates the sources file at path.
func LoadEntries(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sources file: %w", err)
	}
	return ParseEntries(data)
}

// Registry holds entries and their in-memory check state.
type Registry struct {
	mu      sync.RWMutex
	entries []Entry
	state   map[string]checkState
}

type checkState struct {
	lastVersion string
	checkedAt   time.Time
}

// NewRegistry returns a registry over entries.
func NewRegistry(entries []Entry) *Registry {
	return &Registry{entries: entries, state: make(map[string]checkState)}
}

// List returns all sources in file order.
func (r *Registry) List() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]Source, 0, len(r.entries))
	for _, e := range r.entries {
		list = append(list, r.sourceLocked(e))
	}
	return list
}

// Lookup returns the entry and record for id.
func (r *Registry) Lookup(id string) (Entry, Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.ID == id {
			return e, r.sourceLocked(e), true
		}
	}
	return Entry{}, Source{}, false
}

// Record stores the latest version seen for id and returns the previous one
// and whether it changed. An empty version only updates the check time.
func (r *Registry) Record(id, version string, at time.Time) (previous string, changed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.state[id]
	previous = st.lastVersion
	st.checkedAt = at
	if version != "" && version != st.lastVersion {
		st.lastVersion = version
		changed = true
	}
	r.state[id] = st
	return previous, changed
}

func (r *Registry) sourceLocked(e Entry) Source {
	src := Source{ID: e.ID, Name: e.Name, URL: e.URL, IsActive: e.IsActive()}
	if st, ok := r.state[e.ID]; ok {
		if st.lastVersion != "" {
			v := st.lastVersion
			src.LastVersion = &v
		}
		if !st.checkedAt.IsZero() {
			at := st.checkedAt.UTC().Format(time.RFC3339)
			src.LastCheckedAt = &at
		}
	}
	return src
}
