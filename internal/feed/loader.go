package feed

import (
	"context"
	"log/slog"
	"time"

	"github.com/ariel-frischer/changecast/internal/analysis"
	"github.com/ariel-frischer/changecast/internal/changelog"
	"github.com/ariel-frischer/changecast/internal/logging"
	"github.com/ariel-frischer/changecast/internal/sources"
)

// Analyzer is the cache-first analysis service.
type Analyzer interface {
	Analyze(ctx context.Context, versions []changelog.Version) (*analysis.Result, error)
}

// Selection persists the selected registry source.
type Selection interface {
	SelectedSourceID(ctx context.Context) (string, error)
	SetSelectedSourceID(ctx context.Context, id string) error
}

// Result is one load of the changelog.
type Result struct {
	Markdown           string
	Versions           []changelog.Version
	Analysis           *analysis.Result
	LatestVersion      string
	FetchedAt          time.Time
	Sources            []sources.Source
	SelectedSourceID   string
	SelectedSourceName string
}

// Loader loads and parses the changelog.
type Loader struct {
	fallback  URLOrigin
	fixed     Origin
	registry  *sources.Client
	selection Selection
	analyzer  Analyzer
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Loader.
type Option func(*Loader)

// WithOrigin pins the loader to origin, bypassing source selection.
func WithOrigin(origin Origin) Option {
	return func(l *Loader) {
		l.fixed = origin
	}
}

// WithRegistry enables registry sources.
func WithRegistry(client *sources.Client) Option {
	return func(l *Loader) {
		l.registry = client
	}
}

// WithSelection reads the selected source from s.
func WithSelection(s Selection) Option {
	return func(l *Loader) {
		l.selection = s
	}
}

// WithAnalyzer attaches analysis to each load.
func WithAnalyzer(a Analyzer) Option {
	return func(l *Loader) {
		l.analyzer = a
	}
}

// WithLogger sets the loader logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithClock replaces time.Now for FetchedAt.
func WithClock(now func() time.Time) Option {
	return func(l *Loader) {
		l.now = now
	}
}

// NewLoader returns a loader that falls back to the default changelog URL.
func NewLoader(fallback URLOrigin, opts ...Option) *Loader {
	l := &Loader{
		fallback: fallback,
		logger:   logging.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Loader) selectedID(ctx context.Context) string {
	if l.selection == nil || l.registry == nil {
		return ""
	}
	id, err := l.selection.SelectedSourceID(ctx)
	if err != nil {
		l.logger.Warn("failed to read selected source", logging.Error(err))
		return ""
	}
	return id
}

func (l *Loader) origin(selected string) Origin {
	switch {
	case l.fixed != nil:
		return l.fixed
	case selected != "":
		return RegistryOrigin{Client: l.registry, SourceID: selected}
	default:
		return l.fallback
	}
}

// Load fetches and parses the changelog. A fetch failure is returned; a
// failed analysis or source list is logged and left empty.
func (l *Loader) Load(ctx context.Context) (*Result, error) {
	selected := ""
	if l.fixed == nil {
		selected = l.selectedID(ctx)
	}

	doc, err := l.origin(selected).Load(ctx)
	if err != nil {
		return nil, err
	}

	versions := changelog.Parse(doc.Markdown, doc.SourceID, doc.SourceName)
	result := &Result{
		Markdown:         doc.Markdown,
		Versions:         versions,
		LatestVersion:    changelog.LatestVersion(versions),
		FetchedAt:        l.now(),
		Sources:          []sources.Source{},
		SelectedSourceID: selected,
	}

	if l.analyzer != nil && len(versions) > 0 {
		a, err := l.analyzer.Analyze(ctx, versions)
		if err != nil {
			l.logger.Warn("analysis unavailable", logging.Error(err))
		} else {
			result.Analysis = a
		}
	}

	if l.registry != nil {
		list, err := l.registry.List(ctx)
		if err != nil {
			l.logger.Warn("failed to refresh sources", logging.Error(err))
		} else {
			result.Sources = list
		}
	}

	result.SelectedSourceName = doc.SourceName
	for _, s := range result.Sources {
		if s.ID == selected {
			result.SelectedSourceName = s.Name
		}
	}
	if result.SelectedSourceName == "" {
		result.SelectedSourceName = l.fallback.Name
	}
	return result, nil
}

// SelectSource persists id as the selected source; "" returns to the
// default changelog.
func (l *Loader) SelectSource(ctx context.Context, id string) error {
	if l.selection == nil {
		return nil
	}
	return l.selection.SetSelectedSourceID(ctx, id)
}

// Sources lists registry sources, or none when no registry is configured.
func (l *Loader) Sources(ctx context.Context) ([]sources.Source, error) {
	if l.registry == nil {
		return []sources.Source{}, nil
	}
	return l.registry.List(ctx)
}
