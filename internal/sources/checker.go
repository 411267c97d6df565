package sources

import (
	"context"
	"log/slog"
	"time"

	"github.com/ariel-frischer/changecast/internal/changelog"
	"github.com/ariel-frischer/changecast/internal/logging"
)

// Checker refreshes active sources and reports latest-version changes.
type Checker struct {
	registry  *Registry
	retriever Retriever
	logger    *slog.Logger
	notify    func(UpdateEvent)
	now       func() time.Time
}

// NewChecker returns a checker that calls notify for each version change.
func NewChecker(registry *Registry, retriever Retriever, notify func(UpdateEvent), logger *slog.Logger) *Checker {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notify == nil {
		notify = func(UpdateEvent) {}
	}
	return &Checker{
		registry:  registry,
		retriever: retriever,
		logger:    logger,
		notify:    notify,
		now:       time.Now,
	}
}

// Observe records the latest version parsed from markdown for e and
// notifies when it differs from the previous check. The first observation
// of a source establishes the baseline without notifying.
func (c *Checker) Observe(e Entry, markdown string) {
	latest := ""
	if versions := changelog.Parse(markdown, e.ID, e.Name); len(versions) > 0 {
		latest = versions[0].Version
	}
	at := c.now()
	previous, changed := c.registry.Record(e.ID, latest, at)
	if !changed || previous == "" {
		return
	}

	c.logger.Info("source has a new version",
		logging.String("source", e.Name),
		logging.String("previous", previous),
		logging.String("latest", latest),
	)
	c.notify(UpdateEvent{
		Type:            EventVersionChanged,
		SourceID:        e.ID,
		SourceName:      e.Name,
		PreviousVersion: previous,
		LatestVersion:   latest,
		CheckedAt:       at.UTC().Format(time.RFC3339),
	})
}

// CheckOnce refreshes every active source. Failures are logged and the
// source keeps its previous state.
func (c *Checker) CheckOnce(ctx context.Context) {
	for _, src := range c.registry.List() {
		if !src.IsActive {
			continue
		}
		entry, _, ok := c.registry.Lookup(src.ID)
		if !ok {
			continue
		}
		markdown, err := c.retriever.Retrieve(ctx, entry)
		if err != nil {
			c.logger.Warn("source check failed",
				logging.String("source", entry.Name),
				logging.Error(err),
			)
			continue
		}
		c.Observe(entry, markdown)
	}
}

// Run checks immediately and then every interval until ctx is done. A
// non-positive interval checks once.
func (c *Checker) Run(ctx context.Context, interval time.Duration) {
	c.CheckOnce(ctx)
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CheckOnce(ctx)
		}
	}
}
