package sources

import (
	"context"
	"fmt"

	"github.com/ariel-frischer/changecast/internal/build"
	"github.com/ariel-frischer/changecast/internal/changelog"
	"github.com/ariel-frischer/changecast/internal/fetch"
	"github.com/ariel-frischer/changecast/internal/git"
)

// Retriever loads the markdown for a registry entry.
type Retriever interface {
	Retrieve(ctx context.Context, e Entry) (string, error)
}

// KindRetriever dispatches on Entry.Kind: markdown URLs go through the
// retrying fetch layer, html pages through colly, git through go-git.
type KindRetriever struct {
	Fetcher     *fetch.Client
	MaxAttempts int
}

func (k KindRetriever) Retrieve(ctx context.Context, e Entry) (string, error) {
	switch e.Kind {
	case KindHTML:
		return changelog.HTMLToMarkdown(ctx, e.URL, build.UserAgent())
	case KindGit:
		data, _, err := git.HeadFile(e.URL, e.Path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	case KindMarkdown, "":
		fetcher := k.Fetcher
		if fetcher == nil {
			fetcher = fetch.NewClient()
		}
		attempts := k.MaxAttempts
		if attempts <= 0 {
			attempts = fetch.DefaultMaxAttempts
		}
		body, err := fetcher.GetWithRetry(ctx, e.URL, attempts)
		if err != nil {
			return "", err
		}
		return string(body), nil
	default:
		return "", fmt.Errorf("unknown source kind %q", e.Kind)
	}
}
