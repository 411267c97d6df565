// Package feed loads a changelog from its configured origin, parses it and
// attaches the cached analysis and the registry source list.
package feed

import (
	"context"
	"fmt"
	"os"

	"github.com/ariel-frischer/changecast/internal/build"
	"github.com/ariel-frischer/changecast/internal/changelog"
	"github.com/ariel-frischer/changecast/internal/fetch"
	"github.com/ariel-frischer/changecast/internal/git"
	"github.com/ariel-frischer/changecast/internal/sources"
)

// Document is raw changelog markdown with its attribution.
type Document struct {
	Markdown   string
	SourceID   string
	SourceName string
}

// Origin produces a changelog document.
type Origin interface {
	Load(ctx context.Context) (Document, error)
}

// URLOrigin fetches markdown from a URL with retry and backoff.
type URLOrigin struct {
	URL         string
	Name        string
	Fetcher     *fetch.Client
	MaxAttempts int
}

func (o URLOrigin) Load(ctx context.Context) (Document, error) {
	fetcher := o.Fetcher
	if fetcher == nil {
		fetcher = fetch.NewClient()
	}
	attempts := o.MaxAttempts
	if attempts <= 0 {
		attempts = fetch.DefaultMaxAttempts
	}
	body, err := fetcher.GetWithRetry(ctx, o.URL, attempts)
	if err != nil {
		return Document{}, err
	}
	return Document{Markdown: string(body), SourceName: o.Name}, nil
}

// RegistryOrigin reads one source's changelog from the sources registry.
type RegistryOrigin struct {
	Client   *sources.Client
	SourceID string
}

func (o RegistryOrigin) Load(ctx context.Context) (Document, error) {
	resp, err := o.Client.FetchChangelog(ctx, o.SourceID)
	if err != nil {
		return Document{}, err
	}
	return Document{
		Markdown:   resp.Markdown,
		SourceID:   resp.Source.ID,
		SourceName: resp.Source.Name,
	}, nil
}

// FileOrigin reads a local markdown file.
type FileOrigin struct {
	Path string
	Name string
}

func (o FileOrigin) Load(context.Context) (Document, error) {
	data, err := os.ReadFile(o.Path)
	if err != nil {
		return Document{}, fmt.Errorf("reading changelog: %w", err)
	}
	return Document{Markdown: string(data), SourceName: o.Name}, nil
}

// GitOrigin reads a changelog committed at HEAD of a local repository. An
// empty File is located with git.FindChangelog.
type GitOrigin struct {
	Repo string
	File string
	Name string
}

func (o GitOrigin) Load(context.Context) (Document, error) {
	file := o.File
	if file == "" {
		found, err := git.FindChangelog(o.Repo)
		if err != nil {
			return Document{}, err
		}
		file = found
	}
	data, _, err := git.HeadFile(o.Repo, file)
	if err != nil {
		return Document{}, err
	}
	return Document{Markdown: string(data), SourceName: o.Name}, nil
}

// HTMLOrigin scrapes an HTML release-notes page.
type HTMLOrigin struct {
	URL  string
	Name string
}

func (o HTMLOrigin) Load(ctx context.Context) (Document, error) {
	markdown, err := changelog.HTMLToMarkdown(ctx, o.URL, build.UserAgent())
	if err != nil {
		return Document{}, err
	}
	return Document{Markdown: markdown, SourceName: o.Name}, nil
}
