package cli

import (
	"context"
	"path/filepath"

	clierrors "github.com/ariel-frischer/changecast/internal/errors"
	"github.com/ariel-frischer/changecast/internal/feed"
	"github.com/ariel-frischer/changecast/internal/logging"
	"github.com/ariel-frischer/changecast/internal/progress"
	"github.com/spf13/cobra"
)

// originFlags choose where a command reads its changelog from. At most one
// may be set; with none, the selected registry source or the configured
// changelog URL is used.
type originFlags struct {
	file     string
	gitRepo  string
	gitFile  string
	htmlURL  string
	sourceID string
}

func (o *originFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.file, "file", "", "Read a local changelog file")
	cmd.Flags().StringVar(&o.gitRepo, "git", "", "Read the changelog committed at HEAD of a local repository")
	cmd.Flags().StringVar(&o.gitFile, "git-file", "", "Changelog path inside --git (default: detected)")
	cmd.Flags().StringVar(&o.htmlURL, "html", "", "Scrape an HTML release-notes page")
	cmd.Flags().StringVar(&o.sourceID, "source", "", "Read a registry source for this run only")
	cmd.MarkFlagsMutuallyExclusive("file", "git", "html", "source")
}

// origin returns the fixed origin selected by the flags, or nil.
func (o originFlags) origin(a *appContext) (feed.Origin, error) {
	switch {
	case o.file != "":
		return feed.FileOrigin{Path: o.file, Name: filepath.Base(o.file)}, nil
	case o.gitRepo != "":
		return feed.GitOrigin{Repo: o.gitRepo, File: o.gitFile, Name: filepath.Base(o.gitRepo)}, nil
	case o.htmlURL != "":
		return feed.HTMLOrigin{URL: o.htmlURL, Name: o.htmlURL}, nil
	case o.sourceID != "":
		registry := a.Registry()
		if registry == nil {
			return nil, clierrors.NewConfigError("--source requires a sources registry",
				"Set one with: CHANGECAST_SOURCES_API_URL=<url>",
				"Or run a local registry: changecast serve",
			)
		}
		return feed.RegistryOrigin{Client: registry, SourceID: o.sourceID}, nil
	default:
		return nil, nil
	}
}

// loader builds a feed loader honoring the origin flags.
func (o originFlags) loader(a *appContext, withAnalysis bool) (*feed.Loader, error) {
	origin, err := o.origin(a)
	if err != nil {
		return nil, err
	}
	var opts []feed.Option
	if origin != nil {
		opts = append(opts, feed.WithOrigin(origin))
	}
	return a.Loader(withAnalysis, opts...)
}

// loadFeed fetches and parses the changelog behind a spinner on stderr.
func loadFeed(ctx context.Context, cmd *cobra.Command, a *appContext, o originFlags, withAnalysis bool) (*feed.Result, error) {
	loader, err := o.loader(a, withAnalysis)
	if err != nil {
		return nil, err
	}

	message := "Fetching changelog"
	if withAnalysis {
		message = "Fetching and analyzing changelog"
	}

	var result *feed.Result
	err = progress.Run(cmd.ErrOrStderr(), a.Terminal(), message, func() error {
		var loadErr error
		result, loadErr = loader.Load(ctx)
		return loadErr
	})
	if err != nil {
		return nil, err
	}
	a.Logger().Debug("changelog loaded",
		logging.String("source", result.SelectedSourceName),
		logging.Int("versions", len(result.Versions)),
		logging.String("latest", result.LatestVersion),
	)
	return result, nil
}
