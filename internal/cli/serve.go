package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	clierrors "github.com/ariel-frischer/changecast/internal/errors"
	"github.com/ariel-frischer/changecast/internal/logging"
	"github.com/ariel-frischer/changecast/internal/sources"
	"github.com/spf13/cobra"
)

var (
	serveListenFlag   string
	serveSourcesFlag  string
	serveIntervalFlag time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Host a sources registry",
	Long: `Serve the sources registry described by a YAML file.

Routes:
  GET /api/sources                 Registered sources
  GET /api/sources/:id/changelog   Markdown changelog of one source
  GET /ws/updates                  WebSocket stream of new versions
  GET /healthz                     Liveness

Active sources are checked on the interval and a version_update event is
pushed to every WebSocket subscriber when a newer version appears. Point
clients at it with sources_api_url.`,
	Example: `  changecast serve
  changecast serve --listen :9000 --sources ./sources.yml --interval 5m`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, app, serveListenFlag, serveSourcesFlag, serveIntervalFlag)
	},
}

func init() {
	serveCmd.GroupID = GroupSources
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveListenFlag, "listen", "", "Listen address (default: registry.listen)")
	serveCmd.Flags().StringVar(&serveSourcesFlag, "sources", "", "Sources YAML file (default: registry.sources_file)")
	serveCmd.Flags().DurationVar(&serveIntervalFlag, "interval", 0, "Update check period, 0 uses registry.check_interval")
}

func runServe(cmd *cobra.Command, a *appContext, listen, sourcesFile string, interval time.Duration) error {
	cfg, err := a.Config()
	if err != nil {
		return err
	}
	if listen == "" {
		listen = cfg.Registry.Listen
	}
	if sourcesFile == "" {
		sourcesFile = cfg.Registry.SourcesFile
	}
	if interval == 0 {
		interval = cfg.Registry.CheckInterval
	}

	entries, err := sources.LoadEntries(sourcesFile)
	if err != nil {
		return clierrors.WrapWithMessage(err, clierrors.Configuration,
			fmt.Sprintf("failed to load sources from %s", sourcesFile),
			"Each entry needs an id, a name and a url",
			"Choose another file with: changecast serve --sources <file>",
		)
	}

	logger := logging.NewComponentLogger(a.Logger(), "registry")
	retriever := sources.KindRetriever{Fetcher: a.Fetcher(), MaxAttempts: cfg.FetchMaxAttempts}
	srv := sources.NewServer(sources.NewRegistry(entries), retriever, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.ErrOrStderr(), "Serving %d sources on %s\n", len(entries), listen)
	if err := srv.ListenAndServe(ctx, listen, interval); err != nil {
		return clierrors.WrapWithMessage(err, clierrors.Network,
			fmt.Sprintf("registry server failed on %s", listen),
			"Choose another address with: changecast serve --listen <addr>",
		)
	}
	return nil
}
