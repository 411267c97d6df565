package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/ariel-frischer/changecast/internal/logging"
	"github.com/ariel-frischer/changecast/internal/mcpserver"
	"github.com/spf13/cobra"
)

var mcpOriginFlag originFlags

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve changelog tools to MCP clients over stdio",
	Long: `Run a Model Context Protocol server on stdin and stdout.

Tools:
  list_versions      Newest versions with dates and item counts
  get_version        Categorized items of one version
  analyze_changelog  TL;DR, breaking changes and action items (needs an API key)

Logs go to stderr.`,
	Example: `  changecast mcp
  changecast mcp --file CHANGELOG.md`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCP(cmd, app, mcpOriginFlag)
	},
}

func init() {
	mcpCmd.GroupID = GroupReading
	rootCmd.AddCommand(mcpCmd)
	mcpOriginFlag.register(mcpCmd)
}

func runMCP(cmd *cobra.Command, a *appContext, origin originFlags) error {
	cfg, err := a.Config()
	if err != nil {
		return err
	}
	loader, err := origin.loader(a, false)
	if err != nil {
		return err
	}

	opts := []mcpserver.Option{mcpserver.WithLogger(logging.NewComponentLogger(a.Logger(), "mcp"))}
	if cfg.HasAPIKey() {
		svc, err := a.Analysis()
		if err != nil {
			return err
		}
		opts = append(opts, mcpserver.WithAnalyzer(svc))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return mcpserver.New(loader, opts...).Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
}
