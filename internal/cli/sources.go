package cli

import (
	"fmt"

	"github.com/ariel-frischer/changecast/internal/changelog"
	clierrors "github.com/ariel-frischer/changecast/internal/errors"
	"github.com/ariel-frischer/changecast/internal/output"
	"github.com/ariel-frischer/changecast/internal/progress"
	"github.com/ariel-frischer/changecast/internal/sources"
	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List and select changelog sources",
	Long: `Work with the sources registry configured by sources_api_url.

A selected source replaces the default changelog for every command until it
is cleared. Run 'changecast serve' to host a registry from a YAML file.`,
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registry sources",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSourcesList(cmd, app)
	},
}

var sourcesSelectCmd = &cobra.Command{
	Use:   "select <id>",
	Short: "Read changelogs from a registry source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSourcesSelect(cmd, app, args[0])
	},
}

var sourcesClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Return to the default changelog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSourcesClear(cmd, app)
	},
}

var sourcesLatestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Show the newest version of every active source",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSourcesLatest(cmd, app)
	},
}

func init() {
	sourcesCmd.GroupID = GroupSources
	sourcesCmd.AddCommand(sourcesListCmd, sourcesSelectCmd, sourcesClearCmd, sourcesLatestCmd)
	rootCmd.AddCommand(sourcesCmd)
}

func requireRegistry(a *appContext) (*sources.Client, error) {
	if _, err := a.Config(); err != nil {
		return nil, err
	}
	registry := a.Registry()
	if registry == nil {
		return nil, clierrors.NewConfigError("no sources registry configured",
			"Set one with: CHANGECAST_SOURCES_API_URL=<url>",
			"Or run a local registry: changecast serve",
		)
	}
	return registry, nil
}

func runSourcesList(cmd *cobra.Command, a *appContext) error {
	registry, err := requireRegistry(a)
	if err != nil {
		return err
	}
	list, err := registry.List(cmd.Context())
	if err != nil {
		return clierrors.RegistryUnavailable(err)
	}
	if len(list) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No sources registered.")
		return nil
	}

	p, err := a.Prefs()
	if err != nil {
		return err
	}
	selected, err := p.SelectedSourceID(cmd.Context())
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(list))
	for _, s := range list {
		mark := ""
		if s.ID == selected {
			mark = "*"
		}
		active := "no"
		if s.IsActive {
			active = "yes"
		}
		rows = append(rows, []string{mark, s.ID, s.Name, active, deref(s.LastVersion), deref(s.LastCheckedAt)})
	}
	fmt.Fprintln(cmd.OutOrStdout(), output.RenderTable(
		[]string{"", "ID", "NAME", "ACTIVE", "LAST VERSION", "CHECKED"},
		rows,
		nil,
	))
	return nil
}

func runSourcesSelect(cmd *cobra.Command, a *appContext, id string) error {
	registry, err := requireRegistry(a)
	if err != nil {
		return err
	}
	list, err := registry.List(cmd.Context())
	if err != nil {
		return clierrors.RegistryUnavailable(err)
	}

	var found *sources.Source
	for i := range list {
		if list[i].ID == id {
			found = &list[i]
			break
		}
	}
	if found == nil {
		ids := make([]string, len(list))
		for i, s := range list {
			ids[i] = s.ID
		}
		return clierrors.NewArgumentError(fmt.Sprintf("unknown source %q", id),
			"List sources with: changecast sources list",
			fmt.Sprintf("Known sources: %v", ids),
		)
	}

	p, err := a.Prefs()
	if err != nil {
		return err
	}
	if err := p.SetSelectedSourceID(cmd.Context(), found.ID); err != nil {
		return err
	}
	output.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Selected %s (%s)", found.Name, found.ID))
	return nil
}

func runSourcesClear(cmd *cobra.Command, a *appContext) error {
	p, err := a.Prefs()
	if err != nil {
		return err
	}
	if err := p.SetSelectedSourceID(cmd.Context(), ""); err != nil {
		return err
	}
	output.PrintSuccess(cmd.OutOrStdout(), "Using the default changelog")
	return nil
}

func runSourcesLatest(cmd *cobra.Command, a *appContext) error {
	registry, err := requireRegistry(a)
	if err != nil {
		return err
	}

	var all []sources.SourceChangelog
	err = progress.Run(cmd.ErrOrStderr(), a.Terminal(), "Fetching active sources", func() error {
		var fetchErr error
		all, fetchErr = registry.FetchAllActive(cmd.Context())
		return fetchErr
	})
	if err != nil {
		return clierrors.RegistryUnavailable(err)
	}
	if len(all) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No active sources.")
		return nil
	}

	rows := make([][]string, 0, len(all))
	for _, sc := range all {
		versions := changelog.Parse(sc.Markdown, sc.SourceID, sc.SourceName)
		date := ""
		if len(versions) > 0 {
			date = versions[0].Date
		}
		rows = append(rows, []string{sc.SourceName, changelog.LatestVersion(versions), date})
	}
	fmt.Fprintln(cmd.OutOrStdout(), output.RenderTable([]string{"SOURCE", "LATEST", "DATE"}, rows, nil))
	return nil
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
