package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/ariel-frischer/changecast/internal/changelog"
	clierrors "github.com/ariel-frischer/changecast/internal/errors"
	"github.com/ariel-frischer/changecast/internal/feed"
	"github.com/ariel-frischer/changecast/internal/output"
	"github.com/spf13/cobra"
)

var (
	showLastFlag   int
	showPlainFlag  bool
	showTypesFlag  []string
	showJSONFlag   bool
	showTableFlag  bool
	showOriginFlag originFlags
)

var showCmd = &cobra.Command{
	Use:     "show [version]",
	Aliases: []string{"ls"},
	Short:   "Show changelog versions",
	Long: `Show versions from the changelog with categorized items.

By default the five newest versions are shown. Pass a version to show just
that one; the "v" prefix is optional. Items are tagged as features, fixes,
removals, breaking changes or other updates.

The changelog comes from the selected registry source, or the configured
changelog_url when no source is selected. Use --file, --git, --html or
--source to read somewhere else for one run.`,
	Example: `  changecast show                   # Five newest versions
  changecast show 1.2.3             # One version
  changecast show --last 20         # Twenty newest versions
  changecast show --type breaking   # Only breaking changes
  changecast show --table           # One row per version
  changecast show --file CHANGELOG.md
  changecast show --json | jq '.[0].items'`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		types, err := parseTypes(showTypesFlag)
		if err != nil {
			return err
		}
		opts := showOptions{
			last:  showLastFlag,
			plain: showPlainFlag,
			types: types,
			json:  showJSONFlag,
			table: showTableFlag,
		}
		if len(args) == 1 {
			opts.version = args[0]
		}
		return runShow(cmd, app, showOriginFlag, opts)
	},
}

func init() {
	showCmd.GroupID = GroupReading
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().IntVarP(&showLastFlag, "last", "n", 5, "Number of versions to show")
	showCmd.Flags().BoolVar(&showPlainFlag, "plain", false, "Plain text output (no colors/icons)")
	showCmd.Flags().StringSliceVarP(&showTypesFlag, "type", "t", nil, "Only show items of these types (feature, fix, removal, breaking, other)")
	showCmd.Flags().BoolVar(&showJSONFlag, "json", false, "Print versions as JSON")
	showCmd.Flags().BoolVar(&showTableFlag, "table", false, "Print a summary table with per-type counts")
	showCmd.MarkFlagsMutuallyExclusive("json", "table")
	showOriginFlag.register(showCmd)
}

type showOptions struct {
	version string
	last    int
	plain   bool
	types   []changelog.ItemType
	json    bool
	table   bool
}

func parseTypes(names []string) ([]changelog.ItemType, error) {
	types := make([]changelog.ItemType, 0, len(names))
	for _, name := range names {
		t, err := changelog.ParseItemType(name)
		if err != nil {
			return nil, clierrors.NewArgumentErrorWithUsage(err.Error(),
				"changecast show --type feature,fix",
				"Valid types: feature, fix, removal, breaking, other",
			)
		}
		types = append(types, t)
	}
	return types, nil
}

func runShow(cmd *cobra.Command, a *appContext, origin originFlags, opts showOptions) error {
	result, err := loadFeed(cmd.Context(), cmd, a, origin, false)
	if err != nil {
		return err
	}

	versions := result.Versions
	if opts.version != "" {
		v, err := changelog.FindVersion(versions, opts.version)
		if err != nil {
			return err
		}
		versions = []changelog.Version{*v}
	} else {
		versions = changelog.Head(versions, opts.last)
	}
	versions = changelog.FilterByType(versions, opts.types...)

	out := cmd.OutOrStdout()
	switch {
	case opts.json:
		return writeJSON(out, nonNilVersions(versions))
	case opts.table:
		fmt.Fprintln(out, versionTable(versions))
		return nil
	}

	if len(versions) == 0 {
		fmt.Fprintln(out, "No changelog entries found.")
		return nil
	}

	if !opts.plain {
		printFeedHeader(out, result)
	}
	formatOpts := changelog.FormatOptions{
		Plain:      opts.plain,
		Theme:      a.Theme(cmd.Context()),
		ShowCounts: !opts.plain,
	}
	if err := changelog.FormatTerminal(versions, out, formatOpts); err != nil {
		return fmt.Errorf("formatting versions: %w", err)
	}

	total := len(result.Versions)
	if opts.version == "" && len(opts.types) == 0 && total > len(versions) {
		fmt.Fprintf(out, "\n(%d of %d versions shown. Use --last %d to see all)\n",
			len(versions), total, total)
	}
	return nil
}

// printFeedHeader prints the source name, latest version and fetch time.
func printFeedHeader(out io.Writer, result *feed.Result) {
	output.PrintKeyValue(out, "Source", result.SelectedSourceName)
	output.PrintKeyValue(out, "Latest", result.LatestVersion)
	output.PrintKeyValue(out, "Fetched", result.FetchedAt.Format(time.Kitchen))
	fmt.Fprintln(out)
}

// versionTable renders one row per version with item counts by type.
func versionTable(versions []changelog.Version) string {
	headers := []string{"VERSION", "DATE"}
	aligns := []output.Alignment{output.AlignLeft, output.AlignLeft}
	for _, t := range changelog.ItemTypes() {
		headers = append(headers, string(t))
		aligns = append(aligns, output.AlignRight)
	}

	rows := make([][]string, 0, len(versions))
	for _, v := range versions {
		counts := v.Counts()
		row := []string{v.Version, v.Date}
		for _, t := range changelog.ItemTypes() {
			row = append(row, strconv.Itoa(counts[t]))
		}
		rows = append(rows, row)
	}
	return output.RenderTable(headers, rows, aligns)
}

func nonNilVersions(versions []changelog.Version) []changelog.Version {
	if versions == nil {
		return []changelog.Version{}
	}
	return versions
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
