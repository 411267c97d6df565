package cli

import (
	"fmt"
	"io"

	"github.com/ariel-frischer/changecast/internal/changelog"
	"github.com/spf13/cobra"
)

var (
	extractRawFlag    bool
	extractOriginFlag originFlags
)

var extractCmd = &cobra.Command{
	Use:   "extract <version>",
	Short: "Extract release notes for a specific version",
	Long: `Extract release notes for a specific version in markdown format.

Items are grouped under a heading per category, in the order breaking
changes, removals, features, fixes, other. Use --raw to keep the original
bullet order under a single version header instead.

The output is written to stdout and is suitable for GitHub release notes.`,
	Example: `  changecast extract v1.2.3          # Grouped release notes
  changecast extract 1.2.3 --raw    # Version section as it appears in the changelog
  changecast extract 1.2.3 --file CHANGELOG.md > notes.md`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExtract(cmd, app, extractOriginFlag, args[0], extractRawFlag)
	},
}

func init() {
	extractCmd.GroupID = GroupReading
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().BoolVar(&extractRawFlag, "raw", false, "Keep bullet order under a single version header")
	extractOriginFlag.register(extractCmd)
}

func runExtract(cmd *cobra.Command, a *appContext, origin originFlags, version string, raw bool) error {
	result, err := loadFeed(cmd.Context(), cmd, a, origin, false)
	if err != nil {
		return err
	}

	v, err := changelog.FindVersion(result.Versions, version)
	if err != nil {
		return err
	}

	if raw {
		return changelog.RenderMarkdown([]changelog.Version{*v}, cmd.OutOrStdout())
	}
	return renderVersionMarkdown(v, cmd.OutOrStdout())
}

// categoryHeadings are the release-notes headings per item type.
var categoryHeadings = map[changelog.ItemType]string{
	changelog.TypeBreaking: "Breaking Changes",
	changelog.TypeRemoval:  "Removed",
	changelog.TypeFeature:  "Added",
	changelog.TypeFix:      "Fixed",
	changelog.TypeOther:    "Changed",
}

// renderVersionMarkdown writes a version's items grouped by category.
// Empty categories are skipped.
func renderVersionMarkdown(v *changelog.Version, w io.Writer) error {
	grouped := make(map[changelog.ItemType][]string)
	for _, item := range v.Items {
		grouped[item.Type] = append(grouped[item.Type], item.Content)
	}

	first := true
	for _, t := range changelog.ItemTypes() {
		entries := grouped[t]
		if len(entries) == 0 {
			continue
		}

		if !first {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		first = false

		if _, err := fmt.Fprintf(w, "### %s\n", categoryHeadings[t]); err != nil {
			return err
		}
		for _, entry := range entries {
			if _, err := fmt.Fprintf(w, "- %s\n", entry); err != nil {
				return err
			}
		}
	}
	return nil
}
