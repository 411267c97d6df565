package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/ariel-frischer/changecast/internal/analysis"
	"github.com/ariel-frischer/changecast/internal/changelog"
	"github.com/ariel-frischer/changecast/internal/output"
	"github.com/ariel-frischer/changecast/internal/progress"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	analyzeJSONFlag   bool
	analyzeOriginFlag originFlags
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Summarize what matters in the newest versions",
	Long: `Ask Gemini what matters in the three newest versions: a TL;DR, breaking
changes, removals with their impact, major features, important fixes and
action items.

Results are cached by a hash of the three newest versions, so the model is
only called again once a new version appears. Requires GEMINI_API_KEY.`,
	Example: `  changecast analyze
  changecast analyze --json
  changecast analyze --source claude-code`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalyze(cmd, app, analyzeOriginFlag, analyzeJSONFlag)
	},
}

func init() {
	analyzeCmd.GroupID = GroupReading
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().BoolVar(&analyzeJSONFlag, "json", false, "Print the analysis as JSON")
	analyzeOriginFlag.register(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, a *appContext, origin originFlags, asJSON bool) error {
	svc, err := a.Analysis()
	if err != nil {
		return err
	}

	result, err := loadFeed(cmd.Context(), cmd, a, origin, false)
	if err != nil {
		return err
	}
	if len(result.Versions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No changelog entries found.")
		return nil
	}

	var res *analysis.Result
	err = progress.Run(cmd.ErrOrStderr(), a.Terminal(), "Analyzing newest versions", func() error {
		var analyzeErr error
		res, analyzeErr = svc.Analyze(cmd.Context(), result.Versions)
		return analyzeErr
	})
	if err != nil {
		return err
	}

	if asJSON {
		return writeJSON(cmd.OutOrStdout(), res)
	}
	covered := changelog.ListVersions(changelog.Head(result.Versions, changelog.DigestVersions))
	printAnalysis(cmd.OutOrStdout(), result.SelectedSourceName, covered, res)
	return nil
}

var sentimentColors = map[analysis.Sentiment]*color.Color{
	analysis.SentimentPositive: color.New(color.FgGreen),
	analysis.SentimentNeutral:  color.New(color.FgYellow),
	analysis.SentimentCritical: color.New(color.FgRed, color.Bold),
}

// printAnalysis renders the analysis. Empty sections are omitted.
func printAnalysis(out io.Writer, source string, covered []string, res *analysis.Result) {
	output.PrintKeyValue(out, "Source", source)
	output.PrintKeyValue(out, "Versions", strings.Join(covered, ", "))
	sentiment := string(res.Sentiment)
	if c, ok := sentimentColors[res.Sentiment]; ok {
		sentiment = c.Sprint(sentiment)
	}
	output.PrintKeyValue(out, "Sentiment", sentiment)

	output.PrintSectionHeader(out, "TL;DR")
	fmt.Fprintln(out, res.TLDR)

	cats := res.Categories
	sections := []struct {
		title string
		items []string
	}{
		{"Breaking changes", cats.CriticalBreakingChanges},
		{"Removals", removalLines(cats.Removals)},
		{"Major features", cats.MajorFeatures},
		{"Important fixes", cats.ImportantFixes},
		{"New slash commands", cats.NewSlashCommands},
		{"Terminal improvements", cats.TerminalImprovements},
		{"API changes", cats.APIChanges},
		{"Action items", res.ActionItems},
	}
	for _, s := range sections {
		if len(s.items) == 0 {
			continue
		}
		output.PrintSectionHeader(out, s.title)
		output.PrintBullets(out, s.items)
	}
}

func removalLines(removals []analysis.Removal) []string {
	lines := make([]string, 0, len(removals))
	for _, r := range removals {
		line := fmt.Sprintf("%s [%s]", r.Feature, r.Severity)
		if r.Why != "" {
			line += ": " + r.Why
		}
		lines = append(lines, line)
	}
	return lines
}
