package util

import (
	"fmt"
	"io"
	"runtime"

	"github.com/ariel-frischer/changecast/internal/build"
	"github.com/ariel-frischer/changecast/internal/cli/shared"
	"github.com/ariel-frischer/changecast/internal/output"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// SourceURL is the project source URL
const SourceURL = "https://github.com/ariel-frischer/changecast"

var versionPlain bool

var versionCmd = &cobra.Command{
	Use:     "version",
	Aliases: []string{"v"},
	Short:   "Display version information (v)",
	Long:    "Display version, commit, build date, and Go version information for changecast",
	Example: `  # Show version info
  changecast version

  # Plain output (for scripts)
  changecast version --plain`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if versionPlain {
			printPlainVersion(cmd.OutOrStdout())
			return
		}
		printPrettyVersion(cmd.OutOrStdout(), shared.GetTerminalWidth())
	},
}

var sauceCmd = &cobra.Command{
	Use:   "sauce",
	Short: "Display the source URL",
	Long:  "Display the source URL for the changecast project",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(SourceURL)
	},
}

func init() {
	versionCmd.GroupID = shared.GroupGettingStarted
	sauceCmd.GroupID = shared.GroupGettingStarted
	versionCmd.Flags().BoolVar(&versionPlain, "plain", false, "Plain output without formatting")
}

// Register adds the version and sauce commands to root.
func Register(root *cobra.Command) {
	root.AddCommand(versionCmd, sauceCmd)
}

// printPlainVersion prints a simple version output for scripting
func printPlainVersion(out io.Writer) {
	fmt.Fprintf(out, "changecast %s\n", build.Version)
	fmt.Fprintf(out, "commit: %s\n", build.Commit)
	fmt.Fprintf(out, "built: %s\n", build.BuildDate)
	fmt.Fprintf(out, "go: %s\n", runtime.Version())
	fmt.Fprintf(out, "platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// printPrettyVersion prints the tagline and a version table.
func printPrettyVersion(out io.Writer, width int) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	fmt.Fprintln(out)
	fmt.Fprintln(out, cyan(shared.CenterText("changecast", width)))
	fmt.Fprintln(out, dim(shared.CenterText(shared.Tagline, width)))
	fmt.Fprintln(out)

	output.PrintKeyValue(out, "Version", build.Version)
	output.PrintKeyValue(out, "Commit", truncateCommit(build.Commit))
	output.PrintKeyValue(out, "Built", build.BuildDate)
	output.PrintKeyValue(out, "Go", runtime.Version())
	output.PrintKeyValue(out, "Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH))
	if build.IsDevBuild() {
		fmt.Fprintln(out, dim("\ndevelopment build"))
	}
	fmt.Fprintln(out)
}

// truncateCommit shortens commit hash if it's too long
func truncateCommit(commit string) string {
	if len(commit) > 8 {
		return commit[:8]
	}
	return commit
}
