package cli

import (
	"errors"
	"os"

	"github.com/ariel-frischer/changecast/internal/analysis"
	"github.com/ariel-frischer/changecast/internal/audio"
	"github.com/ariel-frischer/changecast/internal/changelog"
	cliconfig "github.com/ariel-frischer/changecast/internal/cli/config"
	"github.com/ariel-frischer/changecast/internal/cli/shared"
	"github.com/ariel-frischer/changecast/internal/cli/util"
	clierrors "github.com/ariel-frischer/changecast/internal/errors"
	"github.com/ariel-frischer/changecast/internal/fetch"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Group IDs re-exported for commands in this package.
const (
	GroupGettingStarted = shared.GroupGettingStarted
	GroupReading        = shared.GroupReading
	GroupListening      = shared.GroupListening
	GroupSources        = shared.GroupSources
	GroupConfiguration  = shared.GroupConfiguration
)

// Exit codes re-exported for commands in this package.
const (
	ExitSuccess           = shared.ExitSuccess
	ExitFailure           = shared.ExitFailure
	ExitFetchFailed       = shared.ExitFetchFailed
	ExitInvalidArguments  = shared.ExitInvalidArguments
	ExitMissingDependency = shared.ExitMissingDependency
	ExitAudioFailed       = shared.ExitAudioFailed
)

// NewExitError returns an error that makes the CLI exit with code.
func NewExitError(code int) error {
	return shared.NewExitError(code)
}

var rootCmd = &cobra.Command{
	Use:   "changecast",
	Short: "Read, analyze and listen to changelogs",
	Long: `changecast fetches a project's CHANGELOG.md, splits it into versions and
categorized items, asks Gemini for a digest of what matters, and reads versions
aloud with Gemini speech.

Analysis results and generated audio are cached by content hash, so repeated
runs cost nothing until the changelog changes. The last clip you played can be
resumed offline from the cache.

Source: https://github.com/ariel-frischer/changecast`,
	Example: `  # Show the five newest versions
  changecast show

  # What matters in the latest releases
  changecast analyze

  # Listen to the latest version
  changecast speak

  # Pick another changelog from the sources registry
  changecast sources list
  changecast sources select <id>`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if app.noColor || os.Getenv("NO_COLOR") != "" {
			color.NoColor = true
		}
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return app.Close()
	},
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: GroupGettingStarted, Title: "Getting Started:"},
		&cobra.Group{ID: GroupReading, Title: "Reading:"},
		&cobra.Group{ID: GroupListening, Title: "Listening:"},
		&cobra.Group{ID: GroupSources, Title: "Sources:"},
		&cobra.Group{ID: GroupConfiguration, Title: "Configuration:"},
	)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&app.configPath, "config", "c", "", "Project config file (default .changecast/config.yml)")
	flags.StringVar(&app.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&app.logFormat, "log-format", "", "Log format: console, json")
	flags.BoolVar(&app.noColor, "no-color", false, "Disable colored output")
	flags.BoolVarP(&app.debug, "debug", "d", false, "Enable debug logging")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return clierrors.NewArgumentErrorWithUsage(err.Error(), cmd.UseLine())
	})

	util.Register(rootCmd)
	cliconfig.Register(rootCmd)
}

// Execute runs the root command. Errors are printed to stderr and returned
// as *shared.ExitError so main can exit with the matching code.
func Execute() error {
	defer app.Close()

	err := rootCmd.Execute()
	if err == nil {
		return nil
	}
	var exitErr *shared.ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	clierrors.Fprint(rootCmd.ErrOrStderr(), classify(err), !color.NoColor)
	return NewExitError(exitCodeFor(err))
}

// classify turns known domain errors into CLI errors with remediation.
func classify(err error) error {
	if clierrors.IsCLIError(err) {
		return err
	}
	var (
		fetchErr    *fetch.FetchError
		notFound    *changelog.VersionNotFoundError
		audioErr    *audio.AudioError
		analysisErr *analysis.AnalysisError
	)
	switch {
	case errors.As(err, &fetchErr):
		return clierrors.ChangelogUnavailable(err)
	case errors.As(err, &notFound):
		return clierrors.VersionNotFound(notFound.Version, notFound.AvailableVersions)
	case errors.As(err, &audioErr):
		return clierrors.AudioFailed(err)
	case errors.As(err, &analysisErr):
		return clierrors.WrapWithMessage(err, clierrors.Network, "analysis failed",
			"Check GEMINI_API_KEY and your network connection",
			"Try a different model: CHANGECAST_ANALYSIS_MODEL=<model>",
		)
	}
	return err
}

// exitCodeFor maps an error to the process exit code.
func exitCodeFor(err error) int {
	cliErr := clierrors.AsCLIError(classify(err))
	if cliErr == nil {
		return ExitFailure
	}
	switch cliErr.Category {
	case clierrors.Argument:
		return ExitInvalidArguments
	case clierrors.Configuration:
		return ExitMissingDependency
	case clierrors.Network:
		return ExitFetchFailed
	case clierrors.Audio:
		return ExitAudioFailed
	default:
		return ExitFailure
	}
}
