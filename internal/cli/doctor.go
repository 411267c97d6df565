package cli

import (
	"fmt"

	"github.com/ariel-frischer/changecast/internal/health"
	"github.com/ariel-frischer/changecast/internal/progress"
	"github.com/spf13/cobra"
)

var doctorOfflineFlag bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration and dependencies",
	Long: `Check the API key, the data directory, the audio player and, unless
--offline is set, that the changelog and the sources registry are reachable.

Optional checks are marked ○ and never fail the command.`,
	Example: `  changecast doctor
  changecast doctor --offline`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDoctor(cmd, app, doctorOfflineFlag)
	},
}

func init() {
	doctorCmd.GroupID = GroupGettingStarted
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().BoolVar(&doctorOfflineFlag, "offline", false, "Skip network checks")
}

func runDoctor(cmd *cobra.Command, a *appContext, offline bool) error {
	cfg, err := a.Config()
	if err != nil {
		return err
	}

	var report *health.HealthReport
	message := "Running checks"
	_ = progress.Run(cmd.ErrOrStderr(), a.Terminal(), message, func() error {
		report = health.RunHealthChecks(cmd.Context(), cfg, health.Options{
			Offline: offline,
			Fetcher: a.Fetcher(),
		})
		return nil
	})

	fmt.Fprint(cmd.OutOrStdout(), health.FormatReport(report))
	if !report.Passed {
		return NewExitError(ExitMissingDependency)
	}
	return nil
}
