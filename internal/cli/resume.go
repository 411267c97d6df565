package cli

import (
	"fmt"

	"github.com/ariel-frischer/changecast/internal/audio"
	"github.com/spf13/cobra"
)

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Replay the last generated clip from the cache",
	Long: `Replay the clip generated by the last 'changecast speak'.

The clip is read from the local cache only; nothing is synthesized and no
API key or network access is needed. When the cache no longer holds it,
resume reports that there is nothing to play.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runResume(cmd, app)
	},
}

func init() {
	resumeCmd.GroupID = GroupListening
	rootCmd.AddCommand(resumeCmd)
}

func runResume(cmd *cobra.Command, a *appContext) error {
	ctx := cmd.Context()
	caps := a.Terminal()
	watcher := newPlaybackWatcher(cmd.OutOrStdout(), caps.IsTTY)

	ctrl, err := a.Controller(ctx, false, audio.WithObserver(watcher.Observe))
	if err != nil {
		return err
	}
	defer ctrl.Close()

	if !ctrl.Restore(ctx) {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing to resume.")
		return nil
	}

	snap := ctrl.Snapshot()
	if !caps.IsTTY {
		fmt.Fprintf(cmd.OutOrStdout(), "Playing %s (%s)\n", snap.Label, formatClock(snap.Duration))
	}
	if err := ctrl.Play(); err != nil {
		return err
	}
	return playInteractive(ctx, cmd.OutOrStdout(), ctrl, watcher, caps.IsTTY)
}
