package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	clierrors "github.com/ariel-frischer/changecast/internal/errors"
	"github.com/ariel-frischer/changecast/internal/feed"
	"github.com/ariel-frischer/changecast/internal/logging"
	"github.com/ariel-frischer/changecast/internal/output"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	watchIntervalFlag time.Duration
	watchOriginFlag   originFlags
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Report new versions as they are published",
	Long: `Load the changelog, then reload it on the refresh interval and print
every version that was not there before.

The interval defaults to the refresh-interval preference. With --file the
changelog is reloaded whenever the file changes instead. Stop with Ctrl-C.

Set notifications.enabled to also get a desktop notification per update.`,
	Example: `  changecast watch
  changecast watch --interval 1m
  changecast watch --file CHANGELOG.md`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatch(cmd, app, watchOriginFlag, watchIntervalFlag)
	},
}

func init() {
	watchCmd.GroupID = GroupReading
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().DurationVar(&watchIntervalFlag, "interval", 0, "Reload period (default: refresh-interval preference)")
	watchOriginFlag.register(watchCmd)
}

// versionTracker remembers which versions have been reported.
type versionTracker struct {
	out  io.Writer
	seen map[string]bool
}

func newVersionTracker(out io.Writer) *versionTracker {
	return &versionTracker{out: out, seen: make(map[string]bool)}
}

// prime records the initial versions without reporting them.
func (t *versionTracker) prime(result *feed.Result) {
	for _, v := range result.Versions {
		t.seen[v.Version] = true
	}
}

// report prints unseen versions oldest first and returns them in that order.
func (t *versionTracker) report(result *feed.Result) []string {
	var fresh []string
	for _, v := range result.Versions {
		if !t.seen[v.Version] {
			fresh = append(fresh, v.Version)
			t.seen[v.Version] = true
		}
	}
	slices.Reverse(fresh)
	for _, v := range fresh {
		output.PrintSuccess(t.out, fmt.Sprintf("New version %s (%s)", v, result.SelectedSourceName))
	}
	return fresh
}

func runWatch(cmd *cobra.Command, a *appContext, origin originFlags, interval time.Duration) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loader, err := origin.loader(a, false)
	if err != nil {
		return err
	}
	if origin.file == "" && interval == 0 {
		p, err := a.Prefs()
		if err != nil {
			return err
		}
		if interval, err = p.RefreshInterval(ctx); err != nil {
			return err
		}
	}
	if origin.file == "" && interval <= 0 {
		return clierrors.NewArgumentError("auto-refresh is off",
			"Pass an interval: changecast watch --interval 5m",
			"Or enable it: changecast prefs set refresh-interval 5m",
		)
	}

	first, err := loadFeed(ctx, cmd, a, origin, false)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	tracker := newVersionTracker(out)
	tracker.prime(first)

	every := "on change"
	if origin.file == "" {
		every = "every " + interval.String()
	}
	fmt.Fprintf(out, "Watching %s (latest %s), %s\n", first.SelectedSourceName, first.LatestVersion, every)

	logger := a.Logger()
	notifier, err := a.Notifier()
	if err != nil {
		return err
	}
	onLoad := func(result *feed.Result, err error) {
		if err != nil {
			logger.Warn("reload failed", logging.Error(err))
			fmt.Fprintln(cmd.ErrOrStderr(), color.YellowString("! reload failed: %v", err))
			return
		}
		fresh := tracker.report(result)
		if len(fresh) == 0 {
			logger.Debug("no new versions", logging.String("latest", result.LatestVersion))
			return
		}
		notifier.OnNewVersions(ctx, result.SelectedSourceName, fresh)
	}

	if origin.file != "" {
		return loader.WatchFile(ctx, origin.file, onLoad)
	}
	loader.Watch(ctx, interval, onLoad)
	return ignoreCanceled(ctx)
}

// ignoreCanceled treats a stopped watch as success.
func ignoreCanceled(ctx context.Context) error {
	if ctx.Err() == context.Canceled {
		return nil
	}
	return ctx.Err()
}
