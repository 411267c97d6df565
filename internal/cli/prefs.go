package cli

import (
	"fmt"
	"strconv"
	"time"

	clierrors "github.com/ariel-frischer/changecast/internal/errors"
	"github.com/ariel-frischer/changecast/internal/output"
	"github.com/ariel-frischer/changecast/internal/prefs"
	"github.com/ariel-frischer/changecast/internal/tts"
	"github.com/spf13/cobra"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show and change saved preferences",
	Long: `Preferences live in the data directory next to the cache and apply to
every project: theme, refresh interval, selected source, voice, speech
language and playback speed.`,
}

var prefsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show saved preferences",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPrefsShow(cmd, app)
	},
}

var prefsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a preference",
	Long: `Change a preference.

Keys:
  voice             Speech voice (see 'changecast prefs voices')
  language          Speech language: en, cmn
  speed             Playback speed, greater than 0 and at most 4
  theme             Terminal palette: light, dark
  default-theme     Palette used until a theme is chosen: light, dark
  refresh-interval  Auto-refresh period for 'watch', e.g. 5m; 0 disables
  source            Registry source id; "" returns to the default changelog`,
	Example: `  changecast prefs set voice Puck
  changecast prefs set speed 1.25
  changecast prefs set refresh-interval 10m`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPrefsSet(cmd, app, args[0], args[1])
	},
}

var prefsToggleThemeCmd = &cobra.Command{
	Use:   "toggle-theme",
	Short: "Switch between the light and dark palette",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := app.Prefs()
		if err != nil {
			return err
		}
		theme, err := p.ToggleTheme(cmd.Context())
		if err != nil {
			return err
		}
		output.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Theme is now %s", theme))
		return nil
	},
}

var prefsVoicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "List speech voices and languages",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		rows := make([][]string, 0, len(tts.VoiceOptions))
		for _, v := range tts.VoiceOptions {
			rows = append(rows, []string{v.Name, v.Tone})
		}
		fmt.Fprintln(cmd.OutOrStdout(), output.RenderTable([]string{"VOICE", "TONE"}, rows, nil))

		langs := make([][]string, 0, len(tts.Languages))
		for _, l := range tts.Languages {
			langs = append(langs, []string{l.Code, l.Label})
		}
		fmt.Fprintln(cmd.OutOrStdout(), output.RenderTable([]string{"LANGUAGE", "NAME"}, langs, nil))
	},
}

func init() {
	prefsCmd.GroupID = GroupConfiguration
	prefsCmd.AddCommand(prefsShowCmd, prefsSetCmd, prefsToggleThemeCmd, prefsVoicesCmd)
	rootCmd.AddCommand(prefsCmd)
}

func runPrefsShow(cmd *cobra.Command, a *appContext) error {
	p, err := a.Prefs()
	if err != nil {
		return err
	}
	snap, err := p.Load(cmd.Context())
	if err != nil {
		return err
	}

	source := snap.SelectedSourceID
	if source == "" {
		source = "(default changelog)"
	}
	refresh := "off"
	if snap.RefreshInterval > 0 {
		refresh = snap.RefreshInterval.String()
	}
	lastPlayed := "-"
	if lp := snap.LastPlayed; lp != nil {
		lastPlayed = fmt.Sprintf("%s (%s, %s)", lp.Label, lp.Voice, lp.Language)
	}

	rows := [][]string{
		{"theme", string(snap.Theme)},
		{"default-theme", string(snap.DefaultTheme)},
		{"refresh-interval", refresh},
		{"source", source},
		{"voice", snap.Voice},
		{"language", snap.Language},
		{"speed", formatSpeed(snap.PlaybackSpeed) + "x"},
		{"last played", lastPlayed},
	}
	fmt.Fprintln(cmd.OutOrStdout(), output.RenderTable([]string{"PREFERENCE", "VALUE"}, rows, nil))
	return nil
}

func runPrefsSet(cmd *cobra.Command, a *appContext, key, value string) error {
	p, err := a.Prefs()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	switch key {
	case "voice":
		if !tts.IsValidVoice(value) {
			return clierrors.InvalidVoice(value)
		}
		err = p.SetVoice(ctx, value)
	case "language":
		if !tts.IsValidLanguage(value) {
			return clierrors.InvalidPreference(key, fmt.Sprintf("unsupported language %q", value))
		}
		err = p.SetLanguage(ctx, value)
	case "speed":
		speed, parseErr := strconv.ParseFloat(value, 64)
		if parseErr != nil || !prefs.ValidSpeed(speed) {
			return clierrors.InvalidPreference(key, fmt.Sprintf("%q is not a speed in (0, %g]", value, prefs.MaxSpeed))
		}
		err = p.SetPlaybackSpeed(ctx, speed)
	case "theme", "default-theme":
		theme, parseErr := prefs.ParseTheme(value)
		if parseErr != nil {
			return clierrors.InvalidPreference(key, parseErr.Error())
		}
		if key == "theme" {
			err = p.SetTheme(ctx, theme)
		} else {
			err = p.SetDefaultTheme(ctx, theme)
		}
	case "refresh-interval":
		d, parseErr := parseInterval(value)
		if parseErr != nil {
			return clierrors.InvalidPreference(key, parseErr.Error())
		}
		err = p.SetRefreshInterval(ctx, d)
	case "source":
		err = p.SetSelectedSourceID(ctx, value)
	default:
		return clierrors.InvalidPreference(key, "unknown key")
	}
	if err != nil {
		return err
	}

	output.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Set %s to %q", key, value))
	return nil
}

// parseInterval accepts a Go duration or "0"/"off".
func parseInterval(value string) (time.Duration, error) {
	if value == "0" || value == "off" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%q is not a duration such as 5m", value)
	}
	if d < 0 {
		return 0, fmt.Errorf("interval must not be negative")
	}
	return d, nil
}
