package cli

import (
	"context"
	"fmt"

	"github.com/ariel-frischer/changecast/internal/audio"
	"github.com/ariel-frischer/changecast/internal/changelog"
	clierrors "github.com/ariel-frischer/changecast/internal/errors"
	"github.com/ariel-frischer/changecast/internal/feed"
	"github.com/ariel-frischer/changecast/internal/output"
	"github.com/ariel-frischer/changecast/internal/prefs"
	"github.com/ariel-frischer/changecast/internal/progress"
	"github.com/ariel-frischer/changecast/internal/tts"
	"github.com/spf13/cobra"
)

var (
	speakVoiceFlag    string
	speakLangFlag     string
	speakSpeedFlag    float64
	speakDownloadFlag bool
	speakOutputFlag   string
	speakNoPlayFlag   bool
	speakTLDRFlag     bool
	speakOriginFlag   originFlags
)

var speakCmd = &cobra.Command{
	Use:   "speak [version]",
	Short: "Read a version aloud",
	Long: `Generate speech for a version with Gemini and play it.

Without a version the newest one is read. Use --tldr to hear the analysis
summary instead. Generated audio is cached by text, voice and language, so
replaying costs nothing. The clip is remembered and can be replayed offline
with 'changecast resume'.

--voice, --lang and --speed are saved as your new preferences.

While playing in a terminal:
  space  pause / play        h / l  seek back / forward 10s
  + / -  change speed        s      stop
  q      quit`,
	Example: `  changecast speak                     # Newest version
  changecast speak 1.2.3 --voice Puck
  changecast speak --lang cmn --speed 1.5
  changecast speak --tldr              # Analysis summary
  changecast speak --download --no-play`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := speakOptions{
			voice:    speakVoiceFlag,
			language: speakLangFlag,
			speed:    speakSpeedFlag,
			download: speakDownloadFlag || speakOutputFlag != "",
			output:   speakOutputFlag,
			noPlay:   speakNoPlayFlag,
			tldr:     speakTLDRFlag,
		}
		if len(args) == 1 {
			opts.version = args[0]
		}
		return runSpeak(cmd, app, speakOriginFlag, opts)
	},
}

func init() {
	speakCmd.GroupID = GroupListening
	rootCmd.AddCommand(speakCmd)

	speakCmd.Flags().StringVar(&speakVoiceFlag, "voice", "", "Voice to use and save (see 'changecast prefs voices')")
	speakCmd.Flags().StringVar(&speakLangFlag, "lang", "", "Speech language to use and save (en, cmn)")
	speakCmd.Flags().Float64Var(&speakSpeedFlag, "speed", 0, "Playback speed to use and save (0.25-4)")
	speakCmd.Flags().BoolVar(&speakDownloadFlag, "download", false, "Save the clip as a WAV file")
	speakCmd.Flags().StringVarP(&speakOutputFlag, "output", "o", "", "WAV file path (implies --download)")
	speakCmd.Flags().BoolVar(&speakNoPlayFlag, "no-play", false, "Generate and save the clip without playing")
	speakCmd.Flags().BoolVar(&speakTLDRFlag, "tldr", false, "Read the analysis TL;DR instead of a version")
	speakCmd.MarkFlagsMutuallyExclusive("tldr", "output")
	speakOriginFlag.register(speakCmd)
}

type speakOptions struct {
	version  string
	voice    string
	language string
	speed    float64
	download bool
	output   string
	noPlay   bool
	tldr     bool
}

func runSpeak(cmd *cobra.Command, a *appContext, origin originFlags, opts speakOptions) error {
	ctx := cmd.Context()
	if opts.tldr && opts.version != "" {
		return clierrors.NewArgumentErrorWithUsage("--tldr does not take a version", "changecast speak --tldr")
	}
	if opts.noPlay && !opts.download {
		opts.download = true
	}

	// Validate before any network call.
	if _, err := a.Speech(true); err != nil {
		return err
	}

	result, err := loadFeed(ctx, cmd, a, origin, false)
	if err != nil {
		return err
	}
	text, label, err := speechFor(ctx, cmd, a, result, opts)
	if err != nil {
		return err
	}

	if opts.noPlay {
		a.playerFactory = audio.ClockPlayerFactory(audio.WithTickInterval(0))
	}
	caps := a.Terminal()
	watcher := newPlaybackWatcher(cmd.OutOrStdout(), caps.IsTTY && !opts.noPlay)
	ctrl, err := a.Controller(ctx, true, audio.WithObserver(watcher.Observe))
	if err != nil {
		return err
	}
	defer ctrl.Close()

	if err := applySpeechPrefs(ctx, ctrl, opts); err != nil {
		return err
	}

	snap := ctrl.Snapshot()
	message := fmt.Sprintf("Generating speech for %s (%s, %s)", label, snap.Voice, snap.Language)
	err = progress.Run(cmd.ErrOrStderr(), caps, message, func() error {
		return ctrl.GenerateAndPlay(ctx, text, label)
	})
	if err != nil {
		return err
	}

	if opts.download {
		name := opts.output
		if name == "" {
			name = downloadName(result.SelectedSourceName, result.LatestVersion, label)
		}
		if _, err := ctrl.Download(name); err != nil {
			return clierrors.FileNotWritable(name)
		}
		output.PrintSuccess(cmd.ErrOrStderr(), "Saved "+name)
	}

	if opts.noPlay {
		return ctrl.Stop()
	}
	return playInteractive(ctx, cmd.OutOrStdout(), ctrl, watcher, caps.IsTTY)
}

// speechFor picks the narration text and session label.
func speechFor(ctx context.Context, cmd *cobra.Command, a *appContext, result *feed.Result, opts speakOptions) (string, string, error) {
	if len(result.Versions) == 0 {
		return "", "", clierrors.NewRuntimeError("the changelog has no versions to read")
	}

	if opts.tldr {
		svc, err := a.Analysis()
		if err != nil {
			return "", "", err
		}
		var text string
		err = progress.Run(cmd.ErrOrStderr(), a.Terminal(), "Analyzing newest versions", func() error {
			res, analyzeErr := svc.Analyze(ctx, result.Versions)
			if analyzeErr != nil {
				return analyzeErr
			}
			text = res.TLDR
			return nil
		})
		if err != nil {
			return "", "", err
		}
		return text, "tldr", nil
	}

	v := &result.Versions[0]
	if opts.version != "" {
		found, err := changelog.FindVersion(result.Versions, opts.version)
		if err != nil {
			return "", "", err
		}
		v = found
	}
	return changelog.SpeechText(*v), changelog.AudioLabel(*v), nil
}

// applySpeechPrefs saves the voice, language and speed overrides.
func applySpeechPrefs(ctx context.Context, ctrl *audio.Controller, opts speakOptions) error {
	if opts.voice != "" {
		if !tts.IsValidVoice(opts.voice) {
			return clierrors.InvalidVoice(opts.voice)
		}
		if err := ctrl.SetVoice(ctx, opts.voice); err != nil {
			return err
		}
	}
	if opts.language != "" {
		if !tts.IsValidLanguage(opts.language) {
			return clierrors.InvalidPreference("language", fmt.Sprintf("unsupported language %q", opts.language))
		}
		if err := ctrl.SetLanguage(ctx, opts.language); err != nil {
			return err
		}
	}
	if opts.speed != 0 {
		if !prefs.ValidSpeed(opts.speed) {
			return clierrors.InvalidPreference("speed", fmt.Sprintf("%g is outside (0, %g]", opts.speed, prefs.MaxSpeed))
		}
		if err := ctrl.SetSpeed(ctx, opts.speed); err != nil {
			return err
		}
	}
	return nil
}
