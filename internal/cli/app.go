package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/ariel-frischer/changecast/internal/analysis"
	"github.com/ariel-frischer/changecast/internal/audio"
	"github.com/ariel-frischer/changecast/internal/cache"
	"github.com/ariel-frischer/changecast/internal/config"
	clierrors "github.com/ariel-frischer/changecast/internal/errors"
	"github.com/ariel-frischer/changecast/internal/feed"
	"github.com/ariel-frischer/changecast/internal/fetch"
	"github.com/ariel-frischer/changecast/internal/gemini"
	"github.com/ariel-frischer/changecast/internal/logging"
	"github.com/ariel-frischer/changecast/internal/notify"
	"github.com/ariel-frischer/changecast/internal/prefs"
	"github.com/ariel-frischer/changecast/internal/progress"
	"github.com/ariel-frischer/changecast/internal/sources"
	"github.com/ariel-frischer/changecast/internal/store"
	"github.com/ariel-frischer/changecast/internal/tts"
)

// appContext lazily builds the services a command needs. Commands run one
// at a time, so only configuration loading is guarded.
type appContext struct {
	configPath string
	logLevel   string
	logFormat  string
	noColor    bool
	debug      bool

	configOnce sync.Once
	config     *config.Configuration
	configErr  error

	logger  *slog.Logger
	store   *store.Store
	prefs   *prefs.Preferences
	cache   *cache.Cache
	fetcher *fetch.Client
	gemini  *gemini.Client

	// caps overrides terminal detection (tests).
	caps *progress.TerminalCapabilities
	// playerFactory overrides the configured player (tests).
	playerFactory audio.PlayerFactory
}

func newAppContext() *appContext {
	return &appContext{}
}

// app is shared by every command registered on rootCmd.
var app = newAppContext()

// withConfig returns a context whose configuration is already loaded.
func withConfig(cfg *config.Configuration) *appContext {
	a := newAppContext()
	a.configOnce.Do(func() { a.config = cfg })
	return a
}

func (a *appContext) Config() (*config.Configuration, error) {
	a.configOnce.Do(func() {
		cfg, err := config.Load(strings.TrimSpace(a.configPath))
		if err != nil {
			a.configErr = clierrors.WrapWithMessage(err, clierrors.Configuration,
				"failed to load configuration",
				"Check the config with: changecast config show",
				"Regenerate it with: changecast config init --force",
			)
			return
		}
		a.config = cfg
	})
	return a.config, a.configErr
}

func (a *appContext) Logger() *slog.Logger {
	if a.logger != nil {
		return a.logger
	}
	level, format := a.logLevel, a.logFormat
	if cfg, err := a.Config(); err == nil {
		if level == "" {
			level = cfg.LogLevel
		}
		if format == "" {
			format = cfg.LogFormat
		}
	}
	if a.debug {
		level = "debug"
	}
	logger, err := logging.New(logging.Options{Level: level, Format: format, NoColor: a.noColor})
	if err != nil {
		logger = logging.NewNop()
	}
	a.logger = logger
	return a.logger
}

func (a *appContext) Store() (*store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	cfg, err := a.Config()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg.DatabasePath())
	if err != nil {
		return nil, clierrors.WrapWithMessage(err, clierrors.Configuration,
			"failed to open data directory",
			fmt.Sprintf("Check permissions on %s", cfg.DataDir),
			"Or choose another directory: CHANGECAST_DATA_DIR=<dir>",
		)
	}
	a.store = st
	return st, nil
}

func (a *appContext) Prefs() (*prefs.Preferences, error) {
	if a.prefs != nil {
		return a.prefs, nil
	}
	st, err := a.Store()
	if err != nil {
		return nil, err
	}
	cfg, _ := a.Config()
	a.prefs = prefs.New(st, prefs.WithDefaultVoice(cfg.DefaultVoice))
	return a.prefs, nil
}

func (a *appContext) Cache() (*cache.Cache, error) {
	if a.cache != nil {
		return a.cache, nil
	}
	st, err := a.Store()
	if err != nil {
		return nil, err
	}
	a.cache = cache.New(st)
	return a.cache, nil
}

func (a *appContext) Fetcher() *fetch.Client {
	if a.fetcher == nil {
		a.fetcher = fetch.NewClient(fetch.WithLogger(logging.NewComponentLogger(a.Logger(), "fetch")))
	}
	return a.fetcher
}

// Gemini returns the Gemini client, or a configuration error naming feature
// when no API key is set.
func (a *appContext) Gemini(feature string) (*gemini.Client, error) {
	if a.gemini != nil {
		return a.gemini, nil
	}
	cfg, err := a.Config()
	if err != nil {
		return nil, err
	}
	if !cfg.HasAPIKey() {
		return nil, clierrors.MissingAPIKey(feature)
	}
	a.gemini = gemini.NewClient(gemini.Config{APIKey: cfg.GeminiAPIKey, BaseURL: cfg.GeminiBaseURL})
	return a.gemini, nil
}

func (a *appContext) Analysis() (*analysis.Service, error) {
	client, err := a.Gemini("analysis")
	if err != nil {
		return nil, err
	}
	c, err := a.Cache()
	if err != nil {
		return nil, err
	}
	cfg, _ := a.Config()
	return analysis.NewService(
		analysis.NewGeminiAnalyzer(client, cfg.AnalysisModel),
		c,
		logging.NewComponentLogger(a.Logger(), "analysis"),
	), nil
}

// Speech returns the speech service. Without requireKey a missing API key
// is tolerated: cached clips still play and synthesis fails on use.
func (a *appContext) Speech(requireKey bool) (*tts.Service, error) {
	client, err := a.Gemini("speech")
	if err != nil {
		if requireKey || !clierrors.IsCLIError(err) {
			return nil, err
		}
		cfg, cfgErr := a.Config()
		if cfgErr != nil {
			return nil, cfgErr
		}
		client = gemini.NewClient(gemini.Config{BaseURL: cfg.GeminiBaseURL})
	}
	c, err := a.Cache()
	if err != nil {
		return nil, err
	}
	cfg, _ := a.Config()
	return tts.NewService(
		tts.NewGeminiSynthesizer(client, cfg.TTSModel),
		c,
		logging.NewComponentLogger(a.Logger(), "tts"),
	), nil
}

// Notifier returns the desktop notification handler.
func (a *appContext) Notifier() (*notify.Handler, error) {
	cfg, err := a.Config()
	if err != nil {
		return nil, err
	}
	return notify.NewHandler(notify.Config{
		Enabled:   cfg.Notifications.Enabled,
		Type:      notify.OutputType(cfg.Notifications.Type),
		SoundFile: cfg.Notifications.SoundFile,
	}, notify.WithLogger(logging.NewComponentLogger(a.Logger(), "notify"))), nil
}

// Registry returns the sources client, or nil when no registry is configured.
func (a *appContext) Registry() *sources.Client {
	cfg, err := a.Config()
	if err != nil || cfg.SourcesAPIURL == "" {
		return nil
	}
	return sources.NewClient(cfg.SourcesAPIURL,
		sources.WithFetcher(a.Fetcher()),
		sources.WithClientLogger(logging.NewComponentLogger(a.Logger(), "sources")),
	)
}

// Loader builds a feed loader. Analysis is attached when withAnalysis is set
// and an API key is configured.
func (a *appContext) Loader(withAnalysis bool, opts ...feed.Option) (*feed.Loader, error) {
	cfg, err := a.Config()
	if err != nil {
		return nil, err
	}
	p, err := a.Prefs()
	if err != nil {
		return nil, err
	}

	all := []feed.Option{
		feed.WithSelection(p),
		feed.WithLogger(logging.NewComponentLogger(a.Logger(), "feed")),
	}
	if registry := a.Registry(); registry != nil {
		all = append(all, feed.WithRegistry(registry))
	}
	if withAnalysis && cfg.HasAPIKey() {
		svc, err := a.Analysis()
		if err != nil {
			return nil, err
		}
		all = append(all, feed.WithAnalyzer(svc))
	}
	all = append(all, opts...)

	fallback := feed.URLOrigin{
		URL:         cfg.ChangelogURL,
		Name:        config.DefaultSourceName,
		Fetcher:     a.Fetcher(),
		MaxAttempts: cfg.FetchMaxAttempts,
	}
	return feed.NewLoader(fallback, all...), nil
}

// PlayerFactory returns the configured audio player.
func (a *appContext) PlayerFactory() (audio.PlayerFactory, error) {
	if a.playerFactory != nil {
		return a.playerFactory, nil
	}
	cfg, err := a.Config()
	if err != nil {
		return nil, err
	}
	if cfg.PlayerCommand == "none" {
		return audio.ClockPlayerFactory(), nil
	}
	factory, err := audio.ExecPlayerFactory(cfg.PlayerCommand)
	if err != nil {
		return nil, clierrors.WrapWithMessage(err, clierrors.Configuration,
			fmt.Sprintf("audio player unavailable: %s", cfg.PlayerCommand),
			"Install ffplay (part of ffmpeg) or mpv",
			"Or play silently with: CHANGECAST_PLAYER_COMMAND=none",
		)
	}
	return factory, nil
}

// Controller builds a playback controller over the speech service and
// preferences.
func (a *appContext) Controller(ctx context.Context, requireKey bool, opts ...audio.Option) (*audio.Controller, error) {
	speech, err := a.Speech(requireKey)
	if err != nil {
		return nil, err
	}
	p, err := a.Prefs()
	if err != nil {
		return nil, err
	}
	factory, err := a.PlayerFactory()
	if err != nil {
		return nil, err
	}
	opts = append([]audio.Option{
		audio.WithLogger(logging.NewComponentLogger(a.Logger(), "audio")),
		audio.WithLatestRequestOnly(),
	}, opts...)
	return audio.NewController(ctx, speech, p, factory, opts...)
}

// Terminal reports the capabilities of stdout.
func (a *appContext) Terminal() progress.TerminalCapabilities {
	if a.caps != nil {
		return *a.caps
	}
	caps := progress.DetectTerminalCapabilities()
	if a.noColor {
		caps.SupportsColor = false
	}
	return caps
}

// Theme returns the saved theme, light when preferences are unavailable.
func (a *appContext) Theme(ctx context.Context) string {
	p, err := a.Prefs()
	if err != nil {
		return string(prefs.ThemeLight)
	}
	theme, err := p.Theme(ctx)
	if err != nil {
		return string(prefs.ThemeLight)
	}
	return string(theme)
}

// Close releases the store.
func (a *appContext) Close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

// isStdinTerminal reports whether keyboard controls can be read.
func isStdinTerminal() bool {
	return isTerminalFd(os.Stdin.Fd())
}
