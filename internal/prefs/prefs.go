// Package prefs persists user preferences in the durable store under the
// same keys the web client used, so a shared data directory stays readable
// by both.
package prefs

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/ariel-frischer/changecast/internal/tts"
)

// Storage keys.
const (
	KeyTheme            = "theme"
	KeyDefaultTheme     = "defaultTheme"
	KeyRefreshInterval  = "refreshInterval"
	KeySelectedSourceID = "selectedSourceId"
	KeyVoice            = "voicePreference"
	KeyLanguage         = "ttsLanguage"
	KeyPlaybackSpeed    = "playbackSpeed"
	KeyLastPlayed       = "lastPlayedAudio"
)

const (
	DefaultSpeed = 1.0
	MaxSpeed     = 4.0
)

// Theme is the terminal color palette.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme validates a theme name.
func ParseTheme(s string) (Theme, error) {
	switch Theme(s) {
	case ThemeLight, ThemeDark:
		return Theme(s), nil
	default:
		return "", fmt.Errorf("unknown theme %q (valid: light, dark)", s)
	}
}

// LastPlayed is the breadcrumb identifying the most recently generated clip.
type LastPlayed struct {
	TextHash string `json:"textHash"`
	Voice    string `json:"voice"`
	Language string `json:"language"`
	Label    string `json:"label"`
}

// KV is the subset of the store preferences need.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Preferences reads and writes user preferences.
type Preferences struct {
	kv           KV
	defaultVoice string
}

// Option configures Preferences.
type Option func(*Preferences)

// WithDefaultVoice sets the voice used when none is saved.
func WithDefaultVoice(voice string) Option {
	return func(p *Preferences) {
		if voice != "" {
			p.defaultVoice = voice
		}
	}
}

// New returns preferences backed by kv.
func New(kv KV, opts ...Option) *Preferences {
	p := &Preferences{kv: kv, defaultVoice: tts.DefaultVoice}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Preferences) getString(ctx context.Context, key string) (string, error) {
	value, ok, err := p.kv.Get(ctx, key)
	if err != nil || !ok {
		return "", err
	}
	return string(value), nil
}

func (p *Preferences) setString(ctx context.Context, key, value string) error {
	return p.kv.Set(ctx, key, []byte(value))
}

// Theme resolves the active theme: saved theme, then default theme, then light.
func (p *Preferences) Theme(ctx context.Context) (Theme, error) {
	for _, key := range []string{KeyTheme, KeyDefaultTheme} {
		saved, err := p.getString(ctx, key)
		if err != nil {
			return "", err
		}
		if theme, parseErr := ParseTheme(saved); parseErr == nil {
			return theme, nil
		}
	}
	return ThemeLight, nil
}

// SetTheme saves the active theme.
func (p *Preferences) SetTheme(ctx context.Context, theme Theme) error {
	if _, err := ParseTheme(string(theme)); err != nil {
		return err
	}
	return p.setString(ctx, KeyTheme, string(theme))
}

// ToggleTheme flips between light and dark and returns the new theme.
func (p *Preferences) ToggleTheme(ctx context.Context) (Theme, error) {
	current, err := p.Theme(ctx)
	if err != nil {
		return "", err
	}
	next := ThemeDark
	if current == ThemeDark {
		next = ThemeLight
	}
	return next, p.SetTheme(ctx, next)
}

// DefaultTheme returns the saved default theme, light when unset.
func (p *Preferences) DefaultTheme(ctx context.Context) (Theme, error) {
	saved, err := p.getString(ctx, KeyDefaultTheme)
	if err != nil {
		return "", err
	}
	if theme, parseErr := ParseTheme(saved); parseErr == nil {
		return theme, nil
	}
	return ThemeLight, nil
}

// SetDefaultTheme saves the theme used when no theme has been chosen.
func (p *Preferences) SetDefaultTheme(ctx context.Context, theme Theme) error {
	if _, err := ParseTheme(string(theme)); err != nil {
		return err
	}
	return p.setString(ctx, KeyDefaultTheme, string(theme))
}

// RefreshInterval returns the auto-refresh period. Zero disables auto-refresh.
// The value is stored in milliseconds.
func (p *Preferences) RefreshInterval(ctx context.Context) (time.Duration, error) {
	saved, err := p.getString(ctx, KeyRefreshInterval)
	if err != nil || saved == "" {
		return 0, err
	}
	ms, parseErr := strconv.ParseInt(saved, 10, 64)
	if parseErr != nil || ms < 0 {
		return 0, nil
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// SetRefreshInterval saves the auto-refresh period.
func (p *Preferences) SetRefreshInterval(ctx context.Context, d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("refresh interval must not be negative")
	}
	return p.setString(ctx, KeyRefreshInterval, strconv.FormatInt(d.Milliseconds(), 10))
}

// SelectedSourceID returns the selected registry source, empty for the default changelog.
func (p *Preferences) SelectedSourceID(ctx context.Context) (string, error) {
	return p.getString(ctx, KeySelectedSourceID)
}

// SetSelectedSourceID saves the selected source. An empty id clears the selection.
func (p *Preferences) SetSelectedSourceID(ctx context.Context, id string) error {
	if id == "" {
		return p.kv.Delete(ctx, KeySelectedSourceID)
	}
	return p.setString(ctx, KeySelectedSourceID, id)
}

// Voice returns the saved voice, then the configured default, then Charon.
func (p *Preferences) Voice(ctx context.Context) (string, error) {
	saved, err := p.getString(ctx, KeyVoice)
	if err != nil {
		return "", err
	}
	if saved != "" && tts.IsValidVoice(saved) {
		return saved, nil
	}
	return p.defaultVoice, nil
}

// SetVoice saves the voice preference.
func (p *Preferences) SetVoice(ctx context.Context, voice string) error {
	if !tts.IsValidVoice(voice) {
		return fmt.Errorf("unknown voice %q", voice)
	}
	return p.setString(ctx, KeyVoice, voice)
}

// Language returns the saved speech language, en when unset.
func (p *Preferences) Language(ctx context.Context) (string, error) {
	saved, err := p.getString(ctx, KeyLanguage)
	if err != nil {
		return "", err
	}
	if tts.IsValidLanguage(saved) {
		return saved, nil
	}
	return tts.DefaultLanguage, nil
}

// SetLanguage saves the speech language.
func (p *Preferences) SetLanguage(ctx context.Context, language string) error {
	if !tts.IsValidLanguage(language) {
		return fmt.Errorf("unknown language %q", language)
	}
	return p.setString(ctx, KeyLanguage, language)
}

// PlaybackSpeed returns the saved playback rate, 1 when unset or malformed.
func (p *Preferences) PlaybackSpeed(ctx context.Context) (float64, error) {
	saved, err := p.getString(ctx, KeyPlaybackSpeed)
	if err != nil || saved == "" {
		return DefaultSpeed, err
	}
	speed, parseErr := strconv.ParseFloat(saved, 64)
	if parseErr != nil || !ValidSpeed(speed) {
		return DefaultSpeed, nil
	}
	return speed, nil
}

// SetPlaybackSpeed saves the playback rate.
func (p *Preferences) SetPlaybackSpeed(ctx context.Context, speed float64) error {
	if !ValidSpeed(speed) {
		return fmt.Errorf("speed must be greater than 0 and at most %g", MaxSpeed)
	}
	return p.setString(ctx, KeyPlaybackSpeed, strconv.FormatFloat(speed, 'f', -1, 64))
}

// ValidSpeed reports whether speed is an accepted playback rate.
func ValidSpeed(speed float64) bool {
	return speed > 0 && speed <= MaxSpeed
}

// LastPlayed returns the breadcrumb, or nil when none is saved.
func (p *Preferences) LastPlayed(ctx context.Context) (*LastPlayed, error) {
	value, ok, err := p.kv.Get(ctx, KeyLastPlayed)
	if err != nil || !ok {
		return nil, err
	}
	var lp LastPlayed
	if err := json.Unmarshal(value, &lp); err != nil {
		return nil, fmt.Errorf("decode %s: %w", KeyLastPlayed, err)
	}
	return &lp, nil
}

// SetLastPlayed replaces the breadcrumb.
func (p *Preferences) SetLastPlayed(ctx context.Context, lp LastPlayed) error {
	data, err := json.Marshal(lp)
	if err != nil {
		return fmt.Errorf("encode %s: %w", KeyLastPlayed, err)
	}
	return p.kv.Set(ctx, KeyLastPlayed, data)
}

// Snapshot is every preference resolved at once.
type Snapshot struct {
	Theme            Theme
	DefaultTheme     Theme
	RefreshInterval  time.Duration
	SelectedSourceID string
	Voice            string
	Language         string
	PlaybackSpeed    float64
	LastPlayed       *LastPlayed
}

// Load resolves all preferences.
func (p *Preferences) Load(ctx context.Context) (Snapshot, error) {
	var (
		s   Snapshot
		err error
	)
	if s.Theme, err = p.Theme(ctx); err != nil {
		return s, err
	}
	if s.DefaultTheme, err = p.DefaultTheme(ctx); err != nil {
		return s, err
	}
	if s.RefreshInterval, err = p.RefreshInterval(ctx); err != nil {
		return s, err
	}
	if s.SelectedSourceID, err = p.SelectedSourceID(ctx); err != nil {
		return s, err
	}
	if s.Voice, err = p.Voice(ctx); err != nil {
		return s, err
	}
	if s.Language, err = p.Language(ctx); err != nil {
		return s, err
	}
	if s.PlaybackSpeed, err = p.PlaybackSpeed(ctx); err != nil {
		return s, err
	}
	// A corrupt breadcrumb is reported as absent.
	s.LastPlayed, _ = p.LastPlayed(ctx)
	return s, nil
}
