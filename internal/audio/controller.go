// Package audio drives playback of synthesized changelog summaries: one
// session at a time, a breadcrumb for the last generated clip, and a
// one-shot cache-only restore at startup.
package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ariel-frischer/changecast/internal/cache"
	"github.com/ariel-frischer/changecast/internal/logging"
	"github.com/ariel-frischer/changecast/internal/prefs"
)

// State is the transport state of the session.
type State int

const (
	Idle State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "idle"
	}
}

type restoreGate int

const (
	restoreNotRun restoreGate = iota
	restoreRunning
	restoreDone
)

// Speech produces audio for text, cache first, and reads the cache alone.
type Speech interface {
	Generate(ctx context.Context, text, voice, language string) ([]byte, error)
	Cached(ctx context.Context, fingerprint, voice, language string) ([]byte, bool, error)
}

// Preferences is the persisted state the controller reads at start and
// writes on every user action.
type Preferences interface {
	Voice(ctx context.Context) (string, error)
	SetVoice(ctx context.Context, voice string) error
	Language(ctx context.Context) (string, error)
	SetLanguage(ctx context.Context, language string) error
	PlaybackSpeed(ctx context.Context) (float64, error)
	SetPlaybackSpeed(ctx context.Context, speed float64) error
	LastPlayed(ctx context.Context) (*prefs.LastPlayed, error)
	SetLastPlayed(ctx context.Context, lp prefs.LastPlayed) error
}

// Snapshot is a point-in-time view of the controller.
type Snapshot struct {
	State      State
	Label      string
	Generating string
	Restoring  bool
	Position   time.Duration
	Duration   time.Duration
	Speed      float64
	Voice      string
	Language   string
	Err        error
	SessionID  string
	HasSession bool
}

// IsGenerating reports whether a generation is in flight.
func (s Snapshot) IsGenerating() bool {
	return s.Generating != ""
}

// Option configures a Controller.
type Option func(*Controller)

// WithObserver registers fn to receive a snapshot after every change.
func WithObserver(fn func(Snapshot)) Option {
	return func(c *Controller) {
		c.observer = fn
	}
}

// WithLatestRequestOnly drops generation results that land after a newer
// GenerateAndPlay call was started.
func WithLatestRequestOnly() Option {
	return func(c *Controller) {
		c.latestOnly = true
	}
}

// WithLogger sets the controller logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// session is the loaded clip. gen identifies it in player events.
type session struct {
	id     string
	gen    uint64
	player Player
	data   []byte
}

// Controller is the playback state machine.
type Controller struct {
	speech     Speech
	prefs      Preferences
	newPlayer  PlayerFactory
	logger     *slog.Logger
	observer   func(Snapshot)
	latestOnly bool

	mu         sync.Mutex
	state      State
	label      string
	generating string
	restoring  bool
	gate       restoreGate
	position   time.Duration
	duration   time.Duration
	speed      float64
	voice      string
	language   string
	lastErr    error
	session    *session
	gen        uint64
	seq        uint64

	notifyMu sync.Mutex
}

// NewController reads voice, language and speed from p and returns an idle
// controller.
func NewController(ctx context.Context, speech Speech, p Preferences, newPlayer PlayerFactory, opts ...Option) (*Controller, error) {
	voice, err := p.Voice(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading voice preference: %w", err)
	}
	language, err := p.Language(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading language preference: %w", err)
	}
	speed, err := p.PlaybackSpeed(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading playback speed: %w", err)
	}

	c := &Controller{
		speech:    speech,
		prefs:     p,
		newPlayer: newPlayer,
		logger:    logging.NewNop(),
		voice:     voice,
		language:  language,
		speed:     speed,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Snapshot returns the current view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{
		State:      c.state,
		Label:      c.label,
		Generating: c.generating,
		Restoring:  c.restoring,
		Position:   c.position,
		Duration:   c.duration,
		Speed:      c.speed,
		Voice:      c.voice,
		Language:   c.language,
		Err:        c.lastErr,
	}
	if c.session != nil {
		s.SessionID = c.session.id
		s.HasSession = true
	}
	return s
}

// unlock releases mu and hands the resulting snapshot to the observer.
func (c *Controller) unlock() {
	snap := c.snapshotLocked()
	c.mu.Unlock()
	if c.observer == nil {
		return
	}
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	c.observer(snap)
}

// GenerateAndPlay synthesizes text (cache first) with the current voice and
// language, replaces the session with the result and starts playing it.
// A failed generation leaves the existing session alone; a clip that fails
// to load leaves the controller idle with no session.
func (c *Controller) GenerateAndPlay(ctx context.Context, text, label string) error {
	c.mu.Lock()
	c.generating = label
	c.lastErr = nil
	c.seq++
	token := c.seq
	voice, language := c.voice, c.language
	c.unlock()

	data, genErr := c.speech.Generate(ctx, text, voice, language)

	c.mu.Lock()
	defer c.unlock()

	stale := c.latestOnly && token != c.seq
	if !stale {
		c.generating = ""
	}
	if stale {
		c.logger.Debug("dropping superseded generation", logging.String("label", label))
		return ErrSuperseded
	}
	if genErr != nil {
		err := &AudioError{Op: "generate", Label: label, Err: genErr}
		c.lastErr = err
		return err
	}

	c.releaseLocked()
	if err := c.loadLocked(data, label); err != nil {
		return err
	}

	breadcrumb := prefs.LastPlayed{
		TextHash: cache.Hash(text),
		Voice:    voice,
		Language: language,
		Label:    label,
	}
	if err := c.prefs.SetLastPlayed(ctx, breadcrumb); err != nil {
		c.logger.Warn("failed to persist last played audio", logging.Error(err))
	}
	if err := c.session.player.Play(); err != nil {
		c.state = Paused
		audioErr := &AudioError{Op: "play", Label: label, Err: err}
		c.lastErr = audioErr
		return audioErr
	}
	c.state = Playing
	return nil
}

// Restore loads the clip named by the last-played breadcrumb from the cache
// without playing it. It runs at most once per controller and never
// synthesizes; misses and failures are logged and leave the state alone.
// It reports whether a session was restored.
func (c *Controller) Restore(ctx context.Context) bool {
	c.mu.Lock()
	if c.gate != restoreNotRun {
		c.mu.Unlock()
		return false
	}
	c.gate = restoreRunning
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.gate = restoreDone
		c.restoring = false
		c.unlock()
	}()

	lp, err := c.prefs.LastPlayed(ctx)
	if err != nil {
		c.logger.Warn("failed to read last played audio", logging.Error(err))
		return false
	}
	if lp == nil {
		return false
	}

	c.mu.Lock()
	c.restoring = true
	c.unlock()

	language := lp.Language
	if language == "" {
		language = "en"
	}
	data, ok, err := c.speech.Cached(ctx, lp.TextHash, lp.Voice, language)
	if err != nil {
		c.logger.Warn("failed to restore audio", logging.Error(err))
		return false
	}
	if !ok {
		c.logger.Debug("last played audio not in cache", logging.String("label", lp.Label))
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		c.logger.Debug("skipping restore, a session is already loaded")
		return false
	}
	if err := c.loadLocked(data, lp.Label); err != nil {
		c.logger.Warn("failed to load restored audio", logging.Error(err))
		c.lastErr = nil
		return false
	}
	c.state = Paused
	c.logger.Debug("restored last played audio", logging.String("label", lp.Label))
	return true
}

// Play starts or resumes the session.
func (c *Controller) Play() error {
	c.mu.Lock()
	defer c.unlock()
	if c.session == nil {
		return ErrNoSession
	}
	if err := c.session.player.Play(); err != nil {
		audioErr := &AudioError{Op: "play", Label: c.label, Err: err}
		c.lastErr = audioErr
		return audioErr
	}
	c.state = Playing
	return nil
}

// Pause pauses a playing session, keeping its position.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.unlock()
	if c.session == nil {
		return ErrNoSession
	}
	if c.state != Playing {
		return nil
	}
	if err := c.session.player.Pause(); err != nil {
		return &AudioError{Op: "pause", Label: c.label, Err: err}
	}
	c.position = c.session.player.Position()
	c.state = Paused
	return nil
}

// Stop rewinds the session, clears the label and returns to Idle. The audio
// stays loaded so Play starts it again from the beginning.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.unlock()
	if c.session == nil {
		return ErrNoSession
	}
	if c.state == Idle {
		return nil
	}
	if err := c.session.player.Pause(); err != nil {
		return &AudioError{Op: "stop", Label: c.label, Err: err}
	}
	if err := c.session.player.Seek(0); err != nil {
		return &AudioError{Op: "stop", Label: c.label, Err: err}
	}
	c.state = Idle
	c.label = ""
	c.position = 0
	return nil
}

// Seek moves to position clamped to [0, duration] without changing the
// play state.
func (c *Controller) Seek(position time.Duration) error {
	c.mu.Lock()
	defer c.unlock()
	if c.session == nil {
		return ErrNoSession
	}
	position = clamp(position, c.duration)
	if err := c.session.player.Seek(position); err != nil {
		return &AudioError{Op: "seek", Label: c.label, Err: err}
	}
	c.position = position
	return nil
}

// SetVoice persists voice and uses it for later generations.
func (c *Controller) SetVoice(ctx context.Context, voice string) error {
	if err := c.prefs.SetVoice(ctx, voice); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.unlock()
	c.voice = voice
	return nil
}

// SetLanguage persists language and uses it for later generations.
func (c *Controller) SetLanguage(ctx context.Context, language string) error {
	if err := c.prefs.SetLanguage(ctx, language); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.unlock()
	c.language = language
	return nil
}

// SetSpeed persists speed and applies it to the live session without
// interrupting it.
func (c *Controller) SetSpeed(ctx context.Context, speed float64) error {
	if err := c.prefs.SetPlaybackSpeed(ctx, speed); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.unlock()
	c.speed = speed
	if c.session != nil {
		if err := c.session.player.SetRate(speed); err != nil {
			return &AudioError{Op: "rate", Label: c.label, Err: err}
		}
	}
	return nil
}

// Download writes the loaded audio to filename. It reports false without
// writing when no session is loaded.
func (c *Controller) Download(filename string) (bool, error) {
	c.mu.Lock()
	var data []byte
	if c.session != nil {
		data = c.session.data
	}
	c.mu.Unlock()

	if data == nil {
		return false, nil
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return false, fmt.Errorf("writing %s: %w", filename, err)
	}
	return true, nil
}

// Close releases the session.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.unlock()
	c.releaseLocked()
	c.state = Idle
	c.label = ""
	c.position = 0
	c.duration = 0
	return nil
}

// loadLocked creates a player for data and binds it to label as the new
// session. The caller has already released any previous session.
func (c *Controller) loadLocked(data []byte, label string) error {
	c.gen++
	gen := c.gen
	player := c.newPlayer(Events{
		OnTimeUpdate: func(position time.Duration) { c.onTimeUpdate(gen, position) },
		OnEnded:      func() { c.onEnded(gen) },
		OnError:      func(err error) { c.onError(gen, err) },
	})

	duration, err := player.Load(data)
	if err != nil {
		_ = player.Release()
		c.state = Idle
		c.label = ""
		c.position = 0
		c.duration = 0
		audioErr := &AudioError{Op: "load", Label: label, Err: err}
		c.lastErr = audioErr
		return audioErr
	}
	if err := player.SetRate(c.speed); err != nil {
		c.logger.Warn("failed to apply playback speed", logging.Error(err))
	}

	c.session = &session{id: uuid.NewString(), gen: gen, player: player, data: data}
	c.label = label
	c.position = 0
	c.duration = duration
	c.state = Paused
	return nil
}

// releaseLocked frees the current player exactly once.
func (c *Controller) releaseLocked() {
	if c.session == nil {
		return
	}
	if err := c.session.player.Release(); err != nil && !errors.Is(err, ErrReleased) {
		c.logger.Warn("failed to release player", logging.Error(err))
	}
	c.session = nil
}

func (c *Controller) current(gen uint64) bool {
	return c.session != nil && c.session.gen == gen
}

func (c *Controller) onTimeUpdate(gen uint64, position time.Duration) {
	c.mu.Lock()
	if !c.current(gen) {
		c.mu.Unlock()
		return
	}
	c.position = position
	c.unlock()
}

func (c *Controller) onEnded(gen uint64) {
	c.mu.Lock()
	if !c.current(gen) {
		c.mu.Unlock()
		return
	}
	c.state = Idle
	c.label = ""
	c.position = 0
	c.unlock()
}

func (c *Controller) onError(gen uint64, err error) {
	c.mu.Lock()
	if !c.current(gen) {
		c.mu.Unlock()
		return
	}
	c.logger.Warn("playback failed", logging.Error(err))
	c.lastErr = &AudioError{Op: "play", Label: c.label, Err: err}
	c.state = Idle
	c.label = ""
	c.unlock()
}
