package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ariel-frischer/changecast/internal/audio"
	"github.com/ariel-frischer/changecast/internal/tts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusLine(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		snap audio.Snapshot
		want string
	}{
		"playing": {
			snap: audio.Snapshot{State: audio.Playing, Label: "v1.2.3", Position: 12 * time.Second, Duration: 90 * time.Second, Speed: 1.25},
			want: "▶ v1.2.3  00:12 / 01:30  1.25x",
		},
		"paused": {
			snap: audio.Snapshot{State: audio.Paused, Label: "tldr", Duration: 5 * time.Second, Speed: 1},
			want: "⏸ tldr  00:00 / 00:05  1x",
		},
		"idle without label": {
			snap: audio.Snapshot{State: audio.Idle, Duration: 65 * time.Second, Speed: 0.5},
			want: "■ -  00:00 / 01:05  0.5x",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, statusLine(tt.snap))
		})
	}
}

func TestFormatClock(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		in   time.Duration
		want string
	}{
		"zero":      {in: 0, want: "00:00"},
		"negative":  {in: -time.Second, want: "00:00"},
		"truncates": {in: 1999 * time.Millisecond, want: "00:01"},
		"minutes":   {in: 125 * time.Second, want: "02:05"},
		"long":      {in: 75 * time.Minute, want: "75:00"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, formatClock(tt.in))
		})
	}
}

func TestFormatSpeed(t *testing.T) {
	t.Parallel()

	tests := map[float64]string{
		1:    "1",
		1.5:  "1.5",
		1.25: "1.25",
		0.75: "0.75",
		4:    "4",
	}
	for in, want := range tests {
		assert.Equal(t, want, formatSpeed(in))
	}
}

func TestDownloadName(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		source string
		latest string
		label  string
		want   string
	}{
		"version":      {source: "Claude Code", latest: "1.2.3", label: "v1.2.3", want: "claude-code-1.2.3-v1.2.3.wav"},
		"tldr":         {source: "CHANGELOG.md", latest: "2.0.0", label: "tldr", want: "changelog.md-2.0.0-tldr.wav"},
		"odd chars":    {source: "  My/Tool!! ", latest: "", label: "v1", want: "my-tool-v1.wav"},
		"all empty":    {want: "audio.wav"},
		"only symbols": {source: "***", label: "???", want: "audio.wav"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, downloadName(tt.source, tt.latest, tt.label))
		})
	}
}

// newLoadedController returns a controller playing a 30 second clip whose
// clock only moves on seek.
func newLoadedController(t *testing.T) *audio.Controller {
	t.Helper()
	env := newTestEnv(t)
	env.cfg.GeminiBaseURL = newFakeGemini(t, 30*time.Second).srv.URL
	frozen := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	env.app.playerFactory = audio.ClockPlayerFactory(
		audio.WithTickInterval(0),
		audio.WithClock(func() time.Time { return frozen }),
	)

	ctx := context.Background()
	ctrl, err := env.app.Controller(ctx, true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctrl.Close() })

	require.NoError(t, ctrl.GenerateAndPlay(ctx, "hello", "v1.2.3"))
	require.Equal(t, audio.Playing, ctrl.Snapshot().State)
	require.Equal(t, 30*time.Second, ctrl.Snapshot().Duration)
	return ctrl
}

func TestHandleKey(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		keys      string
		wantQuit  bool
		wantState audio.State
		wantPos   time.Duration
		wantSpeed float64
	}{
		"space pauses":        {keys: " ", wantState: audio.Paused, wantSpeed: 1},
		"space twice resumes": {keys: "  ", wantState: audio.Playing, wantSpeed: 1},
		"p toggles":           {keys: "p", wantState: audio.Paused, wantSpeed: 1},
		"seek forward":        {keys: "l", wantState: audio.Playing, wantPos: 10 * time.Second, wantSpeed: 1},
		"seek clamps to end":  {keys: "llll", wantState: audio.Playing, wantPos: 30 * time.Second, wantSpeed: 1},
		"seek back":           {keys: "llh", wantState: audio.Playing, wantPos: 10 * time.Second, wantSpeed: 1},
		"seek back clamps":    {keys: "h", wantState: audio.Playing, wantSpeed: 1},
		"rewind":              {keys: "ll0", wantState: audio.Playing, wantSpeed: 1},
		"faster":              {keys: "++", wantState: audio.Playing, wantSpeed: 1.5},
		"slower":              {keys: "-", wantState: audio.Playing, wantSpeed: 0.75},
		"slowest":             {keys: "-----", wantState: audio.Playing, wantSpeed: 0.25},
		"stop":                {keys: "s", wantState: audio.Idle, wantSpeed: 1},
		"unknown key":         {keys: "x", wantState: audio.Playing, wantSpeed: 1},
		"quit":                {keys: "q", wantQuit: true, wantState: audio.Playing, wantSpeed: 1},
		"ctrl-c":              {keys: "\x03", wantQuit: true, wantState: audio.Playing, wantSpeed: 1},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ctrl := newLoadedController(t)
			var quit bool
			for i := range len(tt.keys) {
				var err error
				quit, err = handleKey(context.Background(), ctrl, tt.keys[i])
				require.NoError(t, err)
			}

			snap := ctrl.Snapshot()
			assert.Equal(t, tt.wantQuit, quit)
			assert.Equal(t, tt.wantState, snap.State)
			assert.Equal(t, tt.wantPos, snap.Position)
			assert.InDelta(t, tt.wantSpeed, snap.Speed, 0.0001)
		})
	}
}

func TestRunSpeak(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	cmd, _, _ := newTestCmd()
	require.NoError(t, runSpeak(cmd, env.app, originFlags{}, speakOptions{}))
	assert.Equal(t, int32(1), env.gemini.ttsCalls.Load())

	p, err := env.app.Prefs()
	require.NoError(t, err)
	lp, err := p.LastPlayed(context.Background())
	require.NoError(t, err)
	require.NotNil(t, lp)
	assert.Equal(t, "v1.2.3", lp.Label)
	assert.Equal(t, "Charon", lp.Voice)

	t.Run("resume replays from the cache", func(t *testing.T) {
		cmd, out, _ := newTestCmd()
		require.NoError(t, runResume(cmd, env.app))
		assert.Contains(t, out.String(), "Playing v1.2.3")
		assert.Equal(t, int32(1), env.gemini.ttsCalls.Load())
	})

	t.Run("same text again is cached", func(t *testing.T) {
		cmd, _, _ := newTestCmd()
		require.NoError(t, runSpeak(cmd, env.app, originFlags{}, speakOptions{version: "1.2.3"}))
		assert.Equal(t, int32(1), env.gemini.ttsCalls.Load())
	})
}

func TestRunSpeak_DownloadOnly(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	path := filepath.Join(t.TempDir(), "notes.wav")
	cmd, _, errOut := newTestCmd()

	opts := speakOptions{version: "1.2.2", output: path, noPlay: true, voice: "Puck", speed: 1.5}
	require.NoError(t, runSpeak(cmd, env.app, originFlags{}, opts))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	d, err := tts.WAVDuration(data)
	require.NoError(t, err)
	assert.Equal(t, 50*time.Millisecond, d)
	assert.Contains(t, errOut.String(), "Saved "+path)

	p, err := env.app.Prefs()
	require.NoError(t, err)
	voice, err := p.Voice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Puck", voice)
	speed, err := p.PlaybackSpeed(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 1.5, speed, 0.0001)
}

func TestRunSpeak_TLDR(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	path := filepath.Join(t.TempDir(), "tldr.wav")
	cmd, _, _ := newTestCmd()
	require.NoError(t, runSpeak(cmd, env.app, originFlags{}, speakOptions{tldr: true, output: path, noPlay: true}))

	assert.Equal(t, int32(1), env.gemini.analysisCalls.Load())
	assert.Equal(t, int32(1), env.gemini.ttsCalls.Load())
	assert.FileExists(t, path)
}

func TestRunSpeak_Errors(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		opts     speakOptions
		noKey    bool
		wantCode int
	}{
		"tldr with version": {opts: speakOptions{tldr: true, version: "1.2.3"}, wantCode: ExitInvalidArguments},
		"unknown version":   {opts: speakOptions{version: "9.9.9"}, wantCode: ExitInvalidArguments},
		"unknown voice":     {opts: speakOptions{voice: "Nobody"}, wantCode: ExitInvalidArguments},
		"bad language":      {opts: speakOptions{language: "fr"}, wantCode: ExitInvalidArguments},
		"speed too high":    {opts: speakOptions{speed: 8}, wantCode: ExitInvalidArguments},
		"missing api key":   {noKey: true, wantCode: ExitMissingDependency},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t)
			if tt.noKey {
				env.cfg.GeminiAPIKey = ""
			}
			cmd, _, _ := newTestCmd()
			err := runSpeak(cmd, env.app, originFlags{}, tt.opts)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, exitCodeFor(err))
			assert.Zero(t, env.gemini.ttsCalls.Load())
		})
	}
}

func TestRunResume_NothingSaved(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.cfg.GeminiAPIKey = ""
	cmd, out, _ := newTestCmd()
	require.NoError(t, runResume(cmd, env.app))
	assert.Equal(t, "Nothing to resume.\n", out.String())
}
