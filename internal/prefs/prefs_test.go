package prefs

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/changecast/internal/store"
)

func newTestPrefs(t *testing.T, opts ...Option) (*Preferences, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "prefs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return New(s, opts...), s
}

func TestTheme_Resolution(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		saved        string
		defaultTheme string
		want         Theme
	}{
		"nothing saved":         {want: ThemeLight},
		"default theme only":    {defaultTheme: "dark", want: ThemeDark},
		"saved wins":            {saved: "light", defaultTheme: "dark", want: ThemeLight},
		"garbage falls through": {saved: "purple", defaultTheme: "dark", want: ThemeDark},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			p, s := newTestPrefs(t)
			ctx := context.Background()
			if tt.saved != "" {
				require.NoError(t, s.Set(ctx, KeyTheme, []byte(tt.saved)))
			}
			if tt.defaultTheme != "" {
				require.NoError(t, s.Set(ctx, KeyDefaultTheme, []byte(tt.defaultTheme)))
			}

			got, err := p.Theme(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToggleTheme(t *testing.T) {
	t.Parallel()
	p, _ := newTestPrefs(t)
	ctx := context.Background()

	next, err := p.ToggleTheme(ctx)
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, next)

	next, err = p.ToggleTheme(ctx)
	require.NoError(t, err)
	assert.Equal(t, ThemeLight, next)

	assert.Error(t, p.SetTheme(ctx, "sepia"))
}

func TestVoice_Fallbacks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	p, _ := newTestPrefs(t)
	voice, err := p.Voice(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Charon", voice)

	configured, _ := newTestPrefs(t, WithDefaultVoice("Puck"))
	voice, err = configured.Voice(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Puck", voice)

	require.NoError(t, configured.SetVoice(ctx, "Kore"))
	voice, err = configured.Voice(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Kore", voice)

	assert.Error(t, configured.SetVoice(ctx, "kore"))
}

func TestLanguageAndSpeed(t *testing.T) {
	t.Parallel()
	p, s := newTestPrefs(t)
	ctx := context.Background()

	lang, err := p.Language(ctx)
	require.NoError(t, err)
	assert.Equal(t, "en", lang)
	require.NoError(t, p.SetLanguage(ctx, "cmn"))
	lang, err = p.Language(ctx)
	require.NoError(t, err)
	assert.Equal(t, "cmn", lang)
	assert.Error(t, p.SetLanguage(ctx, "fr"))

	speed, err := p.PlaybackSpeed(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, speed, 1e-9)

	require.NoError(t, p.SetPlaybackSpeed(ctx, 1.5))
	raw, _, err := s.Get(ctx, KeyPlaybackSpeed)
	require.NoError(t, err)
	assert.Equal(t, "1.5", string(raw))

	require.NoError(t, s.Set(ctx, KeyPlaybackSpeed, []byte("fast")))
	speed, err = p.PlaybackSpeed(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, speed, 1e-9)

	assert.Error(t, p.SetPlaybackSpeed(ctx, 0))
	assert.Error(t, p.SetPlaybackSpeed(ctx, 5))
}

func TestRefreshInterval_StoredInMilliseconds(t *testing.T) {
	t.Parallel()
	p, s := newTestPrefs(t)
	ctx := context.Background()

	d, err := p.RefreshInterval(ctx)
	require.NoError(t, err)
	assert.Zero(t, d)

	require.NoError(t, p.SetRefreshInterval(ctx, 5*time.Minute))
	raw, _, err := s.Get(ctx, KeyRefreshInterval)
	require.NoError(t, err)
	assert.Equal(t, "300000", string(raw))

	d, err = p.RefreshInterval(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, d)
}

func TestSelectedSourceID_EmptyClears(t *testing.T) {
	t.Parallel()
	p, s := newTestPrefs(t)
	ctx := context.Background()

	require.NoError(t, p.SetSelectedSourceID(ctx, "src-1"))
	id, err := p.SelectedSourceID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "src-1", id)

	require.NoError(t, p.SetSelectedSourceID(ctx, ""))
	_, ok, err := s.Get(ctx, KeySelectedSourceID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLastPlayed_JSONShape(t *testing.T) {
	t.Parallel()
	p, s := newTestPrefs(t)
	ctx := context.Background()

	lp, err := p.LastPlayed(ctx)
	require.NoError(t, err)
	assert.Nil(t, lp)

	want := LastPlayed{TextHash: "abc", Voice: "Charon", Language: "en", Label: "v1.2.3"}
	require.NoError(t, p.SetLastPlayed(ctx, want))

	raw, _, err := s.Get(ctx, KeyLastPlayed)
	require.NoError(t, err)
	assert.JSONEq(t, `{"textHash":"abc","voice":"Charon","language":"en","label":"v1.2.3"}`, string(raw))

	lp, err = p.LastPlayed(ctx)
	require.NoError(t, err)
	assert.Equal(t, &want, lp)

	require.NoError(t, s.Set(ctx, KeyLastPlayed, []byte("{not json")))
	_, err = p.LastPlayed(ctx)
	assert.Error(t, err)

	snap, err := p.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap.LastPlayed)
	assert.Equal(t, "Charon", snap.Voice)
}
