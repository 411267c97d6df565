package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ariel-frischer/changecast/internal/audio"
	"github.com/ariel-frischer/changecast/internal/config"
	"github.com/ariel-frischer/changecast/internal/logging"
	"github.com/ariel-frischer/changecast/internal/progress"
	"github.com/ariel-frischer/changecast/internal/sources"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

const testChangelog = `# Changelog

## 1.2.3 - 2024-03-01
- Fixed a crash on startup
- Added new login flow

## 1.2.2 - 2024-02-01
- Removed support for Node 16

## 1.2.1
- Improved docs
`

const testAnalysis = `{
  "tldr": "Login got easier and a startup crash is gone.",
  "categories": {
    "critical_breaking_changes": [],
    "removals": [{"feature": "Node 16", "severity": "high", "why": "end of life"}],
    "major_features": ["New login flow"],
    "important_fixes": ["Startup crash"],
    "new_slash_commands": [],
    "terminal_improvements": [],
    "api_changes": []
  },
  "action_items": ["Upgrade Node"],
  "sentiment": "positive"
}`

// fakeGemini answers the analysis and speech models.
type fakeGemini struct {
	srv           *httptest.Server
	clip          time.Duration
	ttsCalls      atomic.Int32
	analysisCalls atomic.Int32
}

func newFakeGemini(t *testing.T, clip time.Duration) *fakeGemini {
	t.Helper()
	f := &fakeGemini{clip: clip}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var part map[string]any
		switch {
		case strings.Contains(r.URL.Path, "tts-model"):
			f.ttsCalls.Add(1)
			samples := int(f.clip.Milliseconds()) * 24
			part = map[string]any{"inlineData": map[string]any{
				"mimeType": "audio/L16;codec=pcm;rate=24000",
				"data":     base64.StdEncoding.EncodeToString(make([]byte, samples*2)),
			}}
		case strings.Contains(r.URL.Path, "analysis-model"):
			f.analysisCalls.Add(1)
			part = map[string]any{"text": testAnalysis}
		default:
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{"parts": []any{part}},
			}},
		})
	}))
	t.Cleanup(f.srv.Close)
	return f
}

// newUpstream serves markdown at /CHANGELOG.md.
func newUpstream(t *testing.T, markdown string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/CHANGELOG.md", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(markdown))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// newRegistry serves a sources registry with list.
func newRegistry(t *testing.T, list []sources.Source, changelogs map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/sources", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(list)
	})
	mux.HandleFunc("/api/sources/{id}/changelog", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		for _, s := range list {
			if s.ID == id {
				_ = json.NewEncoder(w).Encode(sources.ChangelogResponse{Markdown: changelogs[id], Source: s})
				return
			}
		}
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type testEnv struct {
	app      *appContext
	cfg      *config.Configuration
	gemini   *fakeGemini
	upstream *httptest.Server
}

// newTestEnv builds an app reading testChangelog from a local upstream,
// with a fake Gemini, a temp data directory and a silent clock player.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gemini := newFakeGemini(t, 50*time.Millisecond)
	upstream := newUpstream(t, testChangelog)

	cfg := &config.Configuration{
		ChangelogURL:     upstream.URL + "/CHANGELOG.md",
		DataDir:          t.TempDir(),
		FetchMaxAttempts: 1,
		GeminiAPIKey:     "test-key",
		GeminiBaseURL:    gemini.srv.URL,
		AnalysisModel:    "analysis-model",
		TTSModel:         "tts-model",
		DefaultVoice:     "Charon",
		PlayerCommand:    "none",
		LogLevel:         "error",
		LogFormat:        "console",
	}
	a := withConfig(cfg)
	a.logger = logging.NewNop()
	a.caps = &progress.TerminalCapabilities{}
	a.playerFactory = audio.ClockPlayerFactory(audio.WithTickInterval(5 * time.Millisecond))
	t.Cleanup(func() { _ = a.Close() })

	return &testEnv{app: a, cfg: cfg, gemini: gemini, upstream: upstream}
}

// newTestCmd returns a command with captured stdout and stderr.
func newTestCmd() (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	cmd := &cobra.Command{Use: "test"}
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetContext(context.Background())
	return cmd, &out, &errOut
}
