// Package health_test tests dependency health checks for the doctor command.
// Related: internal/health/health.go
// Tags: health, dependencies, doctor

package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ariel-frischer/changecast/internal/config"
	"github.com/ariel-frischer/changecast/internal/fetch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, changelogURL string) *config.Configuration {
	t.Helper()
	return &config.Configuration{
		ChangelogURL:  changelogURL,
		DataDir:       t.TempDir(),
		PlayerCommand: "none",
		Sources:       map[string]config.ConfigSource{},
	}
}

func TestRunHealthChecks_Offline(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "http://unused.invalid")
	report := RunHealthChecks(context.Background(), cfg, Options{Offline: true})

	names := make([]string, 0, len(report.Checks))
	for _, c := range report.Checks {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Gemini API key", "Data directory", "Audio player"}, names)
	assert.True(t, report.Passed, "a missing API key is optional")
}

func TestRunHealthChecks_Network(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/CHANGELOG.md":
			_, _ = w.Write([]byte("## 1.0.0\n- Added things\n"))
		case "/api/sources":
			_, _ = w.Write([]byte(`[{"id":"cc","name":"Claude Code","url":"u","is_active":true}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	tests := map[string]struct {
		changelogPath string
		registry      bool
		wantChecks    int
		wantPassed    bool
	}{
		"changelog reachable": {
			changelogPath: "/CHANGELOG.md",
			wantChecks:    4,
			wantPassed:    true,
		},
		"changelog missing": {
			changelogPath: "/missing.md",
			wantChecks:    4,
			wantPassed:    false,
		},
		"with registry": {
			changelogPath: "/CHANGELOG.md",
			registry:      true,
			wantChecks:    5,
			wantPassed:    true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig(t, srv.URL+tt.changelogPath)
			if tt.registry {
				cfg.SourcesAPIURL = srv.URL
			}
			report := RunHealthChecks(context.Background(), cfg, Options{Fetcher: fetch.NewClient()})
			require.Len(t, report.Checks, tt.wantChecks)
			assert.Equal(t, tt.wantPassed, report.Passed)
			if tt.registry {
				last := report.Checks[len(report.Checks)-1]
				assert.Equal(t, "Sources registry", last.Name)
				assert.Equal(t, "1 sources, 1 active", last.Message)
			}
		})
	}
}

func TestCheckAPIKey(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		key        string
		source     config.ConfigSource
		wantPassed bool
		wantMsg    string
	}{
		"missing": {
			wantMsg: "not set (analysis and speech disabled)",
		},
		"from env": {
			key:        "secret",
			source:     config.SourceEnv,
			wantPassed: true,
			wantMsg:    "configured (from env)",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := &config.Configuration{GeminiAPIKey: tt.key, Sources: map[string]config.ConfigSource{}}
			if tt.source != "" {
				cfg.Sources["gemini_api_key"] = tt.source
			}
			got := CheckAPIKey(cfg)
			assert.True(t, got.Optional)
			assert.Equal(t, tt.wantPassed, got.Passed)
			assert.Equal(t, tt.wantMsg, got.Message)
		})
	}
}

func TestCheckPlayer(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		command    string
		wantPassed bool
		wantMsg    string
	}{
		"none": {
			command:    "none",
			wantPassed: true,
			wantMsg:    "disabled (silent clock)",
		},
		"missing binary": {
			command: "definitely-not-a-player-xyz --flag",
			wantMsg: "definitely-not-a-player-xyz not found in PATH",
		},
		"unbalanced quotes": {
			command: `ffplay "unterminated`,
			wantMsg: `invalid player command "ffplay \"unterminated"`,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got := CheckPlayer(tt.command)
			assert.Equal(t, "Audio player", got.Name)
			assert.Equal(t, tt.wantPassed, got.Passed)
			assert.Equal(t, tt.wantMsg, got.Message)
		})
	}
}

func TestCheckDataDir(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "changecast.db")
	got := CheckDataDir(path)
	assert.True(t, got.Passed)
	assert.Equal(t, path, got.Message)
}

func TestFormatReport(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		report *HealthReport
		want   string
	}{
		"empty report": {
			report: &HealthReport{},
			want:   "",
		},
		"mixed results": {
			report: &HealthReport{
				Checks: []CheckResult{
					{Name: "Data directory", Passed: true, Message: "/tmp/x.db"},
					{Name: "Gemini API key", Optional: true, Message: "not set"},
					{Name: "Changelog", Message: "404 Not Found"},
				},
			},
			want: "✓ Data directory: /tmp/x.db\n" +
				"○ Gemini API key: not set\n" +
				"✗ Changelog: 404 Not Found\n",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, FormatReport(tt.report))
		})
	}
}
