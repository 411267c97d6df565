package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu      sync.Mutex
	visuals []Notification
	sounds  []string
	err     error
}

func (s *recordingSender) SendVisual(_ context.Context, n Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visuals = append(s.visuals, n)
	return s.err
}

func (s *recordingSender) SendSound(_ context.Context, file string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sounds = append(s.sounds, file)
	return s.err
}

func clearCI(t *testing.T) {
	t.Helper()
	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "CIRCLECI", "TRAVIS", "JENKINS_URL",
		"BUILDKITE", "DRONE", "TEAMCITY_VERSION", "TF_BUILD", "BITBUCKET_PIPELINES", "CODEBUILD_BUILD_ID"} {
		t.Setenv(v, "")
	}
}

func interactive(v bool) Option {
	return WithInteractive(func() bool { return v })
}

func TestOnNewVersions(t *testing.T) {
	clearCI(t)

	tests := map[string]struct {
		config      Config
		interactive bool
		versions    []string
		wantVisual  []Notification
		wantSounds  []string
	}{
		"disabled": {
			config:      Config{Enabled: false, Type: OutputBoth},
			interactive: true,
			versions:    []string{"1.0.0"},
		},
		"no terminal": {
			config:   Config{Enabled: true, Type: OutputBoth},
			versions: []string{"1.0.0"},
		},
		"no versions": {
			config:      Config{Enabled: true, Type: OutputBoth},
			interactive: true,
		},
		"one version both outputs": {
			config:      Config{Enabled: true, Type: OutputBoth, SoundFile: "ding.wav"},
			interactive: true,
			versions:    []string{"1.0.0"},
			wantVisual:  []Notification{{Title: "Tool: new version", Message: "1.0.0"}},
			wantSounds:  []string{"ding.wav"},
		},
		"several versions visual only": {
			config:      Config{Enabled: true, Type: OutputVisual},
			interactive: true,
			versions:    []string{"1.0.0", "1.1.0"},
			wantVisual:  []Notification{{Title: "Tool: 2 new versions", Message: "1.0.0, 1.1.0"}},
		},
		"sound only": {
			config:      Config{Enabled: true, Type: OutputSound},
			interactive: true,
			versions:    []string{"2.0.0"},
			wantSounds:  []string{""},
		},
		"invalid type falls back to both": {
			config:      Config{Enabled: true, Type: "loud"},
			interactive: true,
			versions:    []string{"2.0.0"},
			wantVisual:  []Notification{{Title: "Tool: new version", Message: "2.0.0"}},
			wantSounds:  []string{""},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			sender := &recordingSender{}
			h := NewHandler(tt.config, WithSender(sender), interactive(tt.interactive))
			h.OnNewVersions(context.Background(), "Tool", tt.versions)

			assert.Equal(t, tt.wantVisual, sender.visuals)
			assert.Equal(t, tt.wantSounds, sender.sounds)
		})
	}
}

func TestEnabled_CI(t *testing.T) {
	clearCI(t)
	t.Setenv("GITHUB_ACTIONS", "true")

	h := NewHandler(Config{Enabled: true}, WithSender(&recordingSender{}), interactive(true))
	assert.False(t, h.Enabled())
}

func TestSenderFailureIsIgnored(t *testing.T) {
	clearCI(t)

	sender := &recordingSender{err: errors.New("no display")}
	h := NewHandler(Config{Enabled: true, Type: OutputBoth}, WithSender(sender), interactive(true))
	h.OnNewVersions(context.Background(), "Tool", []string{"1.0.0"})

	require.Len(t, sender.visuals, 1)
	require.Len(t, sender.sounds, 1)
}

func TestValidOutputType(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"sound", "visual", "both"} {
		assert.True(t, ValidOutputType(s), s)
	}
	for _, s := range []string{"", "Both", "loud"} {
		assert.False(t, ValidOutputType(s), s)
	}
}

func TestAppleQuote(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `"plain"`, appleQuote("plain"))
	assert.Equal(t, `"say \"hi\" \\ bye"`, appleQuote(`say "hi" \ bye`))
}
