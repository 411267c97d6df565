package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ariel-frischer/changecast/internal/logging"
	"golang.org/x/term"
)

// Handler dispatches notifications according to Config. When disabled,
// in CI, or without a terminal every call is a no-op.
type Handler struct {
	config      Config
	sender      Sender
	logger      *slog.Logger
	interactive func() bool
}

// Option configures a Handler.
type Option func(*Handler)

// WithSender replaces the OS sender.
func WithSender(s Sender) Option {
	return func(h *Handler) {
		h.sender = s
	}
}

// WithLogger sets the handler logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithInteractive overrides terminal detection.
func WithInteractive(fn func() bool) Option {
	return func(h *Handler) {
		h.interactive = fn
	}
}

// NewHandler creates a handler for config.
func NewHandler(config Config, opts ...Option) *Handler {
	if !ValidOutputType(string(config.Type)) {
		config.Type = OutputBoth
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	h := &Handler{
		config:      config,
		sender:      NewSender(),
		logger:      logging.NewNop(),
		interactive: isInteractive,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Enabled reports whether notifications will be sent.
func (h *Handler) Enabled() bool {
	if !h.config.Enabled {
		return false
	}
	if isCI() {
		h.logger.Debug("notifications skipped in CI")
		return false
	}
	if !h.interactive() {
		h.logger.Debug("notifications skipped without a terminal")
		return false
	}
	return true
}

// OnNewVersions notifies about versions published by source, oldest first.
func (h *Handler) OnNewVersions(ctx context.Context, source string, versions []string) {
	if len(versions) == 0 || !h.Enabled() {
		return
	}
	title := fmt.Sprintf("%s: new version", source)
	if len(versions) > 1 {
		title = fmt.Sprintf("%s: %d new versions", source, len(versions))
	}
	h.dispatch(ctx, Notification{Title: title, Message: strings.Join(versions, ", ")})
}

// dispatch sends n within the configured timeout. Failures are logged only.
func (h *Handler) dispatch(ctx context.Context, n Notification) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	if h.config.Type == OutputVisual || h.config.Type == OutputBoth {
		if err := h.sender.SendVisual(ctx, n); err != nil {
			h.logger.Debug("visual notification failed", logging.Error(err))
		}
	}
	if h.config.Type == OutputSound || h.config.Type == OutputBoth {
		if err := h.sender.SendSound(ctx, h.config.SoundFile); err != nil {
			h.logger.Debug("sound notification failed", logging.Error(err))
		}
	}
}

// isCI checks for common CI environment variables.
func isCI() bool {
	ciVars := []string{
		"CI",
		"GITHUB_ACTIONS",
		"GITLAB_CI",
		"CIRCLECI",
		"TRAVIS",
		"JENKINS_URL",
		"BUILDKITE",
		"DRONE",
		"TEAMCITY_VERSION",
		"TF_BUILD",            // Azure DevOps
		"BITBUCKET_PIPELINES", // Bitbucket
		"CODEBUILD_BUILD_ID",  // AWS CodeBuild
	}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			return true
		}
	}
	return false
}

// isInteractive checks stdout first since stdin is often piped.
func isInteractive() bool {
	for _, f := range []*os.File{os.Stdout, os.Stderr, os.Stdin} {
		if term.IsTerminal(int(f.Fd())) {
			return true
		}
	}
	return false
}
