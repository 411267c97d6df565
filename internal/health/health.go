// Package health provides dependency health checks for changecast. It validates
// the configuration, the local data directory, the audio player and the remote
// endpoints, returning structured reports used by the 'changecast doctor' command.
package health

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ariel-frischer/changecast/internal/config"
	"github.com/ariel-frischer/changecast/internal/fetch"
	"github.com/ariel-frischer/changecast/internal/sources"
	"github.com/ariel-frischer/changecast/internal/store"
	"github.com/google/shlex"
)

// CheckResult represents the result of a single health check
type CheckResult struct {
	Name    string
	Passed  bool
	Message string
	// Optional checks are reported but do not fail the report.
	Optional bool
}

// HealthReport contains all health check results
type HealthReport struct {
	Checks []CheckResult
	Passed bool
}

// Options selects which checks run.
type Options struct {
	// Offline skips the network checks.
	Offline bool
	// Fetcher is used for the network checks. Defaults to fetch.NewClient().
	Fetcher *fetch.Client
}

// RunHealthChecks runs all health checks for cfg and returns a report.
func RunHealthChecks(ctx context.Context, cfg *config.Configuration, opts Options) *HealthReport {
	report := &HealthReport{
		Checks: make([]CheckResult, 0, 6),
		Passed: true,
	}
	add := func(c CheckResult) {
		report.Checks = append(report.Checks, c)
		if !c.Passed && !c.Optional {
			report.Passed = false
		}
	}

	add(CheckAPIKey(cfg))
	add(CheckDataDir(cfg.DatabasePath()))
	add(CheckPlayer(cfg.PlayerCommand))

	if !opts.Offline {
		fetcher := opts.Fetcher
		if fetcher == nil {
			fetcher = fetch.NewClient()
		}
		add(CheckChangelog(ctx, fetcher, cfg.ChangelogURL))
		if cfg.SourcesAPIURL != "" {
			add(CheckRegistry(ctx, sources.NewClient(cfg.SourcesAPIURL, sources.WithFetcher(fetcher))))
		}
	}

	return report
}

// FormatReport formats the health report for console output
func FormatReport(report *HealthReport) string {
	var sb strings.Builder
	for _, check := range report.Checks {
		mark := "✓"
		switch {
		case check.Passed:
		case check.Optional:
			mark = "○"
		default:
			mark = "✗"
		}
		fmt.Fprintf(&sb, "%s %s: %s\n", mark, check.Name, check.Message)
	}
	return sb.String()
}

// CheckAPIKey reports whether Gemini analysis and speech can run.
func CheckAPIKey(cfg *config.Configuration) CheckResult {
	result := CheckResult{Name: "Gemini API key", Optional: true}
	if !cfg.HasAPIKey() {
		result.Message = "not set (analysis and speech disabled)"
		return result
	}
	result.Passed = true
	result.Message = fmt.Sprintf("configured (from %s)", cfg.SourceOf("gemini_api_key"))
	return result
}

// CheckDataDir opens the preferences and cache database at path.
func CheckDataDir(path string) CheckResult {
	result := CheckResult{Name: "Data directory"}
	st, err := store.Open(path)
	if err != nil {
		result.Message = fmt.Sprintf("cannot open %s: %v", path, err)
		return result
	}
	defer st.Close()

	result.Passed = true
	result.Message = path
	return result
}

// CheckPlayer checks that the player command is on PATH. "none" always passes.
func CheckPlayer(command string) CheckResult {
	result := CheckResult{Name: "Audio player", Optional: true}
	if command == "none" {
		result.Passed = true
		result.Message = "disabled (silent clock)"
		return result
	}

	args, err := shlex.Split(command)
	if err != nil || len(args) == 0 {
		result.Message = fmt.Sprintf("invalid player command %q", command)
		return result
	}
	path, err := exec.LookPath(args[0])
	if err != nil {
		result.Message = fmt.Sprintf("%s not found in PATH", args[0])
		return result
	}
	result.Passed = true
	result.Message = path
	return result
}

// CheckChangelog fetches the default changelog once.
func CheckChangelog(ctx context.Context, fetcher *fetch.Client, url string) CheckResult {
	result := CheckResult{Name: "Changelog"}
	body, err := fetcher.Get(ctx, url)
	if err != nil {
		result.Message = err.Error()
		return result
	}
	result.Passed = true
	result.Message = fmt.Sprintf("reachable (%d bytes)", len(body))
	return result
}

// CheckRegistry lists the sources of a registry.
func CheckRegistry(ctx context.Context, client *sources.Client) CheckResult {
	result := CheckResult{Name: "Sources registry", Optional: true}
	list, err := client.List(ctx)
	if err != nil {
		result.Message = err.Error()
		return result
	}
	result.Passed = true
	result.Message = fmt.Sprintf("%d sources, %d active", len(list), len(sources.Active(list)))
	return result
}
