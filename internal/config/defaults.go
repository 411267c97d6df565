package config

import "time"

const (
	// DefaultChangelogURL is the changelog loaded when no source is selected.
	DefaultChangelogURL = "https://raw.githubusercontent.com/anthropics/claude-code/main/CHANGELOG.md"
	// DefaultSourceName labels versions loaded from DefaultChangelogURL.
	DefaultSourceName = "Claude Code"
	// DefaultGeminiBaseURL is the Gemini REST endpoint root.
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
)

// GetDefaultConfigTemplate returns a fully commented config template
// that helps users understand all available options
func GetDefaultConfigTemplate() string {
	return `# changecast configuration
# See 'changecast config keys' for all options

# Changelog sources
changelog_url: ` + DefaultChangelogURL + `
sources_api_url: ""                   # Sources registry (e.g. http://localhost:8787); empty disables
fetch_max_attempts: 3                 # Attempts for the default changelog fetch (1-10)

# Local state (preferences, analysis and audio cache)
data_dir: ` + DefaultDataDir() + `

# Gemini (API key is usually taken from GEMINI_API_KEY or .env)
gemini_base_url: ` + DefaultGeminiBaseURL + `
analysis_model: gemini-2.5-flash
tts_model: gemini-2.5-flash-preview-tts
default_voice: Charon                 # Fallback when no voice preference is saved

# Playback
player_command: ffplay                # ffplay | none (virtual clock, no sound)

# Logging
log_level: info                       # debug | info | warn | error
log_format: console                   # console | json

# Sources registry server ('changecast serve')
registry:
  listen: 127.0.0.1:8787
  sources_file: sources.yml
  check_interval: 15m                 # 0 disables background checks

# Desktop notifications from 'changecast watch'
notifications:
  enabled: false
  type: both                          # visual | sound | both
  sound_file: ""
`
}

// GetDefaults returns the default configuration values keyed by koanf path.
func GetDefaults() map[string]interface{} {
	return map[string]interface{}{
		"changelog_url":            DefaultChangelogURL,
		"sources_api_url":          "",
		"data_dir":                 DefaultDataDir(),
		"fetch_max_attempts":       3,
		"gemini_api_key":           "",
		"gemini_base_url":          DefaultGeminiBaseURL,
		"analysis_model":           "gemini-2.5-flash",
		"tts_model":                "gemini-2.5-flash-preview-tts",
		"default_voice":            "Charon",
		"player_command":           "ffplay",
		"log_level":                "info",
		"log_format":               "console",
		"registry.listen":          "127.0.0.1:8787",
		"registry.sources_file":    "sources.yml",
		"registry.check_interval":  15 * time.Minute,
		"notifications.enabled":    false,
		"notifications.type":       "both",
		"notifications.sound_file": "",
	}
}
