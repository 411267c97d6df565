package errors

import "fmt"

// Common error messages for the changecast CLI.
// These templates ensure consistent, actionable error messages.

// ChangelogUnavailable creates an error for a changelog that could not be fetched.
func ChangelogUnavailable(err error) *CLIError {
	return WrapWithMessage(err, Network,
		"failed to load changelog",
		"Check your network connection and try again",
		"Override the source with: CHANGECAST_CHANGELOG_URL=<url>",
		"Or read a local file: changecast show --file CHANGELOG.md",
	)
}

// RegistryUnavailable creates an error when the sources registry cannot be reached.
func RegistryUnavailable(err error) *CLIError {
	return WrapWithMessage(err, Network,
		"sources registry unavailable",
		"Start a registry with: changecast serve",
		"Or point at one with: CHANGECAST_SOURCES_API_URL=<url>",
	)
}

// VersionNotFound creates an error for a version missing from the changelog.
func VersionNotFound(version string, available []string) *CLIError {
	remediation := []string{"List versions with: changecast show --last 10"}
	if len(available) > 0 {
		limit := available
		if len(limit) > 5 {
			limit = limit[:5]
		}
		remediation = append(remediation, fmt.Sprintf("Recent versions: %v", limit))
	}
	return NewArgumentError(fmt.Sprintf("version %q not found", version), remediation...)
}

// MissingAPIKey creates an error when the Gemini API key is not configured.
func MissingAPIKey(feature string) *CLIError {
	return NewConfigError(
		fmt.Sprintf("%s requires a Gemini API key", feature),
		"Export it: export GEMINI_API_KEY=<key>",
		"Or add GEMINI_API_KEY=<key> to a .env file in the working directory",
	)
}

// InvalidVoice creates an error for an unknown voice name.
func InvalidVoice(voice string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("unknown voice: %s", voice),
		"List voices with: changecast prefs show",
		"Voice names are case-sensitive (e.g., Charon, Puck, Kore)",
	)
}

// InvalidPreference creates an error for an unknown or malformed preference.
func InvalidPreference(key, reason string) *CLIError {
	return NewArgumentErrorWithUsage(
		fmt.Sprintf("invalid preference %s: %s", key, reason),
		"changecast prefs set <key> <value>",
		"Valid keys: voice, language, speed, theme, default-theme, refresh-interval, source",
	)
}

// AudioFailed creates an error when speech generation or playback fails.
func AudioFailed(err error) *CLIError {
	return WrapWithMessage(err, Audio,
		"audio unavailable",
		"Check GEMINI_API_KEY and your network connection",
		"Check that the player command is installed (default: ffplay)",
	)
}

// ConfigParseError creates an error for invalid config file format.
func ConfigParseError(path string, err error) *CLIError {
	return WrapWithMessage(err, Configuration,
		fmt.Sprintf("failed to parse config file: %s", path),
		"Check the file for YAML syntax errors",
		"Remove the file to fall back to defaults",
	)
}

// FileNotWritable creates an error when a file cannot be written.
func FileNotWritable(path string) *CLIError {
	return NewRuntimeError(
		fmt.Sprintf("cannot write to file: %s", path),
		"Check file permissions: ls -la "+path,
		"Ensure parent directory exists and is writable",
	)
}
