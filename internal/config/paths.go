package config

import (
	"os"
	"path/filepath"
)

// UserConfigPath returns the path to the user-level config file.
// This follows the XDG Base Directory Specification:
// - Linux: ~/.config/changecast/config.yml
// - macOS: ~/Library/Application Support/changecast/config.yml
// - Windows: %APPDATA%\changecast\config.yml
func UserConfigPath() (string, error) {
	dir, err := UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yml"), nil
}

// UserConfigDir returns the path to the user-level config directory.
func UserConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "changecast"), nil
}

// ProjectConfigPath returns the path to the project-level config file,
// always .changecast/config.yml relative to the current directory.
func ProjectConfigPath() string {
	return filepath.Join(ProjectConfigDir(), "config.yml")
}

// ProjectJSONConfigPath is the JSON alternative to ProjectConfigPath.
// It is only read when no YAML project config exists.
func ProjectJSONConfigPath() string {
	return filepath.Join(ProjectConfigDir(), "config.json")
}

// ProjectConfigDir returns the path to the project-level config directory.
func ProjectConfigDir() string {
	return ".changecast"
}

// DefaultDataDir returns the directory holding the preferences and cache database.
func DefaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "changecast")
	}
	return "~/.local/share/changecast"
}

// DatabasePath returns the sqlite file inside the data directory.
func (c *Configuration) DatabasePath() string {
	return filepath.Join(c.DataDir, "changecast.db")
}
