// Package config provides hierarchical configuration management for changecast using koanf.
// Configuration is loaded with priority: environment variables > project config (.changecast/config.yml)
// > user config (~/.config/changecast/config.yml) > defaults. A .env file in the working directory
// is loaded first so secrets such as GEMINI_API_KEY can live outside the config files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables that override config keys.
const EnvPrefix = "CHANGECAST_"

// ConfigSource tracks where a configuration value came from
type ConfigSource string

const (
	SourceDefault ConfigSource = "default"
	SourceUser    ConfigSource = "user"
	SourceProject ConfigSource = "project"
	SourceEnv     ConfigSource = "env"
)

// Configuration represents the changecast configuration.
type Configuration struct {
	ChangelogURL     string `koanf:"changelog_url" validate:"required,url"`
	SourcesAPIURL    string `koanf:"sources_api_url" validate:"omitempty,url"`
	DataDir          string `koanf:"data_dir" validate:"required"`
	FetchMaxAttempts int    `koanf:"fetch_max_attempts" validate:"min=1,max=10"`

	GeminiAPIKey  string `koanf:"gemini_api_key"`
	GeminiBaseURL string `koanf:"gemini_base_url" validate:"required,url"`
	AnalysisModel string `koanf:"analysis_model" validate:"required"`
	TTSModel      string `koanf:"tts_model" validate:"required"`
	DefaultVoice  string `koanf:"default_voice"`

	// PlayerCommand is the external audio player. "none" plays on a
	// virtual clock without producing sound.
	PlayerCommand string `koanf:"player_command" validate:"required"`

	LogLevel  string `koanf:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `koanf:"log_format" validate:"oneof=console json"`

	Registry      RegistryConfig      `koanf:"registry"`
	Notifications NotificationsConfig `koanf:"notifications"`

	// Sources records which layer supplied each key. Not loaded from files.
	Sources map[string]ConfigSource `koanf:"-"`
}

// RegistryConfig configures 'changecast serve'.
type RegistryConfig struct {
	Listen        string        `koanf:"listen" validate:"required"`
	SourcesFile   string        `koanf:"sources_file" validate:"required"`
	CheckInterval time.Duration `koanf:"check_interval"`
}

// NotificationsConfig configures desktop notifications from 'changecast watch'.
type NotificationsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Type      string `koanf:"type" validate:"oneof=visual sound both"`
	SoundFile string `koanf:"sound_file"`
}

// LoadOptions configures how configuration is loaded
type LoadOptions struct {
	// ProjectConfigPath overrides the project config path (default: .changecast/config.yml)
	ProjectConfigPath string
	// UserConfigPath overrides the user config path (tests)
	UserConfigPath string
	// EnvFile is the dotenv file to load (default: .env). Missing files are ignored.
	EnvFile string
	// SkipUserConfig ignores the user-level config file.
	SkipUserConfig bool
}

// Load loads configuration from user, project, and environment sources.
// Priority: Environment variables > Project config > User config > Defaults
func Load(projectConfigPath string) (*Configuration, error) {
	return LoadWithOptions(LoadOptions{ProjectConfigPath: projectConfigPath})
}

// LoadWithOptions loads configuration with custom options
func LoadWithOptions(opts LoadOptions) (*Configuration, error) {
	if err := loadDotEnv(opts.EnvFile); err != nil {
		return nil, err
	}

	k := koanf.New(".")
	sources := make(map[string]ConfigSource)

	loadDefaults(k, sources)

	if !opts.SkipUserConfig {
		userPath := opts.UserConfigPath
		if userPath == "" {
			userPath, _ = UserConfigPath()
		}
		if err := loadLayer(k, sources, userPath, SourceUser); err != nil {
			return nil, fmt.Errorf("loading user config: %w", err)
		}
	}

	if err := loadLayer(k, sources, projectPath(opts.ProjectConfigPath), SourceProject); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	if err := loadEnvironmentConfig(k, sources); err != nil {
		return nil, err
	}

	return finalizeConfig(k, sources)
}

// loadDotEnv loads a dotenv file without overriding variables already set.
func loadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// projectPath prefers the YAML project config and falls back to JSON.
func projectPath(custom string) string {
	if custom != "" {
		return custom
	}
	if !fileExists(ProjectConfigPath()) && fileExists(ProjectJSONConfigPath()) {
		return ProjectJSONConfigPath()
	}
	return ProjectConfigPath()
}

// loadDefaults applies default configuration values
func loadDefaults(k *koanf.Koanf, sources map[string]ConfigSource) {
	for key, value := range GetDefaults() {
		k.Set(key, value)
		sources[key] = SourceDefault
	}
}

// loadLayer merges one config file into k. Missing files are skipped.
func loadLayer(k *koanf.Koanf, sources map[string]ConfigSource, path string, source ConfigSource) error {
	if !fileExists(path) {
		return nil
	}

	layer := koanf.New(".")
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := layer.Load(file.Provider(path), json.Parser()); err != nil {
			return fmt.Errorf("failed to load %s config %s: %w", source, path, err)
		}
	} else {
		if err := ValidateYAMLSyntax(path); err != nil {
			return fmt.Errorf("validating YAML syntax for %s config: %w", source, err)
		}
		if err := layer.Load(file.Provider(path), yaml.Parser()); err != nil {
			return fmt.Errorf("failed to load %s config %s: %w", source, path, err)
		}
	}

	return mergeLayer(k, layer, sources, source)
}

func mergeLayer(k, layer *koanf.Koanf, sources map[string]ConfigSource, source ConfigSource) error {
	if err := k.Merge(layer); err != nil {
		return fmt.Errorf("merging %s config: %w", source, err)
	}
	for _, key := range layer.Keys() {
		sources[key] = source
	}
	return nil
}

// loadEnvironmentConfig loads environment variable overrides
func loadEnvironmentConfig(k *koanf.Koanf, sources map[string]ConfigSource) error {
	layer := koanf.New(".")
	if err := layer.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return fmt.Errorf("failed to load environment config: %w", err)
	}
	if err := mergeLayer(k, layer, sources, SourceEnv); err != nil {
		return err
	}

	// The conventional variable fills the key when no prefixed override exists.
	if !layer.Exists("gemini_api_key") {
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			k.Set("gemini_api_key", key)
			sources["gemini_api_key"] = SourceEnv
		}
	}
	return nil
}

// finalizeConfig unmarshals, validates, and applies final transformations
func finalizeConfig(k *koanf.Koanf, sources map[string]ConfigSource) (*Configuration, error) {
	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := ValidateConfigValues(&cfg, "config"); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg.DataDir = expandHomePath(cfg.DataDir)
	cfg.Sources = sources
	return &cfg, nil
}

// SourceOf reports which layer supplied a key.
func (c *Configuration) SourceOf(key string) ConfigSource {
	if s, ok := c.Sources[key]; ok {
		return s
	}
	return SourceDefault
}

// HasAPIKey reports whether Gemini features can run.
func (c *Configuration) HasAPIKey() bool {
	return strings.TrimSpace(c.GeminiAPIKey) != ""
}

// fileExists returns true if the file exists and is readable
func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// envTransform converts environment variable names to config keys.
// Example: CHANGECAST_REGISTRY_CHECK_INTERVAL -> registry.check_interval
func envTransform(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	for _, section := range []string{"registry", "notifications"} {
		if rest, ok := strings.CutPrefix(key, section+"_"); ok {
			return section + "." + rest
		}
	}
	return key
}

// expandHomePath expands ~ to the user's home directory
func expandHomePath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(homeDir, path[2:])
		}
	}
	return path
}
