// Package config provides the 'changecast config' commands.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ariel-frischer/changecast/internal/cli/shared"
	"github.com/ariel-frischer/changecast/internal/config"
	clierrors "github.com/ariel-frischer/changecast/internal/errors"
	"github.com/ariel-frischer/changecast/internal/output"
	"github.com/ariel-frischer/changecast/internal/yaml"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage changecast configuration",
	Long: `Manage changecast configuration settings.

Configuration is loaded with the following priority (highest to lowest):
  1. Environment variables (CHANGECAST_*, GEMINI_API_KEY, .env)
  2. Project config (.changecast/config.yml)
  3. User config (~/.config/changecast/config.yml)
  4. Built-in defaults`,
	Example: `  # Create the user config
  changecast config init

  # Show the effective configuration and where each value came from
  changecast config show

  # Set a value in the project config
  changecast config set default_voice Puck --project`,
}

var (
	initProject bool
	initForce   bool
	setProject  bool
)

var configInitCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write a commented default config",
	Long: `Write the default configuration template.

Without --project the user config is written. With --project or a directory
argument, <dir>/.changecast/config.yml is written instead. Existing files are
kept unless --force is set.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var dir string
		if len(args) == 1 {
			dir = args[0]
		}
		return runConfigInit(cmd.OutOrStdout(), initProject || dir != "", dir, initForce)
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List configuration keys",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		printKeys(cmd.OutOrStdout())
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the user config, or the project config with
--project. The value is checked against the key's type first.`,
	Example: `  changecast config set log_level debug
  changecast config set registry.check_interval 5m --project`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigSet(cmd.OutOrStdout(), args[0], args[1], setProject)
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file locations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		userPath, err := config.UserConfigPath()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "user:    %s\n", userPath)
		fmt.Fprintf(out, "project: %s\n", config.ProjectConfigPath())
		return nil
	},
}

func init() {
	configCmd.GroupID = shared.GroupConfiguration
	configCmd.AddCommand(configInitCmd, configShowCmd, configKeysCmd, configSetCmd, configPathCmd)

	configInitCmd.Flags().BoolVarP(&initProject, "project", "p", false, "Write the project config instead of the user config")
	configInitCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing config")
	configShowCmd.Flags().Bool("json", false, "Output in JSON format")
	configSetCmd.Flags().BoolVarP(&setProject, "project", "p", false, "Write the project config instead of the user config")
}

// Register adds the config command tree to root.
func Register(root *cobra.Command) {
	root.AddCommand(configCmd)
}

func runConfigInit(out io.Writer, project bool, dir string, force bool) error {
	path, err := targetPath(project, dir)
	if err != nil {
		return err
	}

	exists := fileExists(path)
	if exists && !force {
		fmt.Fprintf(out, "%s Config: exists at %s\n", color.GreenString("✓"), path)
		fmt.Fprintln(out, color.New(color.Faint).Sprint("  Overwrite with --force"))
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return clierrors.FileNotWritable(path)
	}
	if err := os.WriteFile(path, []byte(config.GetDefaultConfigTemplate()), 0o644); err != nil {
		return clierrors.FileNotWritable(path)
	}

	verb := "created"
	if exists {
		verb = "overwritten"
	}
	fmt.Fprintf(out, "%s Config: %s at %s\n", color.GreenString("✓"), verb, path)
	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	path := configFlag(cmd)
	cfg, err := config.Load(path)
	if err != nil {
		if path == "" {
			path = config.ProjectConfigPath()
		}
		return clierrors.ConfigParseError(path, err)
	}

	out := cmd.OutOrStdout()
	values := effectiveValues(cfg)
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		flat := make(map[string]string, len(values))
		for _, v := range values {
			flat[v.key] = v.value
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(flat)
	}

	rows := make([][]string, 0, len(values))
	for _, v := range values {
		rows = append(rows, []string{v.key, v.value, string(v.source)})
	}
	output.PrintSectionHeader(out, "Configuration Sources")
	fmt.Fprintln(out, output.RenderTable([]string{"KEY", "VALUE", "SOURCE"}, rows, nil))
	return nil
}

func runConfigSet(out io.Writer, key, value string, project bool) error {
	schema, err := config.GetKeySchema(key)
	if err != nil {
		return clierrors.NewArgumentError(err.Error(), "List keys with: changecast config keys")
	}
	if _, err := config.ValidateValue(key, value); err != nil {
		return clierrors.NewArgumentError(err.Error())
	}

	path, err := targetPath(project, "")
	if err != nil {
		return err
	}
	if err := yaml.SetFileValue(path, key, value); err != nil {
		return clierrors.WrapWithMessage(err, clierrors.Configuration,
			fmt.Sprintf("failed to update %s", path),
			"Check the file with: changecast config show",
		)
	}

	scope := "user"
	if project {
		scope = "project"
	}
	shown := value
	if schema.Type == config.TypeSecret {
		shown = maskSecret(value)
	}
	output.PrintSuccess(out, fmt.Sprintf("Set %s = %s in %s config", key, shown, scope))
	if env := os.Getenv(schema.EnvName()); env != "" {
		output.PrintWarning(out, fmt.Sprintf("%s is set and overrides this value", schema.EnvName()))
	}
	return nil
}

func printKeys(out io.Writer) {
	rows := make([][]string, 0, len(config.KnownKeys))
	for _, key := range config.SortedKeys() {
		schema := config.KnownKeys[key]
		typ := schema.Type.String()
		if len(schema.AllowedValues) > 0 {
			typ = strings.Join(schema.AllowedValues, "|")
		}
		rows = append(rows, []string{key, typ, schema.EnvName(), schema.Description})
	}
	fmt.Fprintln(out, output.RenderTable([]string{"KEY", "TYPE", "ENV", "DESCRIPTION"}, rows, nil))
}

type keyValue struct {
	key    string
	value  string
	source config.ConfigSource
}

// effectiveValues lists every known key with its resolved value. Secrets
// are masked.
func effectiveValues(cfg *config.Configuration) []keyValue {
	raw := map[string]string{
		"changelog_url":            cfg.ChangelogURL,
		"sources_api_url":          cfg.SourcesAPIURL,
		"data_dir":                 cfg.DataDir,
		"fetch_max_attempts":       fmt.Sprint(cfg.FetchMaxAttempts),
		"gemini_api_key":           maskSecret(cfg.GeminiAPIKey),
		"gemini_base_url":          cfg.GeminiBaseURL,
		"analysis_model":           cfg.AnalysisModel,
		"tts_model":                cfg.TTSModel,
		"default_voice":            cfg.DefaultVoice,
		"player_command":           cfg.PlayerCommand,
		"log_level":                cfg.LogLevel,
		"log_format":               cfg.LogFormat,
		"registry.listen":          cfg.Registry.Listen,
		"registry.sources_file":    cfg.Registry.SourcesFile,
		"registry.check_interval":  cfg.Registry.CheckInterval.String(),
		"notifications.enabled":    strconv.FormatBool(cfg.Notifications.Enabled),
		"notifications.type":       cfg.Notifications.Type,
		"notifications.sound_file": cfg.Notifications.SoundFile,
	}
	values := make([]keyValue, 0, len(raw))
	for _, key := range config.SortedKeys() {
		values = append(values, keyValue{key: key, value: raw[key], source: cfg.SourceOf(key)})
	}
	return values
}

// maskSecret keeps the last four characters of a secret.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return strings.Repeat("*", 8) + s[len(s)-4:]
}

func targetPath(project bool, dir string) (string, error) {
	if project {
		return projectConfigPath(dir)
	}
	path, err := config.UserConfigPath()
	if err != nil {
		return "", fmt.Errorf("failed to get user config path: %w", err)
	}
	return path, nil
}

// configFlag returns the root --config flag when present.
func configFlag(cmd *cobra.Command) string {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return ""
	}
	return path
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
