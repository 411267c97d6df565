package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ariel-frischer/changecast/internal/tts"
)

// ValueType is the expected type of a configuration value.
type ValueType int

const (
	TypeString ValueType = iota
	TypeInt
	TypeDuration
	TypeEnum
	TypeSecret
	TypeBool
)

// String returns the string representation of ValueType.
func (t ValueType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeDuration:
		return "duration"
	case TypeEnum:
		return "enum"
	case TypeSecret:
		return "secret"
	case TypeBool:
		return "bool"
	default:
		return "unknown"
	}
}

// KeySchema describes one configuration key.
type KeySchema struct {
	Path          string
	Type          ValueType
	AllowedValues []string
	Description   string
	Env           string
}

// KnownKeys is the registry of all configuration keys.
var KnownKeys = map[string]KeySchema{
	"changelog_url": {
		Path: "changelog_url", Type: TypeString,
		Description: "Changelog loaded when no registry source is selected",
	},
	"sources_api_url": {
		Path: "sources_api_url", Type: TypeString,
		Description: "Base URL of a sources registry; empty disables sources",
	},
	"data_dir": {
		Path: "data_dir", Type: TypeString,
		Description: "Directory holding preferences and the content cache",
	},
	"fetch_max_attempts": {
		Path: "fetch_max_attempts", Type: TypeInt,
		Description: "Attempts for the default changelog fetch (1-10)",
	},
	"gemini_api_key": {
		Path: "gemini_api_key", Type: TypeSecret, Env: "GEMINI_API_KEY",
		Description: "Gemini API key used for analysis and speech",
	},
	"gemini_base_url": {
		Path: "gemini_base_url", Type: TypeString,
		Description: "Gemini REST endpoint root",
	},
	"analysis_model": {
		Path: "analysis_model", Type: TypeString,
		Description: "Model used for changelog analysis",
	},
	"tts_model": {
		Path: "tts_model", Type: TypeString,
		Description: "Model used for speech synthesis",
	},
	"default_voice": {
		Path: "default_voice", Type: TypeEnum, AllowedValues: tts.VoiceNames(),
		Description: "Voice used when no voice preference is saved",
	},
	"player_command": {
		Path: "player_command", Type: TypeString,
		Description: "External audio player (ffplay) or none for a silent clock",
	},
	"log_level": {
		Path: "log_level", Type: TypeEnum, AllowedValues: []string{"debug", "info", "warn", "error"},
		Description: "Minimum log level",
	},
	"log_format": {
		Path: "log_format", Type: TypeEnum, AllowedValues: []string{"console", "json"},
		Description: "Log output format",
	},
	"registry.listen": {
		Path: "registry.listen", Type: TypeString,
		Description: "Listen address for 'changecast serve'",
	},
	"registry.sources_file": {
		Path: "registry.sources_file", Type: TypeString,
		Description: "YAML file listing the registry sources",
	},
	"registry.check_interval": {
		Path: "registry.check_interval", Type: TypeDuration,
		Description: "Interval between background source checks; 0 disables",
	},
	"notifications.enabled": {
		Path: "notifications.enabled", Type: TypeBool,
		Description: "Desktop notification when 'watch' sees a new version",
	},
	"notifications.type": {
		Path: "notifications.type", Type: TypeEnum, AllowedValues: []string{"visual", "sound", "both"},
		Description: "Notification output",
	},
	"notifications.sound_file": {
		Path: "notifications.sound_file", Type: TypeString,
		Description: "Sound played with notifications; empty uses the system sound",
	},
}

// SortedKeys returns the known key paths in alphabetical order.
func SortedKeys() []string {
	keys := make([]string, 0, len(KnownKeys))
	for k := range KnownKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ErrUnknownKey is returned when trying to access an unknown configuration key.
type ErrUnknownKey struct {
	Key string
}

func (e ErrUnknownKey) Error() string {
	return "unknown configuration key: " + e.Key
}

// GetKeySchema returns the schema for a known configuration key.
func GetKeySchema(path string) (KeySchema, error) {
	schema, ok := KnownKeys[path]
	if !ok {
		return KeySchema{}, ErrUnknownKey{Key: path}
	}
	return schema, nil
}

// EnvName returns the environment variable that overrides the key.
func (s KeySchema) EnvName() string {
	if s.Env != "" {
		return s.Env
	}
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(s.Path, ".", "_"))
}

// ValidateValue checks a raw string value against the key's schema and
// returns it converted to the key's type.
func ValidateValue(key, value string) (interface{}, error) {
	schema, err := GetKeySchema(key)
	if err != nil {
		return nil, err
	}
	switch schema.Type {
	case TypeInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid integer: %q", value)
		}
		return n, nil
	case TypeDuration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return nil, fmt.Errorf("invalid duration: %q (examples: 5m, 1h30m, 10s)", value)
		}
		return d, nil
	case TypeBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("invalid boolean: %q (use true or false)", value)
		}
		return b, nil
	case TypeEnum:
		for _, allowed := range schema.AllowedValues {
			if value == allowed {
				return value, nil
			}
		}
		return nil, fmt.Errorf("invalid value: %q (valid options: %s)",
			value, strings.Join(schema.AllowedValues, ", "))
	default:
		return value, nil
	}
}
