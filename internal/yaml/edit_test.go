package yaml

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestSetValue(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input   string
		path    string
		value   string
		want    map[string]any
		wantErr string
	}{
		"empty document": {
			input: "",
			path:  "log_level",
			value: "debug",
			want:  map[string]any{"log_level": "debug"},
		},
		"replace top-level value": {
			input: "log_level: info\nlog_format: console\n",
			path:  "log_level",
			value: "warn",
			want:  map[string]any{"log_level": "warn", "log_format": "console"},
		},
		"integer stays an integer": {
			input: "fetch_max_attempts: 3\n",
			path:  "fetch_max_attempts",
			value: "5",
			want:  map[string]any{"fetch_max_attempts": 5},
		},
		"create nested mapping": {
			input: "log_level: info\n",
			path:  "registry.listen",
			value: ":9000",
			want: map[string]any{
				"log_level": "info",
				"registry":  map[string]any{"listen": ":9000"},
			},
		},
		"replace nested value": {
			input: "registry:\n  listen: :8787\n  check_interval: 10m\n",
			path:  "registry.check_interval",
			value: "1m",
			want: map[string]any{
				"registry": map[string]any{"listen": ":8787", "check_interval": "1m"},
			},
		},
		"empty value": {
			input: "sources_api_url: http://localhost:8787\n",
			path:  "sources_api_url",
			value: "",
			want:  map[string]any{"sources_api_url": ""},
		},
		"scalar in the way": {
			input:   "registry: none\n",
			path:    "registry.listen",
			value:   ":1",
			wantErr: "registry is not a mapping",
		},
		"empty path segment": {
			input:   "",
			path:    "registry..listen",
			value:   "x",
			wantErr: "invalid key path",
		},
		"top level list": {
			input:   "- a\n- b\n",
			path:    "key",
			value:   "x",
			wantErr: "not a mapping",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			out, err := SetValue([]byte(tt.input), tt.path, tt.value)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)

			var got map[string]any
			require.NoError(t, yaml.Unmarshal(out, &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetValue_KeepsComments(t *testing.T) {
	t.Parallel()

	input := "# changecast configuration\nlog_level: info # minimum level\nplayer_command: ffplay\n"
	out, err := SetValue([]byte(input), "log_level", "debug")
	require.NoError(t, err)

	assert.Contains(t, string(out), "# changecast configuration")
	assert.Contains(t, string(out), "log_level: debug # minimum level")
	assert.Contains(t, string(out), "player_command: ffplay")
}

func TestSetFileValue(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".changecast", "config.yml")
	require.NoError(t, SetFileValue(path, "default_voice", "Puck"))
	require.NoError(t, SetFileValue(path, "registry.listen", ":9000"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, "Puck", got["default_voice"])
	assert.Equal(t, map[string]any{"listen": ":9000"}, got["registry"])
}
