package yaml

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSyntax(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input   string
		wantErr string
	}{
		"simple key-value":   {input: "key: value"},
		"nested structure":   {input: "registry:\n  listen: :8787"},
		"array":              {input: "sources:\n  - id: one\n  - id: two"},
		"empty document":     {input: ""},
		"comment only":       {input: "# comment\nkey: value"},
		"multi-document":     {input: "---\ndoc1: value1\n---\ndoc2: value2"},
		"bad indentation":    {input: "parent:\n child: value\n  grandchild: bad", wantErr: "line"},
		"tabs for indent":    {input: "parent:\n\tchild: value", wantErr: "line"},
		"nested plain value": {input: "key: value: nested", wantErr: "mapping values are not allowed"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := ValidateSyntax(strings.NewReader(tt.input))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := filepath.Join(dir, "good.yml")
	bad := filepath.Join(dir, "bad.yml")
	require.NoError(t, os.WriteFile(good, []byte("log_level: info\n"), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte("a:\n\tb: c\n"), 0o644))

	assert.NoError(t, ValidateFile(good))

	err := ValidateFile(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), bad)

	err = ValidateFile(filepath.Join(dir, "missing.yml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open file")
}
