package changelog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTerminal_Plain(t *testing.T) {
	t.Parallel()

	versions := Parse("## 1.2.3 - 2024-01-01\n- Fixed a crash\n- Added new login flow\n", "s", "Widget")
	var buf bytes.Buffer
	err := FormatTerminal(versions, &buf, FormatOptions{Plain: true, MaxWidth: 80, ShowSource: true, ShowCounts: true})
	require.NoError(t, err)

	want := "## v1.2.3 (2024-01-01) · Widget\n" +
		"  1 feature · 1 fix\n" +
		"  - [fix] Fixed a crash\n" +
		"  - [feature] Added new login flow\n"
	assert.Equal(t, want, buf.String())
}

func TestFormatTerminal_SeparatesVersions(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, FormatTerminal(Parse(sampleChangelog, "", ""), &buf, FormatOptions{Plain: true, MaxWidth: 80}))
	assert.Equal(t, 2, strings.Count(buf.String(), "\n\n"))
	assert.Contains(t, buf.String(), "## v1.0.5\n")
}

func TestFormatVersion_Styled(t *testing.T) {
	t.Parallel()

	v := Version{Version: "1.0.0", Items: []Item{{Type: TypeBreaking, Content: "Breaking thing"}}}
	var buf bytes.Buffer
	require.NoError(t, FormatVersion(&v, &buf, FormatOptions{MaxWidth: 80, Theme: "dark"}))
	assert.Contains(t, buf.String(), "🚨")
	assert.Contains(t, buf.String(), "Breaking thing")
}

func TestWrapText(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		text  string
		width int
		want  string
	}{
		"fits":          {text: "short", width: 10, want: "short"},
		"wraps at word": {text: "alpha beta gamma", width: 10, want: "alpha\n  beta gamma"},
		"no width":      {text: "alpha beta", width: 0, want: "alpha beta"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, wrapText(tt.text, tt.width, "  "))
		})
	}
}

func TestTruncateText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "hello", TruncateText("hello", 10))
	assert.Equal(t, "hello w...", TruncateText("hello world!", 10))
	assert.Equal(t, "版本...", TruncateText("版本版本版本", 5))
}

func TestPaletteFor(t *testing.T) {
	t.Parallel()

	assert.Len(t, PaletteFor("dark"), len(ItemTypes()))
	assert.Len(t, PaletteFor("light"), len(ItemTypes()))
	assert.Len(t, PaletteFor(""), len(ItemTypes()))
}
