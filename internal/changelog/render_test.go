package changelog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMarkdown(t *testing.T) {
	t.Parallel()

	versions := []Version{
		{Version: "1.0.1", Date: "2024-01-02", Items: []Item{{Type: TypeFix, Content: "Fixed x"}}},
		{Version: "1.0.0", Items: []Item{{Type: TypeFeature, Content: "Add y"}, {Type: TypeOther, Content: "z"}}},
	}

	got, err := RenderMarkdownString(versions)
	require.NoError(t, err)
	assert.Equal(t, "## 1.0.1 - 2024-01-02\n\n- Fixed x\n\n## 1.0.0\n\n- Add y\n- z\n", got)
}

func TestRenderMarkdown_RoundTrip(t *testing.T) {
	t.Parallel()

	inputs := map[string]string{
		"sample":      sampleChangelog,
		"pre-release": "## [3.0.0-alpha.2] – soon\n* Breaking: all of it\n",
		"empty items": "## 0.0.1\n",
		"odd date":    "## 1.2.3 - - dashes\n- x\n",
	}

	for name, md := range inputs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			parsed := Parse(md, "", "")
			rendered, err := RenderMarkdownString(parsed)
			require.NoError(t, err)
			assert.Equal(t, parsed, Parse(rendered, "", ""))
		})
	}
}

func TestRenderMarkdown_Empty(t *testing.T) {
	t.Parallel()

	got, err := RenderMarkdownString(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
