package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupported(t *testing.T) {
	assert.True(t, Supported("notes.txt"))
	assert.True(t, Supported("README.md"))
	assert.True(t, Supported("paper.PDF"))
	assert.False(t, Supported("image.png"))
	assert.False(t, Supported("archive"))
}

func TestTextPlain(t *testing.T) {
	out, err := Text(strings.NewReader("  hello world\n"), "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello world", out)
}

func TestTextMarkdownStripsSyntax(t *testing.T) {
	src := "# Title\n\nSome *emphasised* text with a [link](https://example.com).\n\n- first\n- second\n\n```\ncode line\n```\n"
	out, err := Text(strings.NewReader(src), "doc.md")
	require.NoError(t, err)
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "Some emphasised text with a link.")
	assert.Contains(t, out, "first")
	assert.Contains(t, out, "code line")
	assert.NotContains(t, out, "](")
	assert.NotContains(t, out, "# Title")
	// Blocks stay separated so the splitter can break on them.
	assert.Contains(t, out, "Title\n\n")
}

func TestTextUnsupportedFormat(t *testing.T) {
	_, err := Text(strings.NewReader("data"), "slides.pptx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file format")
}
