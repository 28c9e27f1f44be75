package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPreview(t *testing.T) {
	src := "# Title\n\nSome text.\n\n```go\nfmt.Println(1)\n```\n"

	preview, err := RenderPreview([]byte(src))
	require.NoError(t, err)

	assert.Contains(t, preview.HTML, "<h1>Title</h1>")
	assert.Contains(t, preview.HTML, "<p>Some text.</p>")
	require.Len(t, preview.CodeBlocks, 1)
	assert.Equal(t, "go", preview.CodeBlocks[0].Lang)
	assert.Equal(t, "fmt.Println(1)\n", preview.CodeBlocks[0].Content)
	assert.Equal(t, 6, preview.CodeBlocks[0].Line)
}

func TestExtractCodeBlocks(t *testing.T) {
	src := "intro\n```py\nprint(1)\n# not a heading\n```\n- item\n```\nplain\n```"

	blocks, err := ExtractCodeBlocks([]byte(src))
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, "py", blocks[0].Lang)
	assert.Equal(t, "print(1)\n# not a heading\n", blocks[0].Content)
	assert.Equal(t, "", blocks[1].Lang)
	assert.Equal(t, "plain\n", blocks[1].Content)
}

func TestExtractCodeBlocksNone(t *testing.T) {
	blocks, err := ExtractCodeBlocks([]byte("just text"))
	require.NoError(t, err)
	assert.Empty(t, blocks)
}
