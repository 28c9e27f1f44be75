package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sokinpui/revise/model"
)

func TestReadWriteText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docs", "a.md")

	content, exists, err := ReadText(path)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Empty(t, content)

	require.NoError(t, WriteText(path, "# Title\n"))
	content, exists, err = ReadText(path)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, "# Title\n", content)
}

func TestReadTextRejectsBinary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob.bin")
	require.NoError(t, os.WriteFile(path, []byte{0x00, 0x01}, 0o644))

	_, _, err := ReadText(path)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestPathResolver(t *testing.T) {
	dir := t.TempDir()
	other := t.TempDir()
	require.NoError(t, WriteText(filepath.Join(other, "found.md"), "x"))

	r, err := NewPathResolver([]string{dir, other})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(other, "found.md"), r.Resolve("found.md"))
	assert.Equal(t, filepath.Join(dir, "new.md"), r.Resolve("new.md"))
	assert.Equal(t, "", r.ResolveExisting("new.md"))

	assert.Equal(t, "sub/a.md", r.FileID(filepath.Join(dir, "sub", "a.md")))
	outside := filepath.Join(other, "found.md")
	assert.Equal(t, filepath.ToSlash(outside), r.FileID(outside))
}
