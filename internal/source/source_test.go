package source

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetContentFromPipe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.md")
	require.NoError(t, os.WriteFile(path, []byte("# New\n"), 0o644))
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	sp := &SourceProvider{stdin: f, readClipboard: func() (string, error) {
		t.Fatal("clipboard must not be read when stdin is redirected")
		return "", nil
	}}
	content, err := sp.GetContent()
	require.NoError(t, err)
	assert.Equal(t, "# New\n", content)
}

func TestGetContentFromClipboard(t *testing.T) {
	tty, err := os.Open(os.DevNull)
	require.NoError(t, err)
	defer tty.Close()

	sp := &SourceProvider{stdin: tty, readClipboard: func() (string, error) { return "  \n", nil }}
	content, err := sp.GetContent()
	require.NoError(t, err)
	assert.Empty(t, content)

	sp.readClipboard = func() (string, error) { return "", errors.New("no clipboard") }
	_, err = sp.GetContent()
	assert.Error(t, err)
}
