package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs(t *testing.T) {
	var out bytes.Buffer

	cfg, err := ParseArgs([]string{"review", "-b", "--summary", "tidy", "notes.md"}, &out)
	require.NoError(t, err)
	assert.Equal(t, CmdReview, cfg.Command)
	assert.Equal(t, []string{"notes.md"}, cfg.Args)
	assert.True(t, cfg.Buffer)
	assert.Equal(t, "tidy", cfg.Summary)
	assert.Equal(t, "agent", cfg.Author)

	cfg, err = ParseArgs([]string{"history", "--store", "badger", "--db", "/tmp/h", "-n", "5", "notes.md"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "badger", cfg.Store)
	assert.Equal(t, "/tmp/h", cfg.DB)
	assert.Equal(t, 5, cfg.Limit)

	cfg, err = ParseArgs([]string{"serve", "--addr", ":9000"}, &out)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Empty(t, cfg.Args)
}

func TestParseArgsErrors(t *testing.T) {
	tests := map[string][]string{
		"no command":      nil,
		"unknown command": {"merge"},
		"missing args":    {"diff", "a.md"},
		"extra args":      {"serve", "x"},
		"foreign flag":    {"serve", "--json"},
		"negative limit":  {"history", "--limit", "-1", "a.md"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseArgs(args, &bytes.Buffer{})
			assert.Error(t, err)
		})
	}
}

func TestParseArgsHelp(t *testing.T) {
	var out bytes.Buffer
	_, err := ParseArgs([]string{"--help"}, &out)
	assert.True(t, errors.Is(err, ErrHelp))
	assert.Contains(t, out.String(), "revise COMMAND")
}
