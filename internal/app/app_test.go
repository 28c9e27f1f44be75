package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sokinpui/revise/cli"
	"github.com/sokinpui/revise/internal/config"
	"github.com/sokinpui/revise/internal/fs"
	"github.com/sokinpui/revise/internal/history"
	"github.com/sokinpui/revise/internal/logging"
	"github.com/sokinpui/revise/model"
)

type staticSource string

func (s staticSource) GetContent() (string, error) { return string(s), nil }

func newTestApp(t *testing.T) (*App, string, *bytes.Buffer) {
	t.Helper()
	color.NoColor = true
	dir := t.TempDir()
	r, err := fs.NewPathResolver([]string{dir})
	require.NoError(t, err)

	settings := config.Default()
	settings.Store = config.StoreConfig{Driver: config.DriverMemory}
	var out bytes.Buffer
	a := &App{
		cfg:          &cli.Config{Author: "agent"},
		settings:     settings,
		log:          logging.Discard(),
		pathResolver: r,
		stdout:       &out,
	}
	t.Cleanup(func() { _ = a.Close() })
	return a, dir, &out
}

func (a *App) run(t *testing.T, command string, args ...string) model.Summary {
	t.Helper()
	a.cfg.Command = command
	a.cfg.Args = args
	summary, err := a.Execute(context.Background())
	require.NoError(t, err)
	return summary
}

func TestReviewAcceptAllThenRevert(t *testing.T) {
	a, dir, out := newTestApp(t)
	path := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("# Notes\nold line"), 0o644))

	a.cfg.AcceptAll = true
	a.sourceProvider = staticSource("# Notes\nnew line\nmore")
	first := a.run(t, cli.CmdReview, "notes.md")
	assert.Equal(t, "notes.md", first.File)
	assert.NotEmpty(t, first.Version)
	assert.Equal(t, 1, first.Changed)
	assert.Equal(t, 1, first.Added)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# Notes\nnew line\nmore", string(data))

	a.sourceProvider = staticSource("# Notes\nnewest")
	a.run(t, cli.CmdReview, "notes.md")

	reverted := a.run(t, cli.CmdRevert, "notes.md", first.Version)
	assert.Equal(t, "Reverted", reverted.Message)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# Notes\nnew line\nmore", string(data))

	versions, err := a.svc.History.History(context.Background(), "notes.md", history.Page{})
	require.NoError(t, err)
	require.Len(t, versions, 3)
	assert.Equal(t, "revert to "+first.Version, versions[0].Summary)

	again := a.run(t, cli.CmdRevert, "notes.md", first.Version)
	assert.Empty(t, again.Version)

	a.run(t, cli.CmdHistory, "notes.md")
	assert.Contains(t, out.String(), "History of notes.md")
	assert.Contains(t, out.String(), first.Version)
}

func TestReviewStages(t *testing.T) {
	ctx := context.Background()
	a, dir, _ := newTestApp(t)
	path := filepath.Join(dir, "a.md")
	require.NoError(t, os.WriteFile(path, []byte("keep\ndrop"), 0o644))
	a.cfg.Command = cli.CmdReview
	a.cfg.Args = []string{"a.md"}
	a.sourceProvider = staticSource("keep\nadded")

	event, err := a.Prepare(ctx)
	require.NoError(t, err)
	require.Len(t, event.Lines, 2)
	assert.Equal(t, model.OpModify, event.Lines[1].Kind)

	_, err = a.Decide(ctx, event.ID, event.Lines[1].ID, model.DecisionRejected)
	require.NoError(t, err)

	summary, err := a.Complete(ctx, event.ID, true)
	require.NoError(t, err)
	assert.Equal(t, "No changes accepted", summary.Message)
	assert.Empty(t, summary.Version)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "keep\ndrop", string(data))

	// The file is free for a new review.
	event, err = a.Prepare(ctx)
	require.NoError(t, err)
	require.NoError(t, a.Abort(ctx, event.ID))
	require.NoError(t, a.Abort(ctx, event.ID))
}

func TestReviewEmptySource(t *testing.T) {
	a, _, _ := newTestApp(t)
	a.cfg.AcceptAll = true
	a.sourceProvider = staticSource("")

	summary := a.run(t, cli.CmdReview, "a.md")
	assert.Equal(t, "Source is empty. Nothing to review.", summary.Message)
}

func TestDiffCommand(t *testing.T) {
	a, dir, out := newTestApp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old.md"), []byte("- one"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.md"), []byte("- two"), 0o644))

	a.run(t, cli.CmdDiff, "old.md", "new.md")
	assert.Equal(t, "~ - onetwo\n", out.String())

	out.Reset()
	a.cfg.JSON = true
	a.run(t, cli.CmdDiff, "old.md", "new.md")
	assert.Contains(t, out.String(), `"block_type": "list_item"`)
	assert.Contains(t, out.String(), `"has_changes": true`)
}

func TestExecuteUnknownCommand(t *testing.T) {
	a, _, _ := newTestApp(t)
	a.cfg.Command = "merge"

	_, err := a.Execute(context.Background())
	assert.Error(t, err)
}
