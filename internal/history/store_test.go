package history

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sokinpui/revise/internal/metrics"
	"github.com/sokinpui/revise/model"
)

func backends() map[string]func(t *testing.T) Backend {
	return map[string]func(t *testing.T) Backend{
		"memory": func(*testing.T) Backend { return NewMemory() },
		"sqlite": func(t *testing.T) Backend {
			b, err := OpenSQLite(filepath.Join(t.TempDir(), "revise.db"))
			require.NoError(t, err)
			return b
		},
		"badger": func(t *testing.T) Backend {
			b, err := OpenBadger(t.TempDir())
			require.NoError(t, err)
			return b
		},
	}
}

// frozenClock returns the same instant on every call.
func frozenClock() func() time.Time {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return func() time.Time { return at }
}

func TestStore(t *testing.T) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := New(Options{Backend: open(t), Now: frozenClock(), Metrics: metrics.New(prometheus.NewRegistry())})
			defer s.Close()

			first, err := s.AddVersion(ctx, AddRequest{
				FileID: "doc.md", Author: model.AuthorHuman, ChangeType: model.ChangeCreate,
				Summary: "create", OldContent: "", NewContent: "# Title",
			})
			require.NoError(t, err)
			second, err := s.AddVersion(ctx, AddRequest{
				FileID: "doc.md", Author: model.AuthorAgent, ChangeType: model.ChangeEdit,
				Summary: "retitle", OldContent: "# Title", NewContent: "# Better title",
			})
			require.NoError(t, err)

			assert.NotEqual(t, first.ID, second.ID)
			assert.True(t, second.Timestamp.After(first.Timestamp), "timestamps must strictly increase")
			assert.Equal(t, model.DiffStat{Added: 1}, first.Stats)
			assert.Equal(t, model.DiffStat{Changed: 1}, second.Stats)
			assert.Contains(t, second.DiffPatch, "-# Title\n+# Better title\n")

			hist, err := s.History(ctx, "doc.md", Page{})
			require.NoError(t, err)
			require.Len(t, hist, 2)
			assert.Equal(t, second.ID, hist[0].ID)
			assert.Equal(t, first.ID, hist[1].ID)
			assert.Equal(t, "# Better title", hist[0].Snapshot)
			assert.Equal(t, model.AuthorAgent, hist[0].Author)
			assert.Equal(t, model.ChangeEdit, hist[0].ChangeType)
			assert.Equal(t, "retitle", hist[0].Summary)
			assert.True(t, hist[0].Timestamp.Equal(second.Timestamp))

			snap, err := s.Revert(ctx, "doc.md", first.ID)
			require.NoError(t, err)
			assert.Equal(t, "# Title", snap)

			current, err := s.Current(ctx, "doc.md")
			require.NoError(t, err)
			assert.Equal(t, "# Better title", current)
		})
	}
}

func TestStorePaging(t *testing.T) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := New(Options{Backend: open(t)})
			defer s.Close()

			prev := ""
			for i := 0; i < 5; i++ {
				next := fmt.Sprintf("v%d", i)
				_, err := s.AddVersion(ctx, AddRequest{
					FileID: "f", Author: model.AuthorHuman, ChangeType: model.ChangeEdit,
					OldContent: prev, NewContent: next,
				})
				require.NoError(t, err)
				prev = next
			}

			page, err := s.History(ctx, "f", Page{Limit: 2, Offset: 1})
			require.NoError(t, err)
			require.Len(t, page, 2)
			assert.Equal(t, "v3", page[0].Snapshot)
			assert.Equal(t, "v2", page[1].Snapshot)

			tail, err := s.History(ctx, "f", Page{Offset: 4})
			require.NoError(t, err)
			require.Len(t, tail, 1)
			assert.Equal(t, "v0", tail[0].Snapshot)

			past, err := s.History(ctx, "f", Page{Offset: 10})
			require.NoError(t, err)
			assert.Empty(t, past)
		})
	}
}

func TestStoreUnknownFileAndVersion(t *testing.T) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := New(Options{Backend: open(t)})
			defer s.Close()

			hist, err := s.History(ctx, "never-seen", Page{})
			require.NoError(t, err)
			assert.NotNil(t, hist)
			assert.Empty(t, hist)

			current, err := s.Current(ctx, "never-seen")
			require.NoError(t, err)
			assert.Equal(t, "", current)

			_, err = s.Revert(ctx, "never-seen", "nope")
			assert.ErrorIs(t, err, model.ErrNotFound)
		})
	}
}

func TestStoreFilesAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := New(Options{})

	_, err := s.AddVersion(ctx, AddRequest{FileID: "a", Author: model.AuthorHuman, ChangeType: model.ChangeEdit, NewContent: "A"})
	require.NoError(t, err)
	b, err := s.AddVersion(ctx, AddRequest{FileID: "b", Author: model.AuthorHuman, ChangeType: model.ChangeEdit, NewContent: "B"})
	require.NoError(t, err)

	_, err = s.Revert(ctx, "a", b.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestStoreValidation(t *testing.T) {
	ctx := context.Background()
	s := New(Options{})

	tests := []struct {
		name string
		req  AddRequest
	}{
		{"missing file id", AddRequest{Author: model.AuthorHuman, ChangeType: model.ChangeEdit}},
		{"nul in file id", AddRequest{FileID: "a\x00b", Author: model.AuthorHuman, ChangeType: model.ChangeEdit}},
		{"unknown author", AddRequest{FileID: "f", Author: "robot", ChangeType: model.ChangeEdit}},
		{"unknown change type", AddRequest{FileID: "f", Author: model.AuthorHuman, ChangeType: "rename"}},
		{"binary content", AddRequest{FileID: "f", Author: model.AuthorHuman, ChangeType: model.ChangeEdit, NewContent: "\x00\x01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.AddVersion(ctx, tt.req)
			assert.ErrorIs(t, err, model.ErrInvalidInput)
		})
	}
}

func TestStoreConcurrentWritesToOneFile(t *testing.T) {
	ctx := context.Background()
	s := New(Options{Now: frozenClock()})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.AddVersion(ctx, AddRequest{
				FileID: "shared", Author: model.AuthorAgent, ChangeType: model.ChangeEdit,
				NewContent: fmt.Sprintf("content %d", i),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	hist, err := s.History(ctx, "shared", Page{})
	require.NoError(t, err)
	require.Len(t, hist, 20)
	for i := 1; i < len(hist); i++ {
		assert.True(t, hist[i-1].Timestamp.After(hist[i].Timestamp))
	}
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "revise.db")

	b, err := OpenSQLite(path)
	require.NoError(t, err)
	s := New(Options{Backend: b})
	node, err := s.AddVersion(ctx, AddRequest{FileID: "f", Author: model.AuthorHuman, ChangeType: model.ChangeCreate, NewContent: "kept"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	b, err = OpenSQLite(path)
	require.NoError(t, err)
	defer b.Close()

	got, err := b.Get(ctx, "f", node.ID)
	require.NoError(t, err)
	assert.Equal(t, "kept", got.Snapshot)
	assert.True(t, got.Timestamp.Equal(node.Timestamp))
}

func TestOpenSQLiteRequiresPath(t *testing.T) {
	_, err := OpenSQLite("  ")
	assert.Error(t, err)
}
