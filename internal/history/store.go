// Package history keeps the append-only version history of files.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/sokinpui/revise/internal/engine"
	"github.com/sokinpui/revise/internal/filelock"
	"github.com/sokinpui/revise/internal/metrics"
	"github.com/sokinpui/revise/internal/patcher"
	"github.com/sokinpui/revise/model"
)

// Page selects a window of a history, newest first. A Limit of zero or less
// means no limit.
type Page struct {
	Limit  int
	Offset int
}

// Backend persists version nodes. Callers serialize Append per file.
type Backend interface {
	Append(ctx context.Context, node model.VersionNode) error
	// List returns the versions of a file newest first. An unknown file has
	// an empty history.
	List(ctx context.Context, fileID string, page Page) ([]model.VersionNode, error)
	// Get returns model.ErrNotFound for unknown versions.
	Get(ctx context.Context, fileID, versionID string) (model.VersionNode, error)
	Close() error
}

type Options struct {
	Backend Backend
	Engine  *engine.Engine
	Metrics *metrics.Metrics
	Logger  *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Store records versions. Writes to one file are serialized; writes to
// different files proceed independently.
type Store struct {
	backend Backend
	engine  *engine.Engine
	metrics *metrics.Metrics
	log     *slog.Logger
	now     func() time.Time
	locks   *filelock.Locker
}

func New(opts Options) *Store {
	if opts.Backend == nil {
		opts.Backend = NewMemory()
	}
	if opts.Engine == nil {
		opts.Engine = engine.New(engine.Options{Metrics: opts.Metrics})
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		backend: opts.Backend,
		engine:  opts.Engine,
		metrics: opts.Metrics,
		log:     opts.Logger.With("component", "history"),
		now:     opts.Now,
		locks:   filelock.New(),
	}
}

// ValidateFileID rejects identifiers that cannot be stored or routed.
func ValidateFileID(fileID string) error {
	if strings.TrimSpace(fileID) == "" {
		return fmt.Errorf("%w: missing file id", model.ErrInvalidInput)
	}
	if !utf8.ValidString(fileID) || strings.IndexByte(fileID, 0) >= 0 {
		return fmt.Errorf("%w: malformed file id", model.ErrInvalidInput)
	}
	return nil
}

// AddRequest describes one new version of a file.
type AddRequest struct {
	FileID     string
	Author     model.Author
	ChangeType model.ChangeType
	Summary    string
	OldContent string
	NewContent string
}

// AddVersion appends a version whose snapshot is NewContent. The audit patch
// is computed from OldContent. Timestamps strictly increase within a file.
func (s *Store) AddVersion(ctx context.Context, req AddRequest) (model.VersionNode, error) {
	if err := ValidateFileID(req.FileID); err != nil {
		return model.VersionNode{}, err
	}
	if !req.Author.Valid() {
		return model.VersionNode{}, fmt.Errorf("%w: unknown author %q", model.ErrInvalidInput, req.Author)
	}
	if !req.ChangeType.Valid() {
		return model.VersionNode{}, fmt.Errorf("%w: unknown change type %q", model.ErrInvalidInput, req.ChangeType)
	}

	alignment, err := s.engine.Align(ctx, req.OldContent, req.NewContent)
	if err != nil {
		return model.VersionNode{}, err
	}
	patch := patcher.Format(req.FileID, alignment.Ops, patcher.DefaultContext)
	stats, err := patcher.Stat(patch)
	if err != nil {
		return model.VersionNode{}, fmt.Errorf("failed to compute patch stats: %w", err)
	}

	unlock := s.locks.Lock(req.FileID)
	defer unlock()

	ts := s.now().UTC()
	latest, err := s.backend.List(ctx, req.FileID, Page{Limit: 1})
	if err != nil {
		return model.VersionNode{}, fmt.Errorf("failed to read latest version: %w", err)
	}
	if len(latest) > 0 && !ts.After(latest[0].Timestamp) {
		ts = latest[0].Timestamp.Add(time.Nanosecond)
	}

	node := model.VersionNode{
		ID:         uuid.NewString(),
		FileID:     req.FileID,
		Timestamp:  ts,
		Author:     req.Author,
		ChangeType: req.ChangeType,
		Summary:    req.Summary,
		DiffPatch:  patch,
		Snapshot:   req.NewContent,
		Stats:      stats,
	}
	if err := s.backend.Append(ctx, node); err != nil {
		return model.VersionNode{}, fmt.Errorf("failed to append version: %w", err)
	}

	s.metrics.Version(string(req.ChangeType))
	s.log.Info("version added",
		"file_id", node.FileID,
		"version_id", node.ID,
		"author", node.Author,
		"change_type", node.ChangeType,
		"added", stats.Added,
		"changed", stats.Changed,
		"deleted", stats.Deleted,
	)
	return node, nil
}

// History returns the versions of a file newest first.
func (s *Store) History(ctx context.Context, fileID string, page Page) ([]model.VersionNode, error) {
	if err := ValidateFileID(fileID); err != nil {
		return nil, err
	}
	if page.Offset < 0 {
		page.Offset = 0
	}
	nodes, err := s.backend.List(ctx, fileID, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	if nodes == nil {
		nodes = []model.VersionNode{}
	}
	return nodes, nil
}

// Latest returns the newest version of a file, if any.
func (s *Store) Latest(ctx context.Context, fileID string) (model.VersionNode, bool, error) {
	nodes, err := s.History(ctx, fileID, Page{Limit: 1})
	if err != nil || len(nodes) == 0 {
		return model.VersionNode{}, false, err
	}
	return nodes[0], true, nil
}

// Current returns the newest snapshot of a file, or "" for a file without history.
func (s *Store) Current(ctx context.Context, fileID string) (string, error) {
	node, _, err := s.Latest(ctx, fileID)
	return node.Snapshot, err
}

// Version returns a single version of a file.
func (s *Store) Version(ctx context.Context, fileID, versionID string) (model.VersionNode, error) {
	if err := ValidateFileID(fileID); err != nil {
		return model.VersionNode{}, err
	}
	node, err := s.backend.Get(ctx, fileID, versionID)
	if err != nil {
		return model.VersionNode{}, fmt.Errorf("version %s of %s: %w", versionID, fileID, err)
	}
	return node, nil
}

// Revert returns the snapshot of a version. It does not write anything; a
// caller that applies the snapshot records that as a new version.
func (s *Store) Revert(ctx context.Context, fileID, versionID string) (string, error) {
	node, err := s.Version(ctx, fileID, versionID)
	if err != nil {
		return "", err
	}
	return node.Snapshot, nil
}

func (s *Store) Close() error {
	return s.backend.Close()
}
