package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sokinpui/revise/model"
)

// SQLite is a Backend stored in a local SQLite database.
type SQLite struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLite, error) {
	p := filepath.Clean(strings.TrimSpace(path))
	if p == "" || p == "." {
		return nil, errors.New("missing db path")
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func initSchema(db *sql.DB) error {
	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		return fmt.Errorf("pragma journal_mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout=3000;`); err != nil {
		return fmt.Errorf("pragma busy_timeout: %w", err)
	}
	return migrateSchema(db)
}

func migrateSchema(db *sql.DB) error {
	const targetVersion = 1

	var v int
	if err := db.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return fmt.Errorf("pragma user_version: %w", err)
	}
	if v >= targetVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS versions (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  version_id TEXT NOT NULL UNIQUE,
  file_id TEXT NOT NULL,
  timestamp_unix_ns INTEGER NOT NULL,
  author TEXT NOT NULL,
  change_type TEXT NOT NULL,
  summary TEXT NOT NULL DEFAULT '',
  diff_patch TEXT NOT NULL DEFAULT '',
  snapshot TEXT NOT NULL,
  added INTEGER NOT NULL DEFAULT 0,
  changed INTEGER NOT NULL DEFAULT 0,
  deleted INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_versions_file_seq ON versions(file_id, seq);
`); err != nil {
		return fmt.Errorf("create versions table: %w", err)
	}
	if _, err := tx.Exec(fmt.Sprintf(`PRAGMA user_version=%d;`, targetVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return tx.Commit()
}

func (s *SQLite) Append(ctx context.Context, n model.VersionNode) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO versions (version_id, file_id, timestamp_unix_ns, author, change_type, summary, diff_patch, snapshot, added, changed, deleted)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.FileID, n.Timestamp.UnixNano(), string(n.Author), string(n.ChangeType),
		n.Summary, n.DiffPatch, n.Snapshot, n.Stats.Added, n.Stats.Changed, n.Stats.Deleted,
	)
	return err
}

const selectVersion = `
SELECT version_id, file_id, timestamp_unix_ns, author, change_type, summary, diff_patch, snapshot, added, changed, deleted
FROM versions`

func (s *SQLite) List(ctx context.Context, fileID string, page Page) ([]model.VersionNode, error) {
	limit := page.Limit
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, selectVersion+`
WHERE file_id = ?
ORDER BY seq DESC
LIMIT ? OFFSET ?`, fileID, limit, page.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.VersionNode
	for rows.Next() {
		n, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *SQLite) Get(ctx context.Context, fileID, versionID string) (model.VersionNode, error) {
	row := s.db.QueryRowContext(ctx, selectVersion+`
WHERE file_id = ? AND version_id = ?`, fileID, versionID)
	n, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.VersionNode{}, model.ErrNotFound
	}
	return n, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVersion(sc scanner) (model.VersionNode, error) {
	var (
		n                  model.VersionNode
		ts                 int64
		author, changeType string
	)
	err := sc.Scan(&n.ID, &n.FileID, &ts, &author, &changeType, &n.Summary, &n.DiffPatch, &n.Snapshot,
		&n.Stats.Added, &n.Stats.Changed, &n.Stats.Deleted)
	if err != nil {
		return model.VersionNode{}, err
	}
	n.Timestamp = time.Unix(0, ts).UTC()
	n.Author = model.Author(author)
	n.ChangeType = model.ChangeType(changeType)
	return n, nil
}
