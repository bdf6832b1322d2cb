package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS group_owner (
	host       TEXT NOT NULL,
	grp        TEXT NOT NULL,
	owner      TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (host, grp)
);`

// SQLiteStore is the durable-slot alternative to FileStore for sites that
// prefer one database over a directory of state files. One row per
// (host, group) pair.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and if needed creates) the state database at dbPath.
// The parent directory is created when missing.
func OpenSQLite(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create state directory: %w", err)
		}
	}

	// WAL plus busy_timeout keeps overlapping invocations from failing
	// outright, though the probe still makes no exclusion promise.
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping state database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create state schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Read returns the stored owner for (host, group), found=false when no row
// exists.
func (s *SQLiteStore) Read(host, group string) (string, bool, error) {
	var owner string
	err := s.db.QueryRow(
		`SELECT owner FROM group_owner WHERE host = ? AND grp = ?`,
		SafeKey(host), SafeKey(group),
	).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read state row: %w", err)
	}
	return owner, owner != "", nil
}

// Write upserts the owner for (host, group).
func (s *SQLiteStore) Write(host, group, owner string) error {
	_, err := s.db.Exec(
		`INSERT INTO group_owner (host, grp, owner, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (host, grp) DO UPDATE SET owner = excluded.owner, updated_at = excluded.updated_at`,
		SafeKey(host), SafeKey(group), owner, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("write state row: %w", err)
	}
	return nil
}
