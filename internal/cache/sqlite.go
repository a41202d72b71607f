package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists entries in a local SQLite file. Useful when the
// service runs on one host and should keep its cache across restarts
// without standing up Redis.
type SQLiteStore struct {
	readDB  *sql.DB
	writeDB *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at dbPath.
// Writes go through a single connection; reads use a separate read-only
// handle so lookups never queue behind a write.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	writeDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite for writing: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open("sqlite", dbPath+"?mode=ro")
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("open sqlite read-only: %w", err)
	}

	s := &SQLiteStore{readDB: readDB, writeDB: writeDB}
	if err := s.init(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) init() error {
	_, err := s.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS entries (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			expires_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_entries_expires ON entries(expires_at);
	`)
	if err != nil {
		return fmt.Errorf("create entries table: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		value     []byte
		expiresAt time.Time
	)
	err := s.readDB.QueryRowContext(ctx,
		"SELECT value, expires_at FROM entries WHERE key = ?", key,
	).Scan(&value, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("sqlite get failed: %w", err)
	}

	if time.Now().After(expiresAt) {
		// Lazy expiry: the row stays until the next write path sweeps it.
		return nil, false, nil
	}
	return value, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		if _, err := s.writeDB.ExecContext(ctx, "DELETE FROM entries WHERE key = ?", key); err != nil {
			return fmt.Errorf("sqlite delete failed: %w", err)
		}
		return nil
	}

	_, err := s.writeDB.ExecContext(ctx, `
		INSERT INTO entries (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at
	`, key, value, time.Now().Add(ttl))
	if err != nil {
		return fmt.Errorf("sqlite set failed: %w", err)
	}

	// Opportunistic sweep of anything already expired.
	_, _ = s.writeDB.ExecContext(ctx, "DELETE FROM entries WHERE expires_at < ?", time.Now())

	return nil
}

// FlushAll removes every entry.
func (s *SQLiteStore) FlushAll(ctx context.Context) error {
	if _, err := s.writeDB.ExecContext(ctx, "DELETE FROM entries"); err != nil {
		return fmt.Errorf("sqlite flush failed: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	var errs []error
	if s.readDB != nil {
		errs = append(errs, s.readDB.Close())
	}
	if s.writeDB != nil {
		errs = append(errs, s.writeDB.Close())
	}
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}
