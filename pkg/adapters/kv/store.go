// Package kv implements the web storage backend: an origin-scoped key/value
// table of UTF-8 strings held in a local SQLite database.
package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aretw0/koremd/pkg/core"
)

// DefaultOrigin scopes blobs when no origin is configured.
const DefaultOrigin = "koremd://local"

const schema = `
CREATE TABLE IF NOT EXISTS blobs (
  origin TEXT NOT NULL,
  key TEXT NOT NULL,
  value TEXT NOT NULL,
  updated_at INTEGER NOT NULL,
  PRIMARY KEY (origin, key)
);
`

// Config holds the configuration for the key/value store.
type Config struct {
	// Path is the database file. ":memory:" keeps everything in process.
	Path string
	// Origin partitions keys the way a browser partitions storage per site.
	Origin string
	// PollInterval is how often Watch checks for external writes. Defaults to 500ms.
	PollInterval time.Duration
	Logger       *slog.Logger
}

// Store implements core.BlobStore on a SQLite key/value table.
type Store struct {
	config Config

	mu        sync.RWMutex
	db        *sql.DB
	writes    int
	lastWrite *time.Time
	watchers  int
}

// NewStore creates a key/value store. Call Initialize before use.
func NewStore(config Config) *Store {
	if config.Origin == "" {
		config.Origin = DefaultOrigin
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 500 * time.Millisecond
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Store{config: config}
}

// Initialize opens the database and ensures the schema exists.
// Calling it again on an open store is a no-op.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return nil
	}

	path := strings.TrimPrefix(s.config.Path, "sqlite://")
	if path == "" {
		return errors.New("kv store path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps ":memory:" a single database and serializes writers.
	db.SetMaxOpenConns(1)

	if path != ":memory:" {
		if _, err := db.ExecContext(ctx, `PRAGMA journal_mode=WAL;`); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to enable WAL: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	s.db = db
	s.config.Logger.Debug("kv store opened", "path", path, "origin", s.config.Origin)
	return nil
}

func (s *Store) handle() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, fmt.Errorf("kv store not initialized: %w", core.ErrIO)
	}
	return s.db, nil
}

// ReadBlob returns the value stored under key for the configured origin.
func (s *Store) ReadBlob(ctx context.Context, key string) (string, error) {
	db, err := s.handle()
	if err != nil {
		return "", err
	}
	var value string
	row := db.QueryRowContext(ctx, `SELECT value FROM blobs WHERE origin=? AND key=?`, s.config.Origin, key)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%s: %w", key, core.ErrNotFound)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("read %s: %w: %w", key, core.ErrIO, err)
	}
	return value, nil
}

// WriteBlob replaces the value stored under key for the configured origin.
func (s *Store) WriteBlob(ctx context.Context, key, text string) error {
	if key == "" {
		return errors.New("invalid blob key \"\"")
	}
	db, err := s.handle()
	if err != nil {
		return err
	}
	now := time.Now()
	_, err = db.ExecContext(ctx, `
INSERT INTO blobs(origin, key, value, updated_at) VALUES(?,?,?,?)
ON CONFLICT(origin, key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		s.config.Origin, key, text, now.UnixNano())
	if err != nil {
		return fmt.Errorf("write %s: %w: %w", key, core.ErrIO, err)
	}

	s.mu.Lock()
	s.writes++
	s.lastWrite = &now
	s.mu.Unlock()
	return nil
}

// Keys lists the keys stored for the configured origin, sorted.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `SELECT key FROM blobs WHERE origin=? ORDER BY key ASC`, s.config.Origin)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w: %w", core.ErrIO, err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

var _ core.BlobStore = (*Store)(nil)
var _ core.Initializer = (*Store)(nil)
var _ core.Watchable = (*Store)(nil)
