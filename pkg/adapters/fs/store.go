// Package fs implements the native storage backend: each blob is a UTF-8 file
// under an application-private data directory.
package fs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/aretw0/koremd/pkg/core"
)

// DefaultLockFile is the lock file guarding writes inside the data directory.
const DefaultLockFile = ".koremd.lock"

// Store implements core.BlobStore on the filesystem.
type Store struct {
	Path   string
	config Config
	lock   *flock.Flock

	mu            sync.RWMutex
	watcherActive bool
	lastWrite     *time.Time
	writes        int
}

// Config holds the configuration for the filesystem store.
type Config struct {
	Path      string
	MustExist bool
	LockFile  string        // defaults to DefaultLockFile
	Debounce  time.Duration // watch debounce window, defaults to 50ms
	Logger    *slog.Logger
}

// NewStore creates a new filesystem-backed blob store rooted at config.Path.
func NewStore(config Config) *Store {
	if config.LockFile == "" {
		config.LockFile = DefaultLockFile
	}
	if config.Debounce <= 0 {
		config.Debounce = 50 * time.Millisecond
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Store{
		Path:   config.Path,
		config: config,
		lock:   flock.New(filepath.Join(config.Path, config.LockFile)),
	}
}

// Initialize ensures the data directory exists.
func (s *Store) Initialize(ctx context.Context) error {
	if s.config.MustExist {
		info, err := os.Stat(s.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("data directory does not exist: %s", s.Path)
		}
		if err != nil {
			return fmt.Errorf("failed to stat data directory: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("data path is not a directory: %s", s.Path)
		}
		return nil
	}
	if err := os.MkdirAll(s.Path, 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

// pathFor maps a key to a file directly inside the data directory.
func (s *Store) pathFor(key string) (string, error) {
	if key == "" || key == "." || key == ".." ||
		strings.ContainsAny(key, `/\`) || key == s.config.LockFile ||
		strings.HasPrefix(key, TempFilePrefix) {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return filepath.Join(s.Path, key), nil
}

// ReadBlob returns the content of the file named key.
func (s *Store) ReadBlob(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, err := s.pathFor(key)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", key, core.ErrNotFound)
		}
		return "", fmt.Errorf("read %s: %w: %w", key, core.ErrIO, err)
	}
	return string(data), nil
}

// WriteBlob atomically replaces the file named key.
// Writers in other processes are serialized by the data directory lock file.
func (s *Store) WriteBlob(ctx context.Context, key, text string) error {
	path, err := s.pathFor(key)
	if err != nil {
		return err
	}

	locked, err := s.lock.TryLockContext(ctx, 10*time.Millisecond)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w: %w", core.ErrIO, err)
	}
	if !locked {
		return fmt.Errorf("failed to acquire lock: %w", core.ErrIO)
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			s.config.Logger.Warn("failed to release lock", "path", s.lock.Path(), "error", err)
		}
	}()

	s.config.Logger.Debug("writing blob to disk", "key", key, "path", path, "bytes", len(text))
	if err := writeFileAtomic(path, []byte(text), 0600); err != nil {
		return fmt.Errorf("write %s: %w: %w", key, core.ErrIO, err)
	}
	s.recordWrite()
	return nil
}

// FileURI returns the file:// reference of the blob stored under key.
func (s *Store) FileURI(key string) (string, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return "file://" + filepath.ToSlash(abs), nil
}

// Close releases the lock file handle.
func (s *Store) Close() error {
	return s.lock.Close()
}

var _ core.BlobStore = (*Store)(nil)
var _ core.Initializer = (*Store)(nil)
var _ core.Watchable = (*Store)(nil)
