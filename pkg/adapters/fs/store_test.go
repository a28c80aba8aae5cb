package fs_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/koremd/pkg/adapters/fs"
	"github.com/aretw0/koremd/pkg/core"
)

// setupStore creates an initialized store rooted in a fresh temp directory.
func setupStore(t *testing.T, opts ...func(*fs.Config)) (*fs.Store, string) {
	t.Helper()

	dataDir := filepath.Join(t.TempDir(), "data")
	cfg := fs.Config{
		Path:     dataDir,
		Debounce: 20 * time.Millisecond,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	store := fs.NewStore(cfg)
	require.NoError(t, store.Initialize(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	return store, dataDir
}

func TestInitialize(t *testing.T) {
	t.Run("Creates Directory if Missing", func(t *testing.T) {
		_, dir := setupStore(t)
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("Fails if MustExist and Missing", func(t *testing.T) {
		store := fs.NewStore(fs.Config{Path: filepath.Join(t.TempDir(), "nope"), MustExist: true})
		assert.Error(t, store.Initialize(context.Background()))
	})
}

func TestStore_ReadWrite(t *testing.T) {
	ctx := context.Background()
	store, dir := setupStore(t)

	t.Run("Missing Blob Is NotFound", func(t *testing.T) {
		_, err := store.ReadBlob(ctx, core.NativeFilesKey)
		assert.True(t, errors.Is(err, core.ErrNotFound), "got %v", err)
	})

	t.Run("Round Trip UTF-8", func(t *testing.T) {
		text := `[{"id":"1","name":"メモ.md","content":"# こんにちは"}]`
		require.NoError(t, store.WriteBlob(ctx, core.NativeFilesKey, text))

		got, err := store.ReadBlob(ctx, core.NativeFilesKey)
		require.NoError(t, err)
		assert.Equal(t, text, got)

		raw, err := os.ReadFile(filepath.Join(dir, core.NativeFilesKey))
		require.NoError(t, err)
		assert.Equal(t, text, string(raw))
	})

	t.Run("Overwrite Replaces Whole Blob", func(t *testing.T) {
		require.NoError(t, store.WriteBlob(ctx, core.NativeFilesKey, "[]"))
		got, err := store.ReadBlob(ctx, core.NativeFilesKey)
		require.NoError(t, err)
		assert.Equal(t, "[]", got)
	})

	t.Run("Rejects Unsafe Keys", func(t *testing.T) {
		for _, key := range []string{"", "..", "../escape.json", `a\b`, "sub/files.json", fs.DefaultLockFile} {
			assert.Error(t, store.WriteBlob(ctx, key, "x"), "key %q", key)
		}
	})

	t.Run("Cancelled Context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := store.ReadBlob(cctx, core.NativeFilesKey)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestStore_WriteFailureWrapsErrIO(t *testing.T) {
	ctx := context.Background()
	store, dir := setupStore(t)

	// A directory where the blob should be makes the rename fail.
	require.NoError(t, os.Mkdir(filepath.Join(dir, "blocked.json"), 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blocked.json", "child"), []byte("x"), 0600))

	err := store.WriteBlob(ctx, "blocked.json", "[]")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrIO)
}

func TestStore_FileURI(t *testing.T) {
	store, dir := setupStore(t)
	uri, err := store.FileURI("note.md")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "file://"))
	assert.True(t, strings.HasSuffix(uri, filepath.ToSlash(filepath.Join(dir, "note.md"))))
}

func TestStore_State(t *testing.T) {
	store, dir := setupStore(t)
	require.NoError(t, store.WriteBlob(context.Background(), core.NativeFilesKey, "[]"))

	state, ok := store.State().(fs.StoreState)
	require.True(t, ok)
	assert.Equal(t, dir, state.Path)
	assert.Equal(t, 1, state.Writes)
	assert.NotNil(t, state.LastWrite)
	assert.Equal(t, "fs", store.ComponentType())
}

func TestStore_Watch(t *testing.T) {
	store, dir := setupStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, err := store.Watch(ctx, core.NativeFilesKey)
	require.NoError(t, err)

	// Wait a bit to ensure watcher is ready (naive)
	time.Sleep(100 * time.Millisecond)

	// Unrelated files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, core.NativeFilesKey), []byte("[]"), 0600))

	select {
	case e := <-events:
		assert.Equal(t, core.EventModify, e.Type)
		assert.Equal(t, core.NativeFilesKey, e.Key)
	case <-ctx.Done():
		t.Fatal("timeout waiting for watch event")
	}

	cancel()
	// The channel closes once the worker stops.
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-events:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}
