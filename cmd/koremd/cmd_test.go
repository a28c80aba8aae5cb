package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/koremd"
	"github.com/aretw0/koremd/pkg/core"
)

func newTestApp(t *testing.T) *koremd.App {
	t.Helper()
	root := t.TempDir()
	app, err := koremd.New(context.Background(),
		koremd.WithPlatform(core.PlatformWeb),
		koremd.WithWebDB(filepath.Join(root, "web.db")),
		koremd.WithDownloadsDir(filepath.Join(root, "downloads")),
		koremd.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestResolveFile(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	a := app.Registry.Import(ctx, "alpha.md", "")
	b := app.Registry.Import(ctx, "beta.md", "")

	got, err := resolveFile(app, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID, "exact id")

	got, err = resolveFile(app, "beta.md")
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID, "by name")

	_, err = resolveFile(app, "missing.md")
	assert.Error(t, err)

	app.Registry.Import(ctx, "beta.md", "")
	_, err = resolveFile(app, "beta.md")
	assert.ErrorIs(t, err, errAmbiguous)
}

func TestFilterSince(t *testing.T) {
	cutoff := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	files := []koremd.MarkdownFile{
		{ID: "new", UpdatedAt: cutoff.Add(time.Hour).UnixMilli()},
		{ID: "old", UpdatedAt: cutoff.Add(-time.Hour).UnixMilli()},
	}

	assert.Len(t, filterSince(append([]koremd.MarkdownFile{}, files...), time.Time{}), 2)

	got := filterSince(append([]koremd.MarkdownFile{}, files...), cutoff)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].ID)
}

func TestExpandPatterns(t *testing.T) {
	dir := t.TempDir()
	for _, p := range []string{"a.md", "sub/b.md", "sub/deep/c.md", "sub/skip.txt"} {
		path := filepath.Join(dir, p)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	}

	got, err := expandPatterns([]string{
		filepath.Join(dir, "**", "*.md"),
		filepath.Join(dir, "a.md"),
	})
	require.NoError(t, err)
	assert.Len(t, got, 3, "duplicates dropped, txt skipped")

	_, err = expandPatterns([]string{"[unclosed"})
	assert.Error(t, err)
}

func TestRankByName(t *testing.T) {
	files := []koremd.MarkdownFile{
		{ID: "1", Name: "notes.md"},
		{ID: "2", Name: "groceries.md"},
		{ID: "3", Name: "garage.md"},
	}
	got := rankByName(files, "grcs")
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID)

	assert.Empty(t, rankByName(files, "zzz"))
}

func TestFormatTable(t *testing.T) {
	files := []koremd.MarkdownFile{{ID: "abc", Name: "a.md", Content: "hello"}}
	out := formatTable(files, false)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "a.md")
	assert.True(t, strings.HasSuffix(lines[1], "5"))

	assert.Contains(t, formatTable(files, true), "a.md")
}

func TestRecordSaveError(t *testing.T) {
	t.Cleanup(func() { saveErrs = nil })
	require.NoError(t, saveFailure())

	root := t.TempDir()
	app, err := koremd.New(context.Background(),
		koremd.WithPlatform(core.PlatformWeb),
		koremd.WithWebDB(filepath.Join(root, "web.db")),
		koremd.WithDownloadsDir(filepath.Join(root, "downloads")),
		koremd.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		koremd.WithSaveErrorHandler(recordSaveError),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	require.NoError(t, app.Web.Close())

	app.Registry.Create(context.Background(), "lost.md")
	assert.ErrorIs(t, saveFailure(), core.ErrIO)
}
