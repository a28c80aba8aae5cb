package koremd

import (
	"context"
	"log/slog"

	"github.com/aretw0/koremd/internal/platform"
	"github.com/aretw0/koremd/pkg/adapters/share"
	"github.com/aretw0/koremd/pkg/core"
	"github.com/aretw0/koremd/pkg/markdown"
)

// --- Types ---

// App is a running KoreMD session.
type App = platform.App

// AppState is the introspection snapshot of an App.
type AppState = platform.AppState

// MarkdownFile is a note record.
type MarkdownFile = core.MarkdownFile

// AppSettings is the settings record.
type AppSettings = core.AppSettings

// --- Configuration ---

// Option defines a functional option for configuring KoreMD.
type Option = platform.Option

// WithPlatform forces the storage backend instead of detecting it.
func WithPlatform(p core.Platform) Option {
	return platform.WithPlatform(p)
}

// WithDataDir sets the directory holding the native note blob.
func WithDataDir(dir string) Option {
	return platform.WithDataDir(dir)
}

// WithCacheDir sets the directory native exports are written to.
func WithCacheDir(dir string) Option {
	return platform.WithCacheDir(dir)
}

// WithWebDB sets the database backing web storage.
func WithWebDB(path string) Option {
	return platform.WithWebDB(path)
}

// WithOrigin scopes web storage keys.
func WithOrigin(origin string) Option {
	return platform.WithOrigin(origin)
}

// WithDownloadsDir sets where web exports are saved.
func WithDownloadsDir(dir string) Option {
	return platform.WithDownloadsDir(dir)
}

// WithHighlightStyle overrides the chroma style picked from the theme.
func WithHighlightStyle(name string) Option {
	return platform.WithHighlightStyle(name)
}

// WithLogger sets the logger for every component.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithSharer sets the native share sheet.
func WithSharer(s share.Sharer) Option {
	return platform.WithSharer(s)
}

// WithDownloader replaces the web download target.
func WithDownloader(d share.Downloader) Option {
	return platform.WithDownloader(d)
}

// WithLocale overrides the locale used to seed the language setting.
func WithLocale(fn core.LocaleFunc) Option {
	return platform.WithLocale(fn)
}

// WithSaveErrorHandler registers a callback for failed note saves.
func WithSaveErrorHandler(fn func(error)) Option {
	return platform.WithSaveErrorHandler(fn)
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithDevSafety controls the sandbox used under `go run` and `go test`.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// --- Factory ---

// New opens a KoreMD session on the detected or configured platform.
func New(ctx context.Context, opts ...Option) (*App, error) {
	return platform.New(ctx, opts...)
}

// --- Rendering ---

// Render converts Markdown to sanitized HTML with the default renderer.
func Render(text string) string {
	return defaultRenderer.Render(text)
}

// WordCount returns the length of text in characters.
func WordCount(text string) int {
	return markdown.WordCount(text)
}

// SanitizeFileName replaces characters unsafe in file names with '_'.
func SanitizeFileName(name string) string {
	return markdown.SanitizeFileName(name)
}

var defaultRenderer = markdown.New()

// --- Safety & Utils ---

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}
