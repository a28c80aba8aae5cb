package platform

import (
	"log/slog"

	"github.com/aretw0/koremd/pkg/adapters/share"
	"github.com/aretw0/koremd/pkg/core"
)

// options holds the internal configuration for a KoreMD application.
type options struct {
	platform       core.Platform
	dataDir        string
	cacheDir       string
	webDB          string
	origin         string
	downloadsDir   string
	highlightStyle string
	logger         *slog.Logger
	sharer         share.Sharer
	downloader     share.Downloader
	locale         core.LocaleFunc
	onSaveError    func(error)
	forceTemp      bool
	devSafety      bool
}

// Option defines a functional option for configuring KoreMD.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		devSafety: true,
	}
}

// WithPlatform forces the storage backend instead of detecting it.
func WithPlatform(p core.Platform) Option {
	return func(o *options) {
		o.platform = p
	}
}

// WithDataDir sets the application-private directory holding the native note blob.
func WithDataDir(dir string) Option {
	return func(o *options) {
		o.dataDir = dir
	}
}

// WithCacheDir sets the directory native exports are written to before sharing.
func WithCacheDir(dir string) Option {
	return func(o *options) {
		o.cacheDir = dir
	}
}

// WithWebDB sets the SQLite file backing the web key/value store.
// ":memory:" keeps web storage in process.
func WithWebDB(path string) Option {
	return func(o *options) {
		o.webDB = path
	}
}

// WithOrigin scopes web storage keys.
func WithOrigin(origin string) Option {
	return func(o *options) {
		o.origin = origin
	}
}

// WithDownloadsDir sets where web exports are saved.
func WithDownloadsDir(dir string) Option {
	return func(o *options) {
		o.downloadsDir = dir
	}
}

// WithHighlightStyle overrides the chroma style picked from the theme.
func WithHighlightStyle(name string) Option {
	return func(o *options) {
		o.highlightStyle = name
	}
}

// WithLogger sets the logger for every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithSharer sets the native share sheet. Defaults to a LogSharer.
func WithSharer(s share.Sharer) Option {
	return func(o *options) {
		o.sharer = s
	}
}

// WithDownloader replaces the web download target. Defaults to saving into the downloads dir.
func WithDownloader(d share.Downloader) Option {
	return func(o *options) {
		o.downloader = d
	}
}

// WithLocale overrides the platform locale used to seed the language setting.
func WithLocale(fn core.LocaleFunc) Option {
	return func(o *options) {
		o.locale = fn
	}
}

// WithSaveErrorHandler registers a callback for failed registry saves.
func WithSaveErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.onSaveError = fn
	}
}

// WithForceTemp forces every directory into a temporary sandbox (useful for testing).
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.forceTemp = force
	}
}

// WithDevSafety controls the sandbox used when running via `go run` or `go test`.
// By default (true) directories outside the system temp dir are re-rooted into it.
//
// CAUTION: Only disable this if you are sure your code is safe.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}
