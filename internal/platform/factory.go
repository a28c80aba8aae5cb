package platform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/koremd/pkg/adapters/fs"
	"github.com/aretw0/koremd/pkg/adapters/kv"
	"github.com/aretw0/koremd/pkg/adapters/share"
	"github.com/aretw0/koremd/pkg/core"
	"github.com/aretw0/koremd/pkg/markdown"
)

// AppName names the per-user directories.
const AppName = "koremd"

// App is the composition root: every store and service of a running session,
// wired to exactly one storage backend.
type App struct {
	Platform core.Platform
	Registry *core.Registry
	Settings *core.SettingsStore
	Renderer *markdown.Renderer
	Exporter core.Exporter
	// HighlightStyle is the configured chroma style; empty follows the theme setting.
	HighlightStyle string

	// Web always backs the settings; on the web platform it also holds the notes.
	Web *kv.Store
	// Native, Cache are set on the native platform.
	Native *fs.Store
	Cache  *fs.Store
	// Objects issues download URLs on the web platform.
	Objects *share.ObjectURLs

	logger  *slog.Logger
	closers []io.Closer
}

// New detects the platform, opens its backend once and hydrates both stores.
//
//	app, err := platform.New(ctx, platform.WithDataDir("./notes"))
func New(ctx context.Context, opts ...Option) (*App, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	p, err := Detect(o.platform, o.dataDir)
	if err != nil {
		return nil, err
	}

	sandbox := o.forceTemp || (IsDevRun() && o.devSafety)
	if sandbox {
		o.logger.Debug("running in SAFE mode (dev sandbox enabled)")
	}

	app := &App{Platform: p, HighlightStyle: o.highlightStyle, logger: o.logger}
	if err := app.openWeb(ctx, o, sandbox); err != nil {
		return nil, err
	}

	app.Settings = core.NewSettingsStore(app.Web,
		core.WithLocale(o.locale),
		core.WithSettingsLogger(o.logger),
	)
	if err := app.Settings.Load(ctx); err != nil {
		o.logger.Warn("failed to persist seeded settings", "error", err)
	}

	style := o.highlightStyle
	if style == "" {
		style = markdown.StyleForTheme(app.Settings.Settings().Theme)
	}
	app.Renderer = markdown.New(markdown.WithStyle(style), markdown.WithLogger(o.logger))

	var (
		store core.BlobStore
		key   string
	)
	switch p {
	case core.PlatformNative:
		if err := app.openNative(ctx, o, sandbox); err != nil {
			_ = app.Close()
			return nil, err
		}
		store, key = app.Native, core.NativeFilesKey
	case core.PlatformWeb:
		if err := app.openWebExport(ctx, o, sandbox); err != nil {
			_ = app.Close()
			return nil, err
		}
		store, key = app.Web, core.WebFilesKey
	}

	app.Registry = core.NewRegistry(store, key,
		core.WithLogger(o.logger),
		core.WithExporter(app.Exporter),
		core.WithSaveErrorHandler(o.onSaveError),
	)
	app.Registry.Load(ctx)

	o.logger.Debug("koremd ready", "platform", p, "files", len(app.Registry.Files()))
	return app, nil
}

// Detect picks the storage backend. An explicit platform wins; otherwise the
// native backend is used when a data directory can be resolved.
func Detect(explicit core.Platform, dataDir string) (core.Platform, error) {
	if explicit != "" {
		if !explicit.Valid() {
			return "", fmt.Errorf("platform %q: %w", explicit, core.ErrInvalid)
		}
		return explicit, nil
	}
	if dataDir != "" {
		return core.PlatformNative, nil
	}
	if _, err := DefaultDataDir(); err == nil {
		return core.PlatformNative, nil
	}
	return core.PlatformWeb, nil
}

// DefaultDataDir returns the per-user application data directory.
func DefaultDataDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

// DefaultCacheDir returns the per-user cache directory.
func DefaultCacheDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

// DefaultWebDB returns the web storage database, in memory when no data directory exists.
func DefaultWebDB() string {
	dir, err := DefaultDataDir()
	if err != nil {
		return ":memory:"
	}
	return filepath.Join(dir, "web.db")
}

// DefaultDownloadsDir returns ~/Downloads, falling back to the cache directory.
func DefaultDownloadsDir() (string, error) {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, "Downloads"), nil
	}
	return DefaultCacheDir()
}

func (a *App) openWeb(ctx context.Context, o *options, sandbox bool) error {
	path := o.webDB
	if path == "" {
		path = DefaultWebDB()
	}
	path = ResolveSandboxPath(path, "web", sandbox)

	web := kv.NewStore(kv.Config{Path: path, Origin: o.origin, Logger: o.logger})
	if err := web.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to open web storage: %w", err)
	}
	a.Web = web
	a.closers = append(a.closers, web)
	return nil
}

func (a *App) openNative(ctx context.Context, o *options, sandbox bool) error {
	dataDir := o.dataDir
	if dataDir == "" {
		dir, err := DefaultDataDir()
		if err != nil {
			return fmt.Errorf("failed to resolve data directory: %w", err)
		}
		dataDir = dir
	}
	cacheDir := o.cacheDir
	if cacheDir == "" {
		dir, err := DefaultCacheDir()
		if err != nil {
			dir = filepath.Join(dataDir, "cache")
		}
		cacheDir = dir
	}

	native, err := openFS(ctx, ResolveSandboxPath(dataDir, "data", sandbox), o.logger)
	if err != nil {
		return fmt.Errorf("failed to open data directory: %w", err)
	}
	a.Native = native
	a.closers = append(a.closers, native)

	cache, err := openFS(ctx, ResolveSandboxPath(cacheDir, "cache", sandbox), o.logger)
	if err != nil {
		return fmt.Errorf("failed to open cache directory: %w", err)
	}
	a.Cache = cache
	a.closers = append(a.closers, cache)

	a.Exporter = share.NewNativeExporter(cache, o.sharer, o.logger)
	return nil
}

func (a *App) openWebExport(ctx context.Context, o *options, sandbox bool) error {
	a.Objects = share.NewObjectURLs()

	downloader := o.downloader
	if downloader == nil {
		dir := o.downloadsDir
		if dir == "" {
			d, err := DefaultDownloadsDir()
			if err != nil {
				return fmt.Errorf("failed to resolve downloads directory: %w", err)
			}
			dir = d
		}
		downloads, err := openFS(ctx, ResolveSandboxPath(dir, "downloads", sandbox), o.logger)
		if err != nil {
			return fmt.Errorf("failed to open downloads directory: %w", err)
		}
		a.closers = append(a.closers, downloads)
		downloader = share.NewDirDownloader(a.Objects, downloads)
	}

	a.Exporter = share.NewWebExporter(a.Objects, downloader, o.logger)
	return nil
}

func openFS(ctx context.Context, dir string, logger *slog.Logger) (*fs.Store, error) {
	s := fs.NewStore(fs.Config{Path: dir, Logger: logger})
	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Close releases every backend in reverse opening order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Logger returns the logger shared by every component.
func (a *App) Logger() *slog.Logger {
	return a.logger
}
