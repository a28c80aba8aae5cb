// Package share implements the export surfaces: the native share sheet,
// which hands out a file:// reference to a cached copy, and the web download,
// which serves a temporary object URL.
package share

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/atotto/clipboard"

	"github.com/aretw0/koremd/pkg/adapters/fs"
	"github.com/aretw0/koremd/pkg/core"
	"github.com/aretw0/koremd/pkg/markdown"
)

// DialogTitle is the title shown on the share sheet.
const DialogTitle = "Export Markdown File"

// Request is what a share sheet receives.
type Request struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	DialogTitle string `json:"dialogTitle"`
}

// Sharer presents a share request to the user.
type Sharer interface {
	Share(ctx context.Context, req Request) error
}

// ExportName returns the file name an export of f is saved under.
func ExportName(f core.MarkdownFile) string {
	name := markdown.SanitizeFileName(f.Name)
	if name == "" {
		return core.DefaultFileName
	}
	return name
}

// NativeExporter writes the note into the cache directory and shares its file URI.
type NativeExporter struct {
	cache  *fs.Store
	sharer Sharer
	logger *slog.Logger
}

// NewNativeExporter creates an exporter writing into cache. A nil sharer logs the request.
func NewNativeExporter(cache *fs.Store, sharer Sharer, logger *slog.Logger) *NativeExporter {
	if logger == nil {
		logger = slog.Default()
	}
	if sharer == nil {
		sharer = LogSharer{Logger: logger}
	}
	return &NativeExporter{cache: cache, sharer: sharer, logger: logger}
}

// Export implements core.Exporter.
func (e *NativeExporter) Export(ctx context.Context, f core.MarkdownFile) error {
	name := ExportName(f)
	if err := e.cache.WriteBlob(ctx, name, f.Content); err != nil {
		return fmt.Errorf("failed to write export copy: %w", err)
	}
	uri, err := e.cache.FileURI(name)
	if err != nil {
		return fmt.Errorf("failed to resolve export uri: %w", err)
	}
	e.logger.Debug("export copy written", "name", name, "uri", uri)

	return e.sharer.Share(ctx, Request{
		Title:       f.Name,
		URL:         uri,
		DialogTitle: DialogTitle,
	})
}

var _ core.Exporter = (*NativeExporter)(nil)

// ClipboardSharer puts the shared URL on the system clipboard.
type ClipboardSharer struct {
	Logger *slog.Logger
	// Write defaults to clipboard.WriteAll.
	Write func(string) error
}

// Share implements Sharer.
func (c ClipboardSharer) Share(ctx context.Context, req Request) error {
	write := c.Write
	if write == nil {
		write = clipboard.WriteAll
	}
	if err := write(req.URL); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}
	if c.Logger != nil {
		c.Logger.Info("export link copied to clipboard", "title", req.Title, "url", req.URL)
	}
	return nil
}

// LogSharer logs the share request. It is the headless share sheet.
type LogSharer struct {
	Logger *slog.Logger
}

// Share implements Sharer.
func (l LogSharer) Share(ctx context.Context, req Request) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info(req.DialogTitle, "title", req.Title, "url", req.URL)
	return nil
}

// SharerFunc adapts a function to Sharer.
type SharerFunc func(ctx context.Context, req Request) error

// Share implements Sharer.
func (f SharerFunc) Share(ctx context.Context, req Request) error {
	return f(ctx, req)
}
