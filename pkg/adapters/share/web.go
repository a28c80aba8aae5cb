package share

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/aretw0/koremd/pkg/adapters/fs"
	"github.com/aretw0/koremd/pkg/core"
)

// MarkdownMIME is the media type of exported notes.
const MarkdownMIME = "text/markdown"

// ErrRevoked is returned when an object URL is no longer valid.
var ErrRevoked = errors.New("object url revoked")

// Object is an in-memory payload addressed by an object URL.
type Object struct {
	URL  string
	MIME string
	Data []byte
}

// ObjectURLs issues temporary blob: URLs for in-memory payloads.
type ObjectURLs struct {
	mu      sync.Mutex
	objects map[string]Object
}

// NewObjectURLs creates an empty URL table.
func NewObjectURLs() *ObjectURLs {
	return &ObjectURLs{objects: make(map[string]Object)}
}

// Create registers data and returns its object URL.
func (o *ObjectURLs) Create(data []byte, mimeType string) string {
	url := "blob:" + uuid.NewString()
	o.mu.Lock()
	defer o.mu.Unlock()
	o.objects[url] = Object{URL: url, MIME: mimeType, Data: data}
	return url
}

// Open returns the object behind url.
func (o *ObjectURLs) Open(url string) (Object, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	obj, ok := o.objects[url]
	if !ok {
		return Object{}, fmt.Errorf("%s: %w", url, ErrRevoked)
	}
	return obj, nil
}

// Revoke releases url. Revoking an unknown URL is a no-op.
func (o *ObjectURLs) Revoke(url string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.objects, url)
}

// Len reports how many URLs are live.
func (o *ObjectURLs) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.objects)
}

// Downloader saves the object behind url under fileName, like clicking a download link.
type Downloader interface {
	Download(ctx context.Context, url, fileName string) error
}

// WebExporter offers a note as a text/markdown download.
type WebExporter struct {
	objects    *ObjectURLs
	downloader Downloader
	logger     *slog.Logger
}

// NewWebExporter creates an exporter issuing URLs from objects.
func NewWebExporter(objects *ObjectURLs, downloader Downloader, logger *slog.Logger) *WebExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebExporter{objects: objects, downloader: downloader, logger: logger}
}

// Export implements core.Exporter. The object URL is revoked once the download returns.
func (e *WebExporter) Export(ctx context.Context, f core.MarkdownFile) error {
	url := e.objects.Create([]byte(f.Content), MarkdownMIME)
	defer e.objects.Revoke(url)

	name := ExportName(f)
	e.logger.Debug("download started", "url", url, "name", name)
	if err := e.downloader.Download(ctx, url, name); err != nil {
		return fmt.Errorf("failed to download %s: %w", name, err)
	}
	return nil
}

var _ core.Exporter = (*WebExporter)(nil)

// DirDownloader saves downloads into a directory.
type DirDownloader struct {
	objects *ObjectURLs
	dir     *fs.Store
}

// NewDirDownloader creates a downloader writing into dir.
func NewDirDownloader(objects *ObjectURLs, dir *fs.Store) *DirDownloader {
	return &DirDownloader{objects: objects, dir: dir}
}

// Download implements Downloader.
func (d *DirDownloader) Download(ctx context.Context, url, fileName string) error {
	obj, err := d.objects.Open(url)
	if err != nil {
		return err
	}
	return d.dir.WriteBlob(ctx, fileName, string(obj.Data))
}

// ResponseDownloader streams a download as an HTTP attachment.
type ResponseDownloader struct {
	objects *ObjectURLs
	w       http.ResponseWriter
}

// NewResponseDownloader creates a downloader writing to w.
func NewResponseDownloader(objects *ObjectURLs, w http.ResponseWriter) *ResponseDownloader {
	return &ResponseDownloader{objects: objects, w: w}
}

// Download implements Downloader.
func (d *ResponseDownloader) Download(ctx context.Context, url, fileName string) error {
	obj, err := d.objects.Open(url)
	if err != nil {
		return err
	}
	h := d.w.Header()
	h.Set("Content-Type", obj.MIME+"; charset=utf-8")
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": fileName}))
	h.Set("Content-Length", strconv.Itoa(len(obj.Data)))
	d.w.WriteHeader(http.StatusOK)
	_, err = d.w.Write(obj.Data)
	return err
}
