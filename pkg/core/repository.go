package core

import "context"

// Fixed blob keys.
const (
	// NativeFilesKey is the note registry blob on the native backend.
	NativeFilesKey = "files.json"
	// WebFilesKey is the note registry blob on the web backend.
	WebFilesKey = "koremd-files"
	// SettingsKey is the settings blob. It always lives on the web backend.
	SettingsKey = "koremd-settings"
)

// BlobStore defines the contract for reading and writing named text blobs.
// Adhering to this interface keeps the registry independent of the
// underlying storage mechanism (device filesystem, browser-like key/value store).
type BlobStore interface {
	// ReadBlob returns the text stored under key, or an error wrapping ErrNotFound.
	ReadBlob(ctx context.Context, key string) (string, error)

	// WriteBlob replaces the text stored under key. Failures wrap ErrIO.
	WriteBlob(ctx context.Context, key, text string) error
}

// Initializer is implemented by stores that need setup (mkdir, schema) before use.
type Initializer interface {
	Initialize(ctx context.Context) error
}

// Watchable defines an interface for stores that can report external changes to a blob.
type Watchable interface {
	// Watch streams events for key until ctx is done.
	Watch(ctx context.Context, key string) (<-chan Event, error)
}

// Exporter hands one note to a platform export surface (share sheet, download).
type Exporter interface {
	Export(ctx context.Context, file MarkdownFile) error
}
