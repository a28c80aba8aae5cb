// Package core holds the note registry, the settings store and the contracts
// they need from storage and export adapters.
package core

// MarkdownFile is the central entity of the domain: one note.
// The JSON field names are the persisted wire format.
type MarkdownFile struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Content   string `json:"content" yaml:"content"`
	CreatedAt int64  `json:"createdAt" yaml:"createdAt"` // milliseconds since epoch
	UpdatedAt int64  `json:"updatedAt" yaml:"updatedAt"` // milliseconds since epoch
}

// DefaultFileName is used by Create when no name is given.
const DefaultFileName = "Untitled.md"

// ViewMode controls how the file list is presented. It is never persisted.
type ViewMode string

const (
	ViewList ViewMode = "list"
	ViewGrid ViewMode = "grid"
)

// Valid reports whether m is a known view mode.
func (m ViewMode) Valid() bool {
	return m == ViewList || m == ViewGrid
}

// EditorMode is the editor pane state of the view layer.
type EditorMode string

const (
	EditorEdit    EditorMode = "edit"
	EditorPreview EditorMode = "preview"
)

// Platform identifies which storage backend the process runs on.
type Platform string

const (
	PlatformNative Platform = "native"
	PlatformWeb    Platform = "web"
)

// Valid reports whether p names a known backend.
func (p Platform) Valid() bool {
	return p == PlatformNative || p == PlatformWeb
}

// EventType represents the type of change observed on a blob.
type EventType string

const (
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change of a persisted blob made outside the registry.
type Event struct {
	Type      EventType
	Key       string
	Timestamp int64 // Unix timestamp
}

func (e Event) String() string {
	return string(e.Type) + " " + e.Key
}
