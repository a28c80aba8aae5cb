package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
)

// Registry is the in-memory, ordered collection of notes for the running session.
// It loads itself from a BlobStore and persists the whole sequence after every mutation.
type Registry struct {
	mu    sync.RWMutex
	store BlobStore
	key   string

	files       []MarkdownFile
	currentID   string
	searchQuery string
	viewMode    ViewMode
	loaded      bool

	// generation counts persisted mutations; lastBlob is the blob last
	// read or written by this registry.
	generation uint64
	lastBlob   string

	logger      *slog.Logger
	now         func() time.Time
	newID       func() string
	exporter    Exporter
	onSaveError func(error)
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger used for load, save and export diagnostics.
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// WithIDGenerator overrides how note ids are allocated.
func WithIDGenerator(gen func() string) RegistryOption {
	return func(r *Registry) {
		if gen != nil {
			r.newID = gen
		}
	}
}

// WithExporter sets the platform export surface used by Export.
func WithExporter(e Exporter) RegistryOption {
	return func(r *Registry) {
		r.exporter = e
	}
}

// WithSaveErrorHandler registers a callback invoked when persisting fails.
// Mutations still succeed in memory; the callback lets a caller offer a retry via Flush.
func WithSaveErrorHandler(fn func(error)) RegistryOption {
	return func(r *Registry) {
		r.onSaveError = fn
	}
}

// NewRegistry creates an empty Registry persisted under key in store.
func NewRegistry(store BlobStore, key string, opts ...RegistryOption) *Registry {
	r := &Registry{
		store:    store,
		key:      key,
		files:    []MarkdownFile{},
		viewMode: ViewList,
		logger:   slog.Default(),
		now:      time.Now,
		newID:    NewID,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load hydrates the registry from its blob.
// A missing or unparsable blob leaves the registry empty: this is the first-run path.
func (r *Registry) Load(ctx context.Context) {
	data, files, err := r.read(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaded = true
	if err != nil {
		r.logger.Info("no existing files found, starting fresh", "key", r.key, "reason", err)
		r.files = []MarkdownFile{}
		r.currentID = ""
		return
	}
	r.files = files
	r.lastBlob = data
	if !r.containsLocked(r.currentID) {
		r.currentID = ""
	}
	r.logger.Debug("files loaded", "key", r.key, "count", len(files))
}

// Reload re-reads the blob, keeping the current file when it still exists.
// Unlike Load it reports read failures and leaves the state untouched on error.
// A blob read before a concurrent mutation is discarded, as is the blob this
// registry wrote last.
func (r *Registry) Reload(ctx context.Context) error {
	_, err := r.reload(ctx)
	return err
}

// reload reports whether the in-memory sequence was replaced.
func (r *Registry) reload(ctx context.Context) (bool, error) {
	r.mu.RLock()
	gen := r.generation
	r.mu.RUnlock()

	data, files, err := r.read(ctx)
	if err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.generation != gen {
		r.logger.Debug("reload superseded by a local change", "key", r.key)
		return false, nil
	}
	if data == r.lastBlob {
		return false, nil
	}
	r.files = files
	r.lastBlob = data
	r.loaded = true
	if !r.containsLocked(r.currentID) {
		r.currentID = ""
	}
	return true, nil
}

func (r *Registry) read(ctx context.Context) (string, []MarkdownFile, error) {
	data, err := r.store.ReadBlob(ctx, r.key)
	if err != nil {
		return "", nil, err
	}
	var files []MarkdownFile
	if err := json.Unmarshal([]byte(data), &files); err != nil {
		return "", nil, fmt.Errorf("failed to parse %s: %w", r.key, err)
	}
	if files == nil {
		files = []MarkdownFile{}
	}
	return data, files, nil
}

// Create allocates an empty note at the front of the sequence and makes it current.
// An empty name means DefaultFileName.
func (r *Registry) Create(ctx context.Context, name string) MarkdownFile {
	if name == "" {
		name = DefaultFileName
	}

	r.mu.Lock()
	f := r.allocateLocked(name, "")
	r.currentID = f.ID
	err := r.persistLocked(ctx)
	r.mu.Unlock()

	r.saveFailed(err)
	return f
}

// Import adds a note with the given content at the front of the sequence.
// The imported note does not become current.
func (r *Registry) Import(ctx context.Context, name, content string) MarkdownFile {
	r.mu.Lock()
	f := r.allocateLocked(name, content)
	err := r.persistLocked(ctx)
	r.mu.Unlock()

	r.saveFailed(err)
	return f
}

// Update overwrites the content of the note with id, and its name when name is not empty.
// An unknown id is silently ignored.
func (r *Registry) Update(ctx context.Context, id, content, name string) {
	r.mu.Lock()
	i := r.indexLocked(id)
	if i < 0 {
		r.mu.Unlock()
		return
	}
	f := &r.files[i]
	f.Content = content
	if name != "" {
		f.Name = name
	}
	f.UpdatedAt = r.now().UnixMilli()
	err := r.persistLocked(ctx)
	r.mu.Unlock()

	r.saveFailed(err)
}

// Delete removes the first note matching id, clearing the current file if it was that note.
// An unknown id is a no-op and nothing is persisted.
func (r *Registry) Delete(ctx context.Context, id string) {
	r.mu.Lock()
	i := r.indexLocked(id)
	if i < 0 {
		r.mu.Unlock()
		return
	}
	r.files = append(r.files[:i], r.files[i+1:]...)
	if r.currentID == id {
		r.currentID = ""
	}
	err := r.persistLocked(ctx)
	r.mu.Unlock()

	r.saveFailed(err)
}

// Select makes the note with id current. An unknown id leaves the current file unchanged.
func (r *Registry) Select(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexLocked(id) >= 0 {
		r.currentID = id
	}
}

// Export hands file to the configured export surface.
// Failures are logged, never returned.
func (r *Registry) Export(ctx context.Context, file MarkdownFile) {
	if r.exporter == nil {
		r.logger.Warn("no export surface configured", "id", file.ID)
		return
	}
	if err := r.exporter.Export(ctx, file); err != nil {
		r.logger.Error("failed to export file", "id", file.ID, "name", file.Name, "error", err)
		return
	}
	r.logger.Debug("file exported", "id", file.ID, "name", file.Name)
}

// Flush persists the current state and returns the backend error, if any.
func (r *Registry) Flush(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.persistLocked(ctx)
}

// Files returns a copy of the whole sequence.
func (r *Registry) Files() []MarkdownFile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]MarkdownFile{}, r.files...)
}

// FilteredFiles returns the notes whose name or content contains the search query,
// ignoring case. An empty query returns every note.
func (r *Registry) FilteredFiles() []MarkdownFile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return FilterFiles(r.files, r.searchQuery)
}

// FilterFiles returns the files whose name or content contains query, ignoring case.
func FilterFiles(files []MarkdownFile, query string) []MarkdownFile {
	if query == "" {
		return append([]MarkdownFile{}, files...)
	}
	q := strings.ToLower(query)
	out := []MarkdownFile{}
	for _, f := range files {
		if strings.Contains(strings.ToLower(f.Name), q) ||
			strings.Contains(strings.ToLower(f.Content), q) {
			out = append(out, f)
		}
	}
	return out
}

// Get returns the note with id.
func (r *Registry) Get(id string) (MarkdownFile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.indexLocked(id); i >= 0 {
		return r.files[i], true
	}
	return MarkdownFile{}, false
}

// CurrentFile returns the note open for editing, if any.
func (r *Registry) CurrentFile() (MarkdownFile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.currentID == "" {
		return MarkdownFile{}, false
	}
	if i := r.indexLocked(r.currentID); i >= 0 {
		return r.files[i], true
	}
	return MarkdownFile{}, false
}

// SearchQuery returns the transient search query.
func (r *Registry) SearchQuery() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.searchQuery
}

// SetSearchQuery replaces the transient search query.
func (r *Registry) SetSearchQuery(q string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.searchQuery = q
}

// ViewMode returns the transient list presentation mode.
func (r *Registry) ViewMode() ViewMode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.viewMode
}

// SetViewMode changes the list presentation mode.
func (r *Registry) SetViewMode(m ViewMode) error {
	if !m.Valid() {
		return fmt.Errorf("view mode %q: %w", m, ErrInvalid)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.viewMode = m
	return nil
}

// Watch reloads the registry whenever the backend reports an external change
// to its blob, and forwards each event that replaced the in-memory sequence.
// Events caused by this registry's own writes are dropped.
func (r *Registry) Watch(ctx context.Context) (<-chan Event, error) {
	w, ok := r.store.(Watchable)
	if !ok {
		return nil, errors.New("storage backend does not support watching")
	}
	events, err := w.Watch(ctx, r.key)
	if err != nil {
		return nil, err
	}

	out := make(chan Event)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-events:
				if !ok {
					return nil
				}
				changed, err := r.reload(ctx)
				if err != nil {
					r.logger.Warn("reload after external change failed", "key", r.key, "error", err)
					continue
				}
				if !changed {
					continue
				}
				select {
				case out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		r.logger.Error("registry watch panic", "error", err)
	}))
	return out, nil
}

func (r *Registry) allocateLocked(name, content string) MarkdownFile {
	now := r.now().UnixMilli()
	f := MarkdownFile{
		ID:        r.newID(),
		Name:      name,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.files = append([]MarkdownFile{f}, r.files...)
	return f
}

func (r *Registry) persistLocked(ctx context.Context) error {
	r.generation++
	data, err := json.Marshal(r.files)
	if err != nil {
		return fmt.Errorf("failed to encode files: %w", err)
	}
	if err := r.store.WriteBlob(ctx, r.key, string(data)); err != nil {
		return err
	}
	r.lastBlob = string(data)
	return nil
}

// saveFailed reports a persistence failure outside the lock so the hook may call back in.
func (r *Registry) saveFailed(err error) {
	if err == nil {
		return
	}
	r.logger.Error("failed to save files", "key", r.key, "error", err)
	if r.onSaveError != nil {
		r.onSaveError(err)
	}
}

func (r *Registry) indexLocked(id string) int {
	for i := range r.files {
		if r.files[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *Registry) containsLocked(id string) bool {
	return id != "" && r.indexLocked(id) >= 0
}
