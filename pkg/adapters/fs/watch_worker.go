package fs

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/koremd/pkg/core"
)

// Watch streams an event whenever the file backing key changes on disk, until ctx is done.
// Bursts of filesystem notifications (an atomic rename emits several) are debounced
// into one event.
func (s *Store) Watch(ctx context.Context, key string) (<-chan core.Event, error) {
	if _, err := s.pathFor(key); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	// Watch the directory: atomic writes replace the file, which drops a file-level watch.
	if err := watcher.Add(s.Path); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", s.Path, err)
	}

	events := make(chan core.Event)
	w := &watchWorker{
		store:     s,
		key:       key,
		watcher:   watcher,
		events:    events,
		debouncer: newDebouncer(s.config.Debounce),
	}
	s.setWatcherActive(true)

	lifecycle.Go(ctx, w.run, lifecycle.WithErrorHandler(func(err error) {
		s.config.Logger.Error("watcher panic", "error", err)
	}))
	return events, nil
}

type watchWorker struct {
	store     *Store
	key       string
	watcher   *fsnotify.Watcher
	events    chan core.Event
	debouncer *debouncer
}

// run is the main event loop for the watcher worker.
func (w *watchWorker) run(ctx context.Context) (err error) {
	logger := w.store.config.Logger
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("watcher panic: %v", recovered)
			if logger.Enabled(ctx, slog.LevelDebug) {
				logger.Error("watcher panic", "error", err, "stack", string(debug.Stack()))
			} else {
				logger.Error("watcher panic", "error", err)
			}
		}
	}()
	defer w.store.setWatcherActive(false)
	defer close(w.events)
	defer w.watcher.Close()
	// Timers must be drained before the events channel closes.
	defer w.debouncer.stopAndWait()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.process(ctx, event)

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("fsnotify error", "error", wErr)
		}
	}
}

// process filters events to the watched blob and maps them to core events.
func (w *watchWorker) process(ctx context.Context, event fsnotify.Event) {
	if filepath.Base(event.Name) != w.key {
		return
	}

	var eType core.EventType
	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		eType = core.EventModify
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		eType = core.EventDelete
	default:
		return
	}
	w.store.config.Logger.Debug("blob event", "key", w.key, "op", event.Op.String())

	e := core.Event{Type: eType, Key: w.key, Timestamp: time.Now().Unix()}
	w.debouncer.add(w.key, func() {
		select {
		case w.events <- e:
		case <-ctx.Done():
		}
	})
}

// debouncer collapses calls for the same key that arrive within delay; the last one wins.
type debouncer struct {
	delay   time.Duration
	mu      sync.Mutex
	pending map[string]*time.Timer
	stopped bool
	wg      sync.WaitGroup
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{delay: delay, pending: make(map[string]*time.Timer)}
}

func (d *debouncer) add(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if t, ok := d.pending[key]; ok && t.Stop() {
		d.wg.Done()
	}

	d.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(d.delay, func() {
		defer d.wg.Done()
		d.mu.Lock()
		if d.pending[key] == t {
			delete(d.pending, key)
		}
		d.mu.Unlock()
		fn()
	})
	d.pending[key] = t
}

// stopAndWait cancels pending timers and waits for running callbacks to return.
func (d *debouncer) stopAndWait() {
	d.mu.Lock()
	d.stopped = true
	for k, t := range d.pending {
		if t.Stop() {
			d.wg.Done()
		}
		delete(d.pending, k)
	}
	d.mu.Unlock()
	d.wg.Wait()
}
