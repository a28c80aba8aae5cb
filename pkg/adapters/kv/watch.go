package kv

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/koremd/pkg/core"
)

// Watch polls the row for key and emits an event when another writer changes it,
// similar to a storage event fired in other tabs of the same origin.
// Writes through this Store are reported too.
func (s *Store) Watch(ctx context.Context, key string) (<-chan core.Event, error) {
	last, exists, err := s.stamp(ctx, key)
	if err != nil {
		return nil, err
	}

	events := make(chan core.Event)
	s.setWatching(1)

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer s.setWatching(-1)
		defer close(events)

		ticker := time.NewTicker(s.config.PollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}

			stamp, ok, err := s.stamp(ctx, key)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.config.Logger.Warn("kv poll failed", "key", key, "error", err)
				continue
			}

			var e core.Event
			switch {
			case ok && (!exists || stamp != last):
				e = core.Event{Type: core.EventModify, Key: key, Timestamp: time.Now().Unix()}
			case !ok && exists:
				e = core.Event{Type: core.EventDelete, Key: key, Timestamp: time.Now().Unix()}
			default:
				continue
			}
			last, exists = stamp, ok

			select {
			case events <- e:
			case <-ctx.Done():
				return nil
			}
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		s.config.Logger.Error("kv watcher panic", "error", err)
	}))
	return events, nil
}

// stamp returns the updated_at of key and whether the row exists.
func (s *Store) stamp(ctx context.Context, key string) (int64, bool, error) {
	db, err := s.handle()
	if err != nil {
		return 0, false, err
	}
	var updated int64
	err = db.QueryRowContext(ctx, `SELECT updated_at FROM blobs WHERE origin=? AND key=?`, s.config.Origin, key).Scan(&updated)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return updated, true, nil
}

func (s *Store) setWatching(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers += delta
}
