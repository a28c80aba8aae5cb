package kv

import (
	"time"

	"github.com/aretw0/introspection"
)

// StoreState exposes internal state for observability.
type StoreState struct {
	Path      string     `json:"path"`
	Origin    string     `json:"origin"`
	Open      bool       `json:"open"`
	Watchers  int        `json:"watchers"`
	Writes    int        `json:"writes"`
	LastWrite *time.Time `json:"last_write,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StoreState{
		Path:      s.config.Path,
		Origin:    s.config.Origin,
		Open:      s.db != nil,
		Watchers:  s.watchers,
		Writes:    s.writes,
		LastWrite: s.lastWrite,
	}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "kv"
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)
