package core

import (
	"github.com/aretw0/introspection"
)

// RegistryState exposes internal state for observability.
type RegistryState struct {
	Key         string   `json:"key"`
	Loaded      bool     `json:"loaded"`
	Files       int      `json:"files"`
	CurrentID   string   `json:"current_id,omitempty"`
	SearchQuery string   `json:"search_query,omitempty"`
	ViewMode    ViewMode `json:"view_mode"`
	StoreType   string   `json:"store_type"`
	Exporter    bool     `json:"exporter"`
}

// State implements introspection.Introspectable.
func (r *Registry) State() any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return RegistryState{
		Key:         r.key,
		Loaded:      r.loaded,
		Files:       len(r.files),
		CurrentID:   r.currentID,
		SearchQuery: r.searchQuery,
		ViewMode:    r.viewMode,
		StoreType:   componentType(r.store),
		Exporter:    r.exporter != nil,
	}
}

// ComponentType implements introspection.Component.
func (r *Registry) ComponentType() string {
	return "registry"
}

// SettingsState exposes the settings store for observability.
type SettingsState struct {
	Settings  AppSettings `json:"settings"`
	StoreType string      `json:"store_type"`
}

// State implements introspection.Introspectable.
func (s *SettingsStore) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SettingsState{Settings: s.settings, StoreType: componentType(s.store)}
}

// ComponentType implements introspection.Component.
func (s *SettingsStore) ComponentType() string {
	return "settings"
}

func componentType(v any) string {
	if v == nil {
		return "unknown"
	}
	// Try to get component type if the store implements introspection.Component
	if comp, ok := v.(introspection.Component); ok {
		return comp.ComponentType()
	}
	return "store"
}

var _ introspection.Introspectable = (*Registry)(nil)
var _ introspection.Component = (*Registry)(nil)
var _ introspection.Introspectable = (*SettingsStore)(nil)
var _ introspection.Component = (*SettingsStore)(nil)
