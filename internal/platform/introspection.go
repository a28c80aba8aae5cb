package platform

import (
	"github.com/aretw0/introspection"

	"github.com/aretw0/koremd/pkg/core"
)

// AppState groups the state of every component of a running session.
type AppState struct {
	Platform   core.Platform  `json:"platform" yaml:"platform"`
	Components map[string]any `json:"components" yaml:"components"`
}

// State implements introspection.Introspectable.
// Components are keyed by role: registry, settings, data, cache, web.
func (a *App) State() any {
	state := AppState{Platform: a.Platform, Components: map[string]any{}}
	add := func(role string, c introspection.Introspectable) {
		state.Components[role] = c.State()
	}
	if a.Registry != nil {
		add("registry", a.Registry)
	}
	if a.Settings != nil {
		add("settings", a.Settings)
	}
	if a.Native != nil {
		add("data", a.Native)
	}
	if a.Cache != nil {
		add("cache", a.Cache)
	}
	if a.Web != nil {
		add("web", a.Web)
	}
	return state
}

// ComponentType implements introspection.Component.
func (a *App) ComponentType() string {
	return "app"
}

var _ introspection.Introspectable = (*App)(nil)
var _ introspection.Component = (*App)(nil)
