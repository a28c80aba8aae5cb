package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// SettingsStore holds the singleton AppSettings and persists it after every change.
type SettingsStore struct {
	mu       sync.RWMutex
	store    BlobStore
	settings AppSettings
	locale   LocaleFunc
	logger   *slog.Logger
}

// SettingsOption configures a SettingsStore.
type SettingsOption func(*SettingsStore)

// WithLocale sets the source of the platform locale used to seed the language.
func WithLocale(fn LocaleFunc) SettingsOption {
	return func(s *SettingsStore) {
		if fn != nil {
			s.locale = fn
		}
	}
}

// WithSettingsLogger sets the logger for persistence diagnostics.
func WithSettingsLogger(logger *slog.Logger) SettingsOption {
	return func(s *SettingsStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSettingsStore creates a store holding DefaultSettings.
// store must be the web key/value backend.
func NewSettingsStore(store BlobStore, opts ...SettingsOption) *SettingsStore {
	s := &SettingsStore{
		store:    store,
		settings: DefaultSettings(),
		locale:   SystemLocale,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the persisted settings and merges them over the defaults.
// Without a persisted record the language is seeded from the platform locale
// and the seeded record is saved immediately.
func (s *SettingsStore) Load(ctx context.Context) error {
	data, err := s.store.ReadBlob(ctx, SettingsKey)
	if err == nil {
		merged := DefaultSettings()
		jerr := json.Unmarshal([]byte(data), &merged)
		if jerr == nil {
			s.mu.Lock()
			s.settings = sanitizeSettings(merged)
			s.mu.Unlock()
			return nil
		}
		s.logger.Warn("settings blob unreadable, reseeding", "error", jerr)
	}

	seeded := DefaultSettings()
	seeded.Language = DetectLanguage(s.locale())
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = seeded
	s.logger.Debug("settings seeded from locale", "language", seeded.Language)
	return s.saveLocked(ctx)
}

// sanitizeSettings restores defaults for out-of-domain values found in a blob.
func sanitizeSettings(in AppSettings) AppSettings {
	def := DefaultSettings()
	if !in.Language.Valid() {
		in.Language = def.Language
	}
	if !in.Theme.Valid() {
		in.Theme = def.Theme
	}
	in.FontSize = ClampFontSize(in.FontSize)
	return in
}

// Settings returns a copy of the current record.
func (s *SettingsStore) Settings() AppSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// SetLanguage changes the UI language.
func (s *SettingsStore) SetLanguage(ctx context.Context, lang Language) error {
	if !lang.Valid() {
		return fmt.Errorf("language %q: %w", lang, ErrInvalid)
	}
	return s.update(ctx, func(a *AppSettings) { a.Language = lang })
}

// SetFontSize changes the editor font size, clamped to [MinFontSize, MaxFontSize].
func (s *SettingsStore) SetFontSize(ctx context.Context, size int) error {
	return s.update(ctx, func(a *AppSettings) { a.FontSize = ClampFontSize(size) })
}

// SetFontFamily changes the editor font family.
func (s *SettingsStore) SetFontFamily(ctx context.Context, family string) error {
	return s.update(ctx, func(a *AppSettings) { a.FontFamily = family })
}

// SetTheme changes the color theme.
func (s *SettingsStore) SetTheme(ctx context.Context, theme Theme) error {
	if !theme.Valid() {
		return fmt.Errorf("theme %q: %w", theme, ErrInvalid)
	}
	return s.update(ctx, func(a *AppSettings) { a.Theme = theme })
}

// update applies fn and writes the result under one lock, so the blob always
// matches the record even when setters race.
func (s *SettingsStore) update(ctx context.Context, fn func(*AppSettings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.settings)
	return s.saveLocked(ctx)
}

func (s *SettingsStore) saveLocked(ctx context.Context) error {
	data, err := json.Marshal(s.settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := s.store.WriteBlob(ctx, SettingsKey, string(data)); err != nil {
		s.logger.Error("failed to save settings", "error", err)
		return err
	}
	return nil
}
