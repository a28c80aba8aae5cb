// Package config resolves CLI configuration with viper.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/aretw0/koremd/internal/platform"
	"github.com/aretw0/koremd/pkg/adapters/share"
	"github.com/aretw0/koremd/pkg/core"
)

// Option describes one configuration key.
type Option struct {
	Key     string
	Default any
	Comment string
}

// GetConfigOptions returns the configuration keys, their defaults and meanings.
func GetConfigOptions() []Option {
	return []Option{
		{Key: "platform", Default: "", Comment: "Storage backend: native or web; empty detects it"},
		{Key: "data_dir", Default: "", Comment: "Directory holding files.json; empty uses the user config dir"},
		{Key: "cache_dir", Default: "", Comment: "Directory native exports are written to before sharing"},
		{Key: "web_db", Default: "", Comment: "SQLite file backing web storage; :memory: keeps it in process"},
		{Key: "origin", Default: "", Comment: "Origin scoping web storage keys"},
		{Key: "downloads_dir", Default: "", Comment: "Directory web exports are saved to; empty uses ~/Downloads"},
		{Key: "http_addr", Default: "127.0.0.1:8787", Comment: "Listen address of koremd serve"},
		{Key: "share", Default: "log", Comment: "Native share sheet: log or clipboard"},
		{Key: "highlight_style", Default: "", Comment: "Chroma style; empty follows the theme"},
	}
}

func applyDefaults(v *viper.Viper) {
	for _, o := range GetConfigOptions() {
		v.SetDefault(o.Key, o.Default)
	}
}

// Load resolves configuration with precedence: defaults < file < env.
// Flags bound by the caller take precedence over all of them.
func Load(v *viper.Viper) error {
	if v.ConfigFileUsed() == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir, err := DefaultConfigDir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
	}

	applyDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvPrefix("koremd")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	return CheckConfigValidity(v)
}

// DefaultConfigDir resolves $XDG_CONFIG_HOME/koremd, or ~/.config/koremd.
func DefaultConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, platform.AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", platform.AppName), nil
}

// CheckConfigValidity reports every invalid value at once.
func CheckConfigValidity(v *viper.Viper) error {
	var errs []error
	if p := core.Platform(v.GetString("platform")); p != "" && !p.Valid() {
		errs = append(errs, fmt.Errorf("platform must be native or web, got %q", p))
	}
	switch v.GetString("share") {
	case "log", "clipboard":
	default:
		errs = append(errs, fmt.Errorf("share must be log or clipboard, got %q", v.GetString("share")))
	}
	if strings.TrimSpace(v.GetString("http_addr")) == "" {
		errs = append(errs, errors.New("http_addr is required"))
	}
	return errors.Join(errs...)
}

// PlatformOptions maps resolved configuration to platform options.
func PlatformOptions(v *viper.Viper, logger *slog.Logger) []platform.Option {
	opts := []platform.Option{
		platform.WithLogger(logger),
		platform.WithPlatform(core.Platform(v.GetString("platform"))),
		platform.WithDataDir(expandHome(v.GetString("data_dir"))),
		platform.WithCacheDir(expandHome(v.GetString("cache_dir"))),
		platform.WithWebDB(expandHome(v.GetString("web_db"))),
		platform.WithOrigin(v.GetString("origin")),
		platform.WithDownloadsDir(expandHome(v.GetString("downloads_dir"))),
		platform.WithHighlightStyle(v.GetString("highlight_style")),
	}
	if v.GetString("share") == "clipboard" {
		opts = append(opts, platform.WithSharer(share.ClipboardSharer{Logger: logger}))
	}
	return opts
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
