package core

import (
	"os"
	"strings"

	"golang.org/x/text/language"
)

// Language is the UI language of the application.
type Language string

const (
	LanguageJapanese Language = "ja"
	LanguageEnglish  Language = "en"
)

// Valid reports whether l is a supported language.
func (l Language) Valid() bool {
	return l == LanguageJapanese || l == LanguageEnglish
}

// Theme is the color theme of the application.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Valid reports whether t is a supported theme.
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// Font size bounds, inclusive.
const (
	MinFontSize = 12
	MaxFontSize = 24
)

// AppSettings is the per-installation settings record.
type AppSettings struct {
	Language   Language `json:"language" yaml:"language"`
	FontSize   int      `json:"fontSize" yaml:"fontSize"`
	FontFamily string   `json:"fontFamily" yaml:"fontFamily"`
	Theme      Theme    `json:"theme" yaml:"theme"`
}

// DefaultSettings returns the settings of a fresh installation.
func DefaultSettings() AppSettings {
	return AppSettings{
		Language:   LanguageJapanese,
		FontSize:   16,
		FontFamily: "system-ui",
		Theme:      ThemeLight,
	}
}

// ClampFontSize bounds size to [MinFontSize, MaxFontSize].
func ClampFontSize(size int) int {
	return max(MinFontSize, min(MaxFontSize, size))
}

// LocaleFunc reports the platform locale, e.g. "ja-JP".
type LocaleFunc func() string

// SystemLocale reads the POSIX locale environment (LC_ALL, LC_MESSAGES, LANG).
func SystemLocale() string {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := os.Getenv(key); v != "" && v != "C" && v != "POSIX" {
			return v
		}
	}
	return ""
}

// DetectLanguage maps a platform locale to a supported language:
// Japanese for any "ja" locale, English otherwise.
func DetectLanguage(locale string) Language {
	s := strings.ToLower(strings.TrimSpace(locale))
	// POSIX form: ja_JP.UTF-8@variant
	if i := strings.IndexAny(s, ".@"); i >= 0 {
		s = s[:i]
	}
	s = strings.ReplaceAll(s, "_", "-")

	if tag, err := language.Parse(s); err == nil {
		if base, _ := tag.Base(); base.String() == "ja" {
			return LanguageJapanese
		}
		return LanguageEnglish
	}
	if strings.HasPrefix(s, "ja") {
		return LanguageJapanese
	}
	return LanguageEnglish
}
