package markdown

import (
	"fmt"

	"github.com/charmbracelet/glamour"

	"github.com/aretw0/koremd/pkg/core"
)

// DefaultWrap is the terminal word wrap width.
const DefaultWrap = 80

// TerminalRenderer renders Markdown as styled ANSI text for the CLI.
type TerminalRenderer struct {
	tr *glamour.TermRenderer
}

// NewTerminalRenderer builds a terminal renderer for theme. A width <= 0 means DefaultWrap.
func NewTerminalRenderer(theme core.Theme, width int) (*TerminalRenderer, error) {
	if width <= 0 {
		width = DefaultWrap
	}
	style := "light"
	if theme == core.ThemeDark {
		style = "dark"
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create terminal renderer: %w", err)
	}
	return &TerminalRenderer{tr: tr}, nil
}

// Render returns text styled for a terminal.
func (t *TerminalRenderer) Render(text string) (string, error) {
	out, err := t.tr.Render(text)
	if err != nil {
		return "", fmt.Errorf("failed to render for terminal: %w", err)
	}
	return out, nil
}
