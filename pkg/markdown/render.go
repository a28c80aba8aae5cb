// Package markdown turns note content into sanitized, highlighted HTML.
//
// The Renderer is configured once at construction: GitHub Flavored Markdown,
// hard line breaks, and chroma highlighting for fenced code. Render never fails;
// a broken document yields ErrorHTML so a live preview always has output.
package markdown

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"log/slog"
	"regexp"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	"github.com/aretw0/koremd/pkg/core"
)

// ErrorHTML is returned by Render when the document cannot be converted.
const ErrorHTML = "<p>Error rendering markdown</p>"

// DefaultStyle is the chroma style used when none is configured.
const DefaultStyle = "github"

// StyleForTheme maps a display theme to a chroma style.
func StyleForTheme(theme core.Theme) string {
	if theme == core.ThemeDark {
		return "monokai"
	}
	return DefaultStyle
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithStyle selects the chroma style emitted by Stylesheet.
func WithStyle(name string) Option {
	return func(r *Renderer) {
		if name != "" {
			r.styleName = name
		}
	}
}

// WithLogger sets the logger used to report render and highlight failures.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Renderer converts Markdown to HTML. It is safe for concurrent use.
type Renderer struct {
	md        goldmark.Markdown
	policy    *bluemonday.Policy
	formatter *chromahtml.Formatter
	style     *chroma.Style
	styleName string
	logger    *slog.Logger
}

// New builds a Renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		styleName: DefaultStyle,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.style = styles.Get(r.styleName)
	r.formatter = chromahtml.New(chromahtml.WithClasses(true))
	r.policy = newPolicy()

	r.md = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			gmhtml.WithHardWraps(),
			renderer.WithNodeRenderers(
				util.Prioritized(&codeBlockRenderer{r: r}, 100),
			),
		),
	)
	return r
}

// Render converts text to sanitized HTML.
func (r *Renderer) Render(text string) (out string) {
	defer func() {
		if recovered := recover(); recovered != nil {
			r.logger.Error("markdown render panic", "error", recovered)
			out = ErrorHTML
		}
	}()

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(text), &buf); err != nil {
		r.logger.Error("failed to render markdown", "error", err)
		return ErrorHTML
	}
	return r.policy.Sanitize(buf.String())
}

// Stylesheet writes the CSS for the configured highlight style.
func (r *Renderer) Stylesheet(w io.Writer) error {
	return r.writeCSS(w, r.style)
}

// StylesheetFor writes the CSS for the named chroma style. Rendered HTML only
// carries class names, so any style applies to it. Unknown names fall back to
// the chroma default.
func (r *Renderer) StylesheetFor(w io.Writer, name string) error {
	return r.writeCSS(w, styles.Get(name))
}

func (r *Renderer) writeCSS(w io.Writer, style *chroma.Style) error {
	if err := r.formatter.WriteCSS(w, style); err != nil {
		return fmt.Errorf("failed to write highlight css: %w", err)
	}
	return nil
}

// StyleName returns the configured chroma style.
func (r *Renderer) StyleName() string {
	return r.styleName
}

var classPattern = regexp.MustCompile(`^[\w\- ]+$`)

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	// chroma emits class-based spans.
	p.AllowAttrs("class").Matching(classPattern).OnElements("span", "pre", "code", "div")
	// GFM task lists.
	p.AllowAttrs("type").Matching(regexp.MustCompile(`^checkbox$`)).OnElements("input")
	p.AllowAttrs("checked", "disabled").OnElements("input")
	return p
}

// highlight renders code with the lexer for lang, detecting it when lang is unknown.
func (r *Renderer) highlight(w io.Writer, lang, code string) error {
	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return err
	}
	return r.formatter.Format(w, r.style, iterator)
}

// codeBlockRenderer replaces goldmark's fenced code output with chroma markup.
type codeBlockRenderer struct {
	r *Renderer
}

func (c *codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, c.renderFencedCode)
}

func (c *codeBlockRenderer) renderFencedCode(
	w util.BufWriter, source []byte, node ast.Node, entering bool,
) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock)

	var lang string
	if n.Info != nil {
		lang = string(n.Language(source))
	}

	var code bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		code.Write(line.Value(source))
	}

	var out bytes.Buffer
	if err := c.r.highlight(&out, lang, code.String()); err != nil {
		c.r.logger.Warn("highlighting failed, writing plain code", "lang", lang, "error", err)
		_, _ = w.WriteString("<pre><code>")
		_, _ = w.WriteString(html.EscapeString(code.String()))
		_, _ = w.WriteString("</code></pre>\n")
		return ast.WalkSkipChildren, nil
	}
	_, _ = w.Write(out.Bytes())
	return ast.WalkSkipChildren, nil
}
