package markdown_test

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/koremd/pkg/core"
	"github.com/aretw0/koremd/pkg/markdown"
)

func newRenderer(opts ...markdown.Option) *markdown.Renderer {
	opts = append([]markdown.Option{markdown.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return markdown.New(opts...)
}

func TestRender(t *testing.T) {
	r := newRenderer()

	t.Run("Heading And Highlighted Code", func(t *testing.T) {
		out := r.Render("# Hi\n\n```js\nconst x=1;\n```")
		assert.Contains(t, out, "<h1>Hi</h1>")
		assert.Contains(t, out, `class="chroma"`)
		assert.Contains(t, out, "const")
	})

	t.Run("Empty Input", func(t *testing.T) {
		assert.NotPanics(t, func() {
			out := r.Render("")
			assert.NotEqual(t, markdown.ErrorHTML, out)
		})
	})

	t.Run("Untagged Fence Falls Back", func(t *testing.T) {
		out := r.Render("```\njust some words\n```")
		assert.Contains(t, out, "chroma")
		assert.Contains(t, out, "just some words")
	})

	t.Run("Unknown Language Falls Back", func(t *testing.T) {
		out := r.Render("```no-such-language\nvalue\n```")
		assert.Contains(t, out, "chroma")
		assert.Contains(t, out, "value")
	})

	t.Run("Code Is Escaped", func(t *testing.T) {
		out := r.Render("```html\n<b>bold</b>\n```")
		assert.NotContains(t, out, "<b>")
		assert.Contains(t, out, "&lt;")
	})

	t.Run("Hard Line Breaks", func(t *testing.T) {
		out := r.Render("first\nsecond")
		assert.Contains(t, out, "<br")
	})

	t.Run("GFM Extensions", func(t *testing.T) {
		out := r.Render("| a | b |\n|---|---|\n| 1 | 2 |\n\n~~gone~~\n\n- [x] done\n\nhttps://example.com")
		assert.Contains(t, out, "<table>")
		assert.Contains(t, out, "<del>gone</del>")
		assert.Contains(t, out, `type="checkbox"`)
		assert.Contains(t, out, `href="https://example.com"`)
	})

	t.Run("Sanitizes Dangerous Markup", func(t *testing.T) {
		out := r.Render("<script>alert(1)</script>\n\n[x](javascript:alert(1))\n\n<img src=x onerror=alert(1)>")
		assert.NotContains(t, out, "<script")
		assert.NotContains(t, out, "javascript:")
		assert.NotContains(t, out, "onerror")
	})

	t.Run("Unicode Content", func(t *testing.T) {
		out := r.Render("## こんにちは世界")
		assert.Contains(t, out, "こんにちは世界")
	})
}

func TestRender_Concurrent(t *testing.T) {
	r := newRenderer()
	done := make(chan string, 8)
	for i := 0; i < 8; i++ {
		go func() { done <- r.Render("# Title\n\n```go\nfunc main() {}\n```") }()
	}
	for i := 0; i < 8; i++ {
		assert.Contains(t, <-done, "<h1>Title</h1>")
	}
}

func TestStylesheet(t *testing.T) {
	var buf bytes.Buffer
	r := newRenderer(markdown.WithStyle(markdown.StyleForTheme(core.ThemeDark)))
	require.NoError(t, r.Stylesheet(&buf))
	assert.Contains(t, buf.String(), ".chroma")
	assert.Equal(t, "monokai", r.StyleName())
	assert.Equal(t, markdown.DefaultStyle, markdown.StyleForTheme(core.ThemeLight))
}

func TestStylesheetFor(t *testing.T) {
	r := newRenderer()
	var light, dark bytes.Buffer
	require.NoError(t, r.Stylesheet(&light))
	require.NoError(t, r.StylesheetFor(&dark, "monokai"))
	assert.Contains(t, dark.String(), ".chroma")
	assert.NotEqual(t, light.String(), dark.String())
	assert.Equal(t, markdown.DefaultStyle, r.StyleName(), "configured style unchanged")
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 0, markdown.WordCount(""))
	assert.Equal(t, 5, markdown.WordCount("hello"))
	assert.Equal(t, 5, markdown.WordCount("こんにちは"))
	assert.Equal(t, 11, markdown.WordCount("# Hi there\n"))
}

func TestSanitizeFileName(t *testing.T) {
	cases := map[string]string{
		"a/b:c*d":          "a_b_c_d",
		`<>:"/\|?*`:        "_________",
		"notes.md":         "notes.md",
		"メモ 2024.md":       "メモ 2024.md",
		"":                 "",
		`dir\file?.md`:     "dir_file_.md",
		"what|ever<1>.txt": "what_ever_1_.txt",
	}
	for in, want := range cases {
		assert.Equal(t, want, markdown.SanitizeFileName(in), "input %q", in)
	}
}

func TestTerminalRenderer(t *testing.T) {
	for _, theme := range []core.Theme{core.ThemeLight, core.ThemeDark} {
		tr, err := markdown.NewTerminalRenderer(theme, 40)
		require.NoError(t, err)
		out, err := tr.Render("hello")
		require.NoError(t, err)
		assert.True(t, strings.Contains(out, "hello"), "theme %s: %q", theme, out)
	}
}
