package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/koremd/internal/platform"
	"github.com/aretw0/koremd/internal/server"
	"github.com/aretw0/koremd/pkg/core"
	"github.com/aretw0/koremd/pkg/markdown"
)

func setupServer(t *testing.T) (*httptest.Server, *platform.App) {
	t.Helper()
	root := t.TempDir()
	app, err := platform.New(context.Background(),
		platform.WithPlatform(core.PlatformWeb),
		platform.WithWebDB(filepath.Join(root, "web.db")),
		platform.WithDownloadsDir(filepath.Join(root, "downloads")),
		platform.WithLocale(func() string { return "en_US" }),
		platform.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	ts := httptest.NewServer(server.New(app).Router())
	t.Cleanup(ts.Close)
	return ts, app
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealthz(t *testing.T) {
	ts, _ := setupServer(t)
	resp := do(t, http.MethodGet, ts.URL+"/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestFilesLifecycle(t *testing.T) {
	ts, app := setupServer(t)

	// Create with no body uses the default name and becomes current.
	resp := do(t, http.MethodPost, ts.URL+"/api/files", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[core.MarkdownFile](t, resp)
	assert.Equal(t, core.DefaultFileName, created.Name)

	resp = do(t, http.MethodGet, ts.URL+"/api/current", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, created.ID, decode[core.MarkdownFile](t, resp).ID)

	// Update content and name.
	resp = do(t, http.MethodPut, ts.URL+"/api/files/"+created.ID, `{"content":"# Shopping\n\nEggs","name":"shop.md"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[core.MarkdownFile](t, resp)
	assert.Equal(t, "shop.md", updated.Name)
	assert.Equal(t, "# Shopping\n\nEggs", updated.Content)

	// Import does not change the current file.
	resp = do(t, http.MethodPost, ts.URL+"/api/import", `{"name":"other.md","content":"nothing here"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	imported := decode[core.MarkdownFile](t, resp)
	cur, _ := app.Registry.CurrentFile()
	assert.Equal(t, created.ID, cur.ID)

	// Listing is newest first; ?q filters case-insensitively.
	resp = do(t, http.MethodGet, ts.URL+"/api/files", "")
	all := decode[[]core.MarkdownFile](t, resp)
	require.Len(t, all, 2)
	assert.Equal(t, imported.ID, all[0].ID)

	resp = do(t, http.MethodGet, ts.URL+"/api/files?q=EGGS", "")
	filtered := decode[[]core.MarkdownFile](t, resp)
	require.Len(t, filtered, 1)
	assert.Equal(t, created.ID, filtered[0].ID)

	// Select and delete.
	resp = do(t, http.MethodPost, ts.URL+"/api/files/"+imported.ID+"/select", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = do(t, http.MethodDelete, ts.URL+"/api/files/"+imported.ID, "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = do(t, http.MethodGet, ts.URL+"/api/current", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Everything was persisted to web storage.
	blob, err := app.Web.ReadBlob(context.Background(), core.WebFilesKey)
	require.NoError(t, err)
	assert.Contains(t, blob, "shop.md")
	assert.NotContains(t, blob, "other.md")
}

func TestFiles_NotFound(t *testing.T) {
	ts, _ := setupServer(t)
	for _, c := range []struct{ method, path, body string }{
		{http.MethodGet, "/api/files/missing", ""},
		{http.MethodPut, "/api/files/missing", `{"content":"x"}`},
		{http.MethodDelete, "/api/files/missing", ""},
		{http.MethodPost, "/api/files/missing/select", ""},
		{http.MethodGet, "/api/files/missing/export", ""},
	} {
		resp := do(t, c.method, ts.URL+c.path, c.body)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, "%s %s", c.method, c.path)
	}
}

func TestBadRequests(t *testing.T) {
	ts, _ := setupServer(t)
	resp := do(t, http.MethodPost, ts.URL+"/api/import", `{"content":"no name"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodPost, ts.URL+"/api/render", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodPut, ts.URL+"/api/view", `{"viewMode":"table"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExport(t *testing.T) {
	ts, app := setupServer(t)
	f := app.Registry.Import(context.Background(), "report:final.md", "# Report")

	resp := do(t, http.MethodGet, ts.URL+"/api/files/"+f.ID+"/export", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "# Report", string(body))
	assert.Equal(t, "text/markdown; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "report_final.md")
	assert.Equal(t, 0, app.Objects.Len())
}

func TestRender(t *testing.T) {
	ts, app := setupServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/api/render", `{"markdown":"# Hi\n\n`+"```js\\nconst x=1;\\n```"+`"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[struct {
		HTML      string `json:"html"`
		WordCount int    `json:"wordCount"`
	}](t, resp)
	assert.Contains(t, out.HTML, "<h1>Hi</h1>")
	assert.Contains(t, out.HTML, "chroma")
	assert.Positive(t, out.WordCount)

	f := app.Registry.Import(context.Background(), "a.md", "**bold**")
	resp = do(t, http.MethodGet, ts.URL+"/api/files/"+f.ID+"/render?format=html", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "<strong>bold</strong>")

	resp = do(t, http.MethodGet, ts.URL+"/api/highlight.css", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	css, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(css), ".chroma")
}

func TestView(t *testing.T) {
	ts, app := setupServer(t)
	app.Registry.Import(context.Background(), "alpha.md", "")
	app.Registry.Import(context.Background(), "beta.md", "")

	resp := do(t, http.MethodPut, ts.URL+"/api/view", `{"viewMode":"grid","searchQuery":"ALP"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, core.ViewGrid, app.Registry.ViewMode())

	resp = do(t, http.MethodGet, ts.URL+"/api/files", "")
	files := decode[[]core.MarkdownFile](t, resp)
	require.Len(t, files, 1)
	assert.Equal(t, "alpha.md", files[0].Name)
}

func TestSettings(t *testing.T) {
	ts, app := setupServer(t)

	resp := do(t, http.MethodGet, ts.URL+"/api/settings", "")
	got := decode[core.AppSettings](t, resp)
	assert.Equal(t, core.LanguageEnglish, got.Language, "seeded from locale")

	resp = do(t, http.MethodPatch, ts.URL+"/api/settings", `{"fontSize":40,"theme":"dark"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got = decode[core.AppSettings](t, resp)
	assert.Equal(t, core.MaxFontSize, got.FontSize)
	assert.Equal(t, core.ThemeDark, got.Theme)

	resp = do(t, http.MethodPatch, ts.URL+"/api/settings", `{"language":"fr"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, core.LanguageEnglish, app.Settings.Settings().Language)

	blob, err := app.Web.ReadBlob(context.Background(), core.SettingsKey)
	require.NoError(t, err)
	assert.Contains(t, blob, `"theme":"dark"`)
}

func TestStylesheet_FollowsTheme(t *testing.T) {
	ts, _ := setupServer(t)
	css := func() string {
		resp := do(t, http.MethodGet, ts.URL+"/api/highlight.css", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return string(body)
	}
	want := func(style string) string {
		var buf bytes.Buffer
		require.NoError(t, markdown.New().StylesheetFor(&buf, style))
		return buf.String()
	}

	assert.Equal(t, want(markdown.DefaultStyle), css())

	resp := do(t, http.MethodPatch, ts.URL+"/api/settings", `{"theme":"dark"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, want(markdown.StyleForTheme(core.ThemeDark)), css(), "no restart needed")
}
