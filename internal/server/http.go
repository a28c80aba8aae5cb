// Package server exposes a KoreMD session over a JSON HTTP API, the web view layer.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/koremd/internal/platform"
	"github.com/aretw0/koremd/pkg/adapters/share"
	"github.com/aretw0/koremd/pkg/core"
	"github.com/aretw0/koremd/pkg/markdown"
)

// maxBody caps request bodies.
const maxBody = 8 << 20

// Server serves the registry, renderer and settings of one App.
type Server struct {
	app     *platform.App
	objects *share.ObjectURLs
	logger  *slog.Logger
}

// New creates a Server for app.
func New(app *platform.App) *Server {
	objects := app.Objects
	if objects == nil {
		objects = share.NewObjectURLs()
	}
	return &Server{app: app, objects: objects, logger: app.Logger()}
}

// Router returns an http.Handler with registered routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /api/files", s.handleList)
	mux.HandleFunc("POST /api/files", s.handleCreate)
	mux.HandleFunc("GET /api/files/{id}", s.handleGet)
	mux.HandleFunc("PUT /api/files/{id}", s.handleUpdate)
	mux.HandleFunc("DELETE /api/files/{id}", s.handleDelete)
	mux.HandleFunc("POST /api/files/{id}/select", s.handleSelect)
	mux.HandleFunc("GET /api/files/{id}/export", s.handleExport)
	mux.HandleFunc("GET /api/files/{id}/render", s.handleRenderFile)
	mux.HandleFunc("GET /api/current", s.handleCurrent)
	mux.HandleFunc("POST /api/import", s.handleImport)
	mux.HandleFunc("POST /api/render", s.handleRender)
	mux.HandleFunc("GET /api/view", s.handleGetView)
	mux.HandleFunc("PUT /api/view", s.handleSetView)
	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PATCH /api/settings", s.handlePatchSettings)
	mux.HandleFunc("GET /api/highlight.css", s.handleStylesheet)
	return s.logRequests(mux)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("http request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

type fileRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type renderResponse struct {
	HTML      string `json:"html"`
	WordCount int    `json:"wordCount"`
}

type viewRequest struct {
	ViewMode    core.ViewMode `json:"viewMode"`
	SearchQuery *string       `json:"searchQuery,omitempty"`
}

type viewResponse struct {
	ViewMode    core.ViewMode `json:"viewMode"`
	SearchQuery string        `json:"searchQuery"`
}

type settingsPatch struct {
	Language   *core.Language `json:"language,omitempty"`
	FontSize   *int           `json:"fontSize,omitempty"`
	FontFamily *string        `json:"fontFamily,omitempty"`
	Theme      *core.Theme    `json:"theme,omitempty"`
}

// handleList returns the filtered files. ?q= filters this request only;
// without it the session search query applies.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	reg := s.app.Registry
	if q, ok := r.URL.Query()["q"]; ok {
		writeJSON(w, http.StatusOK, core.FilterFiles(reg.Files(), strings.Join(q, " ")))
		return
	}
	writeJSON(w, http.StatusOK, reg.FilteredFiles())
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req fileRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	f := s.app.Registry.Create(r.Context(), req.Name)
	writeJSON(w, http.StatusCreated, f)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req fileRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, errors.New("name is required"))
		return
	}
	f := s.app.Registry.Import(r.Context(), req.Name, req.Content)
	writeJSON(w, http.StatusCreated, f)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	f, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	f, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req fileRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.app.Registry.Update(r.Context(), f.ID, req.Content, req.Name)
	updated, _ := s.app.Registry.Get(f.ID)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	f, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.app.Registry.Delete(r.Context(), f.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	f, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.app.Registry.Select(f.ID)
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	f, ok := s.app.Registry.CurrentFile()
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("no file selected"))
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// handleExport streams the note as a text/markdown attachment through a temporary object URL.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	f, ok := s.lookup(w, r)
	if !ok {
		return
	}
	exp := share.NewWebExporter(s.objects, share.NewResponseDownloader(s.objects, w), s.logger)
	if err := exp.Export(r.Context(), f); err != nil {
		s.logger.Error("failed to export file", "id", f.ID, "error", err)
	}
}

func (s *Server) handleRenderFile(w http.ResponseWriter, r *http.Request) {
	f, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeRender(w, r, f.Content)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Markdown string `json:"markdown"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	s.writeRender(w, r, req.Markdown)
}

// writeRender answers with JSON, or with the bare fragment when ?format=html.
func (s *Server) writeRender(w http.ResponseWriter, r *http.Request, text string) {
	html := s.app.Renderer.Render(text)
	if r.URL.Query().Get("format") == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
		return
	}
	writeJSON(w, http.StatusOK, renderResponse{HTML: html, WordCount: markdown.WordCount(text)})
}

func (s *Server) handleGetView(w http.ResponseWriter, r *http.Request) {
	reg := s.app.Registry
	writeJSON(w, http.StatusOK, viewResponse{ViewMode: reg.ViewMode(), SearchQuery: reg.SearchQuery()})
}

func (s *Server) handleSetView(w http.ResponseWriter, r *http.Request) {
	var req viewRequest
	if !s.decode(w, r, &req) {
		return
	}
	reg := s.app.Registry
	if req.ViewMode != "" {
		if err := reg.SetViewMode(req.ViewMode); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	if req.SearchQuery != nil {
		reg.SetSearchQuery(*req.SearchQuery)
	}
	writeJSON(w, http.StatusOK, viewResponse{ViewMode: reg.ViewMode(), SearchQuery: reg.SearchQuery()})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Settings.Settings())
}

// handlePatchSettings applies each present field in order and stops at the first invalid one.
func (s *Server) handlePatchSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsPatch
	if !s.decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	st := s.app.Settings

	var err error
	if req.Language != nil {
		err = st.SetLanguage(ctx, *req.Language)
	}
	if err == nil && req.FontSize != nil {
		err = st.SetFontSize(ctx, *req.FontSize)
	}
	if err == nil && req.FontFamily != nil {
		err = st.SetFontFamily(ctx, *req.FontFamily)
	}
	if err == nil && req.Theme != nil {
		err = st.SetTheme(ctx, *req.Theme)
	}
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, core.ErrInvalid) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, st.Settings())
}

// handleStylesheet serves the configured highlight style, or the one matching
// the current theme setting.
func (s *Server) handleStylesheet(w http.ResponseWriter, r *http.Request) {
	style := s.app.HighlightStyle
	if style == "" {
		style = markdown.StyleForTheme(s.app.Settings.Settings().Theme)
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	if err := s.app.Renderer.StylesheetFor(w, style); err != nil {
		s.logger.Error("failed to write stylesheet", "error", err)
	}
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (core.MarkdownFile, bool) {
	id := r.PathValue("id")
	f, ok := s.app.Registry.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("file %s not found", id))
		return core.MarkdownFile{}, false
	}
	return f, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
