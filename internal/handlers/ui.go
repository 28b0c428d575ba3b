package handlers

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/ternarybob/arbor"
)

//go:embed static
var staticFiles embed.FS

// UIHandler serves the embedded chat page and its assets
type UIHandler struct {
	static http.Handler
	logger arbor.ILogger
}

func NewUIHandler(logger arbor.ILogger) *UIHandler {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err) // embedded directory is always present
	}

	return &UIHandler{
		static: http.StripPrefix("/static/", http.FileServer(http.FS(sub))),
		logger: logger,
	}
}

// IndexHandler serves the chat page at "/" and 404s everything else
func (h *UIHandler) IndexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		WriteNotFound(w, r)
		return
	}
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	data, err := staticFiles.ReadFile("static/index.html")
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to read embedded index page")
		WriteError(w, http.StatusInternalServerError, "Failed to load page")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// StaticFileHandler serves /static/ assets
func (h *UIHandler) StaticFileHandler(w http.ResponseWriter, r *http.Request) {
	h.static.ServeHTTP(w, r)
}
