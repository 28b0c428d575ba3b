package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Chat page and assets
	mux.HandleFunc("/", s.app.UIHandler.IndexHandler)
	mux.HandleFunc("/static/", s.app.UIHandler.StaticFileHandler)

	// Question answering
	mux.HandleFunc("/ask", s.app.AskHandler.AskHandler) // POST

	// API routes - System
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)   // GET
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler) // GET

	return mux
}
