package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ragbot/internal/common"
	"github.com/ternarybob/ragbot/internal/models"
	"github.com/ternarybob/ragbot/internal/services/answer"
)

// HealthStatus is the startup outcome reported by /api/health.
// It is fixed once the application is constructed.
type HealthStatus struct {
	Ready    bool
	Manifest *models.IndexManifest
	Err      error
}

type APIHandler struct {
	status HealthStatus
	logger arbor.ILogger
}

func NewAPIHandler(status HealthStatus, logger arbor.ILogger) *APIHandler {
	return &APIHandler{
		status: status,
		logger: logger,
	}
}

type indexSummary struct {
	ID             string    `json:"id"`
	ChunkCount     int       `json:"chunk_count"`
	EmbeddingModel string    `json:"embedding_model"`
	ChunkStrategy  string    `json:"chunk_strategy"`
	CreatedAt      time.Time `json:"created_at"`
}

type healthResponse struct {
	Ready bool          `json:"ready"`
	Index *indexSummary `json:"index,omitempty"`
	Error string        `json:"error,omitempty"`
}

// VersionHandler returns version information
func (h *APIHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, common.GetVersionInfo())
}

// HealthHandler reports whether the answer pipeline initialized.
// 200 when ready, 503 otherwise.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	response := healthResponse{Ready: h.status.Ready}
	if m := h.status.Manifest; m != nil {
		response.Index = &indexSummary{
			ID:             m.ID,
			ChunkCount:     m.ChunkCount,
			EmbeddingModel: m.Identity().String(),
			ChunkStrategy:  m.ChunkStrategy,
			CreatedAt:      m.CreatedAt,
		}
	}
	if h.status.Err != nil {
		// Detail stays in the startup log
		response.Error = answer.ErrorKind(h.status.Err)
	}

	statusCode := http.StatusOK
	if !h.status.Ready {
		statusCode = http.StatusServiceUnavailable
	}
	WriteJSON(w, statusCode, response)
}
