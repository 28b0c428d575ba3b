package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ragbot/internal/common"
	"github.com/ternarybob/ragbot/internal/interfaces"
	"github.com/ternarybob/ragbot/internal/models"
	"github.com/ternarybob/ragbot/internal/services/answer"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Client-facing messages. Internal detail is only logged.
const (
	MsgNotReady      = "Chatbot service is not ready. Please check server logs."
	MsgNoQuestion    = "No question provided"
	MsgInternalError = "An internal error occurred while processing your request. Please try again."
)

const maxAskBodyBytes = 1 << 20

// AskHandler serves POST /ask
type AskHandler struct {
	pipeline   interfaces.AnswerService // nil when startup failed
	renderHTML bool
	timeout    time.Duration // bounds one Answer call; 0 = request context only
	markdown   goldmark.Markdown
	validate   *validator.Validate
	logger     arbor.ILogger
}

// NewAskHandler creates the /ask handler. A nil pipeline answers every
// request with the not-ready error.
func NewAskHandler(pipeline interfaces.AnswerService, renderHTML bool, timeout time.Duration, logger arbor.ILogger) *AskHandler {
	validate := validator.New(validator.WithRequiredStructEnabled())
	// Registration only fails for an empty tag or nil func
	_ = validate.RegisterValidation("notblank", validators.NotBlank)

	return &AskHandler{
		pipeline:   pipeline,
		renderHTML: renderHTML,
		timeout:    timeout,
		markdown:   goldmark.New(goldmark.WithExtensions(extension.GFM)),
		validate:   validate,
		logger:     logger,
	}
}

// AskHandler answers a single question
func (h *AskHandler) AskHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if h.pipeline == nil {
		WriteError(w, http.StatusInternalServerError, MsgNotReady)
		return
	}

	var req models.AskRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAskBodyBytes)).Decode(&req); err != nil {
		h.logger.Debug().Err(err).Msg("Rejected /ask request body")
		WriteError(w, http.StatusBadRequest, MsgNoQuestion)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.logger.Debug().Err(err).Msg("Rejected /ask request without question")
		WriteError(w, http.StatusBadRequest, MsgNoQuestion)
		return
	}

	requestID := common.NewRequestID()
	w.Header().Set("X-Request-ID", requestID)

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	result, err := h.pipeline.Answer(ctx, req.Question)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("request_id", requestID).
			Str("kind", answer.ErrorKind(err)).
			Msg("Failed to answer question")
		WriteError(w, http.StatusInternalServerError, MsgInternalError)
		return
	}

	h.logger.Info().
		Str("request_id", requestID).
		Int("sources", len(result.Sources)).
		Dur("duration", result.Duration).
		Msg("Question answered")

	response := models.AskResponse{Answer: result.Answer}
	if h.renderHTML {
		var buf bytes.Buffer
		if err := h.markdown.Convert([]byte(result.Answer), &buf); err != nil {
			h.logger.Warn().Err(err).Str("request_id", requestID).Msg("Failed to render answer as HTML")
		} else {
			response.AnswerHTML = buf.String()
		}
	}

	WriteJSON(w, http.StatusOK, response)
}
