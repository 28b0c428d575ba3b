package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ragbot/internal/common"
	"github.com/ternarybob/ragbot/internal/interfaces"
	"github.com/ternarybob/ragbot/internal/models"
	"github.com/ternarybob/ragbot/internal/services/llm"
)

// Pipeline answers one question: retrieve, build context, fill prompt,
// generate, parse. It holds no per-question state.
type Pipeline struct {
	retriever interfaces.Retriever
	llm       interfaces.LLMService
	logger    arbor.ILogger
}

// NewPipeline creates a new answer pipeline
func NewPipeline(retriever interfaces.Retriever, llmService interfaces.LLMService, logger arbor.ILogger) *Pipeline {
	return &Pipeline{
		retriever: retriever,
		llm:       llmService,
		logger:    logger,
	}
}

// Answer runs every stage for question
func (p *Pipeline) Answer(ctx context.Context, question string) (*interfaces.AnswerResult, error) {
	start := time.Now()

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, common.ErrEmptyQuestion
	}

	chunks, err := p.Retrieve(ctx, question)
	if err != nil {
		return nil, err
	}

	filled := FillPrompt(question, BuildContext(models.Texts(chunks)))

	raw, err := p.Generate(ctx, filled)
	if err != nil {
		return nil, err
	}

	answer, err := p.Parse(raw)
	if err != nil {
		return nil, err
	}

	duration := time.Since(start)
	p.logger.Debug().
		Int("sources", len(chunks)).
		Int("answer_length", len(answer)).
		Dur("duration", duration).
		Msg("Question answered")

	return &interfaces.AnswerResult{
		Answer:   answer,
		Sources:  chunks,
		Duration: duration,
	}, nil
}

// Retrieve returns the chunks relevant to question
func (p *Pipeline) Retrieve(ctx context.Context, question string) ([]models.ScoredChunk, error) {
	chunks, err := p.retriever.Retrieve(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}
	return chunks, nil
}

// Generate sends the filled prompt to the model as a single user message
func (p *Pipeline) Generate(ctx context.Context, filledPrompt string) (string, error) {
	raw, err := p.llm.Chat(ctx, []interfaces.Message{
		{Role: "user", Content: filledPrompt},
	})
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}
	return raw, nil
}

// Parse turns the raw model output into the plain-text answer
func (p *Pipeline) Parse(raw string) (string, error) {
	answer := strings.TrimSpace(raw)
	if answer == "" {
		return "", llm.NewMalformedResponseError(llm.ProviderType(providerOf(p.llm.ModelName())), "model returned an empty answer")
	}
	return answer, nil
}

// providerOf extracts the provider from a "<provider>:<model>" name
func providerOf(modelName string) string {
	provider, _, _ := strings.Cut(modelName, ":")
	return provider
}

// ErrorKind names the failure class of an Answer error for logs and
// user-facing messages
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, common.ErrEmptyQuestion):
		return "empty_question"
	case errors.Is(err, common.ErrModelMismatch):
		return "model_mismatch"
	case errors.Is(err, common.ErrIndexNotFound):
		return "index_not_found"
	case errors.Is(err, common.ErrIndexIncomplete):
		return "index_incomplete"
	case errors.Is(err, common.ErrMissingAPIKey):
		return "missing_api_key"
	}

	if kind := llm.KindOf(err); kind != llm.KindUnknown {
		return string(kind)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return string(llm.KindTimeout)
	case errors.Is(err, context.Canceled):
		return string(llm.KindCanceled)
	case errors.Is(err, common.ErrNotReady):
		return "not_ready"
	}
	return "internal"
}
