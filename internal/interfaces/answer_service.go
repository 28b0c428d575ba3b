package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/ragbot/internal/models"
)

// Retriever returns the chunks nearest to a query, best first
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]models.ScoredChunk, error)
	Search(ctx context.Context, query string, k int) ([]models.ScoredChunk, error)
	Manifest() *models.IndexManifest
}

// AnswerResult is the outcome of one question
type AnswerResult struct {
	Answer   string
	Sources  []models.ScoredChunk
	Duration time.Duration
}

// AnswerService answers a single question against the index
type AnswerService interface {
	Answer(ctx context.Context, question string) (*AnswerResult, error)
}
