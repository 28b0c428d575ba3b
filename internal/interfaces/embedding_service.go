package interfaces

import (
	"context"

	"github.com/ternarybob/ragbot/internal/models"
)

// EmbeddingService generates vector embeddings
type EmbeddingService interface {
	// EmbedDocuments embeds corpus chunks, one vector per text, in order
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery embeds a search query (may use a different task type than documents)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// Identity reports provider, model and dimension for index compatibility checks
	Identity() models.ModelIdentity
}
