package embeddings

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ragbot/internal/models"
	"github.com/ternarybob/ragbot/internal/services/llm"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

const (
	taskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	taskRetrievalQuery    = "RETRIEVAL_QUERY"
)

// GeminiEmbedder embeds text with the Gemini embedding API
type GeminiEmbedder struct {
	client    *genai.Client
	model     string
	dimension int
	batchSize int
	limiter   *rate.Limiter
	logger    arbor.ILogger
}

// NewGeminiEmbedder creates a Gemini embedder producing vectors of dimension
func NewGeminiEmbedder(ctx context.Context, apiKey, model string, dimension, batchSize int, limiter *rate.Limiter, logger arbor.ILogger) (*GeminiEmbedder, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiEmbedder{
		client:    client,
		model:     model,
		dimension: dimension,
		batchSize: batchSize,
		limiter:   limiter,
		logger:    logger,
	}, nil
}

func (e *GeminiEmbedder) Identity() models.ModelIdentity {
	return models.ModelIdentity{Provider: ProviderGemini, Model: e.model, Dimension: e.dimension}
}

func (e *GeminiEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return e.embed(ctx, texts, taskRetrievalDocument)
}

func (e *GeminiEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.embed(ctx, []string{text}, taskRetrievalQuery)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *GeminiEmbedder) embed(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	outputDim := int32(e.dimension)
	embeddingConfig := &genai.EmbedContentConfig{
		TaskType:             taskType,
		OutputDimensionality: &outputDim,
	}

	vectors := make([][]float32, 0, len(texts))
	for _, b := range batches(len(texts), e.batchSize) {
		if err := waitLimiter(ctx, e.limiter); err != nil {
			return nil, llm.Classify(llm.ProviderGemini, err)
		}

		contents := make([]*genai.Content, 0, b[1]-b[0])
		for _, text := range texts[b[0]:b[1]] {
			contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
		}

		start := time.Now()
		result, err := e.client.Models.EmbedContent(ctx, e.model, contents, embeddingConfig)
		if err != nil {
			return nil, llm.Classify(llm.ProviderGemini, err)
		}

		if result == nil || len(result.Embeddings) != len(contents) {
			got := 0
			if result != nil {
				got = len(result.Embeddings)
			}
			return nil, llm.NewMalformedResponseError(llm.ProviderGemini, "expected %d embeddings, got %d", len(contents), got)
		}

		for _, embedding := range result.Embeddings {
			if embedding == nil || len(embedding.Values) != e.dimension {
				return nil, llm.NewMalformedResponseError(llm.ProviderGemini, "embedding has wrong dimension (want %d)", e.dimension)
			}
			vectors = append(vectors, Normalize(embedding.Values))
		}

		e.logger.Debug().
			Int("batch_size", len(contents)).
			Str("task_type", taskType).
			Dur("duration", time.Since(start)).
			Msg("Generated Gemini embeddings")
	}

	return vectors, nil
}
