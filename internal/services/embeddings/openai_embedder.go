package embeddings

import (
	"context"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ragbot/internal/models"
	"github.com/ternarybob/ragbot/internal/services/llm"
	"golang.org/x/time/rate"
)

// OpenAIEmbedder embeds text with the OpenAI (or compatible) embeddings API
type OpenAIEmbedder struct {
	client    *openai.Client
	model     string
	dimension int
	batchSize int
	limiter   *rate.Limiter
	logger    arbor.ILogger
}

// NewOpenAIEmbedder creates an OpenAI embedder. baseURL may be empty.
func NewOpenAIEmbedder(apiKey, baseURL, model string, dimension, batchSize int, limiter *rate.Limiter, logger arbor.ILogger) *OpenAIEmbedder {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}

	return &OpenAIEmbedder{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     model,
		dimension: dimension,
		batchSize: batchSize,
		limiter:   limiter,
		logger:    logger,
	}
}

func (e *OpenAIEmbedder) Identity() models.ModelIdentity {
	return models.ModelIdentity{Provider: ProviderOpenAI, Model: e.model, Dimension: e.dimension}
}

func (e *OpenAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *OpenAIEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	for _, b := range batches(len(texts), e.batchSize) {
		if err := waitLimiter(ctx, e.limiter); err != nil {
			return nil, llm.Classify(llm.ProviderOpenAI, err)
		}

		start := time.Now()
		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input:      texts[b[0]:b[1]],
			Model:      openai.EmbeddingModel(e.model),
			Dimensions: e.dimension,
		})
		if err != nil {
			return nil, llm.Classify(llm.ProviderOpenAI, err)
		}

		if len(resp.Data) != b[1]-b[0] {
			return nil, llm.NewMalformedResponseError(llm.ProviderOpenAI, "expected %d embeddings, got %d", b[1]-b[0], len(resp.Data))
		}

		for _, item := range resp.Data {
			if item.Index < 0 || item.Index >= b[1]-b[0] || len(item.Embedding) != e.dimension {
				return nil, llm.NewMalformedResponseError(llm.ProviderOpenAI, "embedding %d has wrong index or dimension", item.Index)
			}
			vector := make([]float32, len(item.Embedding))
			for i, v := range item.Embedding {
				vector[i] = float32(v)
			}
			vectors[b[0]+item.Index] = Normalize(vector)
		}

		e.logger.Debug().
			Int("batch_size", b[1]-b[0]).
			Dur("duration", time.Since(start)).
			Msg("Generated OpenAI embeddings")
	}

	return vectors, nil
}
