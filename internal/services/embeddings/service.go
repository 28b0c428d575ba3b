package embeddings

import (
	"context"
	"fmt"
	"math"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ragbot/internal/common"
	"github.com/ternarybob/ragbot/internal/interfaces"
	"golang.org/x/time/rate"
)

const (
	ProviderGemini  = "gemini"
	ProviderOpenAI  = "openai"
	ProviderHashing = "hashing"

	DefaultGeminiModel  = "gemini-embedding-001"
	DefaultOpenAIModel  = "text-embedding-3-small"
	DefaultHashingModel = "hashing-bow-v1"
)

// NewService creates the embedding service selected by config.Embedding.Provider
func NewService(ctx context.Context, config *common.Config, logger arbor.ILogger) (interfaces.EmbeddingService, error) {
	cfg := config.Embedding
	limiter, err := newLimiter(cfg.RateLimit)
	if err != nil {
		return nil, err
	}

	var service interfaces.EmbeddingService
	switch cfg.Provider {
	case ProviderGemini, "":
		model := cfg.Model
		if model == "" {
			model = DefaultGeminiModel
		}
		apiKey, err := common.ResolveAPIKey("gemini", config.Gemini.APIKey)
		if err != nil {
			return nil, fmt.Errorf("gemini embeddings: %w", err)
		}
		service, err = NewGeminiEmbedder(ctx, apiKey, model, cfg.Dimension, cfg.BatchSize, limiter, logger)
		if err != nil {
			return nil, err
		}

	case ProviderOpenAI:
		model := cfg.Model
		if model == "" {
			model = DefaultOpenAIModel
		}
		apiKey, err := common.ResolveAPIKey("openai", config.OpenAI.APIKey)
		if err != nil {
			return nil, fmt.Errorf("openai embeddings: %w", err)
		}
		service = NewOpenAIEmbedder(apiKey, config.OpenAI.BaseURL, model, cfg.Dimension, cfg.BatchSize, limiter, logger)

	case ProviderHashing:
		service = NewHashingEmbedder(cfg.Dimension)

	default:
		return nil, fmt.Errorf("unknown embedding provider '%s'", cfg.Provider)
	}

	logger.Debug().
		Str("embedding_model", service.Identity().String()).
		Str("rate_limit", cfg.RateLimit).
		Msg("Embedding service initialized")

	return service, nil
}

// newLimiter returns nil (unlimited) for an empty interval
func newLimiter(interval string) (*rate.Limiter, error) {
	if interval == "" {
		return nil, nil
	}
	d := common.Duration(interval, 0)
	if d <= 0 {
		return nil, fmt.Errorf("invalid embedding rate limit '%s'", interval)
	}
	return rate.NewLimiter(rate.Every(d), 1), nil
}

func waitLimiter(ctx context.Context, limiter *rate.Limiter) error {
	if limiter == nil {
		return nil
	}
	return limiter.Wait(ctx)
}

// Normalize scales v to unit length in place and returns it.
// Zero vectors are returned unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
	return v
}

// batches splits n items into [start, end) ranges of at most size
func batches(n, size int) [][2]int {
	if size <= 0 {
		size = n
	}
	var out [][2]int
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		out = append(out, [2]int{start, end})
	}
	return out
}
