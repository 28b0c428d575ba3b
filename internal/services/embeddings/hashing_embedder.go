package embeddings

import (
	"context"
	"hash/fnv"
	"regexp"
	"strings"

	"github.com/ternarybob/ragbot/internal/models"
)

var tokenRegex = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)

// HashingEmbedder is an offline bag-of-words embedder. Tokens are hashed
// into signed buckets and the result is L2-normalized, so texts sharing
// content words score higher under cosine similarity. Deterministic and
// network-free; used for tests and air-gapped runs.
type HashingEmbedder struct {
	dimension int
	stopwords map[string]struct{}
}

// NewHashingEmbedder creates a hashing embedder with the given dimension
func NewHashingEmbedder(dimension int) *HashingEmbedder {
	if dimension <= 0 {
		dimension = 768
	}
	return &HashingEmbedder{
		dimension: dimension,
		stopwords: defaultStopwords(),
	}
}

func (e *HashingEmbedder) Identity() models.ModelIdentity {
	return models.ModelIdentity{Provider: ProviderHashing, Model: DefaultHashingModel, Dimension: e.dimension}
}

func (e *HashingEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vectors[i] = e.vector(text)
	}
	return vectors, nil
}

func (e *HashingEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.vector(text), nil
}

func (e *HashingEmbedder) vector(text string) []float32 {
	v := make([]float32, e.dimension)
	for _, token := range e.tokenize(text) {
		h := fnv.New64a()
		_, _ = h.Write([]byte(token))
		sum := h.Sum64()

		bucket := int(sum % uint64(e.dimension))
		if sum&(1<<63) != 0 {
			v[bucket]--
		} else {
			v[bucket]++
		}
	}
	return Normalize(v)
}

func (e *HashingEmbedder) tokenize(text string) []string {
	raw := tokenRegex.FindAllString(strings.ToLower(text), -1)
	tokens := raw[:0]
	for _, token := range raw {
		if _, stop := e.stopwords[token]; stop {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "and", "are", "as", "at", "be", "but", "by", "can", "do", "does",
		"for", "from", "how", "i", "if", "in", "into", "is", "it", "its", "me", "my",
		"of", "on", "or", "so", "that", "the", "their", "there", "these", "this", "to",
		"was", "we", "were", "what", "when", "where", "which", "who", "why", "will",
		"with", "you", "your",
	}
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
