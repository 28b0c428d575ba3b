package retrieval

import (
	"fmt"
	"math"
	"sort"

	"github.com/ternarybob/ragbot/internal/models"
)

// VectorIndex is an exact nearest-neighbour index over embedded chunks.
// It is never mutated after construction and is safe for concurrent readers.
type VectorIndex struct {
	chunks    []models.IndexedChunk
	norms     []float64
	dimension int
}

// NewVectorIndex creates an index; every vector must have the given dimension
func NewVectorIndex(chunks []models.IndexedChunk, dimension int) (*VectorIndex, error) {
	norms := make([]float64, len(chunks))
	for i, c := range chunks {
		if len(c.Vector) != dimension {
			return nil, fmt.Errorf("chunk %d has dimension %d, expected %d", c.Seq, len(c.Vector), dimension)
		}
		norms[i] = norm(c.Vector)
	}

	return &VectorIndex{
		chunks:    chunks,
		norms:     norms,
		dimension: dimension,
	}, nil
}

// Len returns the number of chunks in the index
func (v *VectorIndex) Len() int {
	return len(v.chunks)
}

// Dimension returns the vector length of the index
func (v *VectorIndex) Dimension() int {
	return v.dimension
}

// Search returns the k chunks most similar to query by cosine similarity,
// best first. Equal scores are ordered by ascending Seq.
func (v *VectorIndex) Search(query []float32, k int) []models.ScoredChunk {
	if k <= 0 || len(v.chunks) == 0 || len(query) != v.dimension {
		return nil
	}

	queryNorm := norm(query)
	scored := make([]models.ScoredChunk, len(v.chunks))
	for i, c := range v.chunks {
		scored[i] = models.ScoredChunk{
			Chunk: c.Chunk,
			Score: cosine(query, c.Vector, queryNorm, v.norms[i]),
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Seq < scored[j].Seq
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k]
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine returns 0 when either vector is zero
func cosine(a, b []float32, normA, normB float64) float32 {
	if normA == 0 || normB == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return float32(dot / (normA * normB))
}
