package models

// Chunk is a contiguous span of the source corpus.
// Offset and Length are measured in characters (runes), not bytes.
type Chunk struct {
	Seq    int    `json:"seq"` // 0-based position in corpus order
	Text   string `json:"text"`
	Offset int    `json:"offset"` // Character offset of the first rune in the source
	Length int    `json:"length"` // Character length of Text
}

// IndexedChunk pairs a chunk with its embedding vector
type IndexedChunk struct {
	Chunk
	Vector []float32 `json:"-"`
}

// ScoredChunk is a retrieval hit with its cosine similarity to the query
type ScoredChunk struct {
	Chunk
	Score float32 `json:"score"`
}

// Texts returns the text of each chunk in order
func Texts(chunks []ScoredChunk) []string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return texts
}
