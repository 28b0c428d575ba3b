package chunking

import (
	"unicode"

	"github.com/ternarybob/ragbot/internal/models"
)

var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// RecursiveSplitter prefers to break on the coarsest separator that keeps
// pieces within size, then greedily merges pieces back into chunks of at
// most size characters, carrying up to overlap characters of trailing
// pieces into the next chunk.
type RecursiveSplitter struct {
	size       int
	overlap    int
	separators []string
}

// span is a half-open rune range [start, end)
type span struct {
	start, end int
}

func (sp span) len() int { return sp.end - sp.start }

func (s *RecursiveSplitter) Strategy() string { return StrategyRecursive }
func (s *RecursiveSplitter) Size() int        { return s.size }
func (s *RecursiveSplitter) Overlap() int     { return s.overlap }

// Split returns whitespace-trimmed, non-empty chunks in source order
func (s *RecursiveSplitter) Split(text string) []models.Chunk {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	pieces := s.pieces(runes, span{0, len(runes)}, s.separators)
	merged := s.merge(pieces)

	chunks := make([]models.Chunk, 0, len(merged))
	for _, sp := range merged {
		start, end := sp.start, sp.end
		for start < end && unicode.IsSpace(runes[start]) {
			start++
		}
		for end > start && unicode.IsSpace(runes[end-1]) {
			end--
		}
		if start == end {
			continue
		}
		chunks = append(chunks, models.Chunk{
			Seq:    len(chunks),
			Text:   string(runes[start:end]),
			Offset: start,
			Length: end - start,
		})
	}
	return chunks
}

// pieces tiles sp with contiguous spans no longer than size. Each piece
// keeps its trailing separator so that pieces cover the text exactly.
func (s *RecursiveSplitter) pieces(runes []rune, sp span, separators []string) []span {
	if sp.len() <= s.size {
		return []span{sp}
	}
	if len(separators) == 0 {
		separators = []string{""}
	}

	sepIdx := len(separators) - 1
	for i, sep := range separators {
		if sep == "" || indexRunes(runes[sp.start:sp.end], []rune(sep)) >= 0 {
			sepIdx = i
			break
		}
	}

	sep := []rune(separators[sepIdx])
	if len(sep) == 0 {
		out := make([]span, 0, sp.len()/s.size+1)
		for start := sp.start; start < sp.end; start += s.size {
			end := start + s.size
			if end > sp.end {
				end = sp.end
			}
			out = append(out, span{start, end})
		}
		return out
	}

	var out []span
	start := sp.start
	for start < sp.end {
		idx := indexRunes(runes[start:sp.end], sep)
		end := sp.end
		if idx >= 0 {
			end = start + idx + len(sep)
		}
		piece := span{start, end}
		if piece.len() <= s.size {
			out = append(out, piece)
		} else {
			out = append(out, s.pieces(runes, piece, separators[sepIdx+1:])...)
		}
		start = end
	}
	return out
}

// merge groups consecutive pieces into chunk spans
func (s *RecursiveSplitter) merge(pieces []span) []span {
	var chunks []span
	var current []span
	total := 0

	for _, p := range pieces {
		if total+p.len() > s.size && len(current) > 0 {
			chunks = append(chunks, span{current[0].start, current[len(current)-1].end})
			for total > s.overlap || (total+p.len() > s.size && total > 0) {
				total -= current[0].len()
				current = current[1:]
			}
		}
		current = append(current, p)
		total += p.len()
	}
	if len(current) > 0 {
		chunks = append(chunks, span{current[0].start, current[len(current)-1].end})
	}
	return chunks
}

func indexRunes(haystack, needle []rune) int {
	if len(needle) == 0 {
		return 0
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
