package chunking

import (
	"fmt"

	"github.com/ternarybob/ragbot/internal/models"
)

const (
	// StrategyWindow is a fixed-size character sliding window
	StrategyWindow = "window"
	// StrategyRecursive splits on paragraph, line and word boundaries before falling back to characters
	StrategyRecursive = "recursive"
)

// Splitter turns corpus text into ordered chunks
type Splitter interface {
	Split(text string) []models.Chunk
	Strategy() string
	Size() int
	Overlap() int
}

// NewSplitter creates a splitter for the named strategy
func NewSplitter(strategy string, size, overlap int) (Splitter, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}

	switch strategy {
	case StrategyWindow, "":
		return &WindowSplitter{size: size, overlap: overlap}, nil
	case StrategyRecursive:
		return &RecursiveSplitter{size: size, overlap: overlap, separators: defaultSeparators}, nil
	default:
		return nil, fmt.Errorf("unknown chunking strategy '%s'", strategy)
	}
}

// WindowSplitter emits chunks of exactly size characters, each starting
// size-overlap characters after the previous one. Only the final chunk may
// be shorter.
type WindowSplitter struct {
	size    int
	overlap int
}

func (s *WindowSplitter) Strategy() string { return StrategyWindow }
func (s *WindowSplitter) Size() int        { return s.size }
func (s *WindowSplitter) Overlap() int     { return s.overlap }

// Split slides the window across text measured in runes
func (s *WindowSplitter) Split(text string) []models.Chunk {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}

	step := s.size - s.overlap
	chunks := make([]models.Chunk, 0, WindowCount(n, s.size, s.overlap))
	for start := 0; ; start += step {
		end := start + s.size
		if end > n {
			end = n
		}
		chunks = append(chunks, models.Chunk{
			Seq:    len(chunks),
			Text:   string(runes[start:end]),
			Offset: start,
			Length: end - start,
		})
		if end == n {
			break
		}
	}
	return chunks
}

// WindowCount returns how many chunks a sliding window of size/overlap
// produces over length characters: 0 for empty input, 1 when the text fits
// in one window, otherwise ceil((length-size)/step)+1.
func WindowCount(length, size, overlap int) int {
	if length <= 0 {
		return 0
	}
	if length <= size {
		return 1
	}
	step := size - overlap
	return (length-size+step-1)/step + 1
}
