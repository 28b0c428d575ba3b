package main

import (
	"fmt"
	"strings"

	"github.com/ternarybob/ragbot/internal/interfaces"
	"github.com/ternarybob/ragbot/internal/models"
)

// formatAnswer formats an answer with its sources as markdown
func formatAnswer(result *interfaces.AnswerResult) string {
	var sb strings.Builder
	sb.WriteString(result.Answer)
	sb.WriteString("\n")

	if len(result.Sources) == 0 {
		return sb.String()
	}

	sb.WriteString("\n## Sources\n\n")
	for i, chunk := range result.Sources {
		sb.WriteString(fmt.Sprintf("%d. chunk %d (score %.3f): %s\n", i+1, chunk.Seq, chunk.Score, preview(chunk.Text, 160)))
	}
	return sb.String()
}

// formatChunks formats search hits as markdown
func formatChunks(query string, chunks []models.ScoredChunk) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Chunks for \"%s\" (%d results)\n\n", query, len(chunks)))

	if len(chunks) == 0 {
		sb.WriteString("No results found.\n")
		return sb.String()
	}

	for i, chunk := range chunks {
		sb.WriteString(fmt.Sprintf("### %d. Chunk %d (score %.3f)\n", i+1, chunk.Seq, chunk.Score))
		sb.WriteString(fmt.Sprintf("**Offset:** %d, **Length:** %d\n\n", chunk.Offset, chunk.Length))
		sb.WriteString(chunk.Text)
		sb.WriteString("\n\n---\n\n")
	}
	return sb.String()
}

// preview shortens text to at most n runes on one line
func preview(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
