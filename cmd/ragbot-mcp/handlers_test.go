package main

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/ragbot/internal/common"
	"github.com/ternarybob/ragbot/internal/interfaces"
	"github.com/ternarybob/ragbot/internal/models"
)

type stubAnswerer struct {
	result *interfaces.AnswerResult
	err    error
}

func (s *stubAnswerer) Answer(ctx context.Context, question string) (*interfaces.AnswerResult, error) {
	return s.result, s.err
}

type stubRetriever struct {
	lastK int
}

func (s *stubRetriever) Retrieve(ctx context.Context, query string) ([]models.ScoredChunk, error) {
	return s.Search(ctx, query, 4)
}

func (s *stubRetriever) Search(ctx context.Context, query string, k int) ([]models.ScoredChunk, error) {
	s.lastK = k
	return []models.ScoredChunk{
		{Chunk: models.Chunk{Seq: 3, Text: "The capital of France is Paris.", Offset: 900, Length: 31}, Score: 0.82},
	}, nil
}

func (s *stubRetriever) Manifest() *models.IndexManifest { return &models.IndexManifest{} }

func callTool(args map[string]any) mcp.CallToolRequest {
	request := mcp.CallToolRequest{}
	request.Params.Arguments = args
	return request
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestHandleAskQuestion(t *testing.T) {
	logger := common.NewSilentLogger()
	answerer := &stubAnswerer{result: &interfaces.AnswerResult{
		Answer:  "Paris.",
		Sources: []models.ScoredChunk{{Chunk: models.Chunk{Seq: 0, Text: "The capital of France is Paris."}, Score: 0.9}},
	}}

	result, err := handleAskQuestion(answerer, logger)(context.Background(), callTool(map[string]any{"question": "capital?"}))
	require.NoError(t, err)
	text := resultText(t, result)
	assert.Contains(t, text, "Paris.\n")
	assert.Contains(t, text, "## Sources")
	assert.Contains(t, text, "chunk 0 (score 0.900)")

	result, err = handleAskQuestion(answerer, logger)(context.Background(), callTool(map[string]any{}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "question parameter is required")

	failing := &stubAnswerer{err: errors.New("boom")}
	result, err = handleAskQuestion(failing, logger)(context.Background(), callTool(map[string]any{"question": "q"}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "(internal)")
}

func TestHandleSearchChunks(t *testing.T) {
	logger := common.NewSilentLogger()
	retriever := &stubRetriever{}
	handler := handleSearchChunks(retriever, 4, logger)

	result, err := handler(context.Background(), callTool(map[string]any{"query": "France"}))
	require.NoError(t, err)
	assert.Equal(t, 4, retriever.lastK)
	text := resultText(t, result)
	assert.Contains(t, text, "Chunk 3 (score 0.820)")
	assert.Contains(t, text, "The capital of France is Paris.")

	_, err = handler(context.Background(), callTool(map[string]any{"query": "France", "limit": 50}))
	require.NoError(t, err)
	assert.Equal(t, maxSearchLimit, retriever.lastK)

	_, err = handler(context.Background(), callTool(map[string]any{"query": "France", "limit": 2}))
	require.NoError(t, err)
	assert.Equal(t, 2, retriever.lastK)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "a b", preview("a\n\n b", 10))
	assert.Equal(t, "abc...", preview("abcdef", 3))
}
