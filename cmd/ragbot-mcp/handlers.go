package main

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ragbot/internal/interfaces"
	"github.com/ternarybob/ragbot/internal/services/answer"
)

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

// handleAskQuestion implements the ask_question tool
func handleAskQuestion(answerer interfaces.AnswerService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := request.RequireString("question")
		if err != nil || question == "" {
			return textResult("Error: question parameter is required"), nil
		}

		result, err := answerer.Answer(ctx, question)
		if err != nil {
			kind := answer.ErrorKind(err)
			logger.Error().Err(err).Str("kind", kind).Msg("ask_question failed")
			return textResult(fmt.Sprintf("Error: failed to answer question (%s)", kind)), nil
		}

		return textResult(formatAnswer(result)), nil
	}
}

// handleSearchChunks implements the search_chunks tool
func handleSearchChunks(retriever interfaces.Retriever, defaultLimit int, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil || query == "" {
			return textResult("Error: query parameter is required"), nil
		}

		limit := request.GetInt("limit", defaultLimit)
		if limit <= 0 {
			limit = defaultLimit
		}
		if limit > maxSearchLimit {
			limit = maxSearchLimit
		}

		chunks, err := retriever.Search(ctx, query, limit)
		if err != nil {
			kind := answer.ErrorKind(err)
			logger.Error().Err(err).Str("kind", kind).Msg("search_chunks failed")
			return textResult(fmt.Sprintf("Search error: %s", kind)), nil
		}

		return textResult(formatChunks(query, chunks)), nil
	}
}
