package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

const maxSearchLimit = 20

// createAskQuestionTool returns the ask_question tool definition
func createAskQuestionTool() mcp.Tool {
	return mcp.NewTool("ask_question",
		mcp.WithDescription("Answer a question using the indexed corpus (retrieval-augmented generation)"),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("Natural language question"),
		),
	)
}

// createSearchChunksTool returns the search_chunks tool definition
func createSearchChunksTool() mcp.Tool {
	return mcp.NewTool("search_chunks",
		mcp.WithDescription("Return the corpus chunks most similar to a query, with cosine scores"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum chunks to return (default: retrieval.top_k, max: 20)"),
		),
	)
}
