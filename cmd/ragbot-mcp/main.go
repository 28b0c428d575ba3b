package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/ragbot/internal/common"
	"github.com/ternarybob/ragbot/internal/services/answer"
	"github.com/ternarybob/ragbot/internal/services/embeddings"
	"github.com/ternarybob/ragbot/internal/services/llm"
	"github.com/ternarybob/ragbot/internal/services/retrieval"
	"github.com/ternarybob/ragbot/internal/storage/badger"
)

func main() {
	defer common.RecoverWithCrashFile()

	var paths []string
	if configPath := os.Getenv("RAGBOT_CONFIG"); configPath != "" {
		paths = []string{configPath}
	} else {
		paths = common.DiscoverConfigFiles(nil)
	}

	config, err := common.LoadConfig(paths)
	if err == nil {
		err = config.Validate()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the MCP protocol; log to file only (or nowhere)
	logger := common.InitStdioLogger(config, "ragbot-mcp", false)
	ctx := context.Background()

	embedder, err := embeddings.NewService(ctx, config, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize embeddings: %v\n", err)
		os.Exit(1)
	}

	retriever, err := retrieval.Load(ctx, badger.NewIndexStorage(logger), config.Index.Path, embedder, &config.Retrieval, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load index: %v\n", err)
		os.Exit(1)
	}

	llmService, err := llm.NewServiceFromConfig(ctx, config, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize LLM service: %v\n", err)
		os.Exit(1)
	}
	defer llmService.Close()

	pipeline := answer.NewPipeline(retriever, llmService, logger)

	mcpServer := server.NewMCPServer(
		"ragbot",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(createAskQuestionTool(), handleAskQuestion(pipeline, logger))
	mcpServer.AddTool(createSearchChunksTool(), handleSearchChunks(retriever, config.Retrieval.TopK, logger))

	// Start server (blocks on stdio)
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Error().Err(err).Msg("MCP server failed")
		os.Exit(1)
	}
}
