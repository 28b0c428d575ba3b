package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/ragbot/internal/common"
	"github.com/ternarybob/ragbot/internal/console"
	"github.com/ternarybob/ragbot/internal/services/answer"
	"github.com/ternarybob/ragbot/internal/services/embeddings"
	"github.com/ternarybob/ragbot/internal/services/llm"
	"github.com/ternarybob/ragbot/internal/services/retrieval"
	"github.com/ternarybob/ragbot/internal/storage/badger"
)

var (
	configFiles common.ConfigPaths
	indexPath   = flag.String("index", "", "Index directory (overrides config)")
	showVersion = flag.Bool("version", false, "Print version information")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("ragbot-cli version %s\n", common.GetFullVersion())
		return
	}

	os.Exit(run())
}

func run() int {
	defer common.RecoverWithCrashFile()

	config, err := common.LoadConfig(common.DiscoverConfigFiles(configFiles))
	if err == nil {
		common.ApplyPathOverrides(config, "", *indexPath)
		err = config.Validate()
	}
	if err != nil {
		fmt.Printf("An unexpected error occurred: %v\n", err)
		return 1
	}

	// stdout belongs to the conversation
	logger := common.InitStdioLogger(config, "ragbot-cli", true)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("Loading index...")

	embedder, err := embeddings.NewService(ctx, config, logger)
	if err != nil {
		fmt.Printf("An unexpected error occurred: %v\n", err)
		return 1
	}

	retriever, err := retrieval.Load(ctx, badger.NewIndexStorage(logger), config.Index.Path, embedder, &config.Retrieval, logger)
	if err != nil {
		if errors.Is(err, common.ErrIndexNotFound) {
			fmt.Printf("Error: The index was not found at '%s'.\n", config.Index.Path)
			fmt.Println("Please run 'ragbot-index' first to generate the index.")
			return 1
		}
		fmt.Printf("An unexpected error occurred: %v\n", err)
		return 1
	}
	fmt.Println("Index loaded successfully.")

	llmService, err := llm.NewServiceFromConfig(ctx, config, logger)
	if err != nil {
		fmt.Printf("An unexpected error occurred: %v\n", err)
		return 1
	}
	defer llmService.Close()

	pipeline := answer.NewPipeline(retriever, llmService, logger)

	if err := console.NewLoop(pipeline, os.Stdin, os.Stdout, logger).Run(ctx); err != nil {
		fmt.Printf("An unexpected error occurred: %v\n", err)
		return 1
	}
	return 0
}
