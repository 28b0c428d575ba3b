package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ragbot/internal/common"
	"github.com/ternarybob/ragbot/internal/services/chunking"
	"github.com/ternarybob/ragbot/internal/services/embeddings"
	"github.com/ternarybob/ragbot/internal/services/indexer"
	"github.com/ternarybob/ragbot/internal/storage/badger"
)

var (
	configFiles  common.ConfigPaths
	corpusPath   = flag.String("corpus", "", "Corpus file (overrides config)")
	indexPath    = flag.String("index", "", "Index directory (overrides config)")
	schedule     = flag.String("schedule", "", "Cron expression; rebuild on this schedule until interrupted")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	defer common.RecoverWithCrashFile()

	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("ragbot-index version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	paths := common.DiscoverConfigFiles(configFiles)
	config, err := common.LoadConfig(paths)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	common.ApplyPathOverrides(config, *corpusPath, *indexPath)
	if *schedule != "" {
		config.Index.Schedule = *schedule
	}

	if err := config.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := common.InitLogger(config, "ragbot-index")
	common.InstallCrashHandler("")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	service, err := newIndexer(ctx, config, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize indexer")
		os.Exit(1)
	}

	if config.Index.Schedule == "" {
		if err := build(ctx, service, config, logger); err != nil {
			os.Exit(1)
		}
		return
	}

	runScheduled(ctx, service, config, logger)
}

func newIndexer(ctx context.Context, config *common.Config, logger arbor.ILogger) (*indexer.Service, error) {
	splitter, err := chunking.NewSplitter(config.Chunking.Strategy, config.Chunking.Size, config.Chunking.Overlap)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewService(ctx, config, logger)
	if err != nil {
		return nil, err
	}

	return indexer.NewService(splitter, embedder, badger.NewIndexStorage(logger), logger), nil
}

func build(ctx context.Context, service *indexer.Service, config *common.Config, logger arbor.ILogger) error {
	start := time.Now()

	manifest, err := service.Build(ctx, config.Corpus.Path, config.Index.Path)
	if err != nil {
		if errors.Is(err, common.ErrCorpusNotFound) {
			fmt.Fprintf(os.Stderr, "Error: The corpus file was not found at '%s'.\n", config.Corpus.Path)
		}
		logger.Error().Err(err).Str("corpus", config.Corpus.Path).Msg("Index build failed")
		return err
	}

	fmt.Printf("Index built at '%s'\n", config.Index.Path)
	fmt.Printf("  chunks:    %d\n", manifest.ChunkCount)
	fmt.Printf("  model:     %s\n", manifest.Identity())
	fmt.Printf("  chunking:  %s (%d/%d)\n", manifest.ChunkStrategy, manifest.ChunkSize, manifest.ChunkOverlap)
	fmt.Printf("  duration:  %s\n", time.Since(start).Round(time.Millisecond))

	return nil
}

func runScheduled(ctx context.Context, service *indexer.Service, config *common.Config, logger arbor.ILogger) {
	// A rebuild still running when the next tick fires is skipped
	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))

	_, err := scheduler.AddFunc(config.Index.Schedule, func() {
		logger.Info().Str("schedule", config.Index.Schedule).Msg("Scheduled index rebuild starting")
		_ = build(ctx, service, config, logger)
	})
	if err != nil {
		logger.Error().Err(err).Str("schedule", config.Index.Schedule).Msg("Invalid schedule")
		os.Exit(1)
	}

	// Build once immediately so the index exists before the first tick
	_ = build(ctx, service, config, logger)

	scheduler.Start()
	logger.Info().Str("schedule", config.Index.Schedule).Msg("Index rebuild scheduled - Press Ctrl+C to stop")

	<-ctx.Done()
	logger.Info().Msg("Stopping scheduler")
	<-scheduler.Stop().Done()
}
