package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ragbot/internal/common"
	"github.com/ternarybob/ragbot/internal/handlers"
	"github.com/ternarybob/ragbot/internal/interfaces"
	"github.com/ternarybob/ragbot/internal/services/answer"
	"github.com/ternarybob/ragbot/internal/services/embeddings"
	"github.com/ternarybob/ragbot/internal/services/llm"
	"github.com/ternarybob/ragbot/internal/services/retrieval"
	"github.com/ternarybob/ragbot/internal/storage/badger"
)

// queryEmbedBudget covers embedding the question before the model call
const queryEmbedBudget = 30 * time.Second

// App holds all application components and dependencies.
// It is built once at startup; readiness never changes afterwards.
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	IndexStorage     interfaces.IndexStorage
	EmbeddingService interfaces.EmbeddingService
	LLMService       interfaces.LLMService
	Retriever        *retrieval.Retriever

	// Pipeline is nil when initialization failed; InitErr records why
	Pipeline interfaces.AnswerService
	InitErr  error

	// AnswerTimeout bounds one /ask answer, including every model retry
	AnswerTimeout time.Duration

	// HTTP handlers
	AskHandler *handlers.AskHandler
	APIHandler *handlers.APIHandler
	UIHandler  *handlers.UIHandler
}

// Option overrides a service before initialization
type Option func(*App)

// WithEmbeddingService uses service instead of the configured embedding provider
func WithEmbeddingService(service interfaces.EmbeddingService) Option {
	return func(a *App) { a.EmbeddingService = service }
}

// WithLLMService uses service instead of the configured LLM provider
func WithLLMService(service interfaces.LLMService) Option {
	return func(a *App) { a.LLMService = service }
}

// New initializes the application. It never fails: a startup error leaves
// Pipeline nil, is logged once, and is kept in InitErr.
func New(ctx context.Context, cfg *common.Config, logger arbor.ILogger, opts ...Option) *App {
	app := &App{
		Config:        cfg,
		Logger:        logger,
		IndexStorage:  badger.NewIndexStorage(logger),
		AnswerTimeout: llm.CallBudget(&cfg.LLM) + queryEmbedBudget,
	}
	for _, opt := range opts {
		opt(app)
	}

	if err := app.initServices(ctx); err != nil {
		app.InitErr = fmt.Errorf("%w: %w", common.ErrNotReady, err)
		logger.Error().
			Err(err).
			Str("index", cfg.Index.Path).
			Msg("Failed to initialize answer pipeline; requests will be rejected")
	}

	app.initHandlers()

	logger.Info().
		Bool("ready", app.Ready()).
		Msg("Application initialization complete")

	return app
}

func (a *App) initServices(ctx context.Context) error {
	if a.EmbeddingService == nil {
		service, err := embeddings.NewService(ctx, a.Config, a.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize embedding service: %w", err)
		}
		a.EmbeddingService = service
	}

	retriever, err := retrieval.Load(ctx, a.IndexStorage, a.Config.Index.Path, a.EmbeddingService, &a.Config.Retrieval, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to load index: %w", err)
	}
	a.Retriever = retriever

	if a.LLMService == nil {
		service, err := llm.NewServiceFromConfig(ctx, a.Config, a.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize LLM service: %w", err)
		}
		a.LLMService = service
	}

	a.Pipeline = answer.NewPipeline(retriever, a.LLMService, a.Logger)

	a.Logger.Info().
		Str("llm", a.LLMService.ModelName()).
		Str("embedding_model", a.EmbeddingService.Identity().String()).
		Msg("Answer pipeline ready")

	return nil
}

func (a *App) initHandlers() {
	status := handlers.HealthStatus{Ready: a.Ready(), Err: a.InitErr}
	if a.Retriever != nil {
		status.Manifest = a.Retriever.Manifest()
	}

	a.AskHandler = handlers.NewAskHandler(a.Pipeline, a.Config.Server.RenderHTML, a.AnswerTimeout, a.Logger)
	a.APIHandler = handlers.NewAPIHandler(status, a.Logger)
	a.UIHandler = handlers.NewUIHandler(a.Logger)
}

// Ready reports whether the answer pipeline initialized
func (a *App) Ready() bool {
	return a.Pipeline != nil
}

// Close releases provider clients
func (a *App) Close() error {
	if a.LLMService != nil {
		if err := a.LLMService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM service")
			return err
		}
		a.Logger.Debug().Msg("LLM service closed")
	}
	return nil
}
