package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/futig/askdocs/internal/api"
	queryapi "github.com/futig/askdocs/internal/api/query"
	"github.com/futig/askdocs/internal/config"
	"github.com/futig/askdocs/internal/generation"
	"github.com/futig/askdocs/internal/integration/embedding"
	"github.com/futig/askdocs/internal/integration/llm"
	"github.com/futig/askdocs/internal/pkg/formatter"
	"github.com/futig/askdocs/internal/pkg/validator"
	"github.com/futig/askdocs/internal/retrieval"
	"github.com/futig/askdocs/internal/telegram"
	"github.com/futig/askdocs/internal/usecase/query"
	"github.com/futig/askdocs/internal/vectorstore"
	"go.uber.org/zap"
)

const pingTimeout = 10 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

// core is the query pipeline shared by the HTTP server and the telegram bot.
type core struct {
	usecase   *query.QueryUsecase
	resources *resources
}

func buildCore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*core, error) {
	var embedder interface {
		vectorstore.Embedder
		pinger
	}
	var completer generation.Completer

	if cfg.EnableMocks {
		logger.Info("Using mock connectors for external services")
		embedder = embedding.NewMockConnector(logger)
		completer = llm.NewMockConnector(cfg.LLMConnectorCfg.Reasoning.Model, logger)
		// Mock vectors have a fixed length; a remote collection must match it.
		cfg.RetrievalCfg.Qdrant.Dimension = embedding.MockDimension
	} else {
		logger.Info("Using real connectors for external services")
		embedder = embedding.NewConnector(cfg.EmbeddingConnectorCfg, logger)
		completer = llm.NewConnector(cfg.LLMConnectorCfg, logger)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	if err := embedder.Ping(pingCtx); err != nil {
		logger.Warn("Embedding service is not reachable yet", zap.Error(err))
	}
	cancel()

	corpus, err := buildCorpus(ctx, cfg, embedder, logger)
	if err != nil {
		return nil, fmt.Errorf("build corpus: %w", err)
	}

	res := &resources{}
	opts := query.Options{
		WriteTimeout:   cfg.ResponseCacheCfg.WriteTimeout,
		DedupeInFlight: cfg.DedupeInFlight,
		SharedTimeout:  cfg.RequestTimeout,
	}
	// Assigned only when non-nil so a disabled tier stays a nil interface.
	if rc := buildResponseCache(ctx, cfg, embedder, res, logger); rc != nil {
		opts.ResponseCache = rc
	}
	if dc := buildDocumentCache(cfg, res, logger); dc != nil {
		opts.DocumentCache = dc
	}

	retriever := retrieval.NewRetriever(corpus, cfg.RetrievalCfg.TopK, cfg.RetrievalCfg.MaxDistance)
	pipeline := generation.NewPipeline(completer, cfg.LLMConnectorCfg.Reasoning, cfg.LLMConnectorCfg.Formatting)
	uc := query.NewUsecase(retriever, pipeline, validator.NewValidator(cfg.MaxQuestionLength), opts)
	logger.Info("Query pipeline initialized")

	return &core{usecase: uc, resources: res}, nil
}

// close waits for pending cache writes and releases stores.
func (c *core) close(ctx context.Context, logger *zap.Logger) {
	logger.Info("Waiting for pending cache writes")
	if err := c.usecase.Drain(ctx); err != nil {
		logger.Warn("Pending cache writes abandoned", zap.Error(err))
	}
	c.resources.close(logger)
}

func loadBase() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("setup logger: %w", err)
	}

	return cfg, logger, nil
}

func Build() (*App, error) {
	ctx := context.Background()

	cfg, logger, err := loadBase()
	if err != nil {
		return nil, err
	}

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
	)

	c, err := buildCore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	queryHandler := queryapi.NewHandler(c.usecase, formatter.NewFactory())
	router := api.SetupRouter(queryHandler, cfg.RequestTimeout, logger)
	logger.Info("HTTP router configured")

	server := &http.Server{
		Addr:        cfg.ServerAddr,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// Generation can take minutes; the router's timeout fires first.
		WriteTimeout: cfg.RequestTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server: server,
		core:   c,
		logger: logger,
	}, nil
}

// BotApp is the telegram bot together with the pipeline it answers from
type BotApp struct {
	Bot    telegram.Bot
	Logger *zap.Logger
	core   *core
}

// Close drains pending cache writes and releases stores
func (b *BotApp) Close(ctx context.Context) {
	b.core.close(ctx, b.Logger)
}

// BuildTelegramBot creates and initializes the Telegram bot
func BuildTelegramBot() (*BotApp, error) {
	ctx := context.Background()

	cfg, logger, err := loadBase()
	if err != nil {
		return nil, err
	}

	if err := cfg.TelegramCfg.ValidateTelegram(); err != nil {
		return nil, fmt.Errorf("invalid telegram configuration: %w", err)
	}

	logger.Info("Building Telegram bot",
		zap.String("environment", cfg.Environment),
	)

	c, err := buildCore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	bot, err := telegram.NewBot(&cfg.TelegramCfg, c.usecase, logger)
	if err != nil {
		c.close(ctx, logger)
		return nil, fmt.Errorf("initialize telegram bot: %w", err)
	}

	logger.Info("Telegram bot built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &BotApp{Bot: bot, Logger: logger, core: c}, nil
}
