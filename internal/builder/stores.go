package builder

import (
	"context"
	"fmt"
	"time"

	"github.com/futig/askdocs/internal/cache"
	"github.com/futig/askdocs/internal/config"
	"github.com/futig/askdocs/internal/integration/qdrant"
	"github.com/futig/askdocs/internal/repository"
	"github.com/futig/askdocs/internal/usecase/query"
	"github.com/futig/askdocs/internal/vectorstore"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	corpusCollection        = "corpus"
	responseCacheCollection = "response_cache"
	memoryKVCleanupInterval = 10 * time.Minute
	seedTimeout             = 10 * time.Minute
)

// resources owns everything that has to be closed on shutdown.
type resources struct {
	db     *pgxpool.Pool
	badger *repository.BadgerKV
}

func (r *resources) close(logger *zap.Logger) {
	if r.badger != nil {
		logger.Info("Closing document cache store")
		if err := r.badger.Close(); err != nil {
			logger.Error("Failed to close badger", zap.Error(err))
		}
	}
	if r.db != nil {
		logger.Info("Closing database connections")
		r.db.Close()
	}
}

// buildCorpus creates the retrieval collection and loads the seed file into it.
func buildCorpus(ctx context.Context, cfg *config.Config, embedder vectorstore.Embedder, logger *zap.Logger) (*vectorstore.Collection, error) {
	var index vectorstore.Index

	switch cfg.RetrievalCfg.Backend {
	case config.BackendQdrant:
		q := qdrant.NewIndex(cfg.RetrievalCfg.Qdrant, logger)
		if err := q.EnsureCollection(ctx); err != nil {
			return nil, fmt.Errorf("ensure qdrant collection: %w", err)
		}
		index = q
	default:
		index = repository.NewMemoryIndex()
	}

	corpus := vectorstore.NewCollection(corpusCollection, embedder, index)
	logger.Info("Corpus collection ready", zap.String("backend", cfg.RetrievalCfg.Backend))

	if cfg.RetrievalCfg.SeedFile == "" {
		return corpus, nil
	}

	seedCtx, cancel := context.WithTimeout(ctx, seedTimeout)
	defer cancel()

	n, err := vectorstore.Seed(seedCtx, corpus, cfg.RetrievalCfg.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("seed corpus from %s: %w", cfg.RetrievalCfg.SeedFile, err)
	}
	logger.Info("Corpus seeded", zap.String("file", cfg.RetrievalCfg.SeedFile), zap.Int("documents", n))

	return corpus, nil
}

// buildResponseCache returns nil when the cache is disabled or its backend cannot be opened.
func buildResponseCache(ctx context.Context, cfg *config.Config, embedder vectorstore.Embedder, res *resources, logger *zap.Logger) query.ResponseCache {
	rc := cfg.ResponseCacheCfg
	if !rc.Enabled {
		logger.Info("Response cache disabled")
		return nil
	}

	var index vectorstore.Index
	switch rc.Backend {
	case config.BackendPostgres:
		db, err := setupDatabase(ctx, cfg, logger)
		if err != nil {
			logger.Warn("Response cache disabled, database is unavailable", zap.Error(err))
			return nil
		}

		logger.Info("Running database migrations")
		if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
			db.Close()
			logger.Warn("Response cache disabled, migrations failed", zap.Error(err))
			return nil
		}
		logger.Info("Database migrations completed successfully")

		res.db = db
		index = repository.NewResponseCachePostgres(db, rc.ScanLimit)
	default:
		index = repository.NewMemoryIndex()
	}

	logger.Info("Response cache enabled",
		zap.String("backend", rc.Backend),
		zap.Int("top_k", rc.TopK),
		zap.Float64("similarity_threshold", rc.SimilarityThreshold),
	)
	store := vectorstore.NewCollection(responseCacheCollection, embedder, index)
	return cache.NewSemanticCache(store, rc.TopK, rc.SimilarityThreshold)
}

// buildDocumentCache returns nil when the cache is disabled or its backend cannot be opened.
func buildDocumentCache(cfg *config.Config, res *resources, logger *zap.Logger) query.DocumentCache {
	dc := cfg.DocumentCacheCfg
	if !dc.Enabled {
		logger.Info("Document cache disabled")
		return nil
	}

	var store cache.KVStore
	switch dc.Backend {
	case config.BackendBadger:
		kv, err := repository.OpenBadgerKV(dc.BadgerPath)
		if err != nil {
			logger.Warn("Document cache disabled, badger cannot be opened",
				zap.String("path", dc.BadgerPath),
				zap.Error(err),
			)
			return nil
		}
		res.badger = kv
		store = kv
	default:
		store = repository.NewMemoryKV(dc.TTL, memoryKVCleanupInterval)
	}

	logger.Info("Document cache enabled", zap.String("backend", dc.Backend), zap.Duration("ttl", dc.TTL))
	return cache.NewDocumentCache(store, dc.TTL)
}
