// Package bootstrap wires configuration into the concrete adapters and
// the search pipeline. Both binaries build an App and pick the pieces
// they need.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/panjf2000/ants/v2"

	"github.com/adb1146/itc-conference-app-sub001/internal/cache"
	"github.com/adb1146/itc-conference-app-sub001/internal/config"
	"github.com/adb1146/itc-conference-app-sub001/internal/core/domain"
	"github.com/adb1146/itc-conference-app-sub001/internal/core/ports"
	"github.com/adb1146/itc-conference-app-sub001/internal/core/usecase"
	"github.com/adb1146/itc-conference-app-sub001/internal/infrastructure/embedding/ollama"
	"github.com/adb1146/itc-conference-app-sub001/internal/infrastructure/queue/nats"
	"github.com/adb1146/itc-conference-app-sub001/internal/infrastructure/repository/postgres"
	"github.com/adb1146/itc-conference-app-sub001/internal/infrastructure/resilience"
	"github.com/adb1146/itc-conference-app-sub001/internal/infrastructure/vector/qdrant"
	"github.com/adb1146/itc-conference-app-sub001/internal/observability/metrics"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue    *nats.Queue
	Repo     *postgres.SessionRepository
	SearchUC ports.SessionSearchService
	Metrics  *metrics.SearchMetrics

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewSessionRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	embedder := ollama.New(cfg.OllamaURL, cfg.OllamaEmbedModel,
		ollama.WithRateLimit(cfg.EmbedRateLimit),
		ollama.WithExecutor(executor),
	)
	general := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection, qdrant.WithExecutor(executor))
	meals := qdrant.New(cfg.QdrantURL, cfg.QdrantMealCollection, qdrant.WithExecutor(executor))

	capacity, err := config.LoadCapacityPolicy(cfg.CapacityTablePath)
	if err != nil {
		logger.Warn("capacity_policy_load_failed", "path", cfg.CapacityTablePath, "error", err)
		capacity = config.DefaultCapacityPolicy()
	}

	pool, err := ants.NewPool(cfg.EnrichPoolSize)
	if err != nil {
		queue.Close()
		_ = db.Close()
		return nil, fmt.Errorf("init enrichment pool: %w", err)
	}

	caches := usecase.EnricherCaches{
		Speakers:  cache.NewTTL[domain.SpeakerDetail](cfg.EnrichCacheSize, cfg.EnrichCacheTTL),
		Related:   cache.NewTTL[[]domain.RelatedSession](cfg.EnrichCacheSize, cfg.EnrichCacheTTL),
		Locations: cache.NewTTL[domain.LocationDetail](cfg.EnrichCacheSize, cfg.EnrichCacheTTL),
	}

	searchMetrics := metrics.NewSearchMetrics("api")

	enricher := usecase.NewEnricher(repo, embedder, general, caches, capacity, pool, logger)
	enricher.SetFailureHook(func(kind string) {
		searchMetrics.RecordEnrichmentFailure("api", kind)
	})

	searchUC := usecase.NewSearchUseCase(embedder, general, meals, repo, enricher, queue, logger, usecase.SearchConfig{
		VectorTopK:   cfg.SearchVectorTopK,
		EnrichTopN:   cfg.SearchEnrichTopN,
		DisplayLimit: cfg.SearchDisplayLimit,
	})

	return &App{
		Config:   cfg,
		Logger:   logger,
		Queue:    queue,
		Repo:     repo,
		SearchUC: searchUC,
		Metrics:  searchMetrics,

		closeFn: func() {
			pool.Release()
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
