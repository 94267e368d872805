// Package app wires the shared components used by every binary
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/abelzeko/panchayat-water/internal/cache"
	"github.com/abelzeko/panchayat-water/internal/config"
	"github.com/abelzeko/panchayat-water/internal/integration"
	"github.com/abelzeko/panchayat-water/internal/integration/openai"
	"github.com/abelzeko/panchayat-water/internal/logging"
	"github.com/abelzeko/panchayat-water/internal/repository"
	"github.com/abelzeko/panchayat-water/internal/usecases"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// App holds the components a binary needs
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Repo    *repository.SQLiteEvaluationRepository
	UseCase *usecases.DiagnosticsUseCase

	redis *redis.Client
}

// New loads configuration and builds the logger, store, reasoning service
// and use case. Reasoning is optional: without an API key evaluations are
// stored without explanations.
func New(service string) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, service)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Info("Starting " + service)

	repo, err := repository.NewSQLiteEvaluationRepository(cfg.DBPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize repository: %w", err)
	}

	a := &App{Config: cfg, Logger: logger, Repo: repo}

	reasoner, err := a.reasoner()
	if err != nil {
		a.Close()
		return nil, err
	}

	a.UseCase = usecases.NewDiagnosticsUseCase(repo, reasoner, integration.NewLabReportScraper(logger), logger)
	return a, nil
}

func (a *App) reasoner() (openai.ReasoningService, error) {
	if a.Config.OpenAI.APIKey == "" {
		a.Logger.Warn("OPENAI_API_KEY not set, evaluations will be stored without reasoning")
		return nil, nil
	}

	service, err := openai.NewOpenAIService(a.Config.OpenAI.APIKey, a.Config.OpenAI.Model, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenAI service: %w", err)
	}
	if a.Config.Redis.Addr == "" {
		return service, nil
	}

	a.redis = redis.NewClient(&redis.Options{
		Addr:     a.Config.Redis.Addr,
		Password: a.Config.Redis.Password,
		DB:       a.Config.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.redis.Ping(ctx).Err(); err != nil {
		a.Logger.Warn("Redis unreachable, reasoning cache disabled", zap.String("addr", a.Config.Redis.Addr), zap.Error(err))
		a.redis.Close()
		a.redis = nil
		return service, nil
	}

	a.Logger.Info("Reasoning cache enabled",
		zap.String("addr", a.Config.Redis.Addr),
		zap.Duration("ttl", a.Config.ReasoningCacheTTL),
	)
	return cache.NewCachedReasoner(service, a.redis, a.Config.ReasoningCacheTTL, a.Logger), nil
}

// Close releases the store and cache connections and flushes the logger
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Logger.Warn("Failed to close Redis client", zap.Error(err))
		}
	}
	if err := a.Repo.Close(); err != nil {
		a.Logger.Warn("Failed to close repository", zap.Error(err))
	}
	_ = a.Logger.Sync()
}
