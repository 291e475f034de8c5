package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lonshanworld/retail-analytics/analytics"
	"github.com/lonshanworld/retail-analytics/cache"
	"github.com/lonshanworld/retail-analytics/config"
	"github.com/lonshanworld/retail-analytics/database"
	"github.com/lonshanworld/retail-analytics/metrics"
)

// components are the long-lived pieces shared by every command.
type components struct {
	cfg     config.Config
	logger  *zap.Logger
	source  *database.PostgresSource
	store   cache.Store
	service *cache.CachedService
	warmer  *cache.Warmer
}

// bootstrap loads configuration, connects to the database and assembles
// the cached analytics service.
func bootstrap(ctx context.Context, m *metrics.Metrics) (*components, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	if err := database.Connect(ctx, cfg.DatabaseURL, logger); err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, database.GetDB()); err != nil {
		database.Close(logger)
		return nil, err
	}

	store, err := newStore(cfg)
	if err != nil {
		database.Close(logger)
		return nil, err
	}

	source := database.NewPostgresSource(database.GetDB())
	engine := analytics.NewEngine(source, source, logger, analytics.WithParams(cfg.AnalyticsParams()))
	service := cache.NewCachedService(engine, store, cache.DefaultTTLs(), m, logger)

	return &components{
		cfg:     cfg,
		logger:  logger,
		source:  source,
		store:   store,
		service: service,
		warmer:  cache.NewWarmer(service, source, cfg.WarmConcurrency, m, logger),
	}, nil
}

func (c *components) close() {
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			c.logger.Warn("[CACHE] close failed", zap.Error(err))
		}
	}
	database.Close(c.logger)
	_ = c.logger.Sync()
}

// newStore builds the cache backend. CACHE_BACKEND=none yields a nil Store,
// which makes CachedService compute every request.
func newStore(cfg config.Config) (cache.Store, error) {
	switch cfg.CacheBackend {
	case config.CacheRedis:
		store, err := cache.NewRedisStore(cfg.RedisAddr, cfg.RedisDB, cfg.RedisPassword)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.CacheNone:
		return nil, nil
	case config.CacheMemory:
		store, err := cache.NewMemoryStore(cfg.CacheSize)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
}
