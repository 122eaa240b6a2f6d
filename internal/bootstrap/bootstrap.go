// Package bootstrap assembles the record store, catalog cache and prediction
// engine from a Config.  Every TreatIQ binary builds its dependencies here.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/turtacn/TreatIQ-Intelligence/internal/application/prediction"
	"github.com/turtacn/TreatIQ-Intelligence/internal/config"
	"github.com/turtacn/TreatIQ-Intelligence/internal/domain/treatment"
	"github.com/turtacn/TreatIQ-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/TreatIQ-Intelligence/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/TreatIQ-Intelligence/internal/infrastructure/database/redis"
	"github.com/turtacn/TreatIQ-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/TreatIQ-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/TreatIQ-Intelligence/internal/intelligence/success_predictor"
)

// Probe is a named dependency check.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// Infrastructure holds the opened store clients.  Close releases them in
// reverse order of opening.
type Infrastructure struct {
	Repository treatment.Repository
	// Catalog is nil when the store cannot enumerate treatments.
	Catalog treatment.CatalogLister

	Postgres *postgres.Connection
	// Treatments is the Postgres repository before caching.
	Treatments *repositories.TreatmentRepository
	Redis      *redis.Client
	Cache      *redis.CachedRepository

	probes  []Probe
	closers []func() error
	logger  logging.Logger
}

// Open connects the store selected by cfg.Catalog and, when enabled, the
// Redis cache in front of it.  metrics may be nil.
func Open(ctx context.Context, cfg *config.Config, metrics *prometheus.AppMetrics, logger logging.Logger) (*Infrastructure, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	infra := &Infrastructure{logger: logger.Named("bootstrap")}

	var repo treatment.Repository
	switch cfg.Catalog.Store {
	case config.StoreMemory:
		mem, err := treatment.LoadCatalogFile(cfg.Catalog.Path)
		if err != nil {
			return nil, err
		}
		repo = mem
		infra.logger.Info("using in-memory catalog", logging.String("path", cfg.Catalog.Path))

	case config.StorePostgres:
		conn, err := postgres.NewConnection(ctx, cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		infra.Postgres = conn
		infra.closers = append(infra.closers, conn.Close)
		infra.probes = append(infra.probes, Probe{Name: "postgres", Check: conn.HealthCheck})

		if cfg.Database.AutoMigrate {
			if err := postgres.RunMigrations(cfg.Database.DSN(), cfg.Database.MigrationPath); err != nil {
				_ = infra.Close()
				return nil, err
			}
			infra.logger.Info("database migrations applied")
		}

		opts := repositories.TreatmentRepoOptions{
			HistoryLookback: cfg.Prediction.HistoryLookback,
			HistoryLimit:    cfg.Prediction.HistoryLimit,
		}
		if metrics != nil {
			opts.Observer = metrics
		}
		infra.Treatments = repositories.NewTreatmentRepository(conn, logger, opts)
		repo = infra.Treatments

	default:
		return nil, fmt.Errorf("bootstrap: unknown catalog store %q", cfg.Catalog.Store)
	}

	if cfg.Redis.Enabled {
		client, err := redis.NewClient(ctx, cfg.Redis, logger)
		if err != nil {
			_ = infra.Close()
			return nil, err
		}
		infra.Redis = client
		infra.closers = append(infra.closers, client.Close)
		infra.probes = append(infra.probes, Probe{Name: "redis", Check: client.HealthCheck})

		cache := redis.NewRedisCache(client, logger,
			redis.WithPrefix(cfg.Redis.KeyPrefix),
			redis.WithDefaultTTL(cfg.Redis.CatalogTTL),
		)
		var observer redis.CacheObserver
		if metrics != nil {
			observer = metrics
		}
		infra.Cache = redis.NewCachedRepository(repo, cache, cfg.Redis.CatalogTTL, logger, observer)
		repo = infra.Cache
	}

	infra.Repository = repo
	if lister, ok := repo.(treatment.CatalogLister); ok {
		infra.Catalog = lister
	}
	return infra, nil
}

// Probes returns the health checks of the opened clients.
func (i *Infrastructure) Probes() []Probe {
	return append([]Probe(nil), i.probes...)
}

// Close releases every client.  The first error is returned.
func (i *Infrastructure) Close() error {
	var first error
	for n := len(i.closers) - 1; n >= 0; n-- {
		if err := i.closers[n](); err != nil && first == nil {
			first = err
		}
	}
	i.closers = nil
	return first
}

// NewEngine builds the success predictor from the prediction settings.
// metrics may be nil.
func NewEngine(cfg config.PredictionConfig, repo treatment.Repository, metrics *prometheus.AppMetrics, logger logging.Logger) (success_predictor.Predictor, error) {
	model, err := success_predictor.NewModelConfig(cfg.Weights)
	if err != nil {
		return nil, err
	}
	var hook success_predictor.Metrics
	if metrics != nil {
		hook = metrics
	}
	return success_predictor.NewPredictor(repo, model, hook, logger,
		success_predictor.WithMaxConcurrency(cfg.MaxConcurrency),
	)
}

// NewService wires the engine and the application service on top of infra.
func NewService(cfg *config.Config, infra *Infrastructure, metrics *prometheus.AppMetrics, logger logging.Logger) (prediction.Service, error) {
	engine, err := NewEngine(cfg.Prediction, infra.Repository, metrics, logger)
	if err != nil {
		return nil, err
	}
	return prediction.NewService(engine, infra.Catalog, prediction.ServiceConfig{
		RequestTimeout: cfg.Prediction.RequestTimeout,
	}, logger), nil
}

//Personal.AI order the ending
