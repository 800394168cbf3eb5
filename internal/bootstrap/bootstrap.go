// Package bootstrap turns a Config into a wired consolidation service.
// Adapters whose section is disabled stay nil, so a zero-infrastructure
// configuration yields a purely in-memory service.
package bootstrap

import (
	"context"
	"math"
	"time"

	"github.com/turtacn/PatentCliff/internal/application/consolidation"
	"github.com/turtacn/PatentCliff/internal/application/reporting"
	"github.com/turtacn/PatentCliff/internal/config"
	"github.com/turtacn/PatentCliff/internal/domain/cliff"
	"github.com/turtacn/PatentCliff/internal/domain/family"
	neo4jdriver "github.com/turtacn/PatentCliff/internal/infrastructure/database/neo4j"
	neo4jrepo "github.com/turtacn/PatentCliff/internal/infrastructure/database/neo4j/repositories"
	"github.com/turtacn/PatentCliff/internal/infrastructure/database/postgres"
	pgrepo "github.com/turtacn/PatentCliff/internal/infrastructure/database/postgres/repositories"
	redisclient "github.com/turtacn/PatentCliff/internal/infrastructure/database/redis"
	"github.com/turtacn/PatentCliff/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/PatentCliff/internal/infrastructure/monitoring/logging"
	prom "github.com/turtacn/PatentCliff/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/PatentCliff/internal/infrastructure/search/opensearch"
	"github.com/turtacn/PatentCliff/internal/infrastructure/storage/minio"
)

// EventSource identifies this service in published envelopes.
const EventSource = "patentcliff"

// HealthCheck is one adapter probe.  It satisfies the HTTP health handler's
// checker interface.
type HealthCheck struct {
	Component string
	Fn        func(ctx context.Context) error
}

func (h HealthCheck) Name() string                    { return h.Component }
func (h HealthCheck) Check(ctx context.Context) error { return h.Fn(ctx) }

// App holds everything an entry point needs.
type App struct {
	Config    *config.Config
	Logger    logging.Logger
	Collector prom.MetricsCollector
	Metrics   *prom.ConsolidationMetrics
	Service   consolidation.Service
	Reports   reporting.Generator
	Checks    []HealthCheck

	// Producer is set when kafka is enabled; the worker reuses it for
	// dead letters.
	Producer *kafka.Producer
	// Redis is set when the cache is enabled; the worker leases its
	// retention lock through it.
	Redis *redisclient.Client

	closers []func(context.Context) error
}

// NewLogger builds the process logger from the log section.
func NewLogger(cfg config.LogConfig) (logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	out := cfg.Output
	if out == "" {
		out = "stderr"
	}
	return logging.NewLogger(logging.LogConfig{
		Level:            level,
		Format:           cfg.Format,
		OutputPaths:      []string{out},
		ErrorOutputPaths: []string{"stderr"},
	})
}

// ServiceConfig maps the consolidation section onto the pipeline settings.
func ServiceConfig(cfg config.ConsolidationConfig) consolidation.Config {
	return consolidation.Config{
		Precedence: cfg.Precedence,
		Family: family.Options{
			TitlePrefixLength: cfg.TitlePrefixLength,
			TitleMinLength:    cfg.TitleMinLength,
			MaxPriorities:     cfg.MaxPriorities,
			DisableTitleMatch: cfg.DisableTitleMatch,
		},
		Cliff: cliff.Options{
			MaxMembersScanned: cfg.MaxMembersScanned,
			MaxYears:          cfg.MaxYears,
			MaxPerYear:        cfg.MaxPerYear,
			MaxOverview:       cfg.MaxOverview,
			MaxCountries:      cfg.MaxCountries,
			Budget:            cfg.Budget,
			TermYears:         cliff.DefaultTermYears,
		},
		Version:    config.Version,
		MaxRecords: cfg.MaxRecords,
	}
}

// RedisConfig converts the redis section to the client settings.
func RedisConfig(cfg config.RedisConfig) *redisclient.RedisConfig {
	return &redisclient.RedisConfig{
		Mode:         cfg.Mode,
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}

// retentionDays rounds the retention period up to whole days for the
// archive lifecycle rule.
func retentionDays(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Hours() / 24))
}

// New connects every enabled adapter.  An enabled adapter that cannot be
// reached fails startup; everything already opened is closed again.
func New(ctx context.Context, cfg *config.Config, logger logging.Logger) (_ *App, err error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	app := &App{Config: cfg, Logger: logger}
	// Adapters opened before a failure are released here.
	defer func() {
		if err != nil {
			_ = app.Close(context.Background())
		}
	}()

	if cfg.Metrics.Enabled {
		app.Collector, err = prom.NewMetricsCollector(prom.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			Subsystem:            cfg.Metrics.Subsystem,
			EnableProcessMetrics: true,
			EnableGoMetrics:      true,
		}, logger)
		if err != nil {
			return nil, err
		}
		app.Metrics = prom.NewConsolidationMetrics(app.Collector)
	}

	deps := consolidation.Deps{Logger: logger, Metrics: app.Metrics}

	if cfg.Database.Enabled {
		if cfg.Database.AutoMigrate {
			if err = postgres.RunMigrations(postgres.BuildDSN(cfg.Database), logger); err != nil {
				return nil, err
			}
		}
		pool, perr := postgres.NewConnectionPool(ctx, cfg.Database, logger)
		if perr != nil {
			return nil, perr
		}
		app.onClose(func(context.Context) error { pool.Close(); return nil })
		app.check("postgres", func(ctx context.Context) error { return postgres.HealthCheck(ctx, pool, logger) })
		deps.Runs = pgrepo.NewRunRepository(pool, logger)
	}

	if cfg.Redis.Enabled {
		client, rerr := redisclient.NewClient(RedisConfig(cfg.Redis), logger)
		if rerr != nil {
			return nil, rerr
		}
		app.Redis = client
		app.onClose(func(context.Context) error { return client.Close() })
		app.check("redis", client.Ping)
		opts := []redisclient.CacheOption{redisclient.WithTTL(cfg.Consolidation.CacheTTL)}
		if cfg.Redis.KeyPrefix != "" {
			opts = append(opts, redisclient.WithPrefix(cfg.Redis.KeyPrefix+"result:"))
		}
		deps.Cache = redisclient.NewResultCache(client, logger, opts...)
	}

	if cfg.Neo4j.Enabled {
		drv, nerr := neo4jdriver.NewDriver(ctx, cfg.Neo4j, logger)
		if nerr != nil {
			return nil, nerr
		}
		app.onClose(drv.Close)
		app.check("neo4j", drv.HealthCheck)
		deps.Graph = neo4jrepo.NewFamilyGraphRepository(drv, logger)
	}

	if cfg.MinIO.Enabled {
		api, merr := minio.NewObjectAPI(cfg.MinIO)
		if merr != nil {
			return nil, merr
		}
		if err = minio.EnsureBucket(ctx, api, cfg.MinIO.Bucket, cfg.MinIO.Region, retentionDays(cfg.Worker.RetentionPeriod), logger); err != nil {
			return nil, err
		}
		bucket := cfg.MinIO.Bucket
		app.check("minio", func(ctx context.Context) error { return minio.HealthCheck(ctx, api, bucket) })
		deps.Archive = minio.NewArchiveStore(api, bucket, logger)
	}

	if cfg.OpenSearch.Enabled {
		client, oerr := opensearch.NewClient(ctx, cfg.OpenSearch, logger)
		if oerr != nil {
			return nil, oerr
		}
		indexer := opensearch.NewIndexer(client, cfg.OpenSearch.Index, logger)
		if err = indexer.EnsureIndex(ctx); err != nil {
			return nil, err
		}
		app.check("opensearch", client.Ping)
		deps.Indexer = indexer
	}

	if cfg.Kafka.Enabled {
		producer, kerr := kafka.NewProducer(kafka.ProducerConfigFrom(cfg.Kafka), logger)
		if kerr != nil {
			return nil, kerr
		}
		app.Producer = producer
		app.onClose(func(context.Context) error { return producer.Close() })
		deps.Publisher = kafka.NewCompletedPublisher(producer, cfg.Kafka.CompletedTopic, EventSource)
	}

	app.Reports, err = reporting.NewGenerator(logger)
	if err != nil {
		return nil, err
	}
	app.Service = consolidation.NewService(ServiceConfig(cfg.Consolidation), deps)

	logger.Info("service wired",
		logging.Bool("run_history", deps.Runs != nil),
		logging.Bool("cache", deps.Cache != nil),
		logging.Bool("graph", deps.Graph != nil),
		logging.Bool("archive", deps.Archive != nil),
		logging.Bool("index", deps.Indexer != nil),
		logging.Bool("events", deps.Publisher != nil),
		logging.Bool("metrics", app.Metrics != nil),
	)
	return app, nil
}

func (a *App) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

func (a *App) check(name string, fn func(context.Context) error) {
	a.Checks = append(a.Checks, HealthCheck{Component: name, Fn: fn})
}

// Close releases adapters in reverse order of opening and returns the
// first error.
func (a *App) Close(ctx context.Context) error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.Logger.Warn("adapter close failed", logging.Err(err))
			if first == nil {
				first = err
			}
		}
	}
	a.closers = nil
	return first
}

//Personal.AI order the ending
