// Background worker entry point for PatentCliff.  It consolidates batches
// published on the ingest topic, announces completed runs and purges
// expired run history.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/turtacn/PatentCliff/internal/bootstrap"
	"github.com/turtacn/PatentCliff/internal/config"
	redisclient "github.com/turtacn/PatentCliff/internal/infrastructure/database/redis"
	"github.com/turtacn/PatentCliff/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/PatentCliff/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/PatentCliff/internal/interfaces/http"
	"github.com/turtacn/PatentCliff/internal/interfaces/http/handlers"
	"github.com/turtacn/PatentCliff/internal/worker"
)

const (
	defaultWorkerConfigPath = "configs/config.yaml"
	retentionLockName       = "retention"
)

func main() {
	configPath := flag.String("config", defaultWorkerConfigPath, "path to configuration file")
	workerCount := flag.Int("workers", 0, "number of concurrent consumers (default: worker.concurrency)")
	flag.Parse()

	if err := run(*configPath, *workerCount); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, workerCount int) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}
	if workerCount > 0 {
		cfg.Worker.Concurrency = workerCount
	}

	logger, err := bootstrap.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()
	logging.SetDefault(logger)

	logger.Info("starting PatentCliff worker",
		logging.String("version", config.Version),
		logging.Int("workers", cfg.Worker.Concurrency),
		logging.Bool("kafka", cfg.Kafka.Enabled),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close(context.Background())

	// --- Consumers ---
	var consumers []*kafka.Consumer
	if cfg.Kafka.Enabled {
		if err := ensureTopics(ctx, cfg.Kafka, logger); err != nil {
			logger.Warn("topic provisioning failed; relying on broker auto-creation", logging.Err(err))
		}
		ingest := worker.NewIngestHandler(app.Service, app.Metrics, logger)
		for i := 0; i < cfg.Worker.Concurrency; i++ {
			c, err := kafka.NewConsumer(kafka.ConsumerConfigFrom(cfg.Kafka), app.Producer, logger.Named("consumer-"+strconv.Itoa(i)))
			if err != nil {
				return err
			}
			c.Subscribe(cfg.Kafka.IngestTopic, ingest.Handle)
			if err := c.Start(ctx); err != nil {
				return err
			}
			consumers = append(consumers, c)
		}
	} else {
		logger.Warn("kafka is disabled; the worker only runs scheduled jobs")
	}

	// --- Retention ---
	var lock worker.Locker
	if app.Redis != nil {
		lock = redisclient.NewMutex(app.Redis, retentionLockName, 10*time.Minute)
	}
	retention := worker.NewRetentionJob(app.Service, lock, cfg.Worker.RetentionPeriod, logger)
	scheduler := cron.New()
	if cfg.Database.Enabled {
		if _, err := retention.Schedule(scheduler, cfg.Worker.RetentionSchedule); err != nil {
			return fmt.Errorf("invalid worker.retention_schedule %q: %w", cfg.Worker.RetentionSchedule, err)
		}
	}
	scheduler.Start()

	if configPath != "" {
		if _, statErr := os.Stat(configPath); statErr == nil {
			err := config.Watch(configPath, func(next *config.Config) {
				retention.SetPeriod(next.Worker.RetentionPeriod)
				logger.Info("configuration reloaded", logging.Duration("retention_period", next.Worker.RetentionPeriod))
			}, func(err error) {
				logger.Warn("configuration reload rejected", logging.Err(err))
			})
			if err != nil {
				logger.Warn("configuration watch unavailable", logging.Err(err))
			}
		}
	}

	// --- Probes and metrics ---
	srv, err := probeServer(cfg, app, logger)
	if err != nil {
		return err
	}
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("probe server error", logging.Err(err))
		}
	}()

	logger.Info("worker started", logging.Int("consumers", len(consumers)))
	<-ctx.Done()
	logger.Info("received shutdown signal, draining")

	cronCtx := scheduler.Stop()
	for _, c := range consumers {
		if err := c.Close(); err != nil {
			logger.Warn("consumer close failed", logging.Err(err))
		}
	}
	select {
	case <-cronCtx.Done():
	case <-time.After(time.Minute):
		logger.Warn("retention job still running at shutdown")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("probe server shutdown error", logging.Err(err))
	}
	for _, c := range consumers {
		consumed, processed, failed, dead := c.Stats()
		logger.Info("consumer stats",
			logging.Int64("consumed", consumed),
			logging.Int64("processed", processed),
			logging.Int64("failed", failed),
			logging.Int64("dead_lettered", dead))
	}
	logger.Info("PatentCliff worker stopped")
	return nil
}

func ensureTopics(ctx context.Context, cfg config.KafkaConfig, logger logging.Logger) error {
	mgr, err := kafka.NewTopicManager(cfg.Brokers, logger)
	if err != nil {
		return err
	}
	defer mgr.Close()
	return mgr.EnsureTopics(ctx, kafka.Topics(cfg, 1))
}

func probeServer(cfg *config.Config, app *bootstrap.App, logger logging.Logger) (*httpserver.Server, error) {
	host, portStr, err := net.SplitHostPort(cfg.Worker.MetricsAddr)
	if err != nil {
		return nil, fmt.Errorf("invalid worker.metrics_addr %q: %w", cfg.Worker.MetricsAddr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid worker.metrics_addr port %q: %w", portStr, err)
	}

	checks := make([]handlers.HealthChecker, 0, len(app.Checks))
	for _, c := range app.Checks {
		checks = append(checks, c)
	}
	srvCfg := cfg.Server
	srvCfg.Host, srvCfg.Port = host, port
	routerCfg := httpserver.RouterConfig{
		Server:        srvCfg,
		HealthHandler: handlers.NewHealthHandler(config.Version, checks...),
		Logger:        logger,
	}
	if app.Collector != nil {
		routerCfg.MetricsHandler = app.Collector.Handler()
	}
	return httpserver.NewServer(srvCfg, httpserver.NewRouter(routerCfg), logger), nil
}

//Personal.AI order the ending
