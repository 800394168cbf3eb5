// API server entry point for PatentCliff.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/PatentCliff/internal/bootstrap"
	"github.com/turtacn/PatentCliff/internal/config"
	"github.com/turtacn/PatentCliff/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/PatentCliff/internal/interfaces/http"
	"github.com/turtacn/PatentCliff/internal/interfaces/http/handlers"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	httpPort := flag.Int("http-port", 0, "HTTP server port (overrides config)")
	flag.Parse()

	if err := run(*configPath, *httpPort); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, httpPort int) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}
	if httpPort > 0 {
		cfg.Server.Port = httpPort
	}

	logger, err := bootstrap.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()
	logging.SetDefault(logger)

	logger.Info("starting PatentCliff API server",
		logging.String("version", config.Version),
		logging.Int("http_port", cfg.Server.Port),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close(context.Background())

	checks := make([]handlers.HealthChecker, 0, len(app.Checks))
	for _, c := range app.Checks {
		checks = append(checks, c)
	}
	routerCfg := httpserver.RouterConfig{
		Server:               cfg.Server,
		ConsolidationHandler: handlers.NewConsolidationHandler(app.Service, app.Reports, logger),
		HealthHandler:        handlers.NewHealthHandler(config.Version, checks...),
		Logger:               logger,
		Metrics:              app.Metrics,
	}
	if app.Collector != nil {
		routerCfg.MetricsHandler = app.Collector.Handler()
	}
	srv := httpserver.NewServer(cfg.Server, httpserver.NewRouter(routerCfg), logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	if err := srv.Stop(context.Background()); err != nil {
		logger.Error("HTTP server shutdown error", logging.Err(err))
	}
	logger.Info("server stopped")
	return nil
}

//Personal.AI order the ending
