// Command apiserver serves the prediction HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/TreatIQ-Intelligence/internal/bootstrap"
	"github.com/turtacn/TreatIQ-Intelligence/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/TreatIQ-Intelligence/internal/interfaces/http"
	"github.com/turtacn/TreatIQ-Intelligence/internal/interfaces/http/handlers"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file (empty: environment only)")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	flag.Parse()

	if err := run(*configPath, *port); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, port int) error {
	cfg, err := bootstrap.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.Server.Port = port
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	logging.SetDefault(logger)
	if err := bootstrap.WatchLogLevel(configPath, logger); err != nil {
		logger.Warn("config watch disabled", logging.Err(err))
	}

	collector, metrics, err := bootstrap.NewMetrics(cfg.Metrics, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	infra, err := bootstrap.Open(ctx, cfg, metrics, logger)
	if err != nil {
		return err
	}
	defer infra.Close()

	svc, err := bootstrap.NewService(cfg, infra, metrics, logger)
	if err != nil {
		return err
	}

	var checkers []handlers.HealthChecker
	for _, p := range infra.Probes() {
		checkers = append(checkers, handlers.CheckFunc{Component: p.Name, Probe: p.Check})
	}

	routerCfg := httpserver.RouterConfig{
		PredictionHandler: handlers.NewPredictionHandler(svc, cfg.Server.MaxBodySize, logger),
		Logger:            logger,
	}
	if metrics != nil {
		routerCfg.HealthHandler = handlers.NewHealthHandler(version, metrics, checkers...)
		routerCfg.RequestMetrics = metrics
		routerCfg.MetricsHandler = collector.Handler()
		routerCfg.MetricsPath = cfg.Metrics.Path
	} else {
		routerCfg.HealthHandler = handlers.NewHealthHandler(version, nil, checkers...)
	}

	server := httpserver.NewServer(cfg.Server, httpserver.NewRouter(routerCfg), logger)
	logger.Info("starting TreatIQ API server",
		logging.String("version", version),
		logging.String("addr", server.Addr()),
		logging.String("store", cfg.Catalog.Store),
		logging.Bool("cache", cfg.Redis.Enabled),
	)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	if err := server.Shutdown(context.Background()); err != nil {
		logger.Error("HTTP server shutdown error", logging.Err(err))
	}
	logger.Info("API server stopped")
	return nil
}

//Personal.AI order the ending
