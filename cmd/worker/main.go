// Command worker consumes prediction requests from Kafka and publishes the
// results.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/TreatIQ-Intelligence/internal/bootstrap"
	"github.com/turtacn/TreatIQ-Intelligence/internal/config"
	"github.com/turtacn/TreatIQ-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/TreatIQ-Intelligence/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/TreatIQ-Intelligence/internal/interfaces/http"
	"github.com/turtacn/TreatIQ-Intelligence/internal/interfaces/http/handlers"
	"github.com/turtacn/TreatIQ-Intelligence/internal/interfaces/worker"
)

var version = "dev"

type options struct {
	configPath   string
	workers      int
	healthPort   int
	createTopics bool
	partitions   int
	replication  int
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "configs/config.yaml", "path to configuration file (empty: environment only)")
	flag.IntVar(&opts.workers, "workers", 0, "concurrent consume loops (overrides worker.concurrency)")
	flag.IntVar(&opts.healthPort, "health-port", 8081, "port of the probe and metrics server (0 disables it)")
	flag.BoolVar(&opts.createTopics, "create-topics", false, "create missing topics on start")
	flag.IntVar(&opts.partitions, "partitions", 6, "partitions of created request and result topics")
	flag.IntVar(&opts.replication, "replication", 1, "replication factor of created topics")
	flag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	cfg, err := bootstrap.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.workers > 0 {
		cfg.Worker.Concurrency = opts.workers
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	logging.SetDefault(logger)
	if err := bootstrap.WatchLogLevel(opts.configPath, logger); err != nil {
		logger.Warn("config watch disabled", logging.Err(err))
	}

	collector, metrics, err := bootstrap.NewMetrics(cfg.Metrics, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if opts.createTopics {
		if err := ensureTopics(ctx, cfg.Kafka, opts, logger); err != nil {
			return err
		}
	}

	infra, err := bootstrap.Open(ctx, cfg, metrics, logger)
	if err != nil {
		return err
	}
	defer infra.Close()

	svc, err := bootstrap.NewService(cfg, infra, metrics, logger)
	if err != nil {
		return err
	}

	producer, err := kafka.NewProducer(kafka.ProducerConfigFromKafka(cfg.Kafka), logger)
	if err != nil {
		return err
	}
	defer producer.Close()

	var observer kafka.MessageObserver
	if metrics != nil {
		observer = metrics
	}
	consumer, err := kafka.NewConsumer(kafka.ConsumerConfigFromKafka(cfg.Kafka, cfg.Worker.Concurrency), producer, observer, logger)
	if err != nil {
		return err
	}
	consumer.Subscribe(cfg.Kafka.RequestTopic, worker.NewPredictionHandler(svc, producer, cfg.Kafka.ResultTopic, logger).Handle)

	var probeServer *httpserver.Server
	if opts.healthPort > 0 {
		var checkers []handlers.HealthChecker
		for _, p := range infra.Probes() {
			checkers = append(checkers, handlers.CheckFunc{Component: p.Name, Probe: p.Check})
		}
		routerCfg := httpserver.RouterConfig{Logger: logger}
		if metrics != nil {
			routerCfg.HealthHandler = handlers.NewHealthHandler(version, metrics, checkers...)
			routerCfg.MetricsHandler = collector.Handler()
			routerCfg.MetricsPath = cfg.Metrics.Path
		} else {
			routerCfg.HealthHandler = handlers.NewHealthHandler(version, nil, checkers...)
		}
		serverCfg := cfg.Server
		serverCfg.Port = opts.healthPort
		probeServer = httpserver.NewServer(serverCfg, httpserver.NewRouter(routerCfg), logger)
		go func() {
			if err := probeServer.Start(); err != nil {
				logger.Error("probe server stopped", logging.Err(err))
			}
		}()
	}

	if err := consumer.Start(ctx); err != nil {
		return err
	}
	logger.Info("TreatIQ worker started",
		logging.String("version", version),
		logging.String("request_topic", cfg.Kafka.RequestTopic),
		logging.String("result_topic", cfg.Kafka.ResultTopic),
		logging.Int("workers", cfg.Worker.Concurrency),
	)

	<-ctx.Done()
	logger.Info("shutting down, waiting for in-flight messages")
	if err := consumer.Close(); err != nil {
		logger.Error("consumer close error", logging.Err(err))
	}
	if probeServer != nil {
		if err := probeServer.Shutdown(context.Background()); err != nil {
			logger.Error("probe server shutdown error", logging.Err(err))
		}
	}
	stats := consumer.Stats()
	logger.Info("worker stopped", logging.Any("stats", stats))
	return nil
}

func ensureTopics(ctx context.Context, cfg config.KafkaConfig, opts options, logger logging.Logger) error {
	manager, err := kafka.NewTopicManager(ctx, cfg.Brokers, logger)
	if err != nil {
		return err
	}
	defer manager.Close()
	return manager.EnsureTopics(kafka.DefaultTopics(cfg, opts.partitions, opts.replication))
}

//Personal.AI order the ending
