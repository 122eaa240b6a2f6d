package config

import (
	"time"

	"github.com/turtacn/TreatIQ-Intelligence/internal/intelligence/success_predictor"
)

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerHost = "0.0.0.0"
	DefaultServerPort = 8080

	DefaultDBHost          = "localhost"
	DefaultDBPort          = 5432
	DefaultDBName          = "treatiq"
	DefaultDBMaxConns      = 25
	DefaultDBMigrationPath = "file://internal/infrastructure/database/postgres/migrations"

	DefaultRedisAddr       = "localhost:6379"
	DefaultRedisKeyPrefix  = "treatiq:"
	DefaultRedisCatalogTTL = 10 * time.Minute

	DefaultKafkaBroker       = "localhost:9092"
	DefaultKafkaGroupID      = "treatiq-prediction-worker"
	DefaultKafkaRequestTopic = "treatiq.prediction.requested"
	DefaultKafkaResultTopic  = "treatiq.prediction.completed"
	DefaultKafkaDLQTopic     = "treatiq.prediction.dlq"

	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "treatiq"

	DefaultCatalogStore = StoreMemory
	DefaultCatalogPath  = "configs/catalog.yaml"

	DefaultMaxConcurrency = 8

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultWorkerConcurrency = 4
)

// ApplyDefaults fills every zero-value field in cfg with its default.
// Explicitly configured values are left alone.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultServerHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = 1 << 20
	}

	// ── Database ──────────────────────────────────────────────────────────────
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = time.Hour
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30 * time.Minute
	}
	if cfg.Database.MigrationPath == "" {
		cfg.Database.MigrationPath = DefaultDBMigrationPath
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	if cfg.Redis.CatalogTTL == 0 {
		cfg.Redis.CatalogTTL = DefaultRedisCatalogTTL
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = 10
	}
	if cfg.Redis.DialTimeout == 0 {
		cfg.Redis.DialTimeout = 5 * time.Second
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.RequestTopic == "" {
		cfg.Kafka.RequestTopic = DefaultKafkaRequestTopic
	}
	if cfg.Kafka.ResultTopic == "" {
		cfg.Kafka.ResultTopic = DefaultKafkaResultTopic
	}
	if cfg.Kafka.DLQTopic == "" {
		cfg.Kafka.DLQTopic = DefaultKafkaDLQTopic
	}
	if cfg.Kafka.MaxRetries == 0 {
		cfg.Kafka.MaxRetries = 3
	}
	if cfg.Kafka.RetryBackoff == 0 {
		cfg.Kafka.RetryBackoff = 500 * time.Millisecond
	}
	if cfg.Kafka.BatchTimeout == 0 {
		cfg.Kafka.BatchTimeout = 50 * time.Millisecond
	}
	if cfg.Kafka.MinBytes == 0 {
		cfg.Kafka.MinBytes = 1
	}
	if cfg.Kafka.MaxBytes == 0 {
		cfg.Kafka.MaxBytes = 10 << 20
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}

	// ── Prediction ────────────────────────────────────────────────────────────
	// An all-zero weight set means "not configured"; a partial set is kept
	// and left for Validate to judge.
	if cfg.Prediction.Weights == (success_predictor.Weights{}) {
		cfg.Prediction.Weights = success_predictor.DefaultWeights()
	}
	if cfg.Prediction.MaxConcurrency == 0 {
		cfg.Prediction.MaxConcurrency = DefaultMaxConcurrency
	}
	if cfg.Prediction.RequestTimeout == 0 {
		cfg.Prediction.RequestTimeout = 5 * time.Second
	}

	// ── Catalog ───────────────────────────────────────────────────────────────
	if cfg.Catalog.Store == "" {
		cfg.Catalog.Store = DefaultCatalogStore
	}
	if cfg.Catalog.Path == "" && cfg.Catalog.Store == StoreMemory {
		cfg.Catalog.Path = DefaultCatalogPath
	}

	// ── Worker ────────────────────────────────────────────────────────────────
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

//Personal.AI order the ending
