package bootstrap

import (
	"github.com/turtacn/TreatIQ-Intelligence/internal/config"
	"github.com/turtacn/TreatIQ-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/TreatIQ-Intelligence/internal/infrastructure/monitoring/prometheus"
)

// LoadConfig reads path, or the environment alone when path is empty.
func LoadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.LoadFromEnv()
	}
	return config.Load(path)
}

// NewMetrics builds the collector and the application metric set.  Both are
// nil when metrics are disabled.
func NewMetrics(cfg config.MetricsConfig, logger logging.Logger) (prometheus.MetricsCollector, *prometheus.AppMetrics, error) {
	if !cfg.Enabled {
		return nil, nil, nil
	}
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            cfg.Namespace,
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	return collector, prometheus.NewAppMetrics(collector), nil
}

// WatchLogLevel applies log.level edits of the config file at path to logger.
// Other settings need a restart.
func WatchLogLevel(path string, logger logging.Logger) error {
	setter, ok := logger.(logging.LevelSetter)
	if !ok || path == "" {
		return nil
	}
	return config.Watch(path, func(cfg *config.Config) {
		setter.SetLevel(cfg.Log.Level)
		logger.Info("log level updated", logging.String("level", cfg.Log.Level))
	}, func(err error) {
		logger.Warn("ignoring invalid config edit", logging.Err(err))
	})
}

//Personal.AI order the ending
