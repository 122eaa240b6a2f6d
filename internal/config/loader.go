package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix of every setting.
const envPrefix = "TREATIQ"

// envKeys lists the nested keys that may be supplied through the environment
// alone.  viper only consults AutomaticEnv for keys it already knows about, so
// LoadFromEnv binds them explicitly.
var envKeys = []string{
	"server.host", "server.port",
	"database.host", "database.port", "database.user", "database.password", "database.db_name",
	"database.ssl_mode", "database.max_conns", "database.auto_migrate", "database.migration_path",
	"redis.enabled", "redis.addr", "redis.password", "redis.db", "redis.catalog_ttl",
	"kafka.brokers", "kafka.group_id", "kafka.request_topic", "kafka.result_topic", "kafka.dlq_topic",
	"metrics.enabled",
	"prediction.max_concurrency", "prediction.history_lookback", "prediction.history_limit",
	"catalog.store", "catalog.path",
	"worker.concurrency",
	"log.level", "log.format", "log.service",
}

// newViper builds a Viper with YAML file type, the TREATIQ_ env prefix and a
// "." → "_" key replacer, so "database.host" resolves to TREATIQ_DATABASE_HOST.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range envKeys {
		_ = v.BindEnv(k)
	}
	return v
}

// Load reads the YAML file at configPath, merges TREATIQ_* overrides, applies
// defaults and validates the result.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config from TREATIQ_* environment variables and
// defaults only.
//
//	TREATIQ_<SECTION>_<FIELD>   e.g.  TREATIQ_DATABASE_HOST, TREATIQ_CATALOG_STORE
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// Watch re-reads configPath whenever it is written and hands the new Config
// to onChange.  Invalid edits are reported to onError and otherwise ignored.
// Callers decide which settings are safe to apply at runtime; the binaries
// only apply log.level.
func Watch(configPath string, onChange func(*Config), onError func(error)) error {
	v := newViper()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

// MustLoad wraps Load and panics on error.  For main() only.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}

//Personal.AI order the ending
