package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by every setting.
const envPrefix = "CHEMTPL"

// bindKeys lists the keys that must resolve from the environment even when
// the config file omits them. viper's AutomaticEnv only consults env vars for
// keys it already knows about, so Unmarshal would miss them otherwise.
var bindKeys = []string{
	"server.host", "server.port",
	"database.postgres.host", "database.postgres.port", "database.postgres.user",
	"database.postgres.password", "database.postgres.db_name", "database.postgres.ssl_mode",
	"database.postgres.auto_migrate",
	"database.redis.addr", "database.redis.password", "database.redis.db",
	"messaging.kafka.brokers", "messaging.kafka.group_id",
	"storage.minio.endpoint", "storage.minio.access_key", "storage.minio.secret_key",
	"storage.minio.job_bucket", "storage.minio.use_ssl",
	"chemistry.base_url", "chemistry.timeout", "chemistry.cache_enabled",
	"evaluation.concurrency",
	"assembly.max_pool_size", "assembly.max_products",
	"worker.concurrency",
	"log.level", "log.format",
	"metrics.enabled",
}

// newViper builds a Viper instance with YAML file type, the CHEMTPL_ env
// prefix and a "." to "_" key replacer, so "database.postgres.host" resolves
// to CHEMTPL_DATABASE_POSTGRES_HOST.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range bindKeys {
		_ = v.BindEnv(k)
	}
	return v
}

// Load reads the YAML file at configPath, merges CHEMTPL_* overrides, applies
// defaults, and validates the result.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config from CHEMTPL_* environment variables only.
//
//	CHEMTPL_<SECTION>_<FIELD>   e.g.  CHEMTPL_CHEMISTRY_BASE_URL
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

// LoadOrEnv loads configPath when it is non-empty and falls back to
// LoadFromEnv otherwise.
func LoadOrEnv(configPath string) (*Config, error) {
	if configPath == "" {
		return LoadFromEnv()
	}
	return Load(configPath)
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

// Watch re-parses configPath whenever it changes on disk and passes the new
// Config to onChange. Only the log level is meant to be applied at runtime.
// Invalid intermediate states are reported to onError, which may be nil.
// Watch does not block.
func Watch(configPath string, onChange func(*Config), onError func(error)) {
	v := newViper()
	v.SetConfigFile(configPath)
	_ = v.ReadInConfig()

	v.OnConfigChange(func(_ fsnotify.Event) {
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
}

// MustLoad wraps Load and panics on error. For main() only.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}

//Personal.AI order the ending
