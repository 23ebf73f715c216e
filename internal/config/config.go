// Package config defines the configuration structures of chemtemplates.
// No I/O lives in this file, only plain data types and validation.
package config

import (
	"fmt"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// CORSAllowedOrigins enables CORS for the listed origins; "*" allows any.
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
	// RateLimitRPS is the sustained per-client request rate on /api/v1.
	// Zero disables rate limiting.
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Addr returns host:port for http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	MigrationPath   string        `mapstructure:"migration_path"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// DatabaseConfig groups the persistent and cache stores.
type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// KafkaConfig holds producer and consumer parameters.
type KafkaConfig struct {
	Brokers          []string      `mapstructure:"brokers"`
	GroupID          string        `mapstructure:"group_id"`
	TopicPrefix      string        `mapstructure:"topic_prefix"`
	StartOffset      string        `mapstructure:"start_offset"` // "earliest" | "latest"
	MaxRetries       int           `mapstructure:"max_retries"`
	RetryBackoff     time.Duration `mapstructure:"retry_backoff"`
	BatchSize        int           `mapstructure:"batch_size"`
	BatchTimeout     time.Duration `mapstructure:"batch_timeout"`
	DeadLetterSuffix string        `mapstructure:"dead_letter_suffix"`
	SASLMechanism    string        `mapstructure:"sasl_mechanism"` // "", PLAIN, SCRAM-SHA-256, SCRAM-SHA-512
	SASLUsername     string        `mapstructure:"sasl_username"`
	SASLPassword     string        `mapstructure:"sasl_password"`
	TLSEnabled       bool          `mapstructure:"tls_enabled"`
	TLSCAPath        string        `mapstructure:"tls_ca_path"`
}

// MessagingConfig groups message-broker settings.
type MessagingConfig struct {
	Kafka KafkaConfig `mapstructure:"kafka"`
}

// MinIOConfig holds S3-compatible object-storage parameters.
type MinIOConfig struct {
	Endpoint      string        `mapstructure:"endpoint"`
	AccessKey     string        `mapstructure:"access_key"`
	SecretKey     string        `mapstructure:"secret_key"`
	UseSSL        bool          `mapstructure:"use_ssl"`
	Region        string        `mapstructure:"region"`
	JobBucket     string        `mapstructure:"job_bucket"`
	PresignExpiry time.Duration `mapstructure:"presign_expiry"`
}

// StorageConfig groups object-storage settings.
type StorageConfig struct {
	MinIO MinIOConfig `mapstructure:"minio"`
}

// ChemistryConfig describes the remote chemistry service that backs chem.Oracle.
type ChemistryConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	CacheEnabled bool          `mapstructure:"cache_enabled"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
}

// EvaluationConfig bounds template evaluation fan-out.
type EvaluationConfig struct {
	Concurrency  int `mapstructure:"concurrency"`
	MaxBatchSize int `mapstructure:"max_batch_size"`
}

// AssemblyConfig holds the combinatorial limits forwarded to the oracle.
type AssemblyConfig struct {
	MaxPoolSize int `mapstructure:"max_pool_size"`
	MaxProducts int `mapstructure:"max_products"`
}

// WorkerConfig holds background job worker parameters.
type WorkerConfig struct {
	Concurrency     int           `mapstructure:"concurrency"`
	HealthPort      int           `mapstructure:"health_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `mapstructure:"format"` // "json" | "console"
	Output string `mapstructure:"output"`
}

// MetricsConfig controls the Prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Messaging  MessagingConfig  `mapstructure:"messaging"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Chemistry  ChemistryConfig  `mapstructure:"chemistry"`
	Evaluation EvaluationConfig `mapstructure:"evaluation"`
	Assembly   AssemblyConfig   `mapstructure:"assembly"`
	Worker     WorkerConfig     `mapstructure:"worker"`
	Log        LogConfig        `mapstructure:"log"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate checks the fully-populated Config and returns the first problem.
// Callers treat any error as fatal.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}

	pg := c.Database.Postgres
	if pg.Host == "" {
		return fmt.Errorf("config: database.postgres.host is required")
	}
	if pg.Port < 1 || pg.Port > 65535 {
		return fmt.Errorf("config: database.postgres.port %d is out of range [1, 65535]", pg.Port)
	}
	if pg.User == "" {
		return fmt.Errorf("config: database.postgres.user is required")
	}
	if pg.DBName == "" {
		return fmt.Errorf("config: database.postgres.db_name is required")
	}
	if pg.MaxOpenConns < 1 {
		return fmt.Errorf("config: database.postgres.max_open_conns must be >= 1, got %d", pg.MaxOpenConns)
	}

	if c.Database.Redis.Addr == "" {
		return fmt.Errorf("config: database.redis.addr is required")
	}
	if c.Database.Redis.DB < 0 {
		return fmt.Errorf("config: database.redis.db must be >= 0, got %d", c.Database.Redis.DB)
	}

	if len(c.Messaging.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: messaging.kafka.brokers must contain at least one broker address")
	}
	if c.Messaging.Kafka.GroupID == "" {
		return fmt.Errorf("config: messaging.kafka.group_id is required")
	}
	switch c.Messaging.Kafka.StartOffset {
	case "earliest", "latest":
	default:
		return fmt.Errorf("config: messaging.kafka.start_offset %q is invalid; expected earliest|latest", c.Messaging.Kafka.StartOffset)
	}

	if c.Storage.MinIO.Endpoint == "" {
		return fmt.Errorf("config: storage.minio.endpoint is required")
	}
	if c.Storage.MinIO.JobBucket == "" {
		return fmt.Errorf("config: storage.minio.job_bucket is required")
	}

	if c.Chemistry.BaseURL == "" {
		return fmt.Errorf("config: chemistry.base_url is required")
	}
	if c.Chemistry.Timeout <= 0 {
		return fmt.Errorf("config: chemistry.timeout must be positive")
	}

	if c.Evaluation.Concurrency < 1 {
		return fmt.Errorf("config: evaluation.concurrency must be >= 1, got %d", c.Evaluation.Concurrency)
	}
	if c.Assembly.MaxPoolSize < 1 {
		return fmt.Errorf("config: assembly.max_pool_size must be >= 1, got %d", c.Assembly.MaxPoolSize)
	}
	if c.Assembly.MaxProducts < 1 {
		return fmt.Errorf("config: assembly.max_products must be >= 1, got %d", c.Assembly.MaxProducts)
	}
	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("config: worker.concurrency must be >= 1, got %d", c.Worker.Concurrency)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}

//Personal.AI order the ending
