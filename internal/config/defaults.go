// Package config provides configuration loading, defaults, and validation for
// chemtemplates.
package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerHost = "0.0.0.0"
	DefaultServerPort = 8080

	DefaultDBHost         = "localhost"
	DefaultDBPort         = 5432
	DefaultDBUser         = "chemtpl"
	DefaultDBName         = "chemtemplates"
	DefaultDBMaxOpenConns = 25
	DefaultMigrationPath  = "file://migrations"

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisKeyPrefix = "chemtpl:"

	DefaultKafkaBroker  = "localhost:9092"
	DefaultKafkaGroupID = "chemtpl-worker"

	DefaultMinIOEndpoint  = "localhost:9000"
	DefaultMinIOJobBucket = "chemtpl-jobs"

	DefaultChemistryBaseURL = "http://localhost:8500"

	DefaultEvaluationConcurrency = 8
	DefaultEvaluationMaxBatch    = 10000

	DefaultAssemblyMaxPoolSize = 1000
	DefaultAssemblyMaxProducts = 1000000

	DefaultWorkerConcurrency = 4
	DefaultWorkerHealthPort  = 8081

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsNamespace = "chemtpl"
	DefaultMetricsPath      = "/metrics"
)

// ApplyDefaults fills every zero-value field in cfg. Explicit values win.
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
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 5 * time.Minute
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = 32 << 20
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15 * time.Second
	}
	if cfg.Server.RateLimitRPS > 0 && cfg.Server.RateLimitBurst == 0 {
		cfg.Server.RateLimitBurst = max(1, int(2*cfg.Server.RateLimitRPS))
	}

	// ── Postgres ──────────────────────────────────────────────────────────────
	pg := &cfg.Database.Postgres
	if pg.Host == "" {
		pg.Host = DefaultDBHost
	}
	if pg.Port == 0 {
		pg.Port = DefaultDBPort
	}
	if pg.User == "" {
		pg.User = DefaultDBUser
	}
	if pg.DBName == "" {
		pg.DBName = DefaultDBName
	}
	if pg.SSLMode == "" {
		pg.SSLMode = "disable"
	}
	if pg.MaxOpenConns == 0 {
		pg.MaxOpenConns = DefaultDBMaxOpenConns
	}
	if pg.MaxIdleConns == 0 {
		pg.MaxIdleConns = 5
	}
	if pg.ConnMaxLifetime == 0 {
		pg.ConnMaxLifetime = 30 * time.Minute
	}
	if pg.MigrationPath == "" {
		pg.MigrationPath = DefaultMigrationPath
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	rd := &cfg.Database.Redis
	if rd.Addr == "" {
		rd.Addr = DefaultRedisAddr
	}
	if rd.KeyPrefix == "" {
		rd.KeyPrefix = DefaultRedisKeyPrefix
	}
	if rd.DefaultTTL == 0 {
		rd.DefaultTTL = time.Hour
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	kc := &cfg.Messaging.Kafka
	if len(kc.Brokers) == 0 {
		kc.Brokers = []string{DefaultKafkaBroker}
	}
	if kc.GroupID == "" {
		kc.GroupID = DefaultKafkaGroupID
	}
	if kc.StartOffset == "" {
		kc.StartOffset = "earliest"
	}
	if kc.MaxRetries == 0 {
		kc.MaxRetries = 3
	}
	if kc.RetryBackoff == 0 {
		kc.RetryBackoff = 500 * time.Millisecond
	}
	if kc.DeadLetterSuffix == "" {
		kc.DeadLetterSuffix = ".dlq"
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	mc := &cfg.Storage.MinIO
	if mc.Endpoint == "" {
		mc.Endpoint = DefaultMinIOEndpoint
	}
	if mc.JobBucket == "" {
		mc.JobBucket = DefaultMinIOJobBucket
	}
	if mc.PresignExpiry == 0 {
		mc.PresignExpiry = time.Hour
	}

	// ── Chemistry ─────────────────────────────────────────────────────────────
	if cfg.Chemistry.BaseURL == "" {
		cfg.Chemistry.BaseURL = DefaultChemistryBaseURL
	}
	if cfg.Chemistry.Timeout == 0 {
		cfg.Chemistry.Timeout = 30 * time.Second
	}
	if cfg.Chemistry.MaxRetries == 0 {
		cfg.Chemistry.MaxRetries = 2
	}
	if cfg.Chemistry.RetryBackoff == 0 {
		cfg.Chemistry.RetryBackoff = 200 * time.Millisecond
	}
	if cfg.Chemistry.CacheTTL == 0 {
		cfg.Chemistry.CacheTTL = 24 * time.Hour
	}

	// ── Evaluation / Assembly ─────────────────────────────────────────────────
	if cfg.Evaluation.Concurrency == 0 {
		cfg.Evaluation.Concurrency = DefaultEvaluationConcurrency
	}
	if cfg.Evaluation.MaxBatchSize == 0 {
		cfg.Evaluation.MaxBatchSize = DefaultEvaluationMaxBatch
	}
	if cfg.Assembly.MaxPoolSize == 0 {
		cfg.Assembly.MaxPoolSize = DefaultAssemblyMaxPoolSize
	}
	if cfg.Assembly.MaxProducts == 0 {
		cfg.Assembly.MaxProducts = DefaultAssemblyMaxProducts
	}

	// ── Worker ────────────────────────────────────────────────────────────────
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}
	if cfg.Worker.HealthPort == 0 {
		cfg.Worker.HealthPort = DefaultWorkerHealthPort
	}
	if cfg.Worker.ShutdownTimeout == 0 {
		cfg.Worker.ShutdownTimeout = 30 * time.Second
	}

	// ── Log / Metrics ─────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
}

//Personal.AI order the ending
