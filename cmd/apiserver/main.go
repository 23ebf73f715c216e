// API server entry point for chemtemplates.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/turtacn/chemtemplates/internal/application/assembly"
	"github.com/turtacn/chemtemplates/internal/application/jobs"
	"github.com/turtacn/chemtemplates/internal/application/templates"
	"github.com/turtacn/chemtemplates/internal/config"
	domainAsm "github.com/turtacn/chemtemplates/internal/domain/assembly"
	"github.com/turtacn/chemtemplates/internal/domain/chem"
	"github.com/turtacn/chemtemplates/internal/domain/filter"
	"github.com/turtacn/chemtemplates/internal/infrastructure/chemistry"
	"github.com/turtacn/chemtemplates/internal/infrastructure/database/postgres"
	"github.com/turtacn/chemtemplates/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/chemtemplates/internal/infrastructure/database/redis"
	"github.com/turtacn/chemtemplates/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/chemtemplates/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemtemplates/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/chemtemplates/internal/infrastructure/storage/minio"
	httpserver "github.com/turtacn/chemtemplates/internal/interfaces/http"
	"github.com/turtacn/chemtemplates/internal/interfaces/http/handlers"
	"github.com/turtacn/chemtemplates/internal/interfaces/http/middleware"
)

const defaultConfigPath = "configs/config.yaml"

// Build-time variables injected via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	flag.Parse()

	if err := run(*configPath, *port); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, port int) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.Server.Port = port
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: "chemtpl-apiserver",
	})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	logging.SetDefault(logger)

	if configPath != "" {
		config.Watch(configPath, func(next *config.Config) {
			if logging.SetLevel(logger, next.Log.Level) {
				logger.Info("log level reloaded", logging.String("level", next.Log.Level))
			}
		}, func(err error) {
			logger.Warn("ignoring invalid configuration change", logging.Err(err))
		})
	}

	logger.Info("starting chemtemplates API server",
		logging.String("version", version),
		logging.String("commit", commit),
		logging.String("addr", cfg.Server.Addr()))

	app, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := httpserver.NewServer(cfg.Server, app.router(), logger)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case sig := <-quit:
		logger.Info("received shutdown signal", logging.String("signal", sig.String()))
	}

	return srv.Shutdown(context.Background())
}

// loadConfig reads the file when it exists and otherwise builds the
// configuration from CHEMTPL_* variables.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "warning: %s not found, configuring from environment\n", path)
			path = ""
		}
	}
	return config.LoadOrEnv(path)
}

// app owns every long-lived dependency of the server.
type app struct {
	cfg     *config.Config
	logger  logging.Logger
	metrics *prometheus.AppMetrics
	mc      prometheus.MetricsCollector

	db       *postgres.Connection
	redis    *redis.Client
	storage  *minio.Client
	producer *kafka.Producer
	oracle   *chemistry.HTTPOracle

	templateSvc templates.Service
	assemblySvc assembly.Service
	jobSvc      jobs.Service
	limiter     *middleware.TokenBucketLimiter
}

func newApp(cfg *config.Config, logger logging.Logger) (a *app, err error) {
	a = &app{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.metrics = prometheus.NewNopAppMetrics()
	if cfg.Metrics.Enabled {
		a.mc, err = prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			EnableProcessMetrics: true,
			EnableGoMetrics:      true,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
		a.metrics = prometheus.NewAppMetrics(a.mc)
	}

	if a.db, err = postgres.NewConnection(cfg.Database.Postgres, logger); err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	if cfg.Database.Postgres.AutoMigrate {
		if err = postgres.NewMigrator(a.db, cfg.Database.Postgres.MigrationPath, logger).Up(); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}

	if a.redis, err = redis.NewClient(cfg.Database.Redis, logger); err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	cache := redis.NewRedisCache(a.redis, logger, redis.WithDefaultTTL(cfg.Database.Redis.DefaultTTL))

	if a.storage, err = minio.NewClient(cfg.Storage.MinIO, logger); err != nil {
		return nil, fmt.Errorf("minio: %w", err)
	}
	initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err = a.storage.EnsureBucket(initCtx); err != nil {
		return nil, fmt.Errorf("minio bucket: %w", err)
	}

	if a.producer, err = kafka.NewProducer(kafka.NewProducerConfig(cfg.Messaging.Kafka), logger); err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	if a.oracle, err = chemistry.NewHTTPOracle(cfg.Chemistry, logger, chemistry.WithMetrics(a.metrics)); err != nil {
		return nil, fmt.Errorf("chemistry: %w", err)
	}
	var oracle chem.Oracle = a.oracle
	if cfg.Chemistry.CacheEnabled {
		oracle = chemistry.NewCachedOracle(a.oracle, cache, cfg.Chemistry.CacheTTL, logger, a.metrics)
	}

	registry := filter.NewRegistry(oracle)
	compiler := filter.NewCompiler(registry, logger)
	evaluator := filter.NewEvaluator(oracle, cfg.Evaluation.Concurrency)

	tplOpts := []templates.Option{
		templates.WithMetrics(a.metrics),
		templates.WithMaxBatchSize(cfg.Evaluation.MaxBatchSize),
		templates.WithConcurrency(cfg.Evaluation.Concurrency),
	}
	a.templateSvc = templates.NewService(repositories.NewPostgresTemplateRepo(a.db, logger),
		compiler, evaluator, oracle, logger, tplOpts...)

	engine := domainAsm.NewEngine(
		domainAsm.NewCompiler(compiler, logger, domainAsm.WithTemplateResolver(a.templateSvc)),
		domainAsm.NewPoolBuilder(oracle, cfg.Evaluation.Concurrency, logger),
		domainAsm.NewExecutor(oracle, chem.Limits{
			MaxPoolSize: cfg.Assembly.MaxPoolSize,
			MaxProducts: cfg.Assembly.MaxProducts,
		}, logger),
	)
	a.assemblySvc = assembly.NewService(engine, compiler, oracle,
		repositories.NewPostgresAssemblySchemaRepo(a.db, logger), a.metrics, logger)

	store := minio.NewJobPayloadStore(a.storage, minio.NewMinIORepository(a.storage, logger))
	a.jobSvc = jobs.NewService(repositories.NewPostgresJobRepo(a.db, logger), store, a.producer, a.templateSvc,
		jobs.Config{
			TopicPrefix: cfg.Messaging.Kafka.TopicPrefix,
			Source:      "chemtpl-apiserver",
			MaxQueries:  cfg.Evaluation.MaxBatchSize,
		}, a.metrics, logger)

	return a, nil
}

func (a *app) router() http.Handler {
	cfg := httpserver.RouterConfig{
		TemplateHandler: handlers.NewTemplateHandler(a.templateSvc, a.logger),
		MoleculeHandler: handlers.NewMoleculeHandler(a.templateSvc, a.logger),
		AssemblyHandler: handlers.NewAssemblyHandler(a.assemblySvc, a.logger),
		SchemaHandler:   handlers.NewSchemaHandler(a.assemblySvc, a.logger),
		JobHandler:      handlers.NewJobHandler(a.jobSvc, a.logger),
		HealthHandler: handlers.NewHealthHandler(version, a.metrics,
			handlers.CheckFunc{Component: "postgres", Fn: a.db.HealthCheck},
			handlers.CheckFunc{Component: "redis", Fn: a.redis.HealthCheck},
			handlers.CheckFunc{Component: "minio", Fn: a.storage.HealthCheck},
			handlers.CheckFunc{Component: "chemistry", Fn: a.oracle.HealthCheck},
		),
		LoggingConfig: middleware.DefaultLoggingConfig(),
		MaxBodySize:   a.cfg.Server.MaxBodySize,
		Logger:        a.logger,
		Metrics:       a.metrics,
	}
	if len(a.cfg.Server.CORSAllowedOrigins) > 0 {
		cors := middleware.DefaultCORSConfig()
		cors.AllowedOrigins = a.cfg.Server.CORSAllowedOrigins
		cfg.CORS = &cors
	}
	if a.cfg.Server.RateLimitRPS > 0 {
		a.limiter = middleware.NewTokenBucketLimiter(a.cfg.Server.RateLimitRPS, a.cfg.Server.RateLimitBurst, time.Minute)
		cfg.RateLimiter = a.limiter
	}
	if a.mc != nil {
		cfg.MetricsCollector = a.mc
		cfg.MetricsPath = a.cfg.Metrics.Path
	}
	return httpserver.NewRouter(cfg)
}

// Close releases dependencies in reverse order of construction. It is safe
// on a partially built app.
func (a *app) Close() {
	if a.limiter != nil {
		a.limiter.Stop()
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("kafka producer close failed", logging.Err(err))
		}
	}
	if a.storage != nil {
		_ = a.storage.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("redis close failed", logging.Err(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("postgres close failed", logging.Err(err))
		}
	}
}

//Personal.AI order the ending
