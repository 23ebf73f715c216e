// Background worker entry point for chemtemplates. It consumes evaluation
// job requests from Kafka, runs them through the template service and stores
// the results in object storage.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/chemtemplates/internal/application/jobs"
	"github.com/turtacn/chemtemplates/internal/application/templates"
	"github.com/turtacn/chemtemplates/internal/config"
	"github.com/turtacn/chemtemplates/internal/domain/chem"
	"github.com/turtacn/chemtemplates/internal/domain/filter"
	"github.com/turtacn/chemtemplates/internal/infrastructure/chemistry"
	pgconn "github.com/turtacn/chemtemplates/internal/infrastructure/database/postgres"
	pgrepo "github.com/turtacn/chemtemplates/internal/infrastructure/database/postgres/repositories"
	redisclient "github.com/turtacn/chemtemplates/internal/infrastructure/database/redis"
	"github.com/turtacn/chemtemplates/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/chemtemplates/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemtemplates/internal/infrastructure/monitoring/prometheus"
	minioclient "github.com/turtacn/chemtemplates/internal/infrastructure/storage/minio"
	"github.com/turtacn/chemtemplates/internal/interfaces/http/handlers"
)

const (
	defaultWorkerConfigPath = "configs/config.yaml"
	defaultShutdownTimeout  = 2 * time.Minute
)

var version = "dev"

func main() {
	configPath := flag.String("config", defaultWorkerConfigPath, "path to configuration file")
	workerCount := flag.Int("workers", 0, "number of consumers in the group (overrides config)")
	ensureTopics := flag.Bool("ensure-topics", false, "create the job topics before consuming")
	flag.Parse()

	cfg, err := config.LoadOrEnv(existingPath(*configPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *workerCount > 0 {
		cfg.Worker.Concurrency = *workerCount
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: "chemtpl-worker",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	logging.SetDefault(logger)

	if err := run(cfg, *ensureTopics, logger); err != nil {
		logger.Error("worker failed", logging.Err(err))
		os.Exit(1)
	}
	logger.Info("chemtemplates worker stopped")
}

func existingPath(path string) string {
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func run(cfg *config.Config, ensureTopics bool, logger logging.Logger) error {
	logger.Info("starting chemtemplates worker",
		logging.String("version", version),
		logging.Int("consumers", cfg.Worker.Concurrency))

	metrics := prometheus.NewNopAppMetrics()
	var collector prometheus.MetricsCollector
	if cfg.Metrics.Enabled {
		var err error
		collector, err = prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:       cfg.Metrics.Namespace,
			EnableGoMetrics: true,
		}, logger)
		if err != nil {
			return err
		}
		metrics = prometheus.NewAppMetrics(collector)
	}

	infra, err := initWorkerInfrastructure(cfg, metrics, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize infrastructure: %w", err)
	}
	defer infra.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if ensureTopics {
		if err := createTopics(ctx, cfg.Messaging.Kafka, logger); err != nil {
			return err
		}
	}

	jobSvc := buildJobService(cfg, infra, metrics, logger)
	topic := kafka.TopicName(cfg.Messaging.Kafka.TopicPrefix, kafka.TopicEvaluationRequested)

	consumers := make([]*kafka.Consumer, 0, cfg.Worker.Concurrency)
	defer func() { closeConsumers(consumers, cfg.Worker.ShutdownTimeout, logger) }()
	for i := 0; i < cfg.Worker.Concurrency; i++ {
		consumer, err := kafka.NewConsumer(kafka.NewConsumerConfig(cfg.Messaging.Kafka, topic), logger,
			kafka.WithConsumerMetrics(metrics))
		if err != nil {
			return fmt.Errorf("failed to create Kafka consumer: %w", err)
		}
		consumers = append(consumers, consumer)
		if err := consumer.Subscribe(topic, jobSvc.HandleMessage); err != nil {
			return err
		}
		if err := consumer.Start(ctx); err != nil {
			return err
		}
	}
	logger.Info("worker pool started", logging.String("topic", topic), logging.Int("consumers", len(consumers)))

	healthSrv := startHealthServer(cfg, infra, metrics, collector, logger)
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := healthSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("health server shutdown error", logging.Err(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("received shutdown signal", logging.String("signal", sig.String()))
	cancel()
	return nil
}

// workerInfrastructure holds infrastructure clients for the worker process.
type workerInfrastructure struct {
	pg       *pgconn.Connection
	redis    *redisclient.Client
	minio    *minioclient.Client
	producer *kafka.Producer
	oracle   *chemistry.HTTPOracle
	cached   chem.Oracle
}

func (w *workerInfrastructure) Close() {
	if w.producer != nil {
		_ = w.producer.Close()
	}
	if w.minio != nil {
		_ = w.minio.Close()
	}
	if w.redis != nil {
		_ = w.redis.Close()
	}
	if w.pg != nil {
		_ = w.pg.Close()
	}
}

func initWorkerInfrastructure(cfg *config.Config, metrics *prometheus.AppMetrics, logger logging.Logger) (infra *workerInfrastructure, err error) {
	infra = &workerInfrastructure{}
	defer func() {
		if err != nil {
			infra.Close()
		}
	}()

	if infra.pg, err = pgconn.NewConnection(cfg.Database.Postgres, logger); err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	if infra.redis, err = redisclient.NewClient(cfg.Database.Redis, logger); err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	if infra.minio, err = minioclient.NewClient(cfg.Storage.MinIO, logger); err != nil {
		return nil, fmt.Errorf("minio: %w", err)
	}
	if infra.producer, err = kafka.NewProducer(kafka.NewProducerConfig(cfg.Messaging.Kafka), logger); err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	if infra.oracle, err = chemistry.NewHTTPOracle(cfg.Chemistry, logger, chemistry.WithMetrics(metrics)); err != nil {
		return nil, fmt.Errorf("chemistry: %w", err)
	}
	infra.cached = infra.oracle
	if cfg.Chemistry.CacheEnabled {
		cache := redisclient.NewRedisCache(infra.redis, logger, redisclient.WithDefaultTTL(cfg.Database.Redis.DefaultTTL))
		infra.cached = chemistry.NewCachedOracle(infra.oracle, cache, cfg.Chemistry.CacheTTL, logger, metrics)
	}
	return infra, nil
}

func buildJobService(cfg *config.Config, infra *workerInfrastructure, metrics *prometheus.AppMetrics, logger logging.Logger) jobs.Service {
	registry := filter.NewRegistry(infra.cached)
	compiler := filter.NewCompiler(registry, logger)
	evaluator := filter.NewEvaluator(infra.cached, cfg.Evaluation.Concurrency)

	templateSvc := templates.NewService(pgrepo.NewPostgresTemplateRepo(infra.pg, logger),
		compiler, evaluator, infra.cached, logger,
		templates.WithMetrics(metrics),
		templates.WithMaxBatchSize(cfg.Evaluation.MaxBatchSize),
		templates.WithConcurrency(cfg.Evaluation.Concurrency))

	store := minioclient.NewJobPayloadStore(infra.minio, minioclient.NewMinIORepository(infra.minio, logger))
	return jobs.NewService(pgrepo.NewPostgresJobRepo(infra.pg, logger), store, infra.producer, templateSvc,
		jobs.Config{
			TopicPrefix: cfg.Messaging.Kafka.TopicPrefix,
			Source:      "chemtpl-worker",
			MaxQueries:  cfg.Evaluation.MaxBatchSize,
		}, metrics, logger,
		jobs.WithLocks(redisclient.NewLockFactory(infra.redis, logger), jobs.DefaultLeaseTTL))
}

func createTopics(ctx context.Context, kc config.KafkaConfig, logger logging.Logger) error {
	mgr, err := kafka.NewTopicManager(kc.Brokers, logger)
	if err != nil {
		return fmt.Errorf("kafka topic manager: %w", err)
	}
	defer mgr.Close()
	return mgr.EnsureTopics(ctx, kafka.DefaultTopics(kc.TopicPrefix, kc.DeadLetterSuffix, 1))
}

// closeConsumers waits for in-flight messages, bounded by timeout.
func closeConsumers(consumers []*kafka.Consumer, timeout time.Duration, logger logging.Logger) {
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	var wg sync.WaitGroup
	for _, c := range consumers {
		wg.Add(1)
		go func(c *kafka.Consumer) {
			defer wg.Done()
			if err := c.Close(); err != nil {
				logger.Warn("consumer close failed", logging.Err(err))
			}
		}(c)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		logger.Info("all consumers finished")
	case <-time.After(timeout):
		logger.Warn("shutdown timeout exceeded, forcing exit")
	}
}

func startHealthServer(cfg *config.Config, infra *workerInfrastructure, metrics *prometheus.AppMetrics, collector prometheus.MetricsCollector, logger logging.Logger) *http.Server {
	health := handlers.NewHealthHandler(version, metrics,
		handlers.CheckFunc{Component: "postgres", Fn: infra.pg.HealthCheck},
		handlers.CheckFunc{Component: "redis", Fn: infra.redis.HealthCheck},
		handlers.CheckFunc{Component: "minio", Fn: infra.minio.HealthCheck},
		handlers.CheckFunc{Component: "chemistry", Fn: infra.oracle.HealthCheck},
	)

	r := chi.NewRouter()
	r.Get("/healthz", health.Liveness)
	r.Get("/readyz", health.Readiness)
	if collector != nil {
		r.Handle(cfg.Metrics.Path, collector.Handler())
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Worker.HealthPort),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("health server listening", logging.Int("port", cfg.Worker.HealthPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server error", logging.Err(err))
		}
	}()
	return srv
}

//Personal.AI order the ending
