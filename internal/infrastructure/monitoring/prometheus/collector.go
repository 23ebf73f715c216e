package prometheus

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/turtacn/chemtemplates/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemtemplates/pkg/errors"
)

// MetricsCollector registers the vectors AppMetrics is built from and
// serves them on /metrics.
type MetricsCollector interface {
	RegisterCounter(name, help string, labels ...string) CounterVec
	RegisterGauge(name, help string, labels ...string) GaugeVec
	RegisterHistogram(name, help string, buckets []float64, labels ...string) HistogramVec
	Handler() http.Handler
}

type Counter interface {
	Inc()
	Add(delta float64)
}

type Gauge interface {
	Set(value float64)
	Inc()
	Dec()
}

type Histogram interface {
	Observe(value float64)
}

type CounterVec interface {
	WithLabelValues(lvs ...string) Counter
}

type GaugeVec interface {
	WithLabelValues(lvs ...string) Gauge
}

type HistogramVec interface {
	WithLabelValues(lvs ...string) Histogram
}

// CollectorConfig holds configuration for the collector.
type CollectorConfig struct {
	Namespace            string
	EnableProcessMetrics bool
	EnableGoMetrics      bool
}

type prometheusCollector struct {
	registry  *prometheus.Registry
	namespace string
	logger    logging.Logger

	mu         sync.Mutex
	registered map[string]prometheus.Collector
}

// NewMetricsCollector creates a collector backed by its own registry.
func NewMetricsCollector(cfg CollectorConfig, logger logging.Logger) (MetricsCollector, error) {
	if cfg.Namespace == "" {
		return nil, errors.InvalidParam("metrics namespace is required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	registry := prometheus.NewRegistry()
	if cfg.EnableProcessMetrics {
		registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{Namespace: cfg.Namespace}))
	}
	if cfg.EnableGoMetrics {
		registry.MustRegister(prometheus.NewGoCollector())
	}

	return &prometheusCollector{
		registry:   registry,
		namespace:  cfg.Namespace,
		logger:     logger,
		registered: make(map[string]prometheus.Collector),
	}, nil
}

func (c *prometheusCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// register returns the vector already registered under name, if any, so two
// AppMetrics built on one collector share their series.
func (c *prometheusCollector) register(name string, vec prometheus.Collector) (prometheus.Collector, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.registered[name]; ok {
		return existing, nil
	}
	if err := c.registry.Register(vec); err != nil {
		return nil, err
	}
	c.registered[name] = vec
	return vec, nil
}

func (c *prometheusCollector) RegisterCounter(name, help string, labels ...string) CounterVec {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: c.namespace, Name: name, Help: help}, labels)
	got, err := c.register(name, vec)
	if v, ok := got.(*prometheus.CounterVec); ok && err == nil {
		return labeled[Counter](func(lvs ...string) Counter { return v.WithLabelValues(lvs...) })
	}
	c.logger.Error("failed to register counter", logging.String("name", name), logging.Error(err))
	return nopVec[Counter]()
}

func (c *prometheusCollector) RegisterGauge(name, help string, labels ...string) GaugeVec {
	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: c.namespace, Name: name, Help: help}, labels)
	got, err := c.register(name, vec)
	if v, ok := got.(*prometheus.GaugeVec); ok && err == nil {
		return labeled[Gauge](func(lvs ...string) Gauge { return v.WithLabelValues(lvs...) })
	}
	c.logger.Error("failed to register gauge", logging.String("name", name), logging.Error(err))
	return nopVec[Gauge]()
}

func (c *prometheusCollector) RegisterHistogram(name, help string, buckets []float64, labels ...string) HistogramVec {
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: c.namespace, Name: name, Help: help, Buckets: buckets}, labels)
	got, err := c.register(name, vec)
	if v, ok := got.(*prometheus.HistogramVec); ok && err == nil {
		return labeled[Histogram](func(lvs ...string) Histogram { return v.WithLabelValues(lvs...) })
	}
	c.logger.Error("failed to register histogram", logging.String("name", name), logging.Error(err))
	return nopVec[Histogram]()
}

// labeled adapts a client_golang vector to CounterVec, GaugeVec or HistogramVec.
type labeled[T any] func(lvs ...string) T

func (l labeled[T]) WithLabelValues(lvs ...string) T { return l(lvs...) }

type nopMetric struct{}

func (nopMetric) Inc()            {}
func (nopMetric) Dec()            {}
func (nopMetric) Add(float64)     {}
func (nopMetric) Set(float64)     {}
func (nopMetric) Observe(float64) {}

func nopVec[T any]() labeled[T] {
	return func(...string) T {
		var m any = nopMetric{}
		return m.(T)
	}
}

//Personal.AI order the ending
