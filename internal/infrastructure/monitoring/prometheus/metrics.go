package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics holds all application metrics.
type AppMetrics struct {
	// HTTP Layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Templates
	TemplateEvaluationsTotal   CounterVec
	TemplateEvaluationDuration HistogramVec
	TemplateFiltersDropped     CounterVec

	// Assembly
	AssemblyRunsTotal CounterVec
	AssemblyProducts  HistogramVec

	// Chemistry oracle
	OracleRequestsTotal   CounterVec
	OracleRequestDuration HistogramVec

	// Jobs
	JobsTotal              CounterVec
	JobDuration            HistogramVec
	MessageProcessDuration HistogramVec

	// Infrastructure
	CacheHitsTotal    CounterVec
	CacheMissesTotal  CounterVec
	HealthCheckStatus GaugeVec
	ErrorsTotal       CounterVec
}

// Default Buckets
var (
	DefaultHTTPDurationBuckets   = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultOracleDurationBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5, 30}
	DefaultJobDurationBuckets    = []float64{.1, .5, 1, 5, 10, 30, 60, 300, 900, 3600}
	DefaultProductCountBuckets   = []float64{0, 1, 10, 100, 1000, 10000, 100000, 1000000}
)

// NewAppMetrics registers all metrics and returns AppMetrics struct.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	// HTTP
	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method")

	// Templates
	m.TemplateEvaluationsTotal = collector.RegisterCounter("template_evaluations_total", "Queries evaluated against a template", "result")
	m.TemplateEvaluationDuration = collector.RegisterHistogram("template_evaluation_duration_seconds", "Batch evaluation duration", DefaultHTTPDurationBuckets, "mode")
	m.TemplateFiltersDropped = collector.RegisterCounter("template_filters_dropped_total", "Filter entries dropped during compilation", "reason")

	// Assembly
	m.AssemblyRunsTotal = collector.RegisterCounter("assembly_runs_total", "Assembly runs", "family", "status")
	m.AssemblyProducts = collector.RegisterHistogram("assembly_products", "Products returned per assembly run", DefaultProductCountBuckets, "family")

	// Oracle
	m.OracleRequestsTotal = collector.RegisterCounter("oracle_requests_total", "Chemistry oracle calls", "operation", "status")
	m.OracleRequestDuration = collector.RegisterHistogram("oracle_request_duration_seconds", "Chemistry oracle call duration", DefaultOracleDurationBuckets, "operation")

	// Jobs
	m.JobsTotal = collector.RegisterCounter("jobs_total", "Evaluation jobs by status transition", "status")
	m.JobDuration = collector.RegisterHistogram("job_duration_seconds", "Evaluation job processing time", DefaultJobDurationBuckets, "status")
	m.MessageProcessDuration = collector.RegisterHistogram("mq_process_duration_seconds", "Message processing duration", DefaultHTTPDurationBuckets, "topic")

	// Infrastructure
	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Cache misses", "cache")
	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Health check status (1=up, 0=down)", "component")
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Total errors", "component", "error_type")

	return m
}

// NewNopAppMetrics returns metrics that record nothing.
func NewNopAppMetrics() *AppMetrics {
	c, h, g := nopVec[Counter](), nopVec[Histogram](), nopVec[Gauge]()
	return &AppMetrics{
		HTTPRequestsTotal:          c,
		HTTPRequestDuration:        h,
		HTTPActiveRequests:         g,
		TemplateEvaluationsTotal:   c,
		TemplateEvaluationDuration: h,
		TemplateFiltersDropped:     c,
		AssemblyRunsTotal:          c,
		AssemblyProducts:           h,
		OracleRequestsTotal:        c,
		OracleRequestDuration:      h,
		JobsTotal:                  c,
		JobDuration:                h,
		MessageProcessDuration:     h,
		CacheHitsTotal:             c,
		CacheMissesTotal:           c,
		HealthCheckStatus:          g,
		ErrorsTotal:                c,
	}
}

// Helpers. All of them accept a nil *AppMetrics.

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func RecordHTTPRequest(metrics *AppMetrics, method, path string, statusCode int, duration time.Duration) {
	if metrics == nil {
		return
	}
	metrics.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func RecordOracleCall(metrics *AppMetrics, operation string, duration time.Duration, err error) {
	if metrics == nil {
		return
	}
	metrics.OracleRequestsTotal.WithLabelValues(operation, status(err)).Inc()
	metrics.OracleRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordEvaluations counts a finished batch: passed and failed are query
// counts, invalid is the number of queries the oracle rejected.
func RecordEvaluations(metrics *AppMetrics, mode string, passed, failed, invalid int, duration time.Duration) {
	if metrics == nil {
		return
	}
	metrics.TemplateEvaluationsTotal.WithLabelValues("pass").Add(float64(passed))
	metrics.TemplateEvaluationsTotal.WithLabelValues("fail").Add(float64(failed))
	metrics.TemplateEvaluationsTotal.WithLabelValues("invalid").Add(float64(invalid))
	metrics.TemplateEvaluationDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

func RecordFilterDropped(metrics *AppMetrics, reason string) {
	if metrics == nil {
		return
	}
	metrics.TemplateFiltersDropped.WithLabelValues(reason).Inc()
}

func RecordAssembly(metrics *AppMetrics, family string, products int, err error) {
	if metrics == nil {
		return
	}
	metrics.AssemblyRunsTotal.WithLabelValues(family, status(err)).Inc()
	if err == nil {
		metrics.AssemblyProducts.WithLabelValues(family).Observe(float64(products))
	}
}

func RecordJob(metrics *AppMetrics, jobStatus string, duration time.Duration) {
	if metrics == nil {
		return
	}
	metrics.JobsTotal.WithLabelValues(jobStatus).Inc()
	if duration > 0 {
		metrics.JobDuration.WithLabelValues(jobStatus).Observe(duration.Seconds())
	}
}

func RecordMessageProcessed(metrics *AppMetrics, topic string, duration time.Duration) {
	if metrics == nil {
		return
	}
	metrics.MessageProcessDuration.WithLabelValues(topic).Observe(duration.Seconds())
}

func RecordCacheAccess(metrics *AppMetrics, cache string, hit bool) {
	if metrics == nil {
		return
	}
	if hit {
		metrics.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		metrics.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}

func RecordHealth(metrics *AppMetrics, component string, up bool) {
	if metrics == nil {
		return
	}
	v := 0.0
	if up {
		v = 1
	}
	metrics.HealthCheckStatus.WithLabelValues(component).Set(v)
}

func RecordError(metrics *AppMetrics, component, errorType string) {
	if metrics == nil {
		return
	}
	metrics.ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

//Personal.AI order the ending
