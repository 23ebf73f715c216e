package prometheus

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAppMetrics(t *testing.T) (*AppMetrics, MetricsCollector) {
	t.Helper()
	c := newTestCollector(t)
	return NewAppMetrics(c), c
}

func TestNewAppMetrics_AllMetricsRegistered(t *testing.T) {
	m, _ := newTestAppMetrics(t)
	require.NotNil(t, m)
	assert.NotNil(t, m.HTTPRequestsTotal)
	assert.NotNil(t, m.TemplateEvaluationsTotal)
	assert.NotNil(t, m.TemplateFiltersDropped)
	assert.NotNil(t, m.AssemblyRunsTotal)
	assert.NotNil(t, m.OracleRequestsTotal)
	assert.NotNil(t, m.JobsTotal)
	assert.NotNil(t, m.CacheHitsTotal)
}

func TestRecordHTTPRequest(t *testing.T) {
	m, c := newTestAppMetrics(t)
	RecordHTTPRequest(m, "POST", "/api/v1/templates/evaluate", 200, 100*time.Millisecond)

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, `chemtpl_http_requests_total{method="POST",path="/api/v1/templates/evaluate",status_code="200"} 1`)
	assert.Contains(t, out, `chemtpl_http_request_duration_seconds_count{method="POST",path="/api/v1/templates/evaluate"} 1`)
}

func TestRecordOracleCall(t *testing.T) {
	m, c := newTestAppMetrics(t)
	RecordOracleCall(m, "validate", time.Millisecond, nil)
	RecordOracleCall(m, "validate", time.Millisecond, errors.New("boom"))

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, `chemtpl_oracle_requests_total{operation="validate",status="success"} 1`)
	assert.Contains(t, out, `chemtpl_oracle_requests_total{operation="validate",status="error"} 1`)
	assert.Contains(t, out, `chemtpl_oracle_request_duration_seconds_count{operation="validate"} 2`)
}

func TestRecordEvaluations(t *testing.T) {
	m, c := newTestAppMetrics(t)
	RecordEvaluations(m, "trace", 3, 2, 1, time.Second)

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, `chemtpl_template_evaluations_total{result="pass"} 3`)
	assert.Contains(t, out, `chemtpl_template_evaluations_total{result="fail"} 2`)
	assert.Contains(t, out, `chemtpl_template_evaluations_total{result="invalid"} 1`)
	assert.Contains(t, out, `chemtpl_template_evaluation_duration_seconds_count{mode="trace"} 1`)
}

func TestRecordFilterDropped(t *testing.T) {
	m, c := newTestAppMetrics(t)
	RecordFilterDropped(m, "vacuous_range")
	RecordFilterDropped(m, "vacuous_range")

	assert.Contains(t, scrapeMetrics(t, c), `chemtpl_template_filters_dropped_total{reason="vacuous_range"} 2`)
}

func TestRecordAssembly(t *testing.T) {
	m, c := newTestAppMetrics(t)
	RecordAssembly(m, "synthon", 12, nil)
	RecordAssembly(m, "fragment", 0, errors.New("malformed"))

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, `chemtpl_assembly_runs_total{family="synthon",status="success"} 1`)
	assert.Contains(t, out, `chemtpl_assembly_runs_total{family="fragment",status="error"} 1`)
	assert.Contains(t, out, `chemtpl_assembly_products_sum{family="synthon"} 12`)
	assert.NotContains(t, out, `chemtpl_assembly_products_count{family="fragment"}`)
}

func TestRecordJob(t *testing.T) {
	m, c := newTestAppMetrics(t)
	RecordJob(m, "pending", 0)
	RecordJob(m, "succeeded", 2*time.Second)

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, `chemtpl_jobs_total{status="pending"} 1`)
	assert.Contains(t, out, `chemtpl_jobs_total{status="succeeded"} 1`)
	assert.Contains(t, out, `chemtpl_job_duration_seconds_count{status="succeeded"} 1`)
	assert.NotContains(t, out, `chemtpl_job_duration_seconds_count{status="pending"}`)
}

func TestRecordCacheAccess(t *testing.T) {
	m, c := newTestAppMetrics(t)
	RecordCacheAccess(m, "oracle", true)
	RecordCacheAccess(m, "oracle", false)

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, `chemtpl_cache_hits_total{cache="oracle"} 1`)
	assert.Contains(t, out, `chemtpl_cache_misses_total{cache="oracle"} 1`)
}

func TestRecordHealthAndError(t *testing.T) {
	m, c := newTestAppMetrics(t)
	RecordHealth(m, "postgres", true)
	RecordHealth(m, "redis", false)
	RecordError(m, "worker", "decode")

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, `chemtpl_health_check_status{component="postgres"} 1`)
	assert.Contains(t, out, `chemtpl_health_check_status{component="redis"} 0`)
	assert.Contains(t, out, `chemtpl_errors_total{component="worker",error_type="decode"} 1`)
}

func TestHelpers_NilMetrics(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordHTTPRequest(nil, "GET", "/", 200, time.Millisecond)
		RecordOracleCall(nil, "validate", time.Millisecond, nil)
		RecordEvaluations(nil, "fast", 1, 1, 1, time.Millisecond)
		RecordFilterDropped(nil, "x")
		RecordAssembly(nil, "synthon", 1, nil)
		RecordJob(nil, "failed", time.Second)
		RecordMessageProcessed(nil, "t", time.Second)
		RecordCacheAccess(nil, "oracle", true)
		RecordHealth(nil, "redis", true)
		RecordError(nil, "x", "y")
	})
}

func TestNopAppMetrics(t *testing.T) {
	m := NewNopAppMetrics()
	assert.NotPanics(t, func() {
		RecordHTTPRequest(m, "GET", "/", 200, time.Millisecond)
		RecordAssembly(m, "fragment", 3, nil)
		RecordHealth(m, "redis", true)
	})
}

func TestConcurrentMetricRecording(t *testing.T) {
	m, c := newTestAppMetrics(t)

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				RecordOracleCall(m, "property", time.Millisecond, nil)
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	assert.Contains(t, scrapeMetrics(t, c), `chemtpl_oracle_requests_total{operation="property",status="success"} 1000`)
}

//Personal.AI order the ending
