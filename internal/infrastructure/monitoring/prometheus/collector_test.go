package prometheus

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/chemtemplates/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemtemplates/pkg/errors"
)

func newTestCollector(t *testing.T) MetricsCollector {
	t.Helper()
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "chemtpl"}, logging.NewNopLogger())
	require.NoError(t, err)
	return c
}

func scrapeMetrics(t *testing.T, collector MetricsCollector) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	collector.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestNewMetricsCollector_EmptyNamespace(t *testing.T) {
	_, err := NewMetricsCollector(CollectorConfig{}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBadRequest))
}

func TestNewMetricsCollector_WithProcessMetrics(t *testing.T) {
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "chemtpl", EnableProcessMetrics: true}, nil)
	require.NoError(t, err)
	assert.Contains(t, scrapeMetrics(t, c), "process_cpu_seconds_total")
}

func TestRegisterCounter_WithLabels(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterCounter("oracle_calls", "Oracle calls", "operation").WithLabelValues("validate").Add(5)

	assert.Contains(t, scrapeMetrics(t, c), `chemtpl_oracle_calls{operation="validate"} 5`)
}

func TestRegisterGauge_IncDec(t *testing.T) {
	c := newTestCollector(t)
	g := c.RegisterGauge("active", "Active requests", "method")
	g.WithLabelValues("POST").Inc()
	g.WithLabelValues("POST").Inc()
	g.WithLabelValues("POST").Dec()

	assert.Contains(t, scrapeMetrics(t, c), `chemtpl_active{method="POST"} 1`)
}

func TestRegisterHistogram_Buckets(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterHistogram("products", "Products", DefaultProductCountBuckets, "family").WithLabelValues("synthon").Observe(5)

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, `chemtpl_products_bucket{family="synthon",le="10"} 1`)
	assert.Contains(t, out, `chemtpl_products_count{family="synthon"} 1`)
}

// Building AppMetrics twice on one collector must not drop series.
func TestNewAppMetrics_TwiceSharesSeries(t *testing.T) {
	c := newTestCollector(t)
	RecordJob(NewAppMetrics(c), "pending", 0)
	RecordJob(NewAppMetrics(c), "pending", 0)

	assert.Contains(t, scrapeMetrics(t, c), `chemtpl_jobs_total{status="pending"} 2`)
}

func TestConcurrentRegistration(t *testing.T) {
	c := newTestCollector(t)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RegisterCounter("concurrent_metric", "help", "id").WithLabelValues("1").Inc()
		}()
	}
	wg.Wait()

	assert.Contains(t, scrapeMetrics(t, c), `chemtpl_concurrent_metric{id="1"} 50`)
}

func TestTypeConflictFallsBackToNop(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterCounter("conflict", "help").WithLabelValues().Inc()

	assert.NotPanics(t, func() {
		c.RegisterGauge("conflict", "help").WithLabelValues().Set(10)
		c.RegisterHistogram("conflict", "help", nil).WithLabelValues().Observe(1)
	})
	assert.Contains(t, scrapeMetrics(t, c), "# TYPE chemtpl_conflict counter")
}

//Personal.AI order the ending
