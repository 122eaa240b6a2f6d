package prometheus

import (
	"bufio"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/TreatIQ-Intelligence/internal/infrastructure/monitoring/logging"
)

func newTestCollector(t *testing.T) MetricsCollector {
	t.Helper()
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "test", Subsystem: "unit"}, logging.NewNopLogger())
	require.NoError(t, err)
	return c
}

func scrapeMetrics(t *testing.T, c MetricsCollector) string {
	t.Helper()
	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

// sampleValue returns the value of the exposition line for series, e.g.
// `test_unit_requests_total{method="GET"}`.
func sampleValue(t *testing.T, output, series string) float64 {
	t.Helper()
	sc := bufio.NewScanner(strings.NewReader(output))
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, series+" ") {
			v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimPrefix(line, series)), 64)
			require.NoError(t, err)
			return v
		}
	}
	t.Fatalf("series %s not found in:\n%s", series, output)
	return 0
}

func TestNewMetricsCollector_EmptyNamespace(t *testing.T) {
	_, err := NewMetricsCollector(CollectorConfig{Subsystem: "unit"}, nil)
	assert.Error(t, err)
}

func TestNewMetricsCollector_WithProcessMetrics(t *testing.T) {
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "test", EnableGoMetrics: true}, nil)
	require.NoError(t, err)
	assert.Contains(t, scrapeMetrics(t, c), "go_goroutines")
}

func TestRegisterCounter_WithLabels(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterCounter("http_requests", "HTTP requests", "method").WithLabelValues("GET").Add(5)

	out := scrapeMetrics(t, c)
	assert.Equal(t, 5.0, sampleValue(t, out, `test_unit_http_requests{method="GET"}`))
}

func TestRegisterCounter_DuplicateSharesSeries(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterCounter("dup_counter", "help").WithLabelValues().Inc()
	c.RegisterCounter("dup_counter", "help").WithLabelValues().Inc()

	assert.Equal(t, 2.0, sampleValue(t, scrapeMetrics(t, c), "test_unit_dup_counter"))
}

func TestRegisterGauge(t *testing.T) {
	c := newTestCollector(t)
	g := c.RegisterGauge("active", "Active").WithLabelValues()
	g.Set(10)
	g.Dec()

	assert.Equal(t, 9.0, sampleValue(t, scrapeMetrics(t, c), "test_unit_active"))
}

func TestRegisterHistogram_DefaultBuckets(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterHistogram("latency", "Latency", nil).WithLabelValues().Observe(0.1)

	out := scrapeMetrics(t, c)
	assert.Equal(t, 1.0, sampleValue(t, out, "test_unit_latency_count"))
	assert.Contains(t, out, `test_unit_latency_bucket{le="0.1"} 1`)
}

func TestTimer_ObservesDuration(t *testing.T) {
	c := newTestCollector(t)
	timer := NewTimer(c.RegisterHistogram("timer", "Timer", nil).WithLabelValues())
	time.Sleep(5 * time.Millisecond)
	assert.GreaterOrEqual(t, timer.ObserveDuration(), 5*time.Millisecond)

	assert.Equal(t, 1.0, sampleValue(t, scrapeMetrics(t, c), "test_unit_timer_count"))
	assert.NotPanics(t, func() { NewTimer(nil).ObserveDuration() })
}

func TestConcurrentRegistration(t *testing.T) {
	c := newTestCollector(t)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RegisterCounter("concurrent", "help", "id").WithLabelValues("1").Inc()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50.0, sampleValue(t, scrapeMetrics(t, c), `test_unit_concurrent{id="1"}`))
}

func TestTypeConflictReturnsNoop(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterCounter("conflict", "help").WithLabelValues().Inc()

	assert.NotPanics(t, func() { c.RegisterGauge("conflict", "help").WithLabelValues().Set(10) })
	assert.NotPanics(t, func() { c.RegisterHistogram("conflict", "help", nil).WithLabelValues().Observe(1) })

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, "# TYPE test_unit_conflict counter")

	n, err := testutil.GatherAndCount(c.Gatherer(), "test_unit_conflict")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

//Personal.AI order the ending
