package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T, service string) (*gin.Engine, *prometheus.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	r := gin.New()
	r.Use(NewRequestLogger(nil).Handler())
	r.Use(NewPrometheusMiddleware(service, reg).Handler())
	return r, reg
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func family(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func TestPrometheusMiddleware(t *testing.T) {
	r, reg := newRouter(t, "test")
	r.GET("/ok", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	for _, code := range []int{400, 404, 500} {
		code := code
		r.GET("/fail/"+strconv.Itoa(code), func(c *gin.Context) { c.JSON(code, gin.H{}) })
	}

	assert.Equal(t, 200, get(r, "/ok").Code)
	assert.Equal(t, 200, get(r, "/ok").Code)
	get(r, "/fail/400")
	get(r, "/fail/404")
	get(r, "/fail/500")
	assert.Equal(t, 404, get(r, "/nowhere").Code)

	t.Run("Длительность по маршрутам", func(t *testing.T) {
		mf := family(t, reg, "test_http_request_duration_seconds")
		require.NotNil(t, mf)
		assert.Equal(t, "Длительность HTTP-запросов.", mf.GetHelp())
		var total uint64
		for _, m := range mf.GetMetric() {
			total += m.GetHistogram().GetSampleCount()
		}
		assert.Equal(t, uint64(6), total)
	})

	t.Run("Ошибки 4xx и 5xx", func(t *testing.T) {
		mf := family(t, reg, "test_http_request_errors_total")
		require.NotNil(t, mf)
		var total float64
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		assert.Equal(t, 4.0, total, "три ошибки маршрутов и один неизвестный путь")
	})
}

func TestPrometheusMiddlewareInflight(t *testing.T) {
	r, reg := newRouter(t, "slow")
	release := make(chan struct{})
	entered := make(chan struct{})
	r.GET("/slow", func(c *gin.Context) {
		close(entered)
		<-release
		c.Status(http.StatusNoContent)
	})

	done := make(chan struct{})
	go func() {
		get(r, "/slow")
		close(done)
	}()

	<-entered
	mf := family(t, reg, "slow_http_requests_inflight")
	require.NotNil(t, mf)
	assert.Equal(t, 1.0, mf.GetMetric()[0].GetGauge().GetValue())

	close(release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("запрос не завершился")
	}
	mf = family(t, reg, "slow_http_requests_inflight")
	assert.Equal(t, 0.0, mf.GetMetric()[0].GetGauge().GetValue())
}

func TestRequestLoggerTraceID(t *testing.T) {
	r, _ := newRouter(t, "trace")

	var captured string
	r.GET("/test", func(c *gin.Context) {
		v, ok := c.Get(TraceIDKey)
		require.True(t, ok, "trace_id должен быть в контексте")
		captured = v.(string)
		c.JSON(http.StatusOK, gin.H{"trace_id": captured})
	})

	w := get(r, "/test")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, captured)
	assert.Equal(t, captured, w.Header().Get(TraceIDHeader))
	assert.Contains(t, w.Body.String(), captured)

	other := get(r, "/test")
	assert.NotEqual(t, captured, other.Header().Get(TraceIDHeader), "у каждого запроса свой trace_id")
}

func TestPrometheusMiddlewareSkip(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	r := gin.New()
	r.Use(NewPrometheusMiddleware("skip", reg, "/health").Handler())
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/work", func(c *gin.Context) { c.Status(http.StatusOK) })

	get(r, "/health")
	get(r, "/health")
	get(r, "/work")

	mf := family(t, reg, "skip_http_request_duration_seconds")
	require.NotNil(t, mf)
	require.Len(t, mf.GetMetric(), 1, "пропущенный путь не попадает в метрики")
	assert.Equal(t, uint64(1), mf.GetMetric()[0].GetHistogram().GetSampleCount())
}

func TestMetricsEndpoint(t *testing.T) {
	r, reg := newRouter(t, "endpoint")
	RegisterMetricsEndpoint(r, reg)
	r.GET("/api/test", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	get(r, "/api/test")
	w := get(r, "/metrics")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, w.Body.String(), "# HELP endpoint_http_request_duration_seconds")
}

func BenchmarkMiddleware(b *testing.B) {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(NewPrometheusMiddleware("bench", prometheus.NewRegistry()).Handler())
	r.GET("/bench", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			get(r, "/bench")
		}
	})
}
