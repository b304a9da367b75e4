package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics stores Prometheus collectors used by the API and background jobs.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	alertDeliveriesTotal *prometheus.CounterVec
	cleanupDeletedTotal  prometheus.Counter
	rateLimitDeniedTotal prometheus.Counter
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "guardpost",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "guardpost",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		alertDeliveriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "guardpost",
				Name:      "alert_deliveries_total",
				Help:      "Total number of emergency alert dispatch attempts by outcome.",
			},
			[]string{"outcome"},
		),
		cleanupDeletedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "guardpost",
				Name:      "cleanup_deleted_total",
				Help:      "Total number of expired history records removed by the retention sweep.",
			},
		),
		rateLimitDeniedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "guardpost",
				Name:      "ratelimit_denied_total",
				Help:      "Total number of requests denied by the rate limiter.",
			},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.alertDeliveriesTotal,
		m.cleanupDeletedTotal,
		m.rateLimitDeniedTotal,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) HTTPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := routePath(c)
		// Avoid self-scrape noise for request counters.
		if path == "/metrics" {
			return err
		}

		status := statusFromResult(c, err)
		if status == fiber.StatusTooManyRequests {
			m.IncRateLimitDenied()
		}
		m.recordHTTPRequest(c.Method(), path, status, time.Since(start))
		return err
	}
}

func (m *Metrics) IncAlertDelivery(outcome string) {
	if m == nil {
		return
	}
	normalized := strings.TrimSpace(strings.ToLower(outcome))
	if normalized == "" {
		normalized = "unknown"
	}
	m.alertDeliveriesTotal.WithLabelValues(normalized).Inc()
}

func (m *Metrics) AddCleanupDeleted(count int64) {
	if m == nil || count <= 0 {
		return
	}
	m.cleanupDeletedTotal.Add(float64(count))
}

func (m *Metrics) IncRateLimitDenied() {
	if m == nil {
		return
	}
	m.rateLimitDeniedTotal.Inc()
}

func (m *Metrics) recordHTTPRequest(method string, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	methodLabel := strings.ToUpper(strings.TrimSpace(method))
	if methodLabel == "" {
		methodLabel = "UNKNOWN"
	}
	pathLabel := strings.TrimSpace(path)
	if pathLabel == "" {
		pathLabel = "unmatched"
	}

	m.httpRequestsTotal.WithLabelValues(methodLabel, pathLabel, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(methodLabel, pathLabel).Observe(duration.Seconds())
}

func routePath(c *fiber.Ctx) string {
	if c == nil {
		return "unmatched"
	}

	if route := c.Route(); route != nil {
		if path := strings.TrimSpace(route.Path); path != "" {
			return path
		}
	}
	return "unmatched"
}

func statusFromResult(c *fiber.Ctx, err error) int {
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}

	if c == nil {
		return fiber.StatusOK
	}

	status := c.Response().StatusCode()
	if status == 0 {
		return fiber.StatusOK
	}
	return status
}
