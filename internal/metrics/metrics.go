// Package metrics exposes Prometheus counters for catalog mutations, change
// events, media cleanup failures and HTTP traffic.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"storefront/internal/catalog"
	"storefront/internal/docstore"
	"storefront/internal/events"
	"storefront/internal/media"
)

const namespace = "storefront"

// Metrics holds every collector on its own registry.
type Metrics struct {
	Registry *prometheus.Registry

	// Catalog metrics
	Mutations       *prometheus.CounterVec
	Events          *prometheus.CounterVec
	CleanupFailures prometheus.Counter

	// HTTP metrics
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		Mutations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_mutations_total",
			Help:      "Catalog mutations by operation and result.",
		}, []string{"op", "result"}),
		Events: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_events_total",
			Help:      "Change events published on the bus.",
		}, []string{"kind"}),
		CleanupFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "media_cleanup_failures_total",
			Help:      "Media objects that could not be deleted.",
		}),
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Handle counts bus events. It satisfies events.Listener.
func (m *Metrics) Handle(ev events.Event) {
	m.Events.WithLabelValues(string(ev.Kind())).Inc()
}

func (m *Metrics) CleanupFailed(media.CleanupWarning) {
	m.CleanupFailures.Inc()
}

// Mutation records the result of a catalog write.
func (m *Metrics) Mutation(op string, err error) {
	m.Mutations.WithLabelValues(op, Result(err)).Inc()
}

// Result maps an error to a low-cardinality label.
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, catalog.ErrNotFound):
		return "not_found"
	case errors.Is(err, catalog.ErrInvalidItem):
		return "invalid"
	case errors.Is(err, catalog.ErrUpload):
		return "upload_failed"
	case docstore.IsStoreError(err):
		return "store_error"
	default:
		return "error"
	}
}

// Middleware records request counts and latency per matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.Requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
