// Package metrics exposes Prometheus instrumentation for the HTTP surface,
// the schedule engine call sites and the reminder batch job.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles every collector on one private registry, so tests can
// construct isolated instances without global registration conflicts.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	ScheduleComputations prometheus.Counter
	RemindersSent        prometheus.Counter
	RemindersSuppressed  prometheus.Counter
	ReminderRunErrors    prometheus.Counter
}

// New creates a Metrics instance with all collectors registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		ScheduleComputations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "schedule_computations_total",
			Help: "Total number of vaccination schedule computations",
		}),
		RemindersSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reminders_sent_total",
			Help: "Total number of reminder emails dispatched",
		}),
		RemindersSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reminders_suppressed_total",
			Help: "Total number of reminder candidates suppressed by the dedup log",
		}),
		ReminderRunErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reminder_run_errors_total",
			Help: "Total number of per-subject failures during reminder batch runs",
		}),
	}

	reg.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.ScheduleComputations,
		m.RemindersSent,
		m.RemindersSuppressed,
		m.ReminderRunErrors,
	)
	return m
}

// Handler serves the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency per route. The echo route
// pattern (e.g. /api/v1/dogs/:id) is used as the path label to keep
// cardinality bounded.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}
			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}

			m.httpRequestsTotal.WithLabelValues(c.Request().Method, path, strconv.Itoa(status)).Inc()
			m.httpRequestDuration.WithLabelValues(c.Request().Method, path).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
