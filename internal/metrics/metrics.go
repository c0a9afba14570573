package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the service's collectors; it is what GET /metrics exposes.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "krizo",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "krizo",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "krizo",
			Subsystem: "workflow",
			Name:      "transitions_total",
			Help:      "State changes applied to requests, quotes, payments and purchase requests.",
		},
		[]string{"entity", "from", "to"},
	)

	rejectedTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "krizo",
			Subsystem: "workflow",
			Name:      "conflicts_total",
			Help:      "Transitions that lost a race against a concurrent change.",
		},
		[]string{"entity"},
	)

	sweepRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "krizo",
			Subsystem: "sweeper",
			Name:      "runs_total",
			Help:      "Expiry sweeps by outcome.",
		},
		[]string{"success"},
	)

	sweepExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "krizo",
			Subsystem: "sweeper",
			Name:      "expired_requests_total",
			Help:      "Pending requests moved to expired.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		transitions,
		rejectedTransitions,
		sweepRuns,
		sweepExpired,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler exposes the registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records count and latency per matched route.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			httpRequests.WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).Inc()
			httpDuration.WithLabelValues(c.Request().Method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// RecordTransition counts an applied state change. from is "new" on creation.
func RecordTransition(entity, from, to string) {
	if from == "" {
		from = "new"
	}
	transitions.WithLabelValues(entity, from, to).Inc()
}

// RecordConflict counts a conditional update that matched no row.
func RecordConflict(entity string) {
	rejectedTransitions.WithLabelValues(entity).Inc()
}

func RecordSweep(expired int, success bool) {
	sweepRuns.WithLabelValues(strconv.FormatBool(success)).Inc()
	if expired > 0 {
		sweepExpired.Add(float64(expired))
	}
}
