package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_http_requests_total",
			Help: "Total number of HTTP requests processed.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pulse_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	wsActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pulse_ws_active_connections",
			Help: "Number of bound websocket connections.",
		},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_ws_events_total",
			Help: "Websocket events by direction and name.",
		},
		[]string{"direction", "event"},
	)
	presenceLookupFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pulse_presence_lookup_failures_total",
			Help: "Friend list lookups that failed during presence fanout.",
		},
	)
	callsStartedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pulse_calls_started_total",
			Help: "Call offers forwarded to a callee.",
		},
	)
	callsEndedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_calls_ended_total",
			Help: "Call sessions cleared, by reason.",
		},
		[]string{"reason"},
	)
	callSessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pulse_call_sessions_active",
			Help: "Call sessions currently ringing, connecting or connected.",
		},
	)
	eventPublishErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_event_publish_errors_total",
			Help: "Domain events that could not be published.",
		},
		[]string{"driver"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		wsActiveConnections,
		wsEventsTotal,
		presenceLookupFailures,
		callsStartedTotal,
		callsEndedTotal,
		callSessionsActive,
		eventPublishErrors,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// Handler 暴露默认 registry，挂在 GET /metrics
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

func IncWSActive() { wsActiveConnections.Inc() }

func DecWSActive() { wsActiveConnections.Dec() }

// IncWSEvent websocket 事件计数，direction 为 in 或 out
func IncWSEvent(direction, event string) {
	wsEventsTotal.WithLabelValues(direction, event).Inc()
}

func IncPresenceLookupFailure() { presenceLookupFailures.Inc() }

func IncCallStarted() {
	callsStartedTotal.Inc()
	callSessionsActive.Inc()
}

func IncCallEnded(reason string) {
	callsEndedTotal.WithLabelValues(reason).Inc()
	callSessionsActive.Dec()
}

func IncPublishError(driver string) {
	eventPublishErrors.WithLabelValues(driver).Inc()
}
