// Package metrics exposes relay counters and gauges in Prometheus format.
// A Metrics value satisfies both feed.Observer and tracking.Observer, so the
// feed client and the session manager report into it directly.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the relay.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec

	sessionsActive   prometheus.Gauge
	websocketClients prometheus.Gauge
	sseClients       prometheus.Gauge

	sessionsStarted prometheus.Counter
	setupErrors     prometheus.Counter
	feedEvents      prometheus.Counter
	feedParseErrors prometheus.Counter
	feedReconnects  prometheus.Counter
	lapsPublished   prometheus.Counter
	driversNotFound prometheus.Counter
}

// New creates and registers the relay metrics on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "laprelay_http_requests_total",
			Help: "HTTP requests served, by status code and method",
		}, []string{"code", "method"}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "laprelay_sessions_active",
			Help: "Tracking sessions currently registered",
		}),
		websocketClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "laprelay_websocket_clients",
			Help: "Connected WebSocket viewers",
		}),
		sseClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "laprelay_sse_clients",
			Help: "Connected SSE viewers",
		}),
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "laprelay_sessions_started_total",
			Help: "Tracking sessions that reached the active state",
		}),
		setupErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "laprelay_setup_errors_total",
			Help: "Tracking sessions whose feed subscription failed to open",
		}),
		feedEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "laprelay_feed_events_total",
			Help: "Feed messages received across all subscriptions",
		}),
		feedParseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "laprelay_feed_parse_errors_total",
			Help: "Feed messages dropped because they were not a JSON object",
		}),
		feedReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "laprelay_feed_reconnects_total",
			Help: "Feed stream reconnections after a dropped connection",
		}),
		lapsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "laprelay_laps_published_total",
			Help: "lapData signals published to driver groups",
		}),
		driversNotFound: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "laprelay_driver_not_found_total",
			Help: "driverNotFound signals published to driver groups",
		}),
	}

	m.registry.MustRegister(
		m.httpRequests,
		m.sessionsActive,
		m.websocketClients,
		m.sseClients,
		m.sessionsStarted,
		m.setupErrors,
		m.feedEvents,
		m.feedParseErrors,
		m.feedReconnects,
		m.lapsPublished,
		m.driversNotFound,
	)

	return m
}

// EventReceived counts one feed message.
func (m *Metrics) EventReceived() { m.feedEvents.Inc() }

// ParseFailed counts one undecodable feed message.
func (m *Metrics) ParseFailed() { m.feedParseErrors.Inc() }

// Reconnected counts one feed reconnection.
func (m *Metrics) Reconnected() { m.feedReconnects.Inc() }

// SessionStarted counts one session that became active.
func (m *Metrics) SessionStarted() { m.sessionsStarted.Inc() }

// SetupFailed counts one session whose subscription failed.
func (m *Metrics) SetupFailed() { m.setupErrors.Inc() }

// IncLapsPublished counts one lapData signal.
func (m *Metrics) IncLapsPublished() { m.lapsPublished.Inc() }

// IncDriverNotFound counts one driverNotFound signal.
func (m *Metrics) IncDriverNotFound() { m.driversNotFound.Inc() }

// SetActiveSessions sets the active sessions gauge.
func (m *Metrics) SetActiveSessions(n int) { m.sessionsActive.Set(float64(n)) }

// SetWebSocketClients sets the WebSocket viewers gauge.
func (m *Metrics) SetWebSocketClients(n int) { m.websocketClients.Set(float64(n)) }

// SetSSEClients sets the SSE viewers gauge.
func (m *Metrics) SetSSEClients(n int) { m.sseClients.Set(float64(n)) }

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	inner := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		inner.ServeHTTP(w, r)
	})
}

// RequestMiddleware counts requests by status code and method. The
// promhttp delegator keeps Flusher and Hijacker available to SSE and
// WebSocket handlers.
func RequestMiddleware(m *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return promhttp.InstrumentHandlerCounter(m.httpRequests, next)
	}
}
