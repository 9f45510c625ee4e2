package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/anyroot/anyroot/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	requestsTotal     *prometheus.CounterVec
	linkRewritesTotal *prometheus.CounterVec
	ratelimitTotal    *prometheus.CounterVec
	sessionsStarted   prometheus.Counter
	requestDuration   *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "anyroot_requests_total", Help: "Total requests"},
			[]string{"mount", "code"},
		),
		linkRewritesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "anyroot_link_rewrites_total", Help: "Total links rewritten"},
			[]string{"mount"},
		),
		ratelimitTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "anyroot_ratelimit_hits_total", Help: "Total rate limited requests"},
			[]string{"mount"},
		),
		sessionsStarted: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "anyroot_sessions_started_total", Help: "Total sessions issued"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "anyroot_request_duration_seconds",
				Help:    "Request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"mount"},
		),
	}

	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.requestsTotal,
		m.linkRewritesTotal,
		m.ratelimitTotal,
		m.sessionsStarted,
		m.requestDuration,
	)

	return m
}

func (m *Metrics) Handler(reg *prometheus.Registry) http.Handler {
	if reg == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func (m *Metrics) Observe(entry logging.Access, rateLimited bool) {
	if m == nil {
		return
	}

	m.requestsTotal.WithLabelValues(entry.Mount, strconv.Itoa(entry.StatusCode)).Inc()
	m.requestDuration.WithLabelValues(entry.Mount).Observe(time.Duration(entry.DurationMS * int64(time.Millisecond)).Seconds())

	if entry.Rewrites > 0 {
		m.linkRewritesTotal.WithLabelValues(entry.Mount).Add(float64(entry.Rewrites))
	}
	if rateLimited {
		m.ratelimitTotal.WithLabelValues(entry.Mount).Inc()
	}
}

func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.sessionsStarted.Inc()
}
