// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector gathers the platform's operational metrics.
type Collector struct {
	httpRequests      *prometheus.CounterVec
	httpLatency       prometheus.Histogram
	logins            prometheus.Counter
	loginFailures     prometheus.Counter
	registrations     prometheus.Counter
	invitationsIssued prometheus.Counter
	selections        *prometheus.CounterVec
	consentEvents     *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with the given
// registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alumnihub_http_requests_total",
			Help: "HTTP requests by method and status code",
		}, []string{"method", "status_code"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "alumnihub_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		logins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alumnihub_logins_total",
			Help: "Successful logins",
		}),
		loginFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alumnihub_login_failures_total",
			Help: "Failed login attempts",
		}),
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alumnihub_registrations_total",
			Help: "Completed registrations",
		}),
		invitationsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alumnihub_invitations_issued_total",
			Help: "Invitations issued",
		}),
		selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alumnihub_profile_selections_total",
			Help: "Profile selection attempts by outcome",
		}, []string{"outcome"}),
		consentEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alumnihub_consent_events_total",
			Help: "Parental consent events by action",
		}, []string{"action"}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.logins,
		c.loginFailures,
		c.registrations,
		c.invitationsIssued,
		c.selections,
		c.consentEvents,
	)

	return c
}

// RecordHTTPRequest records one served request
func (c *Collector) RecordHTTPRequest(method string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	c.httpLatency.Observe(duration.Seconds())
}

// RecordLogin records a login attempt
func (c *Collector) RecordLogin(success bool) {
	if success {
		c.logins.Inc()
	} else {
		c.loginFailures.Inc()
	}
}

// RecordRegistration records a completed registration
func (c *Collector) RecordRegistration() {
	c.registrations.Inc()
}

// RecordInvitationIssued records an issued invitation
func (c *Collector) RecordInvitationIssued() {
	c.invitationsIssued.Inc()
}

// RecordSelection records a profile selection attempt by its outcome
func (c *Collector) RecordSelection(outcome string) {
	c.selections.WithLabelValues(outcome).Inc()
}

// RecordConsentEvent records a consent grant or revocation
func (c *Collector) RecordConsentEvent(action string) {
	c.consentEvents.WithLabelValues(action).Inc()
}

// Middleware instruments an http.Handler with request count and latency
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		c.RecordHTTPRequest(r.Method, sw.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Handler returns the HTTP handler for Prometheus scrapes
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
