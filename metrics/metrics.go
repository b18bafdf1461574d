// Package metrics exposes Prometheus counters for engine operations. The
// Collector implements identity.MetricsRecorder.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records engine counters on a dedicated registry.
type Collector struct {
	registry *prometheus.Registry

	logins        *prometheus.CounterVec
	registrations *prometheus.CounterVec
	refreshes     *prometheus.CounterVec
	revocations   prometheus.Counter
	resets        *prometheus.CounterVec
}

// NewCollector builds a Collector with its own registry so tests can run
// several side by side.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "identity",
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"success"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "identity",
			Name:      "registrations_total",
			Help:      "Registration attempts by outcome.",
		}, []string{"success"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "identity",
			Name:      "token_refreshes_total",
			Help:      "Access token reissues by outcome.",
		}, []string{"success"}),
		revocations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "identity",
			Name:      "sessions_revoked_total",
			Help:      "Sessions revoked by logout, password change and reset.",
		}),
		resets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "identity",
			Name:      "password_resets_total",
			Help:      "Password reset operations by stage.",
		}, []string{"stage"}),
	}

	c.registry.MustRegister(c.logins, c.registrations, c.refreshes, c.revocations, c.resets)
	return c
}

func (c *Collector) RecordLogin(success bool) {
	c.logins.WithLabelValues(strconv.FormatBool(success)).Inc()
}

func (c *Collector) RecordRegistration(success bool) {
	c.registrations.WithLabelValues(strconv.FormatBool(success)).Inc()
}

func (c *Collector) RecordRefresh(success bool) {
	c.refreshes.WithLabelValues(strconv.FormatBool(success)).Inc()
}

func (c *Collector) RecordRevocation(sessions int) {
	c.revocations.Add(float64(sessions))
}

func (c *Collector) RecordPasswordReset(stage string) {
	c.resets.WithLabelValues(stage).Inc()
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
