// Package metrics exposes Prometheus instruments for authentication, gate and item outcomes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result constants for metric labels.
const (
	ResultSuccess            = "success"
	ResultError              = "error"
	ResultInvalidCredentials = "invalid_credentials"
	ResultInvalidInput       = "invalid_input"
	ResultUsernameTaken      = "username_taken"
	ResultNotFound           = "not_found"
)

// Gate decisions.
const (
	DecisionAllowed      = "allowed"
	DecisionMissingToken = "missing_token"
	DecisionInvalidToken = "invalid_token"
	DecisionRoleDenied   = "role_denied"
)

// Metrics groups the service's instruments. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	logins  *prometheus.CounterVec
	signups *prometheus.CounterVec
	gates   *prometheus.CounterVec
	items   *prometheus.CounterVec
}

// New registers all instruments on a fresh registry together with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "itemvault_login_attempts_total",
			Help: "Login attempts by result",
		}, []string{"result"}),
		signups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "itemvault_signups_total",
			Help: "Signup attempts by result",
		}, []string{"result"}),
		gates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "itemvault_gate_decisions_total",
			Help: "Authentication and role gate decisions",
		}, []string{"gate", "decision"}),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "itemvault_item_operations_total",
			Help: "Item operations by kind and result",
		}, []string{"operation", "result"}),
	}
	reg.MustRegister(m.logins, m.signups, m.gates, m.items)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the registry for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

func (m *Metrics) Login(result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
}

func (m *Metrics) Signup(result string) {
	if m == nil {
		return
	}
	m.signups.WithLabelValues(result).Inc()
}

// Gate records a decision of the "auth" or "role" gate.
func (m *Metrics) Gate(gate, decision string) {
	if m == nil {
		return
	}
	m.gates.WithLabelValues(gate, decision).Inc()
}

func (m *Metrics) Item(operation, result string) {
	if m == nil {
		return
	}
	m.items.WithLabelValues(operation, result).Inc()
}
