package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// AuthMetrics holds Prometheus metrics for the request guard chain.
type AuthMetrics struct {
	// AuthnFailuresTotal counts authentication failures by kind.
	AuthnFailuresTotal *prometheus.CounterVec
	// AuthzDenialsTotal counts authorization denials.
	AuthzDenialsTotal prometheus.Counter
	// RecoveredPanicsTotal counts faults converted by the fault boundary.
	RecoveredPanicsTotal prometheus.Counter
	// SessionLookupsTotal counts session-liveness lookups by result.
	SessionLookupsTotal *prometheus.CounterVec
}

// NewAuthMetrics creates and registers guard-chain metrics.
func NewAuthMetrics(registry prometheus.Registerer) *AuthMetrics {
	m := &AuthMetrics{
		AuthnFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatehouse_authn_failures_total",
				Help: "Total number of authentication failures by kind",
			},
			[]string{"kind"},
		),
		AuthzDenialsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gatehouse_authz_denials_total",
				Help: "Total number of authorization denials",
			},
		),
		RecoveredPanicsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gatehouse_recovered_panics_total",
				Help: "Total number of handler faults converted to fallback responses",
			},
		),
		SessionLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatehouse_session_lookups_total",
				Help: "Total number of session-liveness lookups by result",
			},
			[]string{"result"},
		),
	}

	if registry != nil {
		registry.MustRegister(
			m.AuthnFailuresTotal,
			m.AuthzDenialsTotal,
			m.RecoveredPanicsTotal,
			m.SessionLookupsTotal,
		)
	}
	return m
}
