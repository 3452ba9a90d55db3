package pop3sf

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus instrumentation the engine updates at the
// same call sites its logger instruments. Metrics transport (whether/how a
// registry is served) is outside the engine's concern, same as logging
// transport (§1); callers decide whether and how to expose the registry.
type Metrics struct {
	ActiveSessions          prometheus.Gauge
	CommandsTotal           *prometheus.CounterVec
	AuthFailuresTotal       prometheus.Counter
	AuthSuccessesTotal      prometheus.Counter
	LockContentionsTotal    prometheus.Counter
	OverloadRejectionsTotal prometheus.Counter
}

// NewMetrics constructs and registers the engine's metrics against reg. Pass
// a dedicated prometheus.NewRegistry() or prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pop3sf",
			Name:      "active_sessions",
			Help:      "Number of currently active POP3 sessions.",
		}),
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pop3sf",
			Name:      "commands_total",
			Help:      "Number of POP3 commands processed, by verb.",
		}, []string{"verb"}),
		AuthFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pop3sf",
			Name:      "auth_failures_total",
			Help:      "Number of failed authentication attempts.",
		}),
		AuthSuccessesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pop3sf",
			Name:      "auth_successes_total",
			Help:      "Number of successful authentication attempts.",
		}),
		LockContentionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pop3sf",
			Name:      "lock_contentions_total",
			Help:      "Number of mailbox lock acquisition failures.",
		}),
		OverloadRejectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pop3sf",
			Name:      "overload_rejections_total",
			Help:      "Number of connections rejected for exceeding max_concurrent_sessions.",
		}),
	}

	reg.MustRegister(
		m.ActiveSessions,
		m.CommandsTotal,
		m.AuthFailuresTotal,
		m.AuthSuccessesTotal,
		m.LockContentionsTotal,
		m.OverloadRejectionsTotal,
	)

	return m
}
