package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry    *prometheus.Registry
	awards      *prometheus.CounterVec
	points      *prometheus.CounterVec
	transitions *prometheus.CounterVec
	redemptions prometheus.Counter
	rejected    *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		awards: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "homebase",
			Name:      "ledger_awards_total",
			Help:      "Ledger credits applied, by reason.",
		}, []string{"reason"}),
		points: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "homebase",
			Name:      "ledger_points_awarded_total",
			Help:      "Points credited to members, by reason.",
		}, []string{"reason"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "homebase",
			Name:      "assignment_transitions_total",
			Help:      "Chore assignment status transitions.",
		}, []string{"from", "to"}),
		redemptions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "homebase",
			Name:      "reward_redemptions_total",
			Help:      "Rewards redeemed.",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "homebase",
			Name:      "requests_rejected_total",
			Help:      "Operations refused with a domain error, by kind.",
		}, []string{"kind"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.awards, m.points, m.transitions, m.redemptions, m.rejected,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveAward(reason string, amount float64) {
	if m == nil {
		return
	}
	m.awards.WithLabelValues(reason).Inc()
	m.points.WithLabelValues(reason).Add(amount)
}

func (m *Metrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) ObserveRedemption() {
	if m == nil {
		return
	}
	m.redemptions.Inc()
}

func (m *Metrics) ObserveRejected(kind string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(kind).Inc()
}
