// Package metrics counts executions, delegations and memo lookups from the
// event bus as Prometheus metrics.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	eventbus "github.com/hanpama/graphql-component/internal/eventbus"
	events "github.com/hanpama/graphql-component/internal/events"
)

// Metrics holds the collectors fed by the event bus.
type Metrics struct {
	ExecutionsTotal      *prometheus.CounterVec
	ExecutionErrorsTotal *prometheus.CounterVec
	DelegationsTotal     *prometheus.CounterVec
	DelegationDuration   *prometheus.HistogramVec
	MemoLookupsTotal     *prometheus.CounterVec
}

// New creates the collectors without registering them.
func New() *Metrics {
	return &Metrics{
		ExecutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "graphql_component_executions_total",
				Help: "Number of operations executed by component.",
			},
			[]string{"component"},
		),
		ExecutionErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "graphql_component_execution_errors_total",
				Help: "Number of errors reported by executed operations, by component.",
			},
			[]string{"component"},
		),
		DelegationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "graphql_component_delegations_total",
				Help: "Number of root fields delegated, by target component and field.",
			},
			[]string{"component", "field"},
		),
		DelegationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "graphql_component_delegation_duration_seconds",
				Help:    "Time taken by delegated executions.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"component"},
		),
		MemoLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "graphql_component_memo_lookups_total",
				Help: "Number of memoized resolver calls by result.",
			},
			[]string{"result"},
		),
	}
}

// Register registers the collectors with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.ExecutionsTotal,
		m.ExecutionErrorsTotal,
		m.DelegationsTotal,
		m.DelegationDuration,
		m.MemoLookupsTotal,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Subscribe feeds the collectors from the global event bus until the
// returned function is called.
func (m *Metrics) Subscribe() (unsubscribe func()) {
	unsubs := []func(){
		eventbus.Subscribe(func(ctx context.Context, e events.ExecuteFinish) {
			m.ExecutionsTotal.WithLabelValues(e.Component).Inc()
			if len(e.Errors) > 0 {
				m.ExecutionErrorsTotal.WithLabelValues(e.Component).Add(float64(len(e.Errors)))
			}
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.DelegateFinish) {
			m.DelegationsTotal.WithLabelValues(e.Component, e.Field).Inc()
			m.DelegationDuration.WithLabelValues(e.Component).Observe(e.Duration.Seconds())
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.MemoLookup) {
			result := "miss"
			if e.Hit {
				result = "hit"
			}
			m.MemoLookupsTotal.WithLabelValues(result).Inc()
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
