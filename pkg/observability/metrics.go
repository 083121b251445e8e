package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/railchat/pkg/domain"
)

// Turn outcomes recorded by Metrics.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics holds the Prometheus collectors fed by the engine hooks.
type Metrics struct {
	Turns    *prometheus.CounterVec
	Firings  *prometheus.CounterVec
	Lookups  *prometheus.HistogramVec
	Failures *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "railchat_turns_total",
				Help: "Total number of conversational turns",
			},
			[]string{"outcome"},
		),
		Firings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "railchat_rule_firings_total",
				Help: "Total number of rule firings",
			},
			[]string{"rule"},
		),
		Lookups: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "railchat_collaborator_duration_seconds",
				Help:    "Duration of collaborator calls made by rules",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"service"},
		),
		Failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "railchat_collaborator_errors_total",
				Help: "Total number of failed collaborator calls",
			},
			[]string{"service"},
		),
	}
	for _, c := range []prometheus.Collector{m.Turns, m.Firings, m.Lookups, m.Failures} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTurnEnd: func(ctx context.Context, e *domain.TurnEvent) {
			outcome := OutcomeOK
			if e.Err != nil {
				outcome = OutcomeError
			}
			m.Turns.WithLabelValues(outcome).Inc()
		},
		OnRuleFire: func(ctx context.Context, e *domain.RuleEvent) {
			m.Firings.WithLabelValues(e.Rule).Inc()
		},
		OnLookup: func(ctx context.Context, e *domain.LookupEvent) {
			m.Lookups.WithLabelValues(e.Service).Observe(e.Duration.Seconds())
			if e.IsError {
				m.Failures.WithLabelValues(e.Service).Inc()
			}
		},
	}
}
