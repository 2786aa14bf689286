package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/tgdialogs/pkg/domain"
)

// Metrics collects Prometheus metrics about dialog execution.
type Metrics struct {
	steps        *prometheus.CounterVec
	stepErrors   *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	activated    *prometheus.CounterVec
	completed    *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg uses a fresh registry, convenient in tests.
func NewMetrics(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tgdialogs_steps_total",
				Help: "Total number of performed dialog steps by outcome",
			},
			[]string{"dialog", "step", "outcome"},
		),
		stepErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tgdialogs_step_errors_total",
				Help: "Total number of dialog steps that failed",
			},
			[]string{"dialog", "step"},
		),
		stepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tgdialogs_step_duration_seconds",
				Help:    "Duration of dialog steps, transport calls included",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"dialog"},
		),
		activated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tgdialogs_dialogs_activated_total",
				Help: "Total number of activated dialogs",
			},
			[]string{"dialog"},
		),
		completed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tgdialogs_dialogs_completed_total",
				Help: "Total number of completed dialogs",
			},
			[]string{"dialog"},
		),
		gatherer: reg,
	}

	for _, c := range []prometheus.Collector{m.steps, m.stepErrors, m.stepDuration, m.activated, m.completed} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks feeding the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepLeave: func(_ context.Context, e *domain.StepEvent) {
			m.stepDuration.WithLabelValues(e.Dialog).Observe(e.Duration.Seconds())
			if e.Err != nil {
				m.stepErrors.WithLabelValues(e.Dialog, e.StepName).Inc()
				return
			}
			m.steps.WithLabelValues(e.Dialog, e.StepName, e.Outcome).Inc()
		},
		OnDialogActivate: func(_ context.Context, e *domain.DialogEvent) {
			m.activated.WithLabelValues(e.Dialog).Inc()
		},
		OnDialogComplete: func(_ context.Context, e *domain.DialogEvent) {
			m.completed.WithLabelValues(e.Dialog).Inc()
		},
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
