package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/bookflow/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeServiceable   = "serviceable"
	OutcomeUnserviceable = "unserviceable"
	OutcomeFailed        = "failed"
	OutcomeOK            = "ok"
	OutcomeSubmitted     = "submitted"
)

// Metrics records wizard activity as Prometheus metrics.
type Metrics struct {
	StepEnters         *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	AreaChecks         *prometheus.CounterVec
	AreaCheckDuration  prometheus.Histogram
	SlotFetches        *prometheus.CounterVec
	Submissions        *prometheus.CounterVec
	SubmitDuration     prometheus.Histogram

	gatherer prometheus.Gatherer
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg uses a fresh registry, which keeps tests independent.
func NewMetrics(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		StepEnters: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookflow_step_enters_total",
			Help: "Number of times a wizard step was entered.",
		}, []string{"step"}),
		ValidationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookflow_validation_failures_total",
			Help: "Field errors raised by refused advances and submissions.",
		}, []string{"step", "field", "code"}),
		AreaChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookflow_area_checks_total",
			Help: "Area check responses applied, by outcome.",
		}, []string{"outcome"}),
		AreaCheckDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bookflow_area_check_duration_seconds",
			Help:    "Latency of applied area checks.",
			Buckets: prometheus.DefBuckets,
		}),
		SlotFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookflow_slot_fetches_total",
			Help: "Slot fetches resolved for the selected date, by outcome.",
		}, []string{"outcome"}),
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookflow_submissions_total",
			Help: "Booking submission attempts, by outcome.",
		}, []string{"outcome"}),
		SubmitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bookflow_submit_duration_seconds",
			Help:    "Latency of the submission collaborator.",
			Buckets: prometheus.DefBuckets,
		}),
		gatherer: reg,
	}

	for _, c := range []prometheus.Collector{
		m.StepEnters, m.ValidationFailures, m.AreaChecks, m.AreaCheckDuration,
		m.SlotFetches, m.Submissions, m.SubmitDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks feeding the metrics.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(_ context.Context, e *domain.StepEvent) {
			m.StepEnters.WithLabelValues(e.Step.String()).Inc()
		},
		OnValidationFailed: func(_ context.Context, e *domain.ValidationEvent) {
			for field, code := range e.Errors {
				m.ValidationFailures.WithLabelValues(e.Step.String(), metricField(field), string(code)).Inc()
			}
		},
		OnAreaCheck: func(_ context.Context, e *domain.AreaCheckEvent) {
			outcome := OutcomeFailed
			switch {
			case e.Result.Passed():
				outcome = OutcomeServiceable
			case e.Result.Status == domain.AreaCheckSuccess:
				outcome = OutcomeUnserviceable
			}
			m.AreaChecks.WithLabelValues(outcome).Inc()
			m.AreaCheckDuration.Observe(e.Duration.Seconds())
		},
		OnSlotsLoaded: func(_ context.Context, e *domain.SlotsEvent) {
			outcome := OutcomeOK
			if e.Err != "" {
				outcome = OutcomeFailed
			}
			m.SlotFetches.WithLabelValues(outcome).Inc()
		},
		OnSubmit: func(_ context.Context, e *domain.SubmitEvent) {
			outcome := OutcomeSubmitted
			if e.Err != "" {
				outcome = OutcomeFailed
			}
			m.Submissions.WithLabelValues(outcome).Inc()
			m.SubmitDuration.Observe(e.Duration.Seconds())
		},
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// metricField folds the per-service option fields into one label value.
func metricField(k domain.FieldKey) string {
	if _, ok := k.OptionID(); ok {
		return "option"
	}
	return string(k)
}
