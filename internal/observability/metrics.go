// Package observability wires the engine's prometheus instrumentation.
package observability

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the counters exported by the intake engine.
type Metrics struct {
	TurnsTotal         *prometheus.CounterVec
	ClassifierCalls    prometheus.Counter
	ExtractionFailures prometheus.Counter
	SessionsStarted    prometheus.Counter
	SessionsCompleted  prometheus.Counter
	AdvanceFailures    *prometheus.CounterVec
}

// New creates and registers the metric set on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TurnsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kneez_intake_turns_total",
				Help: "Intake turns handled, by resolved route",
			},
			[]string{"route"},
		),
		ClassifierCalls: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "kneez_classifier_calls_total",
				Help: "Calls made to the intent classifier collaborator",
			},
		),
		ExtractionFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "kneez_extraction_failures_total",
				Help: "Entity extraction calls that failed or returned malformed payloads",
			},
		),
		SessionsStarted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "kneez_assessment_sessions_started_total",
				Help: "Assessment sessions started",
			},
		),
		SessionsCompleted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "kneez_assessment_sessions_completed_total",
				Help: "Assessment sessions that reached a terminal node",
			},
		),
		AdvanceFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kneez_assessment_advance_failures_total",
				Help: "Failed advance operations, by failure kind",
			},
			[]string{"kind"},
		),
	}
	reg.MustRegister(
		m.TurnsTotal,
		m.ClassifierCalls,
		m.ExtractionFailures,
		m.SessionsStarted,
		m.SessionsCompleted,
		m.AdvanceFailures,
	)
	return m
}

// NewNop creates an unregistered metric set for tests and library use.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
