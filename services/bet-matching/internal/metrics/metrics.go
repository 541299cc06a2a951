// Package metrics exposes the bet-matching Prometheus instruments.
package metrics

import (
	"net/http"
	"time"

	betv1 "github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/domain/bet/v1"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bet_matching"

const (
	// OutcomeFailed labels an action that returned an error and will be retried.
	OutcomeFailed = "FAILED"
	// OutcomeIncomplete labels an action interrupted after it changed the books.
	OutcomeIncomplete = "INCOMPLETE"

	unknownAction = "UNKNOWN"
)

// Metrics holds the instruments of one service instance on its own registry.
type Metrics struct {
	registry    *prometheus.Registry
	actions     *prometheus.CounterVec
	executions  *prometheus.CounterVec
	deadLetters prometheus.Counter
	duration    *prometheus.HistogramVec
}

// New creates and registers the instruments.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Actions handled, by action kind and outcome.",
		}, []string{"action", "outcome"}),
		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "executions_total",
			Help:      "Execution records emitted, by status.",
		}, []string{"status"}),
		deadLetters: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dead_letters_total",
			Help:      "Records parked on the dead-letter topic.",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "action_duration_seconds",
			Help:      "Time spent handling one action attempt.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"action"}),
	}

	m.registry.MustRegister(
		m.actions,
		m.executions,
		m.deadLetters,
		m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveAction records one handling attempt of an action. Kinds outside the
// known set share the UNKNOWN label.
func (m *Metrics) ObserveAction(action betv1.ActionKind, outcome string, took time.Duration) {
	label := actionLabel(action)
	m.actions.WithLabelValues(label, outcome).Inc()
	m.duration.WithLabelValues(label).Observe(took.Seconds())
}

func actionLabel(action betv1.ActionKind) string {
	switch action {
	case betv1.ActionNewLimitBet, betv1.ActionNewMarketBet, betv1.ActionInactiveEvent, betv1.ActionCancelBet:
		return string(action)
	default:
		return unknownAction
	}
}

// ObserveBatches counts the records of emitted batches.
func (m *Metrics) ObserveBatches(batches []betv1.ExecutionBatch) {
	for _, batch := range batches {
		for _, bet := range batch.Bets {
			m.executions.WithLabelValues(string(bet.Status)).Inc()
		}
	}
}

// DeadLetter counts one parked record.
func (m *Metrics) DeadLetter() {
	m.deadLetters.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
