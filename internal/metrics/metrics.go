// Package metrics holds the prometheus collectors of the event pipeline and
// directory sync.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "converse"

// Event outcomes.
const (
	OutcomeProcessed = "processed"
	OutcomeDropped   = "dropped"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected"
)

type Metrics struct {
	registry *prometheus.Registry

	Events      *prometheus.CounterVec
	Replies     *prometheus.CounterVec
	Dispatches  *prometheus.CounterVec
	QueueDepth  prometheus.Gauge
	SyncRuns    *prometheus.CounterVec
	SyncChanges *prometheus.CounterVec
}

// New registers all collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Inbound platform events by kind and outcome.",
		}, []string{"kind", "outcome"}),
		Replies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replies_total",
			Help:      "Parser replies sent, by result.",
		}, []string{"result"}),
		Dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatches_total",
			Help:      "Action dispatches by action and result.",
		}, []string{"action", "result"}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Events waiting for a pipeline worker.",
		}),
		SyncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "directory_sync_runs_total",
			Help:      "Directory sync runs per tenant result.",
		}, []string{"result"}),
		SyncChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "directory_sync_changes_total",
			Help:      "Records touched by directory sync.",
		}, []string{"change"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Events,
		m.Replies,
		m.Dispatches,
		m.QueueDepth,
		m.SyncRuns,
		m.SyncChanges,
	)
	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Event(kind, outcome string) {
	if m == nil {
		return
	}
	m.Events.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) Reply(sent bool) {
	if m == nil {
		return
	}
	result := "sent"
	if !sent {
		result = "failed"
	}
	m.Replies.WithLabelValues(result).Inc()
}

func (m *Metrics) Dispatch(action string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Dispatches.WithLabelValues(action, result).Inc()
}

func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(n))
}

func (m *Metrics) Sync(err error, changes map[string]int) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.SyncRuns.WithLabelValues(result).Inc()
	for change, n := range changes {
		if n > 0 {
			m.SyncChanges.WithLabelValues(change).Add(float64(n))
		}
	}
}
