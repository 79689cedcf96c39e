// Package metrics exposes prometheus collectors for the sync engine.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "msgsync"

type Metrics struct {
	synchronize       *prometheus.CounterVec
	coalesced         prometheus.Counter
	gatewayCalls      *prometheus.CounterVec
	changes           *prometheus.CounterVec
	pendingOperations prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		synchronize: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synchronize_total",
			Help:      "Remote synchronize rounds by result.",
		}, []string{"result"}),
		coalesced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synchronize_coalesced_total",
			Help:      "Synchronize calls attached to an in-flight remote fetch.",
		}),
		gatewayCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_calls_total",
			Help:      "Gateway calls by operation and result.",
		}, []string{"op", "result"}),
		changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "changes_total",
			Help:      "Change notifications delivered to delegates by kind.",
		}, []string{"kind"}),
		pendingOperations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_operations",
			Help:      "Mutating operations waiting for the gateway.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.synchronize, m.coalesced, m.gatewayCalls, m.changes, m.pendingOperations)
	}

	return m
}

func (m *Metrics) SynchronizeDone(err error) {
	if m == nil {
		return
	}
	m.synchronize.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) SynchronizeCoalesced() {
	if m == nil {
		return
	}
	m.coalesced.Inc()
}

func (m *Metrics) GatewayCall(op string, err error) {
	if m == nil {
		return
	}
	m.gatewayCalls.WithLabelValues(op, result(err)).Inc()
}

func (m *Metrics) Change(kind string) {
	if m == nil {
		return
	}
	m.changes.WithLabelValues(kind).Inc()
}

func (m *Metrics) OperationStarted() {
	if m == nil {
		return
	}
	m.pendingOperations.Inc()
}

func (m *Metrics) OperationFinished() {
	if m == nil {
		return
	}
	m.pendingOperations.Dec()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
