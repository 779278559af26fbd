// Package metrics exposes prometheus collectors for event routing, the inbox,
// approvals and the runtime connection. A nil *Metrics is valid and records
// nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ceo"

type Metrics struct {
	Events          *prometheus.CounterVec
	Dropped         *prometheus.CounterVec
	Sessions        prometheus.Gauge
	InboxItems      prometheus.Gauge
	InboxSuppressed prometheus.Counter
	Approvals       *prometheus.CounterVec
	Outbound        *prometheus.CounterVec
	Connects        prometheus.Counter
	Connected       prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Inbound runtime events routed, by type.",
		}, []string{"type"}),
		Dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Inbound frames dropped, by reason.",
		}, []string{"reason"}),
		Sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions",
			Help:      "Sessions currently tracked.",
		}),
		InboxItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "inbox_items",
			Help:      "Items waiting in the operator inbox.",
		}),
		InboxSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbox_suppressed_total",
			Help:      "Inbox items discarded by burst suppression.",
		}),
		Approvals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "approvals_total",
			Help:      "Approval decisions sent, by decision.",
		}, []string{"decision"}),
		Outbound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbound_total",
			Help:      "Frames sent to the runtime, by result.",
		}, []string{"result"}),
		Connects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connects_total",
			Help:      "Successful runtime connections.",
		}),
		Connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected",
			Help:      "1 while the runtime connection is up.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Events, m.Dropped, m.Sessions, m.InboxItems, m.InboxSuppressed,
			m.Approvals, m.Outbound, m.Connects, m.Connected)
	}
	return m
}

func (m *Metrics) EventRouted(typ string) {
	if m == nil {
		return
	}
	m.Events.WithLabelValues(typ).Inc()
}

func (m *Metrics) EventDropped(reason string) {
	if m == nil {
		return
	}
	m.Dropped.WithLabelValues(reason).Inc()
}

func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.Sessions.Set(float64(n))
}

func (m *Metrics) SetInboxItems(n int) {
	if m == nil {
		return
	}
	m.InboxItems.Set(float64(n))
}

func (m *Metrics) InboxSuppressedInc() {
	if m == nil {
		return
	}
	m.InboxSuppressed.Inc()
}

func (m *Metrics) ApprovalSent(decision string) {
	if m == nil {
		return
	}
	m.Approvals.WithLabelValues(decision).Inc()
}

// OutboundSent records a frame handed to the transport. Buffered frames are
// counted separately from ones written directly.
func (m *Metrics) OutboundSent(buffered bool, err error) {
	if m == nil {
		return
	}
	result := "sent"
	switch {
	case err != nil:
		result = "error"
	case buffered:
		result = "buffered"
	}
	m.Outbound.WithLabelValues(result).Inc()
}

func (m *Metrics) SetConnected(up bool) {
	if m == nil {
		return
	}
	if up {
		m.Connects.Inc()
		m.Connected.Set(1)
		return
	}
	m.Connected.Set(0)
}
