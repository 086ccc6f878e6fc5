package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the core submux series (registry and transport level,
// not host-specific).
type Metrics struct {
	// Registry metrics
	ActiveSubscriptions prometheus.Gauge
	ActiveChannels      *prometheus.GaugeVec
	MessagesPublished   prometheus.Counter
	MessagesDelivered   prometheus.Counter
	MessagesDropped     prometheus.Counter
	DecodeFailures      prometheus.Counter
	ListenerPanics      prometheus.Counter

	// Transport metrics
	TransportConnected *prometheus.GaugeVec
	TransportErrors    *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all core series.
func NewMetrics() *Metrics {
	return &Metrics{
		ActiveSubscriptions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "submux",
				Subsystem: "registry",
				Name:      "subscriptions_active",
				Help:      "Number of logical subscriptions currently registered",
			},
		),

		ActiveChannels: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "submux",
				Subsystem: "registry",
				Name:      "channels_active",
				Help:      "Number of physical channels with an active transport subscription",
			},
			[]string{"kind"},
		),

		MessagesPublished: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "submux",
				Subsystem: "messages",
				Name:      "published_total",
				Help:      "Total number of messages published",
			},
		),

		MessagesDelivered: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "submux",
				Subsystem: "messages",
				Name:      "delivered_total",
				Help:      "Total number of listener deliveries (one inbound message counts once per listener)",
			},
		),

		MessagesDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "submux",
				Subsystem: "messages",
				Name:      "dropped_total",
				Help:      "Total number of inbound messages dropped because no listener was registered",
			},
		),

		DecodeFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "submux",
				Subsystem: "messages",
				Name:      "decode_failures_total",
				Help:      "Total number of payloads delivered raw after a decode failure",
			},
		),

		ListenerPanics: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "submux",
				Subsystem: "messages",
				Name:      "listener_panics_total",
				Help:      "Total number of listener invocations that panicked during fan-out",
			},
		),

		TransportConnected: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "submux",
				Subsystem: "transport",
				Name:      "connected",
				Help:      "Transport connection status per side (0=disconnected, 1=connected)",
			},
			[]string{"side"},
		),

		TransportErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "submux",
				Subsystem: "transport",
				Name:      "errors_total",
				Help:      "Total number of connection-level transport errors per side",
			},
			[]string{"side"},
		),
	}
}

// RecordSubscriptionOpened increments the active subscription gauge.
func (c *Metrics) RecordSubscriptionOpened() {
	c.ActiveSubscriptions.Inc()
}

// RecordSubscriptionClosed decrements the active subscription gauge.
func (c *Metrics) RecordSubscriptionClosed() {
	c.ActiveSubscriptions.Dec()
}

// RecordChannelOpened increments the active channel gauge for a kind
// ("literal" or "pattern").
func (c *Metrics) RecordChannelOpened(kind string) {
	c.ActiveChannels.WithLabelValues(kind).Inc()
}

// RecordChannelClosed decrements the active channel gauge for a kind.
func (c *Metrics) RecordChannelClosed(kind string) {
	c.ActiveChannels.WithLabelValues(kind).Dec()
}

// RecordPublish increments the published message counter.
func (c *Metrics) RecordPublish() {
	c.MessagesPublished.Inc()
}

// RecordDelivery adds n listener deliveries for one inbound message.
func (c *Metrics) RecordDelivery(n int) {
	c.MessagesDelivered.Add(float64(n))
}

// RecordDrop increments the dropped message counter.
func (c *Metrics) RecordDrop() {
	c.MessagesDropped.Inc()
}

// RecordDecodeFailure increments the decode failure counter.
func (c *Metrics) RecordDecodeFailure() {
	c.DecodeFailures.Inc()
}

// RecordListenerPanic increments the listener panic counter.
func (c *Metrics) RecordListenerPanic() {
	c.ListenerPanics.Inc()
}

// RecordTransportStatus updates the connection status gauge for a side
// ("publisher" or "subscriber").
func (c *Metrics) RecordTransportStatus(side string, connected bool) {
	value := 0.0
	if connected {
		value = 1.0
	}
	c.TransportConnected.WithLabelValues(side).Set(value)
}

// RecordTransportError increments the transport error counter for a side.
func (c *Metrics) RecordTransportError(side string) {
	c.TransportErrors.WithLabelValues(side).Inc()
}
