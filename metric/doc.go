// Package metric provides Prometheus metrics for submux.
//
// # Overview
//
// A MetricsRegistry wraps a private prometheus registry so that two submux
// instances in one process never collide on series names. Construction
// pre-registers the core series plus Go runtime collectors; components add
// their own series through the MetricsRegistrar interface.
//
// # Core Series
//
// Registry level:
//
//	submux_registry_subscriptions_active        logical subscriptions
//	submux_registry_channels_active{kind}       physical channels (literal|pattern)
//	submux_messages_published_total             outbound publishes
//	submux_messages_delivered_total             listener deliveries
//	submux_messages_dropped_total               inbound messages with no listener
//	submux_messages_decode_failures_total       payloads delivered raw
//	submux_messages_listener_panics_total       listener panics during fan-out
//
// Transport level:
//
//	submux_transport_connected{side}            0|1 per connection
//	submux_transport_errors_total{side}         connection-level errors
//
// # Usage
//
//	reg := metric.NewMetricsRegistry()
//	ps, err := pubsub.New(pubsub.WithMetrics(reg))
//	...
//	http.Handle("/metrics", reg.Handler())
//
// Metrics are optional throughout submux: with no registry configured, the
// instrumented code paths skip recording entirely.
package metric
