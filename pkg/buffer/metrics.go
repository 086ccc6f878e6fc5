package buffer

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/submux/metric"
)

// bufferMetrics holds Prometheus metrics for one buffer instance.
type bufferMetrics struct {
	writes    prometheus.Counter
	reads     prometheus.Counter
	peeks     prometheus.Counter
	overflows prometheus.Counter
	drops     prometheus.Counter

	size        prometheus.Gauge
	utilization prometheus.Gauge
}

// newBufferMetrics creates and registers buffer metrics with the registry,
// labelled by the owning component's prefix.
func newBufferMetrics(registry *metric.MetricsRegistry, prefix string) (*bufferMetrics, error) {
	m := &bufferMetrics{
		writes:      newCounter(prefix, "writes_total", "Total number of buffer write operations"),
		reads:       newCounter(prefix, "reads_total", "Total number of buffer read operations"),
		peeks:       newCounter(prefix, "peeks_total", "Total number of buffer peek operations"),
		overflows:   newCounter(prefix, "overflows_total", "Total number of buffer overflow events"),
		drops:       newCounter(prefix, "drops_total", "Total number of items dropped due to overflow"),
		size:        newGauge(prefix, "size", "Current number of items in buffer"),
		utilization: newGauge(prefix, "utilization", "Buffer utilization (0.0 to 1.0)"),
	}

	counters := map[string]prometheus.Counter{
		"buffer_writes":    m.writes,
		"buffer_reads":     m.reads,
		"buffer_peeks":     m.peeks,
		"buffer_overflows": m.overflows,
		"buffer_drops":     m.drops,
	}
	for name, counter := range counters {
		if err := registry.RegisterCounter(prefix, name, counter); err != nil {
			return nil, err
		}
	}
	if err := registry.RegisterGauge(prefix, "buffer_size", m.size); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(prefix, "buffer_utilization", m.utilization); err != nil {
		return nil, err
	}

	return m, nil
}

func newCounter(prefix, name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   "submux",
		Subsystem:   "buffer",
		Name:        name,
		ConstLabels: prometheus.Labels{"component": prefix},
		Help:        help,
	})
}

func newGauge(prefix, name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   "submux",
		Subsystem:   "buffer",
		Name:        name,
		ConstLabels: prometheus.Labels{"component": prefix},
		Help:        help,
	})
}

func (m *bufferMetrics) recordWrite(size, capacity int) {
	m.writes.Inc()
	m.updateSize(size, capacity)
}

func (m *bufferMetrics) recordRead(size, capacity int) {
	m.reads.Inc()
	m.updateSize(size, capacity)
}

func (m *bufferMetrics) recordPeek() {
	m.peeks.Inc()
}

func (m *bufferMetrics) recordOverflow() {
	m.overflows.Inc()
}

func (m *bufferMetrics) recordDrop() {
	m.drops.Inc()
}

func (m *bufferMetrics) updateSize(size, capacity int) {
	m.size.Set(float64(size))
	m.utilization.Set(float64(size) / float64(capacity))
}
