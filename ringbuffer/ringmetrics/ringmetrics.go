// Package ringmetrics exports ring queue statistics as Prometheus metrics.
package ringmetrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aradilov/lockfree/ringbuffer"
)

const namespace = "lockfree"

// StatsSource is implemented by *ringbuffer.BoundedQueue[T] for every T.
type StatsSource interface {
	Stats() ringbuffer.Stats
	Len() int
	Capacity() uint64
}

// Collector reads a queue's counters at scrape time.
type Collector struct {
	src StatsSource

	enqueue  *prometheus.Desc
	dequeue  *prometheus.Desc
	length   *prometheus.Desc
	capacity *prometheus.Desc
}

// NewCollector returns a collector for src. Every metric carries a constant
// queue=name label.
func NewCollector(name string, src StatsSource) *Collector {
	labels := prometheus.Labels{"queue": name}
	return &Collector{
		src: src,
		enqueue: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "ring", "enqueue_total"),
			"Enqueue attempts by result (ok, full, contended)",
			[]string{"result"}, labels,
		),
		dequeue: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "ring", "dequeue_total"),
			"Dequeue attempts by result (ok, empty, contended)",
			[]string{"result"}, labels,
		),
		length: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "ring", "length"),
			"Number of elements in the queue at scrape time",
			nil, labels,
		),
		capacity: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "ring", "capacity"),
			"Fixed queue capacity",
			nil, labels,
		),
	}
}

// Register creates a collector for src and registers it with registry.
func Register(registry prometheus.Registerer, name string, src StatsSource) (*Collector, error) {
	c := NewCollector(name, src)
	if err := registry.Register(c); err != nil {
		return nil, fmt.Errorf("failed to register ring metrics for %q: %w", name, err)
	}
	return c, nil
}

// Describe implements the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.enqueue
	ch <- c.dequeue
	ch <- c.length
	ch <- c.capacity
}

// Collect implements the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	st := c.src.Stats()

	ch <- prometheus.MustNewConstMetric(c.enqueue, prometheus.CounterValue, float64(st.Enqueued), "ok")
	ch <- prometheus.MustNewConstMetric(c.enqueue, prometheus.CounterValue, float64(st.EnqueueFull), "full")
	ch <- prometheus.MustNewConstMetric(c.enqueue, prometheus.CounterValue, float64(st.EnqueueContended), "contended")

	ch <- prometheus.MustNewConstMetric(c.dequeue, prometheus.CounterValue, float64(st.Dequeued), "ok")
	ch <- prometheus.MustNewConstMetric(c.dequeue, prometheus.CounterValue, float64(st.DequeueEmpty), "empty")
	ch <- prometheus.MustNewConstMetric(c.dequeue, prometheus.CounterValue, float64(st.DequeueContended), "contended")

	ch <- prometheus.MustNewConstMetric(c.length, prometheus.GaugeValue, float64(c.src.Len()))
	ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(c.src.Capacity()))
}
