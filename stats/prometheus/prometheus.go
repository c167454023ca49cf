// Package prometheus provides a Prometheus-based stats collector.
package prometheus

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/spacecache/stats"
)

// latencyBuckets covers fsync-dominated disk operations (100µs .. ~3s).
var latencyBuckets = prometheus.ExponentialBuckets(0.0001, 2.5, 12)

// Collector implements stats.Collector using Prometheus metrics.
// Metrics are created lazily on first use and registered with the registerer.
type Collector struct {
	registry prometheus.Registerer
	labels   prometheus.Labels

	mu         sync.RWMutex
	counters   map[string]prometheus.Counter
	gauges     map[string]prometheus.Gauge
	histograms map[string]prometheus.Histogram
}

// Compile-time check that Collector implements stats.Collector.
var _ stats.Collector = (*Collector)(nil)

// New creates a new Prometheus collector.
// If registry is nil, prometheus.DefaultRegisterer is used. cacheName, when
// not empty, is attached to every metric as the "cache" label so several
// caches can share one registry.
func New(registry prometheus.Registerer, cacheName string) *Collector {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	var labels prometheus.Labels
	if cacheName != "" {
		labels = prometheus.Labels{"cache": cacheName}
	}
	return &Collector{
		registry:   registry,
		labels:     labels,
		counters:   make(map[string]prometheus.Counter),
		gauges:     make(map[string]prometheus.Gauge),
		histograms: make(map[string]prometheus.Histogram),
	}
}

func (c *Collector) IncCounter(name string, delta int64) {
	c.counter(name).Add(float64(delta))
}

func (c *Collector) SetGauge(name string, value int64) {
	c.gauge(name).Set(float64(value))
}

func (c *Collector) ObserveHistogram(name string, value float64) {
	c.histogram(name).Observe(value)
}

func help(name string) string {
	return strings.ReplaceAll(strings.TrimPrefix(name, "spacecache_"), "_", " ")
}

func (c *Collector) counter(name string) prometheus.Counter {
	c.mu.RLock()
	m, ok := c.counters[name]
	c.mu.RUnlock()
	if ok {
		return m
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok = c.counters[name]; ok {
		return m
	}
	m = prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help(name), ConstLabels: c.labels})
	c.counters[name] = register(c.registry, m)
	return c.counters[name]
}

func (c *Collector) gauge(name string) prometheus.Gauge {
	c.mu.RLock()
	m, ok := c.gauges[name]
	c.mu.RUnlock()
	if ok {
		return m
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok = c.gauges[name]; ok {
		return m
	}
	m = prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help(name), ConstLabels: c.labels})
	c.gauges[name] = register(c.registry, m)
	return c.gauges[name]
}

func (c *Collector) histogram(name string) prometheus.Histogram {
	c.mu.RLock()
	m, ok := c.histograms[name]
	c.mu.RUnlock()
	if ok {
		return m
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok = c.histograms[name]; ok {
		return m
	}
	m = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        name,
		Help:        help(name),
		ConstLabels: c.labels,
		Buckets:     latencyBuckets,
	})
	c.histograms[name] = register(c.registry, m)
	return c.histograms[name]
}

// register adds m to the registry. If an identical metric is already
// registered the existing one is returned; on any other failure m is still
// returned and works, it is just not exported.
func register[M prometheus.Collector](r prometheus.Registerer, m M) M {
	if err := r.Register(m); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(M); ok {
				return existing
			}
		}
	}
	return m
}
