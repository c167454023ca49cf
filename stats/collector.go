// Package stats provides a unified interface for collecting cache metrics.
package stats

// Metric names used throughout the library.
const (
	// Read path.
	MetricMemoryHits = "spacecache_memory_hits_total"
	MetricDiskHits   = "spacecache_disk_hits_total"
	MetricMisses     = "spacecache_misses_total"
	MetricPromotions = "spacecache_promotions_total"

	// Failures.
	MetricDiskFailures   = "spacecache_disk_failures_total"
	MetricEncodeFailures = "spacecache_encode_failures_total"
	MetricCorrupt        = "spacecache_corrupt_total"
	MetricMemoryRejected = "spacecache_memory_rejected_total"

	// Capacity.
	MetricMemoryEvictions = "spacecache_memory_evictions_total"
	MetricDiskEvictions   = "spacecache_disk_evictions_total"
	MetricDiskEntries     = "spacecache_disk_entries"
	MetricDiskBytes       = "spacecache_disk_bytes"

	// Latency, in seconds.
	MetricDiskOpSeconds = "spacecache_disk_op_seconds"
)

// Collector defines the interface for collecting metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}
