package prometheus

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/unkn0wn-root/spacecache/stats"
)

func TestCollectorCountersAndGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg, "app")

	c.IncCounter(stats.MetricMemoryHits, 2)
	c.IncCounter(stats.MetricMemoryHits, 3)
	c.SetGauge(stats.MetricDiskEntries, 42)
	c.ObserveHistogram(stats.MetricDiskOpSeconds, 0.002)

	if got := testutil.ToFloat64(c.counter(stats.MetricMemoryHits)); got != 5 {
		t.Errorf("counter = %v, want 5", got)
	}
	if got := testutil.ToFloat64(c.gauge(stats.MetricDiskEntries)); got != 42 {
		t.Errorf("gauge = %v, want 42", got)
	}
	if n, err := testutil.GatherAndCount(reg); err != nil || n != 3 {
		t.Errorf("GatherAndCount = %d, %v; want 3", n, err)
	}
}

func TestCollectorsShareRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := New(reg, "")
	b := New(reg, "")

	a.IncCounter(stats.MetricMisses, 1)
	b.IncCounter(stats.MetricMisses, 1)

	// the second collector reuses the already registered counter
	if got := testutil.ToFloat64(a.counter(stats.MetricMisses)); got != 2 {
		t.Errorf("shared counter = %v, want 2", got)
	}
}

func TestCollectorsWithDistinctCacheLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg, "one").IncCounter(stats.MetricDiskHits, 1)
	New(reg, "two").IncCounter(stats.MetricDiskHits, 1)

	if n, err := testutil.GatherAndCount(reg, stats.MetricDiskHits); err != nil || n != 2 {
		t.Errorf("GatherAndCount = %d, %v; want 2 series", n, err)
	}
}
