// Package logger provides a stats collector that writes spacecache metrics to
// a zap logger at debug level.
package logger

import (
	"sync"

	"go.uber.org/zap"

	"github.com/unkn0wn-root/spacecache/stats"
)

// Collector implements stats.Collector on a *zap.Logger. Counters are logged
// with their running total. Gauges are logged only when the value changes,
// since the cache refreshes disk gauges after every write.
type Collector struct {
	logger *zap.Logger

	mu     sync.Mutex
	totals map[string]int64
	gauges map[string]int64
}

var _ stats.Collector = (*Collector)(nil)

// New creates a collector. cacheName, when not empty, is attached to every
// entry as the "cache" field, matching the Prometheus collector's label. A
// nil logger discards everything.
func New(logger *zap.Logger, cacheName string) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheName != "" {
		logger = logger.With(zap.String("cache", cacheName))
	}
	return &Collector{
		logger: logger,
		totals: make(map[string]int64),
		gauges: make(map[string]int64),
	}
}

func (c *Collector) IncCounter(name string, delta int64) {
	if !c.logger.Core().Enabled(zap.DebugLevel) {
		return
	}
	c.mu.Lock()
	c.totals[name] += delta
	total := c.totals[name]
	c.mu.Unlock()

	c.logger.Debug("counter",
		zap.String("metric", name),
		zap.Int64("delta", delta),
		zap.Int64("total", total),
	)
}

func (c *Collector) SetGauge(name string, value int64) {
	c.mu.Lock()
	prev, seen := c.gauges[name]
	c.gauges[name] = value
	c.mu.Unlock()
	if seen && prev == value {
		return
	}

	c.logger.Debug("gauge",
		zap.String("metric", name),
		zap.Int64("value", value),
	)
}

func (c *Collector) ObserveHistogram(name string, value float64) {
	c.logger.Debug("histogram",
		zap.String("metric", name),
		zap.Float64("value", value),
	)
}
