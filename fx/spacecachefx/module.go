// Package spacecachefx provides an fx module for a disk-backed spacecache.
package spacecachefx

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/unkn0wn-root/spacecache"
	"github.com/unkn0wn-root/spacecache/diskstore"
	zaplog "github.com/unkn0wn-root/spacecache/log/zap"
	"github.com/unkn0wn-root/spacecache/stats"
	"github.com/unkn0wn-root/spacecache/stats/logger"
	promstats "github.com/unkn0wn-root/spacecache/stats/prometheus"
)

// Config holds configuration for the cache.
type Config struct {
	// Name resolves to <UserCacheDir>/spacecache/<Name>. Path wins when set.
	Name string
	Path string

	// MemoryMaxEntries bounds the memory tier. Default is 1000.
	MemoryMaxEntries int
	// DiskMaxBytes bounds the disk tier. Default is 256 MiB.
	DiskMaxBytes int64

	// Compress enables zstd compression of large values on disk.
	Compress bool
}

// Module provides a *spacecache.Cache closed on application stop.
// Requires a *zap.Logger to be provided. When a prometheus.Registerer is
// provided, metrics are exported through it; otherwise they are logged at
// debug level.
var Module = fx.Module("spacecache",
	fx.Provide(
		newStatsCollector,
		newCache,
	),
)

type statsParams struct {
	fx.In

	Config     Config
	Logger     *zap.Logger
	Registerer prometheus.Registerer `optional:"true"`
}

func newStatsCollector(p statsParams) stats.Collector {
	if p.Registerer != nil {
		return promstats.New(p.Registerer, p.Config.Name)
	}
	return logger.New(p.Logger.Named("spacecache.stats"), p.Config.Name)
}

// Params holds dependencies for creating the cache.
type Params struct {
	fx.In

	Config    Config
	Logger    *zap.Logger
	Collector stats.Collector
	Lifecycle fx.Lifecycle
}

// Result holds the provided cache.
type Result struct {
	fx.Out

	Cache *spacecache.Cache
}

func newCache(p Params) (Result, error) {
	opts := spacecache.Options{
		Name:             p.Config.Name,
		Path:             p.Config.Path,
		MemoryMaxEntries: p.Config.MemoryMaxEntries,
		DiskMaxBytes:     p.Config.DiskMaxBytes,
		DiskLogger:       p.Logger.Named("spacecache.disk"),
		Logger:           zaplog.ZapLogger{L: p.Logger.Named("spacecache")},
		Stats:            p.Collector,
	}
	if p.Config.Compress {
		opts.Compression = diskstore.CompressionZstd
	}

	cache, err := spacecache.New(opts)
	if err != nil {
		return Result{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return cache.Close(ctx)
		},
	})

	return Result{Cache: cache}, nil
}
