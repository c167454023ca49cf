package diskstore

import (
	"time"

	"go.uber.org/zap"
)

// SyncMode configures fsync behavior on Set.
type SyncMode int

const (
	// SyncFull fsyncs the temp file, renames it into place, then fsyncs the
	// directory. A Set that returned nil survives power loss. Default.
	SyncFull SyncMode = iota

	// Sync fsyncs the temp file before rename but not the directory. The
	// record is intact after a crash but the rename itself may be lost.
	Sync

	// SyncNone does not call fsync. Fastest; a crash may lose recent writes,
	// and torn records are detected and purged on the next Open.
	SyncNone
)

// Compression selects how values are stored on disk.
type Compression int

const (
	CompressionNone Compression = iota
	// CompressionZstd compresses values of at least CompressMin bytes with
	// klauspost/compress/zstd. Smaller values are stored raw.
	CompressionZstd
)

const (
	defaultCompressMin   = 1024
	defaultSweepInterval = 30 * time.Second
	defaultScanWorkers   = 4
)

// Options tune a Store. The zero value is a durable, unbounded store.
type Options struct {
	MaxEntries int   // 0 = unbounded
	MaxBytes   int64 // total record bytes; 0 = unbounded

	Sync        SyncMode
	Compression Compression
	CompressMin int // 0 => 1 KiB

	// SweepInterval is how often the background sweeper re-checks the bounds.
	// Writes that cross a bound also wake it. 0 => 30s, < 0 disables the
	// ticker (writes still wake the sweeper).
	SweepInterval time.Duration
	// EvictInline evicts synchronously inside Set instead of deferring to the
	// sweeper.
	EvictInline bool

	// ScanWorkers bounds the goroutines that rebuild the index on Open. 0 => 4.
	ScanWorkers int

	// OnEvict is called after an entry was evicted to satisfy a bound.
	OnEvict func(space, key string, size int64)
	// OnCorrupt is called after a record failed validation and was purged.
	// space and key are empty when the record was unreadable.
	OnCorrupt func(space, key string, err error)

	Logger *zap.Logger // nil => no-op
}

func (o Options) withDefaults() Options {
	if o.CompressMin <= 0 {
		o.CompressMin = defaultCompressMin
	}
	if o.SweepInterval == 0 {
		o.SweepInterval = defaultSweepInterval
	}
	if o.ScanWorkers <= 0 {
		o.ScanWorkers = defaultScanWorkers
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}
