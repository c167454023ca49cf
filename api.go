package spacecache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/unkn0wn-root/spacecache/diskstore"
	pr "github.com/unkn0wn-root/spacecache/provider"
	"github.com/unkn0wn-root/spacecache/stats"
)

const (
	// DefaultName is used when neither Name nor Path is set.
	DefaultName = "default"
	// DefaultSpace is the space an empty space name resolves to.
	DefaultSpace = "default"

	defaultMemoryMaxEntries = 1000
	defaultMemoryMaxBytes   = 64 << 20
	defaultDiskMaxBytes     = 256 << 20
	defaultIOTimeout        = 5 * time.Second
)

// DiskTier is the persistent store behind the memory tier. *diskstore.Store
// is the default implementation.
type DiskTier interface {
	Get(ctx context.Context, space, key string) ([]byte, bool, error)
	Set(ctx context.Context, space, key string, value []byte) error
	Del(ctx context.Context, space, key string) error

	Keys(space string) []string
	Len(space string) int
	Contains(space, key string) bool
	Spaces() []string
	Size() (entries int, bytes int64)

	// Trim runs pending eviction to completion.
	Trim(ctx context.Context) (int, error)
	Close() error
}

var _ DiskTier = (*diskstore.Store)(nil)

// Options tune a Cache. The zero value opens the cache named "default" under
// the user cache directory with durable writes.
type Options struct {
	// Storage location. Path wins over Name; Name resolves to
	// <UserCacheDir>/spacecache/<Name>. Ignored when Disk is set.
	Name string
	Path string

	// Memory tier. If nil, an LRU bounded by MemoryMaxEntries (0 => 1000) and
	// MemoryMaxBytes (0 => 64 MiB) is used.
	Memory           pr.Provider
	MemoryMaxEntries int
	MemoryMaxBytes   int64

	// Disk tier. If nil, a diskstore is opened at the resolved location with
	// the settings below. The cache closes it on Close either way.
	Disk           DiskTier
	DiskMaxEntries int   // 0 => unbounded
	DiskMaxBytes   int64 // 0 => 256 MiB, < 0 => unbounded
	Sync           diskstore.SyncMode
	Compression    diskstore.Compression
	SweepInterval  time.Duration // 0 => 30s
	EvictInline    bool
	DiskLogger     *zap.Logger // diskstore internals; nil => no-op

	// IOTimeout bounds each disk tier call. 0 => 5s, < 0 => no deadline.
	// An expired deadline counts as a disk failure.
	IOTimeout time.Duration

	Logger Logger          // if nil, NopLogger is used
	Hooks  Hooks           // if nil, NopHooks is used
	Stats  stats.Collector // if nil, stats.Noop is used
}

// New builds a Cache. Failing to prepare the disk tier is the only error a
// cache reports outside of writes.
func New(opts Options) (*Cache, error) {
	return newCache(opts)
}

// Open opens (or creates) the cache with the given name under the user cache
// directory.
func Open(name string) (*Cache, error) {
	return New(Options{Name: name})
}

// OpenPath opens (or creates) a cache rooted at path.
func OpenPath(path string) (*Cache, error) {
	return New(Options{Path: path})
}
