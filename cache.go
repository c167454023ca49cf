package spacecache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/spacecache/diskstore"
	"github.com/unkn0wn-root/spacecache/internal/util"
	pr "github.com/unkn0wn-root/spacecache/provider"
	"github.com/unkn0wn-root/spacecache/provider/lru"
	"github.com/unkn0wn-root/spacecache/stats"
)

const numStripes = 256

type counters struct {
	memoryHits      atomic.Int64
	diskHits        atomic.Int64
	misses          atomic.Int64
	promotions      atomic.Int64
	diskFailures    atomic.Int64
	encodeFailures  atomic.Int64
	corrupt         atomic.Int64
	memoryRejected  atomic.Int64
	memoryEvictions atomic.Int64
	diskEvictions   atomic.Int64
}

// Stats is a point-in-time snapshot of cache activity since construction.
type Stats struct {
	MemoryHits      int64
	DiskHits        int64
	Misses          int64
	Promotions      int64
	DiskFailures    int64
	EncodeFailures  int64
	Corrupt         int64
	MemoryRejected  int64
	MemoryEvictions int64
	DiskEvictions   int64
	DiskEntries     int
	DiskBytes       int64
}

// Cache is a two-tier cache partitioned into spaces. All methods are safe for
// concurrent use. Reads never fail: a miss, a type mismatch and a disk error
// all read as absent.
type Cache struct {
	mem       pr.Provider
	disk      DiskTier
	log       Logger
	hooks     Hooks
	stats     stats.Collector
	ioTimeout time.Duration

	stripes [numStripes]sync.RWMutex

	// keys whose disk copy cannot be trusted because a disk write or remove
	// failed; memory is authoritative for them until the disk catches up
	staleMu sync.Mutex
	stale   map[string]map[string]struct{}

	spacesMu sync.Mutex
	spaces   map[string]*Space

	ctr       counters
	closed    atomic.Bool
	closeOnce sync.Once
}

func newCache(opts Options) (*Cache, error) {
	c := &Cache{
		stale:  make(map[string]map[string]struct{}),
		spaces: make(map[string]*Space),
	}

	// defaults
	c.log = coalesce[Logger](opts.Logger, NopLogger{})
	c.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	c.stats = coalesce[stats.Collector](opts.Stats, stats.NewNoop())
	c.ioTimeout = coalesce(opts.IOTimeout, defaultIOTimeout)

	if opts.Memory != nil {
		c.mem = opts.Memory
		if n, ok := opts.Memory.(pr.EvictNotifier); ok {
			n.NotifyEvict(c.memoryEvicted)
		}
	} else {
		mem, err := lru.New(lru.Config{
			MaxEntries: coalesce(opts.MemoryMaxEntries, defaultMemoryMaxEntries),
			MaxBytes:   coalesce[int64](opts.MemoryMaxBytes, defaultMemoryMaxBytes),
			OnEvict:    c.memoryEvicted,
		})
		if err != nil {
			return nil, fmt.Errorf("spacecache: memory tier: %w", err)
		}
		c.mem = mem
	}

	if opts.Disk != nil {
		c.disk = opts.Disk
	} else {
		root, err := resolveRoot(opts.Name, opts.Path)
		if err != nil {
			_ = c.mem.Close(context.Background())
			return nil, err
		}
		maxBytes := coalesce[int64](opts.DiskMaxBytes, defaultDiskMaxBytes)
		if maxBytes < 0 {
			maxBytes = 0
		}
		store, err := diskstore.Open(root, diskstore.Options{
			MaxEntries:    opts.DiskMaxEntries,
			MaxBytes:      maxBytes,
			Sync:          opts.Sync,
			Compression:   opts.Compression,
			SweepInterval: opts.SweepInterval,
			EvictInline:   opts.EvictInline,
			OnEvict:       c.diskEvicted,
			OnCorrupt:     c.diskCorrupt,
			Logger:        opts.DiskLogger,
		})
		if err != nil {
			_ = c.mem.Close(context.Background())
			return nil, fmt.Errorf("spacecache: open %s: %w", root, err)
		}
		c.disk = store
		c.log.Debug("disk tier opened", Fields{"root": root})
	}

	c.updateGauges()
	return c, nil
}

// Count returns how many entries space holds.
func (c *Cache) Count(ctx context.Context, space string) int {
	space = spaceName(space)
	if c.closed.Load() {
		return 0
	}
	if !c.hasStale(space) {
		return c.disk.Len(space)
	}
	return len(c.AllKeys(ctx, space))
}

// AllKeys returns a snapshot of the keys in space, in no particular order.
func (c *Cache) AllKeys(ctx context.Context, space string) []string {
	space = spaceName(space)
	if c.closed.Load() {
		return nil
	}
	keys := c.disk.Keys(space)
	stale := c.staleKeys(space)
	if len(stale) == 0 {
		return keys
	}

	out := make([]string, 0, len(keys)+len(stale))
	for _, k := range keys {
		if _, ok := stale[k]; !ok {
			out = append(out, k)
		}
	}
	for k := range stale {
		if c.inMemory(ctx, util.StorageKey(space, k)) {
			out = append(out, k)
		}
	}
	return out
}

// Contains reports whether (space, key) holds an entry. It never promotes and
// does not validate the stored value.
func (c *Cache) Contains(ctx context.Context, space, key string) bool {
	space = spaceName(space)
	if c.closed.Load() {
		return false
	}
	sk := util.StorageKey(space, key)
	l := c.stripe(sk)
	l.RLock()
	defer l.RUnlock()

	if c.inMemory(ctx, sk) {
		return true
	}
	if c.isStale(space, key) {
		return false
	}
	return c.disk.Contains(space, key)
}

// Spaces returns the sorted names of spaces holding at least one entry.
func (c *Cache) Spaces(ctx context.Context) []string {
	if c.closed.Load() {
		return nil
	}
	seen := make(map[string]struct{})
	for _, s := range c.disk.Spaces() {
		seen[s] = struct{}{}
	}
	c.staleMu.Lock()
	var extra []string
	for s := range c.stale {
		if _, ok := seen[s]; !ok {
			extra = append(extra, s)
		}
	}
	c.staleMu.Unlock()
	for _, s := range extra {
		if len(c.AllKeys(ctx, s)) > 0 {
			seen[s] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// getRaw returns the sealed value for (space, key): memory first, then disk
// with promotion into memory.
func (c *Cache) getRaw(ctx context.Context, space, key string) ([]byte, bool) {
	if c.closed.Load() {
		return nil, false
	}
	sk := util.StorageKey(space, key)
	l := c.stripe(sk)

	l.RLock()
	v, ok, err := c.mem.Get(ctx, sk)
	l.RUnlock()
	if err == nil && ok {
		c.count(&c.ctr.memoryHits, stats.MetricMemoryHits)
		return v, true
	}
	if err != nil {
		c.log.Debug("memory tier get failed", entryFields(sk, Fields{"err": err}))
	}

	l.Lock()
	defer l.Unlock()
	if c.closed.Load() {
		return nil, false
	}

	// promoted by another reader while we waited
	if v, ok, err := c.mem.Get(ctx, sk); err == nil && ok {
		c.count(&c.ctr.memoryHits, stats.MetricMemoryHits)
		return v, true
	}
	if c.isStale(space, key) {
		c.count(&c.ctr.misses, stats.MetricMisses)
		return nil, false
	}

	var found bool
	derr := c.diskOp(ctx, func(ctx context.Context) error {
		var err error
		v, found, err = c.disk.Get(ctx, space, key)
		return err
	})
	if derr != nil {
		c.diskFailed("get", sk, derr)
		c.count(&c.ctr.misses, stats.MetricMisses)
		return nil, false
	}
	if !found {
		c.count(&c.ctr.misses, stats.MetricMisses)
		return nil, false
	}
	c.count(&c.ctr.diskHits, stats.MetricDiskHits)

	ok, err = c.mem.Set(ctx, sk, v, int64(len(v)))
	switch {
	case err != nil:
		c.log.Debug("promotion failed", entryFields(sk, Fields{"err": err}))
	case !ok:
		c.memoryRejectedKey(sk)
	case !c.disk.Contains(space, key):
		// evicted from disk after the read; memory must not outlive it
		_ = c.mem.Del(ctx, sk)
	default:
		c.count(&c.ctr.promotions, stats.MetricPromotions)
	}
	return v, true
}

// setRaw writes a sealed value through both tiers. A disk failure keeps the
// memory mutation and returns a *DurabilityError.
func (c *Cache) setRaw(ctx context.Context, space, key string, b []byte) error {
	if c.closed.Load() {
		return ErrClosed
	}
	sk := util.StorageKey(space, key)
	l := c.stripe(sk)
	l.Lock()
	defer l.Unlock()
	if c.closed.Load() {
		return ErrClosed
	}

	inMem, merr := c.mem.Set(ctx, sk, b, int64(len(b)))
	if merr != nil || !inMem {
		if merr != nil {
			c.log.Debug("memory tier set failed", entryFields(sk, Fields{"err": merr}))
		}
		c.memoryRejectedKey(sk)
		// an older memory copy must not shadow the new value
		_ = c.mem.Del(ctx, sk)
		inMem = false
	}

	derr := c.diskOp(ctx, func(ctx context.Context) error {
		return c.disk.Set(ctx, space, key, b)
	})
	if derr == nil {
		c.clearStale(space, key)
		return nil
	}

	c.diskFailed("set", sk, derr)
	c.markStale(space, key)
	// best effort: an older disk copy must not come back after a restart
	if err := c.diskOp(ctx, func(ctx context.Context) error {
		return c.disk.Del(ctx, space, key)
	}); err != nil {
		c.log.Debug("dropping previous disk copy failed", entryFields(sk, Fields{"err": err}))
	}
	if !inMem {
		c.log.Warn("value kept by neither tier", entryFields(sk, nil))
	}
	return &DurabilityError{Op: "set", Space: space, Key: key, Err: derr}
}

// Remove deletes (space, key) from both tiers. Removing an absent key is not
// an error.
func (c *Cache) Remove(ctx context.Context, space, key string) error {
	space = spaceName(space)
	if c.closed.Load() {
		return ErrClosed
	}
	sk := util.StorageKey(space, key)
	l := c.stripe(sk)
	l.Lock()
	defer l.Unlock()
	if c.closed.Load() {
		return ErrClosed
	}

	merr := c.mem.Del(ctx, sk)
	derr := c.diskOp(ctx, func(ctx context.Context) error {
		return c.disk.Del(ctx, space, key)
	})
	if derr != nil {
		c.diskFailed("remove", sk, derr)
		// the disk still holds the old value; do not serve it
		c.markStale(space, key)
	} else {
		c.clearStale(space, key)
	}
	if merr != nil || derr != nil {
		return &RemoveError{Space: space, Key: key, MemErr: merr, DiskErr: derr}
	}
	return nil
}

// RemoveKeys removes every key in keys from space. It keeps going after
// individual failures and returns them joined.
func (c *Cache) RemoveKeys(ctx context.Context, space string, keys []string) error {
	var errs []error
	for _, k := range keys {
		if err := c.Remove(ctx, space, k); err != nil {
			errs = append(errs, err)
			if errors.Is(err, ErrClosed) {
				break
			}
		}
	}
	return errors.Join(errs...)
}

// RemoveAll removes every entry of space present at call time. Other spaces
// are untouched.
func (c *Cache) RemoveAll(ctx context.Context, space string) error {
	space = spaceName(space)
	if c.closed.Load() {
		return ErrClosed
	}
	keys := c.disk.Keys(space)
	for k := range c.staleKeys(space) {
		keys = append(keys, k)
	}
	return c.RemoveKeys(ctx, space, keys)
}

// Flush runs deferred disk eviction to completion.
func (c *Cache) Flush(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}
	n, err := c.disk.Trim(ctx)
	c.updateGauges()
	if err != nil {
		c.log.Warn("disk trim failed", Fields{"evicted": n, "err": err})
		return err
	}
	return nil
}

// Stats returns activity counters and the current disk usage.
func (c *Cache) Stats() Stats {
	s := Stats{
		MemoryHits:      c.ctr.memoryHits.Load(),
		DiskHits:        c.ctr.diskHits.Load(),
		Misses:          c.ctr.misses.Load(),
		Promotions:      c.ctr.promotions.Load(),
		DiskFailures:    c.ctr.diskFailures.Load(),
		EncodeFailures:  c.ctr.encodeFailures.Load(),
		Corrupt:         c.ctr.corrupt.Load(),
		MemoryRejected:  c.ctr.memoryRejected.Load(),
		MemoryEvictions: c.ctr.memoryEvictions.Load(),
		DiskEvictions:   c.ctr.diskEvictions.Load(),
	}
	if !c.closed.Load() {
		s.DiskEntries, s.DiskBytes = c.disk.Size()
	}
	return s
}

// Close waits for in-flight operations, then closes both tiers and releases
// the storage directory. Close is idempotent.
func (c *Cache) Close(ctx context.Context) error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		for i := range c.stripes {
			c.stripes[i].Lock()
		}
		defer func() {
			for i := range c.stripes {
				c.stripes[i].Unlock()
			}
		}()
		err = errors.Join(c.disk.Close(), c.mem.Close(ctx))
	})
	return err
}

func (c *Cache) stripe(storageKey string) *sync.RWMutex {
	return &c.stripes[util.Stripe(storageKey, numStripes)]
}

func (c *Cache) diskOp(ctx context.Context, fn func(context.Context) error) error {
	if c.ioTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.ioTimeout)
		defer cancel()
	}
	start := time.Now()
	err := fn(ctx)
	c.stats.ObserveHistogram(stats.MetricDiskOpSeconds, time.Since(start).Seconds())
	return err
}

func (c *Cache) inMemory(ctx context.Context, sk string) bool {
	if p, ok := c.mem.(pr.Peeker); ok {
		_, ok := p.Peek(sk)
		return ok
	}
	_, ok, err := c.mem.Get(ctx, sk)
	return err == nil && ok
}

func (c *Cache) count(ctr *atomic.Int64, metric string) {
	ctr.Add(1)
	c.stats.IncCounter(metric, 1)
}

func (c *Cache) updateGauges() {
	n, b := c.disk.Size()
	c.stats.SetGauge(stats.MetricDiskEntries, int64(n))
	c.stats.SetGauge(stats.MetricDiskBytes, b)
}

func (c *Cache) diskFailed(op, sk string, err error) {
	c.count(&c.ctr.diskFailures, stats.MetricDiskFailures)
	c.hooks.DiskFailure(op, sk, err)
	c.log.Warn("disk tier "+op+" failed", entryFields(sk, Fields{"err": err}))
}

func (c *Cache) memoryRejectedKey(sk string) {
	c.count(&c.ctr.memoryRejected, stats.MetricMemoryRejected)
	c.hooks.MemoryRejected(sk)
}

func (c *Cache) encodeFailed(sk, kind string, err error) {
	c.count(&c.ctr.encodeFailures, stats.MetricEncodeFailures)
	c.hooks.EncodeFailure(sk, kind, err)
	c.log.Warn("encode failed; write dropped", entryFields(sk, Fields{"kind": kind, "err": err}))
}

func (c *Cache) decodeMiss(sk, reason string, err error) {
	c.hooks.SelfHeal(sk, reason)
	c.log.Debug("stored value not readable as requested", entryFields(sk, Fields{"reason": reason, "err": err}))
}

// memoryEvicted may run under the memory tier's lock.
func (c *Cache) memoryEvicted(sk string, _ int) {
	c.count(&c.ctr.memoryEvictions, stats.MetricMemoryEvictions)
	c.hooks.Evicted("memory", sk)
}

// diskEvicted drops the memory copy too, so both tiers agree the entry is
// gone.
func (c *Cache) diskEvicted(space, key string, _ int64) {
	sk := util.StorageKey(space, key)
	_ = c.mem.Del(context.Background(), sk)
	c.count(&c.ctr.diskEvictions, stats.MetricDiskEvictions)
	c.hooks.Evicted("disk", sk)
}

func (c *Cache) diskCorrupt(space, key string, err error) {
	sk := util.StorageKey(space, key)
	c.count(&c.ctr.corrupt, stats.MetricCorrupt)
	c.hooks.SelfHeal(sk, "corrupt")
	c.log.Warn("purged corrupt disk record", entryFields(sk, Fields{"err": err}))
}

func (c *Cache) markStale(space, key string) {
	c.staleMu.Lock()
	m := c.stale[space]
	if m == nil {
		m = make(map[string]struct{})
		c.stale[space] = m
	}
	m[key] = struct{}{}
	c.staleMu.Unlock()
}

func (c *Cache) clearStale(space, key string) {
	c.staleMu.Lock()
	if m := c.stale[space]; m != nil {
		delete(m, key)
		if len(m) == 0 {
			delete(c.stale, space)
		}
	}
	c.staleMu.Unlock()
}

func (c *Cache) isStale(space, key string) bool {
	c.staleMu.Lock()
	defer c.staleMu.Unlock()
	_, ok := c.stale[space][key]
	return ok
}

func (c *Cache) hasStale(space string) bool {
	c.staleMu.Lock()
	defer c.staleMu.Unlock()
	return len(c.stale[space]) > 0
}

func (c *Cache) staleKeys(space string) map[string]struct{} {
	c.staleMu.Lock()
	defer c.staleMu.Unlock()
	m := c.stale[space]
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(m))
	for k := range m {
		out[k] = struct{}{}
	}
	return out
}
