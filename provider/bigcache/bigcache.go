// Package bigcache adapts allegro/bigcache/v3 as a spacecache memory tier.
// Entries never expire by time; the tier is bounded by HardMaxCacheSizeMB and
// bigcache drops the oldest entries of a shard when it is full.
package bigcache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	bc "github.com/allegro/bigcache/v3"

	pr "github.com/unkn0wn-root/spacecache/provider"
)

// noExpiry is used as bigcache's LifeWindow; with CleanWindow 0 nothing is
// ever removed because of age.
const noExpiry = 100 * 365 * 24 * time.Hour

type evictFunc func(key string, size int)

type Provider struct {
	c *bc.BigCache

	onEvict evictFunc
	notify  atomic.Pointer[evictFunc]
}

var (
	_ pr.Provider      = (*Provider)(nil)
	_ pr.Lener         = (*Provider)(nil)
	_ pr.EvictNotifier = (*Provider)(nil)
)

type Config struct {
	Shards             int // power of two; 0 => bigcache default (1024)
	MaxEntriesInWindow int
	MaxEntrySize       int
	HardMaxCacheSizeMB int // ~ memory limit; 0 = unlimited
	// OnEvict is called for every entry bigcache drops to make room. Deletes
	// are not reported. It runs with the shard lock held.
	OnEvict func(key string, size int)
}

func New(ctx context.Context, cfg Config) (*Provider, error) {
	conf := bc.DefaultConfig(noExpiry)
	conf.CleanWindow = 0
	conf.Verbose = false
	if cfg.Shards > 0 {
		conf.Shards = cfg.Shards
	}
	if cfg.MaxEntriesInWindow > 0 {
		conf.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	}
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}
	p := &Provider{onEvict: cfg.OnEvict}
	conf.OnRemoveWithReason = p.removed

	c, err := bc.New(ctx, conf)
	if err != nil {
		return nil, err
	}
	p.c = c
	return p, nil
}

func (p *Provider) removed(key string, entry []byte, reason bc.RemoveReason) {
	if reason != bc.NoSpace {
		return
	}
	if p.onEvict != nil {
		p.onEvict(key, len(entry))
	}
	if fn := p.notify.Load(); fn != nil {
		(*fn)(key, len(entry))
	}
}

// NotifyEvict registers fn next to Config.OnEvict.
func (p *Provider) NotifyEvict(fn func(key string, size int)) {
	f := evictFunc(fn)
	p.notify.Store(&f)
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, err := p.c.Get(key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte, _ int64) (bool, error) {
	if err := p.c.Set(key, value); err != nil {
		// entry bigger than a shard can hold; drop any older copy
		_ = p.c.Delete(key)
		return false, nil
	}
	return true, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	err := p.c.Delete(key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil
	}
	return err
}

func (p *Provider) Len() int { return p.c.Len() }

func (p *Provider) Close(_ context.Context) error {
	return p.c.Close()
}
