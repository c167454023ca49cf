// Package lru is the default spacecache memory tier: a least-recently-used
// cache bounded by entry count and by total value bytes.
package lru

import (
	"context"
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	pr "github.com/unkn0wn-root/spacecache/provider"
)

type Config struct {
	MaxEntries int   // required, > 0
	MaxBytes   int64 // 0 = bounded by entry count only
	// OnEvict is called for every entry dropped to satisfy a bound. It runs
	// with the provider lock held and must not call back into the provider.
	OnEvict func(key string, size int)
}

// LRU evicts synchronously inside Set until both bounds hold.
type LRU struct {
	mu      sync.Mutex
	c       *simplelru.LRU[string, []byte]
	bytes   int64
	max     int64
	onEvict func(string, int)
	notify  func(string, int)

	// set while a removal is caller-initiated, so the eviction callback does
	// not report it as an eviction.
	removing bool
}

var (
	_ pr.Provider = (*LRU)(nil)
	_ pr.Peeker   = (*LRU)(nil)
	_ pr.Lener    = (*LRU)(nil)

	_ pr.EvictNotifier = (*LRU)(nil)
)

func New(cfg Config) (*LRU, error) {
	p := &LRU{max: cfg.MaxBytes, onEvict: cfg.OnEvict}
	c, err := simplelru.NewLRU[string, []byte](cfg.MaxEntries, p.evicted)
	if err != nil {
		return nil, err
	}
	p.c = c
	return p, nil
}

func (p *LRU) evicted(key string, value []byte) {
	p.bytes -= int64(len(value))
	if p.removing {
		return
	}
	if p.onEvict != nil {
		p.onEvict(key, len(value))
	}
	if p.notify != nil {
		p.notify(key, len(value))
	}
}

// NotifyEvict registers fn next to Config.OnEvict.
func (p *LRU) NotifyEvict(fn func(key string, size int)) {
	p.mu.Lock()
	p.notify = fn
	p.mu.Unlock()
}

func (p *LRU) Get(_ context.Context, key string) ([]byte, bool, error) {
	p.mu.Lock()
	v, ok := p.c.Get(key)
	p.mu.Unlock()
	return v, ok, nil
}

func (p *LRU) Peek(key string) ([]byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.c.Peek(key)
}

func (p *LRU) Set(_ context.Context, key string, value []byte, _ int64) (bool, error) {
	size := int64(len(value))

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.max > 0 && size > p.max {
		// never admit an entry larger than the whole tier; drop any older
		// copy so a stale value cannot be served
		p.removeLocked(key)
		return false, nil
	}

	// simplelru does not report replaced values; account for them here
	if old, ok := p.c.Peek(key); ok {
		p.bytes -= int64(len(old))
	}
	p.c.Add(key, value)
	p.bytes += size

	for p.max > 0 && p.bytes > p.max {
		if _, _, ok := p.c.RemoveOldest(); !ok {
			break
		}
	}
	return true, nil
}

func (p *LRU) Del(_ context.Context, key string) error {
	p.mu.Lock()
	p.removeLocked(key)
	p.mu.Unlock()
	return nil
}

func (p *LRU) removeLocked(key string) {
	p.removing = true
	p.c.Remove(key)
	p.removing = false
}

func (p *LRU) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.c.Len()
}

// Bytes returns the total size of cached values.
func (p *LRU) Bytes() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bytes
}

// Keys returns cached keys from oldest to newest.
func (p *LRU) Keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.c.Keys()
}

func (p *LRU) Close(_ context.Context) error {
	p.mu.Lock()
	p.removing = true
	p.c.Purge()
	p.removing = false
	p.bytes = 0
	p.mu.Unlock()
	return nil
}
