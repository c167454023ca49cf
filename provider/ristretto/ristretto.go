// Package ristretto adapts dgraph-io/ristretto as a spacecache memory tier.
// Admission is TinyLFU based and bounded by total cost, where the cost of an
// entry is its value size in bytes.
package ristretto

import (
	"context"
	"errors"
	"sync/atomic"

	rc "github.com/dgraph-io/ristretto"

	pr "github.com/unkn0wn-root/spacecache/provider"
)

// item keeps the storage key next to the value: ristretto only hands hashed
// keys to its callbacks.
type item struct {
	key   string
	value []byte
}

type evictFunc func(key string, size int)

type Provider struct {
	c *rc.Cache
	// wait makes Set block until the write is applied, giving read-your-writes.
	wait bool

	onEvict evictFunc
	notify  atomic.Pointer[evictFunc]
}

var (
	_ pr.Provider      = (*Provider)(nil)
	_ pr.EvictNotifier = (*Provider)(nil)
)

type Config struct {
	NumCounters int64 // ~10x the expected number of entries
	MaxBytes    int64 // total cost budget, in value bytes
	BufferItems int64 // 0 => 64
	Metrics     bool
	// Synchronous waits for buffered writes after every Set.
	Synchronous bool
	// OnEvict is called for every entry the admission policy pushes out. It
	// runs on ristretto's processing goroutine.
	OnEvict func(key string, size int)
}

func New(cfg Config) (*Provider, error) {
	if cfg.BufferItems <= 0 {
		cfg.BufferItems = 64
	}
	if cfg.NumCounters <= 0 || cfg.MaxBytes <= 0 {
		return nil, errors.New("ristretto: invalid config")
	}
	p := &Provider{wait: cfg.Synchronous, onEvict: cfg.OnEvict}
	c, err := rc.NewCache(&rc.Config{
		NumCounters:        cfg.NumCounters,
		MaxCost:            cfg.MaxBytes,
		BufferItems:        cfg.BufferItems,
		Metrics:            cfg.Metrics,
		IgnoreInternalCost: true,
		OnEvict:            p.evicted,
	})
	if err != nil {
		return nil, err
	}
	p.c = c
	return p, nil
}

func (p *Provider) evicted(i *rc.Item) {
	it, ok := i.Value.(*item)
	if !ok {
		return
	}
	if p.onEvict != nil {
		p.onEvict(it.key, len(it.value))
	}
	if fn := p.notify.Load(); fn != nil {
		(*fn)(it.key, len(it.value))
	}
}

// NotifyEvict registers fn next to Config.OnEvict.
func (p *Provider) NotifyEvict(fn func(key string, size int)) {
	f := evictFunc(fn)
	p.notify.Store(&f)
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := p.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	it, _ := v.(*item)
	if it == nil || it.key != key {
		// self-heal: drop unexpected entry shape
		p.c.Del(key)
		return nil, false, nil
	}
	return it.value, true, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte, cost int64) (bool, error) {
	if cost <= 0 {
		cost = int64(len(value))
	}
	if !p.c.Set(key, &item{key: key, value: value}, cost) {
		// a dropped Set must not leave an older value behind
		p.c.Del(key)
		return false, nil
	}
	if p.wait {
		p.c.Wait()
	}
	return true, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	p.c.Del(key)
	return nil
}

func (p *Provider) Close(_ context.Context) error {
	p.c.Wait()
	p.c.Close()
	return nil
}

// Metrics exposes ristretto's counters (nil unless Config.Metrics is set).
func (p *Provider) Metrics() *rc.Metrics { return p.c.Metrics }
