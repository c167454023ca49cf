// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    SelfHealEvery: 10, // sample logs: ~every 10th self-heal
//	})
//
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	cache, _ := spacecache.New(spacecache.Options{
//	    Name:  "myapp",
//	    Hooks: hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/spacecache"
)

// Hooks runs another Hooks implementation on background workers. Events that
// do not fit in the queue are dropped and counted.
type Hooks struct {
	inner   spacecache.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

var _ spacecache.Hooks = (*Hooks)(nil)

func New(inner spacecache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Events after Close are
// dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped returns how many events were discarded because the queue was full
// or the hooks were closed.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default: // drop
		h.dropped.Add(1)
	}
}

func (h *Hooks) SelfHeal(k, r string)    { h.try(func() { h.inner.SelfHeal(k, r) }) }
func (h *Hooks) MemoryRejected(k string) { h.try(func() { h.inner.MemoryRejected(k) }) }
func (h *Hooks) Evicted(tier, k string)  { h.try(func() { h.inner.Evicted(tier, k) }) }
func (h *Hooks) DiskFailure(op, k string, err error) {
	h.try(func() { h.inner.DiskFailure(op, k, err) })
}
func (h *Hooks) EncodeFailure(k, kind string, err error) {
	h.try(func() { h.inner.EncodeFailure(k, kind, err) })
}
