package sloghooks

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/spacecache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	SelfHealEvery uint64
	EvictedEvery  uint64
	RejectedEvery uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	selfHealCtr atomic.Uint64
	evictedCtr  atomic.Uint64
	rejectedCtr atomic.Uint64
}

var _ spacecache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) SelfHeal(storageKey, reason string) {
	if h.l == nil || !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	level := slog.LevelDebug
	if reason == "corrupt" {
		level = slog.LevelWarn
	}
	h.l.Log(context.Background(), level, "spacecache.self_heal",
		"key", h.redact(storageKey),
		"reason", reason)
}

func (h *Hooks) DiskFailure(op, storageKey string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("spacecache.disk_failure",
		"op", op,
		"key", h.redact(storageKey),
		"err", err)
}

func (h *Hooks) EncodeFailure(storageKey, kind string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("spacecache.encode_failure",
		"key", h.redact(storageKey),
		"kind", kind,
		"err", err)
}

func (h *Hooks) MemoryRejected(storageKey string) {
	if h.l == nil || !sample(h.opts.RejectedEvery, &h.rejectedCtr) {
		return
	}
	h.l.Debug("spacecache.memory_rejected",
		"key", h.redact(storageKey))
}

func (h *Hooks) Evicted(tier, storageKey string) {
	if h.l == nil || !sample(h.opts.EvictedEvery, &h.evictedCtr) {
		return
	}
	h.l.Debug("spacecache.evicted",
		"tier", tier,
		"key", h.redact(storageKey))
}
