package lru

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func newLRU(t *testing.T, cfg Config) *LRU {
	t.Helper()
	p, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close(context.Background()) })
	return p
}

func TestNewRejectsNonPositiveSize(t *testing.T) {
	_, err := New(Config{MaxEntries: 0})
	require.Error(t, err)
}

func TestEntryBoundEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	var evicted []string
	p := newLRU(t, Config{MaxEntries: 3, OnEvict: func(k string, _ int) { evicted = append(evicted, k) }})

	for i := 0; i < 3; i++ {
		ok, err := p.Set(ctx, fmt.Sprintf("k%d", i), []byte("v"), 1)
		require.NoError(t, err)
		require.True(t, ok)
	}
	// touch k0 so k1 becomes the oldest
	_, ok, _ := p.Get(ctx, "k0")
	require.True(t, ok)

	_, err := p.Set(ctx, "k3", []byte("v"), 1)
	require.NoError(t, err)

	require.Equal(t, 3, p.Len())
	require.Equal(t, []string{"k1"}, evicted)
	_, ok = p.Peek("k1")
	require.False(t, ok)
	require.Equal(t, []string{"k2", "k0", "k3"}, p.Keys())
}

func TestByteBoundEvictsUntilUnderLimit(t *testing.T) {
	ctx := context.Background()
	p := newLRU(t, Config{MaxEntries: 100, MaxBytes: 10})

	_, _ = p.Set(ctx, "a", []byte("aaaa"), 4)
	_, _ = p.Set(ctx, "b", []byte("bbbb"), 4)
	require.EqualValues(t, 8, p.Bytes())

	_, _ = p.Set(ctx, "c", []byte("cccccc"), 6)
	require.EqualValues(t, 10, p.Bytes())
	_, ok := p.Peek("a")
	require.False(t, ok, "oldest entry should be evicted")
	_, ok = p.Peek("b")
	require.True(t, ok, "eviction stops once the bound holds")

	_, _ = p.Set(ctx, "d", []byte("dddddddd"), 8)
	require.LessOrEqual(t, p.Bytes(), int64(10))
	_, ok = p.Peek("b")
	require.False(t, ok)
	_, ok = p.Peek("c")
	require.False(t, ok)
	v, ok := p.Peek("d")
	require.True(t, ok)
	require.Equal(t, "dddddddd", string(v))
}

func TestReplaceAdjustsByteAccounting(t *testing.T) {
	ctx := context.Background()
	p := newLRU(t, Config{MaxEntries: 10, MaxBytes: 100})

	_, _ = p.Set(ctx, "k", make([]byte, 40), 40)
	_, _ = p.Set(ctx, "k", make([]byte, 10), 10)
	require.EqualValues(t, 10, p.Bytes())
	require.Equal(t, 1, p.Len())

	require.NoError(t, p.Del(ctx, "k"))
	require.EqualValues(t, 0, p.Bytes())
	require.NoError(t, p.Del(ctx, "k"), "deleting an absent key is a no-op")
}

func TestOversizedEntryRejectedAndOldCopyDropped(t *testing.T) {
	ctx := context.Background()
	var evictions int
	p := newLRU(t, Config{MaxEntries: 10, MaxBytes: 8, OnEvict: func(string, int) { evictions++ }})

	ok, err := p.Set(ctx, "k", []byte("small"), 5)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = p.Set(ctx, "k", []byte("much too large"), 14)
	require.NoError(t, err)
	require.False(t, ok)

	_, hit, _ := p.Get(ctx, "k")
	require.False(t, hit, "stale copy must not survive a rejected overwrite")
	require.Zero(t, evictions, "caller-initiated removal is not an eviction")
	require.EqualValues(t, 0, p.Bytes())
}

func TestPeekDoesNotRefreshRecency(t *testing.T) {
	ctx := context.Background()
	p := newLRU(t, Config{MaxEntries: 2})
	_, _ = p.Set(ctx, "a", []byte("1"), 1)
	_, _ = p.Set(ctx, "b", []byte("2"), 1)
	_, _ = p.Peek("a")
	_, _ = p.Set(ctx, "c", []byte("3"), 1)
	_, ok := p.Peek("a")
	require.False(t, ok)
}
