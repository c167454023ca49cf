package bigcache

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func newProvider(t *testing.T) *Provider {
	t.Helper()
	p, err := New(context.Background(), Config{
		Shards:             16,
		MaxEntriesInWindow: 1000,
		MaxEntrySize:       256,
		HardMaxCacheSizeMB: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close(context.Background()) })
	return p
}

func TestSetGetDel(t *testing.T) {
	ctx := context.Background()
	p := newProvider(t)

	ok, err := p.Set(ctx, "s:1:a:k", []byte("v1"), 2)
	require.NoError(t, err)
	require.True(t, ok)

	v, hit, err := p.Get(ctx, "s:1:a:k")
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, "v1", string(v))
	require.Equal(t, 1, p.Len())

	require.NoError(t, p.Del(ctx, "s:1:a:k"))
	require.NoError(t, p.Del(ctx, "s:1:a:k"), "deleting an absent key is a no-op")

	_, hit, err = p.Get(ctx, "s:1:a:k")
	require.NoError(t, err)
	require.False(t, hit)
}

func TestOverwriteReturnsLatest(t *testing.T) {
	ctx := context.Background()
	p := newProvider(t)
	_, _ = p.Set(ctx, "k", []byte("old"), 3)
	_, _ = p.Set(ctx, "k", []byte("new"), 3)
	v, hit, err := p.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, "new", string(v))
}

func TestEvictionsAreReportedButDeletesAreNot(t *testing.T) {
	ctx := context.Background()
	var (
		mu      sync.Mutex
		evicted []string
		noticed int
	)
	p, err := New(ctx, Config{
		Shards:             1,
		MaxEntriesInWindow: 16,
		MaxEntrySize:       64 << 10,
		HardMaxCacheSizeMB: 1,
		OnEvict: func(key string, size int) {
			mu.Lock()
			evicted = append(evicted, key)
			mu.Unlock()
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close(ctx) })
	p.NotifyEvict(func(string, int) {
		mu.Lock()
		noticed++
		mu.Unlock()
	})

	_, _ = p.Set(ctx, "gone", []byte("x"), 1)
	require.NoError(t, p.Del(ctx, "gone"))

	value := make([]byte, 64<<10)
	for i := 0; i < 40; i++ {
		ok, err := p.Set(ctx, fmt.Sprintf("s:1:a:k%02d", i), value, int64(len(value)))
		require.NoError(t, err)
		require.True(t, ok)
	}

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, evicted)
	require.Equal(t, len(evicted), noticed)
	require.NotContains(t, evicted, "gone", "deletes must not count as evictions")
	require.Equal(t, "s:1:a:k00", evicted[0], "oldest entry goes first")
}
