package ristretto

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestSynchronousSetGetDel(t *testing.T) {
	ctx := context.Background()
	p, err := New(Config{NumCounters: 1000, MaxBytes: 1 << 20, Synchronous: true, Metrics: true})
	require.NoError(t, err)
	defer p.Close(ctx)

	ok, err := p.Set(ctx, "k", []byte("value"), 0)
	require.NoError(t, err)
	require.True(t, ok)

	v, hit, err := p.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, "value", string(v))

	require.NoError(t, p.Del(ctx, "k"))
	_, hit, _ = p.Get(ctx, "k")
	require.False(t, hit)
	require.NotNil(t, p.Metrics())
}

func TestEvictionsAreReported(t *testing.T) {
	ctx := context.Background()
	var (
		mu      sync.Mutex
		fromCfg []string
		fromReg []string
	)
	p, err := New(Config{
		NumCounters: 1000,
		MaxBytes:    100,
		Synchronous: true,
		OnEvict: func(key string, size int) {
			mu.Lock()
			fromCfg = append(fromCfg, fmt.Sprintf("%s/%d", key, size))
			mu.Unlock()
		},
	})
	require.NoError(t, err)
	defer p.Close(ctx)
	p.NotifyEvict(func(key string, _ int) {
		mu.Lock()
		fromReg = append(fromReg, key)
		mu.Unlock()
	})

	for i := 0; i < 20; i++ {
		_, err := p.Set(ctx, fmt.Sprintf("s:1:a:k%d", i), make([]byte, 40), 0)
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(fromCfg) > 0 && len(fromCfg) == len(fromReg)
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for _, k := range fromCfg {
		require.True(t, strings.HasPrefix(k, "s:1:a:k"), "callback got %q, want the storage key", k)
		require.True(t, strings.HasSuffix(k, "/40"), "callback got %q, want the value size", k)
	}
}
