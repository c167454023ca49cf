package diskstore

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/spacecache/internal/util"
)

func openStore(t *testing.T, root string, opts Options) *Store {
	t.Helper()
	if opts.SweepInterval == 0 {
		opts.SweepInterval = -1
	}
	s, err := Open(root, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func recPath(root, space, key string) string {
	return filepath.Join(root, dataDir, util.HashName(space), util.HashName(space, key)+recSuffix)
}

func TestSetGetDel(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, t.TempDir(), Options{})

	require.NoError(t, s.Set(ctx, "users", "u1", []byte("alice")))
	require.NoError(t, s.Set(ctx, "users", "u2", []byte("bob")))
	require.NoError(t, s.Set(ctx, "orders", "u1", []byte("order")))

	v, ok, err := s.Get(ctx, "users", "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("alice"), v)

	v, ok, err = s.Get(ctx, "orders", "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("order"), v)

	keys := s.Keys("users")
	sort.Strings(keys)
	assert.Equal(t, []string{"u1", "u2"}, keys)
	assert.Equal(t, 2, s.Len("users"))
	assert.Equal(t, []string{"orders", "users"}, s.Spaces())
	assert.True(t, s.Contains("users", "u2"))

	require.NoError(t, s.Del(ctx, "users", "u1"))
	require.NoError(t, s.Del(ctx, "users", "u1"))
	require.NoError(t, s.Del(ctx, "users", "missing"))
	_, ok, err = s.Get(ctx, "users", "u1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoFileExists(t, recPath(s.Root(), "users", "u1"))

	n, _ := s.Size()
	assert.Equal(t, 2, n)
}

func TestOverwriteKeepsAccounting(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, t.TempDir(), Options{})

	require.NoError(t, s.Set(ctx, "s", "k", []byte("short")))
	_, before := s.Size()
	require.NoError(t, s.Set(ctx, "s", "k", []byte("a considerably longer value")))
	n, after := s.Size()
	assert.Equal(t, 1, n)
	assert.Equal(t, before+int64(len("a considerably longer value")-len("short")), after)

	v, ok, err := s.Get(ctx, "s", "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a considerably longer value", string(v))
}

func TestEmptyValueAndEmptyNames(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, t.TempDir(), Options{})

	require.NoError(t, s.Set(ctx, "", "", []byte{}))
	v, ok, err := s.Get(ctx, "", "")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, v)
}

func TestPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	s, err := Open(root, Options{SweepInterval: -1})
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "a", "1", []byte("one")))
	require.NoError(t, s.Set(ctx, "b", "2", []byte("two")))
	require.NoError(t, s.Close())

	s = openStore(t, root, Options{})
	v, ok, err := s.Get(ctx, "a", "1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "one", string(v))
	assert.Equal(t, []string{"a", "b"}, s.Spaces())
}

func TestSecondOpenIsLocked(t *testing.T) {
	root := t.TempDir()
	_ = openStore(t, root, Options{})

	_, err := Open(root, Options{SweepInterval: -1})
	require.ErrorIs(t, err, ErrLocked)
}

func TestClosedStoreRejectsCalls(t *testing.T) {
	ctx := context.Background()
	s, err := Open(t.TempDir(), Options{SweepInterval: -1})
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	require.ErrorIs(t, s.Set(ctx, "s", "k", []byte("v")), ErrClosed)
	_, _, err = s.Get(ctx, "s", "k")
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, s.Del(ctx, "s", "k"), ErrClosed)
}

func TestRecoveryAfterInterruptedWrites(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	s, err := Open(root, Options{SweepInterval: -1})
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "s", "kept", []byte("old value")))
	require.NoError(t, s.Set(ctx, "s", "torn", []byte("this record will be cut short")))
	require.NoError(t, s.Close())

	// a write of "kept" that died before its rename
	kept := recPath(root, "s", "kept")
	tmp := kept + ".12345" + tmpSuffix
	require.NoError(t, os.WriteFile(tmp, []byte("SPCD partial"), 0o644))

	// a record torn by power loss without fsync
	torn := recPath(root, "s", "torn")
	st, err := os.Stat(torn)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(torn, st.Size()/2))

	var mu sync.Mutex
	var corrupt int
	s = openStore(t, root, Options{OnCorrupt: func(string, string, error) {
		mu.Lock()
		corrupt++
		mu.Unlock()
	}})

	v, ok, err := s.Get(ctx, "s", "kept")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "old value", string(v))

	assert.False(t, s.Contains("s", "torn"))
	assert.NoFileExists(t, tmp)
	assert.NoFileExists(t, torn)
	assert.Equal(t, 1, corrupt)
}

func TestCorruptRecordIsPurgedOnGet(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	var gotSpace, gotKey string
	s := openStore(t, root, Options{OnCorrupt: func(space, key string, err error) {
		gotSpace, gotKey = space, key
	}})
	require.NoError(t, s.Set(ctx, "s", "k", []byte("value")))

	p := recPath(root, "s", "k")
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	b[len(b)-10] ^= 0xff
	require.NoError(t, os.WriteFile(p, b, 0o644))

	_, ok, err := s.Get(ctx, "s", "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, s.Contains("s", "k"))
	assert.NoFileExists(t, p)
	assert.Equal(t, "s", gotSpace)
	assert.Equal(t, "k", gotKey)
}

func TestMisplacedRecordIsPurgedOnOpen(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	s, err := Open(root, Options{SweepInterval: -1})
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "s", "a", []byte("A")))
	require.NoError(t, s.Close())

	// copy a's record to where b would live
	b, err := os.ReadFile(recPath(root, "s", "a"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(recPath(root, "s", "b"), b, 0o644))

	s = openStore(t, root, Options{})
	assert.Equal(t, []string{"a"}, s.Keys("s"))
	assert.NoFileExists(t, recPath(root, "s", "b"))
}

func TestInlineEvictionByEntries(t *testing.T) {
	ctx := context.Background()

	var evicted []string
	s := openStore(t, t.TempDir(), Options{
		MaxEntries:  3,
		EvictInline: true,
		OnEvict:     func(space, key string, _ int64) { evicted = append(evicted, key) },
	})

	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, s.Set(ctx, "s", k, []byte(k)))
	}
	// touch a so b becomes the oldest
	_, ok, err := s.Get(ctx, "s", "a")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, s.Set(ctx, "s", "d", []byte("d")))

	assert.Equal(t, []string{"b"}, evicted)
	assert.Equal(t, 3, s.Len("s"))
	assert.False(t, s.Contains("s", "b"))
	assert.NoFileExists(t, recPath(s.Root(), "s", "b"))
}

func TestTrimByBytes(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, t.TempDir(), Options{MaxBytes: 200})

	val := bytes.Repeat([]byte("x"), 40)
	for _, k := range []string{"k1", "k2", "k3", "k4", "k5", "k6"} {
		require.NoError(t, s.Set(ctx, "s", k, val))
	}
	// writes over the bound also wake the sweeper, so Trim may find less to do
	_, err := s.Trim(ctx)
	require.NoError(t, err)

	_, size := s.Size()
	assert.LessOrEqual(t, size, int64(200))
	assert.False(t, s.Contains("s", "k1"))
	assert.True(t, s.Contains("s", "k6"))
}

func TestSweeperEnforcesBound(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, t.TempDir(), Options{MaxEntries: 2})

	for _, k := range []string{"a", "b", "c", "d"} {
		require.NoError(t, s.Set(ctx, "s", k, []byte(k)))
	}
	require.Eventually(t, func() bool {
		n, _ := s.Size()
		return n <= 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.True(t, s.Contains("s", "d"))
}

func TestReopenOrdersByModTime(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	s, err := Open(root, Options{SweepInterval: -1})
	require.NoError(t, err)
	for _, k := range []string{"new", "old", "mid"} {
		require.NoError(t, s.Set(ctx, "s", k, []byte(k)))
	}
	require.NoError(t, s.Close())

	base := time.Now().Add(-time.Hour)
	for i, k := range []string{"old", "mid", "new"} {
		ts := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(recPath(root, "s", k), ts, ts))
	}

	s = openStore(t, root, Options{MaxEntries: 1})
	_, err = s.Trim(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, s.Keys("s"))
}

func TestOversizedRecordRejected(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, t.TempDir(), Options{MaxBytes: 64})

	require.NoError(t, s.Set(ctx, "s", "k", []byte("small")))
	err := s.Set(ctx, "s", "k", bytes.Repeat([]byte("y"), 128))
	require.ErrorIs(t, err, ErrTooLarge)

	// the older copy must not survive the rejected overwrite
	_, ok, err := s.Get(ctx, "s", "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestZstdCompression(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s := openStore(t, root, Options{Compression: CompressionZstd, CompressMin: 64})

	big := bytes.Repeat([]byte("compressible "), 512)
	require.NoError(t, s.Set(ctx, "s", "big", big))
	require.NoError(t, s.Set(ctx, "s", "tiny", []byte("t")))

	st, err := os.Stat(recPath(root, "s", "big"))
	require.NoError(t, err)
	assert.Less(t, st.Size(), int64(len(big)))

	v, ok, err := s.Get(ctx, "s", "big")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, big, v)

	v, ok, err = s.Get(ctx, "s", "tiny")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("t"), v)
}

func TestCompressedRecordsReadableWithoutEncoder(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	s, err := Open(root, Options{Compression: CompressionZstd, SweepInterval: -1})
	require.NoError(t, err)
	big := bytes.Repeat([]byte("z"), 4096)
	require.NoError(t, s.Set(ctx, "s", "k", big))
	require.NoError(t, s.Close())

	s = openStore(t, root, Options{})
	v, ok, err := s.Get(ctx, "s", "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, big, v)
}

func TestDelSpace(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s := openStore(t, root, Options{})

	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, s.Set(ctx, "gone", k, []byte(k)))
	}
	require.NoError(t, s.Set(ctx, "stays", "a", []byte("a")))

	require.NoError(t, s.DelSpace(ctx, "gone"))
	require.NoError(t, s.DelSpace(ctx, "never-existed"))

	assert.Equal(t, 0, s.Len("gone"))
	assert.Equal(t, []string{"stays"}, s.Spaces())
	assert.NoDirExists(t, filepath.Join(root, dataDir, util.HashName("gone")))

	// the space is usable again afterwards
	require.NoError(t, s.Set(ctx, "gone", "x", []byte("x")))
	assert.True(t, s.Contains("gone", "x"))
}

func TestSyncModes(t *testing.T) {
	ctx := context.Background()
	for _, mode := range []SyncMode{SyncFull, Sync, SyncNone} {
		s := openStore(t, t.TempDir(), Options{Sync: mode})
		require.NoError(t, s.Set(ctx, "s", "k", []byte("v")))
		v, ok, err := s.Get(ctx, "s", "k")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "v", string(v))
	}
}

func TestCanceledContext(t *testing.T) {
	s := openStore(t, t.TempDir(), Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, s.Set(ctx, "s", "k", []byte("v")), context.Canceled)
	assert.False(t, s.Contains("s", "k"))
}

func TestConcurrentWritersSameKey(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, t.TempDir(), Options{Sync: SyncNone})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				_ = s.Set(ctx, "s", "hot", []byte{byte(i), byte(j)})
				_, _, _ = s.Get(ctx, "s", "hot")
			}
		}(i)
	}
	wg.Wait()

	v, ok, err := s.Get(ctx, "s", "hot")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, v, 2)
	n, _ := s.Size()
	assert.Equal(t, 1, n)
}
