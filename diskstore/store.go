// Package diskstore is the persistent tier of spacecache: one file per entry
// under a root directory, written atomically and validated on read.
//
// Layout:
//
//	root/LOCK                                  exclusive process lock
//	root/data/<hash(space)>/<hash(space,key)>.rec
//
// Each .rec file holds a wire record carrying the space and key it belongs
// to, so hash collisions and misplaced files are detected rather than served.
// The index is rebuilt from record headers on Open; leftover temp files from
// interrupted writes are removed and torn or foreign records are purged.
package diskstore

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/unkn0wn-root/spacecache/internal/util"
	"github.com/unkn0wn-root/spacecache/internal/wire"
)

const (
	dataDir   = "data"
	lockFile  = "LOCK"
	recSuffix = ".rec"
	tmpSuffix = ".tmp"

	numStripes = 64
)

var (
	ErrClosed   = errors.New("diskstore: closed")
	ErrLocked   = errors.New("diskstore: directory is locked by another process")
	ErrTooLarge = errors.New("diskstore: record exceeds MaxBytes")
)

type entry struct {
	space string
	key   string
	rel   string // <hash(space)>/<hash(space,key)>.rec
	size  int64
	seq   uint64 // bumped on every write of the file
	elem  *list.Element
}

// Store is safe for concurrent use. Writes to the same file are serialized by
// a striped lock; the index has its own mutex and is never held across I/O.
type Store struct {
	root string
	data string
	opts Options
	log  *zap.Logger

	lock *flock.Flock
	enc  *zstd.Encoder
	dec  *zstd.Decoder

	stripes [numStripes]sync.Mutex

	mu     sync.Mutex
	files  map[string]*entry            // rel -> entry
	spaces map[string]map[string]*entry // space -> key -> entry
	lru    *list.List                   // front = most recently used
	bytes  int64
	seq    uint64

	sweepCh   chan struct{}
	stopCh    chan struct{}
	wg        sync.WaitGroup
	closed    atomic.Bool
	closeOnce sync.Once
}

// Open creates root if needed, locks it, rebuilds the index and starts the
// background sweeper. Only one Store may have a root open at a time.
func Open(root string, opts Options) (*Store, error) {
	if root == "" {
		return nil, errors.New("diskstore: empty root")
	}
	opts = opts.withDefaults()
	s := &Store{
		root:    root,
		data:    filepath.Join(root, dataDir),
		opts:    opts,
		log:     opts.Logger.With(zap.String("root", root)),
		files:   make(map[string]*entry),
		spaces:  make(map[string]map[string]*entry),
		lru:     list.New(),
		sweepCh: make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
	}

	if err := os.MkdirAll(s.data, 0o755); err != nil {
		return nil, fmt.Errorf("diskstore: create %s: %w", s.data, err)
	}

	s.lock = flock.New(filepath.Join(root, lockFile))
	locked, err := s.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("diskstore: lock %s: %w", root, err)
	}
	if !locked {
		return nil, ErrLocked
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = s.lock.Unlock()
		return nil, fmt.Errorf("diskstore: zstd decoder: %w", err)
	}
	s.dec = dec
	if opts.Compression == CompressionZstd {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			s.dec.Close()
			_ = s.lock.Unlock()
			return nil, fmt.Errorf("diskstore: zstd encoder: %w", err)
		}
		s.enc = enc
	}

	if err := s.load(); err != nil {
		s.release()
		return nil, err
	}

	s.wg.Add(1)
	go s.sweepLoop()

	if s.overBound() {
		s.wake()
	}
	return s, nil
}

// Get returns the value stored for (space, key). A record that fails
// validation is purged and reported as a miss.
func (s *Store) Get(ctx context.Context, space, key string) ([]byte, bool, error) {
	if s.closed.Load() {
		return nil, false, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	e := s.lookupLocked(space, key)
	var rel string
	var seq uint64
	if e != nil {
		rel, seq = e.rel, e.seq
	}
	s.mu.Unlock()
	if e == nil {
		return nil, false, nil
	}

	b, err := os.ReadFile(s.path(rel))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// removed underneath us, by eviction or by hand
			s.dropIfSeq(rel, seq)
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("diskstore: read: %w", err)
	}

	value, err := s.decode(b, space, key)
	if err != nil {
		s.purge(rel, seq, space, key, err)
		return nil, false, nil
	}

	s.mu.Lock()
	if cur := s.files[rel]; cur != nil && cur.seq == seq {
		s.lru.MoveToFront(cur.elem)
	}
	s.mu.Unlock()
	return value, true, nil
}

func (s *Store) decode(b []byte, space, key string) ([]byte, error) {
	rec, err := wire.DecodeRecord(b)
	if err != nil {
		return nil, err
	}
	if rec.Space != space || rec.Key != key {
		return nil, fmt.Errorf("%w: record belongs to %q/%q", wire.ErrCorrupt, rec.Space, rec.Key)
	}
	if rec.Flags&wire.FlagZstd == 0 {
		return rec.Value, nil
	}
	v, err := s.dec.DecodeAll(rec.Value, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %v", wire.ErrCorrupt, err)
	}
	return v, nil
}

// Set persists value for (space, key). It returns only after the record is
// in place according to the configured SyncMode.
func (s *Store) Set(ctx context.Context, space, key string, value []byte) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	rec := wire.Record{Space: space, Key: key, Value: value}
	if s.enc != nil && len(value) >= s.opts.CompressMin {
		if c := s.enc.EncodeAll(value, nil); len(c) < len(value) {
			rec.Value = c
			rec.Flags |= wire.FlagZstd
		}
	}
	b, err := wire.EncodeRecord(rec)
	if err != nil {
		return err
	}

	dirName := util.HashName(space)
	rel := filepath.Join(dirName, util.HashName(space, key)+recSuffix)

	mu := s.stripe(rel)
	mu.Lock()

	if s.opts.MaxBytes > 0 && int64(len(b)) > s.opts.MaxBytes {
		// an older copy must not outlive a rejected overwrite
		err := s.removeLocked(rel, space, key)
		mu.Unlock()
		if err != nil {
			return errors.Join(ErrTooLarge, err)
		}
		return ErrTooLarge
	}

	if err := s.writeFile(ctx, filepath.Join(s.data, dirName), filepath.Base(rel), b); err != nil {
		mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.indexLocked(space, key, rel, int64(len(b)))
	over := s.overBound()
	s.mu.Unlock()
	mu.Unlock()

	if over {
		if s.opts.EvictInline {
			if _, err := s.Trim(ctx); err != nil {
				s.log.Warn("inline eviction failed", zap.Error(err))
			}
		} else {
			s.wake()
		}
	}
	return nil
}

// writeFile writes b to dir/name through a temp file and a rename.
func (s *Store) writeFile(ctx context.Context, dir, name string, b []byte) error {
	f, err := os.CreateTemp(dir, name+".*"+tmpSuffix)
	if errors.Is(err, os.ErrNotExist) {
		// first write to the space, or DelSpace removed the directory
		if err = os.MkdirAll(dir, 0o755); err == nil {
			f, err = os.CreateTemp(dir, name+".*"+tmpSuffix)
		}
	}
	if err != nil {
		return fmt.Errorf("diskstore: create temp: %w", err)
	}
	tmp := f.Name()
	fail := func(err error) error {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}

	if _, err := f.Write(b); err != nil {
		return fail(fmt.Errorf("diskstore: write: %w", err))
	}
	if s.opts.Sync != SyncNone {
		if err := f.Sync(); err != nil {
			return fail(fmt.Errorf("diskstore: fsync: %w", err))
		}
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("diskstore: close: %w", err)
	}
	if err := ctx.Err(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, filepath.Join(dir, name)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("diskstore: rename: %w", err)
	}
	if s.opts.Sync == SyncFull {
		if err := syncDir(dir); err != nil {
			return fmt.Errorf("diskstore: fsync dir: %w", err)
		}
	}
	return nil
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}

// Del removes (space, key). Removing an absent key is not an error.
func (s *Store) Del(ctx context.Context, space, key string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	rel := filepath.Join(util.HashName(space), util.HashName(space, key)+recSuffix)
	mu := s.stripe(rel)
	mu.Lock()
	defer mu.Unlock()
	return s.removeLocked(rel, space, key)
}

// removeLocked deletes the file for (space, key) and drops it from the index.
// The caller holds the stripe lock for rel. A file owned by a different key
// is left alone.
func (s *Store) removeLocked(rel, space, key string) error {
	s.mu.Lock()
	e := s.files[rel]
	s.mu.Unlock()
	if e == nil || e.space != space || e.key != key {
		return nil
	}
	if err := os.Remove(s.path(rel)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("diskstore: remove: %w", err)
	}
	s.mu.Lock()
	s.unindexLocked(e)
	s.mu.Unlock()
	return nil
}

// DelSpace removes every entry of space. It keeps going after individual
// failures and returns them joined.
func (s *Store) DelSpace(ctx context.Context, space string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	s.mu.Lock()
	victims := make([]*entry, 0, len(s.spaces[space]))
	for _, e := range s.spaces[space] {
		victims = append(victims, e)
	}
	s.mu.Unlock()

	var errs []error
	for _, e := range victims {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		mu := s.stripe(e.rel)
		mu.Lock()
		if err := s.removeLocked(e.rel, e.space, e.key); err != nil {
			errs = append(errs, err)
		}
		mu.Unlock()
	}
	if len(errs) == 0 {
		// only succeeds when empty; a concurrent Set recreates it
		_ = os.Remove(filepath.Join(s.data, util.HashName(space)))
	}
	return errors.Join(errs...)
}

// Keys returns the keys of space in no particular order.
func (s *Store) Keys(space string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.spaces[space]
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// Len returns the number of entries in space.
func (s *Store) Len(space string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.spaces[space])
}

// Contains reports whether (space, key) is indexed. It does not read or
// validate the record.
func (s *Store) Contains(space, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookupLocked(space, key) != nil
}

// Spaces returns the names of spaces holding at least one entry, sorted.
func (s *Store) Spaces() []string {
	s.mu.Lock()
	out := make([]string, 0, len(s.spaces))
	for name, m := range s.spaces {
		if len(m) > 0 {
			out = append(out, name)
		}
	}
	s.mu.Unlock()
	sort.Strings(out)
	return out
}

// Size returns the total entry count and record bytes.
func (s *Store) Size() (int, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files), s.bytes
}

// Root returns the directory the store was opened on.
func (s *Store) Root() string { return s.root }

// Close stops the sweeper and releases the directory lock. Close is
// idempotent.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.stopCh)
		s.wg.Wait()
		err = s.release()
	})
	return err
}

func (s *Store) release() error {
	var errs []error
	if s.enc != nil {
		errs = append(errs, s.enc.Close())
	}
	if s.dec != nil {
		s.dec.Close()
	}
	if s.lock != nil {
		errs = append(errs, s.lock.Unlock())
	}
	return errors.Join(errs...)
}

func (s *Store) path(rel string) string { return filepath.Join(s.data, rel) }

func (s *Store) stripe(rel string) *sync.Mutex {
	return &s.stripes[util.Stripe(rel, numStripes)]
}

func (s *Store) lookupLocked(space, key string) *entry {
	return s.spaces[space][key]
}

// indexLocked records a fresh write. A different key that hashed to the same
// file has just been overwritten and is dropped.
func (s *Store) indexLocked(space, key, rel string, size int64) {
	s.seq++
	if e := s.files[rel]; e != nil {
		if e.space == space && e.key == key {
			s.bytes += size - e.size
			e.size = size
			e.seq = s.seq
			s.lru.MoveToFront(e.elem)
			return
		}
		s.unindexLocked(e)
	}
	e := &entry{space: space, key: key, rel: rel, size: size, seq: s.seq}
	e.elem = s.lru.PushFront(e)
	s.insertLocked(e)
}

func (s *Store) insertLocked(e *entry) {
	s.files[e.rel] = e
	m := s.spaces[e.space]
	if m == nil {
		m = make(map[string]*entry)
		s.spaces[e.space] = m
	}
	m[e.key] = e
	s.bytes += e.size
}

func (s *Store) unindexLocked(e *entry) {
	if s.files[e.rel] != e {
		return
	}
	delete(s.files, e.rel)
	if m := s.spaces[e.space]; m != nil {
		delete(m, e.key)
		if len(m) == 0 {
			delete(s.spaces, e.space)
		}
	}
	s.lru.Remove(e.elem)
	s.bytes -= e.size
}

func (s *Store) dropIfSeq(rel string, seq uint64) {
	s.mu.Lock()
	if e := s.files[rel]; e != nil && e.seq == seq {
		s.unindexLocked(e)
	}
	s.mu.Unlock()
}

// purge removes a record that failed validation, unless it was rewritten
// since it was read.
func (s *Store) purge(rel string, seq uint64, space, key string, cause error) {
	mu := s.stripe(rel)
	mu.Lock()
	s.mu.Lock()
	e := s.files[rel]
	stale := e != nil && e.seq == seq
	s.mu.Unlock()
	if stale {
		if err := os.Remove(s.path(rel)); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("remove corrupt record", zap.String("file", rel), zap.Error(err))
		}
		s.dropIfSeq(rel, seq)
	}
	mu.Unlock()

	if !stale {
		return
	}
	s.log.Warn("purged corrupt record",
		zap.String("space", space), zap.String("key", key), zap.String("file", rel), zap.Error(cause))
	if s.opts.OnCorrupt != nil {
		s.opts.OnCorrupt(space, key, cause)
	}
}
