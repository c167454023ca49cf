package diskstore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/unkn0wn-root/spacecache/internal/util"
	"github.com/unkn0wn-root/spacecache/internal/wire"
)

type scanned struct {
	e     *entry
	mtime time.Time
}

type scanResult struct {
	found   []scanned
	temps   int
	purged  int
	skipped int
}

// load rebuilds the index from the data directory. Space directories are
// scanned in parallel. Entries are ordered by mtime so the least recently
// written ones are evicted first after a restart.
func (s *Store) load() error {
	dirs, err := os.ReadDir(s.data)
	if err != nil {
		return fmt.Errorf("diskstore: read %s: %w", s.data, err)
	}

	var (
		g   errgroup.Group
		mu  sync.Mutex
		all scanResult
	)
	g.SetLimit(s.opts.ScanWorkers)
	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		name := d.Name()
		g.Go(func() error {
			res, err := s.scanDir(name)
			if err != nil {
				return err
			}
			mu.Lock()
			all.found = append(all.found, res.found...)
			all.temps += res.temps
			all.purged += res.purged
			all.skipped += res.skipped
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	sort.Slice(all.found, func(i, j int) bool {
		return all.found[i].mtime.Before(all.found[j].mtime)
	})
	for _, sc := range all.found {
		s.seq++
		sc.e.seq = s.seq
		sc.e.elem = s.lru.PushFront(sc.e)
		s.insertLocked(sc.e)
	}

	s.log.Debug("index loaded",
		zap.Int("entries", len(s.files)),
		zap.Int64("bytes", s.bytes),
		zap.Int("temps_removed", all.temps),
		zap.Int("records_purged", all.purged),
		zap.Int("unknown_skipped", all.skipped))
	return nil
}

func (s *Store) scanDir(dirName string) (scanResult, error) {
	var res scanResult
	dir := filepath.Join(s.data, dirName)
	files, err := os.ReadDir(dir)
	if err != nil {
		return res, fmt.Errorf("diskstore: read %s: %w", dir, err)
	}

	for _, f := range files {
		name := f.Name()
		p := filepath.Join(dir, name)
		switch {
		case f.IsDir():
			res.skipped++
		case strings.HasSuffix(name, tmpSuffix):
			// an interrupted write; the previous record, if any, is intact
			if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
				s.log.Warn("remove temp file", zap.String("file", p), zap.Error(err))
			}
			res.temps++
		case strings.HasSuffix(name, recSuffix):
			h, size, mtime, err := readHeader(p)
			if err == nil && (util.HashName(h.Space) != dirName || util.HashName(h.Space, h.Key)+recSuffix != name) {
				err = fmt.Errorf("%w: misplaced record", wire.ErrCorrupt)
			}
			if err != nil {
				if !errors.Is(err, wire.ErrCorrupt) {
					return res, err
				}
				s.log.Warn("purging invalid record", zap.String("file", p), zap.Error(err))
				if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
					return res, fmt.Errorf("diskstore: remove %s: %w", p, err)
				}
				if s.opts.OnCorrupt != nil {
					s.opts.OnCorrupt(h.Space, h.Key, err)
				}
				res.purged++
				continue
			}
			res.found = append(res.found, scanned{
				e: &entry{
					space: h.Space,
					key:   h.Key,
					rel:   filepath.Join(dirName, name),
					size:  size,
				},
				mtime: mtime,
			})
		default:
			res.skipped++
		}
	}

	if len(res.found) == 0 {
		_ = os.Remove(dir) // only when empty
	}
	return res, nil
}

// readHeader reads the record prefix and checks the announced size against
// the file size. Torn writes fail here; checksums are verified on Get.
func readHeader(p string) (wire.Header, int64, time.Time, error) {
	f, err := os.Open(p)
	if err != nil {
		return wire.Header{}, 0, time.Time{}, fmt.Errorf("diskstore: open %s: %w", p, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return wire.Header{}, 0, time.Time{}, fmt.Errorf("diskstore: stat %s: %w", p, err)
	}

	fixed := make([]byte, wire.HeaderSize)
	if _, err := io.ReadFull(f, fixed); err != nil {
		return wire.Header{}, 0, time.Time{}, fmt.Errorf("%w: short header", wire.ErrCorrupt)
	}
	n, err := wire.NamesLen(fixed)
	if err != nil {
		return wire.Header{}, 0, time.Time{}, err
	}
	buf := make([]byte, wire.HeaderSize+n)
	copy(buf, fixed)
	if _, err := io.ReadFull(f, buf[wire.HeaderSize:]); err != nil {
		return wire.Header{}, 0, time.Time{}, fmt.Errorf("%w: short names", wire.ErrCorrupt)
	}
	h, err := wire.DecodeHeader(buf)
	if err != nil {
		return wire.Header{}, 0, time.Time{}, err
	}
	if h.Size() != st.Size() {
		return h, 0, time.Time{}, fmt.Errorf("%w: size %d, header announces %d", wire.ErrCorrupt, st.Size(), h.Size())
	}
	return h, st.Size(), st.ModTime(), nil
}
