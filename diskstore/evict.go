package diskstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

func (s *Store) overBound() bool {
	return (s.opts.MaxEntries > 0 && len(s.files) > s.opts.MaxEntries) ||
		(s.opts.MaxBytes > 0 && s.bytes > s.opts.MaxBytes)
}

func (s *Store) wake() {
	select {
	case s.sweepCh <- struct{}{}:
	default:
	}
}

// Trim evicts least recently used entries until both bounds hold and returns
// how many were removed.
func (s *Store) Trim(ctx context.Context) (int, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	evicted := 0
	for {
		if err := ctx.Err(); err != nil {
			return evicted, err
		}

		s.mu.Lock()
		if !s.overBound() {
			s.mu.Unlock()
			return evicted, nil
		}
		back := s.lru.Back()
		if back == nil {
			s.mu.Unlock()
			return evicted, nil
		}
		victim := back.Value.(*entry)
		rel, seq := victim.rel, victim.seq
		s.mu.Unlock()

		mu := s.stripe(rel)
		mu.Lock()
		s.mu.Lock()
		cur := s.files[rel]
		s.mu.Unlock()
		if cur == nil || cur.seq != seq {
			// rewritten or removed meanwhile; look again
			mu.Unlock()
			continue
		}
		if err := os.Remove(s.path(rel)); err != nil && !errors.Is(err, os.ErrNotExist) {
			mu.Unlock()
			return evicted, fmt.Errorf("diskstore: evict: %w", err)
		}
		s.mu.Lock()
		s.unindexLocked(cur)
		s.mu.Unlock()
		mu.Unlock()

		evicted++
		if s.opts.OnEvict != nil {
			s.opts.OnEvict(cur.space, cur.key, cur.size)
		}
	}
}

func (s *Store) sweepLoop() {
	defer s.wg.Done()

	var tick <-chan time.Time
	if s.opts.SweepInterval > 0 {
		t := time.NewTicker(s.opts.SweepInterval)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-s.stopCh:
			return
		case <-tick:
		case <-s.sweepCh:
		}
		n, err := s.Trim(context.Background())
		if err != nil && !errors.Is(err, ErrClosed) {
			s.log.Warn("sweep failed", zap.Int("evicted", n), zap.Error(err))
			continue
		}
		if n > 0 {
			s.log.Debug("sweep evicted entries", zap.Int("evicted", n))
		}
	}
}
