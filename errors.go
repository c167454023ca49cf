package spacecache

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by mutating operations after Close.
var ErrClosed = errors.New("spacecache: closed")

// EncodeError reports a value the codec could not encode. Nothing was written.
type EncodeError struct {
	Space string
	Key   string
	Kind  string
	Err   error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("spacecache: encode %s %q in space %q: %v", e.Kind, e.Key, e.Space, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// DurabilityError reports a write or remove that reached the memory tier but
// not the disk tier. The memory mutation stands: reads in this process see
// it, a restart may not.
type DurabilityError struct {
	Op    string // "set" or "remove"
	Space string
	Key   string
	Err   error
}

func (e *DurabilityError) Error() string {
	return fmt.Sprintf("spacecache: %s %q in space %q not persisted: %v", e.Op, e.Key, e.Space, e.Err)
}

func (e *DurabilityError) Unwrap() error { return e.Err }

// RemoveError reports a remove where at least one tier failed.
type RemoveError struct {
	Space   string
	Key     string
	MemErr  error
	DiskErr error
}

func (e *RemoveError) Error() string {
	switch {
	case e.MemErr != nil && e.DiskErr != nil:
		return fmt.Sprintf("spacecache: remove %q in space %q failed: memory=%v; disk=%v",
			e.Key, e.Space, e.MemErr, e.DiskErr)
	case e.MemErr != nil:
		return fmt.Sprintf("spacecache: remove %q in space %q: memory delete failed: %v", e.Key, e.Space, e.MemErr)
	case e.DiskErr != nil:
		return fmt.Sprintf("spacecache: remove %q in space %q: disk delete failed: %v", e.Key, e.Space, e.DiskErr)
	default:
		return fmt.Sprintf("spacecache: remove %q in space %q: unknown error", e.Key, e.Space)
	}
}

func (e *RemoveError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.MemErr != nil {
		errs = append(errs, e.MemErr)
	}
	if e.DiskErr != nil {
		errs = append(errs, e.DiskErr)
	}
	return errs
}
