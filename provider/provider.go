// Package provider defines the memory tier used by spacecache.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly the
// same []byte that was previously passed to Set for a key (no prepended/appended
// metadata, no re-encoding, no mutation).
//
// Keys handed to a provider are storage keys of the form "s:<len>:<space>:<key>"
// and are owned by spacecache. A provider may be bounded and may drop entries at
// any time; the disk tier remains the source of truth.
package provider

import "context"

// Provider is a bounded in-process byte store.
// Must be safe for concurrent use.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value. cost is the caller's size estimate (len(value) in
	// spacecache) and may be ignored. Returns ok=false when the store declined
	// the write (admission policy, entry larger than the whole tier).
	Set(ctx context.Context, key string, value []byte, cost int64) (ok bool, err error)

	// Del removes a key. Deleting an absent key is not an error.
	Del(ctx context.Context, key string) error

	// Close releases resources.
	Close(ctx context.Context) error
}

// Peeker is implemented by providers that can look up a key without
// refreshing its recency.
type Peeker interface {
	Peek(key string) ([]byte, bool)
}

// Lener is implemented by providers that can report their entry count.
type Lener interface {
	Len() int
}

// EvictNotifier is implemented by providers that can report entries they
// drop on their own to satisfy a bound. spacecache registers its eviction
// accounting through it when a provider is passed in Options.Memory. fn may
// run with the provider's internal locks held and must not call back into
// the provider.
type EvictNotifier interface {
	NotifyEvict(fn func(key string, size int))
}
