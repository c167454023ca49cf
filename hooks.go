package spacecache

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The cache calls them on hot paths, some with a stripe lock held.
type Hooks interface {
	// A read did not return a stored entry.
	// reason ∈ {"corrupt", "kind_mismatch", "value_decode"}
	// Only "corrupt" entries are deleted; the others stay for readers of the
	// right type.
	SelfHeal(storageKey, reason string)

	// The disk tier failed; the memory tier still serves the key.
	// op ∈ {"get", "set", "remove"}
	DiskFailure(op, storageKey string, err error)

	// A value could not be encoded and was not written.
	EncodeFailure(storageKey, kind string, err error)

	// The memory tier returned ok=false on Set (admission or size).
	MemoryRejected(storageKey string)

	// An entry was dropped to keep a tier within its bounds.
	// tier ∈ {"memory", "disk"}
	Evicted(tier, storageKey string)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) SelfHeal(string, string)             {}
func (NopHooks) DiskFailure(string, string, error)   {}
func (NopHooks) EncodeFailure(string, string, error) {}
func (NopHooks) MemoryRejected(string)               {}
func (NopHooks) Evicted(string, string)              {}
