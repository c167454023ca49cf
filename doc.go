// Package spacecache implements a two-tier key-value cache: a bounded
// in-memory tier in front of a persistent on-disk tier. Entries live in named
// spaces; the same key in two spaces names two independent entries.
//
// Components:
//   - Provider: memory tier byte store (LRU by default, or Ristretto, BigCache).
//   - diskstore: file-per-entry persistent tier with atomic replace,
//     checksums and least-recently-used eviction.
//   - codec: typed encoding. Every stored value carries a kind tag, so a read
//     with the wrong type is a miss rather than a misinterpretation.
//
// Writes go through to both tiers. Reads try memory, then disk; a disk hit is
// promoted into memory. If the disk fails the memory mutation still stands and
// a *DurabilityError tells the caller it was not persisted.
//
// Storage keys:
//
//	s:<len(space)>:<space>:<key>
//
// Usage:
//
//	c, err := spacecache.Open("myapp")
//	users := c.Space("users")
//	_ = users.SetString(ctx, "u:1:name", "Ada")
//	name := users.GetString(ctx, "u:1:name")
package spacecache
