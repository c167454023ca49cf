package util

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/spaolacci/murmur3"
)

const storagePrefix = "s:"

// StorageKey maps (space, key) to a single memory-tier key.
// Layout: s:<len(space)>:<space>:<key>. The length prefix keeps the mapping
// injective, so "a:b"/"c" and "a"/"b:c" never collide.
func StorageKey(space, key string) string {
	var b strings.Builder
	b.Grow(len(storagePrefix) + 4 + len(space) + 1 + len(key))
	b.WriteString(SpacePrefix(space))
	b.WriteString(key)
	return b.String()
}

// SpacePrefix returns the prefix shared by every storage key of space.
func SpacePrefix(space string) string {
	return storagePrefix + strconv.Itoa(len(space)) + ":" + space + ":"
}

// SplitStorageKey inverts StorageKey. ok is false for foreign keys.
func SplitStorageKey(sk string) (space, key string, ok bool) {
	if !strings.HasPrefix(sk, storagePrefix) {
		return "", "", false
	}
	rest := sk[len(storagePrefix):]
	i := strings.IndexByte(rest, ':')
	if i <= 0 {
		return "", "", false
	}
	n, err := strconv.Atoi(rest[:i])
	if err != nil || n < 0 {
		return "", "", false
	}
	rest = rest[i+1:]
	if len(rest) < n+1 || rest[n] != ':' {
		return "", "", false
	}
	return rest[:n], rest[n+1:], true
}

// HashName returns a path-safe 16 hex char digest of the given parts.
// Parts are separated by a NUL so ("ab","c") and ("a","bc") differ.
func HashName(parts ...string) string {
	d := xxhash.New()
	for i, p := range parts {
		if i > 0 {
			_, _ = d.Write([]byte{0})
		}
		_, _ = d.WriteString(p)
	}
	const hexdigits = "0123456789abcdef"
	sum := d.Sum64()
	var out [16]byte
	for i := 15; i >= 0; i-- {
		out[i] = hexdigits[sum&0xf]
		sum >>= 4
	}
	return string(out[:])
}

// Stripe picks one of n lock stripes for key.
func Stripe(key string, n int) int {
	if n <= 1 {
		return 0
	}
	return int(murmur3.Sum32([]byte(key)) % uint32(n))
}
