package spacecache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

// spaceName resolves the empty space name to DefaultSpace.
func spaceName(space string) string { return coalesce(space, DefaultSpace) }

// resolveRoot picks the storage directory: an explicit path wins, otherwise
// the name is placed under the user cache directory.
func resolveRoot(name, path string) (string, error) {
	if path != "" {
		return path, nil
	}
	name = coalesce(name, DefaultName)
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("spacecache: invalid cache name %q", name)
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("spacecache: resolve cache dir: %w", err)
	}
	return filepath.Join(base, "spacecache", name), nil
}
