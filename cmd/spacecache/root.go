package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/unkn0wn-root/spacecache"
	"github.com/unkn0wn-root/spacecache/diskstore"
	zaplog "github.com/unkn0wn-root/spacecache/log/zap"
	"github.com/unkn0wn-root/spacecache/stats/logger"
)

var (
	// Global flags.
	cacheName string
	cachePath string
	compress  bool
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "spacecache",
	Short: "Inspect and edit a two-tier spacecache on disk",
	Long: `spacecache reads and writes the persistent tier of a spacecache.

The cache is selected by name (under the user cache directory) or by path.
Only one process may have a cache open at a time.

Examples:
  # List spaces of the cache named "myapp"
  spacecache spaces -n myapp

  # Store and read a value
  spacecache set users u:1:name Ada -p ./cache
  spacecache get users u:1:name -p ./cache

  # Show usage
  spacecache stats -p ./cache`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cacheName, "name", "n", spacecache.DefaultName, "cache name under the user cache directory")
	rootCmd.PersistentFlags().StringVarP(&cachePath, "path", "p", "", "cache directory (overrides --name)")
	rootCmd.PersistentFlags().BoolVar(&compress, "compress", false, "zstd-compress large values on write")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

func newLogger() (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	return zap.NewDevelopment()
}

// openCache opens the selected cache. The caller closes it.
func openCache() (*spacecache.Cache, *zap.Logger, error) {
	log, err := newLogger()
	if err != nil {
		return nil, nil, fmt.Errorf("creating logger: %w", err)
	}

	opts := spacecache.Options{
		Name:       cacheName,
		Path:       cachePath,
		DiskLogger: log.Named("disk"),
		Logger:     zaplog.ZapLogger{L: log},
		Stats:      logger.New(log.Named("stats"), cacheName),
	}
	if compress {
		opts.Compression = diskstore.CompressionZstd
	}

	cache, err := spacecache.New(opts)
	if err != nil {
		_ = log.Sync()
		return nil, nil, fmt.Errorf("opening cache: %w", err)
	}
	return cache, log, nil
}
