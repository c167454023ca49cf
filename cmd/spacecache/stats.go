package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var spacesCmd = &cobra.Command{
	Use:   "spaces",
	Short: "List spaces with their key counts",
	Args:  cobra.NoArgs,
	RunE:  runSpaces,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show disk usage of the cache",
	Long: `Display disk usage of the cache including:
- Number of spaces
- Number of stored entries
- Total size on disk`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

var flush bool

func init() {
	statsCmd.Flags().BoolVar(&flush, "flush", false, "run pending disk eviction first")
	rootCmd.AddCommand(spacesCmd)
	rootCmd.AddCommand(statsCmd)
}

func runSpaces(cmd *cobra.Command, args []string) error {
	cache, log, err := openCache()
	if err != nil {
		return err
	}
	defer log.Sync()
	defer cache.Close(context.Background())

	ctx := cmd.Context()
	for _, name := range cache.Spaces(ctx) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", name, cache.Count(ctx, name))
	}
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	cache, log, err := openCache()
	if err != nil {
		return err
	}
	defer log.Sync()
	defer cache.Close(context.Background())

	ctx := cmd.Context()
	if flush {
		if err := cache.Flush(ctx); err != nil {
			return fmt.Errorf("flushing: %w", err)
		}
	}

	st := cache.Stats()
	if st.DiskEntries == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Cache is empty.")
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Spaces:     %d\n", len(cache.Spaces(ctx)))
	fmt.Fprintf(cmd.OutOrStdout(), "Entries:    %d\n", st.DiskEntries)
	fmt.Fprintf(cmd.OutOrStdout(), "Total size: %s\n", formatBytes(st.DiskBytes))
	if st.Corrupt > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Purged:     %d corrupt records\n", st.Corrupt)
	}
	return nil
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
