package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var keysCmd = &cobra.Command{
	Use:   "keys SPACE",
	Short: "List the keys of a space",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeys,
}

var countCmd = &cobra.Command{
	Use:   "count SPACE",
	Short: "Print the number of keys in a space",
	Args:  cobra.ExactArgs(1),
	RunE:  runCount,
}

func init() {
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(countCmd)
}

func runKeys(cmd *cobra.Command, args []string) error {
	cache, log, err := openCache()
	if err != nil {
		return err
	}
	defer log.Sync()
	defer cache.Close(context.Background())

	keys := cache.Space(args[0]).AllKeys(cmd.Context())
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintln(cmd.OutOrStdout(), k)
	}
	return nil
}

func runCount(cmd *cobra.Command, args []string) error {
	cache, log, err := openCache()
	if err != nil {
		return err
	}
	defer log.Sync()
	defer cache.Close(context.Background())

	fmt.Fprintln(cmd.OutOrStdout(), cache.Space(args[0]).Count(cmd.Context()))
	return nil
}
