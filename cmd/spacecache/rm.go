package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:   "rm SPACE KEY...",
	Short: "Remove keys from a space",
	Long: `Remove one or more keys from SPACE. Missing keys are ignored.

Examples:
  spacecache rm users u:1:name u:1:age`,
	Args: cobra.MinimumNArgs(2),
	RunE: runRm,
}

var clearCmd = &cobra.Command{
	Use:   "clear SPACE",
	Short: "Remove every key of a space",
	Args:  cobra.ExactArgs(1),
	RunE:  runClear,
}

func init() {
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(clearCmd)
}

func runRm(cmd *cobra.Command, args []string) error {
	cache, log, err := openCache()
	if err != nil {
		return err
	}
	defer log.Sync()
	defer cache.Close(context.Background())

	if err := cache.Space(args[0]).RemoveKeys(cmd.Context(), args[1:]); err != nil {
		return fmt.Errorf("removing keys: %w", err)
	}
	return nil
}

func runClear(cmd *cobra.Command, args []string) error {
	cache, log, err := openCache()
	if err != nil {
		return err
	}
	defer log.Sync()
	defer cache.Close(context.Background())

	space := cache.Space(args[0])
	n := space.Count(cmd.Context())
	if err := space.RemoveAll(cmd.Context()); err != nil {
		return fmt.Errorf("clearing %s: %w", space.Name(), err)
	}
	if verbose {
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d keys from %s\n", n, space.Name())
	}
	return nil
}
