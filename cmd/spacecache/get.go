package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get SPACE KEY",
	Short: "Print a value",
	Long: `Print the value stored under KEY in SPACE.

With the default type "auto" the stored kind decides how the value is
printed. Objects are printed as text when they hold valid UTF-8 and as
base64 otherwise. A missing key exits with an error.

Examples:
  spacecache get users u:1:name
  spacecache get users u:1:age --type int64`,
	Args: cobra.ExactArgs(2),
	RunE: runGet,
}

var (
	getType  string
	showKind bool
)

func init() {
	getCmd.Flags().StringVarP(&getType, "type", "t", "auto", "value type ("+typeNames()+" or auto)")
	getCmd.Flags().BoolVar(&showKind, "kind", false, "print the stored kind before the value")
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	cache, log, err := openCache()
	if err != nil {
		return err
	}
	defer log.Sync()
	defer cache.Close(context.Background())

	ctx := cmd.Context()
	space, key := cache.Space(args[0]), args[1]

	kind, ok := space.Kind(ctx, key)
	if !ok {
		return fmt.Errorf("%s/%s: not found", space.Name(), key)
	}

	vt, ok := typeFor(kind)
	if getType != "auto" {
		if vt, err = lookupType(getType); err != nil {
			return err
		}
	} else if !ok {
		return fmt.Errorf("%s/%s: unsupported kind %s", space.Name(), key, kind)
	}

	out, ok := vt.get(ctx, space, key)
	if !ok {
		return fmt.Errorf("%s/%s: stored as %s", space.Name(), key, kind)
	}
	if showKind {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t", kind)
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
