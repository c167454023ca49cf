package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var setCmd = &cobra.Command{
	Use:   "set SPACE KEY VALUE",
	Short: "Store a value",
	Long: `Store VALUE under KEY in SPACE, replacing any previous value.

Values are parsed according to --type. Times use RFC 3339, bytes use
standard base64 and objects are stored verbatim.

Examples:
  spacecache set users u:1:name Ada
  spacecache set users u:1:age 36 --type int64
  spacecache set users u:1 '{"name":"Ada"}' --type object`,
	Args: cobra.ExactArgs(3),
	RunE: runSet,
}

var setType string

func init() {
	setCmd.Flags().StringVarP(&setType, "type", "t", "string", "value type ("+typeNames()+")")
	rootCmd.AddCommand(setCmd)
}

func runSet(cmd *cobra.Command, args []string) error {
	vt, err := lookupType(setType)
	if err != nil {
		return err
	}

	cache, log, err := openCache()
	if err != nil {
		return err
	}
	defer log.Sync()
	defer cache.Close(context.Background())

	space := cache.Space(args[0])
	if err := vt.set(cmd.Context(), space, args[1], args[2]); err != nil {
		return fmt.Errorf("%s/%s: %w", space.Name(), args[1], err)
	}
	return nil
}
