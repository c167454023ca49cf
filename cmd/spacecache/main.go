// Package main provides the spacecache CLI for inspecting and editing an
// on-disk spacecache.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
