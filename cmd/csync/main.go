// Package main is the entry point for the csync CLI tool.
package main

import (
	"os"

	"github.com/aidanlsb/collectionsync/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
