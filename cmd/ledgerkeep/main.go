// Package main is the entry point for the ledgerkeep CLI.
package main

import (
	"os"

	"github.com/ledgerkeep/ledgerkeep/cmd/ledgerkeep/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
