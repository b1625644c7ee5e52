// Package main is the entry point for the cafe-etl CLI.
package main

import (
	"os"

	"github.com/shunichi-ikebuchi/cafe-finance/cmd/cafe-etl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
