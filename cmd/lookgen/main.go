// Package main is the lookgen entry point.
package main

import (
	"os"

	"github.com/leapstack-labs/lookgen/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
