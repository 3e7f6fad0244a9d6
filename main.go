// Package main is the entry point for the bogglefinder server and CLI.
package main

import (
	"os"

	"github.com/robalobadob/bogglefinder/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
