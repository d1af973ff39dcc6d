// Package main provides the entry point for the perg CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/perg/cmd/perg/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
