// Package main is the entry point for the parkgate lane agent.
package main

import (
	"fmt"
	"os"

	"icc.tech/parkgate/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
