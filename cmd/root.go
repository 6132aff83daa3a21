// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "parkgate",
	Short: "Parkgate - unattended parking barrier lane agent",
	Long: `Parkgate is the lane-side agent of an unattended parking barrier system.
It maintains framed TCP links to the entry and exit LPR cameras, exposes an
HTTP callback server for the Touch 'n Go payment gateway, and routes every
plate read, payment result and I/O signal through a single event bus.

Features:
  - Supervised camera links with fixed-period reconnect
  - Touch 'n Go PayRequest/PayCancel/ReaderCtrl gateway adapter
  - Strictly ordered per-connection callback dispatch
  - Prometheus metrics endpoint`,
	Version: "0.1.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "/etc/parkgate/config.yml",
		"config file path")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
}

// exitWithError prints error message and exits with code 1
func exitWithError(msg string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	}
	os.Exit(1)
}
