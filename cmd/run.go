package cmd

import (
	"github.com/spf13/cobra"

	"icc.tech/parkgate/internal/daemon"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the agent in the foreground",
	Long: `Run the parkgate agent in the foreground until SIGINT or SIGTERM.

Examples:
  parkgate run                         # Run with the default config path
  parkgate run -c /etc/parkgate/lane2.yml`,
	Run: func(cmd *cobra.Command, args []string) {
		d, err := daemon.New(configFile)
		if err != nil {
			exitWithError("failed to initialize agent", err)
		}
		if err := d.Run(); err != nil {
			exitWithError("agent terminated", err)
		}
	},
}
