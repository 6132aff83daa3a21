package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"icc.tech/parkgate/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load and validate a configuration file without starting the agent.

This is useful for pre-checking a lane configuration before rollout.

Examples:
  parkgate validate -c /etc/parkgate/config.yml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(configFile)
		if err != nil {
			exitWithError(fmt.Sprintf("invalid configuration %s", configFile), err)
		}

		cameras := 0
		if cfg.Cameras.Front.Enabled {
			cameras++
		}
		if cfg.Cameras.Rear.Enabled {
			cameras++
		}
		fmt.Printf("VALID: %d camera(s), gateway %s:%d, callback server %s:%d\n",
			cameras,
			cfg.Payment.Host, cfg.Payment.Port,
			cfg.Payment.ListenHost, cfg.Payment.ListenPort,
		)
	},
}
