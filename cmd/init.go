package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/chatbridge/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize chatbridge configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure the bot and generates a .chatbridge.yml file. Credentials are read from the environment and never written.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
