package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "chatbridge",
	Short: "LINE webhook bridge to AI and domain lookup backends",
	Long: `chatbridge receives LINE Messaging API webhooks, verifies their
signature, routes each text message by prefix to an echo, AI or domain
lookup backend, and replies through the reply endpoint. Retried
deliveries are deduplicated and every reply attempt is logged.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".chatbridge.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
