package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/chatbridge/internal/command"
)

var routeCmd = &cobra.Command{
	Use:   "route <text>",
	Short: "Print the command a message would be routed to",
	Example: `  chatbridge route "ai: hello"
  chatbridge route "#在庫 米"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), command.Route(strings.Join(args, " ")).String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(routeCmd)
}
