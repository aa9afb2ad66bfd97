package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/chatbridge/internal/line"
)

var signCmd = &cobra.Command{
	Use:   "sign <file|->",
	Short: "Print the X-Line-Signature for a webhook body",
	Long: `Computes the signature the platform would send for the given body,
using line.channel_secret. Pass - to read the body from stdin. Useful for
replaying webhook payloads against a local server with curl.`,
	Args: cobra.ExactArgs(1),
	RunE: runSign,
}

func init() {
	rootCmd.AddCommand(signCmd)
}

func runSign(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Line.ChannelSecret == "" {
		return errors.New("line.channel_secret is not set (set LINE_CHANNEL_SECRET)")
	}

	var body []byte
	if args[0] == "-" {
		body, err = io.ReadAll(cmd.InOrStdin())
	} else {
		body, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("reading body: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), line.Sign(body, cfg.Line.ChannelSecret))
	return nil
}
