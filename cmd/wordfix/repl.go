package main

import (
	"github.com/bastiangx/wordfix/internal/cli"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Resegment lines typed on stdin, for testing and debugging",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		engine, err := newEngine(cfg)
		if err != nil {
			return err
		}
		log.SetReportTimestamp(false)
		trace, _ := cmd.Flags().GetBool("trace")
		return cli.NewInputHandler(engine, cmd.InOrStdin(), cmd.OutOrStdout(), trace).Start(cmd.Context())
	},
}

func init() {
	replCmd.Flags().BoolP("trace", "t", false, "show how every token was classified")
	rootCmd.AddCommand(replCmd)
}
