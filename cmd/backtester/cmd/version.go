package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the backtester CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "backtester version %s\n", version)
		fmt.Fprintln(out, "Tick replay backtesting for simple trading strategies")
		fmt.Fprintln(out, "https://github.com/rustyeddy/backtester")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
