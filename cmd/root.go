// Package cmd contains the CLI commands.
package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "polybot",
	Short: "Polymarket trading bot",
	Long: `Polymarket trading bot that scans the most active markets, runs them
through a set of strategies (complete-set arbitrage, volume spikes, and
short-horizon momentum), and manages simulated positions with stop-loss,
take-profit, and daily loss limits.

Market metadata comes from the Gamma API; live prices stream in over the
CLOB WebSocket between scans.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Optional .env file; real environment wins.
		_ = godotenv.Load()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
