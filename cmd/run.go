package cmd

import (
	"fmt"

	"github.com/polytrade/polybot/internal/app"
	"github.com/polytrade/polybot/pkg/config"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the trading bot",
	Long: `Starts the trading bot, which will:
1. Scan the highest-volume events from the Gamma API
2. Subscribe to their markets' price streams via WebSocket
3. Run the enabled strategies over every scan
4. Open, mark, and close simulated positions under the risk limits

The HTTP API on HTTP_PORT serves the portfolio, scanned markets,
settings, and Prometheus metrics.`,
	RunE: runBot,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
}

func runBot(cmd *cobra.Command, args []string) error {
	// Load config
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Create logger
	logger, err := config.NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	application, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	err = application.Run()
	if err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}
