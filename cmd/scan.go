package cmd

import (
	"fmt"

	"github.com/polytrade/polybot/internal/app"
	"github.com/polytrade/polybot/pkg/config"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a single market scan and print the results",
	Long: `Fetches the highest-volume events from the Gamma API, applies the
liquidity filter, runs the enabled strategies once, and prints the kept
markets. No positions are opened beyond that single cycle and no stream
is connected. Useful for checking connectivity and settings.`,
	RunE: runScan,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

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
	defer func() {
		_ = application.Shutdown()
	}()

	err = application.ScanOnce()
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	return nil
}
