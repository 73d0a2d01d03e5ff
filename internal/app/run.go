package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Run starts the application and blocks until shutdown.
func (a *App) Run() error {
	a.logger.Info("application-starting",
		zap.String("storage-mode", a.cfg.StorageMode),
		zap.String("log-level", a.cfg.LogLevel))

	err := a.startComponents()
	if err != nil {
		return err
	}

	a.healthChecker.SetReady(true)

	a.logger.Info("application-ready",
		zap.String("http-addr", ":"+a.cfg.HTTPPort),
		zap.String("ws-url", a.cfg.WSURL))

	return a.waitForShutdown()
}

// ScanOnce runs a single scan cycle and exits. Used by the scan command
// for dry inspection without the stream or the trading loop.
func (a *App) ScanOnce() error {
	a.logger.Info("single-scan-starting")

	err := a.bot.ScanOnce(a.ctx)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	markets := a.bot.ScannedMarkets()
	for _, m := range markets {
		a.logger.Info("scanned-market",
			zap.String("market-id", m.ID),
			zap.String("question", m.Question),
			zap.Float64("volume", m.Volume),
			zap.Float64("probability", m.Probability),
			zap.String("tag", m.Tag))
	}

	snapshot := a.bot.Portfolio()
	for _, p := range snapshot.Positions {
		a.logger.Info("position",
			zap.String("market-id", p.MarketID),
			zap.String("outcome", string(p.Outcome)),
			zap.Float64("shares", p.Shares),
			zap.Float64("avg-price", p.AvgPrice),
			zap.Float64("pnl", p.PnL),
			zap.String("strategy", p.Strategy))
	}

	a.logger.Info("single-scan-complete",
		zap.Int("markets", len(markets)),
		zap.Int("positions", len(snapshot.Positions)),
		zap.Float64("unrealized-pnl", snapshot.Summary.TotalUnrealizedPnL),
		zap.Float64("daily-realized-pnl", snapshot.Summary.DailyRealizedPnL))
	return nil
}

func (a *App) startComponents() error {
	// Start HTTP server
	a.wg.Add(1)
	go a.runHTTPServer()

	// Give HTTP server a moment to start
	time.Sleep(100 * time.Millisecond)

	// Start market-data stream
	err := a.stream.Start()
	if err != nil {
		return fmt.Errorf("start market stream: %w", err)
	}

	// Start trading loop
	a.wg.Add(1)
	go a.runBot()

	return nil
}

func (a *App) runHTTPServer() {
	defer a.wg.Done()
	err := a.httpServer.Start()
	if err != nil {
		a.logger.Error("http-server-error", zap.Error(err))
	}
}

func (a *App) runBot() {
	defer a.wg.Done()
	err := a.bot.Run(a.ctx)
	if err != nil {
		a.logger.Error("bot-error", zap.Error(err))
	}
}

func (a *App) waitForShutdown() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		a.logger.Info("shutdown-signal-received", zap.String("signal", sig.String()))
	case <-a.ctx.Done():
		a.logger.Info("context-cancelled")
	}

	return a.Shutdown()
}
