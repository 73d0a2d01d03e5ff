// Package storage provides trade-journal backends.
package storage

import (
	"context"
	"fmt"

	"github.com/polytrade/polybot/pkg/types"
	"go.uber.org/zap"
)

// ConsoleJournal implements ledger.Journal by pretty-printing to console.
type ConsoleJournal struct {
	logger *zap.Logger
}

// NewConsoleJournal creates a new console journal.
func NewConsoleJournal(logger *zap.Logger) *ConsoleJournal {
	logger.Info("console-journal-initialized")
	return &ConsoleJournal{
		logger: logger,
	}
}

// RecordTrade pretty-prints a trade record to console.
func (c *ConsoleJournal) RecordTrade(ctx context.Context, trade *types.TradeRecord) error {
	icon := "📈"
	if trade.Action != "OPEN" {
		if trade.RealizedPnL >= 0 {
			icon = "✅"
		} else {
			icon = "❌"
		}
	}

	fmt.Println("\n" + "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("%s TRADE: %s %s\n", icon, trade.Action, trade.Outcome)
	fmt.Printf("Market:   %s\n", trade.Title)
	fmt.Printf("Shares:   %.2f @ %.4f\n", trade.Shares, trade.Price)
	if trade.Action != "OPEN" {
		fmt.Printf("Realized: $%.2f\n", trade.RealizedPnL)
	}
	if trade.Strategy != "" {
		fmt.Printf("Strategy: %s\n", trade.Strategy)
	}
	fmt.Printf("Time:     %s\n", trade.At.Format("2006-01-02 15:04:05"))
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	return nil
}

// Close is a no-op for console journal.
func (c *ConsoleJournal) Close() error {
	c.logger.Info("closing-console-journal")
	return nil
}
