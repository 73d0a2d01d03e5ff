package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/polytrade/polybot/pkg/types"
	"go.uber.org/zap"
)

// PostgresJournal implements ledger.Journal using PostgreSQL.
type PostgresJournal struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresJournal creates a new PostgreSQL journal.
func NewPostgresJournal(cfg *PostgresConfig) (*PostgresJournal, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Test connection
	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cfg.Logger.Info("postgres-journal-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &PostgresJournal{
		db:     db,
		logger: cfg.Logger,
	}, nil
}

// RecordTrade inserts a trade record.
func (p *PostgresJournal) RecordTrade(ctx context.Context, trade *types.TradeRecord) error {
	query := `
		INSERT INTO trades (
			id, market_id, market_title, outcome, action,
			shares, price, realized_pnl, strategy, executed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
	`

	_, err := p.db.ExecContext(ctx, query,
		trade.ID,
		trade.MarketID,
		trade.Title,
		string(trade.Outcome),
		trade.Action,
		trade.Shares,
		trade.Price,
		trade.RealizedPnL,
		trade.Strategy,
		trade.At,
	)

	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}

	p.logger.Debug("trade-recorded",
		zap.String("trade-id", trade.ID),
		zap.String("market-id", trade.MarketID),
		zap.String("action", trade.Action))

	return nil
}

// Close closes the database connection.
func (p *PostgresJournal) Close() error {
	p.logger.Info("closing-postgres-journal")
	return p.db.Close()
}
