package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/polytrade/polybot/internal/ledger"
	"github.com/polytrade/polybot/pkg/types"
	"go.uber.org/zap"
)

func testTrade() *types.TradeRecord {
	return &types.TradeRecord{
		ID:          "trade-123",
		MarketID:    "market-123",
		Title:       "Will BTC close above $100k?",
		Outcome:     types.OutcomeYes,
		Action:      "CLOSE",
		Shares:      25,
		Price:       0.62,
		RealizedPnL: 1.75,
		Strategy:    "momentum",
		At:          time.Now(),
	}
}

func TestConsoleJournal_New(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	journal := NewConsoleJournal(logger)

	if journal == nil {
		t.Fatal("expected non-nil journal")
	}

	if journal.logger == nil {
		t.Error("expected non-nil logger")
	}
}

func TestConsoleJournal_RecordTrade(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	journal := NewConsoleJournal(logger)

	trade := testTrade()
	ctx := context.Background()

	// Capture stdout
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := journal.RecordTrade(ctx, trade)

	// Restore stdout
	w.Close()
	os.Stdout = oldStdout

	// Read captured output
	var buf bytes.Buffer
	io.Copy(&buf, r)
	output := buf.String()

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	if !bytes.Contains([]byte(output), []byte("CLOSE YES")) {
		t.Error("expected output to contain 'CLOSE YES'")
	}

	if !bytes.Contains([]byte(output), []byte(trade.Title)) {
		t.Errorf("expected output to contain market title %s", trade.Title)
	}

	if !bytes.Contains([]byte(output), []byte("momentum")) {
		t.Error("expected output to contain strategy name")
	}
}

func TestConsoleJournal_Close(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	journal := NewConsoleJournal(logger)

	err := journal.Close()
	if err != nil {
		t.Errorf("expected no error on close, got %v", err)
	}
}

func TestPostgresJournal_RecordTrade(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	journal := &PostgresJournal{
		db:     db,
		logger: logger,
	}

	trade := testTrade()
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO trades").
		WithArgs(
			trade.ID,
			trade.MarketID,
			trade.Title,
			string(trade.Outcome),
			trade.Action,
			trade.Shares,
			trade.Price,
			trade.RealizedPnL,
			trade.Strategy,
			sqlmock.AnyArg(), // executed_at
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = journal.RecordTrade(ctx, trade)
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresJournal_RecordTrade_Error(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	journal := &PostgresJournal{
		db:     db,
		logger: logger,
	}

	trade := testTrade()
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO trades").
		WillReturnError(sqlmock.ErrCancelled)

	err = journal.RecordTrade(ctx, trade)
	if err == nil {
		t.Error("expected error, got nil")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresJournal_Close(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	journal := &PostgresJournal{
		db:     db,
		logger: logger,
	}

	mock.ExpectClose()

	err = journal.Close()
	if err != nil {
		t.Errorf("expected no error on close, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestJournal_Interface(t *testing.T) {
	// Verify both implementations satisfy the ledger.Journal interface
	logger, _ := zap.NewDevelopment()

	var _ ledger.Journal = NewConsoleJournal(logger)

	db, _, _ := sqlmock.New()
	defer db.Close()

	var _ ledger.Journal = &PostgresJournal{db: db, logger: logger}
}
