package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/polytrade/polybot/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memJournal records trades in memory for assertions.
type memJournal struct {
	mu     sync.Mutex
	trades []types.TradeRecord
	fail   bool
}

func (m *memJournal) RecordTrade(ctx context.Context, trade *types.TradeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return fmt.Errorf("journal unavailable")
	}
	m.trades = append(m.trades, *trade)
	return nil
}

func (m *memJournal) Close() error { return nil }

func (m *memJournal) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.trades))
	for i, tr := range m.trades {
		out[i] = tr.Action
	}
	return out
}

func defaultLimits() RiskLimits {
	return RiskLimits{
		MaxPositionSize:      100,
		MaxPortfolioExposure: 500,
		StopLossPercentage:   10,
		TakeProfitPercentage: 20,
		DailyLossLimit:       50,
	}
}

func newTestLedger(t *testing.T, limits RiskLimits) (*Ledger, *memJournal) {
	t.Helper()
	journal := &memJournal{}
	return New(Config{
		Limits:  limits,
		Journal: journal,
		Logger:  zap.NewNop(),
	}), journal
}

func TestAddPositionMergesAtWeightedAverage(t *testing.T) {
	l, _ := newTestLedger(t, defaultLimits())

	require.True(t, l.AddPosition("mkt-1", "Market 1", types.OutcomeYes, 10, 0.4, "momentum", time.Time{}))
	require.True(t, l.AddPosition("mkt-1", "Market 1", types.OutcomeYes, 10, 0.6, "momentum", time.Time{}))

	pos, found := l.Position("mkt-1", types.OutcomeYes)
	require.True(t, found)
	assert.InDelta(t, 20, pos.Shares, 1e-9)
	assert.InDelta(t, 0.5, pos.AvgPrice, 1e-9)
}

func TestAddPositionSeparateOutcomesAreSeparateKeys(t *testing.T) {
	l, _ := newTestLedger(t, defaultLimits())

	require.True(t, l.AddPosition("mkt-1", "Market 1", types.OutcomeYes, 10, 0.4, "momentum", time.Time{}))
	require.True(t, l.AddPosition("mkt-1", "Market 1", types.OutcomeNo, 5, 0.55, "momentum", time.Time{}))

	assert.Len(t, l.Positions(), 2)
}

func TestAddPositionRejectsOversize(t *testing.T) {
	l, journal := newTestLedger(t, defaultLimits())

	// 300 shares at 0.5 = $150 cost, above the $100 position cap.
	assert.False(t, l.AddPosition("mkt-1", "Market 1", types.OutcomeYes, 300, 0.5, "momentum", time.Time{}))

	// A rejected open leaves no residue in the book or the journal.
	assert.Empty(t, l.Positions())
	assert.Empty(t, journal.actions())
}

func TestAddPositionRejectsExcessExposure(t *testing.T) {
	limits := defaultLimits()
	limits.MaxPositionSize = 400
	l, _ := newTestLedger(t, limits)

	require.True(t, l.AddPosition("mkt-1", "Market 1", types.OutcomeYes, 600, 0.5, "arb", time.Time{})) // $300
	assert.False(t, l.AddPosition("mkt-2", "Market 2", types.OutcomeYes, 600, 0.5, "arb", time.Time{})) // would be $600 total
	assert.Len(t, l.Positions(), 1)
}

func TestAddPositionRejectsAfterDailyLossLimit(t *testing.T) {
	l, _ := newTestLedger(t, defaultLimits())

	// Realize a loss beyond the $50 daily limit: open at 0.9, mark to 0.3.
	require.True(t, l.AddPosition("mkt-1", "Market 1", types.OutcomeYes, 100, 0.9, "momentum", time.Time{}))
	l.UpdateMarketPrice("mkt-1", 0.3)

	require.Less(t, l.DailyPnL(), -50.0)
	assert.False(t, l.AddPosition("mkt-2", "Market 2", types.OutcomeYes, 10, 0.5, "momentum", time.Time{}))
}

func TestDailyLossAtExactLimitStillAllowsOpens(t *testing.T) {
	l, _ := newTestLedger(t, defaultLimits())

	// Realize exactly the $50 limit: 100 shares from 0.75 to 0.25.
	require.True(t, l.AddPosition("mkt-1", "Market 1", types.OutcomeYes, 100, 0.75, "momentum", time.Time{}))
	l.UpdateMarketPrice("mkt-1", 0.25)
	require.InDelta(t, -50.0, l.DailyPnL(), 1e-9)

	// The gate trips only past the limit, not at it.
	assert.True(t, l.AddPosition("mkt-2", "Market 2", types.OutcomeYes, 10, 0.5, "momentum", time.Time{}))
}

func TestUpdateMarketPriceMarksNoAtComplement(t *testing.T) {
	l, _ := newTestLedger(t, RiskLimits{})

	require.True(t, l.AddPosition("mkt-1", "Market 1", types.OutcomeNo, 10, 0.5, "momentum", time.Time{}))
	l.UpdateMarketPrice("mkt-1", 0.45)

	pos, found := l.Position("mkt-1", types.OutcomeNo)
	require.True(t, found)
	assert.InDelta(t, 0.55, pos.CurrentPrice, 1e-9)
	assert.InDelta(t, 0.5, pos.PnL, 1e-9)
}

func TestStopLossClosesPosition(t *testing.T) {
	l, journal := newTestLedger(t, defaultLimits())

	require.True(t, l.AddPosition("mkt-1", "Market 1", types.OutcomeYes, 10, 0.5, "momentum", time.Time{}))

	// 0.5 -> 0.4 is a 20% loss, beyond the 10% stop.
	l.UpdateMarketPrice("mkt-1", 0.4)

	assert.Empty(t, l.Positions())
	assert.InDelta(t, -1.0, l.DailyPnL(), 1e-9)
	assert.Equal(t, []string{"OPEN", "CLOSE"}, journal.actions())
}

func TestTakeProfitClosesPosition(t *testing.T) {
	l, _ := newTestLedger(t, defaultLimits())

	require.True(t, l.AddPosition("mkt-1", "Market 1", types.OutcomeYes, 10, 0.5, "momentum", time.Time{}))

	// 0.5 -> 0.65 is a 30% gain, beyond the 20% take-profit.
	l.UpdateMarketPrice("mkt-1", 0.65)

	assert.Empty(t, l.Positions())
	assert.InDelta(t, 1.5, l.DailyPnL(), 1e-9)
}

func TestSmallMoveLeavesPositionOpen(t *testing.T) {
	l, _ := newTestLedger(t, defaultLimits())

	require.True(t, l.AddPosition("mkt-1", "Market 1", types.OutcomeYes, 10, 0.5, "momentum", time.Time{}))
	l.UpdateMarketPrice("mkt-1", 0.52)

	positions := l.Positions()
	require.Len(t, positions, 1)
	assert.InDelta(t, 0.2, positions[0].PnL, 1e-9)
	assert.Zero(t, l.DailyPnL())
}

func TestClosePositionIsNoOpWhenMissingOrClosed(t *testing.T) {
	l, _ := newTestLedger(t, defaultLimits())

	assert.False(t, l.ClosePosition("mkt-1", types.OutcomeYes))

	require.True(t, l.AddPosition("mkt-1", "Market 1", types.OutcomeYes, 10, 0.5, "momentum", time.Time{}))
	assert.True(t, l.ClosePosition("mkt-1", types.OutcomeYes))
	assert.False(t, l.ClosePosition("mkt-1", types.OutcomeYes))
}

func TestCloseExpiredPositionsIsIdempotent(t *testing.T) {
	l, _ := newTestLedger(t, defaultLimits())

	deadline := time.Now().Add(time.Minute)
	require.True(t, l.AddPosition("mkt-1", "Market 1", types.OutcomeYes, 10, 0.5, "updown_15", deadline))
	require.True(t, l.AddPosition("mkt-2", "Market 2", types.OutcomeYes, 10, 0.5, "momentum", time.Time{}))

	// Before the deadline nothing closes.
	assert.Zero(t, l.CloseExpiredPositions(deadline.Add(-time.Second)))

	// At the deadline the held position closes; the open-ended one stays.
	assert.Equal(t, 1, l.CloseExpiredPositions(deadline))
	assert.Len(t, l.Positions(), 1)

	// A second sweep with the same clock closes nothing.
	assert.Zero(t, l.CloseExpiredPositions(deadline))
}

func TestRedeemSettlesBothLegsOfMarket(t *testing.T) {
	l, journal := newTestLedger(t, RiskLimits{})

	require.True(t, l.AddPosition("mkt-1", "Market 1", types.OutcomeYes, 10, 0.6, "momentum", time.Time{}))
	require.True(t, l.AddPosition("mkt-1", "Market 1", types.OutcomeNo, 10, 0.3, "momentum", time.Time{}))

	// YES resolves: the winning leg pays 1.0, the losing leg 0.0, both in
	// one call.
	require.True(t, l.Redeem("mkt-1", types.OutcomeYes))

	assert.Empty(t, l.Positions())
	// (1.0-0.6)*10 = +4 on YES; (0.0-0.3)*10 = -3 on NO.
	assert.InDelta(t, 1.0, l.DailyPnL(), 1e-9)
	assert.Equal(t, []string{"OPEN", "OPEN", "REDEEM", "REDEEM"}, journal.actions())

	// Redeeming again is a no-op.
	assert.False(t, l.Redeem("mkt-1", types.OutcomeYes))
}

func TestRedeemSingleLegMarket(t *testing.T) {
	l, _ := newTestLedger(t, RiskLimits{})

	require.True(t, l.AddPosition("mkt-2", "Market 2", types.OutcomeNo, 10, 0.3, "momentum", time.Time{}))
	require.True(t, l.Redeem("mkt-2", types.OutcomeNo))

	// (1.0-0.3)*10: the held NO side won.
	assert.InDelta(t, 7.0, l.DailyPnL(), 1e-9)
}

func TestDailyPnLResetsOnDateChange(t *testing.T) {
	l, _ := newTestLedger(t, RiskLimits{})

	current := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return current }
	l.dailyDate = dayOf(current)

	require.True(t, l.AddPosition("mkt-1", "Market 1", types.OutcomeYes, 10, 0.5, "momentum", time.Time{}))
	require.True(t, l.ClosePosition("mkt-1", types.OutcomeYes))

	l.UpdateMarketPrice("mkt-1", 0.5)
	assert.Zero(t, l.DailyPnL())

	// Realize a gain, then roll the clock past midnight.
	require.True(t, l.AddPosition("mkt-2", "Market 2", types.OutcomeYes, 10, 0.5, "momentum", time.Time{}))
	l.UpdateMarketPrice("mkt-2", 0.6)
	require.True(t, l.ClosePosition("mkt-2", types.OutcomeYes))
	require.InDelta(t, 1.0, l.DailyPnL(), 1e-9)

	current = current.Add(2 * time.Hour)
	assert.Zero(t, l.DailyPnL())
}

func TestSnapshotSummarizesBook(t *testing.T) {
	l, _ := newTestLedger(t, RiskLimits{})

	require.True(t, l.AddPosition("mkt-1", "Market 1", types.OutcomeYes, 10, 0.5, "momentum", time.Time{}))
	require.True(t, l.AddPosition("mkt-2", "Market 2", types.OutcomeYes, 10, 0.5, "momentum", time.Time{}))
	require.True(t, l.AddPosition("mkt-3", "Market 3", types.OutcomeYes, 10, 0.5, "momentum", time.Time{}))

	l.UpdateMarketPrice("mkt-1", 0.55) // +0.5
	l.UpdateMarketPrice("mkt-2", 0.45) // -0.5

	snap := l.Snapshot()
	assert.Len(t, snap.Positions, 3)
	assert.InDelta(t, 0, snap.Summary.TotalUnrealizedPnL, 1e-9)
	assert.Equal(t, 1, snap.Summary.OpenWinners)
	assert.Equal(t, 1, snap.Summary.OpenLosers)
	assert.Zero(t, snap.Summary.DailyRealizedPnL)
}

func TestHasOpenPositionIsPerOutcome(t *testing.T) {
	l, _ := newTestLedger(t, RiskLimits{})

	assert.False(t, l.HasOpenPosition("mkt-1", types.OutcomeNo))

	require.True(t, l.AddPosition("mkt-1", "Market 1", types.OutcomeNo, 10, 0.5, "momentum", time.Time{}))
	assert.True(t, l.HasOpenPosition("mkt-1", types.OutcomeNo))

	// The open NO says nothing about the YES side.
	assert.False(t, l.HasOpenPosition("mkt-1", types.OutcomeYes))

	require.True(t, l.ClosePosition("mkt-1", types.OutcomeNo))
	assert.False(t, l.HasOpenPosition("mkt-1", types.OutcomeNo))
}

func TestJournalFailureDoesNotAffectBook(t *testing.T) {
	journal := &memJournal{fail: true}
	l := New(Config{
		Limits:  defaultLimits(),
		Journal: journal,
		Logger:  zap.NewNop(),
	})

	assert.True(t, l.AddPosition("mkt-1", "Market 1", types.OutcomeYes, 10, 0.5, "momentum", time.Time{}))
	assert.Len(t, l.Positions(), 1)
}

func TestSetMetadata(t *testing.T) {
	l, _ := newTestLedger(t, RiskLimits{})

	require.True(t, l.AddPosition("mkt-1", "Market 1", types.OutcomeYes, 10, 0.5, "", time.Time{}))

	deadline := time.Now().Add(15 * time.Minute)
	require.True(t, l.SetMetadata("mkt-1", types.OutcomeYes, "updown_15", deadline))

	pos, found := l.Position("mkt-1", types.OutcomeYes)
	require.True(t, found)
	assert.Equal(t, "updown_15", pos.Strategy)
	assert.True(t, pos.CloseAt.Equal(deadline))
}

func TestClearAllKeepsDailyPnL(t *testing.T) {
	l, _ := newTestLedger(t, defaultLimits())

	require.True(t, l.AddPosition("mkt-1", "Market 1", types.OutcomeYes, 10, 0.5, "momentum", time.Time{}))
	l.UpdateMarketPrice("mkt-1", 0.65)
	require.InDelta(t, 1.5, l.DailyPnL(), 1e-9)

	require.True(t, l.AddPosition("mkt-2", "Market 2", types.OutcomeYes, 10, 0.5, "momentum", time.Time{}))
	l.ClearAll()

	assert.Empty(t, l.Positions())
	assert.InDelta(t, 1.5, l.DailyPnL(), 1e-9)

	l.ResetDailyPnL()
	assert.Zero(t, l.DailyPnL())
}
