// Package ledger maintains the bot's position book: risk-checked opens,
// mark-to-market updates with stop-loss and take-profit liquidation,
// expiry-driven closes, binary redemption, and realized daily P&L.
package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/polytrade/polybot/pkg/types"
	"go.uber.org/zap"
)

// Journal persists trade records. Implementations must be safe for
// concurrent use. Journal failures never block or roll back book updates.
type Journal interface {
	RecordTrade(ctx context.Context, trade *types.TradeRecord) error
	Close() error
}

// RiskLimits bound what the ledger will accept.
type RiskLimits struct {
	MaxPositionSize      float64 // max cost of a single open (USD)
	MaxPortfolioExposure float64 // max total cost basis of open positions (USD)
	StopLossPercentage   float64 // close when unrealized loss reaches this percent
	TakeProfitPercentage float64 // close when unrealized gain reaches this percent
	DailyLossLimit       float64 // stop opening once realized daily loss reaches this (USD)
}

// Ledger is the in-memory position book. Positions are keyed by
// marketID + "-" + outcome; adding to an existing key merges into a
// share-weighted average price.
type Ledger struct {
	mu        sync.RWMutex
	positions map[string]*types.Position
	limits    RiskLimits
	dailyPnL  float64
	dailyDate string // yyyy-mm-dd of the day dailyPnL belongs to
	journal   Journal
	logger    *zap.Logger
	now       func() time.Time
}

// Config holds ledger configuration.
type Config struct {
	Limits  RiskLimits
	Journal Journal
	Logger  *zap.Logger
}

// New creates a new position ledger.
func New(cfg Config) *Ledger {
	l := &Ledger{
		positions: make(map[string]*types.Position),
		limits:    cfg.Limits,
		journal:   cfg.Journal,
		logger:    cfg.Logger,
		now:       time.Now,
	}
	l.dailyDate = dayOf(l.now())
	return l
}

func positionKey(marketID string, outcome types.Outcome) string {
	return marketID + "-" + string(outcome)
}

func dayOf(t time.Time) string {
	return t.Format("2006-01-02")
}

// ensureDay resets the realized daily P&L when the calendar date has
// rolled over since the last access. Callers must hold the write lock.
func (l *Ledger) ensureDay() {
	today := dayOf(l.now())
	if today != l.dailyDate {
		l.logger.Info("daily-pnl-reset",
			zap.String("previous-date", l.dailyDate),
			zap.Float64("previous-pnl", l.dailyPnL))
		l.dailyDate = today
		l.dailyPnL = 0
		DailyRealizedPnL.Set(0)
	}
}

// SetLimits replaces the risk limits. Applied to subsequent opens and
// mark-to-market checks.
func (l *Ledger) SetLimits(limits RiskLimits) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.limits = limits
}

// AddPosition opens a new position or merges into an existing one at the
// share-weighted average price. Returns false if any risk limit rejects
// the open; a rejected open leaves the book untouched.
func (l *Ledger) AddPosition(marketID, title string, outcome types.Outcome, shares, price float64, strategy string, closeAt time.Time) bool {
	if shares <= 0 || price <= 0 || !outcome.Directional() {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.ensureDay()

	if reason, ok := l.checkRisk(shares, price); !ok {
		RiskRejectionsTotal.WithLabelValues(reason).Inc()
		l.logger.Warn("position-rejected",
			zap.String("market-id", marketID),
			zap.String("outcome", string(outcome)),
			zap.Float64("shares", shares),
			zap.Float64("price", price),
			zap.String("reason", reason))
		return false
	}

	key := positionKey(marketID, outcome)
	existing, found := l.positions[key]

	if found && existing.Status == types.StatusOpen {
		totalShares := existing.Shares + shares
		existing.AvgPrice = (existing.AvgPrice*existing.Shares + price*shares) / totalShares
		existing.Shares = totalShares
		existing.CurrentPrice = price
		existing.PnL = (existing.CurrentPrice - existing.AvgPrice) * existing.Shares
	} else {
		l.positions[key] = &types.Position{
			MarketID:     marketID,
			Title:        title,
			Outcome:      outcome,
			Shares:       shares,
			AvgPrice:     price,
			CurrentPrice: price,
			Status:       types.StatusOpen,
			Strategy:     strategy,
			OpenedAt:     l.now(),
			CloseAt:      closeAt,
		}
	}

	PositionsOpenedTotal.WithLabelValues(strategy).Inc()
	l.updateGaugesLocked()

	l.logger.Info("position-opened",
		zap.String("market-id", marketID),
		zap.String("outcome", string(outcome)),
		zap.Float64("shares", shares),
		zap.Float64("price", price),
		zap.String("strategy", strategy))

	l.record(&types.TradeRecord{
		MarketID: marketID,
		Title:    title,
		Outcome:  outcome,
		Action:   "OPEN",
		Shares:   shares,
		Price:    price,
		Strategy: strategy,
	})

	return true
}

// checkRisk validates an open against the limits in order: position size,
// portfolio exposure, daily loss limit. Callers must hold the lock.
func (l *Ledger) checkRisk(shares, price float64) (string, bool) {
	cost := shares * price

	if l.limits.MaxPositionSize > 0 && cost > l.limits.MaxPositionSize {
		return "max_position_size", false
	}

	if l.limits.MaxPortfolioExposure > 0 {
		exposure := cost
		for _, p := range l.positions {
			if p.Status == types.StatusOpen {
				exposure += p.AvgPrice * p.Shares
			}
		}
		if exposure > l.limits.MaxPortfolioExposure {
			return "max_portfolio_exposure", false
		}
	}

	if l.limits.DailyLossLimit > 0 && l.dailyPnL < -l.limits.DailyLossLimit {
		return "daily_loss_limit", false
	}

	return "", true
}

// UpdateMarketPrice marks all open positions in a market to the current
// YES probability. NO positions are marked at the complement. Positions
// whose unrealized move crosses the stop-loss or take-profit threshold are
// closed at the marked price.
func (l *Ledger) UpdateMarketPrice(marketID string, yesProbability float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.ensureDay()

	for _, outcome := range []types.Outcome{types.OutcomeYes, types.OutcomeNo} {
		key := positionKey(marketID, outcome)
		pos, found := l.positions[key]
		if !found || pos.Status != types.StatusOpen {
			continue
		}

		price := yesProbability
		if outcome == types.OutcomeNo {
			price = 1 - yesProbability
		}

		pos.CurrentPrice = price
		pos.PnL = (price - pos.AvgPrice) * pos.Shares

		if pos.AvgPrice <= 0 {
			continue
		}

		movePct := (price - pos.AvgPrice) / pos.AvgPrice * 100

		if l.limits.StopLossPercentage > 0 && movePct <= -l.limits.StopLossPercentage {
			l.closeLocked(pos, price, "stop_loss")
		} else if l.limits.TakeProfitPercentage > 0 && movePct >= l.limits.TakeProfitPercentage {
			l.closeLocked(pos, price, "take_profit")
		}
	}

	l.updateGaugesLocked()
}

// ClosePosition closes an open position at its current marked price.
// Missing or already-closed positions are a no-op.
func (l *Ledger) ClosePosition(marketID string, outcome types.Outcome) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.ensureDay()

	pos, found := l.positions[positionKey(marketID, outcome)]
	if !found || pos.Status != types.StatusOpen {
		return false
	}

	l.closeLocked(pos, pos.CurrentPrice, "manual")
	l.updateGaugesLocked()
	return true
}

// CloseExpiredPositions closes every open position whose hold deadline has
// passed, at its current marked price. Returns the number closed. Calling
// it again with the same clock is a no-op.
func (l *Ledger) CloseExpiredPositions(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.ensureDay()

	closed := 0
	for _, pos := range l.positions {
		if pos.Status != types.StatusOpen || pos.CloseAt.IsZero() {
			continue
		}
		if !pos.CloseAt.After(now) {
			l.closeLocked(pos, pos.CurrentPrice, "expiry")
			closed++
		}
	}

	if closed > 0 {
		l.updateGaugesLocked()
	}

	return closed
}

// Redeem settles every open position in a resolved market at the binary
// payoff: 1.0 per share for the winning outcome, 0.0 for the losing one.
// Returns false when the market has no open positions.
func (l *Ledger) Redeem(marketID string, winningOutcome types.Outcome) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.ensureDay()

	settled := false
	for _, outcome := range []types.Outcome{types.OutcomeYes, types.OutcomeNo} {
		pos, found := l.positions[positionKey(marketID, outcome)]
		if !found || pos.Status != types.StatusOpen {
			continue
		}

		payoff := 0.0
		if outcome == winningOutcome {
			payoff = 1.0
		}

		l.closeLocked(pos, payoff, "redeem")
		settled = true
	}

	if settled {
		l.updateGaugesLocked()
	}
	return settled
}

// closeLocked realizes a position's P&L at the given price and marks it
// closed. Callers must hold the write lock.
func (l *Ledger) closeLocked(pos *types.Position, price float64, reason string) {
	realized := (price - pos.AvgPrice) * pos.Shares

	pos.CurrentPrice = price
	pos.PnL = realized
	pos.Status = types.StatusClosed

	l.dailyPnL += realized
	DailyRealizedPnL.Set(l.dailyPnL)
	PositionsClosedTotal.WithLabelValues(reason).Inc()

	l.logger.Info("position-closed",
		zap.String("market-id", pos.MarketID),
		zap.String("outcome", string(pos.Outcome)),
		zap.Float64("price", price),
		zap.Float64("realized-pnl", realized),
		zap.String("reason", reason))

	action := "CLOSE"
	if reason == "redeem" {
		action = "REDEEM"
	}

	l.record(&types.TradeRecord{
		MarketID:    pos.MarketID,
		Title:       pos.Title,
		Outcome:     pos.Outcome,
		Action:      action,
		Shares:      pos.Shares,
		Price:       price,
		RealizedPnL: realized,
		Strategy:    pos.Strategy,
	})
}

// record writes a journal row best-effort. Failures are logged and do not
// affect the book.
func (l *Ledger) record(trade *types.TradeRecord) {
	if l.journal == nil {
		return
	}

	trade.ID = uuid.New().String()
	trade.At = l.now()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := l.journal.RecordTrade(ctx, trade)
	if err != nil {
		l.logger.Warn("journal-write-failed",
			zap.String("trade-id", trade.ID),
			zap.Error(err))
	}
}

// HasOpenPosition reports whether an open position exists for the market
// on the given outcome. A holding on the other side does not count: the
// book may legitimately carry both legs of a market.
func (l *Ledger) HasOpenPosition(marketID string, outcome types.Outcome) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	pos, found := l.positions[positionKey(marketID, outcome)]
	return found && pos.Status == types.StatusOpen
}

// Position returns a copy of the position for a market outcome.
func (l *Ledger) Position(marketID string, outcome types.Outcome) (types.Position, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	pos, found := l.positions[positionKey(marketID, outcome)]
	if !found {
		return types.Position{}, false
	}
	return *pos, true
}

// SetMetadata updates the strategy tag and hold deadline of an open
// position.
func (l *Ledger) SetMetadata(marketID string, outcome types.Outcome, strategy string, closeAt time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	pos, found := l.positions[positionKey(marketID, outcome)]
	if !found || pos.Status != types.StatusOpen {
		return false
	}

	if strategy != "" {
		pos.Strategy = strategy
	}
	if !closeAt.IsZero() {
		pos.CloseAt = closeAt
	}
	return true
}

// Positions returns copies of all open positions with shares remaining.
func (l *Ledger) Positions() []types.Position {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]types.Position, 0, len(l.positions))
	for _, pos := range l.positions {
		if pos.Status == types.StatusOpen && pos.Shares > 0 {
			out = append(out, *pos)
		}
	}
	return out
}

// DailyPnL returns today's realized P&L, resetting it first if the
// calendar date has changed.
func (l *Ledger) DailyPnL() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.ensureDay()
	return l.dailyPnL
}

// Snapshot returns the portfolio view: open positions plus aggregate
// summary.
func (l *Ledger) Snapshot() types.PortfolioSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.ensureDay()

	snapshot := types.PortfolioSnapshot{
		Positions: make([]types.Position, 0, len(l.positions)),
	}

	for _, pos := range l.positions {
		if pos.Status != types.StatusOpen || pos.Shares <= 0 {
			continue
		}
		snapshot.Positions = append(snapshot.Positions, *pos)
		snapshot.Summary.TotalUnrealizedPnL += pos.PnL
		if pos.PnL > 0 {
			snapshot.Summary.OpenWinners++
		} else if pos.PnL < 0 {
			snapshot.Summary.OpenLosers++
		}
	}

	snapshot.Summary.DailyRealizedPnL = l.dailyPnL

	return snapshot
}

// ClearAll removes every position from the book. Realized daily P&L is
// kept.
func (l *Ledger) ClearAll() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.positions = make(map[string]*types.Position)
	l.updateGaugesLocked()
	l.logger.Info("positions-cleared")
}

// ResetDailyPnL zeroes today's realized P&L.
func (l *Ledger) ResetDailyPnL() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.dailyPnL = 0
	l.dailyDate = dayOf(l.now())
	DailyRealizedPnL.Set(0)
	l.logger.Info("daily-pnl-cleared")
}

// updateGaugesLocked refreshes the open-book gauges. Callers must hold the
// lock.
func (l *Ledger) updateGaugesLocked() {
	open := 0
	exposure := 0.0
	for _, pos := range l.positions {
		if pos.Status == types.StatusOpen {
			open++
			exposure += pos.AvgPrice * pos.Shares
		}
	}
	OpenPositions.Set(float64(open))
	PortfolioExposure.Set(exposure)
}

// String implements fmt.Stringer for debug logging.
func (l *Ledger) String() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return fmt.Sprintf("ledger{positions=%d, dailyPnL=%.2f}", len(l.positions), l.dailyPnL)
}
