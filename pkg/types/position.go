package types

import "time"

// Outcome identifies the side of a position or opportunity.
type Outcome string

// Valid outcomes. OutcomeBoth is only used by opportunities (complete-set
// arbitrage buys both sides); positions are always YES or NO.
const (
	OutcomeYes  Outcome = "YES"
	OutcomeNo   Outcome = "NO"
	OutcomeBoth Outcome = "BOTH"
)

// Directional reports whether the outcome is a single tradable side.
func (o Outcome) Directional() bool {
	return o == OutcomeYes || o == OutcomeNo
}

// PositionStatus is the lifecycle state of a position.
type PositionStatus string

// Position lifecycle states.
const (
	StatusOpen   PositionStatus = "OPEN"
	StatusClosed PositionStatus = "CLOSED"
)

// Position is a single holding in one market outcome. Positions are unique
// per (marketId, outcome); repeated adds merge into the share-weighted
// average price.
type Position struct {
	MarketID     string         `json:"marketId"`
	Title        string         `json:"title"`
	Outcome      Outcome        `json:"outcome"`
	Shares       float64        `json:"shares"`
	AvgPrice     float64        `json:"avgPrice"`
	CurrentPrice float64        `json:"currentPrice"`
	PnL          float64        `json:"pnl"`
	Status       PositionStatus `json:"status"`
	Strategy     string         `json:"strategy,omitempty"`
	OpenedAt     time.Time      `json:"openedAt,omitzero"`
	CloseAt      time.Time      `json:"closeAt,omitzero"`
}

// PortfolioSummary aggregates the open book plus realized daily P&L.
type PortfolioSummary struct {
	TotalUnrealizedPnL float64 `json:"totalUnrealizedPnL"`
	OpenWinners        int     `json:"openWinners"`
	OpenLosers         int     `json:"openLosers"`
	DailyRealizedPnL   float64 `json:"dailyRealizedPnL"`
}

// PortfolioSnapshot is the domain event emitted to the control plane after
// every scan and every push-path mark-to-market.
type PortfolioSnapshot struct {
	Positions []Position       `json:"positions"`
	Summary   PortfolioSummary `json:"summary"`
}

// TradeRecord is one journal row describing a position open, close, or
// redemption.
type TradeRecord struct {
	ID          string
	MarketID    string
	Title       string
	Outcome     Outcome
	Action      string // "OPEN", "CLOSE", "REDEEM"
	Shares      float64
	Price       float64
	RealizedPnL float64
	Strategy    string
	At          time.Time
}
