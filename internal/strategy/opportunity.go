package strategy

import (
	"time"

	"github.com/google/uuid"
	"github.com/polytrade/polybot/pkg/types"
)

// Opportunity is a trade signal produced by a strategy. Directional
// opportunities (YES/NO) can be opened as positions; BOTH marks a
// complete-set arbitrage that is journaled but not held directionally.
type Opportunity struct {
	ID         string        `json:"id"`
	Strategy   string        `json:"strategy"`
	MarketID   string        `json:"marketId"`
	Title      string        `json:"title"`
	Outcome    types.Outcome `json:"outcome"`
	Price      float64       `json:"price"`      // entry price per share (sum of legs for BOTH)
	SizeUSD    float64       `json:"sizeUsd"`    // suggested notional
	Confidence float64       `json:"confidence"` // 0..1
	Strength   float64       `json:"strength"`   // 0..100 signal strength
	Reason     string        `json:"reason"`
	DetectedAt time.Time     `json:"detectedAt"`
}

// newOpportunity fills in the generated id and detection time.
func newOpportunity(strategyID string, now time.Time) Opportunity {
	return Opportunity{
		ID:         uuid.New().String(),
		Strategy:   strategyID,
		DetectedAt: now,
	}
}
