package strategy

import (
	"context"
	"fmt"
	"math"

	"github.com/polytrade/polybot/pkg/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Arbitrage detects complete-set mispricing in binary markets: when the
// best YES ask plus the best NO ask sums below the safety threshold,
// buying both legs locks in the difference at resolution.
type Arbitrage struct {
	threshold   float64 // reject when ask sum is at or above this
	minNotional float64 // minimum executable notional in USD
	logger      *zap.Logger
}

// ArbitrageConfig holds arbitrage strategy configuration.
type ArbitrageConfig struct {
	SafetyThreshold float64
	MinNotional     float64
	Logger          *zap.Logger
}

// NewArbitrage creates the arbitrage strategy.
func NewArbitrage(cfg ArbitrageConfig) *Arbitrage {
	return &Arbitrage{
		threshold:   cfg.SafetyThreshold,
		minNotional: cfg.MinNotional,
		logger:      cfg.Logger,
	}
}

// ID implements Strategy.
func (a *Arbitrage) ID() string { return "arbitrage" }

// Name implements Strategy.
func (a *Arbitrage) Name() string { return "Arbitrage" }

// Analyze fetches both legs' books for every binary market and reports
// complete-set buys priced below the threshold.
func (a *Arbitrage) Analyze(ctx context.Context, scan *Context) ([]Opportunity, error) {
	var opportunities []Opportunity

	for i := range scan.Events {
		event := &scan.Events[i]
		for j := range event.Markets {
			market := &event.Markets[j]
			if !market.Active || market.Closed {
				continue
			}

			tokens, ok := market.TokenIDs()
			if !ok || len(tokens) != 2 {
				continue
			}

			opp, err := a.analyzeMarket(ctx, scan, market, tokens)
			if err != nil {
				a.logger.Debug("arbitrage-market-skipped",
					zap.String("market-id", market.ID),
					zap.Error(err))
				continue
			}
			if opp != nil {
				opportunities = append(opportunities, *opp)
			}
		}
	}

	return opportunities, nil
}

// analyzeMarket fetches both books concurrently and checks the ask sum.
func (a *Arbitrage) analyzeMarket(ctx context.Context, scan *Context, market *types.Market, tokens []string) (*Opportunity, error) {
	var yesBook, noBook *types.OrderBook

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		yesBook, err = scan.Books.FetchOrderBook(gctx, tokens[0])
		return err
	})
	g.Go(func() error {
		var err error
		noBook, err = scan.Books.FetchOrderBook(gctx, tokens[1])
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch books: %w", err)
	}

	yesAsk, yesSize, ok := yesBook.BestAsk()
	if !ok {
		return nil, fmt.Errorf("no asks on yes leg")
	}
	noAsk, noSize, ok := noBook.BestAsk()
	if !ok {
		return nil, fmt.Errorf("no asks on no leg")
	}

	sum := yesAsk + noAsk
	if sum >= a.threshold {
		return nil, nil
	}

	size := math.Min(yesSize, noSize)
	notional := size * sum
	if notional < a.minNotional {
		a.logger.Debug("arbitrage-below-min-notional",
			zap.String("market-id", market.ID),
			zap.Float64("notional", notional))
		return nil, nil
	}

	margin := 1.0 - sum

	opp := newOpportunity(a.ID(), scan.Now)
	opp.MarketID = market.ID
	opp.Title = market.Question
	opp.Outcome = types.OutcomeBoth
	opp.Price = sum
	opp.SizeUSD = notional
	opp.Confidence = 1.0
	opp.Strength = math.Min(100, margin*1000)
	opp.Reason = fmt.Sprintf("complete set at %.4f (margin %.2f%%)", sum, margin*100)

	OpportunitiesTotal.WithLabelValues(a.ID()).Inc()
	a.logger.Info("arbitrage-opportunity",
		zap.String("market-id", market.ID),
		zap.Float64("price-sum", sum),
		zap.Float64("notional", notional))

	return &opp, nil
}
