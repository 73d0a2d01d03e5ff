// Package bot runs the trading loop: it scans markets, routes them through
// the enabled strategies, opens and maintains positions in the ledger, and
// feeds live price updates from the stream into the book.
package bot

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/polytrade/polybot/internal/ledger"
	"github.com/polytrade/polybot/internal/strategy"
	"github.com/polytrade/polybot/pkg/config"
	"github.com/polytrade/polybot/pkg/types"
	"go.uber.org/zap"
)

// EventSource fetches tradable events from the metadata API.
type EventSource interface {
	FetchEvents(ctx context.Context, limit int) ([]types.Event, error)
}

// MarketStream delivers live price updates for subscribed assets.
type MarketStream interface {
	Subscribe(assetIDs []string) error
	Updates() <-chan types.PriceUpdate
}

// assetRef maps a stream asset id back to the market and side it prices.
type assetRef struct {
	marketID string
	outcome  types.Outcome
}

// Bot is the orchestrator.
type Bot struct {
	cfg      *config.Config
	settings *SettingsStore
	book     *ledger.Ledger
	events   EventSource
	books    strategy.BookFetcher
	stream   MarketStream
	registry *strategy.Registry
	logger   *zap.Logger

	running atomic.Bool

	mu          sync.RWMutex
	scanned     []types.ScannedMarket
	assetIndex  map[string]assetRef
	subscribers []chan types.PortfolioSnapshot
}

// Config holds orchestrator dependencies.
type Config struct {
	AppConfig *config.Config
	Settings  *SettingsStore
	Ledger    *ledger.Ledger
	Events    EventSource
	Books     strategy.BookFetcher
	Stream    MarketStream
	Registry  *strategy.Registry
	Logger    *zap.Logger
}

// New creates the orchestrator.
func New(cfg Config) *Bot {
	return &Bot{
		cfg:        cfg.AppConfig,
		settings:   cfg.Settings,
		book:       cfg.Ledger,
		events:     cfg.Events,
		books:      cfg.Books,
		stream:     cfg.Stream,
		registry:   cfg.Registry,
		logger:     cfg.Logger,
		assetIndex: make(map[string]assetRef),
	}
}

// Run starts the scan loop and the push-path consumer, blocking until the
// context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	if !b.running.CompareAndSwap(false, true) {
		return fmt.Errorf("bot already running")
	}
	defer b.running.Store(false)

	b.applyRiskLimits(b.settings.Get())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		b.pushLoop(ctx)
	}()

	b.logger.Info("bot-started")
	b.runLoop(ctx)

	wg.Wait()
	b.logger.Info("bot-stopped")
	return nil
}

// Running reports whether the trading loop is active.
func (b *Bot) Running() bool {
	return b.running.Load()
}

// runLoop runs scan cycles at the settings-controlled interval until the
// context is cancelled.
func (b *Bot) runLoop(ctx context.Context) {
	for {
		err := b.ScanOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			b.logger.Error("scan-cycle-failed", zap.Error(err))
			ScanErrorsTotal.Inc()
		}

		interval := b.settings.Get().ScanInterval
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

// ScanOnce executes one full scan cycle.
func (b *Bot) ScanOnce(ctx context.Context) error {
	start := time.Now()
	settings := b.settings.Get()

	events, err := b.events.FetchEvents(ctx, b.cfg.ScanMarketLimit)
	if err != nil {
		return fmt.Errorf("fetch events: %w", err)
	}

	filtered, view := b.filterMarkets(events, settings.MinLiquidity)
	b.subscribeMarkets(filtered)

	scan := &strategy.Context{
		Events:   filtered,
		Books:    b.books,
		Settings: settings,
		Now:      start,
	}

	var opportunities []strategy.Opportunity
	for _, s := range b.registry.Enabled(settings.EnabledStrategies) {
		strategyStart := time.Now()
		opps, err := s.Analyze(ctx, scan)
		strategy.AnalyzeDuration.WithLabelValues(s.ID()).Observe(time.Since(strategyStart).Seconds())
		if err != nil {
			b.logger.Warn("strategy-failed",
				zap.String("strategy", s.ID()),
				zap.Error(err))
			continue
		}
		opportunities = append(opportunities, opps...)
	}

	b.markToMarket(filtered)

	expired := b.book.CloseExpiredPositions(start)
	if expired > 0 {
		b.logger.Info("expired-positions-closed", zap.Int("count", expired))
	}

	b.openPositions(opportunities, settings, start)

	b.mu.Lock()
	b.scanned = view
	b.mu.Unlock()

	b.publishSnapshot()

	ScanCyclesTotal.Inc()
	ScanDuration.Observe(time.Since(start).Seconds())
	b.logger.Info("scan-cycle-complete",
		zap.Int("events", len(events)),
		zap.Int("markets", len(view)),
		zap.Int("opportunities", len(opportunities)),
		zap.Duration("took", time.Since(start)))

	return nil
}

// scannedViewCap bounds the market view served on the control plane.
const scannedViewCap = 20

// filterMarkets keeps active, liquid markets and builds both the strategy
// input and the control-plane view.
func (b *Bot) filterMarkets(events []types.Event, minLiquidity float64) ([]types.Event, []types.ScannedMarket) {
	filtered := make([]types.Event, 0, len(events))
	view := make([]types.ScannedMarket, 0, len(events))

	for i := range events {
		event := &events[i]
		kept := types.Event{
			ID:    event.ID,
			Slug:  event.Slug,
			Title: event.Title,
		}

		for j := range event.Markets {
			market := &event.Markets[j]
			if !market.Active || market.Closed {
				continue
			}
			if float64(market.Volume) < minLiquidity {
				continue
			}

			kept.Markets = append(kept.Markets, *market)

			prob, _ := market.YesProbability()
			view = append(view, types.ScannedMarket{
				ID:          market.ID,
				Question:    market.Question,
				Volume:      float64(market.Volume),
				Probability: prob,
				Tag:         event.Tag(),
			})
		}

		if len(kept.Markets) > 0 {
			filtered = append(filtered, kept)
		}
	}

	if len(view) > scannedViewCap {
		view = view[:scannedViewCap]
	}

	return filtered, view
}

// subscribeMarkets registers both legs of every kept market with the
// stream, up to the subscription cap, and refreshes the reverse index used
// by the push path.
func (b *Bot) subscribeMarkets(events []types.Event) {
	var ids []string

	b.mu.Lock()
	for i := range events {
		for j := range events[i].Markets {
			market := &events[i].Markets[j]
			tokens, ok := market.TokenIDs()
			if !ok || len(tokens) < 2 {
				continue
			}
			if len(ids)+2 > b.cfg.SubscribeCap {
				break
			}

			b.assetIndex[tokens[0]] = assetRef{marketID: market.ID, outcome: types.OutcomeYes}
			b.assetIndex[tokens[1]] = assetRef{marketID: market.ID, outcome: types.OutcomeNo}
			ids = append(ids, tokens[0], tokens[1])
		}
	}
	b.mu.Unlock()

	if len(ids) == 0 {
		return
	}

	err := b.stream.Subscribe(ids)
	if err != nil {
		b.logger.Warn("stream-subscribe-failed", zap.Error(err))
	}
}

// markToMarket pushes the scan's fresh probabilities into the ledger.
func (b *Bot) markToMarket(events []types.Event) {
	for i := range events {
		for j := range events[i].Markets {
			market := &events[i].Markets[j]
			prob, ok := market.YesProbability()
			if !ok {
				continue
			}
			b.book.UpdateMarketPrice(market.ID, prob)
		}
	}
}

// openPositions opens a position for every directional opportunity in a
// market the book does not already hold. Non-directional opportunities
// (complete-set arbitrage) are logged and journaled by their strategy but
// carry no single side to hold.
func (b *Bot) openPositions(opportunities []strategy.Opportunity, settings types.Settings, now time.Time) {
	for i := range opportunities {
		opp := &opportunities[i]
		if !opp.Outcome.Directional() {
			continue
		}
		if opp.Price <= 0 || opp.SizeUSD <= 0 {
			continue
		}
		if b.book.HasOpenPosition(opp.MarketID, opp.Outcome) {
			continue
		}

		shares := opp.SizeUSD / opp.Price

		// Every open carries the hold deadline so no position is held
		// unbounded; the mark path may still close it earlier.
		closeAt := now.Add(settings.HoldDuration)

		opened := b.book.AddPosition(opp.MarketID, opp.Title, opp.Outcome, shares, opp.Price, opp.Strategy, closeAt)
		if opened {
			b.logger.Info("opportunity-executed",
				zap.String("strategy", opp.Strategy),
				zap.String("market-id", opp.MarketID),
				zap.String("outcome", string(opp.Outcome)),
				zap.Float64("size-usd", opp.SizeUSD),
				zap.String("reason", opp.Reason))
		}
	}
}

// pushLoop consumes live price updates and marks the book continuously
// between scans.
func (b *Bot) pushLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-b.stream.Updates():
			if !ok {
				return
			}

			b.mu.RLock()
			ref, found := b.assetIndex[update.AssetID]
			b.mu.RUnlock()

			if !found {
				continue
			}

			yesProb := update.Price
			if ref.outcome == types.OutcomeNo {
				yesProb = 1 - update.Price
			}

			b.book.UpdateMarketPrice(ref.marketID, yesProb)
			PushUpdatesTotal.Inc()
			b.publishSnapshot()
		}
	}
}

// Portfolio returns the current portfolio snapshot.
func (b *Bot) Portfolio() types.PortfolioSnapshot {
	return b.book.Snapshot()
}

// ScannedMarkets returns the markets kept by the most recent scan.
func (b *Bot) ScannedMarkets() []types.ScannedMarket {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]types.ScannedMarket, len(b.scanned))
	copy(out, b.scanned)
	return out
}

// Settings returns the settings currently in effect.
func (b *Bot) Settings() types.Settings {
	return b.settings.Get()
}

// UpdateSettings applies a settings patch and propagates the resulting
// risk limits to the ledger.
func (b *Bot) UpdateSettings(patch types.SettingsPatch) (types.Settings, error) {
	updated, err := b.settings.Update(patch)
	if err != nil {
		return updated, err
	}

	b.applyRiskLimits(updated)
	return updated, nil
}

// applyRiskLimits rebuilds the ledger limits from settings plus the
// static config bounds.
func (b *Bot) applyRiskLimits(s types.Settings) {
	b.book.SetLimits(ledger.RiskLimits{
		MaxPositionSize:      s.MaxPositionSize,
		MaxPortfolioExposure: b.cfg.MaxPortfolioExposure,
		StopLossPercentage:   s.StopLossPercentage,
		TakeProfitPercentage: s.TakeProfitPercentage,
		DailyLossLimit:       b.cfg.DailyLossLimit,
	})
}

// SubscribePortfolio registers a snapshot listener. Slow listeners miss
// snapshots rather than blocking the trading loop.
func (b *Bot) SubscribePortfolio() <-chan types.PortfolioSnapshot {
	ch := make(chan types.PortfolioSnapshot, 8)

	b.mu.Lock()
	b.subscribers = append(b.subscribers, ch)
	b.mu.Unlock()

	return ch
}

// publishSnapshot fans the current snapshot out to subscribers without
// blocking.
func (b *Bot) publishSnapshot() {
	snapshot := b.book.Snapshot()

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- snapshot:
		default:
		}
	}
}
