package strategy

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/polytrade/polybot/pkg/types"
	"go.uber.org/zap"
)

const maxSamplesPerMarket = 200

type probSample struct {
	at   time.Time
	prob float64
}

// Momentum is the up/down strategy: it tracks each market's YES
// probability across scans and trades in the direction of a sustained move
// over the lookback window. Positions opened from it are meant to be held
// for a fixed duration and then closed by the orchestrator.
type Momentum struct {
	window     time.Duration // lookback window
	minElapsed time.Duration // minimum history before normalizing
	minChange  float64       // minimum normalized move to signal
	mu         sync.Mutex
	samples    map[string][]probSample
	logger     *zap.Logger
}

// MomentumConfig holds momentum strategy configuration.
type MomentumConfig struct {
	Window     time.Duration
	MinElapsed time.Duration
	MinChange  float64
	Logger     *zap.Logger
}

// NewMomentum creates the momentum strategy.
func NewMomentum(cfg MomentumConfig) *Momentum {
	return &Momentum{
		window:     cfg.Window,
		minElapsed: cfg.MinElapsed,
		minChange:  cfg.MinChange,
		samples:    make(map[string][]probSample),
		logger:     cfg.Logger,
	}
}

// ID implements Strategy.
func (m *Momentum) ID() string { return "updown_15" }

// Name implements Strategy.
func (m *Momentum) Name() string { return "UpDown 15min" }

// Analyze records the current probability for every market and signals
// when the window-normalized move exceeds the threshold.
func (m *Momentum) Analyze(ctx context.Context, scan *Context) ([]Opportunity, error) {
	var opportunities []Opportunity

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range scan.Events {
		event := &scan.Events[i]
		for j := range event.Markets {
			market := &event.Markets[j]
			if !market.Active || market.Closed {
				continue
			}

			prob, ok := market.YesProbability()
			if !ok {
				continue
			}

			history := m.recordSample(market.ID, prob, scan.Now)
			if len(history) < 2 {
				continue
			}

			oldest := history[0]
			if oldest.prob <= 0 {
				continue
			}

			elapsed := scan.Now.Sub(oldest.at)
			if elapsed < m.minElapsed {
				continue
			}

			// Percent change relative to the oldest sample, scaled to a
			// full-window equivalent so a fast move over partial history
			// still registers.
			rawChange := (prob - oldest.prob) / oldest.prob
			normalized := rawChange * (float64(m.window) / float64(elapsed))

			if math.Abs(normalized) < m.minChange {
				continue
			}

			// Thin markets drift on noise; require a volume floor.
			volumeFloor := math.Min(1000, scan.Settings.MinLiquidity/10)
			if float64(market.Volume24hr) < volumeFloor {
				continue
			}

			direction := "UP"
			outcome := types.OutcomeYes
			price := prob
			if normalized < 0 {
				direction = "DOWN"
				outcome = types.OutcomeNo
				price = 1 - prob
			}

			sizeUSD := math.Max(5, math.Round(math.Abs(normalized)*100))
			if scan.Settings.MaxPositionSize > 0 {
				sizeUSD = math.Min(sizeUSD, scan.Settings.MaxPositionSize)
			}

			opp := newOpportunity(m.ID(), scan.Now)
			opp.MarketID = market.ID
			opp.Title = market.Question
			opp.Outcome = outcome
			opp.Price = price
			opp.SizeUSD = sizeUSD
			opp.Confidence = math.Min(1, math.Abs(normalized)/0.1)
			opp.Strength = math.Min(100, math.Abs(normalized)*1000)
			opp.Reason = fmt.Sprintf("15min %s %.2f%%", direction, math.Abs(normalized)*100)

			opportunities = append(opportunities, opp)
			OpportunitiesTotal.WithLabelValues(m.ID()).Inc()

			m.logger.Info("momentum-opportunity",
				zap.String("market-id", market.ID),
				zap.String("outcome", string(outcome)),
				zap.Float64("normalized-change", normalized))
		}
	}

	return opportunities, nil
}

// recordSample appends the current probability to the market's history,
// prunes samples outside the window, and caps the series. Callers must
// hold the lock. Returns the updated history.
func (m *Momentum) recordSample(marketID string, prob float64, now time.Time) []probSample {
	history := append(m.samples[marketID], probSample{at: now, prob: prob})

	cutoff := now.Add(-m.window)
	trimmed := history[:0]
	for _, s := range history {
		if s.at.After(cutoff) || s.at.Equal(cutoff) {
			trimmed = append(trimmed, s)
		}
	}

	if len(trimmed) > maxSamplesPerMarket {
		trimmed = trimmed[len(trimmed)-maxSamplesPerMarket:]
	}

	m.samples[marketID] = trimmed
	return trimmed
}
