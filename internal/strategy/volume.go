package strategy

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/polytrade/polybot/pkg/types"
	"go.uber.org/zap"
)

// VolumeSpike trades in the direction of the crowd when a market's volume
// jumps between scans, or rides sustained 24-hour volume momentum.
type VolumeSpike struct {
	spikeDelta    float64 // total-volume jump between scans that counts as a spike
	momentum24hr  float64 // 24h volume that counts as sustained interest
	mu            sync.Mutex
	lastVolume    map[string]float64
	logger        *zap.Logger
}

// VolumeSpikeConfig holds volume strategy configuration.
type VolumeSpikeConfig struct {
	SpikeDelta   float64
	Momentum24hr float64
	Logger       *zap.Logger
}

// NewVolumeSpike creates the volume spike strategy.
func NewVolumeSpike(cfg VolumeSpikeConfig) *VolumeSpike {
	return &VolumeSpike{
		spikeDelta:   cfg.SpikeDelta,
		momentum24hr: cfg.Momentum24hr,
		lastVolume:   make(map[string]float64),
		logger:       cfg.Logger,
	}
}

// ID implements Strategy.
func (v *VolumeSpike) ID() string { return "volume_spike" }

// Name implements Strategy.
func (v *VolumeSpike) Name() string { return "Volume Spike" }

// Analyze compares each market's volume against the previous scan and
// signals in the direction the probability already leans.
func (v *VolumeSpike) Analyze(ctx context.Context, scan *Context) ([]Opportunity, error) {
	var opportunities []Opportunity

	v.mu.Lock()
	defer v.mu.Unlock()

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

			volume := float64(market.Volume)
			last, seen := v.lastVolume[market.ID]
			v.lastVolume[market.ID] = volume

			var confidence, strength float64
			var trigger string

			switch {
			case seen && volume-last > v.spikeDelta:
				confidence, strength = 0.8, 90
				trigger = fmt.Sprintf("volume spike +%.0f", volume-last)
			case float64(market.Volume24hr) > v.momentum24hr:
				confidence, strength = 0.5, 60
				trigger = fmt.Sprintf("24h volume %.0f", float64(market.Volume24hr))
			default:
				continue
			}

			outcome := types.OutcomeYes
			price := prob
			if prob <= 0.5 {
				outcome = types.OutcomeNo
				price = 1 - prob
			}

			opp := newOpportunity(v.ID(), scan.Now)
			opp.MarketID = market.ID
			opp.Title = market.Question
			opp.Outcome = outcome
			opp.Price = price
			opp.SizeUSD = math.Min(10, scan.Settings.MaxPositionSize)
			opp.Confidence = confidence
			opp.Strength = strength
			opp.Reason = trigger

			opportunities = append(opportunities, opp)
			OpportunitiesTotal.WithLabelValues(v.ID()).Inc()

			v.logger.Info("volume-opportunity",
				zap.String("market-id", market.ID),
				zap.String("outcome", string(outcome)),
				zap.String("trigger", trigger))
		}
	}

	return opportunities, nil
}
