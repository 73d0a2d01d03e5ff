package strategy

import (
	"context"
	"testing"
	"time"

	"github.com/polytrade/polybot/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVolumeSpike() *VolumeSpike {
	return NewVolumeSpike(VolumeSpikeConfig{
		SpikeDelta:   1000,
		Momentum24hr: 100000,
		Logger:       testLogger(),
	})
}

func TestVolumeSpikeNeedsBaseline(t *testing.T) {
	vs := newTestVolumeSpike()
	settings := types.Settings{MaxPositionSize: 100}

	// First scan establishes the baseline; even a huge volume is not a
	// spike without a prior observation.
	scan := singleMarketScan(binaryMarket("mkt-1", 0.7, 50000, 500), settings, time.Now(), nil)
	opps, err := vs.Analyze(context.Background(), scan)
	require.NoError(t, err)
	assert.Empty(t, opps)

	// Second scan with a jump past the delta triggers.
	scan = singleMarketScan(binaryMarket("mkt-1", 0.7, 52000, 500), settings, time.Now(), nil)
	opps, err = vs.Analyze(context.Background(), scan)
	require.NoError(t, err)
	require.Len(t, opps, 1)

	opp := opps[0]
	assert.Equal(t, "volume_spike", opp.Strategy)
	assert.Equal(t, types.OutcomeYes, opp.Outcome)
	assert.InDelta(t, 0.7, opp.Price, 1e-9)
	assert.InDelta(t, 0.8, opp.Confidence, 1e-9)
	assert.InDelta(t, 90, opp.Strength, 1e-9)
}

func TestVolumeSpikeBelowDeltaIsQuiet(t *testing.T) {
	vs := newTestVolumeSpike()
	settings := types.Settings{MaxPositionSize: 100}

	scan := singleMarketScan(binaryMarket("mkt-1", 0.6, 50000, 500), settings, time.Now(), nil)
	_, err := vs.Analyze(context.Background(), scan)
	require.NoError(t, err)

	scan = singleMarketScan(binaryMarket("mkt-1", 0.6, 50500, 500), settings, time.Now(), nil)
	opps, err := vs.Analyze(context.Background(), scan)
	require.NoError(t, err)
	assert.Empty(t, opps)
}

func TestVolume24hrMomentumSignal(t *testing.T) {
	vs := newTestVolumeSpike()
	settings := types.Settings{MaxPositionSize: 100}

	// No spike, but sustained 24h volume above the momentum threshold.
	scan := singleMarketScan(binaryMarket("mkt-1", 0.4, 50000, 150000), settings, time.Now(), nil)
	opps, err := vs.Analyze(context.Background(), scan)
	require.NoError(t, err)
	require.Len(t, opps, 1)

	opp := opps[0]
	// Probability leans NO at 0.4.
	assert.Equal(t, types.OutcomeNo, opp.Outcome)
	assert.InDelta(t, 0.6, opp.Price, 1e-9)
	assert.InDelta(t, 0.5, opp.Confidence, 1e-9)
	assert.InDelta(t, 60, opp.Strength, 1e-9)
}

func TestVolumeSizeRespectsMaxPositionSize(t *testing.T) {
	vs := newTestVolumeSpike()
	settings := types.Settings{MaxPositionSize: 4}

	scan := singleMarketScan(binaryMarket("mkt-1", 0.6, 50000, 150000), settings, time.Now(), nil)
	opps, err := vs.Analyze(context.Background(), scan)
	require.NoError(t, err)
	require.Len(t, opps, 1)
	assert.InDelta(t, 4, opps[0].SizeUSD, 1e-9)
}
