package strategy

import (
	"context"
	"testing"
	"time"

	"github.com/polytrade/polybot/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMomentum() *Momentum {
	return NewMomentum(MomentumConfig{
		Window:     15 * time.Minute,
		MinElapsed: time.Minute,
		MinChange:  0.03,
		Logger:     testLogger(),
	})
}

func momentumSettings() types.Settings {
	return types.Settings{
		MinLiquidity:    10000,
		MaxPositionSize: 100,
	}
}

// runScan feeds one probability observation at the given time.
func runScan(t *testing.T, m *Momentum, prob, volume24hr float64, now time.Time) []Opportunity {
	t.Helper()

	scan := singleMarketScan(binaryMarket("mkt-1", prob, 50000, volume24hr), momentumSettings(), now, nil)
	opps, err := m.Analyze(context.Background(), scan)
	require.NoError(t, err)
	return opps
}

func TestMomentumSignalsNormalizedUpMove(t *testing.T) {
	m := newTestMomentum()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.Empty(t, runScan(t, m, 0.5, 20000, base))

	// 0.5 -> 0.6 over one minute scales to a huge full-window move.
	opps := runScan(t, m, 0.6, 20000, base.Add(time.Minute))
	require.Len(t, opps, 1)

	opp := opps[0]
	assert.Equal(t, "updown_15", opp.Strategy)
	assert.Equal(t, types.OutcomeYes, opp.Outcome)
	assert.InDelta(t, 0.6, opp.Price, 1e-9)
	assert.InDelta(t, 1.0, opp.Confidence, 1e-9)
	assert.Contains(t, opp.Reason, "UP")
}

func TestMomentumSignalsDownMoveAsNo(t *testing.T) {
	m := newTestMomentum()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	runScan(t, m, 0.6, 20000, base)
	opps := runScan(t, m, 0.5, 20000, base.Add(2*time.Minute))
	require.Len(t, opps, 1)

	opp := opps[0]
	assert.Equal(t, types.OutcomeNo, opp.Outcome)
	assert.InDelta(t, 0.5, opp.Price, 1e-9)
	assert.Contains(t, opp.Reason, "DOWN")
}

func TestMomentumWaitsForMinimumHistory(t *testing.T) {
	m := newTestMomentum()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	runScan(t, m, 0.5, 20000, base)

	// A large move 10 seconds in is ignored: not enough history to
	// normalize against.
	opps := runScan(t, m, 0.65, 20000, base.Add(10*time.Second))
	assert.Empty(t, opps)
}

func TestMomentumIgnoresSmallMoves(t *testing.T) {
	m := newTestMomentum()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	runScan(t, m, 0.5, 20000, base)

	// 0.5 -> 0.501 over the full window is a 0.2% relative move, below
	// the 3% threshold.
	opps := runScan(t, m, 0.501, 20000, base.Add(15*time.Minute))
	assert.Empty(t, opps)
}

func TestMomentumRequiresVolumeFloor(t *testing.T) {
	m := newTestMomentum()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	// Floor is min(1000, minLiquidity/10) = 1000; 24h volume of 200 is
	// too thin even for a clean move.
	runScan(t, m, 0.5, 200, base)
	opps := runScan(t, m, 0.6, 200, base.Add(time.Minute))
	assert.Empty(t, opps)
}

func TestMomentumPrunesSamplesOutsideWindow(t *testing.T) {
	m := newTestMomentum()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	// An old extreme observation should age out of the window and stop
	// influencing the move calculation.
	runScan(t, m, 0.2, 20000, base)
	runScan(t, m, 0.55, 20000, base.Add(20*time.Minute))

	// Against the surviving 0.55 sample the move is small.
	opps := runScan(t, m, 0.56, 20000, base.Add(35*time.Minute))
	assert.Empty(t, opps)
}

func TestMomentumCapsSampleHistory(t *testing.T) {
	m := newTestMomentum()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	for i := 0; i < maxSamplesPerMarket+50; i++ {
		m.recordSample("mkt-1", 0.5, base.Add(time.Duration(i)*time.Second))
	}

	assert.LessOrEqual(t, len(m.samples["mkt-1"]), maxSamplesPerMarket)
}

func TestMomentumSizeScalesWithMove(t *testing.T) {
	m := newTestMomentum()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	runScan(t, m, 0.5, 20000, base)

	// 0.5 -> 0.55 over the full window is a 10% relative move:
	// size = max(5, round(0.10*100)) = 10.
	opps := runScan(t, m, 0.55, 20000, base.Add(15*time.Minute))
	require.Len(t, opps, 1)
	assert.InDelta(t, 10, opps[0].SizeUSD, 1e-9)
}

func TestMomentumMeasuresMoveRelativeToOldestPrice(t *testing.T) {
	m := newTestMomentum()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	runScan(t, m, 0.10, 20000, base)

	// 0.10 -> 0.115 is only 1.5 points of probability but a 15% relative
	// move; a low-priced market must still clear the 3% threshold.
	opps := runScan(t, m, 0.115, 20000, base.Add(15*time.Minute))
	require.Len(t, opps, 1)

	opp := opps[0]
	assert.Equal(t, types.OutcomeYes, opp.Outcome)
	assert.InDelta(t, 0.115, opp.Price, 1e-9)
	assert.InDelta(t, 15, opp.SizeUSD, 1e-9)
	assert.Contains(t, opp.Reason, "UP")
}

func TestMomentumSkipsZeroPricedBaseline(t *testing.T) {
	m := newTestMomentum()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	runScan(t, m, 0, 20000, base)
	opps := runScan(t, m, 0.2, 20000, base.Add(15*time.Minute))
	assert.Empty(t, opps)
}
