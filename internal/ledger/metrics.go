package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OpenPositions tracks the number of open positions.
	OpenPositions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polybot_open_positions",
		Help: "Number of open positions in the book",
	})

	// PortfolioExposure tracks the total cost basis of open positions.
	PortfolioExposure = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polybot_portfolio_exposure_usd",
		Help: "Total cost basis of open positions in USD",
	})

	// DailyRealizedPnL tracks today's realized profit and loss.
	DailyRealizedPnL = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polybot_daily_realized_pnl_usd",
		Help: "Realized profit and loss for the current calendar day in USD",
	})

	// PositionsOpenedTotal tracks opened positions by strategy.
	PositionsOpenedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polybot_positions_opened_total",
			Help: "Total number of positions opened",
		},
		[]string{"strategy"},
	)

	// PositionsClosedTotal tracks closed positions by reason.
	PositionsClosedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polybot_positions_closed_total",
			Help: "Total number of positions closed",
		},
		[]string{"reason"},
	)

	// RiskRejectionsTotal tracks rejected opens by risk rule.
	RiskRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polybot_risk_rejections_total",
			Help: "Total number of position opens rejected by risk checks",
		},
		[]string{"reason"},
	)
)
