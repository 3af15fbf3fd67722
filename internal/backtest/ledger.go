package backtest

import (
	"time"

	"pairs-backtest/internal/model"
	"pairs-backtest/internal/strategy"
)

// LedgerRow is the accounting outcome of one traded episode.
// This is the primary artifact for "what happened" in a backtest.
type LedgerRow struct {
	EpisodeID int
	Signal    model.Signal

	StartTime time.Time
	EndTime   time.Time

	Leg1Entry float64
	Leg1Exit  float64
	Leg2Entry float64
	Leg2Exit  float64

	MarginStart float64
	BuyingPower float64
	Units1      int64
	Units2      int64

	PNL        float64
	Commission float64
	Margin     float64
}

type Result struct {
	Symbol1  string
	Symbol2  string
	Strategy string
	Params   strategy.Params
	Account  model.AccountParams
	Costs    Costs

	// Per-row series over the aligned pair.
	Dates   []time.Time
	Leg1    []float64
	Leg2    []float64
	Spread  []strategy.SpreadPoint
	Signals []model.Signal

	Episodes []model.TradeEpisode
	Ledger   []LedgerRow

	// MarginTrajectory holds one snapshot per traded (non-flat) episode.
	MarginTrajectory []float64
	FinalMargin      float64
}

// TradeCount is the number of non-flat episodes.
func (r *Result) TradeCount() int { return len(r.Ledger) }
