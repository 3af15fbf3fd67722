package backtest

import (
	"fmt"
	"math"

	"pairs-backtest/internal/model"
)

// SimulateMargin walks the traded episodes in order, sizing each one from the
// margin left by the previous. Flat episodes are skipped without touching margin.
// A non-positive buying power halts the run with ErrMarginDepleted.
func SimulateMargin(episodes []model.TradeEpisode, account model.AccountParams, costs Costs) ([]LedgerRow, float64, error) {
	if err := account.Validate(); err != nil {
		return nil, 0, err
	}
	if err := costs.Validate(); err != nil {
		return nil, 0, err
	}

	slip := costs.SlippageBps / 10000
	margin := account.MarginInit
	var ledger []LedgerRow

	for _, ep := range episodes {
		if !ep.Signal.IsTrade() {
			continue
		}
		bp := account.BuyingPower(margin)
		if !(bp > 0) || math.IsInf(bp, 0) {
			return ledger, margin, fmt.Errorf("%w: buying power %.2f before episode %d (%s)",
				model.ErrMarginDepleted, bp, ep.ID, ep.StartTime.Format("2006-01-02"))
		}
		if ep.Leg1StartPrice <= 0 || ep.Leg2StartPrice <= 0 {
			return ledger, margin, fmt.Errorf("%w: entry prices %g/%g for episode %d",
				model.ErrInvalidPrice, ep.Leg1StartPrice, ep.Leg2StartPrice, ep.ID)
		}

		alloc := 0.5 * bp
		pos := Position{
			Signal:     ep.Signal,
			Allocation: alloc,
			Units1:     math.Floor(alloc / ep.Leg1StartPrice),
			Units2:     math.Floor(alloc / ep.Leg2StartPrice),
			Entry1:     ep.Leg1StartPrice,
			Entry2:     ep.Leg2StartPrice,
		}
		fee := costs.Commission.Fee(pos)
		pnl := episodePnL(ep, pos, slip)
		if math.IsNaN(pnl) || math.IsInf(pnl, 0) || math.IsNaN(fee) || math.IsInf(fee, 0) {
			return ledger, margin, fmt.Errorf("%w: non-finite pnl or commission in episode %d", model.ErrInvalidPrice, ep.ID)
		}

		start := margin
		margin += pnl - fee
		ledger = append(ledger, LedgerRow{
			EpisodeID:   ep.ID,
			Signal:      ep.Signal,
			StartTime:   ep.StartTime,
			EndTime:     ep.EndTime,
			Leg1Entry:   ep.Leg1StartPrice,
			Leg1Exit:    ep.Leg1EndPrice,
			Leg2Entry:   ep.Leg2StartPrice,
			Leg2Exit:    ep.Leg2EndPrice,
			MarginStart: start,
			BuyingPower: bp,
			Units1:      int64(pos.Units1),
			Units2:      int64(pos.Units2),
			PNL:         pnl,
			Commission:  fee,
			Margin:      margin,
		})
	}
	return ledger, margin, nil
}

// episodePnL books the long leg at exit*(1-s) - entry*(1+s) and the short leg at
// entry*(1-s) - exit*(1+s), so slippage always works against the trade.
func episodePnL(ep model.TradeEpisode, pos Position, slip float64) float64 {
	long := func(entry, exit, units float64) float64 {
		return (exit*(1-slip) - entry*(1+slip)) * units
	}
	short := func(entry, exit, units float64) float64 {
		return -(exit*(1+slip) - entry*(1-slip)) * units
	}
	if ep.Signal == model.LongSpread {
		return long(ep.Leg1StartPrice, ep.Leg1EndPrice, pos.Units1) + short(ep.Leg2StartPrice, ep.Leg2EndPrice, pos.Units2)
	}
	return long(ep.Leg2StartPrice, ep.Leg2EndPrice, pos.Units2) + short(ep.Leg1StartPrice, ep.Leg1EndPrice, pos.Units1)
}
