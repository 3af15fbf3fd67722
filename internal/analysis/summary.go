package analysis

import (
	"math"
	"sort"
	"time"

	"pairs-backtest/internal/backtest"
)

// Summary is a pair-level report of one backtest.
type Summary struct {
	Symbol1 string `json:"symbol1"`
	Symbol2 string `json:"symbol2"`

	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Rows  int       `json:"rows"`

	Episodes int     `json:"episodes"`
	Trades   int     `json:"trades"`
	Wins     int     `json:"wins"`
	WinRate  float64 `json:"win_rate"`

	MarginInit  float64 `json:"margin_init"`
	FinalMargin float64 `json:"final_margin"`
	// Return is FinalMargin/MarginInit - 1.
	Return float64 `json:"return"`
	// MaxDrawdown is the largest peak-to-trough fall of margin as a fraction of the peak.
	MaxDrawdown     float64 `json:"max_drawdown"`
	TotalCommission float64 `json:"total_commission"`

	MeanPNL float64 `json:"mean_pnl"`
	P05PNL  float64 `json:"p05_pnl"`
	P95PNL  float64 `json:"p95_pnl"`
}

// Summarize computes trade statistics from a completed run.
// A trade is a win when its net PnL (after commission) is positive.
func Summarize(res *backtest.Result) Summary {
	s := Summary{}
	if res == nil {
		return s
	}
	s.Symbol1, s.Symbol2 = res.Symbol1, res.Symbol2
	s.Rows = len(res.Dates)
	if s.Rows > 0 {
		s.Start = res.Dates[0]
		s.End = res.Dates[s.Rows-1]
	}
	s.Episodes = len(res.Episodes)
	s.Trades = res.TradeCount()
	s.MarginInit = res.Account.MarginInit
	s.FinalMargin = res.FinalMargin
	if s.MarginInit > 0 {
		s.Return = s.FinalMargin/s.MarginInit - 1
	}
	s.MaxDrawdown = maxDrawdown(s.MarginInit, res.MarginTrajectory)

	if s.Trades == 0 {
		return s
	}
	sum := 0.0
	vals := make([]float64, 0, s.Trades)
	for _, row := range res.Ledger {
		net := row.PNL - row.Commission
		if net > 0 {
			s.Wins++
		}
		s.TotalCommission += row.Commission
		sum += net
		vals = append(vals, net)
	}
	sort.Float64s(vals)
	s.WinRate = float64(s.Wins) / float64(s.Trades)
	s.MeanPNL = sum / float64(s.Trades)
	s.P05PNL = percentileSorted(vals, 0.05)
	s.P95PNL = percentileSorted(vals, 0.95)
	return s
}

func maxDrawdown(start float64, trajectory []float64) float64 {
	peak := start
	worst := 0.0
	for _, m := range trajectory {
		if m > peak {
			peak = m
		}
		if peak > 0 {
			if dd := (peak - m) / peak; dd > worst {
				worst = dd
			}
		}
	}
	return worst
}

func percentileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	// Linear interpolation between order stats.
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
