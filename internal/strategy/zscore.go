package strategy

import (
	"pairs-backtest/internal/model"
)

// ZScoreStrategy trades the mean reversion of the log price ratio.
//
// States are SHORT_SPREAD, FLAT and LONG_SPREAD. A row either fires one of the
// three rules below or holds the previous state; before any rule fires the state is FLAT.
//
//	EntryThreshold < z < OutlierCap     -> SHORT_SPREAD
//	-OutlierCap < z < -EntryThreshold   -> LONG_SPREAD
//	|z| < NeutralThreshold              -> FLAT
type ZScoreStrategy struct {
	Params Params
}

func NewZScoreStrategy(params Params) *ZScoreStrategy {
	return &ZScoreStrategy{Params: params}
}

func (s *ZScoreStrategy) Name() string { return "zscore" }

func (s *ZScoreStrategy) Signals(series model.PairSeries) (*Result, error) {
	if err := s.Params.Validate(); err != nil {
		return nil, err
	}
	spread, err := ComputeSpread(series, s.Params.Window)
	if err != nil {
		return nil, err
	}
	return &Result{Spread: spread, Signals: HoldForward(spread, s.Params)}, nil
}

// Fire maps a single z-score to a signal; ok is false when no rule fires.
func Fire(z float64, p Params) (model.Signal, bool) {
	switch {
	case z > p.EntryThreshold && z < OutlierCap:
		return model.ShortSpread, true
	case z < -p.EntryThreshold && z > -OutlierCap:
		return model.LongSpread, true
	case z > -p.NeutralThreshold && z < p.NeutralThreshold:
		return model.Flat, true
	default:
		return model.Flat, false
	}
}

// HoldForward runs the state machine over the spread in one ordered pass.
func HoldForward(spread []SpreadPoint, p Params) []model.Signal {
	out := make([]model.Signal, len(spread))
	last := model.Flat
	for i, pt := range spread {
		if pt.Defined {
			if sig, ok := Fire(pt.Z, p); ok {
				last = sig
			}
		}
		out[i] = last
	}
	return out
}
