package strategy

import (
	"fmt"
	"math"

	"pairs-backtest/internal/model"
)

// SpreadPoint is the log-ratio and its causal z-score for one row.
// Mean and Std cover the Lookback rows strictly before this one.
type SpreadPoint struct {
	Ratio    float64
	Mean     float64
	Std      float64
	Z        float64
	Lookback int
	// Defined is false when fewer than two prior rows exist or Std is degenerate.
	Defined bool
}

// degenerateStd treats a standard deviation this small relative to the mean as zero,
// so a flat ratio with rounding noise never produces a z-score.
const degenerateStd = 1e-12

// ComputeSpread derives r_t = ln(leg1/leg2) and z_t against the trailing window
// r[t-window .. t-1]. Partial windows at the start are allowed.
func ComputeSpread(series model.PairSeries, window int) ([]SpreadPoint, error) {
	if window < 1 {
		return nil, fmt.Errorf("%w: window must be >= 1, got %d", model.ErrConfig, window)
	}
	n := series.Len()
	points := make([]SpreadPoint, n)
	for t := 0; t < n; t++ {
		p1, p2 := series.Leg1[t], series.Leg2[t]
		if !validPrice(p1) || !validPrice(p2) {
			return nil, fmt.Errorf("%w: %s/%s on %s: %g/%g", model.ErrInvalidPrice,
				series.Symbol1, series.Symbol2, series.Dates[t].Format("2006-01-02"), p1, p2)
		}
		points[t].Ratio = math.Log(p1 / p2)
	}

	for t := 0; t < n; t++ {
		lo := t - window
		if lo < 0 {
			lo = 0
		}
		pt := &points[t]
		pt.Lookback = t - lo
		if pt.Lookback == 0 {
			continue
		}
		sum := 0.0
		for i := lo; i < t; i++ {
			sum += points[i].Ratio
		}
		pt.Mean = sum / float64(pt.Lookback)
		if pt.Lookback < 2 {
			continue
		}
		ss := 0.0
		for i := lo; i < t; i++ {
			d := points[i].Ratio - pt.Mean
			ss += d * d
		}
		pt.Std = math.Sqrt(ss / float64(pt.Lookback-1))
		if err := checkStd(pt.Std, pt.Mean); err != nil {
			continue
		}
		pt.Z = (pt.Ratio - pt.Mean) / pt.Std
		pt.Defined = true
	}
	return points, nil
}

// validPrice reports whether p is a finite positive price.
func validPrice(p float64) bool {
	return p > 0 && !math.IsNaN(p) && !math.IsInf(p, 0)
}

func checkStd(std, mean float64) error {
	if std <= degenerateStd*math.Max(1, math.Abs(mean)) {
		return model.ErrNumericDegenerate
	}
	return nil
}
