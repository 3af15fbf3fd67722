package backtest

import (
	"pairs-backtest/internal/model"
)

// Segment compresses a signal series into contiguous episodes.
// Each episode ends where the next one starts; the last one ends on the final row.
func Segment(series model.PairSeries, signals []model.Signal) []model.TradeEpisode {
	n := series.Len()
	if len(signals) < n {
		n = len(signals)
	}
	if n == 0 {
		return nil
	}

	var episodes []model.TradeEpisode
	for i := 0; i < n; i++ {
		if i > 0 && signals[i] == signals[i-1] {
			continue
		}
		if len(episodes) > 0 {
			closeEpisode(&episodes[len(episodes)-1], series, i)
		}
		episodes = append(episodes, model.TradeEpisode{
			ID:             len(episodes) + 1,
			Signal:         signals[i],
			StartTime:      series.Dates[i],
			Leg1StartPrice: series.Leg1[i],
			Leg2StartPrice: series.Leg2[i],
		})
	}
	closeEpisode(&episodes[len(episodes)-1], series, n-1)
	return episodes
}

func closeEpisode(e *model.TradeEpisode, series model.PairSeries, row int) {
	e.EndTime = series.Dates[row]
	e.Leg1EndPrice = series.Leg1[row]
	e.Leg2EndPrice = series.Leg2[row]
}
