package model

import (
	"fmt"
	"time"
)

// TradeEpisode is one maximal run of a constant signal.
// End fields hold the first row of the next episode, or the last row of the series.
type TradeEpisode struct {
	ID     int
	Signal Signal

	StartTime time.Time
	EndTime   time.Time

	Leg1StartPrice float64
	Leg1EndPrice   float64
	Leg2StartPrice float64
	Leg2EndPrice   float64
}

// Describe renders the position in terms of the pair's symbols.
func (e TradeEpisode) Describe(symbol1, symbol2 string) string {
	switch e.Signal {
	case LongSpread:
		return fmt.Sprintf("Long %s, Short %s", symbol1, symbol2)
	case ShortSpread:
		return fmt.Sprintf("Short %s, Long %s", symbol1, symbol2)
	default:
		return "Neutral (no position)"
	}
}
