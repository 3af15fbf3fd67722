package model

import "time"

// CorrelationPair is an unordered symbol pair with its Pearson coefficient.
// Symbol1 always precedes Symbol2 in panel column order.
type CorrelationPair struct {
	Symbol1     string  `json:"symbol1"`
	Symbol2     string  `json:"symbol2"`
	Correlation float64 `json:"correlation"`
}

// PairSeries is two legs aligned on the dates where both have a price.
type PairSeries struct {
	Symbol1 string
	Symbol2 string
	Dates   []time.Time
	Leg1    []float64
	Leg2    []float64
}

func (p PairSeries) Len() int { return len(p.Dates) }

// Between returns the rows whose date falls in [from, to]. Zero bounds are open.
func (p PairSeries) Between(from, to time.Time) PairSeries {
	out := PairSeries{Symbol1: p.Symbol1, Symbol2: p.Symbol2}
	for i, d := range p.Dates {
		if !from.IsZero() && d.Before(from) {
			continue
		}
		if !to.IsZero() && d.After(to) {
			continue
		}
		out.Dates = append(out.Dates, d)
		out.Leg1 = append(out.Leg1, p.Leg1[i])
		out.Leg2 = append(out.Leg2, p.Leg2[i])
	}
	return out
}
