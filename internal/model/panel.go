package model

import (
	"fmt"
	"math"
	"time"
)

// PricePanel is an immutable table of daily closes.
// Rows are trading dates (strictly increasing), columns are symbols.
// Missing cells are stored as NaN and reported through the ok flag of Price.
type PricePanel struct {
	dates   []time.Time
	symbols []string
	index   map[string]int
	// closes[col][row]
	closes [][]float64
}

// NewPricePanel copies its inputs. closes is indexed [column][row].
func NewPricePanel(dates []time.Time, symbols []string, closes [][]float64) (*PricePanel, error) {
	if len(closes) != len(symbols) {
		return nil, fmt.Errorf("%w: %d columns for %d symbols", ErrData, len(closes), len(symbols))
	}
	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			return nil, fmt.Errorf("%w: dates not strictly increasing at row %d (%s)", ErrData, i, dates[i].Format("2006-01-02"))
		}
	}
	p := &PricePanel{
		dates:   append([]time.Time(nil), dates...),
		symbols: append([]string(nil), symbols...),
		index:   make(map[string]int, len(symbols)),
		closes:  make([][]float64, len(symbols)),
	}
	for col, sym := range symbols {
		if sym == "" {
			return nil, fmt.Errorf("%w: empty symbol at column %d", ErrData, col)
		}
		if _, dup := p.index[sym]; dup {
			return nil, fmt.Errorf("%w: duplicate symbol %q", ErrData, sym)
		}
		if len(closes[col]) != len(dates) {
			return nil, fmt.Errorf("%w: column %q has %d rows, want %d", ErrData, sym, len(closes[col]), len(dates))
		}
		p.index[sym] = col
		p.closes[col] = append([]float64(nil), closes[col]...)
	}
	return p, nil
}

func (p *PricePanel) Len() int { return len(p.dates) }

func (p *PricePanel) NumSymbols() int { return len(p.symbols) }

// Dates returns a copy of the row index.
func (p *PricePanel) Dates() []time.Time { return append([]time.Time(nil), p.dates...) }

// Symbols returns a copy of the column order.
func (p *PricePanel) Symbols() []string { return append([]string(nil), p.symbols...) }

func (p *PricePanel) HasSymbol(symbol string) bool {
	_, ok := p.index[symbol]
	return ok
}

// Price returns the close at (row, symbol); ok is false when the cell is missing.
func (p *PricePanel) Price(row int, symbol string) (float64, bool) {
	col, found := p.index[symbol]
	if !found || row < 0 || row >= len(p.dates) {
		return 0, false
	}
	v := p.closes[col][row]
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// Column returns a copy of one symbol's closes, NaN for missing cells.
func (p *PricePanel) Column(symbol string) ([]float64, bool) {
	col, ok := p.index[symbol]
	if !ok {
		return nil, false
	}
	return append([]float64(nil), p.closes[col]...), true
}

// Window returns the rows with dates in [from, to]. Zero bounds are open.
func (p *PricePanel) Window(from, to time.Time) *PricePanel {
	lo, hi := 0, len(p.dates)
	for lo < hi && !from.IsZero() && p.dates[lo].Before(from) {
		lo++
	}
	for hi > lo && !to.IsZero() && p.dates[hi-1].After(to) {
		hi--
	}
	out := &PricePanel{
		dates:   p.dates[lo:hi:hi],
		symbols: p.symbols,
		index:   p.index,
		closes:  make([][]float64, len(p.closes)),
	}
	for col := range p.closes {
		out.closes[col] = p.closes[col][lo:hi:hi]
	}
	return out
}

// Select returns a panel restricted to the given symbols, in the panel's column order.
// Unknown symbols are ignored.
func (p *PricePanel) Select(symbols []string) *PricePanel {
	want := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		want[s] = true
	}
	out := &PricePanel{dates: p.dates, index: map[string]int{}}
	for col, sym := range p.symbols {
		if !want[sym] {
			continue
		}
		out.index[sym] = len(out.symbols)
		out.symbols = append(out.symbols, sym)
		out.closes = append(out.closes, p.closes[col])
	}
	return out
}

// AlignPair extracts two legs on the rows where both have a price.
func (p *PricePanel) AlignPair(symbol1, symbol2 string) (PairSeries, error) {
	if symbol1 == symbol2 {
		return PairSeries{}, fmt.Errorf("%w: pair needs two distinct symbols, got %q twice", ErrData, symbol1)
	}
	c1, ok := p.index[symbol1]
	if !ok {
		return PairSeries{}, fmt.Errorf("%w: unknown symbol %q", ErrData, symbol1)
	}
	c2, ok := p.index[symbol2]
	if !ok {
		return PairSeries{}, fmt.Errorf("%w: unknown symbol %q", ErrData, symbol2)
	}
	out := PairSeries{Symbol1: symbol1, Symbol2: symbol2}
	for row, d := range p.dates {
		a, b := p.closes[c1][row], p.closes[c2][row]
		if math.IsNaN(a) || math.IsNaN(b) {
			continue
		}
		out.Dates = append(out.Dates, d)
		out.Leg1 = append(out.Leg1, a)
		out.Leg2 = append(out.Leg2, b)
	}
	return out, nil
}

// FirstDate and LastDate return the zero time on an empty panel.
func (p *PricePanel) FirstDate() time.Time {
	if len(p.dates) == 0 {
		return time.Time{}
	}
	return p.dates[0]
}

func (p *PricePanel) LastDate() time.Time {
	if len(p.dates) == 0 {
		return time.Time{}
	}
	return p.dates[len(p.dates)-1]
}
