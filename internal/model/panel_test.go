package model

import (
	"errors"
	"math"
	"testing"
	"time"
)

func day(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

func testPanel(t *testing.T) *PricePanel {
	t.Helper()
	nan := math.NaN()
	p, err := NewPricePanel(
		[]time.Time{day(1), day(2), day(3), day(4)},
		[]string{"AAA", "BBB", "CCC"},
		[][]float64{
			{10, 11, nan, 13},
			{20, 21, 22, 23},
			{nan, nan, nan, 5},
		},
	)
	if err != nil {
		t.Fatalf("NewPricePanel: %v", err)
	}
	return p
}

func TestNewPricePanelRejectsBadShape(t *testing.T) {
	tests := []struct {
		name    string
		dates   []time.Time
		symbols []string
		closes  [][]float64
	}{
		{"column count", []time.Time{day(1)}, []string{"A", "B"}, [][]float64{{1}}},
		{"row count", []time.Time{day(1), day(2)}, []string{"A"}, [][]float64{{1}}},
		{"unsorted dates", []time.Time{day(2), day(1)}, []string{"A"}, [][]float64{{1, 2}}},
		{"duplicate dates", []time.Time{day(1), day(1)}, []string{"A"}, [][]float64{{1, 2}}},
		{"duplicate symbol", []time.Time{day(1)}, []string{"A", "A"}, [][]float64{{1}, {2}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewPricePanel(tc.dates, tc.symbols, tc.closes)
			if !errors.Is(err, ErrData) {
				t.Fatalf("expected ErrData, got %v", err)
			}
		})
	}
}

func TestPricePanelIsImmutable(t *testing.T) {
	closes := [][]float64{{1, 2}}
	p, err := NewPricePanel([]time.Time{day(1), day(2)}, []string{"A"}, closes)
	if err != nil {
		t.Fatalf("NewPricePanel: %v", err)
	}
	closes[0][0] = 99
	col, _ := p.Column("A")
	col[1] = 42
	if v, _ := p.Price(0, "A"); v != 1 {
		t.Fatalf("panel mutated through constructor input: %v", v)
	}
	if v, _ := p.Price(1, "A"); v != 2 {
		t.Fatalf("panel mutated through Column copy: %v", v)
	}
}

func TestPriceMissing(t *testing.T) {
	p := testPanel(t)
	if _, ok := p.Price(2, "AAA"); ok {
		t.Fatalf("expected missing cell")
	}
	if v, ok := p.Price(3, "CCC"); !ok || v != 5 {
		t.Fatalf("expected 5, got %v %v", v, ok)
	}
	if _, ok := p.Price(0, "ZZZ"); ok {
		t.Fatalf("unknown symbol should be missing")
	}
}

func TestWindowInclusive(t *testing.T) {
	p := testPanel(t)
	w := p.Window(day(2), day(3))
	if w.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", w.Len())
	}
	if !w.FirstDate().Equal(day(2)) || !w.LastDate().Equal(day(3)) {
		t.Fatalf("unexpected bounds %s..%s", w.FirstDate(), w.LastDate())
	}
	if v, _ := w.Price(0, "BBB"); v != 21 {
		t.Fatalf("expected 21, got %v", v)
	}
	if all := p.Window(time.Time{}, time.Time{}); all.Len() != 4 {
		t.Fatalf("open window should keep every row, got %d", all.Len())
	}
	if empty := p.Window(day(10), day(20)); empty.Len() != 0 {
		t.Fatalf("expected empty window, got %d", empty.Len())
	}
}

func TestSelectKeepsColumnOrder(t *testing.T) {
	p := testPanel(t)
	s := p.Select([]string{"CCC", "AAA", "NOPE"})
	got := s.Symbols()
	if len(got) != 2 || got[0] != "AAA" || got[1] != "CCC" {
		t.Fatalf("unexpected symbols %v", got)
	}
	if v, ok := s.Price(3, "CCC"); !ok || v != 5 {
		t.Fatalf("expected CCC=5, got %v %v", v, ok)
	}
}

func TestAlignPairDropsMissingRows(t *testing.T) {
	p := testPanel(t)
	ps, err := p.AlignPair("AAA", "BBB")
	if err != nil {
		t.Fatalf("AlignPair: %v", err)
	}
	if ps.Len() != 3 {
		t.Fatalf("expected 3 aligned rows, got %d", ps.Len())
	}
	if ps.Leg1[2] != 13 || ps.Leg2[2] != 23 {
		t.Fatalf("unexpected last row %v/%v", ps.Leg1[2], ps.Leg2[2])
	}

	if _, err := p.AlignPair("AAA", "AAA"); !errors.Is(err, ErrData) {
		t.Fatalf("expected ErrData for self pair, got %v", err)
	}
	if _, err := p.AlignPair("AAA", "ZZZ"); !errors.Is(err, ErrData) {
		t.Fatalf("expected ErrData for unknown symbol, got %v", err)
	}
}

func TestPairSeriesBetween(t *testing.T) {
	p := testPanel(t)
	ps, _ := p.AlignPair("AAA", "BBB")
	sub := ps.Between(day(2), time.Time{})
	if sub.Len() != 2 || !sub.Dates[0].Equal(day(2)) {
		t.Fatalf("unexpected sub-series %+v", sub.Dates)
	}
}

func TestEpisodeDescribe(t *testing.T) {
	e := TradeEpisode{Signal: LongSpread}
	if got := e.Describe("AAPL", "MSFT"); got != "Long AAPL, Short MSFT" {
		t.Fatalf("unexpected description %q", got)
	}
	e.Signal = ShortSpread
	if got := e.Describe("AAPL", "MSFT"); got != "Short AAPL, Long MSFT" {
		t.Fatalf("unexpected description %q", got)
	}
	if ShortSpread.String() != "SHORT_SPREAD" || Flat.IsTrade() {
		t.Fatalf("unexpected signal helpers")
	}
}

func TestAccountParamsValidate(t *testing.T) {
	if err := (AccountParams{MarginInit: 10000, MarginRatio: 0.25}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, a := range []AccountParams{{0, 0.25}, {100, 0}, {100, 1.5}} {
		if err := a.Validate(); !errors.Is(err, ErrConfig) {
			t.Fatalf("expected ErrConfig for %+v, got %v", a, err)
		}
	}
	if bp := (AccountParams{MarginRatio: 0.25}).BuyingPower(10000); bp != 40000 {
		t.Fatalf("expected 40000 buying power, got %v", bp)
	}
}
