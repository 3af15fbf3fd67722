package analysis

import (
	"errors"
	"math"
	"testing"
	"time"

	"pairs-backtest/internal/model"
)

func day(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

func buildPanel(t *testing.T, symbols []string, cols [][]float64) *model.PricePanel {
	t.Helper()
	dates := make([]time.Time, len(cols[0]))
	for i := range dates {
		dates[i] = day(i + 1)
	}
	p, err := model.NewPricePanel(dates, symbols, cols)
	if err != nil {
		t.Fatalf("NewPricePanel: %v", err)
	}
	return p
}

func TestRankPairsOrdersByCorrelation(t *testing.T) {
	panel := buildPanel(t,
		[]string{"A", "B", "C", "D"},
		[][]float64{
			{1, 2, 3, 4, 5},
			{2, 4, 6, 8, 10}, // perfectly correlated with A
			{5, 4, 3, 2, 1},  // perfectly anti-correlated with A
			{1, 3, 2, 5, 4},
		})
	pairs, err := RankPairs(panel, time.Time{}, time.Time{}, 0)
	if err != nil {
		t.Fatalf("RankPairs: %v", err)
	}
	if len(pairs) != 6 {
		t.Fatalf("expected 6 pairs, got %d", len(pairs))
	}
	if pairs[0].Symbol1 != "A" || pairs[0].Symbol2 != "B" || math.Abs(pairs[0].Correlation-1) > 1e-12 {
		t.Fatalf("unexpected top pair %+v", pairs[0])
	}
	for i := 1; i < len(pairs); i++ {
		if pairs[i].Correlation > pairs[i-1].Correlation {
			t.Fatalf("pairs not sorted descending at %d", i)
		}
	}
	last := pairs[len(pairs)-1]
	if math.Abs(last.Correlation+1) > 1e-12 {
		t.Fatalf("expected -1 at the bottom, got %+v", last)
	}
	for _, p := range pairs {
		if p.Correlation < -1 || p.Correlation > 1 {
			t.Fatalf("correlation out of range: %+v", p)
		}
	}
}

func TestRankPairsUpperTriangleOnly(t *testing.T) {
	panel := buildPanel(t,
		[]string{"X", "Y", "Z"},
		[][]float64{{1, 2, 3}, {1, 2, 4}, {3, 1, 2}})
	pairs, err := RankPairs(panel, time.Time{}, time.Time{}, 10)
	if err != nil {
		t.Fatalf("RankPairs: %v", err)
	}
	order := map[string]int{"X": 0, "Y": 1, "Z": 2}
	seen := map[string]bool{}
	for _, p := range pairs {
		if order[p.Symbol1] >= order[p.Symbol2] {
			t.Fatalf("pair not in column order: %+v", p)
		}
		key := p.Symbol1 + p.Symbol2
		if seen[key] {
			t.Fatalf("duplicate pair %s", key)
		}
		seen[key] = true
	}
}

func TestRankPairsTiesAreStable(t *testing.T) {
	panel := buildPanel(t,
		[]string{"A", "B", "C"},
		[][]float64{{1, 2, 3}, {2, 3, 4}, {5, 6, 7}})
	pairs, err := RankPairs(panel, time.Time{}, time.Time{}, 0)
	if err != nil {
		t.Fatalf("RankPairs: %v", err)
	}
	want := []string{"AB", "AC", "BC"}
	for i, p := range pairs {
		if p.Symbol1+p.Symbol2 != want[i] {
			t.Fatalf("tie order %d: got %s%s, want %s", i, p.Symbol1, p.Symbol2, want[i])
		}
	}
}

func TestRankPairsSkipsUnusableColumns(t *testing.T) {
	nan := math.NaN()
	panel := buildPanel(t,
		[]string{"A", "FLAT", "B", "SPARSE"},
		[][]float64{
			{1, 2, 3, 4},
			{7, 7, 7, 7},
			{1, 3, 2, 4},
			{nan, nan, 9, nan},
		})
	pairs, err := RankPairs(panel, time.Time{}, time.Time{}, 0)
	if err != nil {
		t.Fatalf("RankPairs: %v", err)
	}
	if len(pairs) != 1 || pairs[0].Symbol1 != "A" || pairs[0].Symbol2 != "B" {
		t.Fatalf("expected only A/B, got %+v", pairs)
	}
}

func TestRankPairsWindowAndTopN(t *testing.T) {
	panel := buildPanel(t,
		[]string{"A", "B", "C"},
		[][]float64{
			{1, 2, 3, 4, 5, 6},
			{1, 2, 3, 9, 1, 9},
			{9, 8, 7, 1, 2, 1},
		})
	pairs, err := RankPairs(panel, day(1), day(3), 1)
	if err != nil {
		t.Fatalf("RankPairs: %v", err)
	}
	if len(pairs) != 1 || pairs[0].Symbol1 != "A" || pairs[0].Symbol2 != "B" {
		t.Fatalf("expected A/B as the single top pair in window, got %+v", pairs)
	}
}

func TestRankPairsTooFewColumns(t *testing.T) {
	panel := buildPanel(t, []string{"A", "FLAT"}, [][]float64{{1, 2, 3}, {4, 4, 4}})
	if _, err := RankPairs(panel, time.Time{}, time.Time{}, 0); !errors.Is(err, model.ErrData) {
		t.Fatalf("expected ErrData, got %v", err)
	}
	if _, err := RankPairs(panel, day(1), day(1), 0); !errors.Is(err, model.ErrData) {
		t.Fatalf("expected ErrData for single-row window, got %v", err)
	}
}

func TestPearsonPairwiseComplete(t *testing.T) {
	nan := math.NaN()
	// only rows 0, 2, 3 overlap
	r, ok := pearson([]float64{1, nan, 2, 3}, []float64{2, 5, 4, 6})
	if !ok || math.Abs(r-1) > 1e-12 {
		t.Fatalf("got (%v, %v), want (1, true)", r, ok)
	}
	if _, ok := pearson([]float64{1, nan, 3}, []float64{nan, 2, 3}); ok {
		t.Fatalf("single overlapping row must be undefined")
	}
	if _, ok := pearson([]float64{1, 2, 3}, []float64{4, 4, 4}); ok {
		t.Fatalf("constant side must be undefined")
	}
}

func TestDefaultWindows(t *testing.T) {
	end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	w := DefaultWindows(end, 0, -1)
	if !w.HistoryStart.Equal(time.Date(2023, 4, 30, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("history start = %s", w.HistoryStart)
	}
	if !w.CorrelationEnd.Equal(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("correlation end = %s", w.CorrelationEnd)
	}
	if !w.TestStart.Equal(time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC)) || !w.End.Equal(end) {
		t.Fatalf("test window = %s..%s", w.TestStart, w.End)
	}
}
