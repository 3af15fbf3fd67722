package analysis

import (
	"fmt"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"pairs-backtest/internal/model"
)

// DefaultTopN caps the ranking when the caller passes topN <= 0.
const DefaultTopN = 3000

// RankPairs scores every unordered pair of usable columns in [from, to] by Pearson
// correlation of price levels and returns the topN, highest first.
// Ties keep the row-major order of the panel's columns.
func RankPairs(panel *model.PricePanel, from, to time.Time, topN int) ([]model.CorrelationPair, error) {
	if panel == nil {
		return nil, fmt.Errorf("%w: panel is nil", model.ErrData)
	}
	if topN <= 0 {
		topN = DefaultTopN
	}
	win := panel.Window(from, to)

	var symbols []string
	var cols [][]float64
	for _, s := range win.Symbols() {
		col, _ := win.Column(s)
		if !usable(col) {
			continue
		}
		symbols = append(symbols, s)
		cols = append(cols, col)
	}
	if len(symbols) < 2 {
		return nil, fmt.Errorf("%w: %d usable symbols in %s..%s, need at least 2",
			model.ErrData, len(symbols), fmtBound(from), fmtBound(to))
	}

	// Each worker owns one row of the upper triangle.
	rows := make([][]model.CorrelationPair, len(symbols))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range symbols {
		i := i
		g.Go(func() error {
			var row []model.CorrelationPair
			for j := i + 1; j < len(symbols); j++ {
				r, ok := pearson(cols[i], cols[j])
				if !ok {
					continue
				}
				row = append(row, model.CorrelationPair{Symbol1: symbols[i], Symbol2: symbols[j], Correlation: r})
			}
			rows[i] = row
			return nil
		})
	}
	_ = g.Wait()

	var out []model.CorrelationPair
	for _, row := range rows {
		out = append(out, row...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Correlation > out[j].Correlation
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out, nil
}

func fmtBound(t time.Time) string {
	if t.IsZero() {
		return "*"
	}
	return t.Format("2006-01-02")
}
