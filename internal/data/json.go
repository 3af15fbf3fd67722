package data

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"pairs-backtest/internal/model"
)

// PanelFile is the JSON panel shape: shared dates plus one close series per symbol.
// A null close is a missing price.
type PanelFile struct {
	Dates  []string       `json:"dates"`
	Series []SymbolSeries `json:"series"`
}

type SymbolSeries struct {
	Symbol string     `json:"symbol"`
	Closes []*float64 `json:"closes"`
}

func LoadPanelJSON(path string) (*model.PricePanel, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var pf PanelFile
	if err := json.Unmarshal(raw, &pf); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrData, path, err)
	}
	p, err := pf.Panel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

func (pf PanelFile) Panel() (*model.PricePanel, error) {
	symbols := make([]string, len(pf.Series))
	for j, s := range pf.Series {
		if len(s.Closes) != len(pf.Dates) {
			return nil, fmt.Errorf("%w: %s has %d closes for %d dates", model.ErrData, s.Symbol, len(s.Closes), len(pf.Dates))
		}
		symbols[j] = s.Symbol
	}
	rows := make([]panelRow, len(pf.Dates))
	for i, ds := range pf.Dates {
		d, err := parseDate(ds)
		if err != nil {
			return nil, fmt.Errorf("%w: date %q: %v", model.ErrData, ds, err)
		}
		vals := make([]float64, len(symbols))
		for j, s := range pf.Series {
			if s.Closes[i] == nil {
				vals[j] = math.NaN()
				continue
			}
			vals[j] = *s.Closes[i]
		}
		rows[i] = panelRow{date: d, closes: vals}
	}
	return buildPanel(symbols, rows)
}

// PanelToFile converts a panel into its JSON file shape.
func PanelToFile(p *model.PricePanel) PanelFile {
	dates := p.Dates()
	pf := PanelFile{Dates: make([]string, len(dates))}
	for i, d := range dates {
		pf.Dates[i] = d.Format(dateLayout)
	}
	for _, s := range p.Symbols() {
		ss := SymbolSeries{Symbol: s, Closes: make([]*float64, len(dates))}
		for i := range dates {
			if v, ok := p.Price(i, s); ok {
				v := v
				ss.Closes[i] = &v
			}
		}
		pf.Series = append(pf.Series, ss)
	}
	return pf
}
