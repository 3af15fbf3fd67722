package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"pairs-backtest/internal/model"
)

const dateLayout = "2006-01-02"

// LoadPanel reads a price panel, picking the format from the file extension.
func LoadPanel(path string) (*model.PricePanel, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return LoadPanelJSON(path)
	default:
		return LoadPanelCSV(path)
	}
}

// LoadPanelCSV reads a wide CSV: Date,SYM1,SYM2,... with one row per trading day.
// An empty cell (or NaN) is a missing price.
func LoadPanelCSV(path string) (*model.PricePanel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	p, err := ReadPanelCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

func ReadPanelCSV(r io.Reader) (*model.PricePanel, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty panel file", model.ErrData)
		}
		return nil, fmt.Errorf("%w: %v", model.ErrData, err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("%w: header needs a date column and at least one symbol", model.ErrData)
	}
	symbols := make([]string, len(header)-1)
	for i, h := range header[1:] {
		symbols[i] = strings.TrimSpace(h)
	}

	var rows []panelRow
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", model.ErrData, line, err)
		}
		d, err := parseDate(rec[0])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", model.ErrData, line, err)
		}
		vals := make([]float64, len(symbols))
		for j := range symbols {
			v, err := parsePrice(rec[j+1])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d, %s: %v", model.ErrData, line, symbols[j], err)
			}
			vals[j] = v
		}
		rows = append(rows, panelRow{date: d, closes: vals})
	}
	return buildPanel(symbols, rows)
}

type panelRow struct {
	date   time.Time
	closes []float64
}

// buildPanel sorts rows by date and pivots them into per-symbol columns.
func buildPanel(symbols []string, rows []panelRow) (*model.PricePanel, error) {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].date.Before(rows[j].date) })
	dates := make([]time.Time, len(rows))
	closes := make([][]float64, len(symbols))
	for j := range closes {
		closes[j] = make([]float64, len(rows))
	}
	for i, r := range rows {
		dates[i] = r.date
		for j := range symbols {
			closes[j][i] = r.closes[j]
		}
	}
	return model.NewPricePanel(dates, symbols, closes)
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(dateLayout) {
		// tolerate timestamps like 2024-01-02 00:00:00
		s = s[:len(dateLayout)]
	}
	return time.Parse(dateLayout, s)
}

func parsePrice(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "null") {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// WritePanelCSV writes a panel in the format ReadPanelCSV accepts.
func WritePanelCSV(path string, p *model.PricePanel) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	symbols := p.Symbols()
	if err := w.Write(append([]string{"Date"}, symbols...)); err != nil {
		return err
	}
	for i, d := range p.Dates() {
		rec := make([]string, 0, len(symbols)+1)
		rec = append(rec, d.Format(dateLayout))
		for _, s := range symbols {
			v, ok := p.Price(i, s)
			if !ok {
				rec = append(rec, "")
				continue
			}
			rec = append(rec, strconv.FormatFloat(v, 'f', -1, 64))
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
