package backtest

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"pairs-backtest/internal/model"
)

// WriteEpisodesCSV writes the position timeline, one row per episode.
func WriteEpisodesCSV(path string, symbol1, symbol2 string, episodes []model.TradeEpisode) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return EncodeEpisodesCSV(f, symbol1, symbol2, episodes)
}

func EncodeEpisodesCSV(out io.Writer, symbol1, symbol2 string, episodes []model.TradeEpisode) error {
	w := csv.NewWriter(out)

	header := []string{
		"episode",
		"signal",
		"position",
		"start",
		"end",
		symbol1 + "_start",
		symbol1 + "_end",
		symbol2 + "_start",
		symbol2 + "_end",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, ep := range episodes {
		row := []string{
			strconv.Itoa(ep.ID),
			strconv.Itoa(int(ep.Signal)),
			ep.Describe(symbol1, symbol2),
			fmtDate(ep.StartTime),
			fmtDate(ep.EndTime),
			fmtFloat(ep.Leg1StartPrice),
			fmtFloat(ep.Leg1EndPrice),
			fmtFloat(ep.Leg2StartPrice),
			fmtFloat(ep.Leg2EndPrice),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// WriteLedgerCSV writes one row per traded episode. Money columns are rounded to cents.
func WriteLedgerCSV(path string, ledger []LedgerRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return EncodeLedgerCSV(f, ledger)
}

func EncodeLedgerCSV(out io.Writer, ledger []LedgerRow) error {
	w := csv.NewWriter(out)

	header := []string{
		"episode",
		"signal",
		"start",
		"end",
		"leg1_entry",
		"leg1_exit",
		"leg2_entry",
		"leg2_exit",
		"units1",
		"units2",
		"margin_start",
		"buying_power",
		"pnl",
		"commission",
		"margin",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range ledger {
		row := []string{
			strconv.Itoa(r.EpisodeID),
			r.Signal.String(),
			fmtDate(r.StartTime),
			fmtDate(r.EndTime),
			fmtFloat(r.Leg1Entry),
			fmtFloat(r.Leg1Exit),
			fmtFloat(r.Leg2Entry),
			fmtFloat(r.Leg2Exit),
			strconv.FormatInt(r.Units1, 10),
			strconv.FormatInt(r.Units2, 10),
			fmtMoney(r.MarginStart),
			fmtMoney(r.BuyingPower),
			fmtMoney(r.PNL),
			fmtMoney(r.Commission),
			fmtMoney(r.Margin),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func fmtDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}

func fmtMoney(x float64) string {
	return decimal.NewFromFloat(x).StringFixed(2)
}
