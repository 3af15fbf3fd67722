package backtest

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pairs-backtest/internal/model"
)

func TestWriteLedgerCSV(t *testing.T) {
	ledger, _, err := SimulateMargin(
		[]model.TradeEpisode{episode(1, model.LongSpread, 100, 100, 100, 100)},
		defaultAccount(), DefaultCosts())
	if err != nil {
		t.Fatalf("SimulateMargin: %v", err)
	}
	path := filepath.Join(t.TempDir(), "ledger.csv")
	if err := WriteLedgerCSV(path, ledger); err != nil {
		t.Fatalf("WriteLedgerCSV: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header and 1 row, got %d", len(rows))
	}
	got := map[string]string{}
	for i, h := range rows[0] {
		got[h] = rows[1][i]
	}
	want := map[string]string{
		"signal":       "LONG_SPREAD",
		"start":        "2024-03-01",
		"units1":       "200",
		"buying_power": "40000.00",
		"pnl":          "-24.00",
		"commission":   "2.19",
		"margin":       "9973.81",
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("%s = %q, want %q", k, got[k], v)
		}
	}
}

func TestEncodeEpisodesCSV(t *testing.T) {
	var sb strings.Builder
	eps := []model.TradeEpisode{
		episode(1, model.Flat, 1, 2, 3, 4),
		episode(2, model.ShortSpread, 2, 3, 4, 5),
	}
	if err := EncodeEpisodesCSV(&sb, "KO", "PEP", eps); err != nil {
		t.Fatalf("EncodeEpisodesCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "episode,signal,position,start,end,KO_start") {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if !strings.Contains(lines[2], "\"Short KO, Long PEP\"") {
		t.Fatalf("missing description in %q", lines[2])
	}
}
