package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"pairs-backtest/internal/analysis"
	"pairs-backtest/internal/backtest"
	"pairs-backtest/internal/config"
	"pairs-backtest/internal/data"
	"pairs-backtest/internal/model"
	"pairs-backtest/internal/util"
)

// Demo:
// - Generate a synthetic panel with one co-moving pair and one unrelated symbol
// - Rank the pairs and backtest the most correlated one
// - Print the first few ledger rows to show how the pieces fit together
func main() {
	days := flag.Int("days", 250, "Number of business days to generate")
	seed := flag.Int64("seed", 7, "Random seed")
	cfgPath := flag.String("config", "", "Path to YAML config (optional; strategy/account/costs are used)")
	outPanel := flag.String("panel-out", "", "Optional path to write the generated panel CSV")
	outCSV := flag.String("out", "", "Optional path to write ledger CSV (e.g. results/demo_ledger.csv)")
	n := flag.Int("n", 12, "Number of ledger rows to print")
	flag.Parse()

	log := util.NewLogger(os.Getenv("LOG_LEVEL"))

	panel, err := syntheticPanel(*days, *seed)
	if err != nil {
		log.Fatal().Err(err).Msg("generate panel")
	}
	if *outPanel != "" {
		if err := data.WritePanelCSV(*outPanel, panel); err != nil {
			log.Fatal().Err(err).Msg("write panel")
		}
		fmt.Printf("Wrote panel: %s\n", *outPanel)
	}

	pairs, err := analysis.RankPairs(panel, panel.FirstDate(), panel.LastDate(), 0)
	if err != nil {
		log.Fatal().Err(err).Msg("rank pairs")
	}
	fmt.Println("Ranking:")
	for i, p := range pairs {
		fmt.Printf("  %d. %s/%s  rho=%.4f\n", i+1, p.Symbol1, p.Symbol2, p.Correlation)
	}
	best := pairs[0]

	req := backtest.DefaultRequest(best.Symbol1, best.Symbol2)
	if *cfgPath != "" {
		cfg, err := config.Load(*cfgPath)
		if err != nil {
			log.Fatal().Err(err).Msg("load config")
		}
		fromCfg, err := cfg.BacktestRequest()
		if err != nil {
			log.Fatal().Err(err).Msg("build request")
		}
		fromCfg.Symbol1, fromCfg.Symbol2 = best.Symbol1, best.Symbol2
		fromCfg.From, fromCfg.To = time.Time{}, time.Time{}
		req = fromCfg
	}

	result, err := backtest.New(log).RunRequest(panel, req)
	if err != nil {
		log.Fatal().Err(err).Msg("backtest")
	}

	fmt.Printf("\nBacktest %s/%s over %d days, window=%d entry=%.2f neutral=%.2f\n",
		result.Symbol1, result.Symbol2, len(result.Dates),
		result.Params.Window, result.Params.EntryThreshold, result.Params.NeutralThreshold)
	fmt.Printf("Starting margin=$%.2f\n\n", result.Account.MarginInit)

	for i := 0; i < min(*n, len(result.Ledger)); i++ {
		r := result.Ledger[i]
		fmt.Printf(
			"#%-3d %s -> %s  %-12s  u1=%5d u2=%5d  pnl=%9.2f  fee=%6.2f  margin=%10.2f\n",
			r.EpisodeID,
			r.StartTime.Format("2006-01-02"),
			r.EndTime.Format("2006-01-02"),
			r.Signal,
			r.Units1,
			r.Units2,
			r.PNL,
			r.Commission,
			r.Margin,
		)
	}

	if *outCSV != "" {
		if err := backtest.WriteLedgerCSV(*outCSV, result.Ledger); err != nil {
			log.Fatal().Err(err).Msg("write ledger")
		}
		fmt.Printf("\nWrote CSV: %s\n", *outCSV)
	}

	s := analysis.Summarize(result)
	fmt.Printf("\nDone. Trades=%d  Win rate=%.0f%%  Final margin=$%.2f (%+.2f%%)\n",
		s.Trades, 100*s.WinRate, s.FinalMargin, 100*s.Return)
}

// syntheticPanel builds three symbols: AAA is a random walk, BBB tracks AAA through
// a mean-reverting log spread, and CCC is an independent random walk.
func syntheticPanel(days int, seed int64) (*model.PricePanel, error) {
	rng := rand.New(rand.NewSource(seed))
	dates := make([]time.Time, 0, days)
	d := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for len(dates) < days {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			dates = append(dates, d)
		}
		d = d.AddDate(0, 0, 1)
	}

	a := make([]float64, days)
	b := make([]float64, days)
	c := make([]float64, days)
	logA, logC, spread := math.Log(50), math.Log(80), 0.0
	for i := 0; i < days; i++ {
		logA += 0.01 * rng.NormFloat64()
		logC += 0.012 * rng.NormFloat64()
		spread = 0.8*spread + 0.02*rng.NormFloat64()
		a[i] = round2(math.Exp(logA))
		b[i] = round2(math.Exp(logA - math.Log(50) + math.Log(40) + spread))
		c[i] = round2(math.Exp(logC))
	}
	return model.NewPricePanel(dates, []string{"AAA", "BBB", "CCC"}, [][]float64{a, b, c})
}

func round2(x float64) float64 { return math.Round(x*100) / 100 }

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
