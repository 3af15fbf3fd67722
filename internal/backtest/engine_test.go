package backtest

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"pairs-backtest/internal/model"
	"pairs-backtest/internal/strategy"
)

// ratioPanel builds AAA/BBB with ln(AAA/BBB) following ratios and BBB fixed at 100.
func ratioPanel(t *testing.T, ratios []float64) *model.PricePanel {
	t.Helper()
	dates := make([]time.Time, len(ratios))
	leg1 := make([]float64, len(ratios))
	leg2 := make([]float64, len(ratios))
	for i, r := range ratios {
		dates[i] = day(i + 1)
		leg1[i] = 100 * math.Exp(r)
		leg2[i] = 100
	}
	p, err := model.NewPricePanel(dates, []string{"AAA", "BBB"}, [][]float64{leg1, leg2})
	if err != nil {
		t.Fatalf("NewPricePanel: %v", err)
	}
	return p
}

var exampleRatios = []float64{0, 1, 0, 1, 0, 2, 2.2, 3, 2.4}

func exampleRequest() Request {
	req := DefaultRequest("AAA", "BBB")
	req.Params = strategy.Params{Window: 3, EntryThreshold: 2, NeutralThreshold: 1}
	return req
}

func TestRunBacktestEndToEnd(t *testing.T) {
	res, err := RunBacktest(ratioPanel(t, exampleRatios), exampleRequest())
	if err != nil {
		t.Fatalf("RunBacktest: %v", err)
	}
	want := []model.Signal{0, 0, 0, 0, 0, -1, -1, -1, 0}
	for i := range want {
		if res.Signals[i] != want[i] {
			t.Fatalf("signals = %v, want %v", res.Signals, want)
		}
	}
	if len(res.Episodes) != 3 || len(res.Ledger) != 1 || len(res.MarginTrajectory) != 1 {
		t.Fatalf("unexpected shape: %d episodes, %d ledger rows, %d snapshots",
			len(res.Episodes), len(res.Ledger), len(res.MarginTrajectory))
	}
	row := res.Ledger[0]
	if row.Signal != model.ShortSpread || !row.StartTime.Equal(day(6)) || !row.EndTime.Equal(day(9)) {
		t.Fatalf("unexpected ledger row %+v", row)
	}
	// short AAA from 100e^2 to 100e^2.4 with BBB flat loses money
	if row.Units1 != 27 || row.Units2 != 200 || row.PNL >= 0 {
		t.Fatalf("unexpected sizing or pnl %+v", row)
	}
	if res.FinalMargin != res.MarginTrajectory[0] {
		t.Fatalf("final margin %v does not match trajectory %v", res.FinalMargin, res.MarginTrajectory)
	}
	if res.Strategy != "zscore" || res.Params.Window != 3 {
		t.Fatalf("result does not echo its configuration: %s %+v", res.Strategy, res.Params)
	}
}

func TestRunBacktestIsDeterministic(t *testing.T) {
	panel := ratioPanel(t, exampleRatios)
	a, err := RunBacktest(panel, exampleRequest())
	if err != nil {
		t.Fatalf("RunBacktest: %v", err)
	}
	b, err := RunBacktest(panel, exampleRequest())
	if err != nil {
		t.Fatalf("RunBacktest: %v", err)
	}
	if a.FinalMargin != b.FinalMargin || len(a.Episodes) != len(b.Episodes) {
		t.Fatalf("runs differ: %v vs %v", a.FinalMargin, b.FinalMargin)
	}
	for i := range a.Signals {
		if a.Signals[i] != b.Signals[i] {
			t.Fatalf("signal %d differs", i)
		}
	}
}

func TestRunBacktestErrors(t *testing.T) {
	panel := ratioPanel(t, exampleRatios)

	badWindow := exampleRequest()
	badWindow.Params.Window = 0
	badWindow.Symbol1 = "ZZZ"

	unknown := exampleRequest()
	unknown.Symbol2 = "ZZZ"

	same := exampleRequest()
	same.Symbol2 = "AAA"

	short := exampleRequest()
	short.From, short.To = day(4), day(4)

	badStrategy := exampleRequest()
	badStrategy.Strategy = "momentum"

	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"config checked before data", badWindow, model.ErrConfig},
		{"unknown symbol", unknown, model.ErrData},
		{"same symbol", same, model.ErrData},
		{"single row", short, model.ErrData},
		{"unknown strategy", badStrategy, model.ErrConfig},
	}
	for _, tc := range tests {
		if _, err := RunBacktest(panel, tc.req); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestEngineLogsEpisodes(t *testing.T) {
	var buf bytes.Buffer
	e := New(zerolog.New(&buf).Level(zerolog.DebugLevel))
	if _, err := e.RunRequest(ratioPanel(t, exampleRatios), exampleRequest()); err != nil {
		t.Fatalf("RunRequest: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Short AAA, Long BBB") || !strings.Contains(out, "backtest complete") {
		t.Fatalf("missing episode logs:\n%s", out)
	}
}

func TestSweepKeepsRequestOrder(t *testing.T) {
	panel := ratioPanel(t, exampleRatios)
	var reqs []Request
	for _, w := range []int{1, 2, 3, 4, 5} {
		r := exampleRequest()
		r.Params.Window = w
		reqs = append(reqs, r)
	}
	bad := exampleRequest()
	bad.Symbol2 = "ZZZ"
	reqs = append(reqs, bad)

	results, err := Sweep(context.Background(), panel, reqs)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	for i, r := range results[:5] {
		if r.Err != nil {
			t.Fatalf("request %d failed: %v", i, r.Err)
		}
		if r.Result.Params.Window != i+1 {
			t.Fatalf("result %d out of order: window %d", i, r.Result.Params.Window)
		}
		single, _ := RunBacktest(panel, reqs[i])
		if single.FinalMargin != r.Result.FinalMargin {
			t.Fatalf("sweep result %d differs from a single run", i)
		}
	}
	if !errors.Is(results[5].Err, model.ErrData) {
		t.Fatalf("expected per-request ErrData, got %v", results[5].Err)
	}
}

func TestSweepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Sweep(ctx, ratioPanel(t, exampleRatios), []Request{exampleRequest()}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
