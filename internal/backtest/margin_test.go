package backtest

import (
	"errors"
	"math"
	"testing"

	"pairs-backtest/internal/model"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func defaultAccount() model.AccountParams {
	return model.AccountParams{MarginInit: model.DefaultMarginInit, MarginRatio: model.DefaultMarginRatio}
}

func episode(id int, sig model.Signal, p1, x1, p2, x2 float64) model.TradeEpisode {
	return model.TradeEpisode{
		ID:             id,
		Signal:         sig,
		StartTime:      day(id),
		EndTime:        day(id + 1),
		Leg1StartPrice: p1,
		Leg1EndPrice:   x1,
		Leg2StartPrice: p2,
		Leg2EndPrice:   x2,
	}
}

func TestSimulateMarginSizesFromBuyingPower(t *testing.T) {
	eps := []model.TradeEpisode{episode(1, model.LongSpread, 100, 100, 100, 100)}
	ledger, final, err := SimulateMargin(eps, defaultAccount(), DefaultCosts())
	if err != nil {
		t.Fatalf("SimulateMargin: %v", err)
	}
	if len(ledger) != 1 {
		t.Fatalf("expected 1 ledger row, got %d", len(ledger))
	}
	row := ledger[0]
	if row.BuyingPower != 40000 || row.Units1 != 200 || row.Units2 != 200 {
		t.Fatalf("unexpected sizing %+v", row)
	}
	// buy leg 1.00, sell leg 1.00 + 0.16 SEC + 0.0332 TAF
	if !approx(row.Commission, 2.1932) {
		t.Fatalf("commission = %v, want 2.1932", row.Commission)
	}
	// 3 bps against each side of each leg on unchanged prices
	if !approx(row.PNL, -24) {
		t.Fatalf("pnl = %v, want -24", row.PNL)
	}
	if !approx(final, 9973.8068) || !approx(row.Margin, final) {
		t.Fatalf("final margin = %v, want 9973.8068", final)
	}
}

func TestSimulateMarginFlatCommission(t *testing.T) {
	eps := []model.TradeEpisode{episode(1, model.LongSpread, 100, 100, 100, 100)}
	ledger, _, err := SimulateMargin(eps, defaultAccount(), Costs{Commission: CommissionFlat})
	if err != nil {
		t.Fatalf("SimulateMargin: %v", err)
	}
	if !approx(ledger[0].Commission, 40) {
		t.Fatalf("commission = %v, want 40", ledger[0].Commission)
	}
	if ledger[0].PNL != 0 {
		t.Fatalf("pnl without slippage = %v, want 0", ledger[0].PNL)
	}
}

func TestSimulateMarginDirection(t *testing.T) {
	noCost := Costs{Commission: CommissionFlat, SlippageBps: 0}
	acct := model.AccountParams{MarginInit: 1000, MarginRatio: 1}
	// 500 per leg: 5 units of leg1, 10 units of leg2
	tests := []struct {
		name   string
		sig    model.Signal
		x1, x2 float64
		want   float64
	}{
		// long leg1 +10*5, short leg2 -2*10
		{"long spread, both rise", model.LongSpread, 110, 52, 30},
		// short leg1 -10*5, long leg2 +2*10
		{"short spread, both rise", model.ShortSpread, 110, 52, -30},
		// long leg1 -4*5, short leg2 +1*10
		{"long spread, both fall", model.LongSpread, 96, 49, -10},
		// short leg1 +4*5, long leg2 -1*10
		{"short spread, both fall", model.ShortSpread, 96, 49, 10},
	}
	for _, tc := range tests {
		eps := []model.TradeEpisode{episode(1, tc.sig, 100, tc.x1, 50, tc.x2)}
		ledger, _, err := SimulateMargin(eps, acct, noCost)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if !approx(ledger[0].PNL, tc.want) {
			t.Fatalf("%s: pnl = %v, want %v", tc.name, ledger[0].PNL, tc.want)
		}
	}

	eps := []model.TradeEpisode{episode(1, model.ShortSpread, 100, 90, 50, 50)}
	ledger, _, err := SimulateMargin(eps, acct, noCost)
	if err != nil {
		t.Fatalf("SimulateMargin: %v", err)
	}
	if !approx(ledger[0].PNL, 50) {
		t.Fatalf("short spread on falling leg1: pnl = %v, want 50", ledger[0].PNL)
	}
}

func TestSimulateMarginSkipsFlatEpisodes(t *testing.T) {
	eps := []model.TradeEpisode{
		episode(1, model.Flat, 100, 200, 100, 50),
		episode(2, model.LongSpread, 100, 101, 100, 100),
		episode(3, model.Flat, 101, 90, 100, 100),
		episode(4, model.ShortSpread, 90, 90, 100, 100),
	}
	ledger, final, err := SimulateMargin(eps, defaultAccount(), DefaultCosts())
	if err != nil {
		t.Fatalf("SimulateMargin: %v", err)
	}
	if len(ledger) != 2 {
		t.Fatalf("expected 2 ledger rows, got %d", len(ledger))
	}
	if ledger[0].EpisodeID != 2 || ledger[1].EpisodeID != 4 {
		t.Fatalf("unexpected episode ids %d, %d", ledger[0].EpisodeID, ledger[1].EpisodeID)
	}
	if ledger[1].MarginStart != ledger[0].Margin {
		t.Fatalf("margin did not carry across flat episode")
	}
	if ledger[1].BuyingPower != ledger[0].Margin/model.DefaultMarginRatio {
		t.Fatalf("buying power not recomputed from current margin")
	}
	if final != ledger[1].Margin {
		t.Fatalf("final margin mismatch")
	}
}

func TestSimulateMarginNoTrades(t *testing.T) {
	eps := []model.TradeEpisode{episode(1, model.Flat, 100, 100, 100, 100)}
	ledger, final, err := SimulateMargin(eps, defaultAccount(), DefaultCosts())
	if err != nil {
		t.Fatalf("SimulateMargin: %v", err)
	}
	if len(ledger) != 0 || final != model.DefaultMarginInit {
		t.Fatalf("expected untouched margin, got %v with %d rows", final, len(ledger))
	}
}

func TestSimulateMarginHaltsWhenDepleted(t *testing.T) {
	acct := model.AccountParams{MarginInit: 1000, MarginRatio: 1}
	eps := []model.TradeEpisode{
		// 5 units short at 100, exits at 400: loses 1500
		episode(1, model.ShortSpread, 100, 400, 100, 100),
		episode(2, model.LongSpread, 100, 100, 100, 100),
	}
	ledger, final, err := SimulateMargin(eps, acct, Costs{Commission: CommissionFlat})
	if !errors.Is(err, model.ErrMarginDepleted) {
		t.Fatalf("expected ErrMarginDepleted, got %v", err)
	}
	if len(ledger) != 1 || final >= 0 {
		t.Fatalf("expected one row and negative margin, got %d rows, margin %v", len(ledger), final)
	}
}

func TestSimulateMarginRejectsBadInputs(t *testing.T) {
	eps := []model.TradeEpisode{episode(1, model.LongSpread, 0, 100, 100, 100)}
	if _, _, err := SimulateMargin(eps, defaultAccount(), DefaultCosts()); !errors.Is(err, model.ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
	bad := []model.AccountParams{{MarginInit: 0, MarginRatio: 0.25}, {MarginInit: 100, MarginRatio: 0}}
	for _, a := range bad {
		if _, _, err := SimulateMargin(nil, a, DefaultCosts()); !errors.Is(err, model.ErrConfig) {
			t.Fatalf("%+v: expected ErrConfig, got %v", a, err)
		}
	}
	if _, _, err := SimulateMargin(nil, defaultAccount(), Costs{Commission: "bogus"}); !errors.Is(err, model.ErrConfig) {
		t.Fatalf("expected ErrConfig for unknown commission, got %v", err)
	}
}
