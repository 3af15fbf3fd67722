package backtest

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"pairs-backtest/internal/model"
	"pairs-backtest/internal/strategy"
)

// Request describes one backtest of one pair.
type Request struct {
	Symbol1 string
	Symbol2 string
	// Optional inclusive date range; zero values are open.
	From time.Time
	To   time.Time

	Strategy string
	Params   strategy.Params
	Account  model.AccountParams
	Costs    Costs
}

// DefaultRequest fills every knob with its documented default.
func DefaultRequest(symbol1, symbol2 string) Request {
	return Request{
		Symbol1:  symbol1,
		Symbol2:  symbol2,
		Strategy: "zscore",
		Params:   strategy.DefaultParams(),
		Account:  model.AccountParams{MarginInit: model.DefaultMarginInit, MarginRatio: model.DefaultMarginRatio},
		Costs:    DefaultCosts(),
	}
}

func (r Request) Validate() error {
	if err := r.Params.Validate(); err != nil {
		return err
	}
	if err := r.Account.Validate(); err != nil {
		return err
	}
	if err := r.Costs.Validate(); err != nil {
		return err
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.From.After(r.To) {
		return fmt.Errorf("%w: from (%s) is after to (%s)", model.ErrConfig,
			r.From.Format("2006-01-02"), r.To.Format("2006-01-02"))
	}
	return nil
}

type Engine struct {
	log zerolog.Logger
}

func New(log zerolog.Logger) *Engine { return &Engine{log: log} }

// RunBacktest is the one-call entry point: panel and request in, result out.
func RunBacktest(panel *model.PricePanel, req Request) (*Result, error) {
	return New(zerolog.Nop()).RunRequest(panel, req)
}

// RunRequest validates the request, aligns the pair and runs it.
func (e *Engine) RunRequest(panel *model.PricePanel, req Request) (*Result, error) {
	if panel == nil {
		return nil, fmt.Errorf("%w: panel is nil", model.ErrData)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	strat, err := strategy.Build(req.Strategy, req.Params)
	if err != nil {
		return nil, err
	}
	series, err := panel.AlignPair(req.Symbol1, req.Symbol2)
	if err != nil {
		return nil, err
	}
	series = series.Between(req.From, req.To)

	res, err := e.Run(series, strat, req.Account, req.Costs)
	if err != nil {
		return nil, err
	}
	res.Params = req.Params
	return res, nil
}

// Run executes a backtest over an aligned pair series.
func (e *Engine) Run(series model.PairSeries, strat strategy.Strategy, account model.AccountParams, costs Costs) (*Result, error) {
	if strat == nil {
		return nil, fmt.Errorf("%w: strategy is nil", model.ErrConfig)
	}
	if err := account.Validate(); err != nil {
		return nil, err
	}
	if err := costs.Validate(); err != nil {
		return nil, err
	}
	if series.Len() < 2 {
		return nil, fmt.Errorf("%w: %s/%s has %d overlapping rows, need at least 2",
			model.ErrData, series.Symbol1, series.Symbol2, series.Len())
	}

	sig, err := strat.Signals(series)
	if err != nil {
		return nil, err
	}
	episodes := Segment(series, sig.Signals)
	for _, ep := range episodes {
		e.log.Debug().
			Int("episode", ep.ID).
			Time("start", ep.StartTime).
			Time("end", ep.EndTime).
			Str("position", ep.Describe(series.Symbol1, series.Symbol2)).
			Msg("episode")
	}

	ledger, final, err := SimulateMargin(episodes, account, costs)
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", series.Symbol1, series.Symbol2, err)
	}
	trajectory := make([]float64, len(ledger))
	for i, row := range ledger {
		trajectory[i] = row.Margin
	}

	e.log.Info().
		Str("pair", series.Symbol1+"/"+series.Symbol2).
		Str("strategy", strat.Name()).
		Int("rows", series.Len()).
		Int("episodes", len(episodes)).
		Int("trades", len(ledger)).
		Float64("final_margin", final).
		Msg("backtest complete")

	return &Result{
		Symbol1:          series.Symbol1,
		Symbol2:          series.Symbol2,
		Strategy:         strat.Name(),
		Account:          account,
		Costs:            costs,
		Dates:            series.Dates,
		Leg1:             series.Leg1,
		Leg2:             series.Leg2,
		Spread:           sig.Spread,
		Signals:          sig.Signals,
		Episodes:         episodes,
		Ledger:           ledger,
		MarginTrajectory: trajectory,
		FinalMargin:      final,
	}, nil
}
