package models

// BacktestRequest represents the request body for running a backtest
type BacktestRequest struct {
	Symbol1   string          `json:"symbol1" binding:"required"`
	Symbol2   string          `json:"symbol2" binding:"required"`
	StartDate string          `json:"start_date,omitempty"` // YYYY-MM-DD, default: first panel date
	EndDate   string          `json:"end_date,omitempty"`   // YYYY-MM-DD, default: last panel date
	Config    BacktestConfig  `json:"config"`
	Options   BacktestOptions `json:"options,omitempty"`
}

// BacktestConfig contains strategy, account and cost configuration
type BacktestConfig struct {
	Preset   string         `json:"preset,omitempty"` // preset ID from GET /presets
	Strategy StrategyConfig `json:"strategy"`
	Account  AccountConfig  `json:"account"`
	Costs    CostsConfig    `json:"costs"`
}

// StrategyConfig defines strategy and its parameters
type StrategyConfig struct {
	Name   string                 `json:"name,omitempty"`   // default: "zscore"
	Params map[string]interface{} `json:"params,omitempty"` // window, entry_threshold, neutral_threshold
}

type AccountConfig struct {
	MarginInit  *float64 `json:"margin_init,omitempty"`
	MarginRatio *float64 `json:"margin_ratio,omitempty"` // margin per unit of buying power, in (0, 1]
}

type CostsConfig struct {
	Commission  string   `json:"commission,omitempty"` // "tiered" or "flat"
	SlippageBps *float64 `json:"slippage_bps,omitempty"`
}

// BacktestOptions contains optional backtest parameters
type BacktestOptions struct {
	IncludeSeries bool `json:"include_series,omitempty"` // per-row prices, ratio, z-score, signal
	IncludeLedger bool `json:"include_ledger,omitempty"`
}

// CompareBacktestRequest runs several configurations of the same pair
type CompareBacktestRequest struct {
	Symbol1    string              `json:"symbol1" binding:"required"`
	Symbol2    string              `json:"symbol2" binding:"required"`
	StartDate  string              `json:"start_date,omitempty"`
	EndDate    string              `json:"end_date,omitempty"`
	BaseConfig BacktestConfig      `json:"base_config"`
	Variations []BacktestVariation `json:"variations" binding:"required,min=1,dive"`
}

// BacktestVariation defines a variation to test
type BacktestVariation struct {
	Name   string         `json:"name" binding:"required"`
	Config BacktestConfig `json:"config"`
}

// RankRequest represents a request to rank correlated pairs
type RankRequest struct {
	StartDate string `form:"start_date"` // default: 26 months before the last panel date
	EndDate   string `form:"end_date"`   // default: 60 days before the last panel date
	Limit     int    `form:"limit"`      // default: 3000
	Symbols   string `form:"symbols"`    // optional comma-separated subset
}
