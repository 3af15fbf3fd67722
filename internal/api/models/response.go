package models

import "time"

// BacktestResponse represents the response from a backtest run
type BacktestResponse struct {
	ID       string          `json:"id,omitempty"`
	Status   string          `json:"status"`
	Summary  BacktestSummary `json:"summary"`
	Episodes []Episode       `json:"episodes"`
	// MarginTrajectory holds margin after each traded episode.
	MarginTrajectory []float64   `json:"margin_trajectory"`
	Series           *SeriesData `json:"series,omitempty"`
	Ledger           []LedgerRow `json:"ledger,omitempty"`
}

// BacktestSummary echoes the run configuration together with its outcome
type BacktestSummary struct {
	Symbol1        string     `json:"symbol1"`
	Symbol2        string     `json:"symbol2"`
	BacktestWindow TimeWindow `json:"backtest_window"`
	Rows           int        `json:"rows"`

	Strategy         string  `json:"strategy"`
	Window           int     `json:"window"`
	EntryThreshold   float64 `json:"entry_threshold"`
	NeutralThreshold float64 `json:"neutral_threshold"`
	Commission       string  `json:"commission"`
	SlippageBps      float64 `json:"slippage_bps"`
	MarginRatio      float64 `json:"margin_ratio"`

	MarginInit      float64 `json:"margin_init"`
	FinalMargin     float64 `json:"final_margin"`
	Return          float64 `json:"return"`
	Episodes        int     `json:"episodes"`
	Trades          int     `json:"trades"`
	Wins            int     `json:"wins"`
	WinRate         float64 `json:"win_rate"`
	MaxDrawdown     float64 `json:"max_drawdown"`
	TotalCommission float64 `json:"total_commission"`
	P05PNL          float64 `json:"p05_pnl"`
	P95PNL          float64 `json:"p95_pnl"`
}

// TimeWindow represents a time range
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Episode is one contiguous run of a constant position
type Episode struct {
	ID             int       `json:"id"`
	Signal         int       `json:"signal"` // -1 short spread, 0 flat, +1 long spread
	Position       string    `json:"position"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	Leg1StartPrice float64   `json:"leg1_start_price"`
	Leg1EndPrice   float64   `json:"leg1_end_price"`
	Leg2StartPrice float64   `json:"leg2_start_price"`
	Leg2EndPrice   float64   `json:"leg2_end_price"`
}

// SeriesData is the per-row view used for charting
type SeriesData struct {
	Dates  []string   `json:"dates"`
	Leg1   []float64  `json:"leg1"`
	Leg2   []float64  `json:"leg2"`
	Ratio  []float64  `json:"ratio"`
	ZScore []*float64 `json:"zscore"` // null where undefined
	Signal []int      `json:"signal"`
}

// LedgerRow is the accounting for one traded episode
type LedgerRow struct {
	EpisodeID   int       `json:"episode_id"`
	Signal      string    `json:"signal"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Units1      int64     `json:"units1"`
	Units2      int64     `json:"units2"`
	MarginStart float64   `json:"margin_start"`
	BuyingPower float64   `json:"buying_power"`
	PNL         float64   `json:"pnl"`
	Commission  float64   `json:"commission"`
	Margin      float64   `json:"margin"`
}

// EpisodesResponse is returned by GET /backtest/:id/episodes
type EpisodesResponse struct {
	ID       string    `json:"id"`
	Symbol1  string    `json:"symbol1"`
	Symbol2  string    `json:"symbol2"`
	Episodes []Episode `json:"episodes"`
	Count    int       `json:"count"`
}

// CompareBacktestResponse represents the response from a comparison
type CompareBacktestResponse struct {
	Comparison []ComparisonResult `json:"comparison"`
}

// ComparisonResult contains results for one variation
type ComparisonResult struct {
	Name    string           `json:"name"`
	ID      string           `json:"id,omitempty"`
	Summary *BacktestSummary `json:"summary,omitempty"`
	Error   *ErrorDetail     `json:"error,omitempty"`
}

// RankResponse represents the response from ranking pairs
type RankResponse struct {
	Window   TimeWindow `json:"window"`
	Count    int        `json:"count"`
	Rankings []Ranking  `json:"rankings"`
}

// Ranking represents one ranked pair
type Ranking struct {
	Rank        int     `json:"rank"`
	Symbol1     string  `json:"symbol1"`
	Symbol2     string  `json:"symbol2"`
	Correlation float64 `json:"correlation"`
}

// PresetInfo represents information about a strategy preset
type PresetInfo struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Description      string  `json:"description,omitempty"`
	File             string  `json:"file"`
	Window           int     `json:"window"`
	EntryThreshold   float64 `json:"entry_threshold"`
	NeutralThreshold float64 `json:"neutral_threshold"`
}

// StrategyInfo represents information about a strategy
type StrategyInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ParameterInfo `json:"parameters"`
}

// ParameterInfo describes a strategy parameter
type ParameterInfo struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"` // "float", "int", "string"
	Description string      `json:"description"`
	Default     interface{} `json:"default,omitempty"`
}

// CommissionInfo describes one commission model
type CommissionInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// SymbolInfo describes one column of the loaded panel
type SymbolInfo struct {
	Symbol       string    `json:"symbol"`
	Observations int       `json:"observations"`
	FirstDate    time.Time `json:"first_date"`
	LastDate     time.Time `json:"last_date"`
	// InUniverse is set when a universe file is loaded.
	InUniverse *bool `json:"in_universe,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
