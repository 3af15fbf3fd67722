package model

import "errors"

// Error classes surfaced by the ranking and backtest pipeline.
// Callers match them with errors.Is; messages carry the detail.
var (
	ErrConfig            = errors.New("config error")
	ErrData              = errors.New("data error")
	ErrInvalidPrice      = errors.New("invalid price")
	ErrNumericDegenerate = errors.New("numeric degenerate")
	ErrMarginDepleted    = errors.New("margin depleted")
)
