package model

import "fmt"

// AccountParams defines the margin account a backtest starts from.
// MarginRatio is margin per unit of buying power: 0.25 means $1 of margin trades $4 of stock.
type AccountParams struct {
	MarginInit  float64
	MarginRatio float64
}

const (
	DefaultMarginInit  = 10000.0
	DefaultMarginRatio = 0.25
)

func (a AccountParams) Validate() error {
	if a.MarginInit <= 0 {
		return fmt.Errorf("%w: margin_init must be > 0", ErrConfig)
	}
	if a.MarginRatio <= 0 || a.MarginRatio > 1 {
		return fmt.Errorf("%w: margin_ratio must be in (0, 1]", ErrConfig)
	}
	return nil
}

// BuyingPower is the leveraged capacity available for a given margin.
func (a AccountParams) BuyingPower(margin float64) float64 {
	return margin / a.MarginRatio
}
