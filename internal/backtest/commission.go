package backtest

import (
	"fmt"
	"strings"

	"pairs-backtest/internal/model"
)

// CommissionModel names one of the supported fee schedules.
type CommissionModel string

const (
	// CommissionTiered is the per-share schedule with a minimum ticket, a cap,
	// and regulatory fees on the sell side.
	CommissionTiered CommissionModel = "tiered"
	// CommissionFlat charges 0.1% of entry notional across both legs.
	CommissionFlat CommissionModel = "flat"
)

const (
	perShareFee      = 0.005
	minTicketFee     = 1.0
	maxTicketPct     = 0.01
	secFeeRate       = 0.000008
	tafFeePerShare   = 0.000166
	flatNotionalRate = 0.001

	DefaultSlippageBps = 3.0
)

// CommissionModels lists every accepted model, reference first.
func CommissionModels() []CommissionModel {
	return []CommissionModel{CommissionTiered, CommissionFlat}
}

func ParseCommissionModel(s string) (CommissionModel, error) {
	m := CommissionModel(strings.ToLower(strings.TrimSpace(s)))
	if m == "" {
		return CommissionTiered, nil
	}
	if err := m.Validate(); err != nil {
		return "", err
	}
	return m, nil
}

func (m CommissionModel) Validate() error {
	switch m {
	case CommissionTiered, CommissionFlat:
		return nil
	default:
		return fmt.Errorf("%w: unknown commission model %q", model.ErrConfig, string(m))
	}
}

func (m CommissionModel) Description() string {
	switch m {
	case CommissionTiered:
		return "Per-share fee (0.005, min 1, max 1% of leg allocation) on both legs plus sell-side SEC and TAF fees."
	case CommissionFlat:
		return "0.1% of entry notional across both legs."
	default:
		return ""
	}
}

// Position is the sized trade for one episode.
type Position struct {
	Signal     model.Signal
	Allocation float64 // buying power per leg
	Units1     float64
	Units2     float64
	Entry1     float64
	Entry2     float64
}

// Fee returns the round-trip commission for a sized position.
func (m CommissionModel) Fee(p Position) float64 {
	switch m {
	case CommissionFlat:
		return flatNotionalRate * (p.Entry1*p.Units1 + p.Entry2*p.Units2)
	default:
		buyUnits, sellUnits := p.Units1, p.Units2
		if p.Signal == model.ShortSpread {
			buyUnits, sellUnits = p.Units2, p.Units1
		}
		buy := ticketFee(buyUnits, p.Allocation)
		sell := ticketFee(sellUnits, p.Allocation) + secFeeRate*p.Allocation + tafFeePerShare*sellUnits
		return buy + sell
	}
}

func ticketFee(units, allocation float64) float64 {
	fee := units * perShareFee
	if fee < minTicketFee {
		fee = minTicketFee
	}
	if limit := allocation * maxTicketPct; fee > limit {
		fee = limit
	}
	return fee
}

// Costs bundles the fee schedule with adverse slippage applied on entry and exit.
type Costs struct {
	Commission  CommissionModel
	SlippageBps float64
}

func DefaultCosts() Costs {
	return Costs{Commission: CommissionTiered, SlippageBps: DefaultSlippageBps}
}

func (c Costs) Validate() error {
	if err := c.Commission.Validate(); err != nil {
		return err
	}
	if c.SlippageBps < 0 || c.SlippageBps >= 10000 {
		return fmt.Errorf("%w: slippage_bps must be in [0, 10000)", model.ErrConfig)
	}
	return nil
}
