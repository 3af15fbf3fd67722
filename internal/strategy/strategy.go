package strategy

import (
	"fmt"
	"math"
	"strings"

	"pairs-backtest/internal/model"
)

// OutlierCap bounds |z| for entries; larger deviations are treated as bad prints and held through.
const OutlierCap = 5.0

const (
	DefaultWindow           = 10
	DefaultEntryThreshold   = 2.0
	DefaultNeutralThreshold = 1.0
)

// Params are the spread signal knobs.
// EntryThreshold opens a position; the position is held until |z| falls inside NeutralThreshold.
type Params struct {
	Window           int     `json:"window" yaml:"window"`
	EntryThreshold   float64 `json:"entry_threshold" yaml:"entry_threshold"`
	NeutralThreshold float64 `json:"neutral_threshold" yaml:"neutral_threshold"`
}

func DefaultParams() Params {
	return Params{
		Window:           DefaultWindow,
		EntryThreshold:   DefaultEntryThreshold,
		NeutralThreshold: DefaultNeutralThreshold,
	}
}

func (p Params) Validate() error {
	if p.Window < 1 {
		return fmt.Errorf("%w: window must be >= 1, got %d", model.ErrConfig, p.Window)
	}
	if p.EntryThreshold <= 0 {
		return fmt.Errorf("%w: entry_threshold must be > 0", model.ErrConfig)
	}
	if p.NeutralThreshold < 0 || p.NeutralThreshold > p.EntryThreshold {
		return fmt.Errorf("%w: neutral_threshold must satisfy 0 <= neutral (%g) <= entry (%g)",
			model.ErrConfig, p.NeutralThreshold, p.EntryThreshold)
	}
	return nil
}

// Result is the per-row output of a strategy over an aligned pair.
type Result struct {
	Spread  []SpreadPoint
	Signals []model.Signal
}

type Strategy interface {
	Name() string
	Signals(series model.PairSeries) (*Result, error)
}

// Build returns the strategy registered under name.
func Build(name string, params Params) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "zscore", "mean_reversion":
		return NewZScoreStrategy(params), nil
	default:
		return nil, fmt.Errorf("%w: unsupported strategy %q", model.ErrConfig, name)
	}
}

// ParamsFromMap overlays the entries of a loosely typed parameter map onto base.
// A non-numeric value or a fractional window is an ErrConfig.
func ParamsFromMap(m map[string]any, base Params) (Params, error) {
	out := base
	v, ok, err := number(m, "window")
	if err != nil {
		return base, err
	}
	if ok {
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return base, fmt.Errorf("%w: window must be a whole number, got %g", model.ErrConfig, v)
		}
		out.Window = int(v)
	}
	for _, key := range []string{"entry_threshold", "zscore_threshold"} {
		v, ok, err := number(m, key)
		if err != nil {
			return base, err
		}
		if ok {
			out.EntryThreshold = v
		}
	}
	v, ok, err = number(m, "neutral_threshold")
	if err != nil {
		return base, err
	}
	if ok {
		out.NeutralThreshold = v
	}
	return out, nil
}

func number(m map[string]any, key string) (float64, bool, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return 0, false, nil
	}
	var x float64
	switch n := v.(type) {
	case float64:
		x = n
	case float32:
		x = float64(n)
	case int:
		x = float64(n)
	case int64:
		x = float64(n)
	default:
		return 0, false, fmt.Errorf("%w: %s must be a number, got %T", model.ErrConfig, key, v)
	}
	if math.IsNaN(x) {
		return 0, false, fmt.Errorf("%w: %s must be a number", model.ErrConfig, key)
	}
	return x, true, nil
}
