package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"pairs-backtest/internal/analysis"
	"pairs-backtest/internal/backtest"
	"pairs-backtest/internal/model"
	"pairs-backtest/internal/strategy"

	"gopkg.in/yaml.v3"
)

const dateLayout = "2006-01-02"

// Config is the on-disk configuration shape (YAML).
type Config struct {
	Data DataConfig `yaml:"data"`
	Rank RankConfig `yaml:"rank"`
	Pair PairConfig `yaml:"pair"`

	// Optional: load strategy parameters from a preset YAML (e.g. examples/presets/*.yaml).
	// Fields set under strategy override the preset.
	StrategyFile string         `yaml:"strategy_file"`
	Strategy     StrategyConfig `yaml:"strategy"`

	Account AccountConfig `yaml:"account"`
	Costs   CostsConfig   `yaml:"costs"`
	Log     LogConfig     `yaml:"log"`
}

type DataConfig struct {
	PanelFile    string `yaml:"panel_file"`
	UniverseFile string `yaml:"universe_file"`
}

// RankConfig selects the correlation window. Explicit from/to win over the
// months_back/holdout_days defaults anchored on the panel's last date.
type RankConfig struct {
	From        string `yaml:"from"`
	To          string `yaml:"to"`
	TopN        int    `yaml:"top_n"`
	MonthsBack  int    `yaml:"months_back"`
	HoldoutDays *int   `yaml:"holdout_days"`
}

type PairConfig struct {
	Symbol1 string `yaml:"symbol1"`
	Symbol2 string `yaml:"symbol2"`
	From    string `yaml:"from"`
	To      string `yaml:"to"`
}

type StrategyConfig struct {
	Name             string   `yaml:"name"`
	Description      string   `yaml:"description,omitempty"`
	Window           *int     `yaml:"window"`
	EntryThreshold   *float64 `yaml:"entry_threshold"`
	NeutralThreshold *float64 `yaml:"neutral_threshold"`
}

// AccountConfig fields are pointers so an explicit zero reaches validation.
type AccountConfig struct {
	MarginInit  *float64 `yaml:"margin_init"`
	MarginRatio *float64 `yaml:"margin_ratio"`
}

type CostsConfig struct {
	Commission  string   `yaml:"commission"`
	SlippageBps *float64 `yaml:"slippage_bps"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not default or validate it.
// Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", model.ErrConfig, path, err)
	}
	if c.StrategyFile != "" {
		presetPath := resolveRelative(path, c.StrategyFile)
		loaded, err := LoadStrategyFile(presetPath)
		if err != nil {
			return nil, err
		}
		c.Strategy = MergeStrategy(loaded, c.Strategy)
	}
	c.Data.PanelFile = resolveRelative(path, c.Data.PanelFile)
	c.Data.UniverseFile = resolveRelative(path, c.Data.UniverseFile)
	return &c, nil
}

// resolveRelative prefers interpreting a relative path as relative to the config file,
// falling back to the path as given (relative to cwd).
func resolveRelative(configPath, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	cand := filepath.Join(filepath.Dir(configPath), p)
	if _, err := os.Stat(cand); err == nil {
		return cand
	}
	return p
}

// ApplyDefaults fills every unset knob with its documented default.
func (c *Config) ApplyDefaults() {
	if c.Strategy.Name == "" {
		c.Strategy.Name = "zscore"
	}
	if c.Strategy.Window == nil {
		c.Strategy.Window = ptr(strategy.DefaultWindow)
	}
	if c.Strategy.EntryThreshold == nil {
		c.Strategy.EntryThreshold = ptr(strategy.DefaultEntryThreshold)
	}
	if c.Strategy.NeutralThreshold == nil {
		c.Strategy.NeutralThreshold = ptr(strategy.DefaultNeutralThreshold)
	}
	if c.Account.MarginInit == nil {
		c.Account.MarginInit = ptr(model.DefaultMarginInit)
	}
	if c.Account.MarginRatio == nil {
		c.Account.MarginRatio = ptr(model.DefaultMarginRatio)
	}
	if c.Costs.Commission == "" {
		c.Costs.Commission = string(backtest.CommissionTiered)
	}
	if c.Costs.SlippageBps == nil {
		v := backtest.DefaultSlippageBps
		c.Costs.SlippageBps = &v
	}
	if c.Rank.TopN == 0 {
		c.Rank.TopN = analysis.DefaultTopN
	}
	if c.Rank.MonthsBack == 0 {
		c.Rank.MonthsBack = analysis.DefaultMonthsBack
	}
	if c.Rank.HoldoutDays == nil {
		v := analysis.DefaultHoldoutDays
		c.Rank.HoldoutDays = &v
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if _, err := strategy.Build(c.Strategy.Name, c.StrategyParams()); err != nil {
		return err
	}
	if err := c.StrategyParams().Validate(); err != nil {
		return fmt.Errorf("strategy config invalid: %w", err)
	}
	if err := c.AccountParams().Validate(); err != nil {
		return fmt.Errorf("account config invalid: %w", err)
	}
	if _, err := c.CostsParams(); err != nil {
		return fmt.Errorf("costs config invalid: %w", err)
	}
	if c.Rank.TopN < 0 {
		return fmt.Errorf("%w: rank.top_n must be >= 0", model.ErrConfig)
	}
	if c.Rank.HoldoutDays != nil && *c.Rank.HoldoutDays < 0 {
		return fmt.Errorf("%w: rank.holdout_days must be >= 0", model.ErrConfig)
	}
	for key, v := range map[string]string{
		"rank.from": c.Rank.From, "rank.to": c.Rank.To,
		"pair.from": c.Pair.From, "pair.to": c.Pair.To,
	} {
		if _, err := ParseDate(v); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	if c.Pair.Symbol1 != "" && c.Pair.Symbol1 == c.Pair.Symbol2 {
		return fmt.Errorf("%w: pair symbols must differ", model.ErrConfig)
	}
	return nil
}

func (c *Config) StrategyParams() strategy.Params {
	return c.Strategy.Params()
}

// Params converts the config into strategy params. Unset fields map to their defaults.
func (s StrategyConfig) Params() strategy.Params {
	p := strategy.DefaultParams()
	if s.Window != nil {
		p.Window = *s.Window
	}
	if s.EntryThreshold != nil {
		p.EntryThreshold = *s.EntryThreshold
	}
	if s.NeutralThreshold != nil {
		p.NeutralThreshold = *s.NeutralThreshold
	}
	return p
}

func (c *Config) AccountParams() model.AccountParams {
	a := model.AccountParams{MarginInit: model.DefaultMarginInit, MarginRatio: model.DefaultMarginRatio}
	if c.Account.MarginInit != nil {
		a.MarginInit = *c.Account.MarginInit
	}
	if c.Account.MarginRatio != nil {
		a.MarginRatio = *c.Account.MarginRatio
	}
	return a
}

func (c *Config) CostsParams() (backtest.Costs, error) {
	m, err := backtest.ParseCommissionModel(c.Costs.Commission)
	if err != nil {
		return backtest.Costs{}, err
	}
	costs := backtest.Costs{Commission: m, SlippageBps: backtest.DefaultSlippageBps}
	if c.Costs.SlippageBps != nil {
		costs.SlippageBps = *c.Costs.SlippageBps
	}
	return costs, costs.Validate()
}

// BacktestRequest builds a run request for the configured pair.
func (c *Config) BacktestRequest() (backtest.Request, error) {
	costs, err := c.CostsParams()
	if err != nil {
		return backtest.Request{}, err
	}
	from, err := ParseDate(c.Pair.From)
	if err != nil {
		return backtest.Request{}, err
	}
	to, err := ParseDate(c.Pair.To)
	if err != nil {
		return backtest.Request{}, err
	}
	return backtest.Request{
		Symbol1:  c.Pair.Symbol1,
		Symbol2:  c.Pair.Symbol2,
		From:     from,
		To:       to,
		Strategy: c.Strategy.Name,
		Params:   c.StrategyParams(),
		Account:  c.AccountParams(),
		Costs:    costs,
	}, nil
}

// RankWindow returns the correlation window, defaulting missing bounds from the
// history ending at last.
func (c *Config) RankWindow(last time.Time) (from, to time.Time, err error) {
	if from, err = ParseDate(c.Rank.From); err != nil {
		return
	}
	if to, err = ParseDate(c.Rank.To); err != nil {
		return
	}
	holdout := analysis.DefaultHoldoutDays
	if c.Rank.HoldoutDays != nil {
		holdout = *c.Rank.HoldoutDays
	}
	w := analysis.DefaultWindows(last, c.Rank.MonthsBack, holdout)
	if from.IsZero() {
		from = w.HistoryStart
	}
	if to.IsZero() {
		to = w.CorrelationEnd
	}
	return from, to, nil
}

// ParseDate parses YYYY-MM-DD; the empty string is the zero time.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q (want YYYY-MM-DD)", model.ErrConfig, s)
	}
	return t, nil
}

type strategyFileWrapper struct {
	Strategy StrategyConfig `yaml:"strategy"`
}

func LoadStrategyFile(path string) (StrategyConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return StrategyConfig{}, err
	}
	var w strategyFileWrapper
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return StrategyConfig{}, fmt.Errorf("%w: parse %s: %v", model.ErrConfig, path, err)
	}
	return w.Strategy, nil
}

// MergeStrategy overlays the fields set in override onto base.
// This is used when loading a preset file and then applying overrides from the config or a request.
func MergeStrategy(base, override StrategyConfig) StrategyConfig {
	out := base
	if override.Name != "" {
		out.Name = override.Name
	}
	if override.Description != "" {
		out.Description = override.Description
	}
	if override.Window != nil {
		out.Window = ptr(*override.Window)
	}
	if override.EntryThreshold != nil {
		out.EntryThreshold = ptr(*override.EntryThreshold)
	}
	if override.NeutralThreshold != nil {
		out.NeutralThreshold = ptr(*override.NeutralThreshold)
	}
	return out
}

func ptr[T any](v T) *T { return &v }
