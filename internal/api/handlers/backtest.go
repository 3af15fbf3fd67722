package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"pairs-backtest/internal/analysis"
	"pairs-backtest/internal/api/models"
	"pairs-backtest/internal/backtest"
	"pairs-backtest/internal/config"
	"pairs-backtest/internal/data"
	"pairs-backtest/internal/metrics"
	"pairs-backtest/internal/model"
	"pairs-backtest/internal/strategy"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BacktestHandler handles backtest-related requests
type BacktestHandler struct {
	panel      *model.PricePanel
	engine     *backtest.Engine
	results    *data.Cache[*backtest.Result]
	presetsDir string
	log        zerolog.Logger
}

// NewBacktestHandler creates a new backtest handler. Completed runs are kept in results
// so their episodes can be fetched by ID.
func NewBacktestHandler(panel *model.PricePanel, results *data.Cache[*backtest.Result], presetsDir string, log zerolog.Logger) *BacktestHandler {
	return &BacktestHandler{
		panel:      panel,
		engine:     backtest.New(log),
		results:    results,
		presetsDir: presetsDir,
		log:        log,
	}
}

// RunBacktest handles POST /api/v1/backtest
func (h *BacktestHandler) RunBacktest(c *gin.Context) {
	var req models.BacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	runReq, err := h.buildRequest(req.Symbol1, req.Symbol2, req.StartDate, req.EndDate, req.Config)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.engine.RunRequest(h.panel, runReq)
	h.observe(result, err)
	if err != nil {
		respondError(c, err)
		return
	}

	id := uuid.NewString()
	h.results.Set(id, result)

	response := buildResponse(id, result, req.Options)
	c.JSON(http.StatusOK, response)
}

// GetEpisodes handles GET /api/v1/backtest/:id/episodes
// With ?format=csv the timeline is returned as a CSV attachment.
func (h *BacktestHandler) GetEpisodes(c *gin.Context) {
	id := c.Param("id")
	result, ok := h.results.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "NOT_FOUND",
				Message: fmt.Sprintf("no backtest result with id %q (results expire)", id),
			},
		})
		return
	}

	if strings.EqualFold(c.Query("format"), "csv") {
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s_%s_episodes.csv", result.Symbol1, result.Symbol2))
		c.Status(http.StatusOK)
		if err := backtest.EncodeEpisodesCSV(c.Writer, result.Symbol1, result.Symbol2, result.Episodes); err != nil {
			h.log.Error().Err(err).Str("id", id).Msg("write episodes csv")
		}
		return
	}

	episodes := convertEpisodes(result)
	c.JSON(http.StatusOK, models.EpisodesResponse{
		ID:       id,
		Symbol1:  result.Symbol1,
		Symbol2:  result.Symbol2,
		Episodes: episodes,
		Count:    len(episodes),
	})
}

// CompareBacktests handles POST /api/v1/backtest/compare
func (h *BacktestHandler) CompareBacktests(c *gin.Context) {
	var req models.CompareBacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	comparison := make([]models.ComparisonResult, len(req.Variations))
	var runs []backtest.Request
	var slots []int
	for i, variation := range req.Variations {
		comparison[i].Name = variation.Name
		merged := mergeConfig(req.BaseConfig, variation.Config)
		runReq, err := h.buildRequest(req.Symbol1, req.Symbol2, req.StartDate, req.EndDate, merged)
		if err != nil {
			detail := errorDetail(err)
			comparison[i].Error = &detail
			continue
		}
		runs = append(runs, runReq)
		slots = append(slots, i)
	}

	results, err := h.engine.Sweep(c.Request.Context(), h.panel, runs, 0)
	if err != nil {
		respondError(c, err)
		return
	}
	for k, r := range results {
		i := slots[k]
		h.observe(r.Result, r.Err)
		if r.Err != nil {
			detail := errorDetail(r.Err)
			comparison[i].Error = &detail
			continue
		}
		id := uuid.NewString()
		h.results.Set(id, r.Result)
		summary := buildSummary(r.Result)
		comparison[i].ID = id
		comparison[i].Summary = &summary
	}

	c.JSON(http.StatusOK, models.CompareBacktestResponse{Comparison: comparison})
}

// buildRequest resolves preset, defaults and overrides into a run request.
func (h *BacktestHandler) buildRequest(symbol1, symbol2, startDate, endDate string, bc models.BacktestConfig) (backtest.Request, error) {
	from, err := config.ParseDate(startDate)
	if err != nil {
		return backtest.Request{}, fmt.Errorf("start_date: %w", err)
	}
	to, err := config.ParseDate(endDate)
	if err != nil {
		return backtest.Request{}, fmt.Errorf("end_date: %w", err)
	}

	cfg := config.Config{
		Account: config.AccountConfig{MarginInit: bc.Account.MarginInit, MarginRatio: bc.Account.MarginRatio},
		Costs:   config.CostsConfig{Commission: bc.Costs.Commission, SlippageBps: bc.Costs.SlippageBps},
	}
	if bc.Preset != "" {
		preset, err := h.loadPreset(bc.Preset)
		if err != nil {
			return backtest.Request{}, err
		}
		cfg.Strategy = preset
	}
	if bc.Strategy.Name != "" {
		cfg.Strategy.Name = bc.Strategy.Name
	}
	cfg.ApplyDefaults()

	costs, err := cfg.CostsParams()
	if err != nil {
		return backtest.Request{}, err
	}
	params, err := strategy.ParamsFromMap(bc.Strategy.Params, cfg.StrategyParams())
	if err != nil {
		return backtest.Request{}, err
	}
	return backtest.Request{
		Symbol1:  strings.TrimSpace(symbol1),
		Symbol2:  strings.TrimSpace(symbol2),
		From:     from,
		To:       to,
		Strategy: cfg.Strategy.Name,
		Params:   params,
		Account:  cfg.AccountParams(),
		Costs:    costs,
	}, nil
}

func (h *BacktestHandler) loadPreset(id string) (config.StrategyConfig, error) {
	if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return config.StrategyConfig{}, fmt.Errorf("%w: invalid preset id %q", model.ErrConfig, id)
	}
	path := filepath.Join(h.presetsDir, id+".yaml")
	preset, err := config.LoadStrategyFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config.StrategyConfig{}, fmt.Errorf("%w: unknown preset %q", model.ErrConfig, id)
		}
		return config.StrategyConfig{}, err
	}
	return preset, nil
}

// mergeConfig overlays a variation onto the base configuration.
func mergeConfig(base, override models.BacktestConfig) models.BacktestConfig {
	result := base
	if override.Preset != "" {
		result.Preset = override.Preset
	}
	if override.Strategy.Name != "" {
		result.Strategy.Name = override.Strategy.Name
	}
	params := make(map[string]interface{}, len(base.Strategy.Params)+len(override.Strategy.Params))
	for k, v := range base.Strategy.Params {
		params[k] = v
	}
	for k, v := range override.Strategy.Params {
		params[k] = v
	}
	result.Strategy.Params = params
	if override.Account.MarginInit != nil {
		result.Account.MarginInit = override.Account.MarginInit
	}
	if override.Account.MarginRatio != nil {
		result.Account.MarginRatio = override.Account.MarginRatio
	}
	if override.Costs.Commission != "" {
		result.Costs.Commission = override.Costs.Commission
	}
	if override.Costs.SlippageBps != nil {
		result.Costs.SlippageBps = override.Costs.SlippageBps
	}
	return result
}

func (h *BacktestHandler) observe(result *backtest.Result, err error) {
	if err != nil {
		_, code := errorStatus(err)
		metrics.BacktestsTotal.WithLabelValues(strings.ToLower(code)).Inc()
		return
	}
	metrics.BacktestsTotal.WithLabelValues("ok").Inc()
	for _, ep := range result.Episodes {
		metrics.EpisodesTotal.WithLabelValues(ep.Signal.String()).Inc()
	}
}

func buildResponse(id string, result *backtest.Result, opts models.BacktestOptions) models.BacktestResponse {
	response := models.BacktestResponse{
		ID:               id,
		Status:           "completed",
		Summary:          buildSummary(result),
		Episodes:         convertEpisodes(result),
		MarginTrajectory: result.MarginTrajectory,
	}
	if response.MarginTrajectory == nil {
		response.MarginTrajectory = []float64{}
	}
	if opts.IncludeSeries {
		response.Series = convertSeries(result)
	}
	if opts.IncludeLedger {
		response.Ledger = convertLedger(result.Ledger)
	}
	return response
}

func buildSummary(result *backtest.Result) models.BacktestSummary {
	s := analysis.Summarize(result)
	return models.BacktestSummary{
		Symbol1:          result.Symbol1,
		Symbol2:          result.Symbol2,
		BacktestWindow:   models.TimeWindow{Start: s.Start, End: s.End},
		Rows:             s.Rows,
		Strategy:         result.Strategy,
		Window:           result.Params.Window,
		EntryThreshold:   result.Params.EntryThreshold,
		NeutralThreshold: result.Params.NeutralThreshold,
		Commission:       string(result.Costs.Commission),
		SlippageBps:      result.Costs.SlippageBps,
		MarginRatio:      result.Account.MarginRatio,
		MarginInit:       s.MarginInit,
		FinalMargin:      s.FinalMargin,
		Return:           s.Return,
		Episodes:         s.Episodes,
		Trades:           s.Trades,
		Wins:             s.Wins,
		WinRate:          s.WinRate,
		MaxDrawdown:      s.MaxDrawdown,
		TotalCommission:  s.TotalCommission,
		P05PNL:           s.P05PNL,
		P95PNL:           s.P95PNL,
	}
}

func convertEpisodes(result *backtest.Result) []models.Episode {
	out := make([]models.Episode, len(result.Episodes))
	for i, ep := range result.Episodes {
		out[i] = models.Episode{
			ID:             ep.ID,
			Signal:         int(ep.Signal),
			Position:       ep.Describe(result.Symbol1, result.Symbol2),
			Start:          ep.StartTime,
			End:            ep.EndTime,
			Leg1StartPrice: ep.Leg1StartPrice,
			Leg1EndPrice:   ep.Leg1EndPrice,
			Leg2StartPrice: ep.Leg2StartPrice,
			Leg2EndPrice:   ep.Leg2EndPrice,
		}
	}
	return out
}

func convertSeries(result *backtest.Result) *models.SeriesData {
	n := len(result.Dates)
	s := &models.SeriesData{
		Dates:  make([]string, n),
		Leg1:   result.Leg1,
		Leg2:   result.Leg2,
		Ratio:  make([]float64, n),
		ZScore: make([]*float64, n),
		Signal: make([]int, n),
	}
	for i := 0; i < n; i++ {
		s.Dates[i] = result.Dates[i].Format("2006-01-02")
		pt := result.Spread[i]
		s.Ratio[i] = pt.Ratio
		if pt.Defined {
			z := pt.Z
			s.ZScore[i] = &z
		}
		s.Signal[i] = int(result.Signals[i])
	}
	return s
}

func convertLedger(ledger []backtest.LedgerRow) []models.LedgerRow {
	out := make([]models.LedgerRow, len(ledger))
	for i, row := range ledger {
		out[i] = models.LedgerRow{
			EpisodeID:   row.EpisodeID,
			Signal:      row.Signal.String(),
			Start:       row.StartTime,
			End:         row.EndTime,
			Units1:      row.Units1,
			Units2:      row.Units2,
			MarginStart: row.MarginStart,
			BuyingPower: row.BuyingPower,
			PNL:         row.PNL,
			Commission:  row.Commission,
			Margin:      row.Margin,
		}
	}
	return out
}
