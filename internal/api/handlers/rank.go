package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"pairs-backtest/internal/analysis"
	"pairs-backtest/internal/api/models"
	"pairs-backtest/internal/config"
	"pairs-backtest/internal/metrics"
	"pairs-backtest/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RankHandler handles ranking-related requests
type RankHandler struct {
	panel *model.PricePanel
	log   zerolog.Logger
}

// NewRankHandler creates a new rank handler
func NewRankHandler(panel *model.PricePanel, log zerolog.Logger) *RankHandler {
	return &RankHandler{panel: panel, log: log}
}

// RankPairs handles GET /api/v1/rank
func (h *RankHandler) RankPairs(c *gin.Context) {
	var req models.RankRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	if h.panel == nil {
		respondError(c, fmt.Errorf("%w: no price panel loaded", model.ErrData))
		return
	}

	from, err := config.ParseDate(req.StartDate)
	if err != nil {
		respondError(c, fmt.Errorf("start_date: %w", err))
		return
	}
	to, err := config.ParseDate(req.EndDate)
	if err != nil {
		respondError(c, fmt.Errorf("end_date: %w", err))
		return
	}
	// Missing bounds default to the formation window ending before the holdout.
	w := analysis.DefaultWindows(h.panel.LastDate(), analysis.DefaultMonthsBack, analysis.DefaultHoldoutDays)
	if from.IsZero() {
		from = w.HistoryStart
	}
	if to.IsZero() {
		to = w.CorrelationEnd
	}

	panel := h.panel
	if req.Symbols != "" {
		var symbols []string
		for _, s := range strings.Split(req.Symbols, ",") {
			if s = strings.TrimSpace(s); s != "" {
				symbols = append(symbols, s)
			}
		}
		panel = panel.Select(symbols)
	}

	start := time.Now()
	pairs, err := analysis.RankPairs(panel, from, to, req.Limit)
	elapsed := time.Since(start)
	metrics.RankDuration.Observe(elapsed.Seconds())
	if err != nil {
		respondError(c, err)
		return
	}
	h.log.Info().
		Int("symbols", panel.NumSymbols()).
		Int("pairs", len(pairs)).
		Dur("duration", elapsed).
		Msg("ranked pairs")

	rankings := make([]models.Ranking, len(pairs))
	for i, p := range pairs {
		rankings[i] = models.Ranking{
			Rank:        i + 1,
			Symbol1:     p.Symbol1,
			Symbol2:     p.Symbol2,
			Correlation: p.Correlation,
		}
	}

	c.JSON(http.StatusOK, models.RankResponse{
		Window:   models.TimeWindow{Start: from, End: to},
		Count:    len(rankings),
		Rankings: rankings,
	})
}
