package handlers

import (
	"math"
	"net/http"

	"pairs-backtest/internal/api/models"
	"pairs-backtest/internal/data"
	"pairs-backtest/internal/model"

	"github.com/gin-gonic/gin"
)

// SymbolsHandler lists the instruments available for ranking and backtests.
type SymbolsHandler struct {
	panel    *model.PricePanel
	universe *data.Universe
}

// NewSymbolsHandler creates a new symbols handler. universe may be nil.
func NewSymbolsHandler(panel *model.PricePanel, universe *data.Universe) *SymbolsHandler {
	return &SymbolsHandler{panel: panel, universe: universe}
}

// ListSymbols handles GET /api/v1/symbols
func (h *SymbolsHandler) ListSymbols(c *gin.Context) {
	symbols := []models.SymbolInfo{}
	if h.panel == nil {
		c.JSON(http.StatusOK, gin.H{"symbols": symbols, "count": 0})
		return
	}

	var members map[string]bool
	if h.universe != nil {
		members = make(map[string]bool, len(h.universe.Constituents))
		for _, m := range h.universe.Constituents {
			members[m.Symbol] = true
		}
	}

	dates := h.panel.Dates()
	for _, sym := range h.panel.Symbols() {
		col, _ := h.panel.Column(sym)
		info := models.SymbolInfo{Symbol: sym}
		for i, v := range col {
			if math.IsNaN(v) {
				continue
			}
			if info.Observations == 0 {
				info.FirstDate = dates[i]
			}
			info.LastDate = dates[i]
			info.Observations++
		}
		if members != nil {
			in := members[sym]
			info.InUniverse = &in
		}
		symbols = append(symbols, info)
	}

	c.JSON(http.StatusOK, gin.H{
		"symbols":    symbols,
		"count":      len(symbols),
		"first_date": h.panel.FirstDate(),
		"last_date":  h.panel.LastDate(),
	})
}
