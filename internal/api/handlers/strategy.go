package handlers

import (
	"net/http"

	"pairs-backtest/internal/api/models"
	"pairs-backtest/internal/backtest"
	"pairs-backtest/internal/strategy"

	"github.com/gin-gonic/gin"
)

// StrategyHandler handles strategy-related requests
type StrategyHandler struct{}

// NewStrategyHandler creates a new strategy handler
func NewStrategyHandler() *StrategyHandler {
	return &StrategyHandler{}
}

// ListStrategies handles GET /api/v1/strategies
func (h *StrategyHandler) ListStrategies(c *gin.Context) {
	strategies := []models.StrategyInfo{
		{
			Name: "zscore",
			Description: "Mean reversion on the log price ratio. Enters when the trailing z-score leaves the entry band " +
				"(short the spread above, long below), exits inside the neutral band, and ignores |z| >= " +
				"5 as bad prints.",
			Parameters: []models.ParameterInfo{
				{
					Name:        "window",
					Type:        "int",
					Description: "Trailing rows used for the spread mean and standard deviation (current row excluded)",
					Default:     strategy.DefaultWindow,
				},
				{
					Name:        "entry_threshold",
					Type:        "float",
					Description: "|z| above which a position is opened",
					Default:     strategy.DefaultEntryThreshold,
				},
				{
					Name:        "neutral_threshold",
					Type:        "float",
					Description: "|z| below which the position is closed; must not exceed entry_threshold",
					Default:     strategy.DefaultNeutralThreshold,
				},
			},
		},
	}

	commissions := make([]models.CommissionInfo, 0, len(backtest.CommissionModels()))
	for _, m := range backtest.CommissionModels() {
		commissions = append(commissions, models.CommissionInfo{Name: string(m), Description: m.Description()})
	}

	c.JSON(http.StatusOK, gin.H{
		"strategies":           strategies,
		"commission_models":    commissions,
		"default_slippage_bps": backtest.DefaultSlippageBps,
	})
}
