package api

import (
	"net/http"

	"pairs-backtest/internal/api/handlers"
	"pairs-backtest/internal/api/middleware"
	"pairs-backtest/internal/backtest"
	"pairs-backtest/internal/data"
	"pairs-backtest/internal/metrics"
	"pairs-backtest/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Deps are the shared, read-only inputs of the HTTP surface.
type Deps struct {
	Panel      *model.PricePanel
	Universe   *data.Universe
	PresetsDir string
	Results    *data.Cache[*backtest.Result]
	Log        zerolog.Logger
}

// NewRouter wires middleware and routes.
func NewRouter(d Deps) *gin.Engine {
	router := gin.New()

	router.Use(middleware.CORS())
	router.Use(middleware.Logger(d.Log))
	router.Use(middleware.ErrorHandler(d.Log))

	backtestHandler := handlers.NewBacktestHandler(d.Panel, d.Results, d.PresetsDir, d.Log)
	presetHandler := handlers.NewPresetHandler(d.PresetsDir, d.Log)
	strategyHandler := handlers.NewStrategyHandler()
	rankHandler := handlers.NewRankHandler(d.Panel, d.Log)
	symbolsHandler := handlers.NewSymbolsHandler(d.Panel, d.Universe)

	router.GET("/health", func(c *gin.Context) {
		status := gin.H{"status": "ok"}
		if d.Panel != nil {
			status["symbols"] = d.Panel.NumSymbols()
			status["rows"] = d.Panel.Len()
		}
		c.JSON(http.StatusOK, status)
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/backtest", backtestHandler.RunBacktest)
		v1.GET("/backtest/:id/episodes", backtestHandler.GetEpisodes)
		v1.POST("/backtest/compare", backtestHandler.CompareBacktests)

		v1.GET("/rank", rankHandler.RankPairs)

		v1.GET("/strategies", strategyHandler.ListStrategies)
		v1.GET("/presets", presetHandler.ListPresets)
		v1.GET("/symbols", symbolsHandler.ListSymbols)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "Not found"}})
	})
	return router
}
