package main

import (
	"fmt"
	"os"
	"time"

	"pairs-backtest/internal/api"
	"pairs-backtest/internal/backtest"
	"pairs-backtest/internal/config"
	"pairs-backtest/internal/data"
	"pairs-backtest/internal/model"
	"pairs-backtest/internal/util"

	"github.com/gin-gonic/gin"
)

func main() {
	// Get configuration from environment
	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}
	log := util.NewLogger(os.Getenv("LOG_LEVEL"))

	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	panelFile := os.Getenv("PANEL_FILE")
	if panelFile == "" {
		panelFile = "data/closes.csv"
	}
	var panel *model.PricePanel
	if p, err := data.LoadPanel(panelFile); err != nil {
		// Serve anyway; data-dependent endpoints answer DATA_ERROR.
		log.Warn().Err(err).Str("path", panelFile).Msg("price panel not loaded")
	} else {
		panel = p
		log.Info().Str("path", panelFile).Int("rows", p.Len()).Int("symbols", p.NumSymbols()).Msg("price panel loaded")
	}

	var universe *data.Universe
	universeFile := data.DefaultUniversePath()
	if _, err := os.Stat(universeFile); err == nil {
		if u, err := data.LoadUniverse(universeFile); err != nil {
			log.Warn().Err(err).Str("path", universeFile).Msg("universe not loaded")
		} else {
			universe = u
			log.Info().Str("path", universeFile).Int("constituents", len(u.Constituents)).Msg("universe loaded")
		}
	}

	presetsDir := config.PresetsDir()
	if info, err := os.Stat(presetsDir); err == nil && info.IsDir() {
		log.Info().Str("dir", presetsDir).Msg("presets directory found")
	} else {
		log.Warn().Str("dir", presetsDir).Msg("presets directory not found")
	}

	results := data.NewCache[*backtest.Result](time.Hour, 5*time.Minute)
	defer results.Close()

	router := api.NewRouter(api.Deps{
		Panel:      panel,
		Universe:   universe,
		PresetsDir: presetsDir,
		Results:    results,
		Log:        log,
	})

	addr := fmt.Sprintf(":%s", port)
	log.Info().Str("addr", addr).Msg("starting API server")
	if err := router.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
