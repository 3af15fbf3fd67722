package handlers

import (
	"net/http"

	"pairs-backtest/internal/api/models"
	"pairs-backtest/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// PresetHandler handles strategy preset requests
type PresetHandler struct {
	presetsDir string
	log        zerolog.Logger
}

// NewPresetHandler creates a new preset handler
func NewPresetHandler(presetsDir string, log zerolog.Logger) *PresetHandler {
	log.Info().Str("dir", presetsDir).Msg("using presets directory")
	return &PresetHandler{presetsDir: presetsDir, log: log}
}

// ListPresets handles GET /api/v1/presets
func (h *PresetHandler) ListPresets(c *gin.Context) {
	presets := []models.PresetInfo{}

	loaded, skipped, err := config.ListPresets(h.presetsDir)
	if err != nil {
		h.log.Error().Err(err).Str("dir", h.presetsDir).Msg("read presets directory")
		c.JSON(http.StatusOK, gin.H{"presets": presets})
		return
	}
	for path, loadErr := range skipped {
		h.log.Warn().Err(loadErr).Str("file", path).Msg("skipping invalid preset")
	}

	for _, p := range loaded {
		s := p.Strategy
		cfg := config.Config{Strategy: s}
		cfg.ApplyDefaults()
		params := cfg.StrategyParams()
		presets = append(presets, models.PresetInfo{
			ID:               p.ID,
			Name:             s.Name,
			Description:      s.Description,
			File:             p.File,
			Window:           params.Window,
			EntryThreshold:   params.EntryThreshold,
			NeutralThreshold: params.NeutralThreshold,
		})
	}

	c.JSON(http.StatusOK, gin.H{"presets": presets})
}
