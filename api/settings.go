package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/snaptodo/snaptodo/db"
	"github.com/snaptodo/snaptodo/log"
	"github.com/snaptodo/snaptodo/models"
)

var settingsLogger = log.GetLogger("ApiSettings")

// GetSettings handles GET /api/settings. API keys are masked.
func (h *Handlers) GetSettings(c *gin.Context) {
	cfg, err := db.LoadAIConfig()
	if err != nil {
		settingsLogger.Error().Err(err).Msg("failed to load settings")
		RespondInternalError(c, "failed to load settings")
		return
	}
	c.JSON(http.StatusOK, db.SanitizeAIConfig(cfg))
}

// UpdateSettings handles PUT /api/settings. Masked key values are ignored,
// so a round-tripped GET body never wipes a stored key.
func (h *Handlers) UpdateSettings(c *gin.Context) {
	var cfg models.AIConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		RespondBadRequest(c, "invalid settings body")
		return
	}

	if err := db.SaveAIConfig(&cfg); err != nil {
		settingsLogger.Error().Err(err).Msg("failed to save settings")
		RespondInternalError(c, "failed to save settings")
		return
	}

	saved, err := db.LoadAIConfig()
	if err != nil {
		settingsLogger.Error().Err(err).Msg("failed to reload settings")
		RespondInternalError(c, "failed to reload settings")
		return
	}
	c.JSON(http.StatusOK, db.SanitizeAIConfig(saved))
}
