package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"giveaway-tracker-bot/internal/common/validation"
	giveawayservice "giveaway-tracker-bot/internal/features/giveaway/service"
)

// ScannerReporter exposes the deadline scanner counters.
type ScannerReporter interface {
	Stats() giveawayservice.ScannerStats
}

type GiveawayHandler struct {
	service giveawayservice.GiveawayService
	scanner ScannerReporter
}

func NewGiveawayHandler(service giveawayservice.GiveawayService, scanner ScannerReporter) *GiveawayHandler {
	return &GiveawayHandler{
		service: service,
		scanner: scanner,
	}
}

func (h *GiveawayHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/guilds/:guild_id/giveaways/:id", h.getByID)
	router.GET("/scanner", h.scannerStats)
}

// @Summary Get giveaway
// @Description A single giveaway of the guild.
// @Tags giveaways
// @Produce json
// @Security BearerAuth
// @Param guild_id path string true "Guild ID"
// @Param id path int true "Giveaway ID"
// @Success 200 {object} models.Giveaway
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /guilds/{guild_id}/giveaways/{id} [get]
func (h *GiveawayHandler) getByID(c *gin.Context) {
	id, err := validation.ParseID("id", c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	g, err := h.service.Get(c.Request.Context(), c.Param("guild_id"), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, g)
}

// @Summary Deadline scanner counters
// @Description Ticks run, giveaways closed and closes failed since startup.
// @Tags giveaways
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.ScannerStats
// @Router /scanner [get]
func (h *GiveawayHandler) scannerStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.scanner.Stats())
}
