package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "giveaway-tracker-bot/internal/common/errors"
	statsservice "giveaway-tracker-bot/internal/features/stats/service"
)

type StatsHandler struct {
	service statsservice.StatsService
}

func NewStatsHandler(service statsservice.StatsService) *StatsHandler {
	return &StatsHandler{service: service}
}

func (h *StatsHandler) RegisterRoutes(router *gin.RouterGroup) {
	guilds := router.Group("/guilds/:guild_id")
	{
		guilds.GET("/leaderboard", h.leaderboard)
		guilds.GET("/giveaways", h.giveaways)
		guilds.GET("/users/:user_id/wins", h.userWins)
		guilds.GET("/users/:user_id/vouches", h.userVouches)
	}
}

// @Summary Guild leaderboard
// @Description Users ranked by wins, ties broken by vouches. 25 rows per page, top 100 only.
// @Tags stats
// @Produce json
// @Security BearerAuth
// @Param guild_id path string true "Guild ID"
// @Param page query int false "Page number" default(1)
// @Success 200 {object} models.LeaderboardPage
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /guilds/{guild_id}/leaderboard [get]
func (h *StatsHandler) leaderboard(c *gin.Context) {
	page := 1
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			_ = c.Error(apperrors.NewValidationError("page", "must be a positive integer"))
			return
		}
		page = n
	}

	result, err := h.service.Leaderboard(c.Request.Context(), c.Param("guild_id"), page)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// @Summary Guild giveaways
// @Description Every giveaway of the guild, newest first, with entrant counts and winners.
// @Tags stats
// @Produce json
// @Security BearerAuth
// @Param guild_id path string true "Guild ID"
// @Success 200 {array} models.GiveawaySummary
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /guilds/{guild_id}/giveaways [get]
func (h *StatsHandler) giveaways(c *gin.Context) {
	result, err := h.service.Giveaways(c.Request.Context(), c.Param("guild_id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// @Summary User wins
// @Tags stats
// @Produce json
// @Security BearerAuth
// @Param guild_id path string true "Guild ID"
// @Param user_id path string true "User ID"
// @Success 200 {array} models.WinRecord
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /guilds/{guild_id}/users/{user_id}/wins [get]
func (h *StatsHandler) userWins(c *gin.Context) {
	result, err := h.service.UserWins(c.Request.Context(), c.Param("guild_id"), c.Param("user_id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// @Summary User vouches
// @Tags stats
// @Produce json
// @Security BearerAuth
// @Param guild_id path string true "Guild ID"
// @Param user_id path string true "User ID"
// @Success 200 {array} models.WinRecord
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /guilds/{guild_id}/users/{user_id}/vouches [get]
func (h *StatsHandler) userVouches(c *gin.Context) {
	result, err := h.service.UserVouches(c.Request.Context(), c.Param("guild_id"), c.Param("user_id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}
