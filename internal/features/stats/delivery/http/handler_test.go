package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "giveaway-tracker-bot/internal/common/errors"
	"giveaway-tracker-bot/internal/common/middleware"
	"giveaway-tracker-bot/internal/features/giveaway/models"
)

type stubStats struct {
	page      int
	guild     string
	user      string
	err       error
	giveaways []models.GiveawaySummary
}

func (s *stubStats) Leaderboard(_ context.Context, guildID string, page int) (*models.LeaderboardPage, error) {
	s.guild, s.page = guildID, page
	if s.err != nil {
		return nil, s.err
	}
	return &models.LeaderboardPage{
		GuildID:    guildID,
		Page:       page,
		TotalPages: 1,
		Total:      1,
		Entries:    []models.LeaderboardEntry{{Rank: 1, UserID: "a", Wins: 2, Vouches: 1}},
	}, nil
}

func (s *stubStats) UserWins(_ context.Context, guildID, userID string) ([]models.WinRecord, error) {
	s.guild, s.user = guildID, userID
	return []models.WinRecord{{GiveawayID: 3, Prize: "Nitro"}}, s.err
}

func (s *stubStats) UserVouches(_ context.Context, guildID, userID string) ([]models.WinRecord, error) {
	s.guild, s.user = guildID, userID
	return []models.WinRecord{{GiveawayID: 3, Prize: "Nitro", Vouched: true}}, s.err
}

func (s *stubStats) Giveaways(_ context.Context, guildID string) ([]models.GiveawaySummary, error) {
	s.guild = guildID
	return s.giveaways, s.err
}

func newServer(stats *stubStats, checks ...ReadinessCheck) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	log := zerolog.Nop()
	r.Use(middleware.RequestID(), middleware.Errors(log))
	NewHealthHandler("giveaway-tracker-bot", checks...).RegisterRoutes(r)
	v1 := r.Group("/api/v1")
	v1.Use(middleware.SnowflakeParams(log, "guild_id", "user_id"))
	NewStatsHandler(stats).RegisterRoutes(v1)
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestLeaderboard(t *testing.T) {
	stats := &stubStats{}
	r := newServer(stats)

	w := get(r, "/api/v1/guilds/111/leaderboard?page=2")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "111", stats.guild)
	assert.Equal(t, 2, stats.page)

	var page models.LeaderboardPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Entries, 1)
	assert.Equal(t, "a", page.Entries[0].UserID)

	w = get(r, "/api/v1/guilds/111/leaderboard")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, stats.page)
}

func TestLeaderboardRejectsBadPage(t *testing.T) {
	r := newServer(&stubStats{})

	for _, q := range []string{"abc", "0", "-1"} {
		w := get(r, "/api/v1/guilds/111/leaderboard?page="+q)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestRejectsMalformedIDs(t *testing.T) {
	stats := &stubStats{}
	r := newServer(stats)

	for _, path := range []string{
		"/api/v1/guilds/abc/leaderboard",
		"/api/v1/guilds/111/users/u-1/wins",
	} {
		w := get(r, path)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
	assert.Empty(t, stats.guild)
}

func TestStoreErrorIsInternal(t *testing.T) {
	r := newServer(&stubStats{err: apperrors.NewDatabaseError("leaderboard", errors.New("conn refused"))})

	w := get(r, "/api/v1/guilds/111/leaderboard")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp middleware.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, apperrors.ErrCodeDatabaseError, resp.Error.Code)
}

func TestUserRoutes(t *testing.T) {
	stats := &stubStats{}
	r := newServer(stats)

	w := get(r, "/api/v1/guilds/111/users/201/wins")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "201", stats.user)
	assert.Contains(t, w.Body.String(), `"prize":"Nitro"`)

	w = get(r, "/api/v1/guilds/111/users/202/vouches")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "202", stats.user)
	assert.Contains(t, w.Body.String(), `"vouched":true`)
}

func TestGiveaways(t *testing.T) {
	stats := &stubStats{giveaways: []models.GiveawaySummary{
		{Giveaway: models.Giveaway{ID: 1, Prize: "Nitro", Status: models.GiveawayStatusClosed}, Entrants: 4, Winners: []string{"a"}},
	}}
	w := get(newServer(stats), "/api/v1/guilds/999/giveaways")
	require.Equal(t, http.StatusOK, w.Code)

	var got []models.GiveawaySummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, 4, got[0].Entrants)
	assert.Equal(t, "999", stats.guild)
}

func TestProbes(t *testing.T) {
	healthy := ReadinessCheck{Name: "store", Check: func(context.Context) error { return nil }}
	r := newServer(&stubStats{}, healthy)

	assert.Equal(t, http.StatusOK, get(r, "/health").Code)
	assert.Equal(t, http.StatusOK, get(r, "/live").Code)
	assert.Equal(t, http.StatusOK, get(r, "/ready").Code)

	down := ReadinessCheck{Name: "redis", Check: func(context.Context) error { return errors.New("dial tcp: refused") }}
	r = newServer(&stubStats{}, healthy, down)
	w := get(r, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "redis unavailable")
}
