package discord

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bbolt "go.etcd.io/bbolt"

	"giveaway-tracker-bot/internal/common/cache"
	"giveaway-tracker-bot/internal/common/config"
	"giveaway-tracker-bot/internal/features/giveaway/models"
	"giveaway-tracker-bot/internal/features/giveaway/repository"
	boltrepo "giveaway-tracker-bot/internal/features/giveaway/repository/bolt"
	statsservice "giveaway-tracker-bot/internal/features/stats/service"
	platform "giveaway-tracker-bot/internal/platform/discord"
	"giveaway-tracker-bot/internal/platform/discord/discordtest"
)

type statsHarness struct {
	repo    repository.Repository
	router  *platform.Router
	session *discordtest.Session
}

func newStatsHarness(t *testing.T) *statsHarness {
	t.Helper()
	db, err := bbolt.Open(filepath.Join(t.TempDir(), "giveaways.db"), 0o600, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	repo, err := boltrepo.New(db)
	require.NoError(t, err)

	router := platform.NewRouter(zerolog.Nop())
	svc := statsservice.NewStatsService(repo, cache.Noop{}, &config.Config{}, zerolog.Nop())
	NewStatsHandler(svc).RegisterRoutes(router)
	return &statsHarness{repo: repo, router: router, session: &discordtest.Session{}}
}

// seed creates a closed giveaway won by each of winners.
func (h *statsHarness) seed(t *testing.T, prize string, status models.GiveawayStatus, winners ...string) int64 {
	t.Helper()
	ctx := context.Background()
	g := &models.Giveaway{
		GuildID:      "guild",
		ChannelID:    "chan",
		Prize:        prize,
		WinnersCount: 1,
		EndsAt:       time.Unix(1800000000, 0).UTC(),
		Status:       status,
		CreatedAt:    time.Unix(1700000000, 0).UTC(),
	}
	require.NoError(t, h.repo.WithTx(ctx, func(tx repository.Tx) error {
		if err := tx.CreateGiveaway(ctx, g); err != nil {
			return err
		}
		for _, u := range winners {
			if _, err := tx.AddWinner(ctx, g.ID, u); err != nil {
				return err
			}
			if err := tx.AdjustWinCount(ctx, "guild", u, 1); err != nil {
				return err
			}
		}
		return nil
	}))
	return g.ID
}

func (h *statsHarness) command(userID string, opts []*discordgo.ApplicationCommandInteractionDataOption, name string) *discordgo.InteractionResponse {
	h.router.Dispatch(context.Background(), h.session, discordtest.Command("guild", discordtest.Member(userID, 0), opts, "gw", name))
	return h.session.Last()
}

func (h *statsHarness) button(userID, customID string) *discordgo.InteractionResponse {
	h.router.Dispatch(context.Background(), h.session, discordtest.Component("guild", discordtest.Member(userID, 0), customID, "lb-msg"))
	return h.session.Last()
}

func TestWinsCommand(t *testing.T) {
	h := newStatsHarness(t)

	resp := h.command("u1", nil, "wins")
	assert.Equal(t, "<@u1> hasn't won any giveaways in this server.", resp.Data.Content)

	h.seed(t, "Nitro", models.GiveawayStatusClosed, "u1")
	h.seed(t, "Steam key", models.GiveawayStatusClosed, "u1", "u2")

	resp = h.command("u2", discordtest.Opts(discordtest.User("user", "u1")), "wins")
	require.Len(t, resp.Data.Embeds, 1)
	desc := resp.Data.Embeds[0].Description
	assert.Contains(t, desc, "<@u1>\nTotal Wins: **2**")
	assert.Contains(t, desc, "#1: Nitro")
	assert.Contains(t, desc, "#2: Steam key")
}

func TestVouchesCommand(t *testing.T) {
	h := newStatsHarness(t)
	resp := h.command("u1", nil, "vouches")
	assert.Equal(t, "<@u1> has no recorded vouches.", resp.Data.Content)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, resp.Data.Flags)

	id := h.seed(t, "Nitro", models.GiveawayStatusClosed, "u1")
	ctx := context.Background()
	require.NoError(t, h.repo.WithTx(ctx, func(tx repository.Tx) error {
		_, err := tx.AddVouch(ctx, models.Vouch{VouchKey: models.VouchKey{GuildID: "guild", UserID: "u1", GiveawayID: id}})
		return err
	}))

	resp = h.command("u1", nil, "vouches")
	require.Len(t, resp.Data.Embeds, 1)
	assert.Contains(t, resp.Data.Embeds[0].Description, "Total vouches: **1**")
	assert.Contains(t, resp.Data.Embeds[0].Description, "#1: Nitro")
}

func TestListCommand(t *testing.T) {
	h := newStatsHarness(t)
	assert.Equal(t, "No giveaways found.", h.command("u1", nil, "list").Data.Content)

	h.seed(t, "Nitro", models.GiveawayStatusClosed, "u1", "u2")
	h.seed(t, "Steam key", models.GiveawayStatusClosed)
	h.seed(t, "Gift card", models.GiveawayStatusOpen)

	desc := h.command("u1", nil, "list").Data.Embeds[0].Description
	assert.Contains(t, desc, "🔴 **#1**: Nitro, Winners: 1, Ended, 🏆 <@u1>, <@u2>")
	assert.Contains(t, desc, "🔴 **#2**: Steam key, Winners: 1, Ended, 🏆 None")
	assert.Contains(t, desc, "🟢 **#3**: Gift card, Winners: 1, Entries: 0, ends <t:1800000000:R>")
}

func TestLeaderboardPagination(t *testing.T) {
	h := newStatsHarness(t)
	assert.Equal(t, "No wins recorded yet.", h.command("u1", nil, "leaderboard").Data.Content)

	users := make([]string, 30)
	for n := range users {
		users[n] = fmt.Sprintf("user%02d", n)
	}
	h.seed(t, "Nitro", models.GiveawayStatusClosed, users...)

	resp := h.command("author", nil, "leaderboard")
	embed := resp.Data.Embeds[0]
	assert.Equal(t, "🏆 Giveaway Winners Leaderboard: Page 1/2", embed.Title)
	assert.Contains(t, embed.Description, "— 🏆 **1** wins — 📝 **0** vouches")

	row := resp.Data.Components[0].(discordgo.ActionsRow)
	prev := row.Components[0].(discordgo.Button)
	next := row.Components[1].(discordgo.Button)
	closeBtn := row.Components[2].(discordgo.Button)
	assert.True(t, prev.Disabled)
	assert.Equal(t, "gw:lb:2:author", next.CustomID)
	assert.Equal(t, "gw:lb:close:author", closeBtn.CustomID)

	resp = h.button("someone", next.CustomID)
	assert.Equal(t, "❌ This menu isn't for you!", resp.Data.Content)

	resp = h.button("author", next.CustomID)
	assert.Equal(t, discordgo.InteractionResponseUpdateMessage, resp.Type)
	assert.Equal(t, "🏆 Giveaway Winners Leaderboard: Page 2/2", resp.Data.Embeds[0].Title)
	row = resp.Data.Components[0].(discordgo.ActionsRow)
	assert.True(t, row.Components[1].(discordgo.Button).Disabled)

	h.button("author", closeBtn.CustomID)
	assert.Equal(t, []string{"lb-msg"}, h.session.Deleted)
}

func TestSinglePageLeaderboardHasNoButtons(t *testing.T) {
	h := newStatsHarness(t)
	h.seed(t, "Nitro", models.GiveawayStatusClosed, "u1")

	resp := h.command("u1", nil, "leaderboard")
	assert.Empty(t, resp.Data.Components)
	assert.Equal(t, "**1.** <@u1> — 🏆 **1** wins — 📝 **0** vouches", resp.Data.Embeds[0].Description)
}

func TestJoinLinesTruncates(t *testing.T) {
	lines := make([]string, 200)
	for n := range lines {
		lines[n] = fmt.Sprintf("#%d: a fairly long prize name to fill the embed", n)
	}
	out := joinLines(lines)
	assert.LessOrEqual(t, len(out), maxDescription)
	assert.Contains(t, out, "more")
}
