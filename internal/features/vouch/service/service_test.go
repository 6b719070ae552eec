package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bbolt "go.etcd.io/bbolt"

	"giveaway-tracker-bot/internal/common/cache"
	"giveaway-tracker-bot/internal/common/config"
	"giveaway-tracker-bot/internal/common/lock"
	"giveaway-tracker-bot/internal/features/giveaway/models"
	"giveaway-tracker-bot/internal/features/giveaway/repository"
	boltrepo "giveaway-tracker-bot/internal/features/giveaway/repository/bolt"
)

const guild = "guild"

var fixedNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

type recordingCache struct {
	cache.Noop
	invalidated []string
}

func (c *recordingCache) InvalidateGuild(_ context.Context, guildID string) error {
	c.invalidated = append(c.invalidated, guildID)
	return nil
}

func setup(t *testing.T) (VouchService, repository.Repository, *recordingCache) {
	t.Helper()
	db, err := bbolt.Open(filepath.Join(t.TempDir(), "vouch.db"), 0o600, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo, err := boltrepo.New(db)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Vouch.Keyword = "vouch"
	cfg.Vouch.DefaultChannelID = "vouches"

	rc := &recordingCache{}
	svc := NewVouchService(repo, lock.NewLocalLocker(), rc, cfg, zerolog.Nop(),
		WithClock(func() time.Time { return fixedNow }))
	return svc, repo, rc
}

// seedWin creates a closed giveaway won by the given users.
func seedWin(t *testing.T, repo repository.Repository, prize string, winners ...string) int64 {
	t.Helper()
	ctx := context.Background()
	g := &models.Giveaway{
		GuildID:      guild,
		ChannelID:    "chan",
		Prize:        prize,
		WinnersCount: len(winners),
		EndsAt:       fixedNow,
		Status:       models.GiveawayStatusClosed,
		CreatedAt:    fixedNow,
	}
	require.NoError(t, repo.WithTx(ctx, func(tx repository.Tx) error {
		if err := tx.CreateGiveaway(ctx, g); err != nil {
			return err
		}
		for _, w := range winners {
			if _, err := tx.AddWinner(ctx, g.ID, w); err != nil {
				return err
			}
			if err := tx.AdjustWinCount(ctx, guild, w, 1); err != nil {
				return err
			}
		}
		return nil
	}))
	return g.ID
}

func TestVouchFlow(t *testing.T) {
	svc, repo, rc := setup(t)
	ctx := context.Background()
	id := seedWin(t, repo, "Nitro", "a")

	e, err := svc.Eligibility(ctx, guild, "a")
	require.NoError(t, err)
	assert.False(t, e.Eligible())
	assert.Equal(t, 1, e.Outstanding())

	v, err := svc.Vouch(ctx, guild, id, "a")
	require.NoError(t, err)
	assert.Equal(t, models.VouchSourceSelf, v.Source)
	assert.Equal(t, fixedNow, v.CreatedAt)
	assert.Equal(t, []string{guild}, rc.invalidated)

	e, err = svc.Eligibility(ctx, guild, "a")
	require.NoError(t, err)
	assert.True(t, e.Eligible())

	_, err = svc.Vouch(ctx, guild, id, "a")
	assert.ErrorIs(t, err, ErrAlreadyVouched)
}

func TestVouchRejections(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()
	id := seedWin(t, repo, "Nitro", "a")

	_, err := svc.Vouch(ctx, guild, 999, "a")
	assert.ErrorIs(t, err, ErrGiveawayNotFound)

	_, err = svc.Vouch(ctx, "other-guild", id, "a")
	assert.ErrorIs(t, err, ErrGiveawayNotFound)

	_, err = svc.Vouch(ctx, guild, id, "b")
	assert.ErrorIs(t, err, ErrNotAWinner)

	_, err = svc.AddVouch(ctx, guild, id, "b")
	assert.ErrorIs(t, err, ErrNotAWinner)
}

func TestRemoveVouchBlocksWin(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()
	id := seedWin(t, repo, "Nitro", "a")

	assert.ErrorIs(t, svc.RemoveVouch(ctx, guild, id, "a"), ErrNoSuchVouch)

	v, err := svc.AddVouch(ctx, guild, id, "a")
	require.NoError(t, err)
	assert.Equal(t, models.VouchSourceModerator, v.Source)

	require.NoError(t, svc.RemoveVouch(ctx, guild, id, "a"))

	e, err := svc.Eligibility(ctx, guild, "a")
	require.NoError(t, err)
	assert.Equal(t, models.Eligibility{Wins: 1, Vouches: 0}, e)

	_, err = svc.Vouch(ctx, guild, id, "a")
	assert.ErrorIs(t, err, ErrVouchBlocked)
	_, err = svc.AddVouch(ctx, guild, id, "a")
	assert.ErrorIs(t, err, ErrVouchBlocked)
}

func TestKeywordIgnoresOtherMessages(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()
	seedWin(t, repo, "Nitro", "a")

	out, err := svc.HandleKeywordMessage(ctx, KeywordMessage{GuildID: guild, ChannelID: "general", UserID: "a", Content: "vouch"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, out.Kind)

	out, err = svc.HandleKeywordMessage(ctx, KeywordMessage{GuildID: guild, ChannelID: "vouches", UserID: "a", Content: "thanks!"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, out.Kind)

	out, err = svc.HandleKeywordMessage(ctx, KeywordMessage{ChannelID: "vouches", UserID: "a", Content: "vouch"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, out.Kind)
}

func TestKeywordOutcomes(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()
	msg := func(user string) KeywordMessage {
		return KeywordMessage{GuildID: guild, ChannelID: "vouches", UserID: user, Content: "Vouching, legit!"}
	}

	out, err := svc.HandleKeywordMessage(ctx, msg("nobody"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoWins, out.Kind)

	first := seedWin(t, repo, "Nitro", "a")
	out, err = svc.HandleKeywordMessage(ctx, msg("a"))
	require.NoError(t, err)
	require.Equal(t, OutcomeRecorded, out.Kind)
	assert.Equal(t, first, out.Vouch.GiveawayID)
	assert.Equal(t, models.VouchSourceKeyword, out.Vouch.Source)

	out, err = svc.HandleKeywordMessage(ctx, msg("a"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAllVouched, out.Kind)

	second := seedWin(t, repo, "Steam key", "a")
	third := seedWin(t, repo, "Game pass", "a")
	out, err = svc.HandleKeywordMessage(ctx, msg("a"))
	require.NoError(t, err)
	require.Equal(t, OutcomeAmbiguous, out.Kind)
	require.Len(t, out.Wins, 2)
	assert.Equal(t, third, out.Wins[0].GiveawayID)
	assert.Equal(t, second, out.Wins[1].GiveawayID)

	_, err = svc.Vouch(ctx, guild, third, "a")
	require.NoError(t, err)
	_, err = svc.AddVouch(ctx, guild, second, "a")
	require.NoError(t, err)
	require.NoError(t, svc.RemoveVouch(ctx, guild, second, "a"))

	out, err = svc.HandleKeywordMessage(ctx, msg("a"))
	require.NoError(t, err)
	require.Equal(t, OutcomeBlocked, out.Kind)
	require.Len(t, out.Wins, 1)
	assert.Equal(t, second, out.Wins[0].GiveawayID)
}

func TestVouchChannelFallsBackToDefault(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	ch, err := svc.VouchChannel(ctx, guild)
	require.NoError(t, err)
	assert.Equal(t, "vouches", ch)

	cfg, err := svc.SetVouchChannel(ctx, guild, "proofs")
	require.NoError(t, err)
	assert.Equal(t, fixedNow, cfg.UpdatedAt)

	ch, err = svc.VouchChannel(ctx, guild)
	require.NoError(t, err)
	assert.Equal(t, "proofs", ch)

	out, err := svc.HandleKeywordMessage(ctx, KeywordMessage{GuildID: guild, ChannelID: "vouches", UserID: "a", Content: "vouch"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, out.Kind)
}
