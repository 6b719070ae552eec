package bolt

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bbolt "go.etcd.io/bbolt"

	"giveaway-tracker-bot/internal/features/giveaway/models"
	"giveaway-tracker-bot/internal/features/giveaway/repository"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := bbolt.Open(filepath.Join(t.TempDir(), "test.db"), 0o600, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo, err := New(db)
	require.NoError(t, err)
	return repo
}

func createGiveaway(t *testing.T, repo *Repository, g *models.Giveaway) *models.Giveaway {
	t.Helper()
	require.NoError(t, repo.WithTx(context.Background(), func(tx repository.Tx) error {
		return tx.CreateGiveaway(context.Background(), g)
	}))
	return g
}

func openGiveaway(guild, prize string, endsAt time.Time) *models.Giveaway {
	return &models.Giveaway{
		GuildID:      guild,
		ChannelID:    "c1",
		Prize:        prize,
		WinnersCount: 1,
		EndsAt:       endsAt,
		Status:       models.GiveawayStatusOpen,
		CreatedAt:    endsAt.Add(-time.Hour),
	}
}

func TestCreateAssignsMonotonicIDs(t *testing.T) {
	repo := newTestRepo(t)
	now := time.Now().UTC()

	a := createGiveaway(t, repo, openGiveaway("g1", "Nitro", now))
	b := createGiveaway(t, repo, openGiveaway("g1", "Steam key", now))
	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, int64(2), b.ID)

	ctx := context.Background()
	require.NoError(t, repo.View(ctx, func(tx repository.Tx) error {
		got, err := tx.GetGiveaway(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "Steam key", got.Prize)

		_, err = tx.GetGiveaway(ctx, 99)
		assert.ErrorIs(t, err, repository.ErrGiveawayNotFound)
		return nil
	}))
}

func TestEntrantsAndWinnersAreSets(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	g := createGiveaway(t, repo, openGiveaway("g1", "Nitro", time.Now()))

	require.NoError(t, repo.WithTx(ctx, func(tx repository.Tx) error {
		added, err := tx.AddEntrant(ctx, g.ID, "u1")
		require.NoError(t, err)
		assert.True(t, added)

		added, err = tx.AddEntrant(ctx, g.ID, "u1")
		require.NoError(t, err)
		assert.False(t, added)

		_, err = tx.AddEntrant(ctx, g.ID, "u2")
		require.NoError(t, err)

		n, err := tx.CountEntrants(ctx, g.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		removed, err := tx.RemoveEntrant(ctx, g.ID, "u3")
		require.NoError(t, err)
		assert.False(t, removed)

		added, err = tx.AddWinner(ctx, g.ID, "u1")
		require.NoError(t, err)
		assert.True(t, added)
		added, err = tx.AddWinner(ctx, g.ID, "u1")
		require.NoError(t, err)
		assert.False(t, added)
		return nil
	}))
}

func TestUpdateStatusCompareAndSet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	g := createGiveaway(t, repo, openGiveaway("g1", "Nitro", time.Now()))
	closedAt := time.Now()

	require.NoError(t, repo.WithTx(ctx, func(tx repository.Tx) error {
		ok, err := tx.UpdateStatus(ctx, g.ID, models.GiveawayStatusOpen, models.GiveawayStatusClosed, closedAt)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = tx.UpdateStatus(ctx, g.ID, models.GiveawayStatusOpen, models.GiveawayStatusClosed, closedAt)
		require.NoError(t, err)
		assert.False(t, ok)

		got, err := tx.GetGiveaway(ctx, g.ID)
		require.NoError(t, err)
		assert.Equal(t, models.GiveawayStatusClosed, got.Status)
		require.NotNil(t, got.ClosedAt)
		return nil
	}))
}

func TestDeleteCascadesEntriesButKeepsLedger(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	g := createGiveaway(t, repo, openGiveaway("g1", "Nitro", time.Now()))
	key := models.VouchKey{GuildID: "g1", UserID: "u1", GiveawayID: g.ID}

	require.NoError(t, repo.WithTx(ctx, func(tx repository.Tx) error {
		_, _ = tx.AddEntrant(ctx, g.ID, "u1")
		_, _ = tx.AddWinner(ctx, g.ID, "u1")
		require.NoError(t, tx.AdjustWinCount(ctx, "g1", "u1", 1))
		_, err := tx.AddVouch(ctx, models.Vouch{VouchKey: key, Source: models.VouchSourceSelf})
		return err
	}))

	require.NoError(t, repo.WithTx(ctx, func(tx repository.Tx) error {
		deleted, err := tx.DeleteGiveaway(ctx, g.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = tx.DeleteGiveaway(ctx, g.ID)
		require.NoError(t, err)
		assert.False(t, deleted)
		return nil
	}))

	require.NoError(t, repo.View(ctx, func(tx repository.Tx) error {
		entrants, err := tx.ListEntrants(ctx, g.ID)
		require.NoError(t, err)
		assert.Empty(t, entrants)

		winners, err := tx.ListWinners(ctx, g.ID)
		require.NoError(t, err)
		assert.Empty(t, winners)

		wins, err := tx.GetWinCount(ctx, "g1", "u1")
		require.NoError(t, err)
		assert.Equal(t, 1, wins)

		vouched, err := tx.HasVouch(ctx, key)
		require.NoError(t, err)
		assert.True(t, vouched)

		vouches, err := tx.UserVouches(ctx, "g1", "u1")
		require.NoError(t, err)
		require.Len(t, vouches, 1)
		assert.Equal(t, g.ID, vouches[0].GiveawayID)
		assert.Empty(t, vouches[0].Prize)
		return nil
	}))
}

func TestWinCountNeverNegative(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.WithTx(ctx, func(tx repository.Tx) error {
		require.NoError(t, tx.AdjustWinCount(ctx, "g1", "u1", -1))
		n, err := tx.GetWinCount(ctx, "g1", "u1")
		require.NoError(t, err)
		assert.Equal(t, 0, n)

		require.NoError(t, tx.AdjustWinCount(ctx, "g1", "u1", 2))
		require.NoError(t, tx.AdjustWinCount(ctx, "g1", "u1", -1))
		n, err = tx.GetWinCount(ctx, "g1", "u1")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		return nil
	}))
}

func TestVouchCountsAreScopedToGuildAndUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.WithTx(ctx, func(tx repository.Tx) error {
		for _, v := range []models.VouchKey{
			{GuildID: "g1", UserID: "u1", GiveawayID: 1},
			{GuildID: "g1", UserID: "u1", GiveawayID: 2},
			{GuildID: "g1", UserID: "u10", GiveawayID: 1},
			{GuildID: "g2", UserID: "u1", GiveawayID: 3},
		} {
			added, err := tx.AddVouch(ctx, models.Vouch{VouchKey: v})
			require.NoError(t, err)
			assert.True(t, added)
		}
		added, err := tx.AddVouch(ctx, models.Vouch{VouchKey: models.VouchKey{GuildID: "g1", UserID: "u1", GiveawayID: 2}})
		require.NoError(t, err)
		assert.False(t, added)
		return nil
	}))

	require.NoError(t, repo.View(ctx, func(tx repository.Tx) error {
		n, err := tx.CountVouches(ctx, "g1", "u1")
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		n, err = tx.CountVouches(ctx, "g2", "u1")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		return nil
	}))
}

func TestTopWinnersOrdering(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.WithTx(ctx, func(tx repository.Tx) error {
		require.NoError(t, tx.AdjustWinCount(ctx, "g1", "a", 1))
		require.NoError(t, tx.AdjustWinCount(ctx, "g1", "b", 3))
		require.NoError(t, tx.AdjustWinCount(ctx, "g1", "c", 1))
		require.NoError(t, tx.AdjustWinCount(ctx, "g2", "z", 9))
		_, err := tx.AddVouch(ctx, models.Vouch{VouchKey: models.VouchKey{GuildID: "g1", UserID: "c", GiveawayID: 1}})
		return err
	}))

	require.NoError(t, repo.View(ctx, func(tx repository.Tx) error {
		top, err := tx.TopWinners(ctx, "g1", 10, 0)
		require.NoError(t, err)
		require.Len(t, top, 3)
		assert.Equal(t, "b", top[0].UserID)
		assert.Equal(t, "c", top[1].UserID)
		assert.Equal(t, 1, top[1].Vouches)
		assert.Equal(t, "a", top[2].UserID)
		assert.Equal(t, 3, top[2].Rank)

		page, err := tx.TopWinners(ctx, "g1", 1, 1)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, "c", page[0].UserID)

		total, err := tx.CountRanked(ctx, "g1")
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		return nil
	}))
}

func TestListOpenExpired(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	past := createGiveaway(t, repo, openGiveaway("g1", "old", now.Add(-time.Minute)))
	createGiveaway(t, repo, openGiveaway("g1", "future", now.Add(time.Hour)))
	closed := createGiveaway(t, repo, openGiveaway("g1", "closed", now.Add(-time.Hour)))
	require.NoError(t, repo.WithTx(ctx, func(tx repository.Tx) error {
		_, err := tx.UpdateStatus(ctx, closed.ID, models.GiveawayStatusOpen, models.GiveawayStatusClosed, now)
		return err
	}))

	require.NoError(t, repo.View(ctx, func(tx repository.Tx) error {
		due, err := tx.ListOpenExpired(ctx, now)
		require.NoError(t, err)
		require.Len(t, due, 1)
		assert.Equal(t, past.ID, due[0].ID)
		return nil
	}))
}

func TestUserWinsNewestFirst(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	a := createGiveaway(t, repo, openGiveaway("g1", "first", time.Now()))
	b := createGiveaway(t, repo, openGiveaway("g1", "second", time.Now()))
	other := createGiveaway(t, repo, openGiveaway("g2", "elsewhere", time.Now()))

	require.NoError(t, repo.WithTx(ctx, func(tx repository.Tx) error {
		for _, id := range []int64{a.ID, b.ID, other.ID} {
			if _, err := tx.AddWinner(ctx, id, "u1"); err != nil {
				return err
			}
		}
		_, err := tx.AddVouchBlock(ctx, models.VouchKey{GuildID: "g1", UserID: "u1", GiveawayID: a.ID})
		return err
	}))

	require.NoError(t, repo.View(ctx, func(tx repository.Tx) error {
		wins, err := tx.UserWins(ctx, "g1", "u1")
		require.NoError(t, err)
		require.Len(t, wins, 2)
		assert.Equal(t, "second", wins[0].Prize)
		assert.Equal(t, "first", wins[1].Prize)
		assert.True(t, wins[1].Blocked)
		assert.False(t, wins[0].Vouched)
		return nil
	}))
}

func TestViewRejectsWrites(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	err := repo.View(ctx, func(tx repository.Tx) error {
		_, err := tx.AddEntrant(ctx, 1, "u1")
		return err
	})
	assert.ErrorIs(t, err, repository.ErrReadOnly)
}

func TestGuildConfigDefaults(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.WithTx(ctx, func(tx repository.Tx) error {
		cfg, err := tx.GetGuildConfig(ctx, "g1")
		require.NoError(t, err)
		assert.Equal(t, "g1", cfg.GuildID)
		assert.Empty(t, cfg.VouchChannelID)

		cfg.VouchChannelID = "chan"
		return tx.SetGuildConfig(ctx, cfg)
	}))

	require.NoError(t, repo.View(ctx, func(tx repository.Tx) error {
		cfg, err := tx.GetGuildConfig(ctx, "g1")
		require.NoError(t, err)
		assert.Equal(t, "chan", cfg.VouchChannelID)
		return nil
	}))
}
