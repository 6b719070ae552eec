package repository

import (
	"context"
	"errors"
	"time"

	"giveaway-tracker-bot/internal/features/giveaway/models"
)

var (
	ErrGiveawayNotFound = errors.New("giveaway not found")
	// ErrReadOnly is returned when a write is attempted inside View.
	ErrReadOnly = errors.New("transaction is read-only")
)

// Tx is the set of record operations available inside a transaction. All
// writes made through a Tx commit or roll back together.
type Tx interface {
	CreateGiveaway(ctx context.Context, g *models.Giveaway) error
	GetGiveaway(ctx context.Context, id int64) (*models.Giveaway, error)
	// GetGiveawayForUpdate reads the giveaway and locks it until the
	// transaction ends.
	GetGiveawayForUpdate(ctx context.Context, id int64) (*models.Giveaway, error)
	FindGiveawayByPrize(ctx context.Context, guildID, prize string) (*models.Giveaway, error)
	SetMessageID(ctx context.Context, id int64, messageID string) error
	// UpdateStatus moves the giveaway from one status to another and reports
	// whether the row was still in the expected status.
	UpdateStatus(ctx context.Context, id int64, from, to models.GiveawayStatus, closedAt time.Time) (bool, error)
	// DeleteGiveaway removes the giveaway with its entrants and winners.
	DeleteGiveaway(ctx context.Context, id int64) (bool, error)
	ListOpenExpired(ctx context.Context, now time.Time) ([]*models.Giveaway, error)
	ListGiveaways(ctx context.Context, guildID string) ([]*models.Giveaway, error)

	AddEntrant(ctx context.Context, giveawayID int64, userID string) (bool, error)
	RemoveEntrant(ctx context.Context, giveawayID int64, userID string) (bool, error)
	HasEntrant(ctx context.Context, giveawayID int64, userID string) (bool, error)
	ListEntrants(ctx context.Context, giveawayID int64) ([]string, error)
	CountEntrants(ctx context.Context, giveawayID int64) (int, error)

	AddWinner(ctx context.Context, giveawayID int64, userID string) (bool, error)
	RemoveWinner(ctx context.Context, giveawayID int64, userID string) (bool, error)
	HasWinner(ctx context.Context, giveawayID int64, userID string) (bool, error)
	ListWinners(ctx context.Context, giveawayID int64) ([]string, error)

	// AdjustWinCount adds delta to the user's guild win count, never going
	// below zero.
	AdjustWinCount(ctx context.Context, guildID, userID string, delta int) error
	GetWinCount(ctx context.Context, guildID, userID string) (int, error)

	AddVouch(ctx context.Context, v models.Vouch) (bool, error)
	RemoveVouch(ctx context.Context, key models.VouchKey) (bool, error)
	HasVouch(ctx context.Context, key models.VouchKey) (bool, error)
	CountVouches(ctx context.Context, guildID, userID string) (int, error)
	AddVouchBlock(ctx context.Context, key models.VouchKey) (bool, error)
	HasVouchBlock(ctx context.Context, key models.VouchKey) (bool, error)

	// GetGuildConfig returns an empty config for unknown guilds.
	GetGuildConfig(ctx context.Context, guildID string) (*models.GuildConfig, error)
	SetGuildConfig(ctx context.Context, cfg *models.GuildConfig) error

	// TopWinners ranks users with at least one win by wins, then vouches.
	TopWinners(ctx context.Context, guildID string, limit, offset int) ([]models.LeaderboardEntry, error)
	CountRanked(ctx context.Context, guildID string) (int, error)
	// UserWins lists the user's wins in the guild, newest giveaway first.
	UserWins(ctx context.Context, guildID, userID string) ([]models.WinRecord, error)
	// UserVouches lists the user's vouches, newest giveaway first.
	UserVouches(ctx context.Context, guildID, userID string) ([]models.WinRecord, error)
}

// Repository is the record store.
type Repository interface {
	// WithTx runs fn in a read-write transaction, committing when fn returns
	// nil and rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	// View runs fn in a read-only transaction.
	View(ctx context.Context, fn func(tx Tx) error) error
	Ping(ctx context.Context) error
	Close() error
}
