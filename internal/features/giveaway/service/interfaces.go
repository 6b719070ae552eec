package service

import (
	"context"
	"time"

	"giveaway-tracker-bot/internal/features/giveaway/models"
)

// GiveawayService owns the giveaway lifecycle.
type GiveawayService interface {
	Start(ctx context.Context, input models.GiveawayCreate) (*models.Giveaway, error)
	// Get returns the giveaway only if it belongs to the guild.
	Get(ctx context.Context, guildID string, id int64) (*models.Giveaway, error)
	Join(ctx context.Context, id int64, userID string) (*models.EntryResult, error)
	Leave(ctx context.Context, id int64, userID string) (*models.EntryResult, error)
	Close(ctx context.Context, id int64, reason models.CloseReason) (*models.DrawResult, error)
	Reroll(ctx context.Context, id int64, req models.RerollRequest) (*models.DrawResult, error)
	Delete(ctx context.Context, id int64) error
	RecordManualWin(ctx context.Context, guildID, prize, userID string) (*models.Giveaway, error)
	AdjustWins(ctx context.Context, id int64, userID string, action models.WinAdjustment) (*models.Giveaway, error)
	ListExpired(ctx context.Context, now time.Time) ([]*models.Giveaway, error)
}

// Announcer publishes lifecycle events to the chat platform. It is called
// after the store transaction has committed; its errors are logged and never
// undo a state change.
type Announcer interface {
	// GiveawayStarted posts the entry message and returns its id.
	GiveawayStarted(ctx context.Context, g *models.Giveaway) (string, error)
	EntriesChanged(ctx context.Context, g *models.Giveaway, entrants int) error
	GiveawayClosed(ctx context.Context, result *models.DrawResult) error
	GiveawayRerolled(ctx context.Context, result *models.DrawResult) error
}

// NopAnnouncer drops every event.
type NopAnnouncer struct{}

func (NopAnnouncer) GiveawayStarted(context.Context, *models.Giveaway) (string, error) {
	return "", nil
}
func (NopAnnouncer) EntriesChanged(context.Context, *models.Giveaway, int) error   { return nil }
func (NopAnnouncer) GiveawayClosed(context.Context, *models.DrawResult) error   { return nil }
func (NopAnnouncer) GiveawayRerolled(context.Context, *models.DrawResult) error { return nil }
