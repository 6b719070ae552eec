package repository

import (
	"context"

	"giveaway-tracker-bot/internal/features/giveaway/models"
)

// LoadEligibility reads the user's win and vouch counts in the guild.
func LoadEligibility(ctx context.Context, tx Tx, guildID, userID string) (models.Eligibility, error) {
	wins, err := tx.GetWinCount(ctx, guildID, userID)
	if err != nil {
		return models.Eligibility{}, err
	}
	vouches, err := tx.CountVouches(ctx, guildID, userID)
	if err != nil {
		return models.Eligibility{}, err
	}
	return models.Eligibility{Wins: wins, Vouches: vouches}, nil
}
