package service

import (
	"context"

	"giveaway-tracker-bot/internal/features/giveaway/models"
)

// VouchService keeps the vouch ledger that gates repeat participation.
type VouchService interface {
	// Vouch records the user's own vouch for a giveaway they won.
	Vouch(ctx context.Context, guildID string, giveawayID int64, userID string) (*models.Vouch, error)
	// AddVouch records a vouch on behalf of the user.
	AddVouch(ctx context.Context, guildID string, giveawayID int64, userID string) (*models.Vouch, error)
	// RemoveVouch deletes the vouch and blocks the win from being vouched again.
	RemoveVouch(ctx context.Context, guildID string, giveawayID int64, userID string) error
	Eligibility(ctx context.Context, guildID, userID string) (models.Eligibility, error)
	HandleKeywordMessage(ctx context.Context, msg KeywordMessage) (*KeywordOutcome, error)

	SetVouchChannel(ctx context.Context, guildID, channelID string) (*models.GuildConfig, error)
	// VouchChannel is the guild's vouch channel or the configured default.
	VouchChannel(ctx context.Context, guildID string) (string, error)
}

// KeywordMessage is a chat message that may trigger a vouch.
type KeywordMessage struct {
	GuildID   string
	ChannelID string
	UserID    string
	Content   string
}

// OutcomeKind classifies the result of a keyword message.
type OutcomeKind string

const (
	// OutcomeIgnored means the message was outside the vouch channel or did
	// not contain the keyword.
	OutcomeIgnored    OutcomeKind = "ignored"
	OutcomeNoWins     OutcomeKind = "no_wins"
	OutcomeAllVouched OutcomeKind = "all_vouched"
	OutcomeRecorded   OutcomeKind = "recorded"
	OutcomeBlocked    OutcomeKind = "blocked"
	// OutcomeAmbiguous means several wins are pending and the user has to
	// pick one with the vouch command.
	OutcomeAmbiguous OutcomeKind = "ambiguous"
)

// KeywordOutcome is what the bot should tell the user.
type KeywordOutcome struct {
	Kind OutcomeKind
	// Vouch is set for OutcomeRecorded.
	Vouch *models.Vouch
	// Wins lists the relevant wins: the recorded one, the blocked ones or
	// the pending choices.
	Wins []models.WinRecord
}
