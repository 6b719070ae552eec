package models

import (
	"strings"
	"time"
)

// GiveawayStatus represents the lifecycle state of a giveaway. The only
// transition is open -> closed.
type GiveawayStatus string

const (
	GiveawayStatusOpen   GiveawayStatus = "open"
	GiveawayStatusClosed GiveawayStatus = "closed"
)

const (
	MinWinners  = 1
	MaxWinners  = 50
	MinDuration = 10 * time.Second
)

// CloseReason records why a giveaway was closed.
type CloseReason string

const (
	CloseReasonDeadline CloseReason = "deadline"
	CloseReasonManual   CloseReason = "manual"
)

// Giveaway is a single prize drawing in a guild channel. Discord snowflakes
// are kept as strings.
type Giveaway struct {
	ID           int64          `json:"id"`
	GuildID      string         `json:"guild_id"`
	ChannelID    string         `json:"channel_id"`
	MessageID    string         `json:"message_id,omitempty"`
	HostID       string         `json:"host_id,omitempty"`
	Prize        string         `json:"prize"`
	WinnersCount int            `json:"winners_count"`
	EndsAt       time.Time      `json:"ends_at"`
	Status       GiveawayStatus `json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
	ClosedAt     *time.Time     `json:"closed_at,omitempty"`
}

func (g *Giveaway) IsOpen() bool {
	return g.Status == GiveawayStatusOpen
}

// Expired reports whether the deadline has passed at now.
func (g *Giveaway) Expired(now time.Time) bool {
	return !now.Before(g.EndsAt)
}

// NormalizePrize trims the prize text; an empty result is invalid.
func NormalizePrize(prize string) string {
	return strings.TrimSpace(prize)
}

// DrawResult is the outcome of a close or reroll.
type DrawResult struct {
	Giveaway *Giveaway `json:"giveaway"`
	// Winners drawn by this operation.
	Winners []string `json:"winners"`
	// AllWinners is every winner recorded for the giveaway after the draw.
	AllWinners   []string    `json:"all_winners"`
	EntrantCount int         `json:"entrant_count"`
	Reason       CloseReason `json:"reason,omitempty"`
	Reroll       bool        `json:"reroll"`
}

// NoEntrants reports a draw that selected nobody.
func (r *DrawResult) NoEntrants() bool {
	return len(r.Winners) == 0
}

// EntryResult is returned by join and leave so the entry message can show
// the fresh entrant count.
type EntryResult struct {
	Giveaway *Giveaway `json:"giveaway"`
	Entrants int       `json:"entrants"`
}

// GiveawaySummary is a giveaway with its entrant count and winners, used by
// listings.
type GiveawaySummary struct {
	Giveaway
	Entrants int      `json:"entrants"`
	Winners  []string `json:"winners"`
}

// GiveawayCreate is the input of a new giveaway. Duration uses compact
// notation, see ParseDuration.
type GiveawayCreate struct {
	GuildID      string
	ChannelID    string
	HostID       string
	Duration     string
	WinnersCount int
	Prize        string
}

// RerollRequest selects additional winners for a closed giveaway. Count 0
// means the giveaway's winner count. TargetUserID, when set, is always one
// of the selected winners.
type RerollRequest struct {
	Count        int
	TargetUserID string
}

// WinAdjustment is the direction of a manual win correction.
type WinAdjustment string

const (
	WinAdjustmentAdd    WinAdjustment = "add"
	WinAdjustmentRemove WinAdjustment = "remove"
)
