package models

import "time"

// VouchSource records who created a vouch.
type VouchSource string

const (
	VouchSourceSelf      VouchSource = "self"
	VouchSourceModerator VouchSource = "moderator"
	VouchSourceKeyword   VouchSource = "keyword"
)

// VouchKey identifies a vouch or a vouch block.
type VouchKey struct {
	GuildID    string `json:"guild_id"`
	UserID     string `json:"user_id"`
	GiveawayID int64  `json:"giveaway_id"`
}

// Vouch is a user's acknowledgement of having received a prize.
type Vouch struct {
	VouchKey
	Source    VouchSource `json:"source"`
	CreatedAt time.Time   `json:"created_at"`
}

// Eligibility is the join gate: a user may join only while vouches >= wins.
type Eligibility struct {
	Wins    int `json:"wins"`
	Vouches int `json:"vouches"`
}

func (e Eligibility) Eligible() bool {
	return e.Vouches >= e.Wins
}

// Outstanding is the number of vouches still owed.
func (e Eligibility) Outstanding() int {
	if e.Wins > e.Vouches {
		return e.Wins - e.Vouches
	}
	return 0
}

// WinRecord is one win (or vouch) row joined with its giveaway. Prize is
// empty when the giveaway has been deleted.
type WinRecord struct {
	GiveawayID int64          `json:"giveaway_id"`
	Prize      string         `json:"prize"`
	Status     GiveawayStatus `json:"status,omitempty"`
	Vouched    bool           `json:"vouched"`
	Blocked    bool           `json:"blocked"`
}

// LeaderboardEntry is one ranked user.
type LeaderboardEntry struct {
	Rank    int    `json:"rank"`
	UserID  string `json:"user_id"`
	Wins    int    `json:"wins"`
	Vouches int    `json:"vouches"`
}

// LeaderboardPage is one page of the guild ranking.
type LeaderboardPage struct {
	GuildID    string             `json:"guild_id"`
	Entries    []LeaderboardEntry `json:"entries"`
	Page       int                `json:"page"`
	TotalPages int                `json:"total_pages"`
	Total      int                `json:"total"`
}

// GuildConfig holds per-guild settings.
type GuildConfig struct {
	GuildID        string    `json:"guild_id"`
	VouchChannelID string    `json:"vouch_channel_id,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}
