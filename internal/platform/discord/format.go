package discord

import (
	"fmt"
	"strings"
	"time"
)

// Embed colors.
const (
	ColorGreen   = 0x2ECC71
	ColorBlurple = 0x5865F2
	ColorGold    = 0xF1C40F
	ColorOrange  = 0xE67E22
	ColorBlue    = 0x3498DB
	ColorRed     = 0xE74C3C
)

func Mention(userID string) string {
	return "<@" + userID + ">"
}

func ChannelMention(channelID string) string {
	return "<#" + channelID + ">"
}

// Mentions joins user mentions with ", ".
func Mentions(userIDs []string) string {
	parts := make([]string, len(userIDs))
	for n, id := range userIDs {
		parts[n] = Mention(id)
	}
	return strings.Join(parts, ", ")
}

// RelativeTime renders a timestamp that every client shows in its own
// locale, e.g. "in 5 minutes".
func RelativeTime(t time.Time) string {
	return fmt.Sprintf("<t:%d:R>", t.Unix())
}
