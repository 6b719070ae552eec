package discord

import (
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"

	"giveaway-tracker-bot/internal/features/giveaway/models"
	platform "giveaway-tracker-bot/internal/platform/discord"
)

const (
	joinPrefix  = "gw:join"
	leavePrefix = "gw:leave"
)

func joinID(id int64) string {
	return platform.CustomID(joinPrefix, strconv.FormatInt(id, 10))
}

func leaveID(id int64) string {
	return platform.CustomID(leavePrefix, strconv.FormatInt(id, 10))
}

// entryButtons are the Join/Leave buttons under a giveaway message.
func entryButtons(id int64, disabled bool) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Join", Style: discordgo.SuccessButton, CustomID: joinID(id), Disabled: disabled},
			discordgo.Button{Label: "Leave", Style: discordgo.SecondaryButton, CustomID: leaveID(id), Disabled: disabled},
		}},
	}
}

func entryEmbed(g *models.Giveaway, entrants int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("🎉 Giveaway #%d: %s", g.ID, g.Prize),
		Description: fmt.Sprintf(
			"Hosted by: %s\nWinners: **%d**\nEnds %s\n\nClick **Join** below to enter.\n**Current Entries:** %s",
			platform.Mention(g.HostID), g.WinnersCount, platform.RelativeTime(g.EndsAt), humanize.Comma(int64(entrants)),
		),
		Color: platform.ColorGreen,
	}
}

func resultTitle(r *models.DrawResult) string {
	switch {
	case r.Reroll:
		return fmt.Sprintf("🎉 Giveaway #%d Ended (Updated)", r.Giveaway.ID)
	case r.Reason == models.CloseReasonManual:
		return fmt.Sprintf("🎉 Giveaway #%d Ended Early", r.Giveaway.ID)
	}
	return fmt.Sprintf("🎉 Giveaway #%d Ended", r.Giveaway.ID)
}

// resultEmbed replaces the entry embed once a giveaway is drawn. It lists
// every winner recorded so far, so rerolls extend it.
func resultEmbed(r *models.DrawResult, footer string) *discordgo.MessageEmbed {
	desc := fmt.Sprintf("**Prize:** %s\n", r.Giveaway.Prize)
	if len(r.AllWinners) == 0 {
		desc += "No valid entries."
	} else {
		desc += fmt.Sprintf("**Winners:** %s\n**Total Entries:** %s",
			platform.Mentions(r.AllWinners), humanize.Comma(int64(r.EntrantCount)))
	}
	return &discordgo.MessageEmbed{
		Title:       resultTitle(r),
		Description: desc,
		Color:       platform.ColorBlurple,
		Footer:      &discordgo.MessageEmbedFooter{Text: footer},
	}
}

func rerollEmbed(r *models.DrawResult) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🎲 Giveaway #%d Reroll", r.Giveaway.ID),
		Description: fmt.Sprintf("**Prize:** %s\nNew winner(s): %s", r.Giveaway.Prize, platform.Mentions(r.Winners)),
		Color:       platform.ColorOrange,
	}
}

func manualEmbed(g *models.Giveaway, userID string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🏆 Manual Giveaway Recorded",
		Description: fmt.Sprintf("Giveaway #%d: %s\nWinner: %s", g.ID, g.Prize, platform.Mention(userID)),
		Color:       platform.ColorGold,
	}
}

var helpEntries = []struct{ name, value string }{
	{"/gw start", "Start a giveaway with a join button. Usage: /gw start duration:<10m|2h|1d> winners:<count> prize:<text>"},
	{"/gw end", "End a running giveaway early and pick winners."},
	{"/gw reroll", "Draw additional winners for a finished giveaway. Previous winners are excluded."},
	{"/gw wins", "Show how many giveaways (and which) a user has won."},
	{"/gw leaderboard", "Show the top giveaway winners in the server."},
	{"/gw list", "List all giveaways (active and past)."},
	{"/gw manual", "Record a win for a giveaway that was not hosted by the bot."},
	{"/gw adjustwins", "Add or remove a win for a user for a specific giveaway."},
	{"/gw delete", "Delete a giveaway. Wins already recorded are kept."},
	{"/gw vouches", "Show how many vouches a user has and for which giveaways."},
	{"/gw vouch", "Record a vouch for a specific giveaway you have won."},
	{"/gw addvouch", "Mod-only: record a vouch for a user for a specific ended giveaway."},
	{"/gw removevouch", "Mod-only: remove a vouch for a user and block it from being re-added."},
	{"/gw config set", "Set the vouch channel for this server."},
	{"/gw config show", "Show the configured vouch channel."},
	{"/gw help", "Show this help message."},
}

func helpEmbed() *discordgo.MessageEmbed {
	fields := make([]*discordgo.MessageEmbedField, 0, len(helpEntries))
	for _, e := range helpEntries {
		fields = append(fields, &discordgo.MessageEmbedField{Name: e.name, Value: e.value})
	}
	return &discordgo.MessageEmbed{
		Title:       "📚 Giveaway Bot Commands",
		Description: "Here's a list of all available `/gw` commands:",
		Color:       platform.ColorBlue,
		Fields:      fields,
	}
}
