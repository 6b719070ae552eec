package discord

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"

	"giveaway-tracker-bot/internal/features/giveaway/models"
	platform "giveaway-tracker-bot/internal/platform/discord"
)

const (
	leaderboardPrefix = "gw:lb"
	closeArg          = "close"

	// maxDescription stays below Discord's 4096 character embed limit.
	maxDescription = 4000
)

func prizeText(prize string) string {
	if prize == "" {
		return "*(deleted giveaway)*"
	}
	return prize
}

func recordLines(records []models.WinRecord) []string {
	lines := make([]string, len(records))
	for n, r := range records {
		lines[n] = fmt.Sprintf("#%d: %s", r.GiveawayID, prizeText(r.Prize))
	}
	return lines
}

// joinLines joins lines until the embed limit and summarizes the rest.
func joinLines(lines []string) string {
	var b strings.Builder
	for n, line := range lines {
		if b.Len()+len(line)+1 > maxDescription-32 {
			fmt.Fprintf(&b, "…and %d more", len(lines)-n)
			break
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func winsEmbed(userID string, wins []models.WinRecord) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "🏆 Giveaways Won",
		Description: fmt.Sprintf("%s\nTotal Wins: **%d**\n\n%s",
			platform.Mention(userID), len(wins), joinLines(recordLines(wins))),
		Color: platform.ColorGold,
	}
}

func vouchesEmbed(userID string, vouches []models.WinRecord) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "📝 Vouches",
		Description: fmt.Sprintf("%s\nTotal vouches: **%d**\n\n%s",
			platform.Mention(userID), len(vouches), joinLines(recordLines(vouches))),
		Color: platform.ColorGreen,
	}
}

func summaryLine(s models.GiveawaySummary) string {
	if s.IsOpen() {
		return fmt.Sprintf("🟢 **#%d**: %s, Winners: %d, Entries: %s, ends %s",
			s.ID, s.Prize, s.WinnersCount, humanize.Comma(int64(s.Entrants)), platform.RelativeTime(s.EndsAt))
	}
	winners := "None"
	if len(s.Winners) > 0 {
		winners = platform.Mentions(s.Winners)
	}
	return fmt.Sprintf("🔴 **#%d**: %s, Winners: %d, Ended, 🏆 %s", s.ID, s.Prize, s.WinnersCount, winners)
}

func listEmbed(giveaways []models.GiveawaySummary) *discordgo.MessageEmbed {
	lines := make([]string, len(giveaways))
	for n, g := range giveaways {
		lines[n] = summaryLine(g)
	}
	return &discordgo.MessageEmbed{
		Title:       "📜 Giveaways List",
		Description: joinLines(lines),
		Color:       platform.ColorBlue,
	}
}

func leaderboardEmbed(page *models.LeaderboardPage) *discordgo.MessageEmbed {
	lines := make([]string, len(page.Entries))
	for n, e := range page.Entries {
		lines[n] = fmt.Sprintf("**%d.** %s — 🏆 **%d** wins — 📝 **%d** vouches",
			e.Rank, platform.Mention(e.UserID), e.Wins, e.Vouches)
	}
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🏆 Giveaway Winners Leaderboard: Page %d/%d", page.Page, page.TotalPages),
		Description: strings.Join(lines, "\n"),
		Color:       platform.ColorGold,
	}
}

// leaderboardButtons pages the leaderboard. Only authorID may use them.
func leaderboardButtons(page *models.LeaderboardPage, authorID string) []discordgo.MessageComponent {
	if page.TotalPages <= 1 {
		return nil
	}
	pageID := func(p int) string {
		return platform.CustomID(leaderboardPrefix, strconv.Itoa(p), authorID)
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "⬅️", Style: discordgo.SecondaryButton, CustomID: pageID(page.Page - 1), Disabled: page.Page <= 1},
			discordgo.Button{Label: "➡️", Style: discordgo.SecondaryButton, CustomID: pageID(page.Page + 1), Disabled: page.Page >= page.TotalPages},
			discordgo.Button{Label: "Close", Style: discordgo.DangerButton, CustomID: platform.CustomID(leaderboardPrefix, closeArg, authorID)},
		}},
	}
}
