package discord

import (
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"

	apperrors "giveaway-tracker-bot/internal/common/errors"
	statsservice "giveaway-tracker-bot/internal/features/stats/service"
	platform "giveaway-tracker-bot/internal/platform/discord"
)

type StatsHandler struct {
	service statsservice.StatsService
}

func NewStatsHandler(service statsservice.StatsService) *StatsHandler {
	return &StatsHandler{service: service}
}

func (h *StatsHandler) RegisterRoutes(r *platform.Router) {
	r.Command("gw wins", h.wins)
	r.Command("gw vouches", h.vouches)
	r.Command("gw list", h.list)
	r.Command("gw leaderboard", h.leaderboard)

	r.Component(leaderboardPrefix, h.page)
}

func userOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        "user",
		Description: description,
	}
}

func (h *StatsHandler) Subcommands() []*discordgo.ApplicationCommandOption {
	return []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "wins",
			Description: "Show how many giveaways a user has won",
			Options:     []*discordgo.ApplicationCommandOption{userOption("Member to look up (default: you)")},
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "vouches",
			Description: "Show how many vouches a user has and for which giveaways",
			Options:     []*discordgo.ApplicationCommandOption{userOption("Member to look up (default: you)")},
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "list",
			Description: "List all giveaways (active and past)",
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "leaderboard",
			Description: "Top giveaway winners in this server (with vouches)",
		},
	}
}

// targetUser is the user option or the invoking user.
func targetUser(c *platform.Context) string {
	if id := c.Options.UserID("user"); id != "" {
		return id
	}
	return c.UserID()
}

func (h *StatsHandler) wins(c *platform.Context) error {
	userID := targetUser(c)
	wins, err := h.service.UserWins(c.Context(), c.GuildID(), userID)
	if err != nil {
		return err
	}
	if len(wins) == 0 {
		return c.Respond(fmt.Sprintf("%s hasn't won any giveaways in this server.", platform.Mention(userID)), false)
	}
	return c.RespondEmbed(winsEmbed(userID, wins), nil, false)
}

func (h *StatsHandler) vouches(c *platform.Context) error {
	userID := targetUser(c)
	vouches, err := h.service.UserVouches(c.Context(), c.GuildID(), userID)
	if err != nil {
		return err
	}
	if len(vouches) == 0 {
		return c.Respond(fmt.Sprintf("%s has no recorded vouches.", platform.Mention(userID)), true)
	}
	return c.RespondEmbed(vouchesEmbed(userID, vouches), nil, false)
}

func (h *StatsHandler) list(c *platform.Context) error {
	giveaways, err := h.service.Giveaways(c.Context(), c.GuildID())
	if err != nil {
		return err
	}
	if len(giveaways) == 0 {
		return c.Respond("No giveaways found.", true)
	}
	return c.RespondEmbed(listEmbed(giveaways), nil, false)
}

func (h *StatsHandler) leaderboard(c *platform.Context) error {
	page, err := h.service.Leaderboard(c.Context(), c.GuildID(), 1)
	if err != nil {
		return err
	}
	if page.Total == 0 {
		return c.Respond("No wins recorded yet.", false)
	}
	return c.RespondEmbed(leaderboardEmbed(page), leaderboardButtons(page, c.UserID()), false)
}

// page handles gw:lb:<page|close>:<author>.
func (h *StatsHandler) page(c *platform.Context) error {
	if len(c.Args) != 2 {
		return apperrors.NewValidationError("custom_id", "malformed leaderboard button")
	}
	if c.Args[1] != c.UserID() {
		return c.Respond("❌ This menu isn't for you!", true)
	}
	if c.Args[0] == closeArg {
		return c.DeleteMessage()
	}

	n, err := strconv.Atoi(c.Args[0])
	if err != nil {
		return apperrors.NewValidationError("custom_id", "malformed leaderboard page")
	}
	page, err := h.service.Leaderboard(c.Context(), c.GuildID(), n)
	if err != nil {
		return err
	}
	return c.Update(leaderboardEmbed(page), leaderboardButtons(page, c.Args[1]))
}
