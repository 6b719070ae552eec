package discord

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	apperrors "giveaway-tracker-bot/internal/common/errors"
	"giveaway-tracker-bot/internal/features/giveaway/models"
	giveawayservice "giveaway-tracker-bot/internal/features/giveaway/service"
	platform "giveaway-tracker-bot/internal/platform/discord"
)

type GiveawayHandler struct {
	service giveawayservice.GiveawayService
}

func NewGiveawayHandler(service giveawayservice.GiveawayService) *GiveawayHandler {
	return &GiveawayHandler{service: service}
}

func (h *GiveawayHandler) RegisterRoutes(r *platform.Router) {
	r.ModeratorCommand("gw start", h.start)
	r.ModeratorCommand("gw end", h.end)
	r.ModeratorCommand("gw reroll", h.reroll)
	r.ModeratorCommand("gw delete", h.delete)
	r.ModeratorCommand("gw manual", h.manual)
	r.ModeratorCommand("gw adjustwins", h.adjustWins)
	r.Command("gw help", h.help)

	r.Component(joinPrefix, h.join)
	r.Component(leavePrefix, h.leave)
}

var minGiveawayID = 1.0

func giveawayIDOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        "giveaway_id",
		Description: "ID of the giveaway (shown in the title)",
		Required:    true,
		MinValue:    &minGiveawayID,
	}
}

// Subcommands returns the /gw subcommands served by this handler.
func (h *GiveawayHandler) Subcommands() []*discordgo.ApplicationCommandOption {
	minWinners := float64(models.MinWinners)
	return []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "start",
			Description: "Start a giveaway with a join button",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "duration", Description: "Duration like 10m, 2h, 1d", Required: true},
				{Type: discordgo.ApplicationCommandOptionInteger, Name: "winners", Description: "Number of winners", Required: true, MinValue: &minWinners, MaxValue: models.MaxWinners},
				{Type: discordgo.ApplicationCommandOptionString, Name: "prize", Description: "Prize title", Required: true, MaxLength: 200},
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "end",
			Description: "End a running giveaway now and pick winners",
			Options:     []*discordgo.ApplicationCommandOption{giveawayIDOption()},
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "reroll",
			Description: "Draw additional winners for a finished giveaway (excludes all old winners)",
			Options: []*discordgo.ApplicationCommandOption{
				giveawayIDOption(),
				{Type: discordgo.ApplicationCommandOptionInteger, Name: "count", Description: "How many winners to draw (default: the giveaway's winner count)", MinValue: &minWinners, MaxValue: models.MaxWinners},
				{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "User to add to the reroll pool, even without an entry"},
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "delete",
			Description: "Delete a giveaway from the database",
			Options:     []*discordgo.ApplicationCommandOption{giveawayIDOption()},
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "manual",
			Description: "Record a giveaway won outside the bot",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "prize", Description: "Name of the giveaway/prize", Required: true, MaxLength: 200},
				{Type: discordgo.ApplicationCommandOptionUser, Name: "winner", Description: "The member who won", Required: true},
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "adjustwins",
			Description: "Add or remove a win for a user for a specific giveaway",
			Options: []*discordgo.ApplicationCommandOption{
				giveawayIDOption(),
				{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "The user whose win will be changed", Required: true},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "action",
					Description: "Add or remove the win",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "Add win", Value: string(models.WinAdjustmentAdd)},
						{Name: "Remove win", Value: string(models.WinAdjustmentRemove)},
					},
				},
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "help",
			Description: "Show all giveaway commands and their descriptions",
		},
	}
}

// owned loads the giveaway named by the giveaway_id option, scoped to the
// invoking guild.
func (h *GiveawayHandler) owned(c *platform.Context) (*models.Giveaway, error) {
	return h.service.Get(c.Context(), c.GuildID(), c.Options.Int("giveaway_id"))
}

func (h *GiveawayHandler) start(c *platform.Context) error {
	g, err := h.service.Start(c.Context(), models.GiveawayCreate{
		GuildID:      c.GuildID(),
		ChannelID:    c.ChannelID(),
		HostID:       c.UserID(),
		Duration:     c.Options.String("duration"),
		WinnersCount: int(c.Options.Int("winners")),
		Prize:        c.Options.String("prize"),
	})
	if err != nil {
		return err
	}
	if g.MessageID == "" {
		return c.Respond(fmt.Sprintf("⚠️ Giveaway #%d started, but I couldn't post the entry message here. Check my channel permissions.", g.ID), true)
	}
	return c.Respond(fmt.Sprintf("✅ Giveaway #%d started. It ends %s.", g.ID, platform.RelativeTime(g.EndsAt)), true)
}

func (h *GiveawayHandler) end(c *platform.Context) error {
	g, err := h.owned(c)
	if err != nil {
		return err
	}
	if _, err := h.service.Close(c.Context(), g.ID, models.CloseReasonManual); err != nil {
		return err
	}
	return c.Respond("Giveaway ended and winners announced.", true)
}

func (h *GiveawayHandler) reroll(c *platform.Context) error {
	g, err := h.owned(c)
	if err != nil {
		return err
	}
	result, err := h.service.Reroll(c.Context(), g.ID, models.RerollRequest{
		Count:        int(c.Options.Int("count")),
		TargetUserID: c.Options.UserID("user"),
	})
	if err != nil {
		return err
	}
	return c.Respond(fmt.Sprintf("🎲 Reroll complete. New winner(s): %s", platform.Mentions(result.Winners)), true)
}

func (h *GiveawayHandler) delete(c *platform.Context) error {
	g, err := h.owned(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Context(), g.ID); err != nil {
		return err
	}
	return c.Respond(fmt.Sprintf("✅ Giveaway #%d deleted successfully.", g.ID), true)
}

func (h *GiveawayHandler) manual(c *platform.Context) error {
	winner := c.Options.UserID("winner")
	g, err := h.service.RecordManualWin(c.Context(), c.GuildID(), c.Options.String("prize"), winner)
	if err != nil {
		return err
	}
	return c.RespondEmbed(manualEmbed(g, winner), nil, false)
}

func (h *GiveawayHandler) adjustWins(c *platform.Context) error {
	g, err := h.owned(c)
	if err != nil {
		return err
	}
	userID := c.Options.UserID("user")
	action := models.WinAdjustment(c.Options.String("action"))
	if _, err := h.service.AdjustWins(c.Context(), g.ID, userID, action); err != nil {
		return err
	}
	verb := "Added"
	if action == models.WinAdjustmentRemove {
		verb = "Removed"
	}
	return c.Respond(fmt.Sprintf("✅ %s 1 win for %s in Giveaway #%d: %s.", verb, platform.Mention(userID), g.ID, g.Prize), true)
}

func (h *GiveawayHandler) help(c *platform.Context) error {
	return c.RespondEmbed(helpEmbed(), nil, true)
}

func buttonGiveawayID(c *platform.Context) (int64, error) {
	id, ok := c.ArgInt(0)
	if !ok {
		return 0, apperrors.NewValidationError("custom_id", "invalid giveaway id")
	}
	return id, nil
}

func (h *GiveawayHandler) join(c *platform.Context) error {
	id, err := buttonGiveawayID(c)
	if err != nil {
		return err
	}
	_, err = h.service.Join(c.Context(), id, c.UserID())
	switch {
	case errors.Is(err, giveawayservice.ErrAlreadyEntered):
		return c.Respond("You're already in ✅", true)
	case err != nil:
		return err
	}
	return c.Respond("You're in! ✅", true)
}

func (h *GiveawayHandler) leave(c *platform.Context) error {
	id, err := buttonGiveawayID(c)
	if err != nil {
		return err
	}
	_, err = h.service.Leave(c.Context(), id, c.UserID())
	switch {
	case errors.Is(err, giveawayservice.ErrNotEntered):
		return c.Respond("You are not in the giveaway.", true)
	case err != nil:
		return err
	}
	return c.Respond("You have left the giveaway.", true)
}
