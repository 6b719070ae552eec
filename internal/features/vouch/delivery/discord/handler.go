package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	apperrors "giveaway-tracker-bot/internal/common/errors"
	vouchservice "giveaway-tracker-bot/internal/features/vouch/service"
	platform "giveaway-tracker-bot/internal/platform/discord"
)

// requiredChannelPermissions lets the bot read vouch messages and reply.
const requiredChannelPermissions = discordgo.PermissionViewChannel | discordgo.PermissionSendMessages

// PermissionChecker reports the bot's permissions in a channel.
type PermissionChecker interface {
	BotChannelPermissions(channelID string) (int64, error)
}

type VouchHandler struct {
	service     vouchservice.VouchService
	permissions PermissionChecker
}

func NewVouchHandler(service vouchservice.VouchService, permissions PermissionChecker) *VouchHandler {
	return &VouchHandler{service: service, permissions: permissions}
}

func (h *VouchHandler) RegisterRoutes(r *platform.Router) {
	r.Command("gw vouch", h.vouch)
	r.ModeratorCommand("gw addvouch", h.addVouch)
	r.ModeratorCommand("gw removevouch", h.removeVouch)
	r.ModeratorCommand("gw config set", h.setChannel)
	r.Command("gw config show", h.showChannel)
}

var minGiveawayID = 1.0

func giveawayIDOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        "giveaway_id",
		Description: description,
		Required:    true,
		MinValue:    &minGiveawayID,
	}
}

func (h *VouchHandler) Subcommands() []*discordgo.ApplicationCommandOption {
	return []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "vouch",
			Description: "Record a vouch for a specific giveaway you have won",
			Options:     []*discordgo.ApplicationCommandOption{giveawayIDOption("ID of the giveaway you are vouching for")},
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "addvouch",
			Description: "Mod-only: record a vouch for a user for a specific ended giveaway",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "The member who is vouching", Required: true},
				giveawayIDOption("ID of the ended giveaway the user is vouching for"),
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "removevouch",
			Description: "Mod-only: remove a vouch for a user for a specific giveaway",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "The member whose vouch you want to remove", Required: true},
				giveawayIDOption("ID of the giveaway from which to remove the vouch"),
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommandGroup,
			Name:        "config",
			Description: "Configure giveaway settings",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "set",
					Description: "Set the vouch channel for this server",
					Options: []*discordgo.ApplicationCommandOption{{
						Type:         discordgo.ApplicationCommandOptionChannel,
						Name:         "channel",
						Description:  "Channel where users will post vouches",
						Required:     true,
						ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
					}},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "show",
					Description: "Show the configured vouch channel",
				},
			},
		},
	}
}

func (h *VouchHandler) vouch(c *platform.Context) error {
	v, err := h.service.Vouch(c.Context(), c.GuildID(), c.Options.Int("giveaway_id"), c.UserID())
	if err != nil {
		return err
	}
	return c.Respond(fmt.Sprintf("✅ Vouch recorded for Giveaway #%d.", v.GiveawayID), true)
}

func (h *VouchHandler) addVouch(c *platform.Context) error {
	v, err := h.service.AddVouch(c.Context(), c.GuildID(), c.Options.Int("giveaway_id"), c.Options.UserID("user"))
	if err != nil {
		return err
	}
	return c.Respond(fmt.Sprintf("✅ Vouch recorded: %s for Giveaway #%d.", platform.Mention(v.UserID), v.GiveawayID), true)
}

func (h *VouchHandler) removeVouch(c *platform.Context) error {
	userID := c.Options.UserID("user")
	giveawayID := c.Options.Int("giveaway_id")
	if err := h.service.RemoveVouch(c.Context(), c.GuildID(), giveawayID, userID); err != nil {
		return err
	}
	return c.Respond(fmt.Sprintf("✅ Removed and blocked vouch for %s in Giveaway #%d.", platform.Mention(userID), giveawayID), true)
}

func (h *VouchHandler) setChannel(c *platform.Context) error {
	channelID := c.Options.ChannelID("channel")
	perms, err := h.permissions.BotChannelPermissions(channelID)
	if err != nil {
		return apperrors.NewDiscordAPIError("channel permissions", err).WithDetail("channel_id", channelID)
	}
	if perms&discordgo.PermissionAdministrator == 0 && perms&requiredChannelPermissions != requiredChannelPermissions {
		return c.Respond("I don't have permission to read/send messages in that channel.", true)
	}
	if _, err := h.service.SetVouchChannel(c.Context(), c.GuildID(), channelID); err != nil {
		return err
	}
	return c.Respond(fmt.Sprintf("Vouch channel set to %s.", platform.ChannelMention(channelID)), true)
}

func (h *VouchHandler) showChannel(c *platform.Context) error {
	channelID, err := h.service.VouchChannel(c.Context(), c.GuildID())
	if err != nil {
		return err
	}
	if channelID == "" {
		return c.Respond("No vouch channel configured. Set one with `/gw config set`.", true)
	}
	return c.Respond(fmt.Sprintf("Current vouch channel: %s", platform.ChannelMention(channelID)), true)
}
