package discord

import (
	"context"
	"strconv"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

// Context carries one interaction through a handler.
type Context struct {
	ctx     context.Context
	session Session

	Interaction *discordgo.Interaction
	// Options of the invoked leaf subcommand.
	Options Options
	// Args are the custom id segments after the matched component prefix.
	Args   []string
	Logger zerolog.Logger
}

// NewContext builds a Context outside the router, mainly for tests.
func NewContext(ctx context.Context, s Session, i *discordgo.Interaction, opts Options, args []string) *Context {
	return &Context{ctx: ctx, session: s, Interaction: i, Options: opts, Args: args, Logger: zerolog.Nop()}
}

func (c *Context) Context() context.Context {
	return c.ctx
}

func (c *Context) GuildID() string {
	return c.Interaction.GuildID
}

func (c *Context) ChannelID() string {
	return c.Interaction.ChannelID
}

// UserID is the invoking user, in a guild or in DMs.
func (c *Context) UserID() string {
	switch {
	case c.Interaction.Member != nil && c.Interaction.Member.User != nil:
		return c.Interaction.Member.User.ID
	case c.Interaction.User != nil:
		return c.Interaction.User.ID
	}
	return ""
}

// HasPermission checks the member's computed permissions. Administrators
// pass every check.
func (c *Context) HasPermission(perm int64) bool {
	if c.Interaction.Member == nil {
		return false
	}
	p := c.Interaction.Member.Permissions
	return p&discordgo.PermissionAdministrator != 0 || p&perm == perm
}

// ArgInt parses Args[n].
func (c *Context) ArgInt(n int) (int64, bool) {
	if n >= len(c.Args) {
		return 0, false
	}
	v, err := strconv.ParseInt(c.Args[n], 10, 64)
	return v, err == nil
}

func (c *Context) respond(resp *discordgo.InteractionResponse) error {
	return c.session.InteractionRespond(c.Interaction, resp, discordgo.WithContext(c.ctx))
}

func flags(ephemeral bool) discordgo.MessageFlags {
	if ephemeral {
		return discordgo.MessageFlagsEphemeral
	}
	return 0
}

// Respond answers with a plain message.
func (c *Context) Respond(content string, ephemeral bool) error {
	return c.respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   flags(ephemeral),
			// mentions in replies never ping
			AllowedMentions: &discordgo.MessageAllowedMentions{},
		},
	})
}

// RespondEmbed answers with an embed and optional components.
func (c *Context) RespondEmbed(embed *discordgo.MessageEmbed, components []discordgo.MessageComponent, ephemeral bool) error {
	return c.respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:          []*discordgo.MessageEmbed{embed},
			Components:      components,
			Flags:           flags(ephemeral),
			AllowedMentions: &discordgo.MessageAllowedMentions{},
		},
	})
}

// Update edits the message the component belongs to.
func (c *Context) Update(embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) error {
	return c.respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
		},
	})
}

// DeleteMessage removes the message the component belongs to.
func (c *Context) DeleteMessage() error {
	if c.Interaction.Message == nil {
		return nil
	}
	if err := c.respond(&discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredMessageUpdate}); err != nil {
		return err
	}
	return c.session.ChannelMessageDelete(c.Interaction.ChannelID, c.Interaction.Message.ID, discordgo.WithContext(c.ctx))
}
