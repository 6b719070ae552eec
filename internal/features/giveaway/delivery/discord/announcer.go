package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	apperrors "giveaway-tracker-bot/internal/common/errors"
	"giveaway-tracker-bot/internal/features/giveaway/models"
	"giveaway-tracker-bot/internal/features/giveaway/service"
	platform "giveaway-tracker-bot/internal/platform/discord"
)

// Messenger sends and edits channel messages. *discordgo.Session
// implements it.
type Messenger interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Announcer posts giveaway messages and keeps them in sync with the
// giveaway state.
type Announcer struct {
	messenger Messenger
	logger    zerolog.Logger
}

var _ service.Announcer = (*Announcer)(nil)

func NewAnnouncer(messenger Messenger, logger zerolog.Logger) *Announcer {
	return &Announcer{messenger: messenger, logger: logger}
}

// hasChannel is false for placeholder giveaways created by manual wins.
func hasChannel(g *models.Giveaway) bool {
	return g.ChannelID != ""
}

func (a *Announcer) send(ctx context.Context, channelID string, data *discordgo.MessageSend) (*discordgo.Message, error) {
	msg, err := a.messenger.ChannelMessageSendComplex(channelID, data, discordgo.WithContext(ctx))
	if err != nil {
		return nil, apperrors.NewDiscordAPIError("send message", err).WithDetail("channel_id", channelID)
	}
	return msg, nil
}

func (a *Announcer) edit(ctx context.Context, g *models.Giveaway, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) error {
	if !hasChannel(g) {
		return nil
	}
	if g.MessageID == "" {
		a.logger.Debug().Int64("giveaway_id", g.ID).Msg("Giveaway has no entry message to update")
		return nil
	}
	edit := &discordgo.MessageEdit{
		ID:         g.MessageID,
		Channel:    g.ChannelID,
		Embeds:     &[]*discordgo.MessageEmbed{embed},
		Components: &components,
	}
	if _, err := a.messenger.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx)); err != nil {
		return apperrors.NewDiscordAPIError("edit message", err).WithDetail("message_id", g.MessageID)
	}
	return nil
}

func (a *Announcer) GiveawayStarted(ctx context.Context, g *models.Giveaway) (string, error) {
	if !hasChannel(g) {
		return "", nil
	}
	msg, err := a.send(ctx, g.ChannelID, &discordgo.MessageSend{
		Embeds:          []*discordgo.MessageEmbed{entryEmbed(g, 0)},
		Components:      entryButtons(g.ID, false),
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	})
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

func (a *Announcer) EntriesChanged(ctx context.Context, g *models.Giveaway, entrants int) error {
	return a.edit(ctx, g, entryEmbed(g, entrants), entryButtons(g.ID, false))
}

// winnerPing notifies the drawn users. Embeds never ping, so mentions go in
// the content.
func winnerPing(r *models.DrawResult) (string, *discordgo.MessageAllowedMentions) {
	if r.NoEntrants() {
		return "", &discordgo.MessageAllowedMentions{}
	}
	content := fmt.Sprintf("🎉 Congratulations %s! You won **%s**!", platform.Mentions(r.Winners), r.Giveaway.Prize)
	return content, &discordgo.MessageAllowedMentions{Users: r.Winners}
}

func (a *Announcer) GiveawayClosed(ctx context.Context, r *models.DrawResult) error {
	g := r.Giveaway
	if !hasChannel(g) {
		return nil
	}
	content, mentions := winnerPing(r)
	_, sendErr := a.send(ctx, g.ChannelID, &discordgo.MessageSend{
		Content:         content,
		Embeds:          []*discordgo.MessageEmbed{resultEmbed(r, "Use /gw reroll to draw again from the same entrants.")},
		AllowedMentions: mentions,
	})
	// the entry message is updated even when the announcement failed
	editErr := a.edit(ctx, g, resultEmbed(r, "Giveaway has ended."), entryButtons(g.ID, true))
	if sendErr != nil {
		return sendErr
	}
	return editErr
}

func (a *Announcer) GiveawayRerolled(ctx context.Context, r *models.DrawResult) error {
	g := r.Giveaway
	if !hasChannel(g) {
		return nil
	}
	content, mentions := winnerPing(r)
	if _, err := a.send(ctx, g.ChannelID, &discordgo.MessageSend{
		Content:         content,
		Embeds:          []*discordgo.MessageEmbed{rerollEmbed(r)},
		AllowedMentions: mentions,
	}); err != nil {
		return err
	}
	return a.edit(ctx, g, resultEmbed(r, "Giveaway has ended."), []discordgo.MessageComponent{})
}
