package discord

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"giveaway-tracker-bot/internal/features/giveaway/models"
	vouchservice "giveaway-tracker-bot/internal/features/vouch/service"
	platform "giveaway-tracker-bot/internal/platform/discord"
)

// Replier posts short-lived replies in the vouch channel.
type Replier interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
}

// MessageHandler turns keyword messages in the vouch channel into vouches.
type MessageHandler struct {
	service vouchservice.VouchService
	ttl     time.Duration
	timeout time.Duration
	logger  zerolog.Logger
}

// NewMessageHandler deletes replies after ttl; zero keeps them.
func NewMessageHandler(service vouchservice.VouchService, ttl time.Duration, logger zerolog.Logger) *MessageHandler {
	return &MessageHandler{
		service: service,
		ttl:     ttl,
		timeout: 10 * time.Second,
		logger:  logger,
	}
}

// Handle is the discordgo MessageCreate handler.
func (h *MessageHandler) Handle(s *discordgo.Session, m *discordgo.MessageCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	h.HandleMessage(ctx, s, m.Message)
}

func (h *MessageHandler) HandleMessage(ctx context.Context, r Replier, m *discordgo.Message) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}

	log := h.logger.With().
		Str("guild_id", m.GuildID).
		Str("user_id", m.Author.ID).
		Str("message_id", m.ID).
		Logger()

	outcome, err := h.service.HandleKeywordMessage(ctx, vouchservice.KeywordMessage{
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		UserID:    m.Author.ID,
		Content:   m.Content,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to handle vouch message")
		return
	}
	if outcome.Kind == vouchservice.OutcomeIgnored {
		return
	}
	log.Debug().Str("outcome", string(outcome.Kind)).Msg("Vouch keyword handled")

	content := outcomeMessage(m.Author.ID, outcome)
	ttl := h.ttl
	if outcome.Kind == vouchservice.OutcomeAmbiguous {
		// longer so the list can be read
		ttl *= 2
	}
	h.reply(ctx, r, m.ChannelID, m.Author.ID, content, ttl, log)
}

func (h *MessageHandler) reply(ctx context.Context, r Replier, channelID, userID, content string, ttl time.Duration, log zerolog.Logger) {
	msg, err := r.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:         content,
		AllowedMentions: &discordgo.MessageAllowedMentions{Users: []string{userID}},
	}, discordgo.WithContext(ctx))
	if err != nil {
		log.Warn().Err(err).Msg("Failed to reply to vouch message")
		return
	}
	if ttl <= 0 {
		return
	}
	time.AfterFunc(ttl, func() {
		if err := r.ChannelMessageDelete(channelID, msg.ID); err != nil {
			log.Debug().Err(err).Str("reply_id", msg.ID).Msg("Failed to delete vouch reply")
		}
	})
}

func winList(wins []models.WinRecord) string {
	lines := make([]string, len(wins))
	for n, w := range wins {
		lines[n] = fmt.Sprintf("#%d: %s", w.GiveawayID, w.Prize)
	}
	return strings.Join(lines, "\n")
}

func giveawayIDs(wins []models.WinRecord) string {
	ids := make([]string, len(wins))
	for n, w := range wins {
		ids[n] = fmt.Sprintf("#%d", w.GiveawayID)
	}
	return strings.Join(ids, ", ")
}

func outcomeMessage(userID string, o *vouchservice.KeywordOutcome) string {
	mention := platform.Mention(userID)
	switch o.Kind {
	case vouchservice.OutcomeNoWins:
		return fmt.Sprintf("❌ %s, you have not won any giveaways, so there is nothing to vouch for.", mention)
	case vouchservice.OutcomeAllVouched:
		return fmt.Sprintf("ℹ️ %s, you have already vouched for all your giveaways.", mention)
	case vouchservice.OutcomeRecorded:
		w := o.Wins[0]
		return fmt.Sprintf("✅ Vouch recorded for %s (Giveaway #%d: %s)", mention, w.GiveawayID, w.Prize)
	case vouchservice.OutcomeBlocked:
		return fmt.Sprintf("❌ %s, a moderator has blocked vouches for Giveaway %s. Please contact staff.", mention, giveawayIDs(o.Wins))
	case vouchservice.OutcomeAmbiguous:
		return fmt.Sprintf("🔍 %s, you have won multiple giveaways:\n%s\nPlease use `/gw vouch giveaway_id:<id>` to specify which one you're vouching for.",
			mention, winList(o.Wins))
	}
	return ""
}
