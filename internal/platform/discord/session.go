package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"giveaway-tracker-bot/internal/common/config"
	"giveaway-tracker-bot/internal/common/logger"
)

// Intents needed by the bot: guild events for interactions and message
// content for the vouch keyword.
const Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent

// NewSession creates a gateway session without connecting it, so handlers
// can be attached before Open.
func NewSession(cfg *config.Config) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	s.Identify.Intents = Intents
	s.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		logger.Info().
			Str("user", r.User.Username).
			Str("user_id", r.User.ID).
			Int("guilds", len(r.Guilds)).
			Msg("Discord session ready")
	})
	return s, nil
}

// RegisterCommands replaces the application's commands. An empty guildID
// registers them globally.
func RegisterCommands(s *discordgo.Session, guildID string, commands []*discordgo.ApplicationCommand) error {
	if s.State == nil || s.State.User == nil {
		return fmt.Errorf("session is not open")
	}
	created, err := s.ApplicationCommandBulkOverwrite(s.State.User.ID, guildID, commands)
	if err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}
	logger.Info().Str("guild_id", guildID).Int("commands", len(created)).Msg("Application commands registered")
	return nil
}

// GroupCommand builds a top-level slash command from subcommands and
// subcommand groups.
func GroupCommand(name, description string, options ...*discordgo.ApplicationCommandOption) *discordgo.ApplicationCommand {
	dm := false
	return &discordgo.ApplicationCommand{
		Name:         name,
		Description:  description,
		DMPermission: &dm,
		Options:      options,
	}
}

// StatePermissions computes the bot's own channel permissions from the
// gateway state cache.
type StatePermissions struct {
	Session *discordgo.Session
}

func (p StatePermissions) BotChannelPermissions(channelID string) (int64, error) {
	state := p.Session.State
	if state == nil || state.User == nil {
		return 0, fmt.Errorf("session is not open")
	}
	return state.UserChannelPermissions(state.User.ID, channelID)
}
