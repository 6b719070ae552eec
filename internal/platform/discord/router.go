package discord

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	apperrors "giveaway-tracker-bot/internal/common/errors"
)

const (
	// DefaultTimeout bounds one interaction. Discord expects the first
	// response within three seconds.
	DefaultTimeout = 3 * time.Second

	customIDSeparator = ":"
)

// Session is the part of the Discord REST API used while handling
// interactions. *discordgo.Session implements it.
type Session interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
}

// HandlerFunc handles one routed interaction.
type HandlerFunc func(c *Context) error

type route struct {
	handler   HandlerFunc
	moderator bool
}

// Router dispatches slash commands by their full path ("gw start",
// "gw config set") and message components by custom id prefix ("gw:join").
type Router struct {
	commands   map[string]route
	components map[string]route
	logger     zerolog.Logger
	timeout    time.Duration
}

func NewRouter(logger zerolog.Logger) *Router {
	return &Router{
		commands:   make(map[string]route),
		components: make(map[string]route),
		logger:     logger,
		timeout:    DefaultTimeout,
	}
}

// Command registers a handler for a command path.
func (r *Router) Command(path string, h HandlerFunc) {
	r.commands[path] = route{handler: h}
}

// ModeratorCommand registers a handler that requires Manage Server.
func (r *Router) ModeratorCommand(path string, h HandlerFunc) {
	r.commands[path] = route{handler: h, moderator: true}
}

// Component registers a handler for custom ids starting with prefix. The
// remaining id segments are passed as Context.Args.
func (r *Router) Component(prefix string, h HandlerFunc) {
	r.components[prefix] = route{handler: h}
}

// CustomID joins custom id segments.
func CustomID(parts ...string) string {
	return strings.Join(parts, customIDSeparator)
}

// Handle is the discordgo InteractionCreate handler.
func (r *Router) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	r.Dispatch(context.Background(), s, i.Interaction)
}

// Dispatch routes one interaction.
func (r *Router) Dispatch(ctx context.Context, s Session, i *discordgo.Interaction) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	c := &Context{
		ctx:         ctx,
		session:     s,
		Interaction: i,
	}
	log := r.logger.With().
		Str("interaction_id", i.ID).
		Str("request_id", uuid.NewString()).
		Str("guild_id", i.GuildID).
		Str("user_id", c.UserID()).
		Logger()
	c.Logger = log

	var (
		rt   route
		ok   bool
		name string
	)
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		var opts []*discordgo.ApplicationCommandInteractionDataOption
		name, opts = CommandPath(i.ApplicationCommandData())
		c.Options = NewOptions(opts)
		rt, ok = r.commands[name]
	case discordgo.InteractionMessageComponent:
		name, c.Args, rt, ok = r.matchComponent(i.MessageComponentData().CustomID)
	default:
		return
	}
	if !ok {
		log.Warn().Str("route", name).Msg("No handler for interaction")
		return
	}
	if i.GuildID == "" {
		_ = c.Respond("This bot only works inside a server.", true)
		return
	}
	if rt.moderator && !c.HasPermission(discordgo.PermissionManageServer) {
		_ = c.Respond("You need the **Manage Server** permission to use this command.", true)
		return
	}

	start := time.Now()
	err := rt.handler(c)
	if err != nil {
		r.handleError(c, name, err)
		return
	}
	log.Debug().Str("route", name).Dur("took", time.Since(start)).Msg("Interaction handled")
}

func (r *Router) matchComponent(customID string) (string, []string, route, bool) {
	parts := strings.Split(customID, customIDSeparator)
	// longest prefix first
	for n := len(parts); n > 0; n-- {
		prefix := strings.Join(parts[:n], customIDSeparator)
		if rt, ok := r.components[prefix]; ok {
			return prefix, parts[n:], rt, true
		}
	}
	return customID, nil, route{}, false
}

// handleError answers the user. Business errors are shown as they are;
// anything else is logged and replaced with a generic message.
func (r *Router) handleError(c *Context, name string, err error) {
	message := "Something went wrong, please try again in a moment."
	appErr, ok := apperrors.AsAppError(err)
	switch {
	case ok && !appErr.IsInternal():
		c.Logger.Debug().Err(err).Str("route", name).Msg("Interaction rejected")
		message = appErr.Message
	default:
		c.Logger.Error().Err(err).Str("route", name).Msg("Interaction failed")
	}
	if respondErr := c.Respond("❌ "+message, true); respondErr != nil {
		c.Logger.Warn().Err(respondErr).Msg("Failed to send error response")
	}
}

// CommandPath flattens nested subcommands into "gw config set" and returns
// the options of the leaf.
func CommandPath(data discordgo.ApplicationCommandInteractionData) (string, []*discordgo.ApplicationCommandInteractionDataOption) {
	path := []string{data.Name}
	opts := data.Options
	for len(opts) == 1 &&
		(opts[0].Type == discordgo.ApplicationCommandOptionSubCommand ||
			opts[0].Type == discordgo.ApplicationCommandOptionSubCommandGroup) {
		path = append(path, opts[0].Name)
		opts = opts[0].Options
	}
	return strings.Join(path, " "), opts
}
