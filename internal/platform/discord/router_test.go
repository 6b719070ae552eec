package discord_test

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "giveaway-tracker-bot/internal/common/errors"
	"giveaway-tracker-bot/internal/platform/discord"
	"giveaway-tracker-bot/internal/platform/discord/discordtest"
)

func TestCommandPath(t *testing.T) {
	i := discordtest.Command("g1", nil, discordtest.Opts(discordtest.String("channel", "c1")), "gw", "config", "set")
	path, opts := discord.CommandPath(i.ApplicationCommandData())
	assert.Equal(t, "gw config set", path)
	require.Len(t, opts, 1)
	assert.Equal(t, "channel", opts[0].Name)

	i = discordtest.Command("g1", nil, nil, "gw", "help")
	path, opts = discord.CommandPath(i.ApplicationCommandData())
	assert.Equal(t, "gw help", path)
	assert.Empty(t, opts)
}

func TestDispatchCommand(t *testing.T) {
	r := discord.NewRouter(zerolog.Nop())
	var got *discord.Context
	r.Command("gw start", func(c *discord.Context) error {
		got = c
		return c.Respond("started", true)
	})

	s := &discordtest.Session{}
	i := discordtest.Command("g1", discordtest.Member("u1", 0), discordtest.Opts(
		discordtest.String("duration", "10m"),
		discordtest.Int("winners", 2),
		discordtest.User("host", "u9"),
	), "gw", "start")
	r.Dispatch(context.Background(), s, i)

	require.NotNil(t, got)
	assert.Equal(t, "g1", got.GuildID())
	assert.Equal(t, "u1", got.UserID())
	assert.Equal(t, "10m", got.Options.String("duration"))
	assert.Equal(t, int64(2), got.Options.Int("winners"))
	assert.Equal(t, int64(0), got.Options.Int("missing"))
	assert.Equal(t, "u9", got.Options.UserID("host"))

	require.Len(t, s.Responses, 1)
	assert.Equal(t, "started", s.LastContent())
	assert.Equal(t, discordgo.MessageFlagsEphemeral, s.Last().Data.Flags)
}

func TestModeratorCommand(t *testing.T) {
	r := discord.NewRouter(zerolog.Nop())
	called := false
	r.ModeratorCommand("gw end", func(c *discord.Context) error {
		called = true
		return c.Respond("ended", true)
	})

	s := &discordtest.Session{}
	r.Dispatch(context.Background(), s, discordtest.Command("g1", discordtest.Member("u1", discordgo.PermissionSendMessages), nil, "gw", "end"))
	assert.False(t, called)
	assert.Contains(t, s.LastContent(), "Manage Server")

	r.Dispatch(context.Background(), s, discordtest.Command("g1", discordtest.Member("u1", discordgo.PermissionManageServer), nil, "gw", "end"))
	assert.True(t, called)

	called = false
	r.Dispatch(context.Background(), s, discordtest.Command("g1", discordtest.Member("u1", discordgo.PermissionAdministrator), nil, "gw", "end"))
	assert.True(t, called)
}

func TestDispatchRejectsDirectMessages(t *testing.T) {
	r := discord.NewRouter(zerolog.Nop())
	called := false
	r.Command("gw help", func(c *discord.Context) error { called = true; return nil })

	s := &discordtest.Session{}
	i := discordtest.Command("", nil, nil, "gw", "help")
	i.User = &discordgo.User{ID: "u1"}
	r.Dispatch(context.Background(), s, i)

	assert.False(t, called)
	assert.Contains(t, s.LastContent(), "inside a server")
}

func TestDispatchComponent(t *testing.T) {
	r := discord.NewRouter(zerolog.Nop())
	var args []string
	r.Component("gw:join", func(c *discord.Context) error {
		args = c.Args
		id, ok := c.ArgInt(0)
		assert.True(t, ok)
		assert.Equal(t, int64(42), id)
		return nil
	})
	r.Component("gw:lb", func(c *discord.Context) error {
		args = c.Args
		return nil
	})

	s := &discordtest.Session{}
	r.Dispatch(context.Background(), s, discordtest.Component("g1", discordtest.Member("u1", 0), discord.CustomID("gw", "join", "42"), "m1"))
	assert.Equal(t, []string{"42"}, args)

	r.Dispatch(context.Background(), s, discordtest.Component("g1", discordtest.Member("u1", 0), "gw:lb:close:u1", "m1"))
	assert.Equal(t, []string{"close", "u1"}, args)
}

func TestHandlerErrors(t *testing.T) {
	r := discord.NewRouter(zerolog.Nop())
	r.Command("gw business", func(c *discord.Context) error {
		return apperrors.New(apperrors.ErrCodeGiveawayClosed, "this giveaway has ended")
	})
	r.Command("gw broken", func(c *discord.Context) error {
		return apperrors.NewDatabaseError("join", errors.New("connection reset"))
	})

	s := &discordtest.Session{}
	member := discordtest.Member("u1", 0)

	r.Dispatch(context.Background(), s, discordtest.Command("g1", member, nil, "gw", "business"))
	assert.Equal(t, "❌ this giveaway has ended", s.LastContent())

	r.Dispatch(context.Background(), s, discordtest.Command("g1", member, nil, "gw", "broken"))
	assert.Contains(t, s.LastContent(), "Something went wrong")
	assert.NotContains(t, s.LastContent(), "connection reset")
}

func TestDeleteMessage(t *testing.T) {
	s := &discordtest.Session{}
	i := discordtest.Component("g1", discordtest.Member("u1", 0), "gw:lb:close:u1", "m7")
	c := discord.NewContext(context.Background(), s, i, nil, nil)

	require.NoError(t, c.DeleteMessage())
	assert.Equal(t, []string{"m7"}, s.Deleted)
	assert.Equal(t, discordgo.InteractionResponseDeferredMessageUpdate, s.Last().Type)
}
