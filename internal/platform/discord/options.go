package discord

import (
	"github.com/bwmarrin/discordgo"
)

// Options indexes slash command options by name.
type Options map[string]*discordgo.ApplicationCommandInteractionDataOption

func NewOptions(opts []*discordgo.ApplicationCommandInteractionDataOption) Options {
	m := make(Options, len(opts))
	for _, o := range opts {
		m[o.Name] = o
	}
	return m
}

func (o Options) String(name string) string {
	if opt, ok := o[name]; ok {
		return opt.StringValue()
	}
	return ""
}

// Int returns the integer option or 0 when it was not given.
func (o Options) Int(name string) int64 {
	if opt, ok := o[name]; ok {
		return opt.IntValue()
	}
	return 0
}

// snowflake reads the raw id of a user, channel or role option without a
// session lookup.
func (o Options) snowflake(name string) string {
	if opt, ok := o[name]; ok {
		if id, ok := opt.Value.(string); ok {
			return id
		}
	}
	return ""
}

func (o Options) UserID(name string) string {
	return o.snowflake(name)
}

func (o Options) ChannelID(name string) string {
	return o.snowflake(name)
}
