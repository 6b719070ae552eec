// Package discordtest provides a recording Discord session and interaction
// builders for handler tests.
package discordtest

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// Session records every REST call instead of sending it.
type Session struct {
	mu        sync.Mutex
	Responses []*discordgo.InteractionResponse
	Deleted   []string
	Sent      []*discordgo.MessageSend
	Edits     []*discordgo.MessageEdit
	// Err is returned from every call when set.
	Err error

	nextID int
}

func (s *Session) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Responses = append(s.Responses, resp)
	return s.Err
}

func (s *Session) ChannelMessageDelete(_, messageID string, _ ...discordgo.RequestOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Deleted = append(s.Deleted, messageID)
	return s.Err
}

func (s *Session) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	s.Sent = append(s.Sent, data)
	s.nextID++
	return &discordgo.Message{ID: fmt.Sprintf("m%d", s.nextID), ChannelID: channelID}, nil
}

func (s *Session) ChannelMessageEditComplex(m *discordgo.MessageEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	s.Edits = append(s.Edits, m)
	return &discordgo.Message{ID: m.ID, ChannelID: m.Channel}, nil
}

// DeletedIDs is safe to call while deletions happen on other goroutines.
func (s *Session) DeletedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.Deleted...)
}

// Last returns the most recent interaction response.
func (s *Session) Last() *discordgo.InteractionResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Responses) == 0 {
		return nil
	}
	return s.Responses[len(s.Responses)-1]
}

// LastContent is the content of the most recent response, or "".
func (s *Session) LastContent() string {
	r := s.Last()
	if r == nil || r.Data == nil {
		return ""
	}
	return r.Data.Content
}

// Member builds a guild member with the given permissions.
func Member(userID string, permissions int64) *discordgo.Member {
	return &discordgo.Member{User: &discordgo.User{ID: userID}, Permissions: permissions}
}

// Command builds a slash command interaction. path is the command and its
// subcommands, for example "gw", "config", "set".
func Command(guildID string, member *discordgo.Member, opts []*discordgo.ApplicationCommandInteractionDataOption, path ...string) *discordgo.Interaction {
	leaf := opts
	for n := len(path) - 1; n >= 1; n-- {
		typ := discordgo.ApplicationCommandOptionSubCommand
		if n < len(path)-1 {
			typ = discordgo.ApplicationCommandOptionSubCommandGroup
		}
		leaf = []*discordgo.ApplicationCommandInteractionDataOption{{Name: path[n], Type: typ, Options: leaf}}
	}
	return &discordgo.Interaction{
		ID:        "i-1",
		Type:      discordgo.InteractionApplicationCommand,
		GuildID:   guildID,
		ChannelID: "chan",
		Member:    member,
		Data: discordgo.ApplicationCommandInteractionData{
			Name:    path[0],
			Options: leaf,
		},
	}
}

// Component builds a button interaction on message messageID.
func Component(guildID string, member *discordgo.Member, customID, messageID string) *discordgo.Interaction {
	return &discordgo.Interaction{
		ID:        "i-2",
		Type:      discordgo.InteractionMessageComponent,
		GuildID:   guildID,
		ChannelID: "chan",
		Member:    member,
		Message:   &discordgo.Message{ID: messageID, ChannelID: "chan"},
		Data: discordgo.MessageComponentInteractionData{
			CustomID:      customID,
			ComponentType: discordgo.ButtonComponent,
		},
	}
}

func String(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionString, Value: value}
}

// Int mimics JSON decoding, which yields float64 numbers.
func Int(name string, value int64) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionInteger, Value: float64(value)}
}

func User(name, id string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionUser, Value: id}
}

func Channel(name, id string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionChannel, Value: id}
}

func Opts(opts ...*discordgo.ApplicationCommandInteractionDataOption) []*discordgo.ApplicationCommandInteractionDataOption {
	return opts
}
