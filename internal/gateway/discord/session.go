package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// API abstracts the subset of the Discord REST client used by Gateway and
// Interactions. This allows testing without real HTTP calls.
type API interface {
	ChannelMessageSendComplex(ctx context.Context, channelID string, data *discordgo.MessageSend) (messageID string, err error)
	ChannelMessageEditComplex(ctx context.Context, edit *discordgo.MessageEdit) error
	GuildRoles(ctx context.Context, guildID string) ([]*discordgo.Role, error)
	GuildRoleCreate(ctx context.Context, guildID string, params *discordgo.RoleParams) (*discordgo.Role, error)
	GuildRoleDelete(ctx context.Context, guildID, roleID string) error
	GuildMemberRoleAdd(ctx context.Context, guildID, userID, roleID string) error
	GuildMemberRoleRemove(ctx context.Context, guildID, userID, roleID string) error
	InteractionRespond(ctx context.Context, i *discordgo.Interaction, resp *discordgo.InteractionResponse) error
	InteractionResponseEdit(ctx context.Context, i *discordgo.Interaction, edit *discordgo.WebhookEdit) error
	InteractionResponseDelete(ctx context.Context, i *discordgo.Interaction) error
	FollowupMessageCreate(ctx context.Context, i *discordgo.Interaction, params *discordgo.WebhookParams) error
}

// Session adapts *discordgo.Session to API.
type Session struct {
	s *discordgo.Session
}

// Compile-time interface check.
var _ API = (*Session)(nil) //nolint:gochecknoglobals // compile-time check

// NewSession wraps a discordgo session.
func NewSession(s *discordgo.Session) *Session {
	return &Session{s: s}
}

func (c *Session) ChannelMessageSendComplex(ctx context.Context, channelID string, data *discordgo.MessageSend) (string, error) {
	msg, err := c.s.ChannelMessageSendComplex(channelID, data, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

func (c *Session) ChannelMessageEditComplex(ctx context.Context, edit *discordgo.MessageEdit) error {
	_, err := c.s.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx))
	return err
}

func (c *Session) GuildRoles(ctx context.Context, guildID string) ([]*discordgo.Role, error) {
	return c.s.GuildRoles(guildID, discordgo.WithContext(ctx))
}

func (c *Session) GuildRoleCreate(ctx context.Context, guildID string, params *discordgo.RoleParams) (*discordgo.Role, error) {
	return c.s.GuildRoleCreate(guildID, params, discordgo.WithContext(ctx))
}

func (c *Session) GuildRoleDelete(ctx context.Context, guildID, roleID string) error {
	return c.s.GuildRoleDelete(guildID, roleID, discordgo.WithContext(ctx))
}

func (c *Session) GuildMemberRoleAdd(ctx context.Context, guildID, userID, roleID string) error {
	return c.s.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx))
}

func (c *Session) GuildMemberRoleRemove(ctx context.Context, guildID, userID, roleID string) error {
	return c.s.GuildMemberRoleRemove(guildID, userID, roleID, discordgo.WithContext(ctx))
}

func (c *Session) InteractionRespond(ctx context.Context, i *discordgo.Interaction, resp *discordgo.InteractionResponse) error {
	return c.s.InteractionRespond(i, resp, discordgo.WithContext(ctx))
}

func (c *Session) InteractionResponseEdit(ctx context.Context, i *discordgo.Interaction, edit *discordgo.WebhookEdit) error {
	_, err := c.s.InteractionResponseEdit(i, edit, discordgo.WithContext(ctx))
	return err
}

func (c *Session) InteractionResponseDelete(ctx context.Context, i *discordgo.Interaction) error {
	return c.s.InteractionResponseDelete(i, discordgo.WithContext(ctx))
}

func (c *Session) FollowupMessageCreate(ctx context.Context, i *discordgo.Interaction, params *discordgo.WebhookParams) error {
	_, err := c.s.FollowupMessageCreate(i, true, params, discordgo.WithContext(ctx))
	return err
}

// Connect routes interaction events to x, opens the gateway connection and
// registers the slash commands globally. The caller closes s on shutdown.
func Connect(ctx context.Context, s *discordgo.Session, x *Interactions) error {
	s.Identify.Intents = discordgo.IntentsGuilds
	s.AddHandler(func(_ *discordgo.Session, ic *discordgo.InteractionCreate) {
		if err := x.Handle(ctx, ic.Interaction); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("tenant_id", ic.GuildID).Msg("discord interaction")
		}
	})

	if err := s.Open(); err != nil {
		return fmt.Errorf("discord.Connect: open: %w", err)
	}

	if _, err := s.ApplicationCommandBulkOverwrite(s.State.User.ID, "", Commands(), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord.Connect: register commands: %w", err)
	}

	log.Ctx(ctx).Info().Str("bot", s.State.User.Username).Msg("discord connected")
	return nil
}
