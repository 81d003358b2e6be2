// Package discord connects the engine to Discord guilds: a gateway.Gateway
// over the REST API and an interaction router for slash commands, buttons,
// select menus and modals.
package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/gosuda/torneo/internal/domain"
	"github.com/gosuda/torneo/internal/gateway"
)

// Gateway implements gateway.Gateway for Discord. Views are embed messages
// with components; roles are guild roles looked up by name.
type Gateway struct {
	api API
}

// Compile-time interface check.
var _ gateway.Gateway = (*Gateway)(nil) //nolint:gochecknoglobals // compile-time check

// NewGateway creates a Gateway with the given API client.
func NewGateway(api API) *Gateway {
	return &Gateway{api: api}
}

// PublishView posts a new embed message.
func (g *Gateway) PublishView(ctx context.Context, channelID string, p gateway.Payload) (domain.ViewRef, error) {
	msgID, err := g.api.ChannelMessageSendComplex(ctx, channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{Embed(p)},
		Components: Components(p),
	})
	if err != nil {
		return domain.ViewRef{}, fmt.Errorf("discord.Gateway.PublishView: %w", notFound(err))
	}
	return domain.ViewRef{ChannelID: channelID, MessageID: msgID}, nil
}

// UpdateView edits an existing message in place.
func (g *Gateway) UpdateView(ctx context.Context, ref domain.ViewRef, p gateway.Payload) error {
	embeds := []*discordgo.MessageEmbed{Embed(p)}
	components := Components(p)
	if components == nil {
		components = []discordgo.MessageComponent{}
	}

	err := g.api.ChannelMessageEditComplex(ctx, &discordgo.MessageEdit{
		ID:         ref.MessageID,
		Channel:    ref.ChannelID,
		Embeds:     &embeds,
		Components: &components,
	})
	if err != nil {
		return fmt.Errorf("discord.Gateway.UpdateView: %w", notFound(err))
	}
	return nil
}

// DisableView swaps the join button for a disabled "closed" button.
func (g *Gateway) DisableView(ctx context.Context, ref domain.ViewRef, p gateway.Payload) error {
	p.Closed = true
	if err := g.UpdateView(ctx, ref, p); err != nil {
		return fmt.Errorf("discord.Gateway.DisableView: %w", err)
	}
	return nil
}

// RestoreView re-renders the message so its components carry current custom ids.
func (g *Gateway) RestoreView(ctx context.Context, ref domain.ViewRef, p gateway.Payload) error {
	if err := g.UpdateView(ctx, ref, p); err != nil {
		return fmt.Errorf("discord.Gateway.RestoreView: %w", err)
	}
	return nil
}

// EnsureRole creates the guild role named label if it does not exist.
func (g *Gateway) EnsureRole(ctx context.Context, guildID, label string) error {
	if _, err := g.ensureRole(ctx, guildID, label); err != nil {
		return fmt.Errorf("discord.Gateway.EnsureRole: %w", err)
	}
	return nil
}

// DeleteRole deletes the guild role named label.
func (g *Gateway) DeleteRole(ctx context.Context, guildID, label string) error {
	role, err := g.findRole(ctx, guildID, label)
	if err != nil {
		return fmt.Errorf("discord.Gateway.DeleteRole: %w", err)
	}
	if role == nil {
		return nil
	}
	if err := g.api.GuildRoleDelete(ctx, guildID, role.ID); err != nil {
		return fmt.Errorf("discord.Gateway.DeleteRole: %s: %w", label, err)
	}
	return nil
}

// GrantRole adds the role named label to a guild member.
func (g *Gateway) GrantRole(ctx context.Context, guildID, userID, label string) error {
	role, err := g.ensureRole(ctx, guildID, label)
	if err != nil {
		return fmt.Errorf("discord.Gateway.GrantRole: %w", err)
	}
	if err := g.api.GuildMemberRoleAdd(ctx, guildID, userID, role.ID); err != nil {
		return fmt.Errorf("discord.Gateway.GrantRole: %s to %s: %w", label, userID, err)
	}
	return nil
}

// RevokeRole removes the role named label from a guild member.
func (g *Gateway) RevokeRole(ctx context.Context, guildID, userID, label string) error {
	role, err := g.findRole(ctx, guildID, label)
	if err != nil {
		return fmt.Errorf("discord.Gateway.RevokeRole: %w", err)
	}
	if role == nil {
		return nil
	}
	if err := g.api.GuildMemberRoleRemove(ctx, guildID, userID, role.ID); err != nil {
		return fmt.Errorf("discord.Gateway.RevokeRole: %s from %s: %w", label, userID, err)
	}
	return nil
}

// NotifyChannel posts a plain text message.
func (g *Gateway) NotifyChannel(ctx context.Context, channelID, text string) error {
	if _, err := g.api.ChannelMessageSendComplex(ctx, channelID, &discordgo.MessageSend{Content: text}); err != nil {
		return fmt.Errorf("discord.Gateway.NotifyChannel: %w", err)
	}
	return nil
}

// Platform returns the platform identifier.
func (g *Gateway) Platform() string {
	return "discord"
}

func (g *Gateway) ensureRole(ctx context.Context, guildID, label string) (*discordgo.Role, error) {
	role, err := g.findRole(ctx, guildID, label)
	if err != nil {
		return nil, err
	}
	if role != nil {
		return role, nil
	}

	mentionable := true
	role, err = g.api.GuildRoleCreate(ctx, guildID, &discordgo.RoleParams{Name: label, Mentionable: &mentionable})
	if err != nil {
		return nil, fmt.Errorf("create role %s: %w", label, err)
	}
	return role, nil
}

func (g *Gateway) findRole(ctx context.Context, guildID, label string) (*discordgo.Role, error) {
	roles, err := g.api.GuildRoles(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	for _, r := range roles {
		if r.Name == label {
			return r, nil
		}
	}
	return nil, nil //nolint:nilnil // a missing role is not an error
}

func notFound(err error) error {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return err
	}
	if restErr.Message != nil {
		switch restErr.Message.Code {
		case discordgo.ErrCodeUnknownMessage, discordgo.ErrCodeUnknownChannel:
			return fmt.Errorf("%w: %w", gateway.ErrViewNotFound, err)
		}
	}
	if restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %w", gateway.ErrViewNotFound, err)
	}
	return err
}
