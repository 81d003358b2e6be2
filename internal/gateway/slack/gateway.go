package slack

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
	slacklib "github.com/slack-go/slack"

	"github.com/gosuda/torneo/internal/domain"
	"github.com/gosuda/torneo/internal/gateway"
)

// API abstracts the subset of the Slack client used by Gateway and Handler.
// *slacklib.Client satisfies it.
type API interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slacklib.MsgOption) (string, string, error)
	UpdateMessageContext(ctx context.Context, channelID, timestamp string, options ...slacklib.MsgOption) (string, string, string, error)
	PostEphemeralContext(ctx context.Context, channelID, userID string, options ...slacklib.MsgOption) (string, error)
	GetUserGroupsContext(ctx context.Context, options ...slacklib.GetUserGroupsOption) ([]slacklib.UserGroup, error)
	CreateUserGroupContext(ctx context.Context, userGroup slacklib.UserGroup, options ...slacklib.CreateUserGroupOption) (slacklib.UserGroup, error)
	EnableUserGroupContext(ctx context.Context, userGroup string, options ...slacklib.EnableUserGroupOption) (slacklib.UserGroup, error)
	DisableUserGroupContext(ctx context.Context, userGroup string, options ...slacklib.DisableUserGroupOption) (slacklib.UserGroup, error)
	GetUserGroupMembersContext(ctx context.Context, userGroup string, options ...slacklib.GetUserGroupMembersOption) ([]string, error)
	UpdateUserGroupMembersContext(ctx context.Context, userGroup string, members string, options ...slacklib.UpdateUserGroupMembersOption) (slacklib.UserGroup, error)
}

// Gateway implements gateway.Gateway for one Slack workspace. Views are Block
// Kit messages; roles are user groups whose handle derives from the label.
type Gateway struct {
	api API
}

// Compile-time interface check.
var _ gateway.Gateway = (*Gateway)(nil) //nolint:gochecknoglobals // compile-time check

// NewGateway creates a Gateway with the given API client.
func NewGateway(api API) *Gateway {
	return &Gateway{api: api}
}

// PublishView posts a new message and returns its timestamp as the message id.
func (g *Gateway) PublishView(ctx context.Context, channelID string, p gateway.Payload) (domain.ViewRef, error) {
	_, ts, err := g.api.PostMessageContext(ctx, channelID, messageOptions(p)...)
	if err != nil {
		return domain.ViewRef{}, fmt.Errorf("slack.Gateway.PublishView: %w", notFound(err))
	}
	return domain.ViewRef{ChannelID: channelID, MessageID: ts}, nil
}

// UpdateView edits an existing message.
func (g *Gateway) UpdateView(ctx context.Context, ref domain.ViewRef, p gateway.Payload) error {
	if _, _, _, err := g.api.UpdateMessageContext(ctx, ref.ChannelID, ref.MessageID, messageOptions(p)...); err != nil {
		return fmt.Errorf("slack.Gateway.UpdateView: %w", notFound(err))
	}
	return nil
}

// DisableView rewrites the message without its join control.
func (g *Gateway) DisableView(ctx context.Context, ref domain.ViewRef, p gateway.Payload) error {
	p.Closed = true
	if err := g.UpdateView(ctx, ref, p); err != nil {
		return fmt.Errorf("slack.Gateway.DisableView: %w", err)
	}
	return nil
}

// RestoreView re-renders the message. Block Kit actions are stateless, so
// this only brings the content up to date.
func (g *Gateway) RestoreView(ctx context.Context, ref domain.ViewRef, p gateway.Payload) error {
	if err := g.UpdateView(ctx, ref, p); err != nil {
		return fmt.Errorf("slack.Gateway.RestoreView: %w", err)
	}
	return nil
}

// EnsureRole creates the user group for label. A disabled group is left for
// GrantRole to re-enable with a fresh member list.
func (g *Gateway) EnsureRole(ctx context.Context, _, label string) error {
	_, ok, err := g.findGroup(ctx, label)
	if err != nil {
		return fmt.Errorf("slack.Gateway.EnsureRole: %w", err)
	}
	if ok {
		return nil
	}
	if _, err := g.api.CreateUserGroupContext(ctx, slacklib.UserGroup{Name: label, Handle: Handle(label)}); err != nil {
		return fmt.Errorf("slack.Gateway.EnsureRole: create %s: %w", Handle(label), err)
	}
	return nil
}

// DeleteRole disables the user group for label. Slack does not delete groups.
func (g *Gateway) DeleteRole(ctx context.Context, _, label string) error {
	group, ok, err := g.findGroup(ctx, label)
	if err != nil {
		return fmt.Errorf("slack.Gateway.DeleteRole: %w", err)
	}
	if !ok || group.DateDelete != 0 {
		return nil
	}
	if _, err := g.api.DisableUserGroupContext(ctx, group.ID); err != nil {
		return fmt.Errorf("slack.Gateway.DeleteRole: disable %s: %w", group.Handle, err)
	}
	return nil
}

// GrantRole adds userID to the label's user group. A group that was disabled
// still reports its last members; re-enabling it starts from userID alone.
func (g *Gateway) GrantRole(ctx context.Context, _, userID, label string) error {
	group, fresh, err := g.ensureGroup(ctx, label)
	if err != nil {
		return fmt.Errorf("slack.Gateway.GrantRole: %w", err)
	}

	var members []string
	if !fresh {
		members, err = g.api.GetUserGroupMembersContext(ctx, group.ID)
		if err != nil {
			return fmt.Errorf("slack.Gateway.GrantRole: members of %s: %w", group.Handle, err)
		}
		if slices.Contains(members, userID) {
			return nil
		}
	}

	members = append(members, userID)
	if _, err := g.api.UpdateUserGroupMembersContext(ctx, group.ID, strings.Join(members, ",")); err != nil {
		return fmt.Errorf("slack.Gateway.GrantRole: update %s: %w", group.Handle, err)
	}
	return nil
}

// RevokeRole removes userID from the label's user group. A group left empty
// is disabled, since Slack rejects empty member lists.
func (g *Gateway) RevokeRole(ctx context.Context, _, userID, label string) error {
	group, ok, err := g.findGroup(ctx, label)
	if err != nil {
		return fmt.Errorf("slack.Gateway.RevokeRole: %w", err)
	}
	if !ok {
		return nil
	}

	members, err := g.api.GetUserGroupMembersContext(ctx, group.ID)
	if err != nil {
		return fmt.Errorf("slack.Gateway.RevokeRole: members of %s: %w", group.Handle, err)
	}
	kept := slices.DeleteFunc(slices.Clone(members), func(m string) bool { return m == userID })
	if len(kept) == len(members) {
		return nil
	}

	if len(kept) == 0 {
		if _, err := g.api.DisableUserGroupContext(ctx, group.ID); err != nil {
			return fmt.Errorf("slack.Gateway.RevokeRole: disable %s: %w", group.Handle, err)
		}
		return nil
	}
	if _, err := g.api.UpdateUserGroupMembersContext(ctx, group.ID, strings.Join(kept, ",")); err != nil {
		return fmt.Errorf("slack.Gateway.RevokeRole: update %s: %w", group.Handle, err)
	}
	return nil
}

// NotifyChannel posts a plain text message.
func (g *Gateway) NotifyChannel(ctx context.Context, channelID, text string) error {
	if _, _, err := g.api.PostMessageContext(ctx, channelID, slacklib.MsgOptionText(markdown(text), false)); err != nil {
		return fmt.Errorf("slack.Gateway.NotifyChannel: %w", err)
	}
	return nil
}

// Platform returns the platform identifier.
func (g *Gateway) Platform() string {
	return "slack"
}

// ensureGroup returns the label's active user group. fresh reports that the
// group was just created or re-enabled, so its member list is stale.
func (g *Gateway) ensureGroup(ctx context.Context, label string) (group slacklib.UserGroup, fresh bool, err error) {
	group, ok, err := g.findGroup(ctx, label)
	if err != nil {
		return slacklib.UserGroup{}, false, err
	}

	if !ok {
		created, err := g.api.CreateUserGroupContext(ctx, slacklib.UserGroup{Name: label, Handle: Handle(label)})
		if err != nil {
			return slacklib.UserGroup{}, false, fmt.Errorf("create %s: %w", Handle(label), err)
		}
		return created, true, nil
	}

	if group.DateDelete != 0 {
		enabled, err := g.api.EnableUserGroupContext(ctx, group.ID)
		if err != nil {
			return slacklib.UserGroup{}, false, fmt.Errorf("enable %s: %w", group.Handle, err)
		}
		return enabled, true, nil
	}
	return group, false, nil
}

func (g *Gateway) findGroup(ctx context.Context, label string) (slacklib.UserGroup, bool, error) {
	groups, err := g.api.GetUserGroupsContext(ctx, slacklib.GetUserGroupsOptionIncludeDisabled(true))
	if err != nil {
		return slacklib.UserGroup{}, false, fmt.Errorf("list user groups: %w", err)
	}

	handle := Handle(label)
	for _, group := range groups {
		if group.Handle == handle {
			return group, true, nil
		}
	}
	return slacklib.UserGroup{}, false, nil
}

// handleSlugMax bounds the readable part of a handle.
const handleSlugMax = 32

// Handle derives a user group handle from a role label. Slack handles are
// case-insensitive, so a hash of the exact label keeps "Rojo" and "rojo" apart.
func Handle(label string) string {
	var b strings.Builder
	b.WriteString("torneo-")
	dash := false
	n := 0
	for _, r := range strings.ToLower(strings.TrimSpace(label)) {
		if n >= handleSlugMax {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			n++
			continue
		}
		if !dash {
			b.WriteByte('-')
			dash = true
			n++
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	return fmt.Sprintf("%s-%06x", slug, xxhash.Sum64String(label)&0xffffff)
}

func notFound(err error) error {
	var apiErr slacklib.SlackErrorResponse
	if errors.As(err, &apiErr) {
		switch apiErr.Err {
		case "message_not_found", "channel_not_found", "cant_update_message":
			return fmt.Errorf("%w: %w", gateway.ErrViewNotFound, err)
		}
	}
	return err
}
