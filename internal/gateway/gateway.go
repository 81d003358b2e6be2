// Package gateway defines the presentation collaborator: the chat platform
// adapter that publishes views, manages role side effects and posts notices.
// The core never talks to a platform directly.
package gateway

import (
	"context"
	"errors"

	"github.com/gosuda/torneo/internal/domain"
)

// ErrViewNotFound is returned by UpdateView when the referenced message is gone.
var ErrViewNotFound = errors.New("gateway: view not found") //nolint:gochecknoglobals // sentinel error

// ViewKind tells the adapter which controls to attach to a view.
type ViewKind string

const (
	// KindDashboard is a tenant's live status view: tournament selector, join,
	// change-team and refresh controls.
	KindDashboard ViewKind = "dashboard"
	// KindRoom is a room's view with a single join control.
	KindRoom ViewKind = "room"
	// KindBoard is the readiness board: "play today", "notify me" and
	// "scrim ready" controls.
	KindBoard ViewKind = "board"
)

// Section is a titled block of lines.
type Section struct {
	Name  string   `json:"name"`
	Lines []string `json:"lines"`
}

// Option is a selectable tournament in the dashboard.
type Option struct {
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// Payload is a platform-neutral description of a view.
type Payload struct {
	Kind        ViewKind  `json:"kind"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Sections    []Section `json:"sections,omitempty"`
	Footer      string    `json:"footer,omitempty"`
	Options     []Option  `json:"options,omitempty"` // dashboard only
	RoomID      string    `json:"roomId,omitempty"`  // room only
	Closed      bool      `json:"closed,omitempty"`  // controls rendered disabled
}

// Gateway is implemented by each platform adapter.
type Gateway interface {
	// PublishView posts a new view to a channel.
	PublishView(ctx context.Context, channelID string, p Payload) (domain.ViewRef, error)

	// UpdateView edits a published view. It returns ErrViewNotFound when the
	// message no longer exists.
	UpdateView(ctx context.Context, ref domain.ViewRef, p Payload) error

	// DisableView re-renders a view with its controls disabled.
	DisableView(ctx context.Context, ref domain.ViewRef, p Payload) error

	// RestoreView re-attaches live controls to a view published before a restart.
	RestoreView(ctx context.Context, ref domain.ViewRef, p Payload) error

	// EnsureRole provisions the role named label in the tenant. Idempotent.
	EnsureRole(ctx context.Context, tenantID, label string) error

	// DeleteRole removes the role named label from the tenant. Missing roles are not an error.
	DeleteRole(ctx context.Context, tenantID, label string) error

	// GrantRole gives a user the role named label, provisioning it if needed.
	GrantRole(ctx context.Context, tenantID, userID, label string) error

	// RevokeRole takes the role named label from a user.
	RevokeRole(ctx context.Context, tenantID, userID, label string) error

	// NotifyChannel posts a plain notice.
	NotifyChannel(ctx context.Context, channelID, text string) error

	// Platform returns the platform identifier (e.g. "discord", "slack").
	Platform() string
}
