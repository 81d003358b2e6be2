// Package intent defines the pre-validated user actions that presentation
// adapters hand to the engine, and the reply the engine sends back.
package intent

import (
	"context"

	"github.com/gosuda/torneo/internal/domain"
	"github.com/gosuda/torneo/internal/gateway"
)

// Intent is one user action scoped to a tenant.
type Intent interface {
	Tenant() string
	Actor() string
	Kind() string
}

// Base carries the fields every intent shares.
type Base struct {
	TenantID string
	UserID   string
}

// Tenant returns the tenant id.
func (b Base) Tenant() string { return b.TenantID }

// Actor returns the id of the user who issued the intent.
func (b Base) Actor() string { return b.UserID }

// Reply is what the adapter shows the actor once an intent is handled.
type Reply struct {
	Text    string
	Private bool
	// View is set when the reply is a rendered listing rather than plain text.
	View *gateway.Payload
}

// Handler processes intents.
type Handler interface {
	Handle(ctx context.Context, in Intent) Reply
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, in Intent) Reply

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, in Intent) Reply { return f(ctx, in) }

// CreateTournament creates an empty tournament.
type CreateTournament struct {
	Base
	Name string
}

// JoinTournament puts the actor on Team in Tournament.
type JoinTournament struct {
	Base
	Tournament string
	Team       string
}

// ChangeTeam moves the actor to Team.
type ChangeTeam struct {
	Base
	Tournament string
	Team       string
}

// RemoveMember removes Member from Tournament.
type RemoveMember struct {
	Base
	Tournament string
	Member     string
}

// RemoveTeam removes every member of Team from Tournament.
type RemoveTeam struct {
	Base
	Tournament string
	Team       string
}

// Finalize deletes Tournament and releases its team roles. Token must be the
// confirmation word.
type Finalize struct {
	Base
	Tournament string
	Token      string
}

// RecordWin adds a win for Team.
type RecordWin struct {
	Base
	Tournament string
	Team       string
}

// CreateRoom creates a timed room posted in ChannelID.
type CreateRoom struct {
	Base
	Name      string
	Open      string
	Close     string
	ChannelID string
}

// JoinRoom adds the actor to a room.
type JoinRoom struct {
	Base
	RoomID string
}

// CloseRoom closes a room before its deadline.
type CloseRoom struct {
	Base
	RoomID string
}

// SelectTournament focuses the live view on Tournament.
type SelectTournament struct {
	Base
	Tournament string
}

// PublishDashboard makes ChannelID the tenant live channel and publishes the
// live view there.
type PublishDashboard struct {
	Base
	ChannelID string
}

// Refresh republishes the live view.
type Refresh struct {
	Base
}

// ShowRanking lists the top Limit teams.
type ShowRanking struct {
	Base
	Limit int
}

// ListRooms lists the tenant's active rooms.
type ListRooms struct {
	Base
}

// OpenBoard publishes the readiness board in ChannelID.
type OpenBoard struct {
	Base
	ChannelID string
}

// CloseBoard empties the readiness board's sign-up list.
type CloseBoard struct {
	Base
}

// MarkReady puts the actor on the readiness board.
type MarkReady struct {
	Base
	State domain.ReadyState
}

// ScrimReady announces that the actor is ready for a scrim.
type ScrimReady struct {
	Base
}

func (CreateTournament) Kind() string { return "create_tournament" }
func (JoinTournament) Kind() string   { return "join_tournament" }
func (ChangeTeam) Kind() string       { return "change_team" }
func (RemoveMember) Kind() string     { return "remove_member" }
func (RemoveTeam) Kind() string       { return "remove_team" }
func (Finalize) Kind() string         { return "finalize" }
func (RecordWin) Kind() string        { return "record_win" }
func (CreateRoom) Kind() string       { return "create_room" }
func (JoinRoom) Kind() string         { return "join_room" }
func (CloseRoom) Kind() string        { return "close_room" }
func (SelectTournament) Kind() string { return "select_tournament" }
func (PublishDashboard) Kind() string { return "publish_dashboard" }
func (Refresh) Kind() string          { return "refresh" }
func (ShowRanking) Kind() string      { return "show_ranking" }
func (ListRooms) Kind() string        { return "list_rooms" }
func (OpenBoard) Kind() string        { return "open_board" }
func (CloseBoard) Kind() string       { return "close_board" }
func (MarkReady) Kind() string        { return "mark_ready" }
func (ScrimReady) Kind() string       { return "scrim_ready" }

// Admin reports whether in requires administrator permission in the host
// community. Adapters enforce it before submitting.
func Admin(in Intent) bool {
	switch in.(type) {
	case CreateTournament, RemoveMember, RemoveTeam, Finalize, RecordWin,
		CreateRoom, CloseRoom, PublishDashboard, OpenBoard, CloseBoard:
		return true
	default:
		return false
	}
}
