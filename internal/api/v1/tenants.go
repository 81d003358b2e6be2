package v1

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/torneo/internal/gateway"
)

type ListTenantsOutput struct {
	Body []string
}

type TenantInput struct {
	TenantID string `path:"tenantID" minLength:"1" maxLength:"64" doc:"Tenant id (guild or workspace id)"`
}

// RoomSummary is the ops view of an active room.
type RoomSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OpenTime  string    `json:"openTime" doc:"HH:MM"`
	CloseTime string    `json:"closeTime" doc:"HH:MM"`
	State     string    `json:"state" enum:"OPEN,REMINDER_SENT,CLOSING"`
	Deadline  time.Time `json:"deadline"`
	Players   int       `json:"players"`
	ChannelID string    `json:"channelId"`
}

type ListRoomsOutput struct {
	Body []RoomSummary
}

type GetViewOutput struct {
	Body gateway.Payload
}

// ReadyEntry is one sign-up on a tenant's readiness board.
type ReadyEntry struct {
	UserID string    `json:"userId"`
	State  string    `json:"state" enum:"confirmado,notificado"`
	At     time.Time `json:"at"`
}

type ListReadyOutput struct {
	Body []ReadyEntry
}

func RegisterTenantRoutes(api huma.API, reader Reader) {
	huma.Register(api, huma.Operation{
		OperationID: "list-tenants",
		Method:      http.MethodGet,
		Path:        "/tenants",
		Summary:     "List known tenants",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, _ *struct{}) (*ListTenantsOutput, error) {
		ids, err := reader.Tenants(ctx)
		if err != nil {
			return nil, huma.Error503ServiceUnavailable("engine unavailable", err)
		}
		if ids == nil {
			ids = []string{}
		}

		return &ListTenantsOutput{Body: ids}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-rooms",
		Method:      http.MethodGet,
		Path:        "/tenants/{tenantID}/rooms",
		Summary:     "List a tenant's active rooms",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *TenantInput) (*ListRoomsOutput, error) {
		if err := requireTenant(ctx, reader, input.TenantID); err != nil {
			return nil, err
		}

		rooms, err := reader.Rooms(ctx, input.TenantID)
		if err != nil {
			return nil, huma.Error503ServiceUnavailable("engine unavailable", err)
		}

		out := make([]RoomSummary, 0, len(rooms))
		for _, r := range rooms {
			out = append(out, RoomSummary{
				ID:        r.ID,
				Name:      r.Name,
				OpenTime:  r.Open.String(),
				CloseTime: r.Close.String(),
				State:     string(r.State),
				Deadline:  r.Deadline,
				Players:   len(r.Players),
				ChannelID: r.ChannelID,
			})
		}

		return &ListRoomsOutput{Body: out}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-view",
		Method:      http.MethodGet,
		Path:        "/tenants/{tenantID}/view",
		Summary:     "Render a tenant's live view without publishing it",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *TenantInput) (*GetViewOutput, error) {
		if err := requireTenant(ctx, reader, input.TenantID); err != nil {
			return nil, err
		}

		p, err := reader.Dashboard(ctx, input.TenantID)
		if err != nil {
			return nil, huma.Error503ServiceUnavailable("engine unavailable", err)
		}

		return &GetViewOutput{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-ready",
		Method:      http.MethodGet,
		Path:        "/tenants/{tenantID}/ready",
		Summary:     "List the readiness board sign-ups",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *TenantInput) (*ListReadyOutput, error) {
		if err := requireTenant(ctx, reader, input.TenantID); err != nil {
			return nil, err
		}

		ready, err := reader.Ready(ctx, input.TenantID)
		if err != nil {
			return nil, huma.Error503ServiceUnavailable("engine unavailable", err)
		}

		out := make([]ReadyEntry, 0, len(ready))
		for _, p := range ready {
			out = append(out, ReadyEntry{UserID: p.UserID, State: string(p.State), At: p.At})
		}

		return &ListReadyOutput{Body: out}, nil
	})
}

func requireTenant(ctx context.Context, reader Reader, id string) error {
	ids, err := reader.Tenants(ctx)
	if err != nil {
		return huma.Error503ServiceUnavailable("engine unavailable", err)
	}
	if !slices.Contains(ids, id) {
		return huma.Error404NotFound("tenant not found")
	}
	return nil
}
