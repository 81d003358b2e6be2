package v1

import (
	"context"

	"github.com/gosuda/torneo/internal/domain"
	"github.com/gosuda/torneo/internal/gateway"
	"github.com/gosuda/torneo/internal/ranking"
)

// Reader abstracts the engine's read-only queries for handler testing.
// *engine.Engine satisfies this interface.
type Reader interface {
	Ranking(ctx context.Context, n int) ([]ranking.Entry, int, error)
	Tenants(ctx context.Context) ([]string, error)
	Rooms(ctx context.Context, tenantID string) ([]domain.Room, error)
	Dashboard(ctx context.Context, tenantID string) (gateway.Payload, error)
	Ready(ctx context.Context, tenantID string) ([]domain.ReadyPlayer, error)
}
