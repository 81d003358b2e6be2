package v1_test

import (
	"context"

	"github.com/gosuda/torneo/internal/domain"
	"github.com/gosuda/torneo/internal/gateway"
	"github.com/gosuda/torneo/internal/ranking"
)

// ---------------------------------------------------------------------------
// Mock Reader
// ---------------------------------------------------------------------------

type mockReader struct {
	rankingFunc   func(ctx context.Context, n int) ([]ranking.Entry, int, error)
	tenantsFunc   func(ctx context.Context) ([]string, error)
	roomsFunc     func(ctx context.Context, tenantID string) ([]domain.Room, error)
	dashboardFunc func(ctx context.Context, tenantID string) (gateway.Payload, error)
	readyFunc     func(ctx context.Context, tenantID string) ([]domain.ReadyPlayer, error)
}

func (m *mockReader) Ranking(ctx context.Context, n int) ([]ranking.Entry, int, error) {
	return m.rankingFunc(ctx, n)
}

func (m *mockReader) Tenants(ctx context.Context) ([]string, error) {
	return m.tenantsFunc(ctx)
}

func (m *mockReader) Rooms(ctx context.Context, tenantID string) ([]domain.Room, error) {
	return m.roomsFunc(ctx, tenantID)
}

func (m *mockReader) Dashboard(ctx context.Context, tenantID string) (gateway.Payload, error) {
	return m.dashboardFunc(ctx, tenantID)
}

func (m *mockReader) Ready(ctx context.Context, tenantID string) ([]domain.ReadyPlayer, error) {
	return m.readyFunc(ctx, tenantID)
}

func knownTenants(ids ...string) func(context.Context) ([]string, error) {
	return func(context.Context) ([]string, error) { return ids, nil }
}
