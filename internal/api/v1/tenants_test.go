package v1_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/gosuda/torneo/internal/api/v1"
	"github.com/gosuda/torneo/internal/domain"
	"github.com/gosuda/torneo/internal/gateway"
)

// ---------------------------------------------------------------------------
// GET /tenants
// ---------------------------------------------------------------------------

func TestListTenants(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterTenantRoutes(api, &mockReader{tenantsFunc: knownTenants("G1", "G2")})

		resp := api.Get("/tenants")
		assert.Equal(t, http.StatusOK, resp.Code)

		var ids []string
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &ids))
		assert.Equal(t, []string{"G1", "G2"}, ids)
	})

	t.Run("empty_is_list", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterTenantRoutes(api, &mockReader{tenantsFunc: knownTenants()})

		resp := api.Get("/tenants")
		assert.Equal(t, http.StatusOK, resp.Code)
		assert.JSONEq(t, "[]", resp.Body.String())
	})
}

// ---------------------------------------------------------------------------
// GET /tenants/{tenantID}/rooms
// ---------------------------------------------------------------------------

func TestListRooms(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		deadline := time.Date(2026, 1, 2, 21, 0, 0, 0, time.UTC)
		_, api := humatest.New(t)
		reader := &mockReader{
			tenantsFunc: knownTenants("G1"),
			roomsFunc: func(_ context.Context, tenantID string) ([]domain.Room, error) {
				assert.Equal(t, "G1", tenantID)
				return []domain.Room{{
					ID:        "42",
					Name:      "Final",
					Open:      20 * 60,
					Close:     21 * 60,
					Players:   []string{"U1", "U2"},
					ChannelID: "C1",
					State:     domain.RoomStateReminderSent,
					Deadline:  deadline,
				}}, nil
			},
		}

		v1.RegisterTenantRoutes(api, reader)

		resp := api.Get("/tenants/G1/rooms")
		assert.Equal(t, http.StatusOK, resp.Code)

		var rooms []v1.RoomSummary
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &rooms))
		require.Len(t, rooms, 1)
		assert.Equal(t, "Final", rooms[0].Name)
		assert.Equal(t, "20:00", rooms[0].OpenTime)
		assert.Equal(t, "21:00", rooms[0].CloseTime)
		assert.Equal(t, "REMINDER_SENT", rooms[0].State)
		assert.Equal(t, 2, rooms[0].Players)
		assert.True(t, deadline.Equal(rooms[0].Deadline))
	})

	t.Run("unknown_tenant", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterTenantRoutes(api, &mockReader{tenantsFunc: knownTenants("G1")})

		resp := api.Get("/tenants/G9/rooms")
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("engine_error", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		reader := &mockReader{
			tenantsFunc: func(context.Context) ([]string, error) { return nil, errors.New("stopped") },
		}
		v1.RegisterTenantRoutes(api, reader)

		resp := api.Get("/tenants/G1/rooms")
		assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	})
}

// ---------------------------------------------------------------------------
// GET /tenants/{tenantID}/view
// ---------------------------------------------------------------------------

func TestGetView(t *testing.T) {
	t.Parallel()

	_, api := humatest.New(t)
	reader := &mockReader{
		tenantsFunc: knownTenants("G1"),
		dashboardFunc: func(_ context.Context, tenantID string) (gateway.Payload, error) {
			assert.Equal(t, "G1", tenantID)
			return gateway.Payload{
				Kind:     gateway.KindDashboard,
				Title:    "📊 Dashboard de Torneos Interactivo",
				Sections: []gateway.Section{{Name: "🎮 Salas Activas", Lines: []string{"1 sala activa"}}},
			}, nil
		},
	}

	v1.RegisterTenantRoutes(api, reader)

	resp := api.Get("/tenants/G1/view")
	assert.Equal(t, http.StatusOK, resp.Code)

	var p gateway.Payload
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &p))
	assert.Equal(t, gateway.KindDashboard, p.Kind)
	require.Len(t, p.Sections, 1)
	assert.Equal(t, []string{"1 sala activa"}, p.Sections[0].Lines)

	resp = api.Get("/tenants/G2/view")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

// ---------------------------------------------------------------------------
// GET /tenants/{tenantID}/ready
// ---------------------------------------------------------------------------

func TestListReady(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		at := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
		_, api := humatest.New(t)
		v1.RegisterTenantRoutes(api, &mockReader{
			tenantsFunc: knownTenants("G1"),
			readyFunc: func(_ context.Context, tenantID string) ([]domain.ReadyPlayer, error) {
				assert.Equal(t, "G1", tenantID)
				return []domain.ReadyPlayer{
					{UserID: "U1", State: domain.ReadyConfirmed, At: at},
					{UserID: "U2", State: domain.ReadyNotify, At: at},
				}, nil
			},
		})

		resp := api.Get("/tenants/G1/ready")
		assert.Equal(t, http.StatusOK, resp.Code)

		var got []v1.ReadyEntry
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
		require.Len(t, got, 2)
		assert.Equal(t, "confirmado", got[0].State)
		assert.Equal(t, "notificado", got[1].State)
		assert.True(t, at.Equal(got[1].At))
	})

	t.Run("empty_is_list", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterTenantRoutes(api, &mockReader{
			tenantsFunc: knownTenants("G1"),
			readyFunc: func(context.Context, string) ([]domain.ReadyPlayer, error) {
				return nil, nil
			},
		})

		resp := api.Get("/tenants/G1/ready")
		assert.Equal(t, http.StatusOK, resp.Code)
		assert.JSONEq(t, "[]", resp.Body.String())
	})

	t.Run("engine_unavailable", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterTenantRoutes(api, &mockReader{
			tenantsFunc: knownTenants("G1"),
			readyFunc: func(context.Context, string) ([]domain.ReadyPlayer, error) {
				return nil, errors.New("loop stopped")
			},
		})

		resp := api.Get("/tenants/G1/ready")
		assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	})
}
