package registry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/torneo/internal/domain"
	"github.com/gosuda/torneo/internal/registry"
	"github.com/gosuda/torneo/internal/store"
)

// --- mock StateStore ---

type mockStateStore struct {
	loaded  *store.StateDoc
	loadErr error
	saveErr error
	saves   int
	last    *store.StateDoc
}

func (m *mockStateStore) LoadState(context.Context) (*store.StateDoc, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.loaded == nil {
		return &store.StateDoc{Tenants: map[string]*store.TenantDoc{}}, nil
	}
	return m.loaded, nil
}

func (m *mockStateStore) SaveState(_ context.Context, doc *store.StateDoc) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.last = doc
	return nil
}

func TestRegistry_ReadsNeverCreate(t *testing.T) {
	t.Parallel()

	s := &mockStateStore{}
	reg := registry.New(s)

	_, ok := reg.Lookup("g1")
	assert.False(t, ok)

	v := reg.View("g1")
	require.NotNil(t, v)
	assert.Equal(t, "g1", v.ID)
	assert.Empty(t, v.Tournaments)

	_, ok = reg.Lookup("g1")
	assert.False(t, ok, "View must not register the tenant")
	assert.Empty(t, reg.Tenants())
	assert.Zero(t, s.saves)
}

func TestRegistry_EnsureThenPersist(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	s := &mockStateStore{}
	reg := registry.New(s)

	tn := reg.Ensure("g1")
	assert.Same(t, tn, reg.Ensure("g1"))
	tn.Tournaments["Copa"] = domain.NewTournament("Copa")
	tn.Tournaments["Copa"].Members["u1"] = "Rojo"
	tn.Selection = "Copa"

	require.NoError(t, reg.Persist(ctx))
	require.NotNil(t, s.last)
	td := s.last.Tenants["g1"]
	require.NotNil(t, td)
	assert.Equal(t, map[string]string{"u1": "Rojo"}, td.Tournaments["Copa"])
	assert.Equal(t, "Copa", *td.Selection)
	assert.Nil(t, td.ChannelID)
	assert.Nil(t, td.LiveMessageID)
}

func TestRegistry_SnapshotIsDetached(t *testing.T) {
	t.Parallel()

	reg := registry.New(&mockStateStore{})
	tn := reg.Ensure("g1")
	tn.Rooms["r1"] = &domain.Room{ID: "r1", Players: []string{"u1"}}

	snap := reg.Snapshot()
	tn.Rooms["r1"].Players = append(tn.Rooms["r1"].Players, "u2")

	assert.Equal(t, []string{"u1"}, snap.Tenants["g1"].Rooms["r1"].Players)
}

func TestRegistry_Load(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	sel, ch, msg := "Copa", "c1", "m1"
	deadline := time.Date(2025, 6, 1, 21, 0, 0, 0, time.UTC)
	s := &mockStateStore{loaded: &store.StateDoc{Tenants: map[string]*store.TenantDoc{
		"g1": {
			Tournaments:   map[string]map[string]string{"Copa": {"u1": "Rojo", "u2": "Azul"}},
			Rooms:         map[string]*domain.Room{"r1": {Name: "Entreno", Deadline: deadline}},
			Selection:     &sel,
			ChannelID:     &ch,
			LiveMessageID: &msg,
		},
		"g2": nil,
	}}}
	reg := registry.New(s)

	require.NoError(t, reg.Load(ctx))

	g1, ok := reg.Lookup("g1")
	require.True(t, ok)
	assert.Equal(t, "Rojo", g1.Tournaments["Copa"].Members["u1"])
	assert.Equal(t, domain.ViewRef{ChannelID: "c1", MessageID: "m1"}, g1.LiveView())
	assert.Equal(t, "Copa", g1.Selection)

	room := g1.Rooms["r1"]
	require.NotNil(t, room)
	assert.Equal(t, "r1", room.ID, "room id backfilled from key")
	assert.Equal(t, domain.RoomStateOpen, room.State)

	g2, ok := reg.Lookup("g2")
	require.True(t, ok)
	assert.Empty(t, g2.Tournaments)

	ids := make([]string, 0, 2)
	for _, tn := range reg.Tenants() {
		ids = append(ids, tn.ID)
	}
	assert.Equal(t, []string{"g1", "g2"}, ids)
}

func TestRegistry_LoadError(t *testing.T) {
	t.Parallel()

	reg := registry.New(&mockStateStore{loadErr: errors.New("boom")})
	require.Error(t, reg.Load(t.Context()))
}

func TestRegistry_CommitKeepsMemoryOnFailure(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	s := &mockStateStore{saveErr: domain.ErrPersistence}
	reg := registry.New(s)
	reg.Ensure("g1").Tournaments["Copa"] = domain.NewTournament("Copa")

	reg.Commit(ctx)

	assert.Equal(t, 1, s.saves)
	g1, ok := reg.Lookup("g1")
	require.True(t, ok)
	assert.Contains(t, g1.Tournaments, "Copa")
	require.ErrorIs(t, reg.Persist(ctx), domain.ErrPersistence)
}
