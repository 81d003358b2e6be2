package store_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/torneo/internal/domain"
	"github.com/gosuda/torneo/internal/store"
)

// --- mock Backend ---

type memBackend struct {
	data    map[string][]byte
	loadErr error
	saveErr error
}

func newMemBackend() *memBackend {
	return &memBackend{data: make(map[string][]byte)}
}

func (m *memBackend) Load(_ context.Context, key string) ([]byte, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	d, ok := m.data[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return d, nil
}

func (m *memBackend) Save(_ context.Context, key string, data []byte) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data[key] = data
	return nil
}

func strPtr(s string) *string { return &s }

func TestStore_EmptyDefaults(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	s := store.New(newMemBackend())

	state, err := s.LoadState(ctx)
	require.NoError(t, err)
	assert.NotNil(t, state.Tenants)
	assert.Empty(t, state.Tenants)

	ranking, err := s.LoadRanking(ctx)
	require.NoError(t, err)
	assert.Empty(t, ranking)
}

func TestStore_StateRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	backend := newMemBackend()
	s := store.New(backend)

	deadline := time.Date(2025, 6, 1, 21, 0, 0, 0, time.UTC)
	doc := &store.StateDoc{Tenants: map[string]*store.TenantDoc{
		"guild-1": {
			Tournaments: map[string]map[string]string{"Copa": {"u1": "Rojo", "u2": "Azul"}},
			Rooms: map[string]*domain.Room{"r1": {
				ID: "r1", Name: "Entreno", Open: 19 * 60, Close: 21 * 60,
				Players: []string{"u1"}, ChannelID: "c1", MessageID: "m1",
				State: domain.RoomStateOpen, Deadline: deadline,
			}},
			Selection: strPtr("Copa"),
			ChannelID: strPtr("c0"),
		},
	}}

	require.NoError(t, s.SaveState(ctx, doc))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(backend.data[store.KeyState], &raw))
	tenants := raw["tenants"].(map[string]any)
	g := tenants["guild-1"].(map[string]any)
	assert.Contains(t, g, "tournaments")
	assert.Contains(t, g, "rooms")
	assert.Contains(t, g, "selection")
	assert.Contains(t, g, "channelId")
	assert.Contains(t, g, "liveMessageId")
	assert.Nil(t, g["liveMessageId"])

	got, err := s.LoadState(ctx)
	require.NoError(t, err)
	require.Contains(t, got.Tenants, "guild-1")
	tn := got.Tenants["guild-1"]
	assert.Equal(t, "Rojo", tn.Tournaments["Copa"]["u1"])
	assert.Equal(t, "Copa", *tn.Selection)
	r := tn.Rooms["r1"]
	require.NotNil(t, r)
	assert.Equal(t, domain.TimeOfDay(19*60), r.Open)
	assert.True(t, deadline.Equal(r.Deadline))
	assert.Equal(t, []string{"u1"}, r.Players)
}

func TestStore_DocumentsAreIndependent(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	backend := newMemBackend()
	s := store.New(backend)

	require.NoError(t, s.SaveRanking(ctx, store.RankingDoc{{Team: "Rojo", Wins: 1}}))
	backend.data[store.KeyState] = []byte("{corrupt")

	_, err := s.LoadState(ctx)
	require.ErrorIs(t, err, domain.ErrPersistence)

	ranking, err := s.LoadRanking(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.RankingDoc{{Team: "Rojo", Wins: 1}}, ranking)
}

func TestStore_SaveErrorIsPersistenceError(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	backend := newMemBackend()
	backend.saveErr = errors.New("disk full")
	s := store.New(backend)

	err := s.SaveState(ctx, &store.StateDoc{})
	require.ErrorIs(t, err, domain.ErrPersistence)
	assert.Contains(t, err.Error(), "disk full")

	err = s.SaveRanking(ctx, store.RankingDoc{})
	require.ErrorIs(t, err, domain.ErrPersistence)
}

func TestRankingDoc_JSON(t *testing.T) {
	t.Parallel()

	t.Run("encodes as ordered object", func(t *testing.T) {
		t.Parallel()

		doc := store.RankingDoc{{Team: "Zeta", Wins: 3}, {Team: "Alfa \"A\"", Wins: 1}}
		b, err := json.Marshal(doc)
		require.NoError(t, err)
		assert.Equal(t, `{"Zeta":3,"Alfa \"A\"":1}`, string(b))
	})

	t.Run("decodes in document order", func(t *testing.T) {
		t.Parallel()

		var doc store.RankingDoc
		require.NoError(t, json.Unmarshal([]byte(`{"Zeta": 3, "Alfa": 1, "Beta": 7}`), &doc))
		assert.Equal(t, store.RankingDoc{{Team: "Zeta", Wins: 3}, {Team: "Alfa", Wins: 1}, {Team: "Beta", Wins: 7}}, doc)
	})

	t.Run("empty and null", func(t *testing.T) {
		t.Parallel()

		var doc store.RankingDoc
		require.NoError(t, json.Unmarshal([]byte(`{}`), &doc))
		assert.Empty(t, doc)
		require.NoError(t, json.Unmarshal([]byte(`null`), &doc))
		assert.Empty(t, doc)

		b, err := json.Marshal(store.RankingDoc{})
		require.NoError(t, err)
		assert.Equal(t, `{}`, string(b))
	})

	t.Run("rejects non-object", func(t *testing.T) {
		t.Parallel()

		var doc store.RankingDoc
		require.Error(t, json.Unmarshal([]byte(`[1,2]`), &doc))
		require.Error(t, json.Unmarshal([]byte(`{"Rojo":"many"}`), &doc))
	})
}
