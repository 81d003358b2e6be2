// Package registry holds every tenant in memory for the process lifetime and
// writes the whole state document back through the store after mutations.
//
// Reads (Lookup, View) never create or persist anything; only Ensure creates a
// tenant, and the creation becomes durable with the next Persist.
package registry

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/torneo/internal/domain"
	"github.com/gosuda/torneo/internal/store"
)

// StateStore is the subset of store.Store used by the registry.
type StateStore interface {
	LoadState(ctx context.Context) (*store.StateDoc, error)
	SaveState(ctx context.Context, doc *store.StateDoc) error
}

// Registry maps tenant ids to tenants. It is not safe for concurrent use; the
// engine loop serializes access.
type Registry struct {
	tenants map[string]*domain.Tenant
	store   StateStore
}

// New creates an empty Registry backed by s.
func New(s StateStore) *Registry {
	return &Registry{
		tenants: make(map[string]*domain.Tenant),
		store:   s,
	}
}

// Load replaces the in-memory tenants with the persisted state document.
func (r *Registry) Load(ctx context.Context) error {
	doc, err := r.store.LoadState(ctx)
	if err != nil {
		return fmt.Errorf("registry.Registry.Load: %w", err)
	}

	tenants := make(map[string]*domain.Tenant, len(doc.Tenants))
	for id, td := range doc.Tenants {
		tenants[id] = tenantFromDoc(id, td)
	}
	r.tenants = tenants

	return nil
}

// Lookup returns the tenant if it exists.
func (r *Registry) Lookup(id string) (*domain.Tenant, bool) {
	t, ok := r.tenants[id]
	return t, ok
}

// View returns the tenant or, if unknown, an empty detached default.
func (r *Registry) View(id string) *domain.Tenant {
	if t, ok := r.tenants[id]; ok {
		return t
	}
	return domain.NewTenant(id)
}

// Ensure returns the tenant, creating it in memory on first use.
func (r *Registry) Ensure(id string) *domain.Tenant {
	t, ok := r.tenants[id]
	if !ok {
		t = domain.NewTenant(id)
		r.tenants[id] = t
	}
	return t
}

// Tenants returns every tenant ordered by id.
func (r *Registry) Tenants() []*domain.Tenant {
	out := make([]*domain.Tenant, 0, len(r.tenants))
	for _, t := range r.tenants {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Snapshot serializes every tenant into a state document.
func (r *Registry) Snapshot() *store.StateDoc {
	doc := &store.StateDoc{Tenants: make(map[string]*store.TenantDoc, len(r.tenants))}
	for id, t := range r.tenants {
		doc.Tenants[id] = tenantToDoc(t)
	}
	return doc
}

// Persist overwrites the state document with the current snapshot.
func (r *Registry) Persist(ctx context.Context) error {
	if err := r.store.SaveState(ctx, r.Snapshot()); err != nil {
		return fmt.Errorf("registry.Registry.Persist: %w", err)
	}
	return nil
}

// Commit persists and logs a failure instead of returning it. The in-memory
// state stays authoritative until the next successful write.
func (r *Registry) Commit(ctx context.Context) {
	if err := r.Persist(ctx); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("persist state; continuing on memory")
	}
}

func tenantFromDoc(id string, td *store.TenantDoc) *domain.Tenant {
	t := domain.NewTenant(id)
	if td == nil {
		return t
	}

	for name, members := range td.Tournaments {
		tr := domain.NewTournament(name)
		for uid, team := range members {
			tr.Members[uid] = team
		}
		t.Tournaments[name] = tr
	}
	for rid, room := range td.Rooms {
		if room == nil {
			continue
		}
		if room.ID == "" {
			room.ID = rid
		}
		if room.State == "" {
			room.State = domain.RoomStateOpen
		}
		t.Rooms[rid] = room
	}
	t.Selection = deref(td.Selection)
	t.ChannelID = deref(td.ChannelID)
	t.LiveMessageID = deref(td.LiveMessageID)
	if td.Board != nil {
		t.Board = *td.Board
	}

	return t
}

func tenantToDoc(t *domain.Tenant) *store.TenantDoc {
	td := &store.TenantDoc{
		Tournaments:   make(map[string]map[string]string, len(t.Tournaments)),
		Rooms:         make(map[string]*domain.Room, len(t.Rooms)),
		Selection:     ref(t.Selection),
		ChannelID:     ref(t.ChannelID),
		LiveMessageID: ref(t.LiveMessageID),
	}
	for name, tr := range t.Tournaments {
		members := make(map[string]string, len(tr.Members))
		for uid, team := range tr.Members {
			members[uid] = team
		}
		td.Tournaments[name] = members
	}
	for rid, room := range t.Rooms {
		cp := *room
		cp.Players = append([]string(nil), room.Players...)
		td.Rooms[rid] = &cp
	}
	if !t.Board.View().IsZero() || len(t.Board.Ready) > 0 {
		board := t.Board
		board.Ready = append([]domain.ReadyPlayer(nil), t.Board.Ready...)
		td.Board = &board
	}
	return td
}

func ref(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
