// Package roster manages tournament membership and the team roles that mirror
// it in the host platform.
package roster

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/torneo/internal/domain"
	"github.com/gosuda/torneo/internal/gateway"
)

// Tenants is the subset of registry.Registry used by the service.
type Tenants interface {
	Lookup(id string) (*domain.Tenant, bool)
	Ensure(id string) *domain.Tenant
	Commit(ctx context.Context)
}

// Wins is the subset of ranking.Ledger used by the service.
type Wins interface {
	RecordWin(ctx context.Context, team string) (int, error)
}

// Refresher republishes a tenant's live view.
type Refresher interface {
	Refresh(ctx context.Context, tenantID string) error
}

// Service applies roster intents. It is not safe for concurrent use; the engine
// loop serializes calls.
type Service struct {
	tenants Tenants
	wins    Wins
	gw      gateway.Gateway
	views   Refresher
}

// New creates a Service.
func New(tenants Tenants, wins Wins, gw gateway.Gateway, views Refresher) *Service {
	return &Service{tenants: tenants, wins: wins, gw: gw, views: views}
}

// Create adds an empty tournament.
func (s *Service) Create(ctx context.Context, tenantID, name string) error {
	if t, ok := s.tenants.Lookup(tenantID); ok {
		if _, exists := t.Tournaments[name]; exists {
			return fmt.Errorf("roster.Service.Create: %q: %w", name, domain.ErrAlreadyExists)
		}
	}

	t := s.tenants.Ensure(tenantID)
	t.Tournaments[name] = domain.NewTournament(name)
	s.tenants.Commit(ctx)

	log.Ctx(ctx).Info().Str("tenant_id", tenantID).Str("tournament", name).Msg("tournament created")
	s.announce(ctx, t, fmt.Sprintf("🏆 Torneo **%s** creado.", name))
	s.refresh(ctx, tenantID)
	return nil
}

// Join puts userID on team, provisioning the team role the first time any
// tournament of the tenant uses it. A user already on another team moves.
func (s *Service) Join(ctx context.Context, tenantID, name, userID, team string) error {
	t, tr, err := s.tournament(tenantID, name)
	if err != nil {
		return fmt.Errorf("roster.Service.Join: %w", err)
	}

	s.assign(ctx, t, tr, userID, team, "roster.join")

	s.announce(ctx, t, fmt.Sprintf("✅ <@%s> se unió al torneo **%s** con el equipo **%s**.", userID, name, team))
	s.refresh(ctx, tenantID)
	return nil
}

// ChangeTeam moves an existing member to team.
func (s *Service) ChangeTeam(ctx context.Context, tenantID, name, userID, team string) error {
	t, tr, err := s.tournament(tenantID, name)
	if err != nil {
		return fmt.Errorf("roster.Service.ChangeTeam: %w", err)
	}
	prev, ok := tr.TeamOf(userID)
	if !ok {
		return fmt.Errorf("roster.Service.ChangeTeam: %q in %q: %w", userID, name, domain.ErrNotMember)
	}

	s.assign(ctx, t, tr, userID, team, "roster.change_team")

	s.announce(ctx, t, fmt.Sprintf("🔄 <@%s> cambió de **%s** a **%s** en **%s**.", userID, prev, team, name))
	s.refresh(ctx, tenantID)
	return nil
}

// RemoveMember deletes userID from the tournament and revokes the team role.
func (s *Service) RemoveMember(ctx context.Context, tenantID, name, userID string) error {
	t, tr, err := s.tournament(tenantID, name)
	if err != nil {
		return fmt.Errorf("roster.Service.RemoveMember: %w", err)
	}
	team, ok := tr.TeamOf(userID)
	if !ok {
		return fmt.Errorf("roster.Service.RemoveMember: %q in %q: %w", userID, name, domain.ErrNotMember)
	}

	delete(tr.Members, userID)
	s.tenants.Commit(ctx)

	report := gateway.NewReport("roster.remove_member")
	s.release(ctx, report, t, userID, team)
	report.Log(ctx)

	s.announce(ctx, t, fmt.Sprintf("❌ <@%s> fue eliminado del torneo **%s**.", userID, name))
	s.refresh(ctx, tenantID)
	return nil
}

// RemoveTeam deletes every member of team and returns how many were removed.
func (s *Service) RemoveTeam(ctx context.Context, tenantID, name, team string) (int, error) {
	t, tr, err := s.tournament(tenantID, name)
	if err != nil {
		return 0, fmt.Errorf("roster.Service.RemoveTeam: %w", err)
	}

	members := tr.MembersOf(team)
	for _, uid := range members {
		delete(tr.Members, uid)
	}
	s.tenants.Commit(ctx)

	report := gateway.NewReport("roster.remove_team")
	for _, uid := range members {
		s.release(ctx, report, t, uid, team)
	}
	report.Log(ctx)

	if len(members) > 0 {
		s.announce(ctx, t, fmt.Sprintf("❌ Equipo **%s** eliminado de **%s** (%d miembros).", team, name, len(members)))
	}
	s.refresh(ctx, tenantID)
	return len(members), nil
}

// Finalize deletes the tournament after revoking every member's role and
// deleting the team roles no other tournament still uses. token must be
// domain.ConfirmationToken; otherwise nothing changes.
func (s *Service) Finalize(ctx context.Context, tenantID, name, token string) error {
	if token != domain.ConfirmationToken {
		return fmt.Errorf("roster.Service.Finalize: %q: %w", name, domain.ErrConfirmationRequired)
	}
	t, tr, err := s.tournament(tenantID, name)
	if err != nil {
		return fmt.Errorf("roster.Service.Finalize: %w", err)
	}

	teams := tr.Teams()

	delete(t.Tournaments, name)
	if t.Selection == name {
		t.Selection = ""
	}
	s.tenants.Commit(ctx)

	report := gateway.NewReport("roster.finalize")
	for _, team := range teams {
		for _, uid := range tr.MembersOf(team) {
			s.release(ctx, report, t, uid, team)
		}
	}
	for _, team := range teams {
		if t.UsesTeam(team) {
			continue
		}
		report.Record("role:"+team, s.gw.DeleteRole(ctx, tenantID, team))
	}
	report.Log(ctx)

	log.Ctx(ctx).Info().
		Str("tenant_id", tenantID).
		Str("tournament", name).
		Int("members", len(tr.Members)).
		Msg("tournament finalized")
	s.announce(ctx, t, fmt.Sprintf("🏁 Torneo **%s** finalizado y roles eliminados.", name))
	s.refresh(ctx, tenantID)
	return nil
}

// RecordWin adds a win for team and returns its new total. The count does not
// depend on the tournament or its members.
func (s *Service) RecordWin(ctx context.Context, tenantID, name, team string) int {
	total, err := s.wins.RecordWin(ctx, team)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("team", team).Msg("persist ranking; continuing on memory")
	}
	log.Ctx(ctx).Info().
		Str("tenant_id", tenantID).
		Str("tournament", name).
		Str("team", team).
		Int("wins", total).
		Msg("win recorded")

	if t, ok := s.tenants.Lookup(tenantID); ok {
		s.announce(ctx, t, fmt.Sprintf("🏆 Equipo **%s** registrado como ganador! Total victorias: %d", team, total))
	}
	s.refresh(ctx, tenantID)
	return total
}

// Select focuses the live view on a tournament.
func (s *Service) Select(ctx context.Context, tenantID, name string) error {
	t, _, err := s.tournament(tenantID, name)
	if err != nil {
		return fmt.Errorf("roster.Service.Select: %w", err)
	}

	t.Selection = name
	s.tenants.Commit(ctx)
	s.refresh(ctx, tenantID)
	return nil
}

func (s *Service) tournament(tenantID, name string) (*domain.Tenant, *domain.Tournament, error) {
	t, ok := s.tenants.Lookup(tenantID)
	if !ok {
		return nil, nil, fmt.Errorf("%q: %w", name, domain.ErrTournamentNotFound)
	}
	tr, ok := t.Tournaments[name]
	if !ok {
		return nil, nil, fmt.Errorf("%q: %w", name, domain.ErrTournamentNotFound)
	}
	return t, tr, nil
}

// assign writes the membership, persists, then moves the user's role.
func (s *Service) assign(ctx context.Context, t *domain.Tenant, tr *domain.Tournament, userID, team, op string) {
	provision := !t.UsesTeam(team)
	prev, had := tr.TeamOf(userID)

	tr.Members[userID] = team
	s.tenants.Commit(ctx)

	report := gateway.NewReport(op)
	if had && prev != team {
		s.release(ctx, report, t, userID, prev)
	}
	if provision {
		report.Record("role:"+team, s.gw.EnsureRole(ctx, t.ID, team))
		s.announce(ctx, t, fmt.Sprintf("🆕 Se creó el equipo **%s**.", team))
	}
	report.Record(userID, s.gw.GrantRole(ctx, t.ID, userID, team))
	report.Log(ctx)
}

// release revokes team from userID unless another tournament of the tenant
// still has the user on that team.
func (s *Service) release(ctx context.Context, report *gateway.Report, t *domain.Tenant, userID, team string) {
	for _, other := range t.Tournaments {
		if got, ok := other.TeamOf(userID); ok && got == team {
			return
		}
	}
	report.Record(userID, s.gw.RevokeRole(ctx, t.ID, userID, team))
}

func (s *Service) announce(ctx context.Context, t *domain.Tenant, text string) {
	if t.ChannelID == "" {
		return
	}
	if err := s.gw.NotifyChannel(ctx, t.ChannelID, text); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("tenant_id", t.ID).Msg("activity notice")
	}
}

func (s *Service) refresh(ctx context.Context, tenantID string) {
	if err := s.views.Refresh(ctx, tenantID); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("tenant_id", tenantID).Msg("refresh live view")
	}
}
