// Package board runs each tenant's readiness board, where players sign up to
// play that day or to be notified.
package board

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/torneo/internal/clock"
	"github.com/gosuda/torneo/internal/domain"
	"github.com/gosuda/torneo/internal/gateway"
	"github.com/gosuda/torneo/internal/view"
)

// Tenants is the subset of registry.Registry used by the service.
type Tenants interface {
	Lookup(id string) (*domain.Tenant, bool)
	Ensure(id string) *domain.Tenant
	Tenants() []*domain.Tenant
	Commit(ctx context.Context)
}

// Service applies board intents. Calls must come from the engine loop.
type Service struct {
	tenants Tenants
	gw      gateway.Gateway
	now     clock.NowFunc
}

// New creates a Service.
func New(tenants Tenants, gw gateway.Gateway, now clock.NowFunc) *Service {
	return &Service{tenants: tenants, gw: gw, now: now}
}

// Open publishes a fresh board in channelID. The sign-up list carries over and
// a previously published board has its controls disabled.
func (s *Service) Open(ctx context.Context, tenantID, channelID string) error {
	t := s.tenants.Ensure(tenantID)
	prev := t.Board.View()

	p := view.Board(&t.Board)
	ref, err := s.gw.PublishView(ctx, channelID, p)
	if err != nil {
		return fmt.Errorf("board.Service.Open: %w", err)
	}
	t.Board.ChannelID = ref.ChannelID
	t.Board.MessageID = ref.MessageID
	s.tenants.Commit(ctx)

	if !prev.IsZero() && prev != ref {
		p.Closed = true
		if err := s.gw.DisableView(ctx, prev, p); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("message_id", prev.MessageID).Msg("disable previous board")
		}
	}

	log.Ctx(ctx).Info().Str("tenant_id", tenantID).Str("channel_id", channelID).
		Int("ready", len(t.Board.Ready)).Msg("board opened")
	return nil
}

// Close empties the sign-up list and returns how many entries it held. The
// published board stays live for the next day.
func (s *Service) Close(ctx context.Context, tenantID string) int {
	t, ok := s.tenants.Lookup(tenantID)
	if !ok {
		return 0
	}
	n := t.Board.Clear()
	if n > 0 {
		s.tenants.Commit(ctx)
		s.refresh(ctx, t)
	}

	log.Ctx(ctx).Info().Str("tenant_id", tenantID).Int("cleared", n).Msg("board closed")
	return n
}

// Mark lists userID with state. A player already listed keeps the first state.
// It reports whether the list changed.
func (s *Service) Mark(ctx context.Context, tenantID, userID string, state domain.ReadyState) bool {
	t := s.tenants.Ensure(tenantID)
	if !t.Board.Mark(userID, state, s.now()) {
		return false
	}
	s.tenants.Commit(ctx)
	s.refresh(ctx, t)
	return true
}

// Ready returns a copy of the tenant's sign-up list.
func (s *Service) Ready(tenantID string) []domain.ReadyPlayer {
	t, ok := s.tenants.Lookup(tenantID)
	if !ok {
		return nil
	}
	return append([]domain.ReadyPlayer(nil), t.Board.Ready...)
}

// Restore re-attaches the controls of every published board after a restart.
func (s *Service) Restore(ctx context.Context) int {
	n := 0
	for _, t := range s.tenants.Tenants() {
		ref := t.Board.View()
		if ref.IsZero() {
			continue
		}
		if err := s.gw.RestoreView(ctx, ref, view.Board(&t.Board)); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("tenant_id", t.ID).Msg("restore board view")
			continue
		}
		n++
	}
	return n
}

func (s *Service) refresh(ctx context.Context, t *domain.Tenant) {
	ref := t.Board.View()
	if ref.IsZero() {
		return
	}
	report := gateway.NewReport("board.refresh")
	report.Record("view:"+ref.MessageID, s.gw.UpdateView(ctx, ref, view.Board(&t.Board)))
	report.Log(ctx)
}
