// Package engine serializes every intent, timer fire and read onto one event
// loop and turns domain outcomes into replies for the presentation adapters.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/gosuda/torneo/internal/board"
	"github.com/gosuda/torneo/internal/domain"
	"github.com/gosuda/torneo/internal/gateway"
	"github.com/gosuda/torneo/internal/intent"
	"github.com/gosuda/torneo/internal/ranking"
	"github.com/gosuda/torneo/internal/registry"
	"github.com/gosuda/torneo/internal/room"
	"github.com/gosuda/torneo/internal/roster"
	"github.com/gosuda/torneo/internal/view"
)

// RankingListSize is how many teams the ranking listing shows by default.
const RankingListSize = 15

// Engine handles intents. It implements intent.Handler.
type Engine struct {
	loop    *Loop
	tenants *registry.Registry
	ledger  *ranking.Ledger
	roster  *roster.Service
	rooms   *room.Scheduler
	views   *view.Reconciler
	boards  *board.Service
}

// Compile-time interface check.
var _ intent.Handler = (*Engine)(nil) //nolint:gochecknoglobals // compile-time check

// New creates an Engine.
func New(
	loop *Loop,
	tenants *registry.Registry,
	ledger *ranking.Ledger,
	rosterSvc *roster.Service,
	rooms *room.Scheduler,
	views *view.Reconciler,
	boards *board.Service,
) *Engine {
	return &Engine{
		loop:    loop,
		tenants: tenants,
		ledger:  ledger,
		roster:  rosterSvc,
		rooms:   rooms,
		views:   views,
		boards:  boards,
	}
}

// Run drives the loop and the room timers until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return e.loop.Run(ctx)
	})
	g.Go(func() error {
		return e.rooms.Run(ctx, func(fn func(context.Context)) {
			if err := e.loop.Submit(ctx, fn); err != nil {
				log.Debug().Err(err).Msg("timer fire dropped")
			}
		})
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Reattach re-arms persisted rooms and restores published readiness boards
// on the loop. It returns the number of rooms.
func (e *Engine) Reattach(ctx context.Context) (int, error) {
	var n int
	err := e.loop.Do(ctx, func(ctx context.Context) {
		n = e.rooms.Reattach(ctx)
		if boards := e.boards.Restore(ctx); boards > 0 {
			log.Ctx(ctx).Info().Int("boards", boards).Msg("readiness boards restored")
		}
	})
	if err != nil {
		return 0, fmt.Errorf("engine.Engine.Reattach: %w", err)
	}
	return n, nil
}

// Handle runs in on the loop and returns the reply for the actor.
func (e *Engine) Handle(ctx context.Context, in intent.Intent) intent.Reply {
	logger := log.Ctx(ctx).With().
		Str("intent_id", uuid.NewString()).
		Str("intent", in.Kind()).
		Str("tenant_id", in.Tenant()).
		Str("user_id", in.Actor()).
		Logger()
	ctx = logger.WithContext(ctx)

	var reply intent.Reply
	if err := e.loop.Do(ctx, func(ctx context.Context) {
		reply = e.dispatch(ctx, in)
	}); err != nil {
		logger.Error().Err(err).Msg("intent not handled")
		return private("❌ El servicio no está disponible, intenta de nuevo.")
	}

	if reply.Text == "" && reply.View == nil {
		return private("❌ Ocurrió un error inesperado.")
	}
	logger.Debug().Str("reply", reply.Text).Msg("intent handled")
	return reply
}

//nolint:gocyclo,cyclop // one case per intent
func (e *Engine) dispatch(ctx context.Context, in intent.Intent) intent.Reply {
	tenantID := in.Tenant()

	switch in := in.(type) {
	case intent.CreateTournament:
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return private("❌ El nombre del torneo no puede estar vacío.")
		}
		if err := e.roster.Create(ctx, tenantID, name); err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				return private(fmt.Sprintf("❌ El torneo **%s** ya existe.", name))
			}
			return e.fail(ctx, err)
		}
		return private(fmt.Sprintf("🏆 Torneo **%s** creado exitosamente!", name))

	case intent.JoinTournament:
		name, ok := e.tournament(tenantID, in.Tournament)
		if !ok {
			return selectFirst()
		}
		team := strings.TrimSpace(in.Team)
		if team == "" {
			return private("❌ El nombre del equipo no puede estar vacío.")
		}
		if err := e.roster.Join(ctx, tenantID, name, in.UserID, team); err != nil {
			return e.fail(ctx, err)
		}
		return private(fmt.Sprintf("✅ Te has unido al torneo **%s** con el equipo **%s**!", name, team))

	case intent.ChangeTeam:
		name, ok := e.tournament(tenantID, in.Tournament)
		if !ok {
			return selectFirst()
		}
		team := strings.TrimSpace(in.Team)
		if team == "" {
			return private("❌ El nombre del equipo no puede estar vacío.")
		}
		var prev string
		if tr, ok := e.tenants.View(tenantID).Tournaments[name]; ok {
			prev, _ = tr.TeamOf(in.UserID)
		}
		if err := e.roster.ChangeTeam(ctx, tenantID, name, in.UserID, team); err != nil {
			if errors.Is(err, domain.ErrNotMember) {
				return private("❌ No estás inscrito en este torneo.")
			}
			return e.fail(ctx, err)
		}
		return private(fmt.Sprintf("🔄 Has cambiado de **%s** a **%s**!", prev, team))

	case intent.RemoveMember:
		name, ok := e.tournament(tenantID, in.Tournament)
		if !ok {
			return selectFirst()
		}
		if err := e.roster.RemoveMember(ctx, tenantID, name, strings.TrimSpace(in.Member)); err != nil {
			if errors.Is(err, domain.ErrNotMember) {
				return private("❌ Usuario no inscrito en este torneo.")
			}
			return e.fail(ctx, err)
		}
		return private("❌ Usuario eliminado del torneo.")

	case intent.RemoveTeam:
		name, ok := e.tournament(tenantID, in.Tournament)
		if !ok {
			return selectFirst()
		}
		team := strings.TrimSpace(in.Team)
		n, err := e.roster.RemoveTeam(ctx, tenantID, name, team)
		if err != nil {
			return e.fail(ctx, err)
		}
		return private(fmt.Sprintf("❌ Equipo **%s** eliminado (%d miembros removidos).", team, n))

	case intent.Finalize:
		name, ok := e.tournament(tenantID, in.Tournament)
		if !ok {
			return selectFirst()
		}
		if err := e.roster.Finalize(ctx, tenantID, name, in.Token); err != nil {
			return e.fail(ctx, err)
		}
		return private(fmt.Sprintf("✅ Torneo **%s** finalizado y roles eliminados.", name))

	case intent.RecordWin:
		team := strings.TrimSpace(in.Team)
		if team == "" {
			return private("❌ El nombre del equipo no puede estar vacío.")
		}
		name, _ := e.tournament(tenantID, in.Tournament)
		total := e.roster.RecordWin(ctx, tenantID, name, team)
		return private(fmt.Sprintf("🏆 Equipo **%s** registrado como ganador! Total victorias: %d", team, total))

	case intent.SelectTournament:
		if err := e.roster.Select(ctx, tenantID, in.Tournament); err != nil {
			return e.fail(ctx, err)
		}
		return private(fmt.Sprintf("✅ Torneo seleccionado: **%s**", in.Tournament))

	case intent.CreateRoom:
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return private("❌ El nombre de la sala no puede estar vacío.")
		}
		if _, err := e.rooms.Create(ctx, tenantID, name, in.Open, in.Close, in.ChannelID); err != nil {
			return e.fail(ctx, err)
		}
		return private(fmt.Sprintf("✅ Sala **%s** creada exitosamente!", name))

	case intent.JoinRoom:
		r, err := e.rooms.Join(ctx, tenantID, in.RoomID, in.UserID)
		if err != nil {
			return e.fail(ctx, err)
		}
		return private(fmt.Sprintf("✅ Te uniste a la sala **%s** 🎮", r.Name))

	case intent.CloseRoom:
		if err := e.rooms.Close(ctx, tenantID, in.RoomID); err != nil {
			return e.fail(ctx, err)
		}
		return private("✅ Sala cerrada.")

	case intent.PublishDashboard:
		if err := e.views.Publish(ctx, tenantID, in.ChannelID); err != nil {
			return e.fail(ctx, err)
		}
		return private("✅ Dashboard publicado.")

	case intent.Refresh:
		if err := e.views.Refresh(ctx, tenantID); err != nil {
			return e.fail(ctx, err)
		}
		return private("✅ Dashboard actualizado")

	case intent.ShowRanking:
		limit := in.Limit
		if limit <= 0 {
			limit = RankingListSize
		}
		if e.ledger.Len() == 0 {
			return private("📊 No hay datos de ranking aún.")
		}
		p := view.Ranking(e.ledger.Top(limit), e.ledger.Len())
		return intent.Reply{View: &p}

	case intent.ListRooms:
		rooms := e.rooms.List(tenantID)
		if len(rooms) == 0 {
			return private("🎮 No hay salas activas actualmente.")
		}
		p := view.Rooms(rooms)
		return intent.Reply{Private: true, View: &p}

	case intent.OpenBoard:
		if err := e.boards.Open(ctx, tenantID, in.ChannelID); err != nil {
			return e.fail(ctx, err)
		}
		return private("✅ Sala de notificaciones abierta!")

	case intent.CloseBoard:
		e.boards.Close(ctx, tenantID)
		return private("✅ Sala de notificaciones cerrada y lista limpiada!")

	case intent.MarkReady:
		switch in.State {
		case domain.ReadyConfirmed:
			e.boards.Mark(ctx, tenantID, in.UserID, in.State)
			return private(fmt.Sprintf("✅ %s ¡Estás anotado para hoy! 🔥", view.Mention(in.UserID)))
		case domain.ReadyNotify:
			e.boards.Mark(ctx, tenantID, in.UserID, in.State)
			return private(fmt.Sprintf("✅ %s ¡Te notificaremos cuando sea! 🔔", view.Mention(in.UserID)))
		}
		return private("❌ Acción no reconocida.")

	case intent.ScrimReady:
		return intent.Reply{Text: fmt.Sprintf("⚔️ %s está listo para SCRIM!", view.Mention(in.UserID))}

	default:
		log.Ctx(ctx).Warn().Msg("unsupported intent")
		return private("❌ Acción no soportada.")
	}
}

// tournament resolves an explicit name or falls back to the tenant selection.
func (e *Engine) tournament(tenantID, name string) (string, bool) {
	if name = strings.TrimSpace(name); name != "" {
		return name, true
	}
	t := e.tenants.View(tenantID)
	if _, ok := t.SelectedTournament(); ok {
		return t.Selection, true
	}
	return "", false
}

// fail maps domain errors to replies and logs anything unexpected.
func (e *Engine) fail(ctx context.Context, err error) intent.Reply {
	switch {
	case errors.Is(err, domain.ErrConfirmationRequired):
		return private(fmt.Sprintf("❌ Debes escribir '%s' exactamente.", domain.ConfirmationToken))
	case errors.Is(err, domain.ErrTournamentNotFound):
		return private("❌ Torneo no existe.")
	case errors.Is(err, domain.ErrRoomNotFound):
		return private("❌ Sala no encontrada")
	case errors.Is(err, domain.ErrNotMember):
		return private("❌ Usuario no inscrito en este torneo.")
	case errors.Is(err, domain.ErrRoomClosed):
		return private("❌ La sala está cerrada en este horario ⏰")
	case errors.Is(err, domain.ErrInvalidTime):
		return private("❌ Formato de hora inválido. Usa HH:MM")
	case errors.Is(err, domain.ErrAlreadyExists):
		return private("❌ Ya existe.")
	case errors.Is(err, domain.ErrNotFound):
		return private("❌ No encontrado.")
	}

	log.Ctx(ctx).Error().Err(err).Msg("intent failed")
	return private("❌ Ocurrió un error inesperado.")
}

func private(text string) intent.Reply {
	return intent.Reply{Text: text, Private: true}
}

func selectFirst() intent.Reply {
	return private("❌ Selecciona un torneo primero usando el menú desplegable.")
}

// Ranking returns the top n entries and the number of ranked teams.
func (e *Engine) Ranking(ctx context.Context, n int) ([]ranking.Entry, int, error) {
	var (
		top   []ranking.Entry
		total int
	)
	err := e.loop.Do(ctx, func(context.Context) {
		top = e.ledger.Top(n)
		total = e.ledger.Len()
	})
	if err != nil {
		return nil, 0, fmt.Errorf("engine.Engine.Ranking: %w", err)
	}
	return top, total, nil
}

// Rooms returns copies of a tenant's active rooms.
func (e *Engine) Rooms(ctx context.Context, tenantID string) ([]domain.Room, error) {
	var out []domain.Room
	err := e.loop.Do(ctx, func(context.Context) {
		for _, r := range e.rooms.List(tenantID) {
			cp := *r
			cp.Players = append([]string(nil), r.Players...)
			out = append(out, cp)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("engine.Engine.Rooms: %w", err)
	}
	return out, nil
}

// Dashboard renders the tenant's live view payload without publishing it.
func (e *Engine) Dashboard(ctx context.Context, tenantID string) (gateway.Payload, error) {
	var p gateway.Payload
	err := e.loop.Do(ctx, func(context.Context) {
		p = e.views.Dashboard(e.tenants.View(tenantID))
	})
	if err != nil {
		return gateway.Payload{}, fmt.Errorf("engine.Engine.Dashboard: %w", err)
	}
	return p, nil
}

// Ready returns a copy of a tenant's readiness board sign-ups.
func (e *Engine) Ready(ctx context.Context, tenantID string) ([]domain.ReadyPlayer, error) {
	var out []domain.ReadyPlayer
	err := e.loop.Do(ctx, func(context.Context) {
		out = e.boards.Ready(tenantID)
	})
	if err != nil {
		return nil, fmt.Errorf("engine.Engine.Ready: %w", err)
	}
	return out, nil
}

// Tenants returns the ids of every known tenant.
func (e *Engine) Tenants(ctx context.Context) ([]string, error) {
	var ids []string
	err := e.loop.Do(ctx, func(context.Context) {
		for _, t := range e.tenants.Tenants() {
			ids = append(ids, t.ID)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("engine.Engine.Tenants: %w", err)
	}
	return ids, nil
}
