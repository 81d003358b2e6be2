// Package view renders tenant state into gateway payloads and keeps each
// tenant's single live view in step with the registry.
package view

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/torneo/internal/domain"
	"github.com/gosuda/torneo/internal/gateway"
	"github.com/gosuda/torneo/internal/ranking"
)

const (
	// DashboardRankingSize is how many teams the live view lists.
	DashboardRankingSize = 10
	// MaxOptions is the most tournaments a selection control can offer.
	MaxOptions = 25
)

// Tenants is the subset of registry.Registry the reconciler needs.
type Tenants interface {
	Lookup(id string) (*domain.Tenant, bool)
	Ensure(id string) *domain.Tenant
	Commit(ctx context.Context)
}

// Standings is the subset of ranking.Ledger the reconciler needs.
type Standings interface {
	Top(n int) []ranking.Entry
}

// Reconciler republishes live views.
type Reconciler struct {
	tenants Tenants
	ledger  Standings
	gw      gateway.Gateway
}

// New creates a Reconciler.
func New(tenants Tenants, ledger Standings, gw gateway.Gateway) *Reconciler {
	return &Reconciler{tenants: tenants, ledger: ledger, gw: gw}
}

// Refresh edits the tenant's live view to match current state, publishing a
// fresh one when none exists or the platform lost it. Tenants without a live
// channel are skipped.
func (r *Reconciler) Refresh(ctx context.Context, tenantID string) error {
	t, ok := r.tenants.Lookup(tenantID)
	if !ok || t.ChannelID == "" {
		return nil
	}

	p := r.Dashboard(t)

	if t.LiveMessageID != "" {
		err := r.gw.UpdateView(ctx, t.LiveView(), p)
		if err == nil {
			return nil
		}
		if !errors.Is(err, gateway.ErrViewNotFound) {
			return fmt.Errorf("view.Reconciler.Refresh: update: %w", err)
		}
		log.Ctx(ctx).Info().
			Str("tenant_id", tenantID).
			Str("message_id", t.LiveMessageID).
			Msg("live view gone; publishing a new one")
		t.LiveMessageID = ""
		r.tenants.Commit(ctx)
	}

	ref, err := r.gw.PublishView(ctx, t.ChannelID, p)
	if err != nil {
		return fmt.Errorf("view.Reconciler.Refresh: publish: %w", err)
	}
	t.LiveMessageID = ref.MessageID
	r.tenants.Commit(ctx)

	return nil
}

// Publish makes channelID the tenant's live channel and posts a new live view
// there.
func (r *Reconciler) Publish(ctx context.Context, tenantID, channelID string) error {
	t := r.tenants.Ensure(tenantID)
	t.ChannelID = channelID
	t.LiveMessageID = ""
	r.tenants.Commit(ctx)

	return r.Refresh(ctx, tenantID)
}

// Dashboard builds the live view payload for t.
func (r *Reconciler) Dashboard(t *domain.Tenant) gateway.Payload {
	p := gateway.Payload{
		Kind:   gateway.KindDashboard,
		Title:  "📊 Dashboard de Torneos Interactivo",
		Footer: "Usa los botones y el menú para interactuar con los torneos",
	}

	switch tr, ok := t.SelectedTournament(); {
	case len(t.Tournaments) == 0:
		p.Description = "No hay torneos activos. Los admins pueden crear uno con el botón **Crear Torneo**."
	case ok:
		p.Sections = append(p.Sections, rosterSection(tr))
	default:
		p.Sections = append(p.Sections, summarySection(t))
	}

	if top := r.ledger.Top(DashboardRankingSize); len(top) > 0 {
		p.Sections = append(p.Sections, gateway.Section{
			Name:  "🏆 Ranking General (Top 10)",
			Lines: RankingLines(top),
		})
	}

	p.Sections = append(p.Sections, gateway.Section{
		Name:  "🎮 Salas Activas",
		Lines: []string{plural(len(t.Rooms), "sala activa", "salas activas")},
	})

	for i, name := range t.TournamentNames() {
		if i == MaxOptions {
			break
		}
		p.Options = append(p.Options, gateway.Option{
			Label:       name,
			Description: plural(len(t.Tournaments[name].Members), "participante", "participantes"),
		})
	}

	return p
}

func rosterSection(tr *domain.Tournament) gateway.Section {
	s := gateway.Section{Name: "🏆 Torneo: " + tr.Name}
	for _, team := range tr.Teams() {
		members := tr.MembersOf(team)
		s.Lines = append(s.Lines, fmt.Sprintf("**%s** (%d)", team, len(members)))
		for _, uid := range members {
			s.Lines = append(s.Lines, "  • "+Mention(uid))
		}
	}
	if len(s.Lines) == 0 {
		s.Lines = []string{"No hay participantes aún. ¡Únete usando el botón!"}
	}
	return s
}

func summarySection(t *domain.Tenant) gateway.Section {
	s := gateway.Section{Name: "Torneos Activos"}
	for _, name := range t.TournamentNames() {
		s.Lines = append(s.Lines, fmt.Sprintf("**%s**: %d participantes", name, len(t.Tournaments[name].Members)))
	}
	return s
}

// RankingLines formats standings with medals for the podium.
func RankingLines(entries []ranking.Entry) []string {
	lines := make([]string, 0, len(entries))
	for i, e := range entries {
		lines = append(lines, fmt.Sprintf("%s **%s**: %s", medal(i+1), e.Team, plural(e.Wins, "victoria", "victorias")))
	}
	return lines
}

// Ranking builds the standalone ranking listing.
func Ranking(entries []ranking.Entry, total int) gateway.Payload {
	return gateway.Payload{
		Title:       "🏆 Ranking General de Equipos",
		Description: strings.Join(RankingLines(entries), "\n"),
		Footer:      fmt.Sprintf("Total de %d equipos registrados", total),
	}
}

// Rooms builds the listing of a tenant's active rooms.
func Rooms(rooms []*domain.Room) gateway.Payload {
	p := gateway.Payload{
		Title:  "🎮 Salas Activas",
		Footer: "Usa el botón 'Crear Sala' en el panel admin para crear una nueva",
	}
	for _, room := range rooms {
		p.Sections = append(p.Sections, gateway.Section{
			Name: room.Name,
			Lines: []string{
				fmt.Sprintf("⏰ %s → %s", room.Open, room.Close),
				"👥 " + plural(len(room.Players), "jugador", "jugadores"),
			},
		})
	}
	return p
}

// Room builds the payload of a room's own view.
func Room(room *domain.Room) gateway.Payload {
	p := gateway.Payload{
		Kind:  gateway.KindRoom,
		Title: "🎮 Sala: " + room.Name,
		Description: fmt.Sprintf("⏰ Apertura: **%s** → Cierre: **%s**\n⏳ Cierra: %s",
			room.Open, room.Close, room.Deadline.Format("2006-01-02 15:04")),
		Footer: "Haz clic en el botón para unirte",
		RoomID: room.ID,
	}

	players := gateway.Section{Name: "👥 Jugadores (" + strconv.Itoa(len(room.Players)) + ")"}
	for _, uid := range room.Players {
		players.Lines = append(players.Lines, "• "+Mention(uid))
	}
	if len(players.Lines) == 0 {
		players.Lines = []string{"Nadie se ha unido todavía."}
	}
	p.Sections = []gateway.Section{players}

	if room.State == domain.RoomStateClosing {
		p.Footer = "Sala cerrada ⏰"
		p.Closed = true
	}
	return p
}

// Board builds the readiness board payload.
func Board(b *domain.Board) gateway.Payload {
	return gateway.Payload{
		Kind:        gateway.KindBoard,
		Title:       "🔥 Notificación de Salas Free Fire",
		Description: "¿Quieres jugar hoy? ¡Anótate aquí!",
		Sections: []gateway.Section{
			{Name: "🔥 Quiero jugar hoy", Lines: []string{"Confirma que estarás disponible"}},
			{Name: "🔔 Notificarme", Lines: []string{"Recibe una notificación cuando sea hora"}},
			{Name: "⚔️ Scrim Ready", Lines: []string{"Anuncia que estás listo para un scrim"}},
			{Name: "📋 Anotados", Lines: []string{
				fmt.Sprintf("🔥 %d confirmados", b.Count(domain.ReadyConfirmed)),
				fmt.Sprintf("🔔 %d por notificar", b.Count(domain.ReadyNotify)),
			}},
		},
	}
}

// Mention renders a user reference. Discord and Slack share the syntax.
func Mention(userID string) string {
	return "<@" + userID + ">"
}

func medal(pos int) string {
	switch pos {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return strconv.Itoa(pos) + "."
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return strconv.Itoa(n) + " " + many
}
