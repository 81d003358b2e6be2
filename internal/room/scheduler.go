// Package room runs timed rooms: a daily join window, a reminder shortly before
// the deadline, and a close that releases the shared room role.
package room

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/torneo/internal/clock"
	"github.com/gosuda/torneo/internal/domain"
	"github.com/gosuda/torneo/internal/gateway"
	"github.com/gosuda/torneo/internal/view"
)

const (
	DefaultReminderLead = 10 * time.Minute
	DefaultRole         = "Jugador"

	// idleWait bounds how long the driver sleeps with nothing queued.
	idleWait = time.Hour
)

// Tenants is the subset of registry.Registry used by the scheduler.
type Tenants interface {
	Lookup(id string) (*domain.Tenant, bool)
	View(id string) *domain.Tenant
	Ensure(id string) *domain.Tenant
	Tenants() []*domain.Tenant
	Commit(ctx context.Context)
}

// Refresher republishes a tenant's live view.
type Refresher interface {
	Refresh(ctx context.Context, tenantID string) error
}

// Config tunes the scheduler.
type Config struct {
	// Role is the label granted to every player of any room.
	Role         string
	ReminderLead time.Duration
}

// Scheduler owns room lifecycles. Its methods other than Run must be called
// from the engine loop.
type Scheduler struct {
	tenants Tenants
	gw      gateway.Gateway
	views   Refresher
	now     clock.NowFunc
	ids     *snowflake.Node
	timers  *Timers
	role    string
	lead    time.Duration
}

// New creates a Scheduler.
func New(tenants Tenants, gw gateway.Gateway, views Refresher, now clock.NowFunc, ids *snowflake.Node, cfg Config) *Scheduler {
	if cfg.Role == "" {
		cfg.Role = DefaultRole
	}
	if cfg.ReminderLead <= 0 {
		cfg.ReminderLead = DefaultReminderLead
	}
	return &Scheduler{
		tenants: tenants,
		gw:      gw,
		views:   views,
		now:     now,
		ids:     ids,
		timers:  NewTimers(),
		role:    cfg.Role,
		lead:    cfg.ReminderLead,
	}
}

// Timers exposes the pending fire queue.
func (s *Scheduler) Timers() *Timers {
	return s.timers
}

// Create adds an OPEN room, publishes its view and arms its timers. The
// deadline is the next occurrence of closeAt after now.
func (s *Scheduler) Create(ctx context.Context, tenantID, name, openAt, closeAt, channelID string) (*domain.Room, error) {
	open, err := domain.ParseTimeOfDay(openAt)
	if err != nil {
		return nil, fmt.Errorf("room.Scheduler.Create: open: %w", err)
	}
	closing, err := domain.ParseTimeOfDay(closeAt)
	if err != nil {
		return nil, fmt.Errorf("room.Scheduler.Create: close: %w", err)
	}

	now := s.now()
	r := &domain.Room{
		ID:        s.ids.Generate().String(),
		Name:      name,
		Open:      open,
		Close:     closing,
		Players:   []string{},
		ChannelID: channelID,
		State:     domain.RoomStateOpen,
		Deadline:  closing.Next(now),
	}

	t := s.tenants.Ensure(tenantID)
	t.Rooms[r.ID] = r
	s.tenants.Commit(ctx)

	logger := log.Ctx(ctx).With().Str("tenant_id", tenantID).Str("room_id", r.ID).Logger()

	ref, err := s.gw.PublishView(ctx, channelID, view.Room(r))
	if err != nil {
		logger.Warn().Err(err).Msg("publish room view")
	} else {
		r.MessageID = ref.MessageID
		s.tenants.Commit(ctx)
	}

	s.arm(tenantID, r, now)

	logger.Info().
		Str("name", name).
		Stringer("open", open).
		Stringer("close", closing).
		Time("deadline", r.Deadline).
		Msg("room created")

	s.refresh(ctx, tenantID)
	return r, nil
}

// Join adds userID to the room and grants the shared room role. A second join
// by the same user changes nothing.
func (s *Scheduler) Join(ctx context.Context, tenantID, roomID, userID string) (*domain.Room, error) {
	r, ok := s.lookup(tenantID, roomID)
	if !ok {
		return nil, fmt.Errorf("room.Scheduler.Join: %q: %w", roomID, domain.ErrRoomNotFound)
	}
	if !r.AcceptsJoins(s.now()) {
		return r, fmt.Errorf("room.Scheduler.Join: %q: %w", roomID, domain.ErrRoomClosed)
	}
	if !r.AddPlayer(userID) {
		return r, nil
	}
	s.tenants.Commit(ctx)

	report := gateway.NewReport("room.join")
	report.Record(userID, s.gw.GrantRole(ctx, tenantID, userID, s.role))
	if !r.View().IsZero() {
		report.Record("view:"+r.ID, s.gw.UpdateView(ctx, r.View(), view.Room(r)))
	}
	report.Log(ctx)

	return r, nil
}

// Close runs the close transition now. Pending timers of the room are dropped.
func (s *Scheduler) Close(ctx context.Context, tenantID, roomID string) error {
	if _, ok := s.lookup(tenantID, roomID); !ok {
		return fmt.Errorf("room.Scheduler.Close: %q: %w", roomID, domain.ErrRoomNotFound)
	}
	s.timers.Cancel(tenantID, roomID)
	s.close(ctx, tenantID, roomID)
	return nil
}

// List returns the tenant's rooms by deadline.
func (s *Scheduler) List(tenantID string) []*domain.Room {
	return s.tenants.View(tenantID).SortedRooms()
}

// Reattach restores every persisted room's view and re-arms its timers from
// the stored deadline. A deadline that passed while the process was down
// closes the room on the next fire, without a reminder.
func (s *Scheduler) Reattach(ctx context.Context) int {
	now := s.now()
	n := 0
	for _, t := range s.tenants.Tenants() {
		for _, r := range t.SortedRooms() {
			if !r.View().IsZero() {
				if err := s.gw.RestoreView(ctx, r.View(), view.Room(r)); err != nil {
					log.Ctx(ctx).Warn().Err(err).
						Str("tenant_id", t.ID).
						Str("room_id", r.ID).
						Msg("restore room view")
				}
			}
			s.arm(t.ID, r, now)
			n++
		}
	}
	log.Ctx(ctx).Info().Int("rooms", n).Int("timers", s.timers.Len()).Msg("rooms reattached")
	return n
}

// FireDue runs every timer due at now. It must be called from the engine loop.
func (s *Scheduler) FireDue(ctx context.Context, now time.Time) int {
	due := s.timers.PopDue(now)
	for _, t := range due {
		s.Fire(ctx, t)
	}
	return len(due)
}

// Fire runs one timer.
func (s *Scheduler) Fire(ctx context.Context, t Timer) {
	switch t.Kind {
	case TimerReminder:
		s.remind(ctx, t.TenantID, t.RoomID)
	case TimerClose:
		s.close(ctx, t.TenantID, t.RoomID)
	}
}

// Run sleeps until the earliest pending timer and hands due timers to submit,
// which must run them on the engine loop. It returns when ctx is done.
func (s *Scheduler) Run(ctx context.Context, submit func(func(context.Context))) error {
	timer := time.NewTimer(idleWait)
	defer timer.Stop()

	for {
		wait := idleWait
		if at, ok := s.timers.Next(); ok {
			wait = max(at.Sub(s.now()), 0)
		}
		timer.Reset(wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.timers.Wake():
		case <-timer.C:
			for _, t := range s.timers.PopDue(s.now()) {
				submit(func(ctx context.Context) { s.Fire(ctx, t) })
			}
		}
	}
}

// arm queues the room's remaining fires relative to now.
func (s *Scheduler) arm(tenantID string, r *domain.Room, now time.Time) {
	if r.State == domain.RoomStateClosing || !r.Deadline.After(now) {
		s.timers.Schedule(Timer{TenantID: tenantID, RoomID: r.ID, Kind: TimerClose, At: now})
		return
	}
	if r.State == domain.RoomStateOpen {
		at := r.Deadline.Add(-s.lead)
		if at.Before(now) {
			at = now
		}
		s.timers.Schedule(Timer{TenantID: tenantID, RoomID: r.ID, Kind: TimerReminder, At: at})
	}
	s.timers.Schedule(Timer{TenantID: tenantID, RoomID: r.ID, Kind: TimerClose, At: r.Deadline})
}

func (s *Scheduler) remind(ctx context.Context, tenantID, roomID string) {
	logger := log.Ctx(ctx).With().Str("tenant_id", tenantID).Str("room_id", roomID).Logger()

	r, ok := s.lookup(tenantID, roomID)
	if !ok {
		logger.Debug().Msg("reminder for a room that no longer exists")
		return
	}
	if r.State != domain.RoomStateOpen {
		return
	}

	r.State = domain.RoomStateReminderSent
	s.tenants.Commit(ctx)

	minutes := max(int(math.Ceil(r.Deadline.Sub(s.now()).Minutes())), 1)
	text := fmt.Sprintf("⏰ La sala **%s** cierra en %d minutos!", r.Name, minutes)
	if minutes == 1 {
		text = fmt.Sprintf("⏰ La sala **%s** cierra en 1 minuto!", r.Name)
	}
	if err := s.gw.NotifyChannel(ctx, r.ChannelID, text); err != nil {
		logger.Warn().Err(err).Msg("send room reminder")
		return
	}
	logger.Info().Msg("room reminder sent")
}

func (s *Scheduler) close(ctx context.Context, tenantID, roomID string) {
	logger := log.Ctx(ctx).With().Str("tenant_id", tenantID).Str("room_id", roomID).Logger()

	t, ok := s.tenants.Lookup(tenantID)
	if !ok {
		logger.Debug().Msg("close for an unknown tenant")
		return
	}
	r, ok := t.Rooms[roomID]
	if !ok {
		logger.Debug().Msg("close for a room that no longer exists")
		return
	}

	r.State = domain.RoomStateClosing
	s.tenants.Commit(ctx)

	report := gateway.NewReport("room.close")
	for _, uid := range r.Players {
		if playsElsewhere(t, roomID, uid) {
			continue
		}
		report.Record(uid, s.gw.RevokeRole(ctx, tenantID, uid, s.role))
	}
	if !r.View().IsZero() {
		report.Record("view:"+r.ID, s.gw.DisableView(ctx, r.View(), view.Room(r)))
	}

	delete(t.Rooms, roomID)
	s.tenants.Commit(ctx)
	report.Log(ctx)

	logger.Info().Str("name", r.Name).Int("players", len(r.Players)).Msg("room closed")
	s.refresh(ctx, tenantID)
}

func (s *Scheduler) lookup(tenantID, roomID string) (*domain.Room, bool) {
	t, ok := s.tenants.Lookup(tenantID)
	if !ok {
		return nil, false
	}
	r, ok := t.Rooms[roomID]
	return r, ok
}

func (s *Scheduler) refresh(ctx context.Context, tenantID string) {
	if err := s.views.Refresh(ctx, tenantID); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("tenant_id", tenantID).Msg("refresh live view")
	}
}

// playsElsewhere reports whether userID is a player of another live room.
func playsElsewhere(t *domain.Tenant, roomID, userID string) bool {
	for id, other := range t.Rooms {
		if id != roomID && other.State != domain.RoomStateClosing && other.HasPlayer(userID) {
			return true
		}
	}
	return false
}
