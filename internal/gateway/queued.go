package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/torneo/internal/domain"
)

// DefaultDrainTimeout bounds how long Run keeps executing queued calls after
// its context is done.
const DefaultDrainTimeout = 5 * time.Second

type task struct {
	op     string
	entity string
	logger zerolog.Logger
	fn     func(ctx context.Context) error
	done   chan struct{} // set by Flush only
}

// Queued wraps a Gateway so role changes, notices and view disabling run on
// one worker goroutine in submission order and return at once. Their failures
// are logged by the worker. View publish, update and restore stay synchronous
// since their results feed tenant state.
type Queued struct {
	next  Gateway
	tasks chan task
	drain time.Duration
}

// Compile-time interface check.
var _ Gateway = (*Queued)(nil) //nolint:gochecknoglobals // compile-time check

// NewQueued creates a Queued holding up to size pending calls. Run must be
// started for queued calls to execute.
func NewQueued(next Gateway, size int) *Queued {
	return &Queued{next: next, tasks: make(chan task, size), drain: DefaultDrainTimeout}
}

// Run executes queued calls until ctx is done, then drains what is left for
// up to DefaultDrainTimeout.
func (q *Queued) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			q.drainPending(ctx)
			return ctx.Err()
		case t := <-q.tasks:
			q.exec(ctx, t)
		}
	}
}

func (q *Queued) drainPending(ctx context.Context) {
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), q.drain)
	defer cancel()

	for {
		select {
		case t := <-q.tasks:
			q.exec(dctx, t)
		default:
			return
		}
	}
}

func (q *Queued) exec(ctx context.Context, t task) {
	if t.done != nil {
		close(t.done)
		return
	}
	if err := t.fn(t.logger.WithContext(ctx)); err != nil {
		t.logger.Warn().Err(err).Str("op", t.op).Str("entity", t.entity).Msg("queued gateway call failed")
	}
}

func (q *Queued) enqueue(ctx context.Context, t task) error {
	select {
	case q.tasks <- t:
		return nil
	default:
	}

	log.Ctx(ctx).Warn().Str("op", t.op).Int("pending", len(q.tasks)).Msg("gateway queue full")
	select {
	case q.tasks <- t:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("gateway.Queued.%s: %w", t.op, ctx.Err())
	}
}

func (q *Queued) submit(ctx context.Context, op, entity string, fn func(ctx context.Context) error) error {
	return q.enqueue(ctx, task{op: op, entity: entity, logger: *log.Ctx(ctx), fn: fn})
}

// Flush blocks until every call queued before it has run.
func (q *Queued) Flush(ctx context.Context) error {
	done := make(chan struct{})
	if err := q.enqueue(ctx, task{op: "Flush", done: done}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("gateway.Queued.Flush: %w", ctx.Err())
	}
}

// PublishView implements Gateway.
func (q *Queued) PublishView(ctx context.Context, channelID string, p Payload) (domain.ViewRef, error) {
	return q.next.PublishView(ctx, channelID, p)
}

// UpdateView implements Gateway.
func (q *Queued) UpdateView(ctx context.Context, ref domain.ViewRef, p Payload) error {
	return q.next.UpdateView(ctx, ref, p)
}

// RestoreView implements Gateway.
func (q *Queued) RestoreView(ctx context.Context, ref domain.ViewRef, p Payload) error {
	return q.next.RestoreView(ctx, ref, p)
}

// DisableView implements Gateway.
func (q *Queued) DisableView(ctx context.Context, ref domain.ViewRef, p Payload) error {
	return q.submit(ctx, "DisableView", ref.MessageID, func(ctx context.Context) error {
		return q.next.DisableView(ctx, ref, p)
	})
}

// EnsureRole implements Gateway.
func (q *Queued) EnsureRole(ctx context.Context, tenantID, label string) error {
	return q.submit(ctx, "EnsureRole", label, func(ctx context.Context) error {
		return q.next.EnsureRole(ctx, tenantID, label)
	})
}

// DeleteRole implements Gateway.
func (q *Queued) DeleteRole(ctx context.Context, tenantID, label string) error {
	return q.submit(ctx, "DeleteRole", label, func(ctx context.Context) error {
		return q.next.DeleteRole(ctx, tenantID, label)
	})
}

// GrantRole implements Gateway.
func (q *Queued) GrantRole(ctx context.Context, tenantID, userID, label string) error {
	return q.submit(ctx, "GrantRole", userID, func(ctx context.Context) error {
		return q.next.GrantRole(ctx, tenantID, userID, label)
	})
}

// RevokeRole implements Gateway.
func (q *Queued) RevokeRole(ctx context.Context, tenantID, userID, label string) error {
	return q.submit(ctx, "RevokeRole", userID, func(ctx context.Context) error {
		return q.next.RevokeRole(ctx, tenantID, userID, label)
	})
}

// NotifyChannel implements Gateway.
func (q *Queued) NotifyChannel(ctx context.Context, channelID, text string) error {
	return q.submit(ctx, "NotifyChannel", channelID, func(ctx context.Context) error {
		return q.next.NotifyChannel(ctx, channelID, text)
	})
}

// Platform implements Gateway.
func (q *Queued) Platform() string { return q.next.Platform() }
