package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// ErrStopped is returned for work submitted to a loop that is not running.
var ErrStopped = errors.New("engine: loop stopped") //nolint:gochecknoglobals // sentinel error

type job struct {
	ctx  context.Context //nolint:containedctx // carried to the loop goroutine
	fn   func(context.Context)
	done chan struct{}
}

// Loop runs jobs one at a time on a single goroutine. Everything that touches
// tenant state goes through it, so that state needs no locks.
type Loop struct {
	jobs    chan job
	stopped chan struct{}
}

// NewLoop creates a loop whose queue holds up to size pending jobs.
func NewLoop(size int) *Loop {
	return &Loop{
		jobs:    make(chan job, size),
		stopped: make(chan struct{}),
	}
}

// Run executes jobs until ctx is done. It must be called once.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.stopped)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case j := <-l.jobs:
			l.exec(j)
		}
	}
}

func (l *Loop) exec(j job) {
	defer func() {
		if j.done != nil {
			close(j.done)
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			log.Ctx(j.ctx).Error().Interface("panic", r).Msg("loop job panicked")
		}
	}()

	j.fn(j.ctx)
}

// Submit queues fn without waiting for it to run. fn receives ctx.
func (l *Loop) Submit(ctx context.Context, fn func(context.Context)) error {
	return l.enqueue(ctx, job{ctx: ctx, fn: fn})
}

// Do runs fn on the loop and waits for it. fn receives ctx without its
// cancellation, so a caller that gives up does not interrupt a mutation halfway.
func (l *Loop) Do(ctx context.Context, fn func(context.Context)) error {
	done := make(chan struct{})
	if err := l.enqueue(ctx, job{ctx: context.WithoutCancel(ctx), fn: fn, done: done}); err != nil {
		return err
	}

	select {
	case <-done:
		return nil
	case <-l.stopped:
		// The job may still have completed before the loop exited.
		select {
		case <-done:
			return nil
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return fmt.Errorf("engine.Loop.Do: %w", ctx.Err())
	}
}

func (l *Loop) enqueue(ctx context.Context, j job) error {
	select {
	case <-l.stopped:
		return ErrStopped
	default:
	}

	select {
	case l.jobs <- j:
		return nil
	case <-l.stopped:
		return ErrStopped
	case <-ctx.Done():
		return fmt.Errorf("engine.Loop: enqueue: %w", ctx.Err())
	}
}
