package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/torneo/internal/domain"
)

// Failure is one side effect that did not apply.
type Failure struct {
	Entity string
	Err    error
}

// Report collects the failures of a best-effort batch of side effects so the
// batch can finish and log once.
type Report struct {
	Op       string
	Attempts int
	Failures []Failure
}

// NewReport starts a report for op.
func NewReport(op string) *Report {
	return &Report{Op: op}
}

// Record notes the outcome of one side effect on entity.
func (r *Report) Record(entity string, err error) {
	r.Attempts++
	if err != nil {
		r.Failures = append(r.Failures, Failure{Entity: entity, Err: err})
	}
}

// OK reports whether every side effect applied.
func (r *Report) OK() bool {
	return len(r.Failures) == 0
}

// Err joins the failures under domain.ErrGateway, or returns nil.
func (r *Report) Err() error {
	if r.OK() {
		return nil
	}
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, fmt.Errorf("%s: %w", f.Entity, f.Err))
	}
	return fmt.Errorf("%s: %w: %w", r.Op, domain.ErrGateway, errors.Join(errs...))
}

// Log writes a single warning when anything failed.
func (r *Report) Log(ctx context.Context) {
	if r.OK() {
		return
	}
	entities := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		entities = append(entities, f.Entity)
	}
	log.Ctx(ctx).Warn().
		Err(r.Err()).
		Str("op", r.Op).
		Int("attempts", r.Attempts).
		Strs("failed", entities).
		Msg("side effects partially applied")
}
