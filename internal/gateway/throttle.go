package gateway

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/gosuda/torneo/internal/domain"
)

// Throttled wraps a Gateway so every call waits on a shared token bucket,
// keeping bursts (a room close revoking dozens of roles) under the
// platform's rate limits.
type Throttled struct {
	next    Gateway
	limiter *rate.Limiter
}

// Compile-time interface check.
var _ Gateway = (*Throttled)(nil) //nolint:gochecknoglobals // compile-time check

// NewThrottled allows rps calls per second with the given burst.
func NewThrottled(next Gateway, rps float64, burst int) *Throttled {
	return &Throttled{next: next, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (t *Throttled) wait(ctx context.Context, op string) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("gateway.Throttled.%s: %w", op, err)
	}
	return nil
}

// PublishView implements Gateway.
func (t *Throttled) PublishView(ctx context.Context, channelID string, p Payload) (domain.ViewRef, error) {
	if err := t.wait(ctx, "PublishView"); err != nil {
		return domain.ViewRef{}, err
	}
	return t.next.PublishView(ctx, channelID, p)
}

// UpdateView implements Gateway.
func (t *Throttled) UpdateView(ctx context.Context, ref domain.ViewRef, p Payload) error {
	if err := t.wait(ctx, "UpdateView"); err != nil {
		return err
	}
	return t.next.UpdateView(ctx, ref, p)
}

// DisableView implements Gateway.
func (t *Throttled) DisableView(ctx context.Context, ref domain.ViewRef, p Payload) error {
	if err := t.wait(ctx, "DisableView"); err != nil {
		return err
	}
	return t.next.DisableView(ctx, ref, p)
}

// RestoreView implements Gateway.
func (t *Throttled) RestoreView(ctx context.Context, ref domain.ViewRef, p Payload) error {
	if err := t.wait(ctx, "RestoreView"); err != nil {
		return err
	}
	return t.next.RestoreView(ctx, ref, p)
}

// EnsureRole implements Gateway.
func (t *Throttled) EnsureRole(ctx context.Context, tenantID, label string) error {
	if err := t.wait(ctx, "EnsureRole"); err != nil {
		return err
	}
	return t.next.EnsureRole(ctx, tenantID, label)
}

// DeleteRole implements Gateway.
func (t *Throttled) DeleteRole(ctx context.Context, tenantID, label string) error {
	if err := t.wait(ctx, "DeleteRole"); err != nil {
		return err
	}
	return t.next.DeleteRole(ctx, tenantID, label)
}

// GrantRole implements Gateway.
func (t *Throttled) GrantRole(ctx context.Context, tenantID, userID, label string) error {
	if err := t.wait(ctx, "GrantRole"); err != nil {
		return err
	}
	return t.next.GrantRole(ctx, tenantID, userID, label)
}

// RevokeRole implements Gateway.
func (t *Throttled) RevokeRole(ctx context.Context, tenantID, userID, label string) error {
	if err := t.wait(ctx, "RevokeRole"); err != nil {
		return err
	}
	return t.next.RevokeRole(ctx, tenantID, userID, label)
}

// NotifyChannel implements Gateway.
func (t *Throttled) NotifyChannel(ctx context.Context, channelID, text string) error {
	if err := t.wait(ctx, "NotifyChannel"); err != nil {
		return err
	}
	return t.next.NotifyChannel(ctx, channelID, text)
}

// Platform implements Gateway.
func (t *Throttled) Platform() string {
	return t.next.Platform()
}
