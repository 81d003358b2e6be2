// Package gatewaytest provides an in-memory gateway.Gateway that records every
// call, for tests of the packages that drive the gateway.
package gatewaytest

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/gosuda/torneo/internal/domain"
	"github.com/gosuda/torneo/internal/gateway"
)

// ErrInjected is the default error returned by failing operations.
var ErrInjected = errors.New("gatewaytest: injected failure") //nolint:gochecknoglobals // sentinel error

// Call is one recorded gateway invocation.
type Call struct {
	Op        string
	TenantID  string
	ChannelID string
	UserID    string
	Label     string
	Text      string
	Ref       domain.ViewRef
	Payload   gateway.Payload
}

// Fake records calls and models views and role membership in memory.
type Fake struct {
	mu      sync.Mutex
	calls   []Call
	nextID  int
	views   map[string]gateway.Payload
	roles   map[string]bool
	members map[string]bool

	// Fail maps an operation name ("GrantRole", "UpdateView", ...) to the
	// error it returns.
	Fail map[string]error
	// FailUsers makes GrantRole/RevokeRole fail for the listed user ids.
	FailUsers map[string]bool
}

// Compile-time interface check.
var _ gateway.Gateway = (*Fake)(nil) //nolint:gochecknoglobals // compile-time check

// New returns an empty Fake.
func New() *Fake {
	return &Fake{
		views:     make(map[string]gateway.Payload),
		roles:     make(map[string]bool),
		members:   make(map[string]bool),
		Fail:      make(map[string]error),
		FailUsers: make(map[string]bool),
	}
}

func (f *Fake) record(c Call) error {
	f.calls = append(f.calls, c)
	return f.Fail[c.Op]
}

func roleKey(tenantID, label string) string { return tenantID + "\x00" + label }

func memberKey(tenantID, userID, label string) string {
	return tenantID + "\x00" + userID + "\x00" + label
}

// PublishView implements gateway.Gateway.
func (f *Fake) PublishView(_ context.Context, channelID string, p gateway.Payload) (domain.ViewRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record(Call{Op: "PublishView", ChannelID: channelID, Payload: p}); err != nil {
		return domain.ViewRef{}, err
	}
	f.nextID++
	ref := domain.ViewRef{ChannelID: channelID, MessageID: "msg-" + strconv.Itoa(f.nextID)}
	f.views[ref.MessageID] = p
	return ref, nil
}

// UpdateView implements gateway.Gateway.
func (f *Fake) UpdateView(_ context.Context, ref domain.ViewRef, p gateway.Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record(Call{Op: "UpdateView", Ref: ref, Payload: p}); err != nil {
		return err
	}
	if _, ok := f.views[ref.MessageID]; !ok {
		return gateway.ErrViewNotFound
	}
	f.views[ref.MessageID] = p
	return nil
}

// DisableView implements gateway.Gateway.
func (f *Fake) DisableView(_ context.Context, ref domain.ViewRef, p gateway.Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record(Call{Op: "DisableView", Ref: ref, Payload: p}); err != nil {
		return err
	}
	p.Closed = true
	f.views[ref.MessageID] = p
	return nil
}

// RestoreView implements gateway.Gateway.
func (f *Fake) RestoreView(_ context.Context, ref domain.ViewRef, p gateway.Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.record(Call{Op: "RestoreView", Ref: ref, Payload: p})
}

// EnsureRole implements gateway.Gateway.
func (f *Fake) EnsureRole(_ context.Context, tenantID, label string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record(Call{Op: "EnsureRole", TenantID: tenantID, Label: label}); err != nil {
		return err
	}
	f.roles[roleKey(tenantID, label)] = true
	return nil
}

// DeleteRole implements gateway.Gateway.
func (f *Fake) DeleteRole(_ context.Context, tenantID, label string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record(Call{Op: "DeleteRole", TenantID: tenantID, Label: label}); err != nil {
		return err
	}
	delete(f.roles, roleKey(tenantID, label))
	return nil
}

// GrantRole implements gateway.Gateway.
func (f *Fake) GrantRole(_ context.Context, tenantID, userID, label string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record(Call{Op: "GrantRole", TenantID: tenantID, UserID: userID, Label: label}); err != nil {
		return err
	}
	if f.FailUsers[userID] {
		return ErrInjected
	}
	f.roles[roleKey(tenantID, label)] = true
	f.members[memberKey(tenantID, userID, label)] = true
	return nil
}

// RevokeRole implements gateway.Gateway.
func (f *Fake) RevokeRole(_ context.Context, tenantID, userID, label string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record(Call{Op: "RevokeRole", TenantID: tenantID, UserID: userID, Label: label}); err != nil {
		return err
	}
	if f.FailUsers[userID] {
		return ErrInjected
	}
	delete(f.members, memberKey(tenantID, userID, label))
	return nil
}

// NotifyChannel implements gateway.Gateway.
func (f *Fake) NotifyChannel(_ context.Context, channelID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.record(Call{Op: "NotifyChannel", ChannelID: channelID, Text: text})
}

// Platform implements gateway.Gateway.
func (f *Fake) Platform() string { return "fake" }

// Calls returns a copy of every recorded call.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsOf returns the recorded calls of one operation.
func (f *Fake) CallsOf(op string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Call
	for _, c := range f.calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets recorded calls but keeps views and roles.
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

// HasRole reports whether userID currently holds label in tenantID.
func (f *Fake) HasRole(tenantID, userID, label string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.members[memberKey(tenantID, userID, label)]
}

// RoleExists reports whether label is provisioned in tenantID.
func (f *Fake) RoleExists(tenantID, label string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.roles[roleKey(tenantID, label)]
}

// View returns the current payload of a published view.
func (f *Fake) View(messageID string) (gateway.Payload, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.views[messageID]
	return p, ok
}

// DropView simulates a view deleted on the platform.
func (f *Fake) DropView(messageID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.views, messageID)
}

// Notices returns the texts posted through NotifyChannel to channelID.
func (f *Fake) Notices(channelID string) []string {
	var out []string
	for _, c := range f.CallsOf("NotifyChannel") {
		if c.ChannelID == channelID {
			out = append(out, c.Text)
		}
	}
	return out
}
