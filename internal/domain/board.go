package domain

import (
	"slices"
	"time"
)

// ReadyState records which readiness control a player pressed.
type ReadyState string

const (
	// ReadyConfirmed is "Quiero jugar hoy".
	ReadyConfirmed ReadyState = "confirmado"
	// ReadyNotify is "Notificarme".
	ReadyNotify ReadyState = "notificado"
)

// ReadyPlayer is one entry on a readiness board.
type ReadyPlayer struct {
	UserID string     `json:"userId"`
	State  ReadyState `json:"state"`
	At     time.Time  `json:"at"`
}

// Board is a tenant's readiness board: one published message where players
// sign up for the day's games. The list survives a board being reopened and
// is emptied only when the board is closed.
type Board struct {
	ChannelID string        `json:"channelId,omitempty"`
	MessageID string        `json:"messageId,omitempty"`
	Ready     []ReadyPlayer `json:"ready,omitempty"`
}

// View returns the reference to the published board.
func (b *Board) View() ViewRef {
	return ViewRef{ChannelID: b.ChannelID, MessageID: b.MessageID}
}

// IsReady reports whether userID is on the list.
func (b *Board) IsReady(userID string) bool {
	return slices.ContainsFunc(b.Ready, func(p ReadyPlayer) bool { return p.UserID == userID })
}

// Mark lists userID unless already present. The first state recorded wins.
// It reports whether the list changed.
func (b *Board) Mark(userID string, state ReadyState, at time.Time) bool {
	if b.IsReady(userID) {
		return false
	}
	b.Ready = append(b.Ready, ReadyPlayer{UserID: userID, State: state, At: at})
	return true
}

// Clear empties the list and returns how many players it held.
func (b *Board) Clear() int {
	n := len(b.Ready)
	b.Ready = nil
	return n
}

// Count returns how many listed players are in state.
func (b *Board) Count(state ReadyState) int {
	n := 0
	for _, p := range b.Ready {
		if p.State == state {
			n++
		}
	}
	return n
}
