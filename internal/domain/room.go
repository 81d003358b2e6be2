package domain

import (
	"slices"
	"time"
)

// RoomState is the lifecycle position of a room.
type RoomState string

const (
	RoomStateOpen         RoomState = "OPEN"
	RoomStateReminderSent RoomState = "REMINDER_SENT"
	RoomStateClosing      RoomState = "CLOSING"
)

// Room is a daily time-windowed join session.
type Room struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Open      TimeOfDay `json:"openTime"`
	Close     TimeOfDay `json:"closeTime"`
	Players   []string  `json:"players"`
	ChannelID string    `json:"channelId"`
	MessageID string    `json:"messageId,omitempty"`
	State     RoomState `json:"state"`
	Deadline  time.Time `json:"deadline"`
}

// View returns the reference to the room's published view.
func (r *Room) View() ViewRef {
	return ViewRef{ChannelID: r.ChannelID, MessageID: r.MessageID}
}

// HasPlayer reports whether userID already joined.
func (r *Room) HasPlayer(userID string) bool {
	return slices.Contains(r.Players, userID)
}

// AddPlayer appends userID unless present. It reports whether the list changed.
func (r *Room) AddPlayer(userID string) bool {
	if r.HasPlayer(userID) {
		return false
	}
	r.Players = append(r.Players, userID)
	return true
}

// AcceptsJoins reports whether a join at the given instant is allowed.
func (r *Room) AcceptsJoins(at time.Time) bool {
	if r.State == RoomStateClosing {
		return false
	}
	return InWindow(r.Open, r.Close, TimeOfDayOf(at))
}
