package domain

import "sort"

// ViewRef points at a message published through the presentation gateway.
type ViewRef struct {
	ChannelID string `json:"channelId"`
	MessageID string `json:"messageId"`
}

// IsZero reports whether the reference points nowhere.
func (r ViewRef) IsZero() bool {
	return r.ChannelID == "" || r.MessageID == ""
}

// Tenant is one host community. All tournaments, rooms and the live view are
// scoped to it.
type Tenant struct {
	ID          string
	Tournaments map[string]*Tournament
	Rooms       map[string]*Room
	// Selection is the focused tournament name; empty means none.
	Selection string
	// ChannelID is where the live view lives; empty until a dashboard is published.
	ChannelID     string
	LiveMessageID string
	// Board is the readiness board; its view ref is zero until opened.
	Board Board
}

// NewTenant returns an empty tenant.
func NewTenant(id string) *Tenant {
	return &Tenant{
		ID:          id,
		Tournaments: make(map[string]*Tournament),
		Rooms:       make(map[string]*Room),
	}
}

// LiveView returns the reference to the published live view, if any.
func (t *Tenant) LiveView() ViewRef {
	return ViewRef{ChannelID: t.ChannelID, MessageID: t.LiveMessageID}
}

// SelectedTournament returns the focused tournament when it still exists.
func (t *Tenant) SelectedTournament() (*Tournament, bool) {
	if t.Selection == "" {
		return nil, false
	}
	tr, ok := t.Tournaments[t.Selection]
	return tr, ok
}

// TournamentNames returns tournament names in lexical order.
func (t *Tenant) TournamentNames() []string {
	names := make([]string, 0, len(t.Tournaments))
	for name := range t.Tournaments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UsesTeam reports whether any tournament of the tenant has a member on team.
func (t *Tenant) UsesTeam(team string) bool {
	for _, tr := range t.Tournaments {
		if tr.HasTeam(team) {
			return true
		}
	}
	return false
}

// SortedRooms returns the tenant's rooms ordered by deadline, then id.
func (t *Tenant) SortedRooms() []*Room {
	rooms := make([]*Room, 0, len(t.Rooms))
	for _, r := range t.Rooms {
		rooms = append(rooms, r)
	}
	sort.Slice(rooms, func(i, j int) bool {
		if !rooms[i].Deadline.Equal(rooms[j].Deadline) {
			return rooms[i].Deadline.Before(rooms[j].Deadline)
		}
		return rooms[i].ID < rooms[j].ID
	})
	return rooms
}
