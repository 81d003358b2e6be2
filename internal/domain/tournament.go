package domain

import "sort"

// ConfirmationToken must be typed verbatim to finalize a tournament.
const ConfirmationToken = "CONFIRMAR"

// Tournament is a named competition whose roster maps user ids to team names.
type Tournament struct {
	Name    string
	Members map[string]string
}

// NewTournament returns a tournament with an empty roster.
func NewTournament(name string) *Tournament {
	return &Tournament{Name: name, Members: make(map[string]string)}
}

// TeamOf returns the team a user plays for.
func (t *Tournament) TeamOf(userID string) (string, bool) {
	team, ok := t.Members[userID]
	return team, ok
}

// HasTeam reports whether at least one member plays for team.
func (t *Tournament) HasTeam(team string) bool {
	for _, tm := range t.Members {
		if tm == team {
			return true
		}
	}
	return false
}

// Teams returns the distinct team names in lexical order.
func (t *Tournament) Teams() []string {
	seen := make(map[string]struct{}, len(t.Members))
	teams := make([]string, 0, len(t.Members))
	for _, tm := range t.Members {
		if _, ok := seen[tm]; ok {
			continue
		}
		seen[tm] = struct{}{}
		teams = append(teams, tm)
	}
	sort.Strings(teams)
	return teams
}

// MembersOf returns the user ids on team in lexical order.
func (t *Tournament) MembersOf(team string) []string {
	var users []string
	for uid, tm := range t.Members {
		if tm == team {
			users = append(users, uid)
		}
	}
	sort.Strings(users)
	return users
}
