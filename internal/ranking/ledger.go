// Package ranking keeps the process-wide win counter. Entries are keyed by team
// name across all tenants, only ever incremented, and persisted as their own
// document.
package ranking

import (
	"context"
	"fmt"
	"sort"

	"github.com/gosuda/torneo/internal/store"
)

// DocStore is the subset of store.Store used by the ledger.
type DocStore interface {
	LoadRanking(ctx context.Context) (store.RankingDoc, error)
	SaveRanking(ctx context.Context, doc store.RankingDoc) error
}

// Entry is one team's standing.
type Entry struct {
	Team string `json:"team"`
	Wins int    `json:"wins"`
}

// Ledger is the win counter. It is not safe for concurrent use; the engine loop
// serializes access.
type Ledger struct {
	entries []Entry
	index   map[string]int
	store   DocStore
}

// New creates an empty ledger backed by s.
func New(s DocStore) *Ledger {
	return &Ledger{index: make(map[string]int), store: s}
}

// Load replaces the ledger with the persisted document, keeping its order.
func (l *Ledger) Load(ctx context.Context) error {
	doc, err := l.store.LoadRanking(ctx)
	if err != nil {
		return fmt.Errorf("ranking.Ledger.Load: %w", err)
	}

	l.entries = l.entries[:0]
	l.index = make(map[string]int, len(doc))
	for _, e := range doc {
		if e.Wins < 0 {
			e.Wins = 0
		}
		l.index[e.Team] = len(l.entries)
		l.entries = append(l.entries, Entry{Team: e.Team, Wins: e.Wins})
	}

	return nil
}

// RecordWin increments team by one, creating it at 1, and persists the
// ledger. The returned total reflects the increment even when the write
// fails; the error then wraps domain.ErrPersistence.
func (l *Ledger) RecordWin(ctx context.Context, team string) (int, error) {
	i, ok := l.index[team]
	if !ok {
		i = len(l.entries)
		l.index[team] = i
		l.entries = append(l.entries, Entry{Team: team})
	}
	l.entries[i].Wins++
	total := l.entries[i].Wins

	if err := l.store.SaveRanking(ctx, l.doc()); err != nil {
		return total, fmt.Errorf("ranking.Ledger.RecordWin: %w", err)
	}

	return total, nil
}

// Wins returns the count for team.
func (l *Ledger) Wins(team string) int {
	if i, ok := l.index[team]; ok {
		return l.entries[i].Wins
	}
	return 0
}

// Len returns the number of teams with at least one recorded win.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Top returns up to n entries by wins descending; ties keep first-seen order.
// n <= 0 returns every entry.
func (l *Ledger) Top(n int) []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Wins > out[j].Wins })
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

func (l *Ledger) doc() store.RankingDoc {
	doc := make(store.RankingDoc, len(l.entries))
	for i, e := range l.entries {
		doc[i] = store.RankingEntry{Team: e.Team, Wins: e.Wins}
	}
	return doc
}
