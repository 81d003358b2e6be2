package store

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RankingEntry is one team's win count.
type RankingEntry struct {
	Team string
	Wins int
}

// RankingDoc is the ranking document. It is encoded as a JSON object
// {"team": wins, ...} whose key order is the slice order, and decoded back in
// document order so first-seen order survives a restart.
type RankingDoc []RankingEntry

// MarshalJSON writes the entries as an ordered JSON object.
func (d RankingDoc) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Team)
		if err != nil {
			return nil, fmt.Errorf("store.RankingDoc.MarshalJSON: %w", err)
		}
		buf.Write(key)
		fmt.Fprintf(&buf, ":%d", e.Wins)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object preserving key order. A repeated key keeps
// its first position and its last value.
func (d *RankingDoc) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("store.RankingDoc.UnmarshalJSON: %w", err)
	}
	if tok == nil {
		*d = RankingDoc{}
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("store.RankingDoc.UnmarshalJSON: expected object, got %v", tok)
	}

	out := RankingDoc{}
	index := make(map[string]int)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("store.RankingDoc.UnmarshalJSON: %w", err)
		}
		team, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("store.RankingDoc.UnmarshalJSON: unexpected key %v", keyTok)
		}
		var wins int
		if err := dec.Decode(&wins); err != nil {
			return fmt.Errorf("store.RankingDoc.UnmarshalJSON: team %q: %w", team, err)
		}
		if i, seen := index[team]; seen {
			out[i].Wins = wins
			continue
		}
		index[team] = len(out)
		out = append(out, RankingEntry{Team: team, Wins: wins})
	}

	*d = out
	return nil
}
