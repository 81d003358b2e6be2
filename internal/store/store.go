// Package store persists the durable snapshot: two independently keyed
// documents, "state" (every tenant) and "ranking" (the global win ledger).
// Each document is overwritten wholesale on every save.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gosuda/torneo/internal/domain"
)

// Document keys.
const (
	KeyState   = "state"
	KeyRanking = "ranking"
)

// ErrNotFound is returned by a Backend when a key has never been written.
var ErrNotFound = errors.New("store: key not found") //nolint:gochecknoglobals // sentinel error

// Backend is a flat key-value medium for whole documents.
type Backend interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// StateDoc is the persisted image of every tenant.
type StateDoc struct {
	Tenants map[string]*TenantDoc `json:"tenants"`
}

// TenantDoc is the persisted image of one tenant.
type TenantDoc struct {
	Tournaments   map[string]map[string]string `json:"tournaments"`
	Rooms         map[string]*domain.Room      `json:"rooms"`
	Selection     *string                      `json:"selection"`
	ChannelID     *string                      `json:"channelId"`
	LiveMessageID *string                      `json:"liveMessageId"`
	Board         *domain.Board                `json:"board,omitempty"`
}

// Store reads and writes the snapshot documents through a Backend.
type Store struct {
	backend Backend
}

// New creates a Store over backend.
func New(backend Backend) *Store {
	return &Store{backend: backend}
}

// LoadState reads the state document. A missing document yields an empty one.
func (s *Store) LoadState(ctx context.Context) (*StateDoc, error) {
	doc := &StateDoc{Tenants: make(map[string]*TenantDoc)}

	data, err := s.backend.Load(ctx, KeyState)
	if errors.Is(err, ErrNotFound) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store.Store.LoadState: %w: %w", domain.ErrPersistence, err)
	}

	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("store.Store.LoadState: decode: %w: %w", domain.ErrPersistence, err)
	}
	if doc.Tenants == nil {
		doc.Tenants = make(map[string]*TenantDoc)
	}

	return doc, nil
}

// SaveState overwrites the state document.
func (s *Store) SaveState(ctx context.Context, doc *StateDoc) error {
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("store.Store.SaveState: encode: %w: %w", domain.ErrPersistence, err)
	}

	if err := s.backend.Save(ctx, KeyState, data); err != nil {
		return fmt.Errorf("store.Store.SaveState: %w: %w", domain.ErrPersistence, err)
	}

	return nil
}

// LoadRanking reads the ranking document. A missing document yields no entries.
func (s *Store) LoadRanking(ctx context.Context) (RankingDoc, error) {
	data, err := s.backend.Load(ctx, KeyRanking)
	if errors.Is(err, ErrNotFound) {
		return RankingDoc{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store.Store.LoadRanking: %w: %w", domain.ErrPersistence, err)
	}

	var doc RankingDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("store.Store.LoadRanking: decode: %w: %w", domain.ErrPersistence, err)
	}

	return doc, nil
}

// SaveRanking overwrites the ranking document.
func (s *Store) SaveRanking(ctx context.Context, doc RankingDoc) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("store.Store.SaveRanking: encode: %w: %w", domain.ErrPersistence, err)
	}

	if err := s.backend.Save(ctx, KeyRanking, data); err != nil {
		return fmt.Errorf("store.Store.SaveRanking: %w: %w", domain.ErrPersistence, err)
	}

	return nil
}
