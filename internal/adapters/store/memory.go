package store

import (
	"context"

	"github.com/mavrel/laddergen/internal/domain/model"
)

// MemoryStore serves matches and entities already held in memory. Used by
// tests and by callers that receive resolved records directly from a
// collaborator instead of a database file.
type MemoryStore struct {
	matches  []model.Match
	entities []model.Entity
}

// NewMemoryStore creates a store over the given records.
func NewMemoryStore(matches []model.Match, entities []model.Entity) *MemoryStore {
	return &MemoryStore{matches: matches, entities: entities}
}

// Matches returns the stored match records.
func (s *MemoryStore) Matches(_ context.Context) ([]model.Match, error) {
	return s.matches, nil
}

// Entities returns the stored entity directory.
func (s *MemoryStore) Entities(_ context.Context) ([]model.Entity, error) {
	return s.entities, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
