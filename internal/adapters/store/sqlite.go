package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // cgo-free sqlite driver

	"github.com/mavrel/laddergen/internal/domain/model"
)

// Accepted timestamp layouts, tried in order. An unparseable timestamp
// yields a zero time; the replay engine skips that match with a warning
// rather than the store failing the whole load.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// SQLiteStore reads match history from the collaborators' SQLite database:
//
//	entities(id, name, default_role)
//	matches(id, match_date, match_type, winner)
//	participants(match_id, entity_id, side, role)
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens the database read path. Structural failures (missing
// file, missing tables) surface as fatal errors on Open or first read.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: path is required", ErrOpenStore)
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpenStore, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", ErrOpenStore, err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Matches loads every match with its participants.
func (s *SQLiteStore) Matches(ctx context.Context) ([]model.Match, error) {
	if s.db == nil {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, match_date, match_type, winner
		FROM matches
		ORDER BY match_date, id`)
	if err != nil {
		return nil, fmt.Errorf("%w: matches: %v", ErrReadStore, err)
	}
	defer rows.Close()

	var matches []model.Match
	index := make(map[string]int)
	for rows.Next() {
		var (
			id, matchDate, matchType string
			winner                   string
		)
		if err := rows.Scan(&id, &matchDate, &matchType, &winner); err != nil {
			return nil, fmt.Errorf("%w: matches: %v", ErrReadStore, err)
		}
		index[id] = len(matches)
		matches = append(matches, model.Match{
			ID:        id,
			Timestamp: parseTimestamp(matchDate),
			Category:  model.Category(matchType),
			Winner:    model.SideID(winner),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: matches: %v", ErrReadStore, err)
	}

	if err := s.loadParticipants(ctx, matches, index); err != nil {
		return nil, err
	}
	return matches, nil
}

// loadParticipants fills both sides of every match, preserving row order
// within a side.
func (s *SQLiteStore) loadParticipants(ctx context.Context, matches []model.Match, index map[string]int) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT match_id, entity_id, side, role
		FROM participants
		ORDER BY match_id, rowid`)
	if err != nil {
		return fmt.Errorf("%w: participants: %v", ErrReadStore, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			matchID, entityID, side string
			role                    sql.NullString
		)
		if err := rows.Scan(&matchID, &entityID, &side, &role); err != nil {
			return fmt.Errorf("%w: participants: %v", ErrReadStore, err)
		}
		i, ok := index[matchID]
		if !ok {
			// Orphan participant row; nothing to attach it to.
			continue
		}
		member := model.Member{EntityID: entityID, Role: role.String}
		switch model.SideID(side) {
		case model.SideA:
			matches[i].SideA = append(matches[i].SideA, member)
		case model.SideB:
			matches[i].SideB = append(matches[i].SideB, member)
		}
	}
	return rows.Err()
}

// Entities loads the entity directory.
func (s *SQLiteStore) Entities(ctx context.Context) ([]model.Entity, error) {
	if s.db == nil {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, default_role
		FROM entities
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: entities: %v", ErrReadStore, err)
	}
	defer rows.Close()

	var entities []model.Entity
	for rows.Next() {
		var (
			id          string
			name        sql.NullString
			defaultRole sql.NullString
		)
		if err := rows.Scan(&id, &name, &defaultRole); err != nil {
			return nil, fmt.Errorf("%w: entities: %v", ErrReadStore, err)
		}
		entities = append(entities, model.Entity{
			ID:          id,
			Name:        name.String,
			DefaultRole: defaultRole.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: entities: %v", ErrReadStore, err)
	}
	return entities, nil
}

func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return time.Time{}
}
