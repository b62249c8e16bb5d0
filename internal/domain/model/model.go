// Package model contains the domain records shared between layers:
// resolved matches as produced by the upstream collaborators, the entities
// they reference, and the rating events and ladder entries derived from them.
package model

import (
	"fmt"
	"time"
)

// Category partitions matches into independent ladders.
type Category string

// Match categories.
const (
	CategoryTeam   Category = "team"
	CategoryPickup Category = "pickup"
	CategoryRanked Category = "ranked"
)

// Categories lists all known categories in a stable order.
func Categories() []Category {
	return []Category{CategoryTeam, CategoryPickup, CategoryRanked}
}

// ParseCategory validates a category name.
func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case CategoryTeam, CategoryPickup, CategoryRanked:
		return Category(s), nil
	}
	return "", fmt.Errorf("unknown category: %q", s)
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	_, err := ParseCategory(string(c))
	return err == nil
}

// SideID identifies one of the two opposing sides of a match.
type SideID string

// Side identifiers, also used as the winner value on a match record.
const (
	SideA SideID = "side_a"
	SideB SideID = "side_b"
)

// Valid reports whether s is a known side.
func (s SideID) Valid() bool { return s == SideA || s == SideB }

// RoleNone is the bucket for participants with no role attribute.
// It is a valid, filterable role of its own, never an error.
const RoleNone = "none"

// Member is one participant slot on a side: the entity plus the role it
// held in that match. Role may be empty when the collaborator supplied none.
type Member struct {
	EntityID string
	Role     string
}

// Match is an immutable, already-resolved record of one contest.
type Match struct {
	ID        string
	Timestamp time.Time
	Category  Category
	SideA     []Member
	SideB     []Member
	Winner    SideID
}

// Side returns the members of the given side.
func (m Match) Side(id SideID) []Member {
	if id == SideA {
		return m.SideA
	}
	return m.SideB
}

// Entity is a rateable unit: a team or an individual participant.
// The identifier is stable across the entity's lifetime; renames keep it.
type Entity struct {
	ID          string
	Name        string
	DefaultRole string
}

// RatingEvent is one immutable record of a rating change for one entity in
// one match. Recomputation regenerates the whole set; events are never patched.
type RatingEvent struct {
	MatchID   string
	Timestamp time.Time
	Category  Category
	EntityID  string
	Side      SideID
	Role      string
	OldRating float64
	NewRating float64
	Delta     float64
}

// LadderEntry is one row of a published ladder artifact.
type LadderEntry struct {
	Rank     int     `json:"rank"`
	EntityID string  `json:"entity_id"`
	Name     string  `json:"display_name"`
	Role     string  `json:"role,omitempty"`
	Rating   int     `json:"rating"`
	Played   int     `json:"matches_played"`
	Won      int     `json:"matches_won"`
	Lost     int     `json:"matches_lost"`
	WinRate  float64 `json:"win_rate"`
}
