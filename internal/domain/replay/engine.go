// Package replay turns an ordered match history into point-in-time ratings.
//
// The engine consumes the full match list, filters it to one category, and
// replays it through the rating model in a fixed deterministic order:
// ascending timestamp, ties broken by ascending match id. That ordering is
// the single source of truth for reproducibility; replaying an unchanged
// history always yields identical events and ratings.
package replay

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mavrel/laddergen/internal/domain/model"
	"github.com/mavrel/laddergen/internal/domain/rating"
	"github.com/mavrel/laddergen/pkg/logger"
	"github.com/mavrel/laddergen/pkg/metrics"
)

// Warning describes one match skipped during replay.
type Warning struct {
	MatchID string
	Reason  string
}

func (w Warning) String() string {
	return fmt.Sprintf("match %s skipped: %s", w.MatchID, w.Reason)
}

// Standing holds an entity's lifecycle counters for one category.
type Standing struct {
	Played int
	Won    int
	Lost   int
}

// MatchUpdate is the full set of rating events produced by one match,
// grouped by side, plus the side ratings the model saw at match time.
type MatchUpdate struct {
	MatchID     string
	Timestamp   time.Time
	Category    model.Category
	Winner      model.SideID
	SideARating float64
	SideBRating float64
	SideA       []model.RatingEvent
	SideB       []model.RatingEvent
}

// Result is a finalized replay: the rating table, standings, and history
// for one category. It is frozen once Replay returns; a new run starts
// from the initial-rating baseline again.
type Result struct {
	Category  model.Category
	Ratings   map[string]float64
	Standings map[string]Standing
	History   []MatchUpdate
	Warnings  []Warning
}

// Events flattens the history into one chronological event list,
// side A before side B within each match.
func (r *Result) Events() []model.RatingEvent {
	var events []model.RatingEvent
	for _, u := range r.History {
		events = append(events, u.SideA...)
		events = append(events, u.SideB...)
	}
	return events
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithModel sets the rating model.
func WithModel(m *rating.Model) Option {
	return func(e *Engine) {
		if m != nil {
			e.model = m
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(log logger.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// Engine replays match histories. It holds no rating state between runs.
type Engine struct {
	model *rating.Model
	log   logger.Logger
}

// New creates an Engine with the given options.
func New(opts ...Option) *Engine {
	e := &Engine{
		model: rating.New(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logger.Get().Named("replay")
	}
	return e
}

// Replay processes every match of the given category in deterministic order
// through the rating model. Matches of other categories are ignored
// entirely. A match that cannot be applied (empty side, unknown winner or
// entity, unparseable timestamp) is skipped with a warning; replay
// continues over the rest. Zero valid matches yield an empty Result.
func (e *Engine) Replay(ctx context.Context, matches []model.Match, directory map[string]model.Entity, category model.Category) (*Result, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}

	start := time.Now()

	ordered := make([]model.Match, 0, len(matches))
	for _, m := range matches {
		if m.Category == category {
			ordered = append(ordered, m)
		}
	}
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].Timestamp.Equal(ordered[j].Timestamp) {
			return ordered[i].Timestamp.Before(ordered[j].Timestamp)
		}
		return ordered[i].ID < ordered[j].ID
	})

	res := &Result{
		Category:  category,
		Ratings:   make(map[string]float64),
		Standings: make(map[string]Standing),
	}

	for _, m := range ordered {
		if reason := e.validate(m, directory); reason != "" {
			res.Warnings = append(res.Warnings, Warning{MatchID: m.ID, Reason: reason})
			metrics.RecordMatchSkipped(string(category), reason)
			e.log.Warn(ctx, "skipping match",
				logger.String("match_id", m.ID),
				logger.String("reason", reason),
			)
			continue
		}
		res.History = append(res.History, e.apply(m, directory, res))
		metrics.RecordMatchReplayed(string(category))
	}

	metrics.ObserveReplayDuration(string(category), time.Since(start))
	e.log.Info(ctx, "replay finalized",
		logger.String("category", string(category)),
		logger.Int("matches", len(res.History)),
		logger.Int("skipped", len(res.Warnings)),
		logger.Int("entities", len(res.Ratings)),
	)
	return res, nil
}

// validate returns the skip reason for an unplayable match, or "".
func (e *Engine) validate(m model.Match, directory map[string]model.Entity) string {
	if m.Timestamp.IsZero() {
		return ReasonInvalidTimestamp
	}
	if len(m.SideA) == 0 || len(m.SideB) == 0 {
		return ReasonEmptySide
	}
	if !m.Winner.Valid() {
		return ReasonUnknownWinner
	}
	for _, member := range append(append([]model.Member{}, m.SideA...), m.SideB...) {
		if _, ok := directory[member.EntityID]; !ok {
			return ReasonUnknownEntity
		}
	}
	return ""
}

// apply runs one validated match through the model and updates the
// rating table and standings in place.
func (e *Engine) apply(m model.Match, directory map[string]model.Entity, res *Result) MatchUpdate {
	sideARating := e.sideRating(m.SideA, res.Ratings)
	sideBRating := e.sideRating(m.SideB, res.Ratings)

	expectedA := e.model.Expected(sideARating, sideBRating)
	expectedB := 1.0 - expectedA

	actualA, actualB := rating.OutcomeLoss, rating.OutcomeWin
	if m.Winner == model.SideA {
		actualA, actualB = rating.OutcomeWin, rating.OutcomeLoss
	}

	update := MatchUpdate{
		MatchID:     m.ID,
		Timestamp:   m.Timestamp,
		Category:    m.Category,
		Winner:      m.Winner,
		SideARating: sideARating,
		SideBRating: sideBRating,
		SideA:       e.applySide(m, model.SideA, directory, expectedA, actualA, res),
		SideB:       e.applySide(m, model.SideB, directory, expectedB, actualB, res),
	}
	return update
}

// sideRating returns the mean rating of a side, creating first-seen
// entities at the initial rating.
func (e *Engine) sideRating(members []model.Member, table map[string]float64) float64 {
	ratings := make([]float64, len(members))
	for i, member := range members {
		if _, ok := table[member.EntityID]; !ok {
			table[member.EntityID] = e.model.InitialRating()
		}
		ratings[i] = table[member.EntityID]
	}
	return rating.SideRating(ratings)
}

// applySide writes the identical side delta to every member, recording one
// rating event per participant.
func (e *Engine) applySide(m model.Match, side model.SideID, directory map[string]model.Entity, expected, actual float64, res *Result) []model.RatingEvent {
	members := m.Side(side)
	won := m.Winner == side

	events := make([]model.RatingEvent, 0, len(members))
	for _, member := range members {
		old := res.Ratings[member.EntityID]
		updated := e.model.Update(old, expected, actual)
		res.Ratings[member.EntityID] = updated

		standing := res.Standings[member.EntityID]
		standing.Played++
		if won {
			standing.Won++
		} else {
			standing.Lost++
		}
		res.Standings[member.EntityID] = standing

		events = append(events, model.RatingEvent{
			MatchID:   m.ID,
			Timestamp: m.Timestamp,
			Category:  m.Category,
			EntityID:  member.EntityID,
			Side:      side,
			Role:      roleAtPlayTime(member, directory),
			OldRating: old,
			NewRating: updated,
			Delta:     updated - old,
		})
	}
	metrics.RecordRatingEvents(len(events))
	return events
}

// roleAtPlayTime resolves the role recorded on the event: the per-match
// role if present, else the entity's default role, else RoleNone.
func roleAtPlayTime(member model.Member, directory map[string]model.Entity) string {
	if member.Role != "" {
		return member.Role
	}
	if ent, ok := directory[member.EntityID]; ok && ent.DefaultRole != "" {
		return ent.DefaultRole
	}
	return model.RoleNone
}
