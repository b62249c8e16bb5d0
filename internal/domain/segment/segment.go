// Package segment partitions one match history into independent ladders:
// one replay per category, plus role-filtered views over each replay.
//
// Role segmentation is a view, not a separate computation: a role ladder
// lists the subset of entities that played the role, with rating numbers
// identical to the general ladder of the same category.
package segment

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/mavrel/laddergen/internal/domain/model"
	"github.com/mavrel/laddergen/internal/domain/rating"
	"github.com/mavrel/laddergen/internal/domain/replay"
	"github.com/mavrel/laddergen/pkg/logger"
	"github.com/mavrel/laddergen/pkg/metrics"
)

// Ladder is a ranked snapshot for one category/role segment.
type Ladder struct {
	Category model.Category
	Role     string // empty for the general ladder
	Entries  []model.LadderEntry
}

// Run is the outcome of one category replay plus its derived ladders,
// general ladder first.
type Run struct {
	Category model.Category
	Result   *replay.Result
	Ladders  []Ladder
}

// Option applies a configuration option to the Runner.
type Option func(*Runner)

// WithModel sets the rating model shared by all category replays.
func WithModel(m *rating.Model) Option {
	return func(r *Runner) {
		if m != nil {
			r.model = m
		}
	}
}

// WithRoles sets the roles to produce filtered ladders for. Roles apply to
// individually-queued categories only; team ladders are never role-split.
func WithRoles(roles []string) Option {
	return func(r *Runner) {
		r.roles = roles
	}
}

// WithLogger sets the runner logger.
func WithLogger(log logger.Logger) Option {
	return func(r *Runner) {
		if log != nil {
			r.log = log
		}
	}
}

// WithParallelism toggles concurrent category runs. Runs share only the
// immutable match list, so this is purely a throughput knob.
func WithParallelism(enabled bool) Option {
	return func(r *Runner) {
		r.parallel = enabled
	}
}

// Runner produces one independent replay per requested category.
type Runner struct {
	model    *rating.Model
	roles    []string
	log      logger.Logger
	parallel bool
}

// NewRunner creates a Runner with the given options.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		model:    rating.New(),
		parallel: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.Get().Named("segment")
	}
	return r
}

// Run replays the history once per category and derives the requested
// ladders. Results come back in the order categories were requested.
func (r *Runner) Run(ctx context.Context, matches []model.Match, entities []model.Entity, categories []model.Category) ([]*Run, error) {
	for _, c := range categories {
		if !c.Valid() {
			return nil, fmt.Errorf("%w: %q", replay.ErrInvalidCategory, c)
		}
	}

	directory := make(map[string]model.Entity, len(entities))
	for _, ent := range entities {
		directory[ent.ID] = ent
	}

	runs := make([]*Run, len(categories))
	errs := make([]error, len(categories))

	runOne := func(i int, category model.Category) {
		engine := replay.New(
			replay.WithModel(r.model),
			replay.WithLogger(r.log.Named(string(category))),
		)
		res, err := engine.Replay(ctx, matches, directory, category)
		if err != nil {
			errs[i] = err
			return
		}
		runs[i] = r.derive(res, directory)
	}

	if r.parallel {
		var wg sync.WaitGroup
		for i, category := range categories {
			wg.Add(1)
			go func(i int, category model.Category) {
				defer wg.Done()
				runOne(i, category)
			}(i, category)
		}
		wg.Wait()
	} else {
		for i, category := range categories {
			runOne(i, category)
		}
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return runs, nil
}

// derive builds the general ladder and the role views for one replay.
func (r *Runner) derive(res *replay.Result, directory map[string]model.Entity) *Run {
	run := &Run{Category: res.Category, Result: res}

	general := Ladder{
		Category: res.Category,
		Entries:  BuildLadder(res, directory, ""),
	}
	run.Ladders = append(run.Ladders, general)
	metrics.UpdateLadderEntities(string(res.Category), "all", len(general.Entries))

	if res.Category == model.CategoryTeam {
		return run
	}
	for _, role := range r.roles {
		ladder := Ladder{
			Category: res.Category,
			Role:     role,
			Entries:  BuildLadder(res, directory, role),
		}
		run.Ladders = append(run.Ladders, ladder)
		metrics.UpdateLadderEntities(string(res.Category), role, len(ladder.Entries))
	}
	return run
}

// BuildLadder ranks the entities of a finalized replay. With a non-empty
// role, only entities with at least one rating event under that role are
// listed; ratings and counters stay those of the general replay, since the
// role ladder is a view rather than a recomputation.
func BuildLadder(res *replay.Result, directory map[string]model.Entity, role string) []model.LadderEntry {
	var rolesPlayed map[string]map[string]bool
	if role != "" {
		rolesPlayed = rolesByEntity(res)
	}

	entries := make([]model.LadderEntry, 0, len(res.Standings))
	for id, standing := range res.Standings {
		if standing.Played == 0 {
			continue
		}
		if role != "" && !rolesPlayed[id][role] {
			continue
		}
		entries = append(entries, model.LadderEntry{
			EntityID: id,
			Name:     directory[id].Name,
			Role:     role,
			Rating:   int(math.Round(res.Ratings[id])),
			Played:   standing.Played,
			Won:      standing.Won,
			Lost:     standing.Lost,
			WinRate:  winRate(standing),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Rating != entries[j].Rating {
			return entries[i].Rating > entries[j].Rating
		}
		return entries[i].EntityID < entries[j].EntityID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// rolesByEntity collects, per entity, every role it held at play time.
func rolesByEntity(res *replay.Result) map[string]map[string]bool {
	played := make(map[string]map[string]bool)
	for _, event := range res.Events() {
		if played[event.EntityID] == nil {
			played[event.EntityID] = make(map[string]bool)
		}
		played[event.EntityID][event.Role] = true
	}
	return played
}

// winRate returns the win percentage rounded to one decimal, 0 when the
// entity has no matches.
func winRate(s replay.Standing) float64 {
	if s.Played == 0 {
		return 0
	}
	return math.Round(float64(s.Won)/float64(s.Played)*1000) / 10
}
