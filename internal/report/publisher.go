// Package report serializes finalized replays into the JSON artifacts
// consumed by the presentation collaborator: one ranked ladder per segment
// and one chronological history per category. It never mutates engine state.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mavrel/laddergen/internal/domain/model"
	"github.com/mavrel/laddergen/internal/domain/replay"
	"github.com/mavrel/laddergen/internal/domain/segment"
	"github.com/mavrel/laddergen/pkg/logger"
)

// Participant is one entity's rating change within a history entry.
type Participant struct {
	EntityID  string  `json:"entity_id"`
	Name      string  `json:"display_name"`
	Role      string  `json:"role,omitempty"`
	OldRating float64 `json:"old_rating"`
	NewRating float64 `json:"new_rating"`
	Delta     float64 `json:"delta"`
}

// HistoryEntry is one match's worth of rating changes, in replay order.
type HistoryEntry struct {
	MatchID     string        `json:"match_id"`
	Timestamp   time.Time     `json:"timestamp"`
	Category    string        `json:"category"`
	SideA       []Participant `json:"side_a"`
	SideB       []Participant `json:"side_b"`
	Winner      string        `json:"winner"`
	SideARating float64       `json:"side_a_avg_rating"`
	SideBRating float64       `json:"side_b_avg_rating"`
}

// Option applies a configuration option to the Publisher.
type Option func(*Publisher)

// WithOutputDir sets the artifact directory.
func WithOutputDir(dir string) Option {
	return func(p *Publisher) {
		if dir != "" {
			p.outputDir = dir
		}
	}
}

// WithTopN sets how many rows the console summary prints.
func WithTopN(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.topN = n
		}
	}
}

// WithConsole sets the writer for the summary table; nil disables it.
func WithConsole(w io.Writer) Option {
	return func(p *Publisher) {
		p.console = w
	}
}

// WithLogger sets the publisher logger.
func WithLogger(log logger.Logger) Option {
	return func(p *Publisher) {
		if log != nil {
			p.log = log
		}
	}
}

// Publisher writes ladder and history artifacts for finalized runs.
type Publisher struct {
	outputDir string
	topN      int
	console   io.Writer
	log       logger.Logger
}

// New creates a Publisher with the given options.
func New(opts ...Option) *Publisher {
	p := &Publisher{
		outputDir: "stats_reports",
		topN:      10,
		console:   os.Stdout,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logger.Get().Named("report")
	}
	return p
}

// LadderFilename names the ladder artifact for a segment.
func LadderFilename(category model.Category, role string) string {
	if role == "" {
		return fmt.Sprintf("%s_elo_ladder.json", category)
	}
	return fmt.Sprintf("%s_%s_elo_ladder.json", category, role)
}

// HistoryFilename names the history artifact for a category.
func HistoryFilename(category model.Category) string {
	return fmt.Sprintf("%s_elo_history.json", category)
}

// Publish writes every ladder of the run plus the category history, then
// prints the general-ladder summary table.
func (p *Publisher) Publish(ctx context.Context, run *segment.Run, directory map[string]model.Entity) error {
	if err := os.MkdirAll(p.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	for _, ladder := range run.Ladders {
		entries := ladder.Entries
		if entries == nil {
			entries = []model.LadderEntry{}
		}
		path := filepath.Join(p.outputDir, LadderFilename(ladder.Category, ladder.Role))
		if err := writeJSON(path, entries); err != nil {
			return err
		}
		p.log.Info(ctx, "ladder published",
			logger.String("path", path),
			logger.Int("entries", len(entries)),
		)
	}

	history := BuildHistory(run.Result, directory)
	path := filepath.Join(p.outputDir, HistoryFilename(run.Category))
	if err := writeJSON(path, history); err != nil {
		return err
	}
	p.log.Info(ctx, "history published",
		logger.String("path", path),
		logger.Int("matches", len(history)),
	)

	if p.console != nil && len(run.Ladders) > 0 {
		p.printSummary(run.Category, run.Ladders[0].Entries)
	}
	return nil
}

// BuildHistory converts a finalized replay into the history artifact,
// resolving display names from the entity directory.
func BuildHistory(res *replay.Result, directory map[string]model.Entity) []HistoryEntry {
	history := make([]HistoryEntry, 0, len(res.History))
	for _, update := range res.History {
		history = append(history, HistoryEntry{
			MatchID:     update.MatchID,
			Timestamp:   update.Timestamp,
			Category:    string(update.Category),
			SideA:       participants(update.SideA, directory),
			SideB:       participants(update.SideB, directory),
			Winner:      string(update.Winner),
			SideARating: update.SideARating,
			SideBRating: update.SideBRating,
		})
	}
	return history
}

func participants(events []model.RatingEvent, directory map[string]model.Entity) []Participant {
	out := make([]Participant, 0, len(events))
	for _, e := range events {
		out = append(out, Participant{
			EntityID:  e.EntityID,
			Name:      directory[e.EntityID].Name,
			Role:      e.Role,
			OldRating: e.OldRating,
			NewRating: e.NewRating,
			Delta:     e.Delta,
		})
	}
	return out
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// printSummary renders the top-N rows of the general ladder.
func (p *Publisher) printSummary(category model.Category, entries []model.LadderEntry) {
	fmt.Fprintf(p.console, "\nTop %d by rating (%s):\n", p.topN, category)
	fmt.Fprintf(p.console, "%-5s%-25s%-8s%-10s%-8s\n", "Rank", "Name", "Rating", "W-L", "Win %")
	for i, e := range entries {
		if i >= p.topN {
			break
		}
		name := e.Name
		if len(name) > 24 {
			name = name[:24]
		}
		fmt.Fprintf(p.console, "%-5d%-25s%-8d%-10s%.1f%%\n",
			e.Rank, name, e.Rating, fmt.Sprintf("%d-%d", e.Won, e.Lost), e.WinRate)
	}
}
