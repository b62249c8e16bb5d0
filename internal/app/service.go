// Package service wires one end-to-end run: load the match history,
// replay each requested segment, and publish the resulting artifacts.
package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/mavrel/laddergen/internal/adapters/store"
	"github.com/mavrel/laddergen/internal/domain/model"
	"github.com/mavrel/laddergen/internal/domain/rating"
	"github.com/mavrel/laddergen/internal/domain/segment"
	"github.com/mavrel/laddergen/internal/report"
	"github.com/mavrel/laddergen/pkg/logger"
	"github.com/mavrel/laddergen/pkg/metrics"
)

// SegmentSummary reports the outcome of one category run.
type SegmentSummary struct {
	Category model.Category
	Matches  int
	Skipped  int
	Entities int
	Ladders  int
}

// Summary is the user-visible result of a completed run: every segment's
// counts plus the aggregated skip warnings. A completed run always yields
// ladders (possibly empty) and warnings, never a partial one.
type Summary struct {
	RunID    string
	Segments []SegmentSummary
	Warnings []string
	Duration time.Duration
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithCategories sets which category ladders to generate.
func WithCategories(categories []model.Category) Option {
	return func(s *Service) {
		if len(categories) > 0 {
			s.categories = categories
		}
	}
}

// WithRoles sets the role-filtered ladder views to derive.
func WithRoles(roles []string) Option {
	return func(s *Service) {
		s.roles = roles
	}
}

// WithKFactor sets the Elo K constant.
func WithKFactor(k float64) Option {
	return func(s *Service) {
		if k > 0 {
			s.kFactor = k
		}
	}
}

// WithInitialRating sets the first-appearance rating.
func WithInitialRating(r float64) Option {
	return func(s *Service) {
		if r > 0 {
			s.initialRating = r
		}
	}
}

// WithOutputDir sets the artifact directory.
func WithOutputDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.outputDir = dir
		}
	}
}

// WithTopN sets the console summary length.
func WithTopN(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.topN = n
		}
	}
}

// WithParallelism toggles concurrent category replays.
func WithParallelism(enabled bool) Option {
	return func(s *Service) {
		s.parallel = enabled
	}
}

// WithConsole sets the summary table writer; nil disables it.
func WithConsole(w io.Writer) Option {
	return func(s *Service) {
		s.console = w
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// Service runs the rating pipeline over one match store.
type Service struct {
	store store.Store

	categories    []model.Category
	roles         []string
	kFactor       float64
	initialRating float64
	outputDir     string
	topN          int
	parallel      bool
	console       io.Writer

	log logger.Logger
}

// New constructs a Service over the given store.
func New(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:         st,
		categories:    model.Categories(),
		kFactor:       rating.DefaultKFactor,
		initialRating: rating.DefaultInitialRating,
		outputDir:     "stats_reports",
		topN:          10,
		parallel:      true,
		console:       os.Stdout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get().Named("app")
	}
	return s
}

// Run executes one full batch: load, replay per segment, publish.
// Structural store failures abort the run; per-match failures come back
// as warnings on the summary.
func (s *Service) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	runID := uuid.NewString()

	s.log.Info(ctx, "run starting",
		logger.String("run_id", runID),
		logger.Int("categories", len(s.categories)),
	)

	matches, err := s.store.Matches(ctx)
	if err != nil {
		return nil, fmt.Errorf("load matches: %w", err)
	}
	entities, err := s.store.Entities(ctx)
	if err != nil {
		return nil, fmt.Errorf("load entities: %w", err)
	}
	s.log.Info(ctx, "match history loaded",
		logger.String("run_id", runID),
		logger.Int("matches", len(matches)),
		logger.Int("entities", len(entities)),
	)

	runner := segment.NewRunner(
		segment.WithModel(rating.New(
			rating.WithKFactor(s.kFactor),
			rating.WithInitialRating(s.initialRating),
		)),
		segment.WithRoles(s.roles),
		segment.WithParallelism(s.parallel),
		segment.WithLogger(s.log.Named("segment")),
	)
	runs, err := runner.Run(ctx, matches, entities, s.categories)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}

	directory := make(map[string]model.Entity, len(entities))
	for _, ent := range entities {
		directory[ent.ID] = ent
	}

	publisher := report.New(
		report.WithOutputDir(s.outputDir),
		report.WithTopN(s.topN),
		report.WithConsole(s.console),
		report.WithLogger(s.log.Named("report")),
	)

	summary := &Summary{RunID: runID}
	for _, run := range runs {
		if err := publisher.Publish(ctx, run, directory); err != nil {
			return nil, fmt.Errorf("publish %s: %w", run.Category, err)
		}
		summary.Segments = append(summary.Segments, SegmentSummary{
			Category: run.Category,
			Matches:  len(run.Result.History),
			Skipped:  len(run.Result.Warnings),
			Entities: len(run.Result.Ratings),
			Ladders:  len(run.Ladders),
		})
		for _, w := range run.Result.Warnings {
			summary.Warnings = append(summary.Warnings, w.String())
		}
	}

	summary.Duration = time.Since(start)
	metrics.RecordRunCompleted()
	s.log.Info(ctx, "run finished",
		logger.String("run_id", runID),
		logger.Int("warnings", len(summary.Warnings)),
		logger.Duration("duration", summary.Duration),
	)
	return summary, nil
}
