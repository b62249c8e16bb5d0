// Package rating implements the Elo rating model: a pure function from
// current ratings and a match outcome to updated ratings.
package rating

import (
	"math"
)

// Default model constants.
const (
	DefaultKFactor       = 32.0
	DefaultInitialRating = 1000.0
)

// Outcome values for a side. Draws are not modeled; a future draw outcome
// would award 0.5 per standard Elo convention.
const (
	OutcomeWin  = 1.0
	OutcomeLoss = 0.0
)

// Option applies a configuration option to the Model.
type Option func(*Model)

// WithKFactor sets the sensitivity constant K.
func WithKFactor(k float64) Option {
	return func(m *Model) {
		if k > 0 {
			m.k = k
		}
	}
}

// WithInitialRating sets the rating assigned to entities on first appearance.
func WithInitialRating(r float64) Option {
	return func(m *Model) {
		if r > 0 {
			m.initial = r
		}
	}
}

// Model holds the Elo parameters. It carries no rating state of its own;
// the rating table it operates on is owned by the caller.
type Model struct {
	k       float64
	initial float64
}

// New creates a Model with the given options.
func New(opts ...Option) *Model {
	m := &Model{
		k:       DefaultKFactor,
		initial: DefaultInitialRating,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// KFactor returns the configured K constant.
func (m *Model) KFactor() float64 { return m.k }

// InitialRating returns the rating for first-seen entities.
func (m *Model) InitialRating() float64 { return m.initial }

// Expected returns the probability of the side rated ratingA beating the
// side rated ratingB.
func (m *Model) Expected(ratingA, ratingB float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (ratingB-ratingA)/400.0))
}

// Update returns the new rating after a match with the given expected and
// actual outcomes.
func (m *Model) Update(rating, expected, actual float64) float64 {
	return rating + m.k*(actual-expected)
}

// Delta returns the rating change for a side with the given expected and
// actual outcomes. Every member of the side receives this identical delta.
func (m *Model) Delta(expected, actual float64) float64 {
	return m.k * (actual - expected)
}

// SideRating returns the rating of a side: the arithmetic mean of its
// members' ratings. A single-entity side degenerates to that entity's own
// rating. The caller must not pass an empty slice.
func SideRating(ratings []float64) float64 {
	sum := 0.0
	for _, r := range ratings {
		sum += r
	}
	return sum / float64(len(ratings))
}
