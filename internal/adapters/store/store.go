// Package store loads resolved match records and the entity directory
// produced by the upstream extraction and identity-resolution collaborators.
package store

import (
	"context"
	"errors"

	"github.com/mavrel/laddergen/internal/domain/model"
)

// Sentinel error kinds for this package.
var (
	ErrOpenStore   = errors.New("open match store failed")
	ErrReadStore   = errors.New("read match store failed")
	ErrStoreClosed = errors.New("match store closed")
)

// Store provides read-only access to one match history. Matches are loaded
// fully before replay begins; the engine never reads during computation.
type Store interface {
	// Matches returns every match record, in storage order. Ordering for
	// replay is the engine's concern, not the store's.
	Matches(ctx context.Context) ([]model.Match, error)

	// Entities returns the entity directory: every entity known to the
	// identity-resolution collaborator.
	Entities(ctx context.Context) ([]model.Entity, error)

	Close() error
}
