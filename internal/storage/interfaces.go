package storage

import (
	"context"

	"safe-bets/internal/domain"
)

// RatingReader is the read side of the rating cache used by the evaluator.
type RatingReader interface {
	// GetByID retrieves a rating by team ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, teamID int) (*domain.TeamRating, error)
}

// RatingStore provides access to the per-run rating cache.
// It is populated once before evaluation and only read afterwards.
type RatingStore interface {
	RatingReader

	// Insert adds a rating. Returns ErrDuplicateKey if the team is already cached.
	Insert(ctx context.Context, r *domain.TeamRating) error

	// Count returns the number of cached ratings.
	Count(ctx context.Context) (int, error)

	// GetAll returns every rating ordered by team ID ASC.
	GetAll(ctx context.Context) ([]*domain.TeamRating, error)
}

// HistoryStore provides access to an append-only evaluation history.
type HistoryStore interface {
	// Insert adds one entry. Returns ErrDuplicateKey if evaluation_id exists.
	Insert(ctx context.Context, e *domain.HistoryEntry) error

	// InsertBulk adds entries atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, entries []*domain.HistoryEntry) error

	// GetByID retrieves an entry by evaluation ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, evaluationID string) (*domain.HistoryEntry, error)

	// GetByRunDate retrieves entries of one run date in insertion order.
	GetByRunDate(ctx context.Context, runDate string) ([]*domain.HistoryEntry, error)
}
