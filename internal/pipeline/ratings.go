package pipeline

import (
	"context"
	"errors"
	"fmt"

	"safe-bets/internal/domain"
	"safe-bets/internal/storage"
)

// ErrNoRatings is returned when no team ends up with a usable rating.
var ErrNoRatings = errors.New("no usable team ratings")

// RatingSource produces the ratings of every team it knows.
type RatingSource interface {
	BlendAll() ([]*domain.TeamRating, int)
}

// BuildRatings fills store from source and returns built and skipped counts.
// The store is expected to be empty; a duplicate team is an error.
func BuildRatings(ctx context.Context, source RatingSource, store storage.RatingStore) (int, int, error) {
	ratings, skipped := source.BlendAll()
	for _, r := range ratings {
		if err := store.Insert(ctx, r); err != nil {
			return 0, skipped, fmt.Errorf("cache rating of team %d: %w", r.TeamID(), err)
		}
	}

	n, err := store.Count(ctx)
	if err != nil {
		return 0, skipped, fmt.Errorf("count ratings: %w", err)
	}
	if n == 0 {
		return 0, skipped, ErrNoRatings
	}
	return n, skipped, nil
}
