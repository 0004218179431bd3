package memory

import (
	"context"
	"sort"
	"sync"

	"safe-bets/internal/domain"
	"safe-bets/internal/storage"
)

// RatingStore is an in-memory implementation of storage.RatingStore.
// Ratings are immutable, so stored pointers are shared with readers.
type RatingStore struct {
	mu   sync.RWMutex
	data map[int]*domain.TeamRating // keyed by team_id
}

// NewRatingStore creates a new in-memory rating cache.
func NewRatingStore() *RatingStore {
	return &RatingStore{
		data: make(map[int]*domain.TeamRating),
	}
}

// Insert adds a rating. Returns ErrDuplicateKey if the team is already cached.
func (s *RatingStore) Insert(_ context.Context, r *domain.TeamRating) error {
	if r == nil || r.TeamID() == 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.TeamID()]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[r.TeamID()] = r
	return nil
}

// GetByID retrieves a rating by team ID. Returns ErrNotFound if not exists.
func (s *RatingStore) GetByID(_ context.Context, teamID int) (*domain.TeamRating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[teamID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return r, nil
}

// Count returns the number of cached ratings.
func (s *RatingStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data), nil
}

// GetAll returns every rating ordered by team ID ASC.
func (s *RatingStore) GetAll(_ context.Context) ([]*domain.TeamRating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.TeamRating, 0, len(s.data))
	for _, r := range s.data {
		result = append(result, r)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TeamID() < result[j].TeamID()
	})

	return result, nil
}

// Verify interface compliance
var _ storage.RatingStore = (*RatingStore)(nil)
