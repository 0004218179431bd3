package memory

import (
	"context"
	"sync"

	"safe-bets/internal/domain"
	"safe-bets/internal/storage"
)

// HistoryStore is an in-memory implementation of storage.HistoryStore.
type HistoryStore struct {
	mu    sync.RWMutex
	data  map[string]*domain.HistoryEntry // keyed by evaluation_id
	order []string                        // insertion order
}

// NewHistoryStore creates a new in-memory history store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{
		data: make(map[string]*domain.HistoryEntry),
	}
}

// Insert adds one entry. Returns ErrDuplicateKey if evaluation_id exists.
func (s *HistoryStore) Insert(_ context.Context, e *domain.HistoryEntry) error {
	if e == nil || e.EvaluationID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[e.EvaluationID]; exists {
		return storage.ErrDuplicateKey
	}

	entryCopy := *e
	s.data[e.EvaluationID] = &entryCopy
	s.order = append(s.order, e.EvaluationID)
	return nil
}

// InsertBulk adds entries atomically. Fails entire batch on any duplicate.
func (s *HistoryStore) InsertBulk(_ context.Context, entries []*domain.HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e == nil || e.EvaluationID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[e.EvaluationID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[e.EvaluationID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[e.EvaluationID] = struct{}{}
	}

	for _, e := range entries {
		entryCopy := *e
		s.data[e.EvaluationID] = &entryCopy
		s.order = append(s.order, e.EvaluationID)
	}
	return nil
}

// GetByID retrieves an entry by evaluation ID. Returns ErrNotFound if not exists.
func (s *HistoryStore) GetByID(_ context.Context, evaluationID string) (*domain.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.data[evaluationID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	entryCopy := *e
	return &entryCopy, nil
}

// GetByRunDate retrieves entries of one run date in insertion order.
func (s *HistoryStore) GetByRunDate(_ context.Context, runDate string) ([]*domain.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.HistoryEntry
	for _, id := range s.order {
		e := s.data[id]
		if e.RunDate == runDate {
			entryCopy := *e
			result = append(result, &entryCopy)
		}
	}
	return result, nil
}

// Verify interface compliance
var _ storage.HistoryStore = (*HistoryStore)(nil)
