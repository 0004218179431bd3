package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"safe-bets/internal/domain"
	"safe-bets/internal/observability"
	"safe-bets/internal/storage"
)

// HistoryStore implements storage.HistoryStore using PostgreSQL.
type HistoryStore struct {
	pool *Pool
}

// NewHistoryStore creates a new HistoryStore.
func NewHistoryStore(pool *Pool) *HistoryStore {
	return &HistoryStore{pool: pool}
}

// Compile-time interface check.
var _ storage.HistoryStore = (*HistoryStore)(nil)

const insertHistoryQuery = `
	INSERT INTO evaluation_history (
		evaluation_id, run_date, match, team_a_id, team_b_id, league_id,
		decision_over15, decision_result, over_index, rsi_a,
		confidence_over15, confidence_result, flags
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
`

const selectHistoryColumns = `
	SELECT evaluation_id, run_date, match, team_a_id, team_b_id, league_id,
		decision_over15, decision_result, over_index, rsi_a,
		confidence_over15, confidence_result, flags
	FROM evaluation_history
`

func historyArgs(e *domain.HistoryEntry) []any {
	return []any{
		e.EvaluationID,
		e.RunDate,
		e.Match,
		e.TeamAID,
		e.TeamBID,
		e.LeagueID,
		e.DecisionOver15,
		e.DecisionResult,
		e.OverIndex,
		e.RSIA,
		e.ConfidenceOver15,
		e.ConfidenceResult,
		e.Flags.String(),
	}
}

// Insert adds one entry. Returns ErrDuplicateKey if evaluation_id exists.
func (s *HistoryStore) Insert(ctx context.Context, e *domain.HistoryEntry) error {
	if e == nil || e.EvaluationID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, insertHistoryQuery, historyArgs(e)...)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

// InsertBulk adds entries atomically. Fails entire batch on any duplicate.
func (s *HistoryStore) InsertBulk(ctx context.Context, entries []*domain.HistoryEntry) (err error) {
	start := time.Now()
	defer func() { observe("insert_bulk", start, err) }()

	if len(entries) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range entries {
		if e == nil || e.EvaluationID == "" {
			return storage.ErrInvalidInput
		}
		if _, err := tx.Exec(ctx, insertHistoryQuery, historyArgs(e)...); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert history entry in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByID retrieves an entry by evaluation ID. Returns ErrNotFound if not exists.
func (s *HistoryStore) GetByID(ctx context.Context, evaluationID string) (*domain.HistoryEntry, error) {
	row := s.pool.QueryRow(ctx, selectHistoryColumns+` WHERE evaluation_id = $1`, evaluationID)
	e, err := scanHistoryEntry(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get history entry by id: %w", err)
	}
	return e, nil
}

// GetByRunDate retrieves entries of one run date in insertion order.
func (s *HistoryStore) GetByRunDate(ctx context.Context, runDate string) (_ []*domain.HistoryEntry, err error) {
	start := time.Now()
	defer func() { observe("get_by_run_date", start, err) }()

	rows, err := s.pool.Query(ctx, selectHistoryColumns+` WHERE run_date = $1 ORDER BY seq ASC`, runDate)
	if err != nil {
		return nil, fmt.Errorf("get history by run date: %w", err)
	}
	defer rows.Close()

	var result []*domain.HistoryEntry
	for rows.Next() {
		e, err := scanHistoryEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return result, nil
}

// scanHistoryEntry scans a single row into a HistoryEntry.
func scanHistoryEntry(row pgx.Row) (*domain.HistoryEntry, error) {
	var e domain.HistoryEntry
	var flags string

	err := row.Scan(
		&e.EvaluationID,
		&e.RunDate,
		&e.Match,
		&e.TeamAID,
		&e.TeamBID,
		&e.LeagueID,
		&e.DecisionOver15,
		&e.DecisionResult,
		&e.OverIndex,
		&e.RSIA,
		&e.ConfidenceOver15,
		&e.ConfidenceResult,
		&flags,
	)
	if err != nil {
		return nil, err
	}

	e.Flags, err = domain.ParseFlagSet(flags)
	if err != nil {
		return nil, fmt.Errorf("parse flags %q: %w", flags, err)
	}
	return &e, nil
}

// observe records query latency. Duplicate and missing keys are expected outcomes, not errors.
func observe(operation string, start time.Time, err error) {
	if errors.Is(err, storage.ErrDuplicateKey) || errors.Is(err, storage.ErrNotFound) {
		err = nil
	}
	observability.RecordDBQuery("postgres", operation, time.Since(start).Seconds(), err)
}
