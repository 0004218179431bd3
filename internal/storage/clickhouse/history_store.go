package clickhouse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"safe-bets/internal/domain"
	"safe-bets/internal/observability"
	"safe-bets/internal/storage"
)

// HistoryStore implements storage.HistoryStore using ClickHouse.
// MergeTree does not enforce uniqueness, so inserts check evaluation_id first.
type HistoryStore struct {
	conn  *Conn
	clock func() time.Time
}

// NewHistoryStore creates a new HistoryStore.
func NewHistoryStore(conn *Conn) *HistoryStore {
	return &HistoryStore{conn: conn, clock: time.Now}
}

// WithClock sets the clock used to sequence inserted rows.
func (s *HistoryStore) WithClock(clock func() time.Time) *HistoryStore {
	s.clock = clock
	return s
}

// Compile-time interface check.
var _ storage.HistoryStore = (*HistoryStore)(nil)

const insertHistoryQuery = `
	INSERT INTO evaluation_history (
		evaluation_id, run_date, seq, match, team_a_id, team_b_id, league_id,
		decision_over15, decision_result, over_index, rsi_a,
		confidence_over15, confidence_result, flags
	)
`

const selectHistoryColumns = `
	SELECT evaluation_id, run_date, match, team_a_id, team_b_id, league_id,
		decision_over15, decision_result, over_index, rsi_a,
		confidence_over15, confidence_result, flags
	FROM evaluation_history
`

// Insert adds one entry. Returns ErrDuplicateKey if evaluation_id exists.
func (s *HistoryStore) Insert(ctx context.Context, e *domain.HistoryEntry) error {
	return s.InsertBulk(ctx, []*domain.HistoryEntry{e})
}

// InsertBulk adds entries in one batch. Fails entire batch on any duplicate.
func (s *HistoryStore) InsertBulk(ctx context.Context, entries []*domain.HistoryEntry) (err error) {
	start := time.Now()
	defer func() { observe("insert_bulk", start, err) }()

	if len(entries) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e == nil || e.EvaluationID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[e.EvaluationID]; exists {
			return storage.ErrDuplicateKey
		}
		seen[e.EvaluationID] = struct{}{}
	}

	for _, e := range entries {
		exists, err := s.exists(ctx, e.EvaluationID)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, insertHistoryQuery)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	base := s.clock().UnixNano()
	for i, e := range entries {
		err = batch.Append(
			e.EvaluationID, e.RunDate, base+int64(i), e.Match,
			int64(e.TeamAID), int64(e.TeamBID), int64(e.LeagueID),
			e.DecisionOver15, e.DecisionResult, e.OverIndex, e.RSIA,
			e.ConfidenceOver15, e.ConfidenceResult, e.Flags.String(),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByID retrieves an entry by evaluation ID. Returns ErrNotFound if not exists.
func (s *HistoryStore) GetByID(ctx context.Context, evaluationID string) (*domain.HistoryEntry, error) {
	rows, err := s.conn.Query(ctx, selectHistoryColumns+` WHERE evaluation_id = ? LIMIT 1`, evaluationID)
	if err != nil {
		return nil, fmt.Errorf("query by id: %w", err)
	}
	defer rows.Close()

	entries, err := scanHistoryEntries(rows)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, storage.ErrNotFound
	}
	return entries[0], nil
}

// GetByRunDate retrieves entries of one run date in insertion order.
func (s *HistoryStore) GetByRunDate(ctx context.Context, runDate string) (_ []*domain.HistoryEntry, err error) {
	start := time.Now()
	defer func() { observe("get_by_run_date", start, err) }()

	rows, err := s.conn.Query(ctx, selectHistoryColumns+` WHERE run_date = ? ORDER BY seq ASC`, runDate)
	if err != nil {
		return nil, fmt.Errorf("query by run date: %w", err)
	}
	defer rows.Close()

	return scanHistoryEntries(rows)
}

func (s *HistoryStore) exists(ctx context.Context, evaluationID string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `SELECT count(*) FROM evaluation_history WHERE evaluation_id = ?`, evaluationID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// chRows is the subset of driver.Rows used for scanning.
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanHistoryEntries(rows chRows) ([]*domain.HistoryEntry, error) {
	var result []*domain.HistoryEntry
	for rows.Next() {
		var e domain.HistoryEntry
		var teamA, teamB, league int64
		var flags string

		err := rows.Scan(
			&e.EvaluationID, &e.RunDate, &e.Match, &teamA, &teamB, &league,
			&e.DecisionOver15, &e.DecisionResult, &e.OverIndex, &e.RSIA,
			&e.ConfidenceOver15, &e.ConfidenceResult, &flags,
		)
		if err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}

		e.TeamAID, e.TeamBID, e.LeagueID = int(teamA), int(teamB), int(league)
		e.Flags, err = domain.ParseFlagSet(flags)
		if err != nil {
			return nil, fmt.Errorf("parse flags %q: %w", flags, err)
		}
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}

// observe records query latency. Duplicate and missing keys are expected outcomes, not errors.
func observe(operation string, start time.Time, err error) {
	if errors.Is(err, storage.ErrDuplicateKey) || errors.Is(err, storage.ErrNotFound) {
		err = nil
	}
	observability.RecordDBQuery("clickhouse", operation, time.Since(start).Seconds(), err)
}
