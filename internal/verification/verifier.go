// Package verification checks that a rerun of the engine reproduces the history
// already held by a mirror.
package verification

import (
	"context"
	"fmt"
	"math"

	"safe-bets/internal/domain"
	"safe-bets/internal/storage"
)

// FloatTolerance is the tolerance for float64 comparisons.
const FloatTolerance = 1e-7

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string      // field name
	Expected interface{} // stored value
	Actual   interface{} // replayed value
}

func (d FieldDivergence) String() string {
	return fmt.Sprintf("%s: stored %v, replayed %v", d.Field, d.Expected, d.Actual)
}

// EntryResult is the verification of one evaluation.
type EntryResult struct {
	EvaluationID string
	Match        string
	Found        bool // stored entry exists
	Divergences  []FieldDivergence
}

// OK reports whether the stored entry exists and matches.
func (r EntryResult) OK() bool {
	return r.Found && len(r.Divergences) == 0
}

// Report summarises the verification of one run.
type Report struct {
	RunDate   string
	Total     int
	Matched   int
	Divergent int
	Missing   int
	Results   []EntryResult
}

// Consistent reports whether every replayed entry matched its stored copy.
func (r *Report) Consistent() bool {
	return r.Divergent == 0 && r.Missing == 0
}

// Verifier compares replayed history entries with a stored copy.
type Verifier struct {
	store storage.HistoryStore
}

// NewVerifier creates a verifier reading from store.
func NewVerifier(store storage.HistoryStore) *Verifier {
	return &Verifier{store: store}
}

// VerifyRun compares replayed entries of one run with the stored ones by evaluation ID.
func (v *Verifier) VerifyRun(ctx context.Context, runDate string, replayed []*domain.HistoryEntry) (*Report, error) {
	stored, err := v.store.GetByRunDate(ctx, runDate)
	if err != nil {
		return nil, fmt.Errorf("load stored history for %s: %w", runDate, err)
	}
	byID := make(map[string]*domain.HistoryEntry, len(stored))
	for _, e := range stored {
		byID[e.EvaluationID] = e
	}

	report := &Report{RunDate: runDate}
	seen := make(map[string]struct{}, len(replayed))
	for _, e := range replayed {
		if _, dup := seen[e.EvaluationID]; dup {
			continue
		}
		seen[e.EvaluationID] = struct{}{}
		report.Total++

		res := EntryResult{EvaluationID: e.EvaluationID, Match: e.Match}
		s, ok := byID[e.EvaluationID]
		switch {
		case !ok:
			report.Missing++
		default:
			res.Found = true
			res.Divergences = CompareHistoryEntries(s, e)
			if len(res.Divergences) == 0 {
				report.Matched++
			} else {
				report.Divergent++
			}
		}
		report.Results = append(report.Results, res)
	}
	return report, nil
}

// CompareHistoryEntries compares two history entries and returns divergences.
// Uses FloatTolerance for float64 comparisons.
func CompareHistoryEntries(stored, replayed *domain.HistoryEntry) []FieldDivergence {
	var divergences []FieldDivergence

	str := func(field, a, b string) {
		if a != b {
			divergences = append(divergences, FieldDivergence{Field: field, Expected: a, Actual: b})
		}
	}
	num := func(field string, a, b int) {
		if a != b {
			divergences = append(divergences, FieldDivergence{Field: field, Expected: a, Actual: b})
		}
	}
	flt := func(field string, a, b float64) {
		if !floatEquals(a, b) {
			divergences = append(divergences, FieldDivergence{Field: field, Expected: a, Actual: b})
		}
	}

	str("EvaluationID", stored.EvaluationID, replayed.EvaluationID)
	str("RunDate", stored.RunDate, replayed.RunDate)
	str("Match", stored.Match, replayed.Match)
	num("TeamAID", stored.TeamAID, replayed.TeamAID)
	num("TeamBID", stored.TeamBID, replayed.TeamBID)
	num("LeagueID", stored.LeagueID, replayed.LeagueID)

	// Decisions
	str("DecisionOver15", stored.DecisionOver15, replayed.DecisionOver15)
	str("DecisionResult", stored.DecisionResult, replayed.DecisionResult)

	// Indices
	flt("OverIndex", stored.OverIndex, replayed.OverIndex)
	flt("RSIA", stored.RSIA, replayed.RSIA)
	flt("ConfidenceOver15", stored.ConfidenceOver15, replayed.ConfidenceOver15)
	flt("ConfidenceResult", stored.ConfidenceResult, replayed.ConfidenceResult)

	if stored.Flags != replayed.Flags {
		divergences = append(divergences, FieldDivergence{
			Field:    "Flags",
			Expected: stored.Flags.String(),
			Actual:   replayed.Flags.String(),
		})
	}

	return divergences
}

// floatEquals compares two float64 values within FloatTolerance.
func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= FloatTolerance
}
