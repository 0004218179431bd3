package domain

import "strings"

// HistoryEntry is one audited evaluation in the append-only history log.
type HistoryEntry struct {
	EvaluationID     string // deterministic, see idhash.ComputeEvaluationID
	RunDate          string // YYYY-MM-DD (UTC)
	Match            string
	TeamAID          int
	TeamBID          int
	LeagueID         int
	DecisionOver15   string
	DecisionResult   string
	OverIndex        float64
	RSIA             float64
	ConfidenceOver15 float64
	ConfidenceResult float64
	Flags            FlagSet
}

// NewHistoryEntry flattens an evaluation for the history log.
func NewHistoryEntry(evaluationID, runDate string, e *MatchEvaluation) HistoryEntry {
	return HistoryEntry{
		EvaluationID:     evaluationID,
		RunDate:          runDate,
		Match:            e.Match(),
		TeamAID:          e.TeamA.ID,
		TeamBID:          e.TeamB.ID,
		LeagueID:         e.LeagueID,
		DecisionOver15:   e.Over.Label(),
		DecisionResult:   e.Result.Label(),
		OverIndex:        e.OverIndex,
		RSIA:             e.RSIA,
		ConfidenceOver15: e.Over.Confidence,
		ConfidenceResult: e.Result.Confidence,
		Flags:            e.Flags,
	}
}

// Outcome is the settled result of a recommendation.
type Outcome string

const (
	OutcomeWin  Outcome = "WIN"
	OutcomeLoss Outcome = "LOSS"
)

// MatchResult is a finished match used to settle history rows.
type MatchResult struct {
	HomeTeam  string
	AwayTeam  string
	HomeGoals int
	AwayGoals int
}

// Match renders the same label as MatchEvaluation.Match.
func (r MatchResult) Match() string {
	return r.HomeTeam + " vs " + r.AwayTeam
}

// Over15 settles a +1.5 goals bet.
func (r MatchResult) Over15() Outcome {
	return outcome(r.HomeGoals+r.AwayGoals > 1)
}

// HomeOrDraw settles an "A or Draw" bet.
func (r MatchResult) HomeOrDraw() Outcome {
	return outcome(r.HomeGoals >= r.AwayGoals)
}

// AwayOrDraw settles a "B or Draw" bet.
func (r MatchResult) AwayOrDraw() Outcome {
	return outcome(r.AwayGoals >= r.HomeGoals)
}

func outcome(win bool) Outcome {
	if win {
		return OutcomeWin
	}
	return OutcomeLoss
}

// NormalizeMatchLabel makes labels from different sources comparable.
func NormalizeMatchLabel(label string) string {
	s := strings.ToLower(label)
	s = strings.ReplaceAll(s, " vs ", " v ")
	s = strings.ReplaceAll(s, "-", " ")
	return strings.Join(strings.Fields(s), " ")
}
