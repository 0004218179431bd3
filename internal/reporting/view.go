package reporting

import (
	"safe-bets/internal/domain"
	"safe-bets/internal/idhash"
)

// RecommendationView is the JSON form of a recommendation shared by the API,
// the stream publisher and the live feed.
type RecommendationView struct {
	ID         string   `json:"id"`
	RunDate    string   `json:"run_date"`
	Rank       int      `json:"rank"`
	Type       string   `json:"type"`
	Match      string   `json:"match"`
	LeagueID   int      `json:"league_id"`
	TeamAID    int      `json:"team_a_id"`
	TeamBID    int      `json:"team_b_id"`
	Decision   string   `json:"decision"`
	Tier       string   `json:"tier"`
	Confidence float64  `json:"confidence"`
	OverIndex  float64  `json:"o15i"`
	RSIA       float64  `json:"rsi_a"`
	Flags      []string `json:"flags"`
}

// NewRecommendationViews converts ranked recommendations, keeping their order.
func NewRecommendationViews(runDate string, recs []domain.Recommendation) []RecommendationView {
	views := make([]RecommendationView, 0, len(recs))
	for i, r := range recs {
		evalID := idhash.ComputeEvaluationID(runDate, r.LeagueID, r.TeamAID, r.TeamBID)
		views = append(views, RecommendationView{
			ID:         idhash.ComputeRecommendationID(evalID, r.Bet),
			RunDate:    runDate,
			Rank:       i + 1,
			Type:       string(r.Bet),
			Match:      r.Match,
			LeagueID:   r.LeagueID,
			TeamAID:    r.TeamAID,
			TeamBID:    r.TeamBID,
			Decision:   r.Decision,
			Tier:       r.Tier.String(),
			Confidence: r.Confidence,
			OverIndex:  r.OverIndex,
			RSIA:       r.RSIA,
			Flags:      flagNames(r.Flags),
		})
	}
	return views
}

// EvaluationView is the JSON form of a match evaluation.
type EvaluationView struct {
	EvaluationID     string   `json:"evaluation_id"`
	RunDate          string   `json:"run_date"`
	Match            string   `json:"match"`
	LeagueID         int      `json:"league_id"`
	TeamAID          int      `json:"team_a_id"`
	TeamBID          int      `json:"team_b_id"`
	OverIndex        float64  `json:"o15i"`
	RSIA             float64  `json:"rsi_a"`
	RSIB             float64  `json:"rsi_b"`
	DecisionOver15   string   `json:"decision_over15"`
	DecisionResult   string   `json:"decision_result"`
	ConfidenceOver15 float64  `json:"confidence_over15"`
	ConfidenceResult float64  `json:"confidence_result"`
	Flags            []string `json:"flags"`
}

// NewEvaluationViews converts evaluations in input order.
func NewEvaluationViews(runDate string, evals []*domain.MatchEvaluation) []EvaluationView {
	views := make([]EvaluationView, 0, len(evals))
	for _, e := range evals {
		views = append(views, EvaluationView{
			EvaluationID:     idhash.ComputeEvaluationID(runDate, e.LeagueID, e.TeamA.ID, e.TeamB.ID),
			RunDate:          runDate,
			Match:            e.Match(),
			LeagueID:         e.LeagueID,
			TeamAID:          e.TeamA.ID,
			TeamBID:          e.TeamB.ID,
			OverIndex:        e.OverIndex,
			RSIA:             e.RSIA,
			RSIB:             e.RSIB,
			DecisionOver15:   e.Over.Label(),
			DecisionResult:   e.Result.Label(),
			ConfidenceOver15: e.Over.Confidence,
			ConfidenceResult: e.Result.Confidence,
			Flags:            flagNames(e.Flags),
		})
	}
	return views
}

// HistoryView is the JSON form of a history entry read back from a mirror.
type HistoryView struct {
	EvaluationID     string   `json:"evaluation_id"`
	RunDate          string   `json:"run_date"`
	Match            string   `json:"match"`
	LeagueID         int      `json:"league_id"`
	TeamAID          int      `json:"team_a_id"`
	TeamBID          int      `json:"team_b_id"`
	OverIndex        float64  `json:"o15i"`
	RSIA             float64  `json:"rsi_a"`
	DecisionOver15   string   `json:"decision_over15"`
	DecisionResult   string   `json:"decision_result"`
	ConfidenceOver15 float64  `json:"confidence_over15"`
	ConfidenceResult float64  `json:"confidence_result"`
	Flags            []string `json:"flags"`
}

// NewHistoryViews converts history entries in input order.
func NewHistoryViews(entries []*domain.HistoryEntry) []HistoryView {
	views := make([]HistoryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, HistoryView{
			EvaluationID:     e.EvaluationID,
			RunDate:          e.RunDate,
			Match:            e.Match,
			LeagueID:         e.LeagueID,
			TeamAID:          e.TeamAID,
			TeamBID:          e.TeamBID,
			OverIndex:        e.OverIndex,
			RSIA:             e.RSIA,
			DecisionOver15:   e.DecisionOver15,
			DecisionResult:   e.DecisionResult,
			ConfidenceOver15: e.ConfidenceOver15,
			ConfidenceResult: e.ConfidenceResult,
			Flags:            flagNames(e.Flags),
		})
	}
	return views
}

func flagNames(s domain.FlagSet) []string {
	names := []string{}
	for _, f := range s.Flags() {
		names = append(names, f.String())
	}
	return names
}
