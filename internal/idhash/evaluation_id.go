package idhash

import (
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"

	"safe-bets/internal/domain"
)

// ComputeEvaluationID computes a deterministic evaluation_id.
// Formula: base58(SHA256(run_date|league_id|team_a_id|team_b_id))
// The same pair evaluated twice on one day gets the same ID, so history
// mirrors reject the second write as a duplicate.
func ComputeEvaluationID(runDate string, leagueID, teamAID, teamBID int) string {
	data := fmt.Sprintf("%s|%d|%d|%d", runDate, leagueID, teamAID, teamBID)
	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:])
}

// ComputeRecommendationID derives the ID of one bet of an evaluation.
// Formula: base58(SHA256(evaluation_id|bet_type))
func ComputeRecommendationID(evaluationID string, bet domain.BetType) string {
	hash := sha256.Sum256([]byte(evaluationID + "|" + string(bet)))
	return base58.Encode(hash[:])
}
