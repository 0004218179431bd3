package reporting

import (
	"sort"

	"safe-bets/internal/domain"
)

// Rank turns evaluations into the day's recommendations.
// One recommendation per decision reaching minTier, sorted by confidence
// descending. Ties keep evaluation order, Over15 before Result.
// topN <= 0 keeps everything.
func Rank(evals []*domain.MatchEvaluation, minTier domain.Tier, topN int) []domain.Recommendation {
	recs := make([]domain.Recommendation, 0, len(evals))
	for _, e := range evals {
		if e == nil {
			continue
		}
		for _, d := range e.Decisions() {
			if d.Actionable(minTier) {
				recs = append(recs, domain.NewRecommendation(e, d))
			}
		}
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Confidence > recs[j].Confidence
	})

	if topN > 0 && len(recs) > topN {
		recs = recs[:topN]
	}
	return recs
}

// CountByTier counts decisions per tier across both bet families.
func CountByTier(evals []*domain.MatchEvaluation) map[domain.Tier]int {
	counts := map[domain.Tier]int{
		domain.TierUltra: 0,
		domain.TierSafe:  0,
		domain.TierAvoid: 0,
	}
	for _, e := range evals {
		if e == nil {
			continue
		}
		for _, d := range e.Decisions() {
			counts[d.Tier]++
		}
	}
	return counts
}
