package reporting

import (
	"time"

	"safe-bets/internal/decision"
	"safe-bets/internal/domain"
)

// Report is the daily run summary.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	RunDate     string
	Thresholds  decision.Thresholds
	MinTier     domain.Tier

	Summary RunSummary

	// Tier counts across both bet families
	TierCounts map[domain.Tier]int

	// Ranked, as written to the recommendations file
	Recommendations []domain.Recommendation

	// Every evaluation, in input order
	Evaluations []*domain.MatchEvaluation
}

// RunSummary holds the counters of one engine run.
type RunSummary struct {
	CurrentSeason string
	PriorSeason   string // empty when only one season is loaded
	RatingsBuilt  int
	TeamsSkipped  int
	PairsLoaded   int
	PairsAbsent   int
}
